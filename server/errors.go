package server

import "github.com/pingcap/errors"

var (
	ErrServerClosed = errors.New("server is closed")
)
