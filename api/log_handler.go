package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo"
	"github.com/pingcap/errors"

	"logevent/log"
	"logevent/utils"
)

var ErrInvalidPara = errors.New("Invalid paramater")

// LogRequest is the body of POST /log.
type LogRequest struct {
	Message string `json:"message"`
}

// LogResponse is the data of a successful POST /log.
type LogResponse struct {
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Subscribers int       `json:"subscribers"`
}

// PublishLog dispatches one event to every subscribed sink.
func (s *AdminServer) PublishLog(echoCtx echo.Context) error {
	arg := LogRequest{}

	if err := echoCtx.Bind(&arg); err != nil {
		return echoCtx.JSON(http.StatusBadRequest, utils.NewResp().SetError(err.Error()))
	}
	if len(strings.TrimSpace(arg.Message)) == 0 {
		return echoCtx.JSON(http.StatusBadRequest, utils.NewResp().SetError(ErrInvalidPara.Error()))
	}

	ev, err := s.pub.Publish(arg.Message)
	if err != nil {
		log.Log.Errorf("publish %q error, err: %v", arg.Message, err)
		return echoCtx.JSON(http.StatusInternalServerError, utils.NewResp().SetError(err.Error()))
	}

	return echoCtx.JSON(http.StatusOK, utils.NewResp().SetData(LogResponse{
		Message:     ev.Message(),
		Timestamp:   ev.Timestamp(),
		Subscribers: len(s.pub.Subscribers()),
	}))
}

// AllSubscribers returns the subscribed sink names in registration order.
func (s *AdminServer) AllSubscribers(echoCtx echo.Context) error {
	return echoCtx.JSON(http.StatusOK, utils.NewResp().SetData(s.pub.Subscribers()))
}

func (s *AdminServer) Health(echoCtx echo.Context) error {
	return echoCtx.JSON(http.StatusOK, utils.NewResp())
}
