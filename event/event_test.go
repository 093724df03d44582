package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewLogEvent(t *testing.T) {
	ts := time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC)
	ev := NewLogEvent(DefaultMessage, ts)

	assert.Equal(t, "LogEvent published", ev.Message())
	assert.Equal(t, ts, ev.Timestamp())
	assert.Equal(t, NewLogEvent(DefaultMessage, ts), ev)
}

func TestNowStampsCurrentTime(t *testing.T) {
	before := time.Now()
	ev := Now("x")

	assert.False(t, ev.Timestamp().Before(before))
	assert.False(t, ev.Timestamp().After(time.Now()))
}
