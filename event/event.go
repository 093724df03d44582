package event

import "time"

// DefaultMessage is the message published by a default run.
const DefaultMessage = "LogEvent published"

// LogEvent carries a log message and the time it was sent. It is immutable once
// constructed.
type LogEvent struct {
	message   string
	timestamp time.Time
}

// NewLogEvent creates a LogEvent.
func NewLogEvent(message string, timestamp time.Time) LogEvent {
	return LogEvent{
		message:   message,
		timestamp: timestamp,
	}
}

// Now creates a LogEvent stamped with the current local time.
func Now(message string) LogEvent {
	return NewLogEvent(message, time.Now())
}

func (e LogEvent) Message() string {
	return e.message
}

func (e LogEvent) Timestamp() time.Time {
	return e.timestamp
}
