package sink

import (
	"time"

	"logevent/event"
	"logevent/publisher"
)

// DefaultTimeLayout renders timestamps as local wall-clock time.
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Sink turns a published LogEvent into a persisted log line.
type Sink interface {
	publisher.Handler

	Name() string
	// Subscribe registers the sink with the publisher.
	Subscribe(r publisher.Registrar)
	// Write formats and persists one line. A zero timestamp means now.
	Write(message string, timestamp time.Time) error
}

// FormatLine renders "{timestamp} - {message}\n".
func FormatLine(timestamp time.Time, message, layout string) string {
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	if layout == "" {
		layout = DefaultTimeLayout
	}
	return timestamp.Format(layout) + " - " + message + "\n"
}

func handle(s Sink, ev event.LogEvent) error {
	return s.Write(ev.Message(), ev.Timestamp())
}
