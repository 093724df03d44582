package sink

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/pingcap/errors"
	gometrics "github.com/rcrowley/go-metrics"

	"logevent/event"
	"logevent/metrics"
	"logevent/publisher"
)

const ConsoleSinkName = "console"

// ConsoleSink writes log lines to a terminal stream.
type ConsoleSink struct {
	layout string

	mu  sync.Mutex
	out io.Writer

	lines    gometrics.Counter
	failures gometrics.Counter
}

// NewConsoleSink creates a sink writing to out, or to os.Stdout when out is nil.
func NewConsoleSink(out io.Writer, layout string) *ConsoleSink {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleSink{
		layout:   layout,
		out:      out,
		lines:    metrics.SinkLines(metrics.Registry, ConsoleSinkName),
		failures: metrics.SinkErrors(metrics.Registry, ConsoleSinkName),
	}
}

func (s *ConsoleSink) Name() string {
	return ConsoleSinkName
}

func (s *ConsoleSink) Subscribe(r publisher.Registrar) {
	r.Register(s)
}

func (s *ConsoleSink) Handle(src publisher.Source, ev event.LogEvent) error {
	return handle(s, ev)
}

func (s *ConsoleSink) Write(message string, timestamp time.Time) error {
	line := FormatLine(timestamp, message, s.layout)

	s.mu.Lock()
	_, err := io.WriteString(s.out, line)
	s.mu.Unlock()

	if err != nil {
		s.failures.Inc(1)
		return errors.Annotatef(err, "console sink")
	}
	s.lines.Inc(1)
	return nil
}
