package sink

import (
	"os"
	"sync"
	"time"

	"github.com/pingcap/errors"
	gometrics "github.com/rcrowley/go-metrics"

	"logevent/event"
	"logevent/metrics"
	"logevent/publisher"
)

const (
	FileSinkName = "file"
	// DefaultFilePath is relative to the working directory.
	DefaultFilePath = "log.txt"
)

// FileSink appends log lines to a text file. Every Write opens the file, appends
// one line and closes it again; no handle is kept between writes.
type FileSink struct {
	path   string
	layout string

	mu sync.Mutex

	lines    gometrics.Counter
	failures gometrics.Counter
}

func NewFileSink(path string, layout string) *FileSink {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileSink{
		path:     path,
		layout:   layout,
		lines:    metrics.SinkLines(metrics.Registry, FileSinkName),
		failures: metrics.SinkErrors(metrics.Registry, FileSinkName),
	}
}

func (s *FileSink) Name() string {
	return FileSinkName
}

func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Subscribe(r publisher.Registrar) {
	r.Register(s)
}

func (s *FileSink) Handle(src publisher.Source, ev event.LogEvent) error {
	return handle(s, ev)
}

func (s *FileSink) Write(message string, timestamp time.Time) error {
	line := FormatLine(timestamp, message, s.layout)

	s.mu.Lock()
	err := s.appendLine(line)
	s.mu.Unlock()

	if err != nil {
		s.failures.Inc(1)
		return err
	}
	s.lines.Inc(1)
	return nil
}

func (s *FileSink) appendLine(line string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Annotatef(err, "file sink: open %s", s.path)
	}
	if _, err = f.WriteString(line); err != nil {
		f.Close()
		return errors.Annotatef(err, "file sink: write %s", s.path)
	}
	return errors.Annotatef(f.Close(), "file sink: close %s", s.path)
}
