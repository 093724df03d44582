package server

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logevent/config"
	"logevent/event"
	"logevent/publisher"
)

var lineRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - LogEvent published\n$`)

func testConfig(t *testing.T) *config.LogEventConfig {
	cfg := config.NewDefaultConfig()
	cfg.File.Path = filepath.Join(t.TempDir(), "log.txt")
	cfg.AdminAddr = ""
	return cfg
}

func TestPublishWritesOneLinePerSink(t *testing.T) {
	cfg := testConfig(t)
	var stdout bytes.Buffer
	s, err := NewServer(cfg, &stdout)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"console", "file"}, s.Subscribers())

	ev, err := s.Publish(event.DefaultMessage)
	require.NoError(t, err)
	assert.Equal(t, event.DefaultMessage, ev.Message())

	assert.Regexp(t, lineRegexp, stdout.String())
	data, err := ioutil.ReadFile(cfg.File.Path)
	require.NoError(t, err)
	assert.Equal(t, stdout.String(), string(data))
}

func TestRepeatedRunsAppendToFile(t *testing.T) {
	cfg := testConfig(t)

	for i := 0; i < 2; i++ {
		s, err := NewServer(cfg, ioutil.Discard)
		require.NoError(t, err)
		_, err = s.Publish(event.DefaultMessage)
		require.NoError(t, err)
		s.Close()
	}

	data, err := ioutil.ReadFile(cfg.File.Path)
	require.NoError(t, err)
	lines := strings.SplitAfter(string(data), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, lineRegexp, lines[0])
	assert.Regexp(t, lineRegexp, lines[1])
	assert.Equal(t, "", lines[2])
}

func TestFileFaultAbortsUnderDefaultPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.File.Path = t.TempDir()
	cfg.Console.Enabled = false

	s, err := NewServer(cfg, ioutil.Discard)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Publish("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file sink: open")
}

func TestContinuePolicyReportsFaults(t *testing.T) {
	cfg := testConfig(t)
	cfg.File.Path = t.TempDir()
	cfg.FaultPolicy = "continue"

	var stdout bytes.Buffer
	s, err := NewServer(cfg, &stdout)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Publish("still printed")
	require.Error(t, err)
	dispatchErr, ok := errors.Cause(err).(*publisher.DispatchError)
	require.True(t, ok)
	assert.Equal(t, 1, dispatchErr.Faults[0].Index)
	assert.Contains(t, stdout.String(), " - still printed\n")
}

func TestNoSinksIsNoop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Console.Enabled = false
	cfg.File.Enabled = false

	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Publish("nobody")
	assert.NoError(t, err)
	assert.Empty(t, s.Subscribers())
}

func TestPublishAfterClose(t *testing.T) {
	s, err := NewServer(testConfig(t), ioutil.Discard)
	require.NoError(t, err)
	s.Close()
	s.Close()

	_, err = s.Publish("late")
	assert.Equal(t, ErrServerClosed, err)
}

func TestNewServerRejectsUnknownPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.FaultPolicy = "retry"
	_, err := NewServer(cfg, nil)
	assert.Error(t, err)
}

func TestAdminAPIPublishesThroughSinks(t *testing.T) {
	cfg := testConfig(t)
	var stdout bytes.Buffer
	s, err := NewServer(cfg, &stdout)
	require.NoError(t, err)
	defer s.Close()

	req := httptest.NewRequest(http.MethodPost, "/log", strings.NewReader(`{"message":"from api"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.adminSvr.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, stdout.String(), " - from api\n")
	data, err := ioutil.ReadFile(cfg.File.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), " - from api\n")
}

func TestDumpMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsFile = filepath.Join(t.TempDir(), "metrics.prom")
	s, err := NewServer(cfg, ioutil.Discard)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Publish("counted")
	require.NoError(t, err)
	require.NoError(t, s.DumpMetrics())

	data, err := ioutil.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "logevent_metrics_dispatch_total")
	assert.Contains(t, string(data), "logevent_metrics_sink_file_lines")
}

func TestRunStopsOnClose(t *testing.T) {
	cfg := testConfig(t)
	cfg.AdminAddr = "127.0.0.1:0"
	s, err := NewServer(cfg, ioutil.Discard)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- s.Run()
	}()
	s.Close()

	assert.NoError(t, <-done)
}
