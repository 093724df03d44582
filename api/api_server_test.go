package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logevent/event"
)

type fakePublisher struct {
	published []string
	names     []string
	err       error
}

func (f *fakePublisher) Publish(message string) (event.LogEvent, error) {
	if f.err != nil {
		return event.LogEvent{}, f.err
	}
	f.published = append(f.published, message)
	return event.NewLogEvent(message, time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC)), nil
}

func (f *fakePublisher) Subscribers() []string {
	return f.names
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, s *AdminServer, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestPublishLog(t *testing.T) {
	pub := &fakePublisher{names: []string{"console", "file"}}
	s := NewAdminServer("", pub)

	rec, env := do(t, s, http.MethodPost, "/log", `{"message":"deploy finished"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Message)
	assert.Equal(t, []string{"deploy finished"}, pub.published)

	var data LogResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "deploy finished", data.Message)
	assert.Equal(t, 2, data.Subscribers)
}

func TestPublishLogRejectsEmptyMessage(t *testing.T) {
	pub := &fakePublisher{}
	s := NewAdminServer("", pub)

	rec, env := do(t, s, http.MethodPost, "/log", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrInvalidPara.Error(), env.Message)
	assert.Empty(t, pub.published)
}

func TestPublishLogReportsSubscriberFault(t *testing.T) {
	s := NewAdminServer("", &fakePublisher{err: errors.New("subscriber #1: disk full")})

	rec, env := do(t, s, http.MethodPost, "/log", `{"message":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, env.Message, "disk full")
}

func TestAllSubscribers(t *testing.T) {
	s := NewAdminServer("", &fakePublisher{names: []string{"console", "file"}})

	rec, env := do(t, s, http.MethodGet, "/subscribers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var names []string
	require.NoError(t, json.Unmarshal(env.Data, &names))
	assert.Equal(t, []string{"console", "file"}, names)
}

func TestHealth(t *testing.T) {
	s := NewAdminServer("", &fakePublisher{})

	rec, env := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Message)
}
