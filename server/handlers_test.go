package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharmasuraj0123/xo-cowork-api/agent"
	"github.com/sharmasuraj0123/xo-cowork-api/agentstream"
	"github.com/sharmasuraj0123/xo-cowork-api/cliexec"
	"github.com/sharmasuraj0123/xo-cowork-api/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBackend replays scripted outcomes.
type fakeBackend struct {
	text         string
	askErr       error
	streamEvents []agentstream.Event
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Ask(ctx context.Context, req agent.TurnRequest) (*agent.TurnResult, error) {
	if f.askErr != nil {
		return nil, f.askErr
	}
	return &agent.TurnResult{Text: f.text}, nil
}

func (f *fakeBackend) AskStream(ctx context.Context, req agent.TurnRequest) (*agent.Stream, error) {
	if f.askErr != nil {
		return nil, f.askErr
	}
	events := make(chan agentstream.Event, len(f.streamEvents))
	for _, ev := range f.streamEvents {
		events <- ev
	}
	close(events)
	return agent.NewStream(events, func() string { return "" }), nil
}

func newTestServer(backend *fakeBackend) (*Server, *session.Registry) {
	registry := session.NewRegistry()
	svc := agent.NewService(backend, registry, nil, nil)
	return New(svc, nil, "http://chat:5001", nil), registry
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, registry := newTestServer(&fakeBackend{})
	registry.Commit("proj", "sid-1", "")

	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "fake", body["backend"])
	assert.Equal(t, "http://chat:5001", body["chat_api_url"])
	assert.Equal(t, float64(1), body["active_sessions"])
}

func TestAskQuestion(t *testing.T) {
	srv, _ := newTestServer(&fakeBackend{text: "the answer"})

	w := doJSON(t, srv, http.MethodPost, "/ask_question", map[string]string{
		"project_name": "proj",
		"question":     "what is Go",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "the answer", body["message"])
	assert.Equal(t, "proj", body["project_id"])
	assert.Equal(t, "default_user", body["user_id"])
	assert.Equal(t, true, body["is_new_session"])
	assert.NotEmpty(t, body["session_id"])
	assert.Nil(t, body["id"])
}

func TestAskQuestionValidation(t *testing.T) {
	srv, _ := newTestServer(&fakeBackend{})

	w := doJSON(t, srv, http.MethodPost, "/ask_question", map[string]string{
		"question": "missing project",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/ask_question", map[string]string{
		"project_name": "proj",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskQuestionBackendFailure(t *testing.T) {
	srv, registry := newTestServer(&fakeBackend{askErr: assert.AnError})

	w := doJSON(t, srv, http.MethodPost, "/ask_question", map[string]string{
		"project_name": "proj",
		"question":     "q",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 0, registry.Len())
}

func TestAskQuestionTimeoutStatus(t *testing.T) {
	srv, _ := newTestServer(&fakeBackend{askErr: &cliexec.TimeoutError{}})

	w := doJSON(t, srv, http.MethodPost, "/ask_question", map[string]string{
		"project_name": "proj",
		"question":     "q",
	})
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestAskQuestionStreaming(t *testing.T) {
	srv, _ := newTestServer(&fakeBackend{
		streamEvents: []agentstream.Event{
			agentstream.TokenEvent{Token: "hel"},
			agentstream.TokenEvent{Token: "lo"},
			agentstream.DoneEvent{},
		},
	})

	w := doJSON(t, srv, http.MethodPost, "/ask_question_streaming", map[string]string{
		"project_name": "proj",
		"question":     "q",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no", w.Header().Get("X-Accel-Buffering"))

	frames := strings.Split(strings.TrimSpace(w.Body.String()), "\n\n")
	require.Len(t, frames, 3)
	assert.Equal(t, `data: {"type":"token","token":"hel"}`, frames[0])
	assert.Equal(t, `data: {"type":"token","token":"lo"}`, frames[1])
	assert.Equal(t, `data: {"type":"done"}`, frames[2])
}

func TestSessionsLifecycle(t *testing.T) {
	srv, registry := newTestServer(&fakeBackend{})
	registry.Commit("proj", "sid-1", "")

	w := doJSON(t, srv, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Sessions map[string]string `json:"sessions"`
		Count    int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "sid-1", body.Sessions["proj"])

	w = doJSON(t, srv, http.MethodDelete, "/sessions/proj", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, registry.Len())

	// Deleting again stays a 200 no-op.
	w = doJSON(t, srv, http.MethodDelete, "/sessions/proj", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoot(t *testing.T) {
	srv, _ := newTestServer(&fakeBackend{})
	w := doJSON(t, srv, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "running", body["status"])
}
