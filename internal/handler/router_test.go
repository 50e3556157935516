package handler

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/resort-concierge/backend/internal/knowledge"
	"github.com/zhouzirui/resort-concierge/backend/internal/metrics"
	"github.com/zhouzirui/resort-concierge/backend/internal/service/ai/aitest"
	"github.com/zhouzirui/resort-concierge/backend/internal/service/chat/chattest"
)

func TestRouterEndpoints(t *testing.T) {
	docs := chattest.Document("Resort A: open")
	chatSvc := chattest.NewService(t, docs, &aitest.ChatModel{Chunks: []string{"ok"}})

	h, err := NewRouter(chatSvc, docs, metrics.New(), nil)
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	defer srv.Close()

	for path, want := range map[string]string{
		"/":            "New Chat",
		"/healthz":     `"status":"ok"`,
		"/api/profile": `"name":"Barberyn Resorts"`,
		"/metrics":     "go_goroutines",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err, path)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(body), want, path)
	}

	resp, err := http.Post(srv.URL+"/api/session", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealthDegradedWithoutDocument(t *testing.T) {
	docs := chattest.Docs{Err: &knowledge.LoadError{Path: "gone.md", Err: errors.New("missing")}}
	chatSvc := chattest.NewService(t, docs, &aitest.ChatModel{})

	h, err := NewRouter(chatSvc, docs, nil, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}
