package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/resort-concierge/backend/internal/service/ai/aitest"
	chatservice "github.com/zhouzirui/resort-concierge/backend/internal/service/chat"
	"github.com/zhouzirui/resort-concierge/backend/internal/service/chat/chattest"
)

type frame struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	Data      map[string]any `json:"data"`
}

func startServer(t *testing.T, fake *aitest.ChatModel) (*httptest.Server, *chatservice.Service) {
	t.Helper()

	chatSvc := chattest.NewService(t, chattest.Document("Resort A: open, $100/night"), fake)
	r := chi.NewRouter()
	NewWebSocketHandler(chatSvc, nil).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, chatSvc
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello frame
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "connected", hello.Type)
	return conn
}

// readUntil collects frames up to and including one of type stop.
func readUntil(t *testing.T, conn *websocket.Conn, stop string) []frame {
	t.Helper()

	var frames []frame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		frames = append(frames, f)
		if f.Type == stop {
			return frames
		}
	}
}

func TestWebSocketAsk(t *testing.T) {
	srv, chatSvc := startServer(t, &aitest.ChatModel{Chunks: []string{"Open, ", "$100/night."}})
	session, err := chatSvc.CreateSession(context.Background())
	require.NoError(t, err)

	conn := dial(t, srv, session.ID)
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ask", "text": "Is Resort A open?"}))

	frames := readUntil(t, conn, "end")
	var types []string
	for _, f := range frames {
		types = append(types, f.Type)
	}
	assert.Equal(t, []string{"user", "status", "delta", "delta", "message", "status", "end"}, types)

	message := frames[4].Data["message"].(map[string]any)
	assert.Equal(t, "Open, $100/night.", message["content"])
}

func TestWebSocketRejectsBlankAndUnknown(t *testing.T) {
	srv, chatSvc := startServer(t, &aitest.ChatModel{})
	session, err := chatSvc.CreateSession(context.Background())
	require.NoError(t, err)

	conn := dial(t, srv, session.ID)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ask", "text": "  "}))
	frames := readUntil(t, conn, "error")
	assert.Equal(t, chatservice.BlankQuestionMessage, frames[len(frames)-1].Data["message"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "dance"}))
	frames = readUntil(t, conn, "error")
	assert.Contains(t, frames[len(frames)-1].Data["message"], "unsupported message type")
}

func TestWebSocketResetDuringTurn(t *testing.T) {
	fake := &aitest.ChatModel{Chunks: []string{"late"}, Hold: make(chan struct{})}
	srv, chatSvc := startServer(t, fake)
	session, err := chatSvc.CreateSession(context.Background())
	require.NoError(t, err)

	conn := dial(t, srv, session.ID)
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ask", "text": "first"}))
	readUntil(t, conn, "status")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "reset"}))
	frames := readUntil(t, conn, "reset")
	assert.Equal(t, chatservice.StatusNewChat, frames[len(frames)-1].Data["status"])

	got, err := chatSvc.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
	assert.False(t, got.Busy)
}

func TestWebSocketUnknownSession(t *testing.T) {
	srv, _ := startServer(t, &aitest.ChatModel{})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
