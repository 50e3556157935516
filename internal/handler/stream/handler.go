package stream

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatHandler "github.com/zhouzirui/resort-concierge/backend/internal/handler/chat"
	chatService "github.com/zhouzirui/resort-concierge/backend/internal/service/chat"
	"github.com/zhouzirui/resort-concierge/backend/pkg/utils"
)

var errStreamingUnsupported = errors.New("streaming unsupported")

// Handler manages streaming answers via Server-Sent Events
type Handler struct {
	chatSvc *chatService.Service
	log     *zap.Logger
}

// New creates a new stream handler
func New(chatSvc *chatService.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		log:     log,
	}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RegisterRoutes mounts GET /stream/{sessionID}?message=.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		userMessage := r.URL.Query().Get("message")

		if err := h.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
			h.log.Warn("stream request rejected", zap.String("session_id", sessionID), zap.Error(err))
		}
	})
}

// HandleStreamRequest runs one turn and relays every transcript change as an
// SSE frame. Input errors are answered with a JSON status before the stream
// opens.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return errStreamingUnsupported
	}

	opened := false
	send := func(resp StreamResponse) {
		if !opened {
			utils.SetupSSEHeaders(w)
			w.WriteHeader(http.StatusOK)
			opened = true
		}
		if err := utils.SendSSEChunk(w, flusher, resp); err != nil {
			h.log.Debug("sse write failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	_, err := h.chatSvc.Ask(ctx, sessionID, userMessage, func(e chatService.Event) {
		send(toResponse(e))
	})
	if err != nil {
		if opened {
			_, message := chatHandler.StatusFor(err)
			send(StreamResponse{Event: "error", SessionID: sessionID, Error: message})
			return err
		}
		chatHandler.RespondServiceError(w, err)
		return err
	}

	send(StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})
	return nil
}

func toResponse(e chatService.Event) StreamResponse {
	resp := StreamResponse{
		Event:     string(e.Type),
		SessionID: e.SessionID,
	}

	switch e.Type {
	case chatService.EventDelta:
		resp.Content = e.Delta
	case chatService.EventStatus:
		resp.Content = e.Status
	default:
		resp.Content = e.Message.Content
	}
	return resp
}
