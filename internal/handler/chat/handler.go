package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/resort-concierge/backend/internal/knowledge"
	chatService "github.com/zhouzirui/resort-concierge/backend/internal/service/chat"
	"github.com/zhouzirui/resort-concierge/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	log     *zap.Logger
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		log:     log,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Post("/session/{sessionID}/reset", h.handleReset)
	r.Post("/session/{sessionID}/messages", h.handleAsk)
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		h.log.Error("create session failed", zap.Error(err))
		RespondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleGetSession 返回会话记录与忙碌状态
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		RespondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

// handleReset 开始新的对话
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.Reset(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		RespondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session": session,
		"status":  chatService.StatusNewChat,
	})
}

// handleAsk 以非流式方式完成一轮问答
func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.Ask(r.Context(), chi.URLParam(r, "sessionID"), payload.Message, nil)
	if err != nil {
		RespondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

// StatusFor maps session errors to an HTTP status and display message.
func StatusFor(err error) (int, string) {
	var loadErr *knowledge.LoadError

	switch {
	case errors.Is(err, chatService.ErrBlankQuestion):
		return http.StatusBadRequest, chatService.BlankQuestionMessage
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, chatService.ErrBusy):
		return http.StatusConflict, err.Error()
	case errors.As(err, &loadErr):
		return http.StatusServiceUnavailable, "knowledge document unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// RespondServiceError writes err as a JSON error response.
func RespondServiceError(w http.ResponseWriter, err error) {
	status, message := StatusFor(err)
	utils.RespondError(w, status, message)
}
