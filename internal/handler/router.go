package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/resort-concierge/backend/internal/handler/chat"
	"github.com/zhouzirui/resort-concierge/backend/internal/handler/profile"
	"github.com/zhouzirui/resort-concierge/backend/internal/handler/stream"
	"github.com/zhouzirui/resort-concierge/backend/internal/handler/web"
	"github.com/zhouzirui/resort-concierge/backend/internal/handler/ws"
	"github.com/zhouzirui/resort-concierge/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/resort-concierge/backend/internal/middleware"
	chatService "github.com/zhouzirui/resort-concierge/backend/internal/service/chat"
	"github.com/zhouzirui/resort-concierge/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, docs chatService.DocumentSource, m *metrics.Metrics, log *zap.Logger) (http.Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	page, err := web.New(chatSvc.Profile())
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(log.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	page.RegisterRoutes(r)
	r.Get("/healthz", healthHandler(docs))
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		profile.New(chatSvc.Profile()).RegisterRoutes(api)
		chat.New(chatSvc, log.Named("chat")).RegisterRoutes(api)
		stream.New(chatSvc, log.Named("stream")).RegisterRoutes(api)
		ws.NewWebSocketHandler(chatSvc, log.Named("ws")).RegisterRoutes(api)
	})

	return r, nil
}

// healthHandler reports whether new sessions can be created.
func healthHandler(docs chatService.DocumentSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := docs.Current()
		if err != nil {
			utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":        "ok",
			"document":      doc.Name,
			"documentBytes": len(doc.Content),
			"loadedAt":      doc.LoadedAt,
		})
	}
}
