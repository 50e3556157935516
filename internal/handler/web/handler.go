// Package web serves the chat widget page.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/resort-concierge/backend/internal/model/profile"
)

//go:embed templates/*
var templatesFS embed.FS

// Handler renders the widget once per process; the profile is fixed at startup.
type Handler struct {
	page []byte
}

// New renders the embedded page for p.
func New(p profile.Profile) (*Handler, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse widget template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("render widget template: %w", err)
	}

	return &Handler{page: buf.Bytes()}, nil
}

// RegisterRoutes mounts the page at /.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.page)
}
