// Package chattest builds chat services backed by a scripted model.
package chattest

import (
	"context"
	"testing"
	"time"

	"github.com/zhouzirui/resort-concierge/backend/internal/config"
	"github.com/zhouzirui/resort-concierge/backend/internal/knowledge"
	"github.com/zhouzirui/resort-concierge/backend/internal/metrics"
	"github.com/zhouzirui/resort-concierge/backend/internal/model/profile"
	"github.com/zhouzirui/resort-concierge/backend/internal/service/ai"
	"github.com/zhouzirui/resort-concierge/backend/internal/service/ai/aitest"
	"github.com/zhouzirui/resort-concierge/backend/internal/service/chat"
)

// Docs is a fixed DocumentSource.
type Docs struct {
	Doc knowledge.Document
	Err error
}

func (d Docs) Current() (knowledge.Document, error) {
	return d.Doc, d.Err
}

// Document returns a source serving content.
func Document(content string) Docs {
	return Docs{Doc: knowledge.Document{Name: "scraped_markdown.md", Content: content, LoadedAt: time.Now()}}
}

type settings struct {
	stream  bool
	session config.SessionConfig
	metrics *metrics.Metrics
}

// Option adjusts the service built by NewService.
type Option func(*settings)

// WithoutStreaming answers each turn in one piece.
func WithoutStreaming() Option {
	return func(s *settings) { s.stream = false }
}

// WithTTL expires idle sessions after ttl.
func WithTTL(ttl, cleanup time.Duration) Option {
	return func(s *settings) {
		s.session = config.SessionConfig{TTL: ttl, CleanupInterval: cleanup}
	}
}

// WithMetrics records into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// NewService wires fake into a chat service. Streaming is on and sessions
// live for an hour unless opts say otherwise.
func NewService(t testing.TB, docs chat.DocumentSource, fake *aitest.ChatModel, opts ...Option) *chat.Service {
	t.Helper()

	s := settings{
		stream:  true,
		session: config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Minute},
	}
	for _, opt := range opts {
		opt(&s)
	}

	aiSvc, err := ai.NewServiceWithModel(context.Background(), fake, config.AIConfig{
		APIKey:         "sk-test-credential",
		Model:          config.DefaultModel,
		StreamResponse: s.stream,
		Timeout:        5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewServiceWithModel err: %v", err)
	}

	return chat.NewService(docs, aiSvc, chat.Options{
		Session: s.session,
		Profile: profile.Default(),
		Metrics: s.metrics,
	})
}
