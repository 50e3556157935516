package config

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "OPENROUTER_API_KEY", "LLM_API_KEY", "LLM_BASE_URL", "LLM_MODEL",
		"LLM_TEMPERATURE", "LLM_STREAM", "LLM_TIMEOUT", "KNOWLEDGE_PATH",
		"SESSION_TTL", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.Server.Addr)
	}
	if cfg.AI.BaseURL != DefaultBaseURL {
		t.Fatalf("unexpected base url %s", cfg.AI.BaseURL)
	}
	if cfg.AI.Model != DefaultModel {
		t.Fatalf("unexpected model %s", cfg.AI.Model)
	}
	if cfg.AI.Temperature != DefaultTemperature {
		t.Fatalf("unexpected temperature %v", cfg.AI.Temperature)
	}
	if !cfg.AI.StreamResponse {
		t.Fatal("expected streaming enabled by default")
	}
	if cfg.AI.Timeout != DefaultTimeout {
		t.Fatalf("unexpected timeout %v", cfg.AI.Timeout)
	}
	if cfg.AI.Enabled() {
		t.Fatal("expected AI disabled without credential")
	}
	if cfg.Knowledge.Path != "scraped_markdown.md" {
		t.Fatalf("unexpected knowledge path %s", cfg.Knowledge.Path)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Fatalf("unexpected session ttl %v", cfg.Session.TTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("LLM_TEMPERATURE", "0.4")
	t.Setenv("LLM_STREAM", "false")
	t.Setenv("LLM_TIMEOUT", "15")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr %s", cfg.Server.Addr)
	}
	if !cfg.AI.Enabled() {
		t.Fatal("expected AI enabled")
	}
	if cfg.AI.Temperature != 0.4 {
		t.Fatalf("unexpected temperature %v", cfg.AI.Temperature)
	}
	if cfg.AI.StreamResponse {
		t.Fatal("expected streaming disabled")
	}
	if cfg.AI.Timeout != 15*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.AI.Timeout)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Fatalf("unexpected ttl %v", cfg.Session.TTL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":            "80 80",
		"LLM_TEMPERATURE": "warm",
		"LLM_STREAM":      "maybe",
		"LLM_TIMEOUT":     "soon",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestNewChatModelRequiresCredential(t *testing.T) {
	cfg := AIConfig{Model: DefaultModel}
	if _, err := cfg.NewChatModel(context.Background()); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestNewChatModelTargetsBaseURLOnly(t *testing.T) {
	t.Setenv("LLM_REGION", "cn-beijing")
	t.Setenv("OPENROUTER_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	chatModel, err := cfg.AI.NewChatModel(context.Background())
	if err != nil {
		t.Fatalf("NewChatModel err: %v", err)
	}
	if chatModel == nil {
		t.Fatal("expected chat model")
	}
	if cfg.AI.BaseURL != DefaultBaseURL {
		t.Fatalf("unexpected base url %s", cfg.AI.BaseURL)
	}
}
