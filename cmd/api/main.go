package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/resort-concierge/backend/internal/config"
	"github.com/zhouzirui/resort-concierge/backend/internal/handler"
	"github.com/zhouzirui/resort-concierge/backend/internal/knowledge"
	"github.com/zhouzirui/resort-concierge/backend/internal/logger"
	"github.com/zhouzirui/resort-concierge/backend/internal/metrics"
	"github.com/zhouzirui/resort-concierge/backend/internal/model/profile"
	"github.com/zhouzirui/resort-concierge/backend/internal/service/ai"
	"github.com/zhouzirui/resort-concierge/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	if envErr != nil {
		zl.Debug("no .env file, using system environment variables only", zap.Error(envErr))
	}

	m := metrics.New()

	store, err := knowledge.NewStore(cfg.Knowledge.Path, zl.Named("knowledge"), m)
	if err != nil {
		zl.Fatal("failed to load knowledge document", zap.String("path", cfg.Knowledge.Path), zap.Error(err))
	}
	if cfg.Knowledge.Watch {
		go func() {
			if err := store.Watch(ctx); err != nil {
				zl.Warn("knowledge watcher stopped", zap.Error(err))
			}
		}()
	}

	aiService, err := ai.NewService(ctx, cfg.AI, zl.Named("ai"))
	if err != nil {
		zl.Fatal("failed to initialize AI service", zap.Error(err))
	}
	zl.Info("AI service initialized",
		zap.String("model", cfg.AI.Model),
		zap.String("base_url", cfg.AI.BaseURL),
		zap.Bool("credential", cfg.AI.Enabled()),
		zap.Bool("stream", cfg.AI.StreamResponse),
	)

	chatService := chat.NewService(store, aiService, chat.Options{
		Session: cfg.Session,
		Profile: profile.Default().WithOverrides(cfg.Profile.Name, cfg.Profile.Website),
		Logger:  zl.Named("chat"),
		Metrics: m,
	})

	router, err := handler.NewRouter(chatService, store, m, zl)
	if err != nil {
		zl.Fatal("failed to build router", zap.Error(err))
	}

	startServer(ctx, zl, cfg.Server, router)
}

func startServer(ctx context.Context, zl *zap.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	zl.Info("resort concierge listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
