package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/resort-concierge/backend/internal/config"
	"github.com/zhouzirui/resort-concierge/backend/internal/knowledge"
	"github.com/zhouzirui/resort-concierge/backend/internal/logger"
	"github.com/zhouzirui/resort-concierge/backend/internal/model/profile"
	"github.com/zhouzirui/resort-concierge/backend/internal/service/ai"
	"github.com/zhouzirui/resort-concierge/backend/internal/service/chat"
)

func main() {
	if err := rootCMD().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCMD() *cobra.Command {
	var (
		knowledgePath string
		noStream      bool
		plain         bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask the resort concierge from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if knowledgePath != "" {
				cfg.Knowledge.Path = knowledgePath
			}
			if noStream {
				cfg.AI.StreamResponse = false
			}
			// one session for the life of the process
			cfg.Session.TTL = 0
			// keep console logs out of the conversation unless asked for
			if os.Getenv("LOG_LEVEL") == "" {
				cfg.Log.Level = "error"
			}

			zl, err := logger.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer func() { _ = zl.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := knowledge.NewStore(cfg.Knowledge.Path, zl.Named("knowledge"), nil)
			if err != nil {
				zl.Error("failed to load knowledge document", zap.Error(err))
				return err
			}

			aiService, err := ai.NewService(ctx, cfg.AI, zl.Named("ai"))
			if err != nil {
				return err
			}

			chatService := chat.NewService(store, aiService, chat.Options{
				Session: cfg.Session,
				Profile: profile.Default().WithOverrides(cfg.Profile.Name, cfg.Profile.Website),
				Logger:  zl.Named("chat"),
			})

			r := newREPL(chatService, cmd.InOrStdin(), cmd.OutOrStdout(), !plain)
			return r.run(ctx)
		},
	}

	cmd.Flags().StringVar(&knowledgePath, "knowledge", "", "knowledge document path (default $KNOWLEDGE_PATH or scraped_markdown.md)")
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "print each answer once it is complete")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colours and markdown rendering")

	return cmd
}

