package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/resort-concierge/backend/internal/config"
)

// Service sends prompts to the hosted chat model. Model id and temperature are
// fixed by configuration.
type Service struct {
	cfg   config.AIConfig
	log   *zap.Logger
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds the chat model from cfg. Without a credential the service
// is still returned; every call then answers with a configuration error.
func NewService(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.APIKey == "" {
		log.Warn("no LLM credential configured, answers will report a configuration error")
		return &Service{cfg: cfg, log: log}, nil
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return NewServiceWithModel(ctx, chatModel, cfg, log)
}

// NewServiceWithModel wires an existing chat model into the prompt chain.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel, cfg config.AIConfig, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		cfg:   cfg,
		log:   log,
		chain: runnable,
	}, nil
}

// StreamingEnabled 指示是否开启流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// Generate runs one request/response call. Errors are ErrMissingCredential,
// *APIError or ErrEmptyResult.
func (s *Service) Generate(ctx context.Context, p Prompt) (string, error) {
	if s.chain == nil {
		return "", ErrMissingCredential
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	s.logRequest("generate", p)

	response, err := s.chain.Invoke(ctx, p.chainInput())
	if err != nil {
		return "", &APIError{Op: "generate", Err: contextCause(ctx, err)}
	}
	if response == nil {
		return "", &APIError{Op: "generate", Err: errors.New("no message in response")}
	}
	if strings.TrimSpace(response.Content) == "" {
		return "", ErrEmptyResult
	}

	s.log.Debug("generated response", zap.Int("length", len(response.Content)))
	return response.Content, nil
}

// Complete returns the full answer, or an error text in its place. An empty
// answer is returned as "" and left to the caller's fallback.
func (s *Service) Complete(ctx context.Context, p Prompt) string {
	text, err := s.Generate(ctx, p)
	if errors.Is(err, ErrEmptyResult) {
		return ""
	}
	if err != nil {
		s.log.Error("completion failed", zap.String("error", s.describe(err)))
		return s.describe(err)
	}
	return text
}

// StreamComplete returns the answer as a channel of fragments in arrival order.
// On failure the last fragment is the error text; content already sent stays.
// The channel is closed when the answer ends and must be drained by exactly
// one consumer.
func (s *Service) StreamComplete(ctx context.Context, p Prompt) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		if s.chain == nil {
			out <- s.describe(ErrMissingCredential)
			return
		}

		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		s.logRequest("stream", p)

		stream, err := s.chain.Stream(ctx, p.chainInput())
		if err != nil {
			apiErr := &APIError{Op: "stream", Err: contextCause(ctx, err)}
			s.log.Error("stream failed to start", zap.String("error", s.describe(apiErr)))
			out <- s.describe(apiErr)
			return
		}
		defer stream.Close()

		fragments := 0
		for {
			chunk, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				break
			}
			if recvErr != nil {
				apiErr := &APIError{Op: "stream", Err: contextCause(ctx, recvErr)}
				s.log.Error("stream interrupted",
					zap.Int("fragments", fragments),
					zap.String("error", s.describe(apiErr)),
				)
				out <- s.describe(apiErr)
				return
			}
			if chunk == nil || chunk.Content == "" {
				continue
			}

			fragments++
			out <- chunk.Content
		}

		s.log.Debug("stream finished", zap.Int("fragments", fragments))
	}()

	return out
}

func (s *Service) describe(err error) string {
	return Describe(err, s.cfg.APIKey)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *Service) logRequest(op string, p Prompt) {
	s.log.Debug("dispatching completion",
		zap.String("op", op),
		zap.String("model", s.cfg.Model),
		zap.Int("system_prompt_length", len(p.System)),
		zap.String("question", p.Question),
	)
}

// contextCause prefers the context error so timeouts are reported as such.
func contextCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
