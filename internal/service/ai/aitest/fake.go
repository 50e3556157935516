// Package aitest provides a scripted chat model for tests.
package aitest

import (
	"context"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel replays Chunks. Generate returns them joined.
type ChatModel struct {
	Chunks []string
	// Err fails the call before any output.
	Err error
	// StreamErr is delivered after Chunks when streaming.
	StreamErr error
	// Hold, when set, blocks streaming until it is closed or receives a value.
	Hold chan struct{}

	mu    sync.Mutex
	calls [][]*schema.Message
}

var _ model.BaseChatModel = (*ChatModel)(nil)

// Generate implements model.BaseChatModel.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.record(input)
	if m.Err != nil {
		return nil, m.Err
	}
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return schema.AssistantMessage(strings.Join(m.Chunks, ""), nil), nil
}

// Stream implements model.BaseChatModel.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.record(input)
	if m.Err != nil {
		return nil, m.Err
	}

	sr, sw := schema.Pipe[*schema.Message](len(m.Chunks) + 1)
	go func() {
		defer sw.Close()

		if err := m.wait(ctx); err != nil {
			sw.Send(nil, err)
			return
		}
		for _, chunk := range m.Chunks {
			if closed := sw.Send(schema.AssistantMessage(chunk, nil), nil); closed {
				return
			}
		}
		if m.StreamErr != nil {
			sw.Send(nil, m.StreamErr)
		}
	}()

	return sr, nil
}

func (m *ChatModel) wait(ctx context.Context) error {
	if m.Hold == nil {
		return nil
	}
	select {
	case <-m.Hold:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *ChatModel) record(input []*schema.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]*schema.Message, len(input))
	copy(copied, input)
	m.calls = append(m.calls, copied)
}

// Calls returns how many requests reached the model.
func (m *ChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastInput returns the messages of the most recent request.
func (m *ChatModel) LastInput() []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}
