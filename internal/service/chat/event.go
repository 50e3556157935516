package chat

import "github.com/zhouzirui/resort-concierge/backend/internal/model/chat"

// EventType names a transcript change.
type EventType string

const (
	// EventUser: the question was appended.
	EventUser EventType = "user"
	// EventStatus carries StatusGenerating or StatusComplete.
	EventStatus EventType = "status"
	// EventDelta: a fragment was appended to the assistant message.
	EventDelta EventType = "delta"
	// EventMessage: the assistant message is final.
	EventMessage EventType = "message"
)

// Event describes one re-render. Message holds the full text written so far.
type Event struct {
	Type      EventType    `json:"type"`
	SessionID string       `json:"sessionId"`
	Message   chat.Message `json:"message"`
	Delta     string       `json:"delta,omitempty"`
	Status    string       `json:"status,omitempty"`
	Busy      bool         `json:"busy"`
}

// Renderer redraws the conversation after a change.
type Renderer func(Event)
