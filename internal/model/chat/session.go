package chat

import "time"

// Session is a point-in-time view of one visitor conversation.
type Session struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	Busy      bool      `json:"busy"`
	Document  string    `json:"document,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
