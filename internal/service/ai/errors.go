package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/zhouzirui/resort-concierge/backend/internal/config"
)

const (
	// ErrorPrefix starts every error text shown in place of an answer.
	ErrorPrefix = "Error processing your request: "
	// EmptyReplyMessage replaces an answer the model left empty.
	EmptyReplyMessage = "I'm having trouble generating a response right now. Please try again."
)

var (
	// ErrNoKnowledge means the session has no document to ground answers on.
	ErrNoKnowledge = errors.New("no knowledge document available")
	// ErrMissingCredential means no API key was configured.
	ErrMissingCredential = config.ErrMissingCredential
	// ErrEmptyResult means the model answered with no text.
	ErrEmptyResult = errors.New("model returned an empty answer")
)

// APIError wraps a failed or malformed upstream call.
type APIError struct {
	Op  string
	Err error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

var tokenPattern = regexp.MustCompile(`(?i)(bearer\s+)?\b(sk|key)-[a-z0-9_\-]{6,}`)

// Describe converts err into the text rendered as the assistant's reply.
// Occurrences of secrets are removed from upstream error text.
func Describe(err error, secrets ...string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoKnowledge):
		return NoKnowledgeMessage
	case errors.Is(err, ErrEmptyResult):
		return EmptyReplyMessage
	case errors.Is(err, ErrMissingCredential):
		return ErrorPrefix + "the assistant is not configured with an API credential."
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorPrefix + "the request timed out."
	case errors.Is(err, context.Canceled):
		return ErrorPrefix + "the request was cancelled."
	}

	return ErrorPrefix + redact(err.Error(), secrets...)
}

func redact(text string, secrets ...string) string {
	for _, secret := range secrets {
		if secret = strings.TrimSpace(secret); secret != "" {
			text = strings.ReplaceAll(text, secret, "[redacted]")
		}
	}
	return tokenPattern.ReplaceAllString(text, "[redacted]")
}
