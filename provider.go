package agentcli

import (
	"context"
	"fmt"
)

// Provider identifies an LLM provider backing a chat graph.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
)

// ChatProvider streams a model response for a conversation.
type ChatProvider interface {
	// ChatStream sends messages and returns a channel of streaming events.
	// The channel is closed after the final event (Done or Err).
	ChatStream(ctx context.Context, messages []Message, opts ...ChatOption) (<-chan StreamEvent, error)
}

// SendEvent delivers ev on ch unless ctx ends first. Providers use it so an
// abandoned stream never blocks its producer.
func SendEvent(ctx context.Context, ch chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// ProviderError is a failed request to a model provider.
type ProviderError struct {
	Provider   Provider
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying later might succeed: rate limits and
// server errors.
func (e *ProviderError) Transient() bool {
	return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode < 600)
}
