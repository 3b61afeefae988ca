// Package google implements agentcli.ChatProvider on the Gemini API.
package google

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/agentcli"
)

// DefaultModel is used when neither the client nor the request names a model.
const DefaultModel = "gemini-2.5-flash"

// Client wraps the Google GenAI SDK to implement ai.ChatProvider.
type Client struct {
	client *genai.Client
	model  string
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// New creates a new Google GenAI client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, wrapError(err)
	}
	c := &Client{
		client: client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ChatStream sends a conversation and returns a channel of streaming events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.ChatOption) (<-chan ai.StreamEvent, error) {
	options := ai.ApplyChatOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}
	contents, system := contentParams(messages)
	if options.System != "" {
		system = append([]string{options.System}, system...)
	}
	config := generateConfig(options, system)

	ch := make(chan ai.StreamEvent)
	go func() {
		defer close(ch)

		var acc accumulator
		for resp, err := range c.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				ai.SendEvent(ctx, ch, ai.StreamEvent{Err: wrapError(err)})
				return
			}
			deltas, err := acc.add(resp)
			if err != nil {
				ai.SendEvent(ctx, ch, ai.StreamEvent{Err: err})
				return
			}
			for _, d := range deltas {
				if !ai.SendEvent(ctx, ch, ai.StreamEvent{Delta: d}) {
					return
				}
			}
		}
		if !acc.received {
			ai.SendEvent(ctx, ch, ai.StreamEvent{Err: wrapError(errors.New("stream returned no data"))})
			return
		}
		ai.SendEvent(ctx, ch, ai.StreamEvent{Done: true, Response: acc.response()})
	}()

	return ch, nil
}

func generateConfig(options *ai.ChatOptions, system []string) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{Tools: functionDecls(options.Tools)}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
		}
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}
	return config
}

// accumulator folds streamed chunks into the final response. Thought parts
// are kept for tool call extraction but never surface as text.
type accumulator struct {
	received bool
	text     strings.Builder
	parts    []*genai.Part
	finish   string
	usage    ai.Usage
}

func (a *accumulator) add(resp *genai.GenerateContentResponse) ([]string, error) {
	a.received = true
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, &BlockedError{Reason: string(fb.BlockReason)}
	}
	if md := resp.UsageMetadata; md != nil {
		a.usage = ai.Usage{InputTokens: int(md.PromptTokenCount), OutputTokens: int(md.CandidatesTokenCount)}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, nil
	}
	cand := resp.Candidates[0]
	a.finish = string(cand.FinishReason)

	var deltas []string
	for _, part := range cand.Content.Parts {
		a.parts = append(a.parts, part)
		if part.Text != "" && !part.Thought {
			a.text.WriteString(part.Text)
			deltas = append(deltas, part.Text)
		}
	}
	return deltas, nil
}

func (a *accumulator) response() *ai.Response {
	return &ai.Response{
		Content:      a.text.String(),
		FinishReason: a.finish,
		Usage:        a.usage,
		ToolCalls:    functionCalls(a.parts),
	}
}
