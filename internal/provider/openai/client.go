// Package openai implements agentcli.ChatProvider on the OpenAI chat
// completions API.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	ai "github.com/spetersoncode/agentcli"
)

// DefaultModel is used when neither the client nor the request names a model.
const DefaultModel = "gpt-4.1"

// Client wraps the OpenAI SDK to implement ai.ChatProvider.
type Client struct {
	client *openai.Client
	model  string
}

// ClientOption configures the OpenAI client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	model   string
	options []option.RequestOption
}

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *clientConfig) {
		c.model = model
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.options = append(c.options, option.WithBaseURL(url))
	}
}

// New creates a new OpenAI client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	cfg := &clientConfig{model: DefaultModel}
	for _, opt := range opts {
		opt(cfg)
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, cfg.options...)...)
	return &Client{
		client: &client,
		model:  cfg.model,
	}
}

// ChatStream sends a conversation and returns a channel of streaming events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.ChatOption) (<-chan ai.StreamEvent, error) {
	options := ai.ApplyChatOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	convertedMessages := messageParams(messages)
	if options.System != "" {
		convertedMessages = append([]openai.ChatCompletionMessageParamUnion{openai.SystemMessage(options.System)}, convertedMessages...)
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertedMessages,
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if len(options.Tools) > 0 {
		tools, err := toolParams(options.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = tools
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	ch := make(chan ai.StreamEvent)

	go func() {
		defer close(ch)
		defer stream.Close()
		var acc openai.ChatCompletionAccumulator

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				if !ai.SendEvent(ctx, ch, ai.StreamEvent{Delta: chunk.Choices[0].Delta.Content}) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			ai.SendEvent(ctx, ch, ai.StreamEvent{Err: wrapError(err)})
			return
		}

		resp := &ai.Response{
			Usage: ai.Usage{
				InputTokens:  int(acc.Usage.PromptTokens),
				OutputTokens: int(acc.Usage.CompletionTokens),
			},
		}
		if len(acc.Choices) > 0 {
			completion := acc.Choices[0]
			resp.Content = completion.Message.Content
			resp.FinishReason = string(completion.FinishReason)
			resp.ToolCalls = toolCalls(completion.Message)
		}
		ai.SendEvent(ctx, ch, ai.StreamEvent{Done: true, Response: resp})
	}()

	return ch, nil
}

var _ ai.ChatProvider = (*Client)(nil)
