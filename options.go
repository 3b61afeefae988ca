package agentcli

// ChatOptions contains configuration for a single chat request.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	System      string
	Tools       []Tool
}

// ChatOption is a functional option for configuring chat requests.
type ChatOption func(*ChatOptions)

// WithModel sets the model to use for the request.
func WithModel(model string) ChatOption {
	return func(o *ChatOptions) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) ChatOption {
	return func(o *ChatOptions) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(t float64) ChatOption {
	return func(o *ChatOptions) {
		o.Temperature = &t
	}
}

// WithSystem sets the system prompt.
func WithSystem(prompt string) ChatOption {
	return func(o *ChatOptions) {
		o.System = prompt
	}
}

// WithTools offers tools to the model.
func WithTools(tools ...Tool) ChatOption {
	return func(o *ChatOptions) {
		o.Tools = tools
	}
}

// ApplyChatOptions applies functional options to a ChatOptions struct.
func ApplyChatOptions(opts ...ChatOption) *ChatOptions {
	o := &ChatOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
