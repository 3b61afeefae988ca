package chat

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/internal/provider/anthropic"
	"github.com/spetersoncode/agentcli/internal/provider/google"
	"github.com/spetersoncode/agentcli/internal/provider/openai"
	"github.com/spetersoncode/agentcli/internal/store"
	"github.com/spetersoncode/agentcli/mcp"
	"github.com/spetersoncode/agentcli/tool"
)

// ErrMissingAPIKey is returned when the provider's key is not in the
// environment.
var ErrMissingAPIKey = errors.New("missing API key")

// apiKeyEnv names the environment variable holding each provider's key.
var apiKeyEnv = map[ai.Provider]string{
	ai.ProviderAnthropic: "ANTHROPIC_API_KEY",
	ai.ProviderOpenAI:    "OPENAI_API_KEY",
	ai.ProviderGoogle:    "GOOGLE_API_KEY",
}

// Config describes a chat graph in a definition file.
//
//	provider: anthropic
//	model: claude-sonnet-4-5
//	system: You are a careful coding assistant.
//	checkpointer: sqlite:.agentcli/threads.db
//	interrupt_on:
//	  write_file: true
//	  edit_file:
//	    allowed_decisions: [approve, reject]
type Config struct {
	Provider       ai.Provider            `yaml:"provider"`
	Model          string                 `yaml:"model"`
	BaseURL        string                 `yaml:"base_url"`
	System         string                 `yaml:"system"`
	MaxTokens      int                    `yaml:"max_tokens"`
	Temperature    *float64               `yaml:"temperature"`
	RecursionLimit int                    `yaml:"recursion_limit"`
	Checkpointer   string                 `yaml:"checkpointer"`
	BasePath       string                 `yaml:"base_path"`
	ParallelTools  bool                   `yaml:"parallel_tools"`
	InterruptOn    map[string]InterruptOn `yaml:"interrupt_on"`
	MCPServers     []mcp.ServerConfig     `yaml:"mcp_servers"`
}

// InterruptOn is one interrupt_on entry: either a bool or an object with
// allowed_decisions and description.
type InterruptOn struct {
	Enabled          bool
	AllowedDecisions []ai.DecisionType `yaml:"allowed_decisions"`
	Description      string            `yaml:"description"`
}

// UnmarshalYAML accepts `true`, `false`, or a review object.
func (i *InterruptOn) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var enabled bool
		if err := n.Decode(&enabled); err != nil {
			return fmt.Errorf("interrupt_on entry must be a bool or an object: %w", err)
		}
		*i = InterruptOn{Enabled: enabled}
		return nil
	}
	type plain InterruptOn
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*i = InterruptOn(p)
	i.Enabled = true
	return nil
}

// Reviews converts the enabled interrupt_on entries.
func (c Config) Reviews() map[string]Review {
	reviews := make(map[string]Review)
	for name, in := range c.InterruptOn {
		if in.Enabled {
			reviews[name] = Review{AllowedDecisions: in.AllowedDecisions, Description: in.Description}
		}
	}
	return reviews
}

// NewProvider creates the chat provider named by name, reading its API key
// from the environment.
func NewProvider(ctx context.Context, name ai.Provider, model, baseURL string) (ai.ChatProvider, error) {
	if name == "" {
		name = ai.ProviderAnthropic
	}
	env, ok := apiKeyEnv[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (want anthropic, openai or google)", name)
	}
	key := os.Getenv(env)
	if key == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, env)
	}

	switch name {
	case ai.ProviderOpenAI:
		opts := []openai.ClientOption{}
		if model != "" {
			opts = append(opts, openai.WithModel(model))
		}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		return openai.New(key, opts...), nil
	case ai.ProviderGoogle:
		opts := []google.ClientOption{}
		if model != "" {
			opts = append(opts, google.WithModel(model))
		}
		return google.New(ctx, key, opts...)
	default:
		opts := []anthropic.ClientOption{}
		if model != "" {
			opts = append(opts, anthropic.WithModel(model))
		}
		if baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(baseURL))
		}
		return anthropic.New(key, opts...), nil
	}
}

// Build creates the graph described by cfg: provider, checkpointer, file
// tools rooted at BasePath (the working directory when unset), and the tools
// of every MCP server.
func Build(ctx context.Context, cfg Config, opts ...Option) (*Graph, error) {
	provider, err := NewProvider(ctx, cfg.Provider, cfg.Model, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return BuildWith(ctx, provider, cfg, opts...)
}

// BuildWith is Build over an existing provider.
func BuildWith(ctx context.Context, provider ai.ChatProvider, cfg Config, opts ...Option) (*Graph, error) {
	adapter, err := store.Open(cfg.Checkpointer)
	if err != nil {
		return nil, fmt.Errorf("checkpointer: %w", err)
	}

	var chatOpts []ai.ChatOption
	if cfg.System != "" {
		chatOpts = append(chatOpts, ai.WithSystem(cfg.System))
	}
	if cfg.MaxTokens > 0 {
		chatOpts = append(chatOpts, ai.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.Temperature != nil {
		chatOpts = append(chatOpts, ai.WithTemperature(*cfg.Temperature))
	}

	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "."
	}

	base := []Option{
		WithCheckpointer(adapter),
		WithChatOptions(chatOpts...),
		WithFileTools(tool.WithBasePath(basePath)),
		WithInterruptOn(cfg.Reviews()),
		WithRecursionLimit(cfg.RecursionLimit),
		WithParallelTools(cfg.ParallelTools),
	}
	g := New(provider, append(base, opts...)...)

	for _, sc := range cfg.MCPServers {
		remote, err := mcp.Dial(ctx, sc)
		if err != nil {
			g.Close()
			return nil, fmt.Errorf("mcp server %s: %w", sc.Name, err)
		}
		g.closers = append(g.closers, remote)
		if err := remote.AddTo(g.registry); err != nil {
			g.Close()
			return nil, fmt.Errorf("mcp server %s: %w", sc.Name, err)
		}
	}
	return g, nil
}
