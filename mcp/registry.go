package mcp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/tool"
)

// ServerConfig describes how to reach an MCP server: a stdio subprocess
// (Command) or an SSE endpoint (URL).
type ServerConfig struct {
	Name    string   `yaml:"name" json:"name"`
	Command string   `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
	Env     []string `yaml:"env,omitempty" json:"env,omitempty"`
	URL     string   `yaml:"url,omitempty" json:"url,omitempty"`
}

// ErrNoTransport is returned by Dial when a config names neither a command
// nor a URL.
var ErrNoTransport = errors.New("mcp: server config needs a command or url")

// RemoteRegistry provides access to tools from an MCP server.
//
// RemoteRegistry is safe for concurrent use. The tool list is cached
// locally and can be refreshed with [RemoteRegistry.Refresh].
type RemoteRegistry struct {
	client *client.Client
	mu     sync.RWMutex
	tools  map[string]ai.Tool
}

// Dial connects to the server described by cfg, initializes the session,
// and fetches its tools.
func Dial(ctx context.Context, cfg ServerConfig) (*RemoteRegistry, error) {
	var (
		c   *client.Client
		err error
	)
	switch {
	case cfg.Command != "":
		c, err = client.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
	case cfg.URL != "":
		c, err = client.NewSSEMCPClient(cfg.URL)
	default:
		return nil, ErrNoTransport
	}
	if err != nil {
		return nil, fmt.Errorf("create MCP client %s: %w", cfg.Name, err)
	}
	return NewRemoteRegistryFromClient(ctx, c)
}

// NewRemoteRegistryFromClient creates a RemoteRegistry from an MCP client.
// It starts and initializes the client and fetches tools; on failure the
// client is closed.
func NewRemoteRegistryFromClient(ctx context.Context, c *client.Client) (*RemoteRegistry, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("start MCP client: %w", err)
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "agentcli",
				Version: ai.Version,
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize MCP session: %w", err)
	}

	r := &RemoteRegistry{
		client: c,
		tools:  make(map[string]ai.Tool),
	}
	if err := r.Refresh(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("list MCP tools: %w", err)
	}
	return r, nil
}

// Close closes the connection to the MCP server.
func (r *RemoteRegistry) Close() error {
	return r.client.Close()
}

// Refresh fetches the current list of tools from the MCP server.
func (r *RemoteRegistry) Refresh(ctx context.Context) error {
	result, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools = make(map[string]ai.Tool, len(result.Tools))
	for _, t := range result.Tools {
		r.tools[t.Name] = toolSpec(t)
	}
	return nil
}

// Tools returns all tools available from the MCP server, sorted by name.
func (r *RemoteRegistry) Tools() []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]ai.Tool, 0, len(r.tools))
	for _, name := range r.names() {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Names returns the sorted names of all available tools.
func (r *RemoteRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *RemoteRegistry) names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Has returns true if the server offers a tool with the given name.
func (r *RemoteRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Execute calls a tool on the remote MCP server. Malformed arguments and
// transport failures come back as error results so the model can recover.
func (r *RemoteRegistry) Execute(ctx context.Context, call ai.ToolCall) (ai.ToolResult, error) {
	failed := func(err error) (ai.ToolResult, error) {
		return ai.ToolResult{ToolCallID: call.ID, Name: call.Name, Content: err.Error(), IsError: true}, nil
	}
	req, err := callRequest(call)
	if err != nil {
		return failed(err)
	}
	result, err := r.client.CallTool(ctx, req)
	if err != nil {
		return failed(err)
	}
	content, isErr := flatten(result)
	return ai.ToolResult{ToolCallID: call.ID, Name: call.Name, Content: content, IsError: isErr}, nil
}

// AddTo registers every remote tool in reg, proxying calls to the server.
// A name already present in reg is an error.
func (r *RemoteRegistry) AddTo(reg *tool.Registry) error {
	for _, t := range r.Tools() {
		handler := func(ctx context.Context, call ai.ToolCall) (string, error) {
			res, err := r.Execute(ctx, call)
			if err != nil {
				return "", err
			}
			if res.IsError {
				return "", errors.New(res.Content)
			}
			return res.Content, nil
		}
		if err := reg.Register(t, handler); err != nil {
			return err
		}
	}
	return nil
}
