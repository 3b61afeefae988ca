package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/tool"
)

// newTestServer serves the tools of registry over an in-process MCP server.
func newTestServer(registry *tool.Registry) *server.MCPServer {
	s := server.NewMCPServer("test-tools", "1.0.0", server.WithToolCapabilities(true))
	for _, t := range registry.Tools() {
		name := t.Name
		s.AddTool(mcp.NewToolWithRawSchema(t.Name, t.Description, t.Parameters),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				args, err := json.Marshal(req.Params.Arguments)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				res, err := registry.Execute(ctx, ai.ToolCall{Name: name, Arguments: string(args)})
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				if res.IsError {
					return mcp.NewToolResultError(res.Content), nil
				}
				return mcp.NewToolResultText(res.Content), nil
			})
	}
	return s
}

type addArgs struct {
	A int `json:"a"`
	B int `json:"b"`
}

func connect(t *testing.T, registry *tool.Registry) *RemoteRegistry {
	t.Helper()
	c, err := client.NewInProcessClient(newTestServer(registry))
	require.NoError(t, err)
	remote, err := NewRemoteRegistryFromClient(context.Background(), c)
	require.NoError(t, err)
	t.Cleanup(func() { remote.Close() })
	return remote
}

func TestToolSpec(t *testing.T) {
	t.Run("raw schema", func(t *testing.T) {
		got := toolSpec(mcp.NewToolWithRawSchema("weather", "Get weather", json.RawMessage(`{"type":"object"}`)))
		assert.Equal(t, "weather", got.Name)
		assert.Equal(t, "Get weather", got.Description)
		assert.JSONEq(t, `{"type":"object"}`, string(got.Parameters))
	})

	t.Run("structured schema", func(t *testing.T) {
		got := toolSpec(mcp.NewTool("search",
			mcp.WithDescription("Search the web"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		))
		assert.Equal(t, "search", got.Name)
		assert.Contains(t, string(got.Parameters), `"query"`)
	})
}

func TestCallRequest(t *testing.T) {
	t.Run("object arguments", func(t *testing.T) {
		req, err := callRequest(ai.ToolCall{Name: "calculate", Arguments: `{"a": 10, "b": 5}`})
		require.NoError(t, err)
		assert.Equal(t, "calculate", req.Params.Name)
		args, ok := req.Params.Arguments.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(10), args["a"])
	})

	t.Run("empty arguments", func(t *testing.T) {
		req, err := callRequest(ai.ToolCall{Name: "noop", Arguments: "  "})
		require.NoError(t, err)
		assert.Nil(t, req.Params.Arguments)
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := callRequest(ai.ToolCall{Name: "x", Arguments: "plain"})
		assert.ErrorContains(t, err, "tool x")
	})
}

func TestFlatten(t *testing.T) {
	t.Run("text content", func(t *testing.T) {
		content, isErr := flatten(mcp.NewToolResultText("hello"))
		assert.Equal(t, "hello", content)
		assert.False(t, isErr)
	})

	t.Run("error result", func(t *testing.T) {
		content, isErr := flatten(mcp.NewToolResultError("bad"))
		assert.True(t, isErr)
		assert.Equal(t, "bad", content)
	})

	t.Run("nil result", func(t *testing.T) {
		_, isErr := flatten(nil)
		assert.True(t, isErr)
	})
}

func TestRemoteRegistry(t *testing.T) {
	source := tool.NewRegistry().Add(
		tool.Func("add", "Add numbers", func(ctx context.Context, args addArgs) (string, error) {
			data, err := json.Marshal(args.A + args.B)
			return string(data), err
		}),
		tool.Func("fail", "Always fails", func(ctx context.Context, args struct{}) (string, error) {
			return "", assert.AnError
		}),
	)
	remote := connect(t, source)
	ctx := context.Background()

	t.Run("lists tools", func(t *testing.T) {
		assert.Equal(t, []string{"add", "fail"}, remote.Names())
		assert.True(t, remote.Has("add"))
		assert.False(t, remote.Has("missing"))
		tools := remote.Tools()
		require.Len(t, tools, 2)
		assert.Equal(t, "Add numbers", tools[0].Description)
	})

	t.Run("executes remote tools", func(t *testing.T) {
		res, err := remote.Execute(ctx, ai.ToolCall{ID: "call_123", Name: "add", Arguments: `{"a": 10, "b": 5}`})
		require.NoError(t, err)
		assert.Equal(t, "call_123", res.ToolCallID)
		assert.Equal(t, "15", res.Content)
		assert.False(t, res.IsError)
	})

	t.Run("tool errors are results", func(t *testing.T) {
		res, err := remote.Execute(ctx, ai.ToolCall{ID: "c2", Name: "fail", Arguments: `{}`})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("refresh", func(t *testing.T) {
		require.NoError(t, remote.Refresh(ctx))
		assert.Len(t, remote.Names(), 2)
	})

	t.Run("AddTo proxies into a local registry", func(t *testing.T) {
		local := tool.NewRegistry()
		require.NoError(t, remote.AddTo(local))
		assert.Equal(t, []string{"add", "fail"}, local.Names())

		res, err := local.Execute(ctx, ai.ToolCall{ID: "c3", Name: "add", Arguments: `{"a":1,"b":2}`})
		require.NoError(t, err)
		assert.Equal(t, "3", res.Content)

		res, err = local.Execute(ctx, ai.ToolCall{ID: "c4", Name: "fail", Arguments: `{}`})
		require.NoError(t, err)
		assert.True(t, res.IsError)

		var dup *tool.ErrToolAlreadyRegistered
		assert.ErrorAs(t, remote.AddTo(local), &dup)
	})
}

func TestDialWithoutTransport(t *testing.T) {
	_, err := Dial(context.Background(), ServerConfig{Name: "empty"})
	assert.ErrorIs(t, err, ErrNoTransport)
}
