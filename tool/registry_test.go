package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	ai "github.com/spetersoncode/agentcli"
)

type testArgs struct {
	Query string `json:"query" jsonschema:"description=Search query"`
	Limit int    `json:"limit,omitempty"`
}

func TestRegistryAdd(t *testing.T) {
	t.Run("registers tools with Func", func(t *testing.T) {
		registry := NewRegistry().Add(
			Func("search", "Search the web", func(ctx context.Context, args testArgs) (string, error) {
				return "result: " + args.Query, nil
			}),
			Func("calc", "Calculate", func(ctx context.Context, args testArgs) (string, error) {
				return "", nil
			}),
		)

		assert.Equal(t, 2, registry.Len())
		assert.Equal(t, []string{"calc", "search"}, registry.Names())

		reg, ok := registry.Lookup("search")
		require.True(t, ok)
		assert.Equal(t, "Search the web", reg.Tool.Description)
		assert.NotNil(t, reg.Handler)

		_, ok = registry.Lookup("missing")
		assert.False(t, ok)
	})

	t.Run("panics on duplicate tool name", func(t *testing.T) {
		assert.Panics(t, func() {
			NewRegistry().Add(
				Func("dupe", "First", func(ctx context.Context, args testArgs) (string, error) { return "", nil }),
				Func("dupe", "Second", func(ctx context.Context, args testArgs) (string, error) { return "", nil }),
			)
		})
	})

	t.Run("Register returns typed duplicate error", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(ai.Tool{Name: "x"}, nil))
		err := r.Register(ai.Tool{Name: "x"}, nil)
		var dup *ErrToolAlreadyRegistered
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "x", dup.Name)
	})

	t.Run("Unregister", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister(ai.Tool{Name: "x"}, nil)
		r.MustRegister(ai.Tool{Name: "y"}, nil)
		r.Unregister("x")
		r.Unregister("missing")
		assert.Equal(t, 1, r.Len())
		assert.Equal(t, []string{"y"}, r.Names())
		require.NoError(t, r.Register(ai.Tool{Name: "x"}, nil))
	})
}

func TestRegistryTools(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(ai.Tool{Name: "zeta"}, nil)
	r.MustRegister(ai.Tool{Name: "alpha"}, nil)

	tools := r.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "zeta", tools[0].Name, "registration order")
	assert.Equal(t, "alpha", tools[1].Name)
	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
}

func TestRegistryExecute(t *testing.T) {
	r := NewRegistry().Add(
		Func("echo", "Echo", func(ctx context.Context, args testArgs) (string, error) {
			return args.Query, nil
		}),
		Func("fail", "Fail", func(ctx context.Context, args testArgs) (string, error) {
			return "", errors.New("boom")
		}),
	)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		res, err := r.Execute(ctx, ai.ToolCall{ID: "c1", Name: "echo", Arguments: `{"query":"hi"}`})
		require.NoError(t, err)
		assert.Equal(t, ai.ToolResult{ToolCallID: "c1", Name: "echo", Content: "hi"}, res)
	})

	t.Run("empty arguments", func(t *testing.T) {
		res, err := r.Execute(ctx, ai.ToolCall{ID: "c1", Name: "echo"})
		require.NoError(t, err)
		assert.False(t, res.IsError)
	})

	t.Run("handler error becomes error result", func(t *testing.T) {
		res, err := r.Execute(ctx, ai.ToolCall{ID: "c2", Name: "fail", Arguments: `{}`})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "boom", res.Content)
	})

	t.Run("invalid arguments become error result", func(t *testing.T) {
		res, err := r.Execute(ctx, ai.ToolCall{ID: "c3", Name: "echo", Arguments: `{nope`})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content, "invalid arguments")
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := r.Execute(ctx, ai.ToolCall{ID: "c4", Name: "missing"})
		var nf *ErrToolNotFound
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "missing", nf.Name)
	})
}

func TestSchemaFor(t *testing.T) {
	schema, err := SchemaFor[testArgs]()
	require.NoError(t, err)
	require.True(t, json.Valid(schema))

	s := string(schema)
	assert.Equal(t, "object", gjson.Get(s, "type").String())
	assert.Equal(t, "string", gjson.Get(s, "properties.query.type").String())
	assert.Equal(t, "Search query", gjson.Get(s, "properties.query.description").String())
	assert.Equal(t, "integer", gjson.Get(s, "properties.limit.type").String())
	assert.Equal(t, `["query"]`, gjson.Get(s, "required").Raw)
	assert.False(t, gjson.Get(s, "additionalProperties").Bool())
	assert.False(t, gjson.Get(s, "$schema").Exists())
}
