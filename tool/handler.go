package tool

import (
	"context"
	"encoding/json"

	ai "github.com/spetersoncode/agentcli"
)

// Handler executes a tool call and returns the result content.
// The call carries the tool name, ID, and arguments as a JSON string.
type Handler func(ctx context.Context, call ai.ToolCall) (string, error)

// TypedHandler executes a tool call with arguments decoded into T.
type TypedHandler[T any] func(ctx context.Context, args T) (string, error)

// Registration pairs a tool definition with its handler.
type Registration struct {
	Tool    ai.Tool
	Handler Handler
}

// Func builds a Registration whose parameter schema is reflected from T.
// It panics if T has no valid schema.
func Func[T any](name, description string, fn TypedHandler[T]) Registration {
	return Registration{
		Tool: ai.Tool{
			Name:        name,
			Description: description,
			Parameters:  MustSchemaFor[T](),
		},
		Handler: typed(name, fn),
	}
}

// typed decodes the call arguments into T. Empty arguments leave T zero.
func typed[T any](name string, fn TypedHandler[T]) Handler {
	return func(ctx context.Context, call ai.ToolCall) (string, error) {
		var args T
		if call.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				return "", &ErrInvalidArguments{Name: name, Err: err}
			}
		}
		return fn(ctx, args)
	}
}
