package openai

import (
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	ai "github.com/spetersoncode/agentcli"
)

// toolParams converts tool definitions. A tool without parameters gets an
// empty object schema; a schema that is not a JSON object is an error.
func toolParams(tools []ai.Tool) ([]openai.ChatCompletionToolParam, error) {
	params := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		schema := shared.FunctionParameters{"type": "object", "properties": map[string]any{}}
		if len(t.Parameters) > 0 {
			schema = shared.FunctionParameters{}
			if err := json.Unmarshal(t.Parameters, &schema); err != nil {
				return nil, fmt.Errorf("tool %s: parameter schema: %w", t.Name, err)
			}
		}
		fn := shared.FunctionDefinitionParam{Name: t.Name, Parameters: schema}
		if t.Description != "" {
			fn.Description = openai.String(t.Description)
		}
		params = append(params, openai.ChatCompletionToolParam{Function: fn})
	}
	return params, nil
}

// toolCalls reads the calls of an accumulated assistant message. Fragments
// the stream never named are dropped.
func toolCalls(msg openai.ChatCompletionMessage) []ai.ToolCall {
	var calls []ai.ToolCall
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name == "" {
			continue
		}
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		calls = append(calls, ai.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return calls
}
