package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	ai "github.com/spetersoncode/agentcli"
)

// inputSchema is the part of a JSON schema the Messages API takes apart.
type inputSchema struct {
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

// toolParams converts tool definitions. A schema that is not a JSON object
// is an error.
func toolParams(tools []ai.Tool) ([]anthropic.ToolUnionParam, error) {
	params := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema inputSchema
		if len(t.Parameters) > 0 {
			if err := json.Unmarshal(t.Parameters, &schema); err != nil {
				return nil, fmt.Errorf("tool %s: parameter schema: %w", t.Name, err)
			}
		}
		tool := &anthropic.ToolParam{
			Name: t.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema.Properties,
				Required:   schema.Required,
			},
		}
		if t.Description != "" {
			tool.Description = anthropic.String(t.Description)
		}
		params = append(params, anthropic.ToolUnionParam{OfTool: tool})
	}
	return params, nil
}

// toolCalls collects the tool_use blocks of an assistant message in order.
func toolCalls(content []anthropic.ContentBlockUnion) []ai.ToolCall {
	var calls []ai.ToolCall
	for _, block := range content {
		if block.Type != "tool_use" {
			continue
		}
		args := string(block.Input)
		if len(block.Input) == 0 {
			args = "{}"
		}
		calls = append(calls, ai.ToolCall{ID: block.ID, Name: block.Name, Arguments: args})
	}
	return calls
}
