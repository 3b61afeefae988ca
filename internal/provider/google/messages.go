package google

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/agentcli"
)

// contentParams returns the conversation contents and the system texts,
// which Gemini takes as a separate instruction.
func contentParams(messages []ai.Message) ([]*genai.Content, []string) {
	var (
		contents []*genai.Content
		system   []string
	)
	for _, msg := range messages {
		var (
			role  = genai.RoleUser
			parts []*genai.Part
		)
		switch msg.Role {
		case ai.RoleSystem:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
			continue
		case ai.RoleAssistant:
			role = genai.RoleModel
			parts = modelParts(msg)
		case ai.RoleTool:
			parts = responseParts(msg.ToolResults)
		default:
			if msg.Content != "" {
				parts = []*genai.Part{genai.NewPartFromText(msg.Content)}
			}
		}
		if len(parts) > 0 {
			contents = append(contents, &genai.Content{Role: role, Parts: parts})
		}
	}
	return contents, system
}

func modelParts(msg ai.Message) []*genai.Part {
	var parts []*genai.Part
	if msg.Content != "" {
		parts = append(parts, genai.NewPartFromText(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.Arguments), &args)
		}
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args},
		})
	}
	return parts
}

// responseParts wraps each result in a response object. A JSON object result
// is passed as is; anything else goes under "result", or "error" on failure.
func responseParts(results []ai.ToolResult) []*genai.Part {
	parts := make([]*genai.Part, 0, len(results))
	for _, tr := range results {
		var response map[string]any
		switch {
		case tr.IsError:
			response = map[string]any{"error": tr.Content}
		case json.Unmarshal([]byte(tr.Content), &response) != nil || response == nil:
			response = map[string]any{"result": tr.Content}
		}
		name := tr.Name
		if name == "" {
			name = tr.ToolCallID
		}
		parts = append(parts, &genai.Part{
			FunctionResponse: &genai.FunctionResponse{ID: tr.ToolCallID, Name: name, Response: response},
		})
	}
	return parts
}

// BlockedError indicates the request was blocked by content filtering.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	pe := &ai.ProviderError{Provider: ai.ProviderGoogle, Err: err}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		pe.StatusCode = apiErr.Code
	}
	return pe
}
