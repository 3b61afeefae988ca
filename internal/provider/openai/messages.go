package openai

import (
	"errors"

	"github.com/openai/openai-go"

	ai "github.com/spetersoncode/agentcli"
)

// messageParams converts the conversation. Tool results carry no error flag
// in this API, so failed results are prefixed with "Error: ".
func messageParams(messages []ai.Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case ai.RoleSystem:
			if m.Content != "" {
				params = append(params, openai.SystemMessage(m.Content))
			}
		case ai.RoleAssistant:
			if p, ok := assistantParam(m); ok {
				params = append(params, p)
			}
		case ai.RoleTool:
			for _, r := range m.ToolResults {
				params = append(params, openai.ToolMessage(resultText(r), r.ToolCallID))
			}
		default:
			if m.Content != "" {
				params = append(params, openai.UserMessage(m.Content))
			}
		}
	}
	return params
}

// assistantParam is false for an assistant turn with neither text nor calls.
func assistantParam(m ai.Message) (openai.ChatCompletionMessageParamUnion, bool) {
	if len(m.ToolCalls) == 0 {
		if m.Content == "" {
			return openai.ChatCompletionMessageParamUnion{}, false
		}
		return openai.AssistantMessage(m.Content), true
	}
	p := openai.ChatCompletionAssistantMessageParam{
		ToolCalls: make([]openai.ChatCompletionMessageToolCallParam, len(m.ToolCalls)),
	}
	for i, c := range m.ToolCalls {
		p.ToolCalls[i] = openai.ChatCompletionMessageToolCallParam{
			ID:       c.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{Name: c.Name, Arguments: c.Arguments},
		}
	}
	if m.Content != "" {
		p.Content.OfString = openai.String(m.Content)
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &p}, true
}

func resultText(r ai.ToolResult) string {
	if r.IsError {
		return "Error: " + r.Content
	}
	return r.Content
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	pe := &ai.ProviderError{Provider: ai.ProviderOpenAI, Err: err}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		pe.StatusCode = apiErr.StatusCode
	}
	return pe
}
