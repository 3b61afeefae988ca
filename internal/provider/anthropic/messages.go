package anthropic

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	ai "github.com/spetersoncode/agentcli"
)

// messageParams splits messages into the conversation and the system
// blocks. Empty text is dropped since the API rejects empty text blocks, and
// consecutive turns of the same role are merged because the API requires
// user and assistant turns to alternate.
func messageParams(messages []ai.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var (
		turns  []anthropic.MessageParam
		system []anthropic.TextBlockParam
	)
	push := func(role anthropic.MessageParamRole, blocks []anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Content = append(turns[n-1].Content, blocks...)
			return
		}
		turns = append(turns, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleSystem:
			if msg.Content != "" {
				system = append(system, anthropic.TextBlockParam{Text: msg.Content})
			}
		case ai.RoleAssistant:
			push(anthropic.MessageParamRoleAssistant, assistantBlocks(msg))
		case ai.RoleTool:
			push(anthropic.MessageParamRoleUser, resultBlocks(msg.ToolResults))
		default:
			push(anthropic.MessageParamRoleUser, textBlocks(msg.Content))
		}
	}
	return turns, system
}

func textBlocks(text string) []anthropic.ContentBlockParamUnion {
	if text == "" {
		return nil
	}
	return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(text)}
}

// assistantBlocks renders an assistant turn as its text followed by one
// tool_use block per call.
func assistantBlocks(msg ai.Message) []anthropic.ContentBlockParamUnion {
	blocks := textBlocks(msg.Content)
	for _, tc := range msg.ToolCalls {
		input := map[string]any{}
		if tc.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.Arguments), &input)
		}
		blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
	}
	return blocks
}

// resultBlocks carries tool results, which travel in a user turn.
func resultBlocks(results []ai.ToolResult) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(results))
	for _, tr := range results {
		blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
	}
	return blocks
}

func textContent(content []anthropic.ContentBlockUnion) string {
	var b strings.Builder
	for _, block := range content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	pe := &ai.ProviderError{Provider: ai.ProviderAnthropic, Err: err}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		pe.StatusCode = apiErr.StatusCode
	}
	return pe
}
