package agui

import (
	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/agentcli"
)

// Role constants matching AG-UI protocol.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// FromMessages converts messages to AG-UI messages. A tool message with
// several results becomes one AG-UI message per result.
func FromMessages(msgs []ai.Message) []events.Message {
	result := make([]events.Message, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, FromMessage(msg)...)
	}
	return result
}

// FromMessage converts a single message. Messages without an ID get a
// generated one.
func FromMessage(msg ai.Message) []events.Message {
	id := msg.ID
	if id == "" {
		id = events.GenerateMessageID()
	}

	if len(msg.ToolResults) > 0 {
		out := make([]events.Message, len(msg.ToolResults))
		for i := range msg.ToolResults {
			tr := msg.ToolResults[i]
			out[i] = events.Message{
				ID:         id,
				Role:       RoleTool,
				Content:    &tr.Content,
				ToolCallID: &tr.ToolCallID,
			}
			if i > 0 {
				out[i].ID = events.GenerateMessageID()
			}
		}
		return out
	}

	m := events.Message{
		ID:   id,
		Role: fromRole(msg.Role),
	}
	if msg.Content != "" {
		content := msg.Content
		m.Content = &content
	}
	if len(msg.ToolCalls) > 0 {
		m.ToolCalls = make([]events.ToolCall, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			m.ToolCalls[i] = events.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: events.Function{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			}
		}
	}
	return []events.Message{m}
}

func fromRole(role ai.Role) string {
	switch role {
	case ai.RoleUser:
		return RoleUser
	case ai.RoleAssistant:
		return RoleAssistant
	case ai.RoleSystem:
		return RoleSystem
	case ai.RoleTool:
		return RoleTool
	default:
		return RoleUser
	}
}
