package google

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	ai "github.com/spetersoncode/agentcli"
)

func TestSchemaParam(t *testing.T) {
	s := schemaParam(json.RawMessage(`{
		"type":"object",
		"properties":{
			"status":{"type":"string","enum":["pending","completed"]},
			"items":{"type":"array","items":{"type":"integer"}}
		},
		"required":["status"]
	}`))
	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"status"}, s.Required)
	assert.Equal(t, []string{"pending", "completed"}, s.Properties["status"].Enum)
	assert.Equal(t, genai.TypeInteger, s.Properties["items"].Items.Type)

	assert.Nil(t, schemaParam(nil))
	assert.Nil(t, schemaParam(json.RawMessage(`not json`)))
}

func TestContentParams(t *testing.T) {
	contents, system := contentParams([]ai.Message{
		{Role: ai.RoleSystem, Content: "sys"},
		ai.NewUserMessage("hi"),
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "c1", Name: "ls", Arguments: `{"path":"."}`}}},
		ai.NewToolResultMessage(ai.ToolResult{ToolCallID: "c1", Name: "ls", Content: "a.txt"}),
	})
	assert.Equal(t, []string{"sys"}, system)
	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, ".", contents[1].Parts[0].FunctionCall.Args["path"])

	resp := contents[2].Parts[0].FunctionResponse
	require.NotNil(t, resp)
	assert.Equal(t, "ls", resp.Name)
	assert.Equal(t, "a.txt", resp.Response["result"])
}

func TestFunctionCalls(t *testing.T) {
	calls := functionCalls([]*genai.Part{
		{Text: "thinking"},
		{FunctionCall: &genai.FunctionCall{Name: "ls", Args: map[string]any{"path": "."}}},
		{FunctionCall: &genai.FunctionCall{ID: "given", Name: "read_file"}},
	})
	require.Len(t, calls, 2)
	assert.Equal(t, "call_1_ls", calls[0].ID)
	assert.JSONEq(t, `{"path":"."}`, calls[0].Arguments)
	assert.Equal(t, "given", calls[1].ID)
}

func TestAccumulator(t *testing.T) {
	t.Run("text and usage", func(t *testing.T) {
		var acc accumulator
		deltas, err := acc.add(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "plan", Thought: true},
					{Text: "Hel"},
				}},
			}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Hel"}, deltas)

		deltas, err = acc.add(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "lo"}}},
				FinishReason: genai.FinishReasonStop,
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 3, CandidatesTokenCount: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"lo"}, deltas)

		resp := acc.response()
		assert.Equal(t, "Hello", resp.Content)
		assert.Equal(t, "STOP", resp.FinishReason)
		assert.Equal(t, ai.Usage{InputTokens: 3, OutputTokens: 2}, resp.Usage)
		assert.Empty(t, resp.ToolCalls)
	})

	t.Run("blocked prompt", func(t *testing.T) {
		var acc accumulator
		_, err := acc.add(&genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
		})
		var blocked *BlockedError
		require.ErrorAs(t, err, &blocked)
		assert.Equal(t, "SAFETY", blocked.Reason)
	})
}

func TestResponseParts(t *testing.T) {
	parts := responseParts([]ai.ToolResult{
		{ToolCallID: "c1", Content: `{"count":2}`},
		{ToolCallID: "c2", Name: "rm", Content: "denied", IsError: true},
	})
	require.Len(t, parts, 2)
	assert.Equal(t, "c1", parts[0].FunctionResponse.Name)
	assert.Equal(t, float64(2), parts[0].FunctionResponse.Response["count"])
	assert.Equal(t, "denied", parts[1].FunctionResponse.Response["error"])
}
