package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	ai "github.com/spetersoncode/agentcli"
)

const textStream = `event: message_start
data: {"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-test","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":7,"output_tokens":1}}}

event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hi"}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" there"}}

event: content_block_stop
data: {"type":"content_block_stop","index":0}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":4}}

event: message_stop
data: {"type":"message_stop"}

`

func newServer(t *testing.T, status int, body string, seen *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			b, _ := io.ReadAll(r.Body)
			*seen = string(b)
		}
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			fmt.Fprint(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func drain(ch <-chan ai.StreamEvent) ([]string, *ai.Response, error) {
	var deltas []string
	for ev := range ch {
		switch {
		case ev.Err != nil:
			return deltas, nil, ev.Err
		case ev.Done:
			return deltas, ev.Response, nil
		default:
			deltas = append(deltas, ev.Delta)
		}
	}
	return deltas, nil, errors.New("stream closed without final event")
}

func TestChatStream(t *testing.T) {
	t.Run("streams text deltas", func(t *testing.T) {
		var body string
		srv := newServer(t, http.StatusOK, textStream, &body)
		c := New("test-key", WithBaseURL(srv.URL), WithModel("claude-test"))

		ch, err := c.ChatStream(context.Background(), []ai.Message{
			{Role: ai.RoleSystem, Content: "from history"},
			ai.NewUserMessage("Hello"),
		}, ai.WithSystem("be brief"), ai.WithTemperature(0.2))
		require.NoError(t, err)

		deltas, resp, err := drain(ch)
		require.NoError(t, err)
		assert.Equal(t, []string{"Hi", " there"}, deltas)
		assert.Equal(t, "Hi there", resp.Content)
		assert.Equal(t, "end_turn", resp.FinishReason)
		assert.Equal(t, 7, resp.Usage.InputTokens)
		assert.Empty(t, resp.ToolCalls)

		assert.Equal(t, "claude-test", gjson.Get(body, "model").String())
		assert.Equal(t, int64(defaultMaxTokens), gjson.Get(body, "max_tokens").Int())
		assert.Equal(t, "be brief", gjson.Get(body, "system.0.text").String())
		assert.Equal(t, "from history", gjson.Get(body, "system.1.text").String())
		assert.Equal(t, int64(1), gjson.Get(body, "messages.#").Int())
	})

	t.Run("api error is a provider error", func(t *testing.T) {
		srv := newServer(t, http.StatusBadRequest, "", nil)
		c := New("test-key", WithBaseURL(srv.URL))

		ch, err := c.ChatStream(context.Background(), []ai.Message{ai.NewUserMessage("Hello")})
		require.NoError(t, err)
		_, _, err = drain(ch)

		var pe *ai.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, ai.ProviderAnthropic, pe.Provider)
		assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
	})
}

func TestMessageParams(t *testing.T) {
	t.Run("roles", func(t *testing.T) {
		msgs, system := messageParams([]ai.Message{
			{Role: ai.RoleSystem, Content: "sys"},
			ai.NewUserMessage("edit it"),
			{Role: ai.RoleAssistant, Content: "ok", ToolCalls: []ai.ToolCall{{ID: "tu_1", Name: "edit_file", Arguments: `{"file_path":"a"}`}}},
			ai.NewToolResultMessage(ai.ToolResult{ToolCallID: "tu_1", Content: "denied", IsError: true}),
		})
		require.Len(t, system, 1)
		require.Len(t, msgs, 3)

		raw, err := json.Marshal(msgs)
		require.NoError(t, err)
		out := string(raw)
		assert.Equal(t, "tool_use", gjson.Get(out, "1.content.1.type").String())
		assert.Equal(t, "a", gjson.Get(out, "1.content.1.input.file_path").String())
		assert.Equal(t, "user", gjson.Get(out, "2.role").String())
		assert.Equal(t, "tool_result", gjson.Get(out, "2.content.0.type").String())
		assert.True(t, gjson.Get(out, "2.content.0.is_error").Bool())
	})

	t.Run("merges consecutive user turns", func(t *testing.T) {
		msgs, system := messageParams([]ai.Message{
			ai.NewUserMessage("do it"),
			{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "tu_1", Name: "ls"}}},
			ai.NewToolResultMessage(ai.ToolResult{ToolCallID: "tu_1", Content: "a.txt"}),
			ai.NewUserMessage("now b"),
			ai.NewUserMessage(""),
		})
		assert.Empty(t, system)
		require.Len(t, msgs, 3)

		raw, err := json.Marshal(msgs)
		require.NoError(t, err)
		out := string(raw)
		assert.Equal(t, int64(2), gjson.Get(out, "2.content.#").Int())
		assert.Equal(t, "text", gjson.Get(out, "2.content.1.type").String())
	})
}

func TestToolCalls(t *testing.T) {
	var msg anthropic.Message
	require.NoError(t, json.Unmarshal([]byte(`{
		"id":"m","type":"message","role":"assistant","model":"x",
		"content":[{"type":"text","text":"looking"},{"type":"tool_use","id":"tu_1","name":"ls","input":{"path":"."}}]
	}`), &msg))

	calls := toolCalls(msg.Content)
	require.Len(t, calls, 1)
	assert.Equal(t, "tu_1", calls[0].ID)
	assert.JSONEq(t, `{"path":"."}`, calls[0].Arguments)
	assert.Equal(t, "looking", textContent(msg.Content))
}

func TestToolParams(t *testing.T) {
	tools, err := toolParams([]ai.Tool{{
		Name:       "read_file",
		Parameters: json.RawMessage(`{"type":"object","properties":{"file_path":{"type":"string"}},"required":["file_path"]}`),
	}})
	require.NoError(t, err)
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, []string{"file_path"}, tools[0].OfTool.InputSchema.Required)
	assert.Contains(t, tools[0].OfTool.InputSchema.Properties, "file_path")

	_, err = toolParams([]ai.Tool{{Name: "bad", Parameters: json.RawMessage(`"nope"`)}})
	assert.ErrorContains(t, err, "tool bad")
}
