package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
)

func TestTextStreamsTextInOrder(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)

	r.TurnStart("t-1")
	r.Chunk(chunk.NewText("run", "agent", "Hi"))
	r.Chunk(chunk.NewText("run", "agent", " there"))
	r.TurnEnd(nil)

	assert.Equal(t, "Hi there\n", buf.String())
}

func TestTextVerbosePrefixesNode(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf, WithVerbose(true))

	r.Chunk(chunk.NewText("run", "agent", "Hi"))
	r.Chunk(chunk.NewText("run", "", "there"))

	assert.Equal(t, "[agent] Hi\n[unknown] there\n", buf.String())
}

func TestTextBreaksLineBeforeBlocks(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)

	r.Chunk(chunk.NewText("run", "agent", "Let me look"))
	r.Chunk(chunk.NewToolCalls("run", "agent", []ai.ToolCall{{ID: "c1", Name: "ls", Arguments: `{"path":"."}`}}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Let me look\nTool Call: ls\n"), out)
	assert.Contains(t, out, "c1")
	assert.Contains(t, out, `"path": "."`)
}

func TestTextToolResult(t *testing.T) {
	t.Run("truncates long results", func(t *testing.T) {
		var buf bytes.Buffer
		NewText(&buf).Chunk(chunk.NewToolResult("run", "tools", ai.ToolResult{Name: "read_file", Content: strings.Repeat("x", 1000)}))
		assert.Less(t, len(buf.String()), 500)
		assert.Contains(t, buf.String(), "read_file: ")
	})

	t.Run("truncates on a character boundary", func(t *testing.T) {
		var buf bytes.Buffer
		content := "x" + strings.Repeat("é", 300)
		NewText(&buf).Chunk(chunk.NewToolResult("run", "tools", ai.ToolResult{Content: content}))
		assert.True(t, utf8.ValidString(buf.String()))
		assert.Contains(t, buf.String(), "é…")
	})

	t.Run("verbose keeps full result", func(t *testing.T) {
		var buf bytes.Buffer
		NewText(&buf, WithVerbose(true)).Chunk(chunk.NewToolResult("run", "tools", ai.ToolResult{Content: strings.Repeat("x", 1000)}))
		assert.Greater(t, len(buf.String()), 1000)
	})
}

func TestTextTodos(t *testing.T) {
	var buf bytes.Buffer
	NewText(&buf).Chunk(chunk.NewTodoList("run", "agent", []chunk.Todo{
		{Content: "read spec", Status: chunk.TodoCompleted},
		{Content: "write code", Status: chunk.TodoInProgress},
		{Content: "ship"},
	}))

	out := buf.String()
	assert.Contains(t, out, "Todo List")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "in_progress")
	assert.Contains(t, out, "pending")
	assert.Less(t, strings.Index(out, "read spec"), strings.Index(out, "write code"))
}

func TestTextInterrupt(t *testing.T) {
	var buf bytes.Buffer
	NewText(&buf).Interrupt(&chunk.Interrupt{
		ActionRequests: []chunk.ActionRequest{{
			Name:        "write_file",
			ToolCallID:  "c1",
			Args:        map[string]any{"path": "notes.txt"},
			Description: "Write notes",
		}},
		ReviewConfigs: []chunk.ReviewConfig{{
			ActionName:       "write_file",
			AllowedDecisions: []ai.DecisionType{ai.DecisionApprove, ai.DecisionReject},
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "Interrupt")
	assert.Contains(t, out, "1. Tool: write_file")
	assert.Contains(t, out, "Description: Write notes")
	assert.Contains(t, out, "notes.txt")
	assert.Contains(t, out, "approve, reject")
}

func TestTextError(t *testing.T) {
	err := fmt.Errorf("turn: %w", &ai.StreamingError{Err: errors.New("connection refused")})

	t.Run("plain", func(t *testing.T) {
		var buf bytes.Buffer
		NewText(&buf).Error(err)
		assert.Contains(t, buf.String(), "connection refused")
		assert.NotContains(t, buf.String(), "caused by")
	})

	t.Run("verbose shows chain", func(t *testing.T) {
		var buf bytes.Buffer
		NewText(&buf, WithVerbose(true)).Error(err)
		assert.Contains(t, buf.String(), "caused by: connection refused")
	})
}

func TestTextComplete(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)
	r.Chunk(chunk.NewText("run", "", "done"))
	r.Chunk(chunk.NewComplete("run"))
	assert.Equal(t, "done\n\n✓ Complete\n", buf.String())
}
