package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
)

func TestTodoTool(t *testing.T) {
	list := &TodoList{}
	r := NewRegistry().Add(NewTodoTool(list))

	res, err := r.Execute(context.Background(), ai.ToolCall{
		ID:        "c1",
		Name:      TodoToolName,
		Arguments: `{"todos":[{"content":"plan","status":"completed"},{"content":"build","status":"in_progress"},{"content":"ship"}]}`,
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Updated todo list to 3 item(s)", res.Content)

	assert.Equal(t, []chunk.Todo{
		{Content: "plan", Status: chunk.TodoCompleted},
		{Content: "build", Status: chunk.TodoInProgress},
		{Content: "ship", Status: chunk.TodoPending},
	}, list.Items())
}

func TestParseTodos(t *testing.T) {
	todos, err := ParseTodos(`{"todos":[{"content":"a","status":"pending"}]}`)
	require.NoError(t, err)
	assert.Equal(t, []chunk.Todo{{Content: "a", Status: chunk.TodoPending}}, todos)

	_, err = ParseTodos(`{"todos":[{"content":"a","status":"done"}]}`)
	assert.ErrorContains(t, err, "unknown status")

	_, err = ParseTodos(`nope`)
	var invalid *ErrInvalidArguments
	assert.ErrorAs(t, err, &invalid)
}
