package demo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
	"github.com/spetersoncode/agentcli/graph"
)

func drain(t *testing.T, seq func(func(chunk.Chunk, error) bool)) []chunk.Chunk {
	t.Helper()
	var out []chunk.Chunk
	for c, err := range seq {
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func TestRegistered(t *testing.T) {
	assert.Equal(t, []string{"approval", "graph"}, graph.Exports(Module))
}

func TestHello(t *testing.T) {
	g, ok := graph.Lookup(Module, "graph")
	require.True(t, ok)

	chunks := drain(t, g.Stream(context.Background(), ai.PrepareInput("hi", ai.Config{})))
	require.Len(t, chunks, 3)
	assert.Equal(t, chunk.TypeTodoList, chunks[0].Type)
	assert.Len(t, chunks[0].Todos, 2)
	assert.Equal(t, "Hello! You said: hi", chunks[1].Text)
	assert.Equal(t, chunk.TypeComplete, chunks[2].Type)
}

func TestApproval(t *testing.T) {
	g := Approval()

	chunks := drain(t, g.Stream(context.Background(), ai.PrepareInput("remember milk", ai.Config{})))
	last := chunks[len(chunks)-1]
	require.Equal(t, chunk.TypeInterrupt, last.Type)
	require.Len(t, last.Interrupt.ActionRequests, 1)
	assert.Equal(t, "write_file", last.Interrupt.ActionRequests[0].Name)

	resumed := drain(t, g.Resume(context.Background(), last.RunID,
		ai.PrepareInput("", ai.Config{}, ai.WithDecisions(ai.Approve()))))
	require.Len(t, resumed, 3)
	assert.Equal(t, "Wrote notes.txt", resumed[0].ToolResult.Content)
	assert.Equal(t, "Done.", resumed[1].Text)
	assert.Equal(t, chunk.TypeComplete, resumed[2].Type)
}
