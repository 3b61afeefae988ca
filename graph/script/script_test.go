package script

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
)

func collect(t *testing.T, seq func(func(chunk.Chunk, error) bool)) ([]chunk.Chunk, error) {
	t.Helper()
	var out []chunk.Chunk
	for c, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}

func fixedRunID() string { return "run-1" }

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		step Step
	}{
		{"unknown kind", Step{Kind: "dance"}},
		{"tool calls without calls", Step{Kind: KindToolCalls}},
		{"interrupt without actions", Step{Kind: KindInterrupt}},
		{"interrupt action without tool", Step{Kind: KindInterrupt, Actions: []Action{{ID: "x"}}}},
		{"error without message", Step{Kind: KindError}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]Step{tt.step})
			assert.Error(t, err)
		})
	}
}

func TestStream(t *testing.T) {
	g := MustNew([]Step{
		{Kind: KindText, Node: "agent", Text: "Hi"},
		{Kind: KindText, Node: "agent", Text: " there, you said: {input}"},
		{Kind: KindTodos, Todos: []chunk.Todo{{Content: "greet", Status: chunk.TodoCompleted}}},
	}, WithRunIDs(fixedRunID))

	chunks, err := collect(t, g.Stream(context.Background(), ai.PrepareInput("Hello, agent!", nil)))
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, "Hi there, you said: Hello, agent!", chunk.Texts(chunks))
	assert.Equal(t, chunk.TypeTodoList, chunks[2].Type)
	assert.Equal(t, chunk.TypeComplete, chunks[3].Type)
	for _, c := range chunks {
		assert.Equal(t, "run-1", c.RunID)
	}
}

func TestStreamError(t *testing.T) {
	g := MustNew([]Step{
		{Kind: KindText, Text: "partial"},
		{Kind: KindError, Node: "agent", Error: "model unavailable"},
		{Kind: KindText, Text: "never"},
	})

	chunks, err := collect(t, g.Stream(context.Background(), ai.PrepareInput("x", nil)))
	require.Len(t, chunks, 1)
	var streamErr *ai.StreamingError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, "agent", streamErr.Node)
}

func TestInterruptAndResume(t *testing.T) {
	newGraph := func() *Graph {
		return MustNew([]Step{
			{Kind: KindToolCalls, Node: "agent", Calls: []Call{{ID: "c1", Tool: "write_file", Args: map[string]any{"path": "a.txt"}}}},
			{Kind: KindInterrupt, Node: "tools", Actions: []Action{{
				Tool: "write_file", ID: "c1", Args: map[string]any{"path": "a.txt"},
				Allowed: []ai.DecisionType{ai.DecisionApprove, ai.DecisionReject, ai.DecisionEdit},
				Result:  "wrote a.txt",
			}}},
			{Kind: KindText, Node: "agent", Text: "Done."},
		}, WithRunIDs(fixedRunID))
	}

	t.Run("pauses on interrupt", func(t *testing.T) {
		g := newGraph()
		chunks, err := collect(t, g.Stream(context.Background(), ai.PrepareInput("write", nil)))
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		last := chunks[1]
		require.Equal(t, chunk.TypeInterrupt, last.Type)
		assert.Equal(t, "write_file", last.Interrupt.ActionRequests[0].Name)
		assert.Equal(t, "run-1", last.Interrupt.RunID)
	})

	t.Run("approve continues", func(t *testing.T) {
		g := newGraph()
		_, err := collect(t, g.Stream(context.Background(), ai.PrepareInput("write", nil)))
		require.NoError(t, err)

		chunks, err := collect(t, g.Resume(context.Background(), "run-1", ai.PrepareInput("", nil, ai.WithDecisions(ai.Approve()))))
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, "wrote a.txt", chunks[0].ToolResult.Content)
		assert.Equal(t, "Done.", chunks[1].Text)
		assert.Equal(t, chunk.TypeComplete, chunks[2].Type)
	})

	t.Run("reject records text", func(t *testing.T) {
		g := newGraph()
		_, err := collect(t, g.Stream(context.Background(), ai.PrepareInput("write", nil)))
		require.NoError(t, err)

		chunks, err := collect(t, g.Resume(context.Background(), "run-1", ai.PrepareInput("", nil, ai.WithDecisions(ai.Reject("not now")))))
		require.NoError(t, err)
		assert.Equal(t, "Rejected write_file: not now", chunks[0].Text)
	})

	t.Run("edit reports edited args", func(t *testing.T) {
		g := newGraph()
		_, err := collect(t, g.Stream(context.Background(), ai.PrepareInput("write", nil)))
		require.NoError(t, err)

		chunks, err := collect(t, g.Resume(context.Background(), "run-1",
			ai.PrepareInput("", nil, ai.WithDecisions(ai.Edit("write_file", map[string]any{"path": "b.txt"})))))
		require.NoError(t, err)
		assert.Contains(t, chunks[0].ToolResult.Content, `"path":"b.txt"`)
	})

	t.Run("resume twice fails", func(t *testing.T) {
		g := newGraph()
		_, err := collect(t, g.Stream(context.Background(), ai.PrepareInput("write", nil)))
		require.NoError(t, err)
		_, err = collect(t, g.Resume(context.Background(), "run-1", ai.PrepareInput("", nil, ai.WithDecisions(ai.Approve()))))
		require.NoError(t, err)

		_, err = collect(t, g.Resume(context.Background(), "run-1", ai.PrepareInput("", nil, ai.WithDecisions(ai.Approve()))))
		assert.ErrorIs(t, err, ai.ErrNoPendingInterrupt)
	})

	t.Run("wrong decision count", func(t *testing.T) {
		g := newGraph()
		_, err := collect(t, g.Stream(context.Background(), ai.PrepareInput("write", nil)))
		require.NoError(t, err)

		_, err = collect(t, g.Resume(context.Background(), "run-1", ai.PrepareInput("", nil, ai.WithDecisions(ai.Approve(), ai.Approve()))))
		assert.Equal(t, ai.CategoryInterruptProtocol, ai.Category(err))
	})
}

func TestDelayHonorsCancellation(t *testing.T) {
	g := MustNew([]Step{{Kind: KindText, Text: "slow"}}, WithDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := collect(t, g.Stream(ctx, ai.PrepareInput("x", nil)))
	assert.ErrorIs(t, err, context.Canceled)
}
