package chat

import (
	"context"
	"fmt"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
)

// Checkpoint is the saved state of one thread.
type Checkpoint struct {
	ThreadID string       `json:"thread_id"`
	Messages []ai.Message `json:"messages"`
	Todos    []chunk.Todo `json:"todos,omitempty"`
	Pending  *Pending     `json:"pending,omitempty"`
}

// Pending is a step paused on an interrupt: the tool calls of the last
// assistant message, none of which have run yet.
type Pending struct {
	RunID     string           `json:"run_id"`
	Step      int              `json:"step"`
	Interrupt *chunk.Interrupt `json:"interrupt"`
	Calls     []ai.ToolCall    `json:"calls"`
	// Reviewed maps each action request, by position, to its call in Calls.
	Reviewed []int `json:"reviewed"`
}

// checkpointKey addresses thread state. Runs without a thread are keyed by
// their run ID so they can still be resumed.
func checkpointKey(cfg ai.Config, runID string) string {
	if id := cfg.ThreadID(); id != "" {
		return "thread:" + id
	}
	return "run:" + runID
}

func (g *Graph) load(ctx context.Context, key string) (*Checkpoint, error) {
	cp, ok, err := g.checkpoints.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if !ok {
		return &Checkpoint{}, nil
	}
	if cp.Pending != nil && cp.Pending.Interrupt != nil {
		cp.Pending.Interrupt.RunID = cp.Pending.RunID
	}
	return &cp, nil
}

// save outlives a canceled run so an aborted turn keeps its history.
func (g *Graph) save(ctx context.Context, key string, cp *Checkpoint) error {
	if err := g.checkpoints.Save(context.WithoutCancel(ctx), key, *cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// abandon closes out a pending step the user moved past, so the history
// keeps every tool call answered.
func (cp *Checkpoint) abandon() {
	if cp.Pending == nil {
		return
	}
	results := make([]ai.ToolResult, len(cp.Pending.Calls))
	for i, call := range cp.Pending.Calls {
		results[i] = ai.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    fmt.Sprintf("Tool call %s was not run: the user moved on without deciding.", call.Name),
			IsError:    true,
		}
	}
	cp.Messages = append(cp.Messages, ai.NewToolResultMessage(results...))
	cp.Pending = nil
}
