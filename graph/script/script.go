// Package script provides a deterministic graph that replays a fixed list of
// steps. It backs demos and tests of the conversation loop: a script can
// stream text, announce tool calls, publish a plan, fail, or pause on an
// interrupt and continue once decisions arrive.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
	"github.com/spetersoncode/agentcli/graph"
)

// Kind identifies what a step emits.
type Kind string

const (
	KindText      Kind = "text"
	KindToolCalls Kind = "tool_calls"
	KindTodos     Kind = "todos"
	KindInterrupt Kind = "interrupt"
	KindError     Kind = "error"
)

// InputPlaceholder in a text step is replaced by the user message.
const InputPlaceholder = "{input}"

// Action is a tool call a script pauses on for approval.
type Action struct {
	Tool        string         `yaml:"tool" json:"tool"`
	ID          string         `yaml:"id" json:"id"`
	Args        map[string]any `yaml:"args" json:"args"`
	Description string         `yaml:"description" json:"description"`
	// Allowed restricts the decisions offered; empty allows all.
	Allowed []ai.DecisionType `yaml:"allowed" json:"allowed"`
	// Result is reported as the tool output once the action is approved.
	Result string `yaml:"result" json:"result"`
}

// Call is a tool call announced by a tool_calls step.
type Call struct {
	ID   string         `yaml:"id" json:"id"`
	Tool string         `yaml:"tool" json:"tool"`
	Args map[string]any `yaml:"args" json:"args"`
}

// Step is one scripted emission.
type Step struct {
	Kind    Kind         `yaml:"kind" json:"kind"`
	Node    string       `yaml:"node" json:"node"`
	Text    string       `yaml:"text" json:"text"`
	Calls   []Call       `yaml:"calls" json:"calls"`
	Todos   []chunk.Todo `yaml:"todos" json:"todos"`
	Actions []Action     `yaml:"actions" json:"actions"`
	Error   string       `yaml:"error" json:"error"`
}

// Option configures a script Graph.
type Option func(*Graph)

// WithDelay pauses between steps, to make streaming visible.
func WithDelay(d time.Duration) Option {
	return func(g *Graph) {
		g.delay = d
	}
}

// WithRunIDs overrides run ID generation.
func WithRunIDs(next func() string) Option {
	return func(g *Graph) {
		g.nextRunID = next
	}
}

type pending struct {
	next      int
	interrupt *chunk.Interrupt
	actions   []Action
	node      string
}

// Graph replays its steps on every Stream call.
type Graph struct {
	steps     []Step
	delay     time.Duration
	nextRunID func() string

	mu      sync.Mutex
	pending map[string]pending
}

// New creates a script graph. Steps are validated eagerly.
func New(steps []Step, opts ...Option) (*Graph, error) {
	for i, s := range steps {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("script step %d: %w", i, err)
		}
	}
	g := &Graph{
		steps:     steps,
		nextRunID: ai.GenerateRunID,
		pending:   make(map[string]pending),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// MustNew is like New but panics on error.
func MustNew(steps []Step, opts ...Option) *Graph {
	g, err := New(steps, opts...)
	if err != nil {
		panic(err)
	}
	return g
}

func (s Step) validate() error {
	switch s.Kind {
	case KindText, KindTodos:
	case KindToolCalls:
		if len(s.Calls) == 0 {
			return fmt.Errorf("tool_calls step needs calls")
		}
	case KindInterrupt:
		if len(s.Actions) == 0 {
			return fmt.Errorf("interrupt step needs actions")
		}
		for _, a := range s.Actions {
			if a.Tool == "" {
				return fmt.Errorf("interrupt action needs a tool")
			}
		}
	case KindError:
		if s.Error == "" {
			return fmt.Errorf("error step needs an error message")
		}
	default:
		return fmt.Errorf("unknown step kind %q", s.Kind)
	}
	return nil
}

// Stream replays the script from the first step.
func (g *Graph) Stream(ctx context.Context, in ai.Input, opts ...graph.Option) iter.Seq2[chunk.Chunk, error] {
	runID := g.nextRunID()
	message := lastUserMessage(in.Messages)
	return func(yield func(chunk.Chunk, error) bool) {
		g.run(ctx, runID, message, 0, yield)
	}
}

// Resume applies the decisions to the pending interrupt of runID and
// continues with the step after it.
func (g *Graph) Resume(ctx context.Context, runID string, in ai.Input, opts ...graph.Option) iter.Seq2[chunk.Chunk, error] {
	return func(yield func(chunk.Chunk, error) bool) {
		g.mu.Lock()
		p, ok := g.pending[runID]
		g.mu.Unlock()
		if !ok {
			yield(chunk.Chunk{}, &ai.InterruptProtocolError{Msg: "resume run " + runID, Err: ai.ErrNoPendingInterrupt})
			return
		}
		if in.Resume == nil {
			yield(chunk.Chunk{}, &ai.InterruptProtocolError{InterruptID: p.interrupt.ID, Msg: "resume without decisions"})
			return
		}
		if err := p.interrupt.Validate(in.Resume.Decisions); err != nil {
			yield(chunk.Chunk{}, err)
			return
		}

		g.mu.Lock()
		delete(g.pending, runID)
		g.mu.Unlock()

		for i, d := range in.Resume.Decisions {
			if !yield(applyDecision(runID, p.node, p.actions[i], d), nil) {
				return
			}
		}
		g.run(ctx, runID, "", p.next, yield)
	}
}

func applyDecision(runID, node string, a Action, d ai.Decision) chunk.Chunk {
	switch d.Type {
	case ai.DecisionReject:
		msg := fmt.Sprintf("Rejected %s.", a.Tool)
		if d.Message != "" {
			msg = fmt.Sprintf("Rejected %s: %s", a.Tool, d.Message)
		}
		return chunk.NewText(runID, node, msg)
	case ai.DecisionEdit:
		args, _ := json.Marshal(d.EditedAction.Args)
		return chunk.NewToolResult(runID, node, ai.ToolResult{
			ToolCallID: a.ID,
			Name:       d.EditedAction.Name,
			Content:    fmt.Sprintf("ran %s with edited args %s", d.EditedAction.Name, args),
		})
	default:
		content := a.Result
		if content == "" {
			content = "ok"
		}
		return chunk.NewToolResult(runID, node, ai.ToolResult{ToolCallID: a.ID, Name: a.Tool, Content: content})
	}
}

func (g *Graph) run(ctx context.Context, runID, message string, from int, yield func(chunk.Chunk, error) bool) {
	for i := from; i < len(g.steps); i++ {
		if err := g.wait(ctx); err != nil {
			yield(chunk.Chunk{}, err)
			return
		}
		step := g.steps[i]
		switch step.Kind {
		case KindText:
			text := strings.ReplaceAll(step.Text, InputPlaceholder, message)
			if !yield(chunk.NewText(runID, step.Node, text), nil) {
				return
			}
		case KindToolCalls:
			if !yield(chunk.NewToolCalls(runID, step.Node, toolCalls(step.Calls)), nil) {
				return
			}
		case KindTodos:
			if !yield(chunk.NewTodoList(runID, step.Node, step.Todos), nil) {
				return
			}
		case KindError:
			yield(chunk.Chunk{}, &ai.StreamingError{RunID: runID, Node: step.Node, Err: fmt.Errorf("%s", step.Error)})
			return
		case KindInterrupt:
			in := interruptFor(runID, i, step.Actions)
			g.mu.Lock()
			g.pending[runID] = pending{next: i + 1, interrupt: in, actions: step.Actions, node: step.Node}
			g.mu.Unlock()
			yield(chunk.NewInterrupt(runID, step.Node, in), nil)
			return
		}
	}
	yield(chunk.NewComplete(runID), nil)
}

func (g *Graph) wait(ctx context.Context) error {
	if g.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(g.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func toolCalls(calls []Call) []ai.ToolCall {
	out := make([]ai.ToolCall, len(calls))
	for i, c := range calls {
		args, _ := json.Marshal(c.Args)
		if c.Args == nil {
			args = []byte("{}")
		}
		out[i] = ai.ToolCall{ID: c.ID, Name: c.Tool, Arguments: string(args)}
	}
	return out
}

func interruptFor(runID string, step int, actions []Action) *chunk.Interrupt {
	in := &chunk.Interrupt{ID: fmt.Sprintf("%s/%d", runID, step), RunID: runID}
	for _, a := range actions {
		in.ActionRequests = append(in.ActionRequests, chunk.ActionRequest{
			Name:        a.Tool,
			ToolCallID:  a.ID,
			Args:        a.Args,
			Description: a.Description,
		})
		in.ReviewConfigs = append(in.ReviewConfigs, chunk.ReviewConfig{
			ActionName:       a.Tool,
			AllowedDecisions: a.Allowed,
		})
	}
	return in
}

func lastUserMessage(msgs []ai.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == ai.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

var _ graph.Graph = (*Graph)(nil)
