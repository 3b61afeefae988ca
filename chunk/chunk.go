// Package chunk models the partial outputs a graph streams during a run.
// A chunk is a tagged value: Type says which of the payload fields is set.
package chunk

import (
	"encoding/json"
	"time"

	ai "github.com/spetersoncode/agentcli"
)

// Type identifies the kind of chunk.
type Type string

const (
	// TypeText carries a piece of assistant text. Consecutive text chunks
	// concatenate to the full message.
	TypeText Type = "text"

	// TypeToolCalls carries the tool calls a node decided to make.
	TypeToolCalls Type = "tool_calls"

	// TypeToolResult carries the result of one executed tool call.
	TypeToolResult Type = "tool_result"

	// TypeTodoList carries the graph's current plan.
	TypeTodoList Type = "todo_list"

	// TypeInterrupt pauses the run until decisions are supplied via Resume.
	TypeInterrupt Type = "interrupt"

	// TypeComplete marks the end of a run.
	TypeComplete Type = "complete"

	// TypeError carries a failure reported by the graph itself.
	TypeError Type = "error"
)

// Chunk is one partial output of a run.
type Chunk struct {
	Type Type

	// RunID identifies the run the chunk belongs to. Resume is addressed by it.
	RunID string

	// Node is the graph node that produced the chunk, when known.
	Node string

	// Text is set for TypeText.
	Text string

	// ToolCalls is set for TypeToolCalls.
	ToolCalls []ai.ToolCall

	// ToolResult is set for TypeToolResult.
	ToolResult *ai.ToolResult

	// Todos is set for TypeTodoList.
	Todos []Todo

	// Interrupt is set for TypeInterrupt.
	Interrupt *Interrupt

	// Err is set for TypeError.
	Err error

	// Timestamp is when the chunk was produced.
	Timestamp time.Time
}

// TodoStatus is the progress of one plan item.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

// Todo is one item of a graph's plan.
type Todo struct {
	Content string     `json:"content"`
	Status  TodoStatus `json:"status"`
}

// ActionRequest describes one tool call awaiting a decision.
type ActionRequest struct {
	Name        string         `json:"name"`
	ToolCallID  string         `json:"tool_call_id,omitempty"`
	Args        map[string]any `json:"args"`
	Description string         `json:"description,omitempty"`
}

// ReviewConfig lists the decisions allowed for one action.
type ReviewConfig struct {
	ActionName       string            `json:"action_name"`
	AllowedDecisions []ai.DecisionType `json:"allowed_decisions"`
}

// Allows reports whether the decision type is permitted. An empty allow-list
// permits everything.
func (r ReviewConfig) Allows(t ai.DecisionType) bool {
	if len(r.AllowedDecisions) == 0 {
		return true
	}
	for _, a := range r.AllowedDecisions {
		if a == t {
			return true
		}
	}
	return false
}

// Interrupt is a pause requested by the graph, typically for human approval
// of pending tool calls.
type Interrupt struct {
	ID             string          `json:"id,omitempty"`
	RunID          string          `json:"-"`
	ActionRequests []ActionRequest `json:"action_requests"`
	ReviewConfigs  []ReviewConfig  `json:"review_configs,omitempty"`
	// Value holds the raw interrupt value for interrupts that are not
	// tool-approval requests.
	Value json.RawMessage `json:"value,omitempty"`
}

// ReviewFor returns the review config for the named action, if any.
func (i *Interrupt) ReviewFor(name string) (ReviewConfig, bool) {
	for _, rc := range i.ReviewConfigs {
		if rc.ActionName == name {
			return rc, true
		}
	}
	return ReviewConfig{}, false
}

// Validate checks the interrupt against a set of decisions: one decision per
// action request, each permitted by that action's review config.
func (i *Interrupt) Validate(decisions []ai.Decision) error {
	if len(decisions) != len(i.ActionRequests) {
		return &ai.InterruptProtocolError{
			InterruptID: i.ID,
			Msg:         "decision count does not match action requests",
		}
	}
	for n, d := range decisions {
		if err := d.Validate(); err != nil {
			return err
		}
		action := i.ActionRequests[n]
		if rc, ok := i.ReviewFor(action.Name); ok && !rc.Allows(d.Type) {
			return &ai.InterruptProtocolError{
				InterruptID: i.ID,
				Msg:         "decision " + string(d.Type) + " not allowed for " + action.Name,
			}
		}
	}
	return nil
}

// NewText creates a text chunk.
func NewText(runID, node, text string) Chunk {
	return Chunk{Type: TypeText, RunID: runID, Node: node, Text: text, Timestamp: time.Now()}
}

// NewToolCalls creates a tool-calls chunk.
func NewToolCalls(runID, node string, calls []ai.ToolCall) Chunk {
	return Chunk{Type: TypeToolCalls, RunID: runID, Node: node, ToolCalls: calls, Timestamp: time.Now()}
}

// NewToolResult creates a tool-result chunk.
func NewToolResult(runID, node string, result ai.ToolResult) Chunk {
	return Chunk{Type: TypeToolResult, RunID: runID, Node: node, ToolResult: &result, Timestamp: time.Now()}
}

// NewTodoList creates a todo-list chunk.
func NewTodoList(runID, node string, todos []Todo) Chunk {
	return Chunk{Type: TypeTodoList, RunID: runID, Node: node, Todos: todos, Timestamp: time.Now()}
}

// NewInterrupt creates an interrupt chunk. The interrupt inherits runID.
func NewInterrupt(runID, node string, in *Interrupt) Chunk {
	if in != nil && in.RunID == "" {
		in.RunID = runID
	}
	return Chunk{Type: TypeInterrupt, RunID: runID, Node: node, Interrupt: in, Timestamp: time.Now()}
}

// NewComplete creates a completion chunk.
func NewComplete(runID string) Chunk {
	return Chunk{Type: TypeComplete, RunID: runID, Timestamp: time.Now()}
}

// NewError creates an error chunk.
func NewError(runID, node string, err error) Chunk {
	return Chunk{Type: TypeError, RunID: runID, Node: node, Err: err, Timestamp: time.Now()}
}
