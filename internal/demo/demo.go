// Package demo registers scripted graphs under the "demo" module so the CLI
// can be tried without a model provider:
//
//	agentcli -a demo:graph
//	agentcli -a demo:approval
package demo

import (
	"github.com/spetersoncode/agentcli/chunk"
	"github.com/spetersoncode/agentcli/graph"
	"github.com/spetersoncode/agentcli/graph/script"
)

// Module is the registry module name.
const Module = "demo"

func init() {
	graph.Register(Module, "graph", Hello())
	graph.Register(Module, "approval", Approval())
}

// Hello echoes the user message after planning it as a todo list.
func Hello() *script.Graph {
	return script.MustNew([]script.Step{
		{Kind: script.KindTodos, Node: "planner", Todos: []chunk.Todo{
			{Content: "Read the message", Status: chunk.TodoCompleted},
			{Content: "Answer it", Status: chunk.TodoInProgress},
		}},
		{Kind: script.KindText, Node: "model", Text: "Hello! You said: " + script.InputPlaceholder},
	})
}

// Approval proposes a file write and waits for a decision.
func Approval() *script.Graph {
	return script.MustNew([]script.Step{
		{Kind: script.KindText, Node: "model", Text: "I'll save that to notes.txt."},
		{Kind: script.KindToolCalls, Node: "model", Calls: []script.Call{
			{ID: "call_write", Tool: "write_file", Args: map[string]any{"file_path": "notes.txt"}},
		}},
		{Kind: script.KindInterrupt, Node: "tools", Actions: []script.Action{{
			Tool:        "write_file",
			ID:          "call_write",
			Args:        map[string]any{"file_path": "notes.txt"},
			Description: "Write the message to notes.txt",
			Result:      "Wrote notes.txt",
		}}},
		{Kind: script.KindText, Node: "model", Text: "Done."},
	})
}
