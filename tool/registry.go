package tool

import (
	"context"
	"slices"
	"sync"

	ai "github.com/spetersoncode/agentcli"
)

// Registry maps tool names to their registrations. Tools are offered to the
// model in the order they were registered, so built-in tools come before
// tools added later from MCP servers. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]Registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Registration)}
}

// Register adds a tool. A name can be registered once.
func (r *Registry) Register(tool ai.Tool, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.entries[tool.Name]; dup {
		return &ErrToolAlreadyRegistered{Name: tool.Name}
	}
	r.entries[tool.Name] = Registration{Tool: tool, Handler: handler}
	r.order = append(r.order, tool.Name)
	return nil
}

// MustRegister is like Register but panics on a duplicate name.
func (r *Registry) MustRegister(tool ai.Tool, handler Handler) {
	if err := r.Register(tool, handler); err != nil {
		panic(err)
	}
}

// Add registers regs in order and returns r. It panics on a duplicate name.
func (r *Registry) Add(regs ...Registration) *Registry {
	for _, reg := range regs {
		r.MustRegister(reg.Tool, reg.Handler)
	}
	return r
}

// Unregister removes a tool. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return
	}
	delete(r.entries, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })
}

// Lookup returns the registration of a tool.
func (r *Registry) Lookup(name string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[name]
	return reg, ok
}

// Tools returns the tool definitions in registration order.
func (r *Registry) Tools() []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]ai.Tool, len(r.order))
	for i, name := range r.order {
		tools[i] = r.entries[name].Tool
	}
	return tools
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(slices.Values(r.order))
}

// Len returns the number of tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Execute runs the handler for call. An unknown tool is an
// *ErrToolNotFound. A handler failure is not an error: it becomes the
// content of a result with IsError set, for the model to read.
func (r *Registry) Execute(ctx context.Context, call ai.ToolCall) (ai.ToolResult, error) {
	reg, ok := r.Lookup(call.Name)
	if !ok {
		return ai.ToolResult{}, &ErrToolNotFound{Name: call.Name}
	}
	result := ai.ToolResult{ToolCallID: call.ID, Name: call.Name}
	content, err := reg.Handler(ctx, call)
	if err != nil {
		result.Content = err.Error()
		result.IsError = true
		return result, nil
	}
	result.Content = content
	return result, nil
}
