package chat

import (
	"io"
	"time"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/internal/store"
	"github.com/spetersoncode/agentcli/tool"
)

// Review marks a tool whose calls pause the run for a human decision.
type Review struct {
	// AllowedDecisions restricts the decisions offered; empty allows all.
	AllowedDecisions []ai.DecisionType
	// Description is shown with the action request.
	Description string
}

// Option configures a chat Graph.
type Option func(*Graph)

// WithChatOptions sets the options passed to every model call.
func WithChatOptions(opts ...ai.ChatOption) Option {
	return func(g *Graph) {
		g.chatOpts = append(g.chatOpts, opts...)
	}
}

// WithTools registers extra tools alongside the built-in write_todos.
func WithTools(regs ...tool.Registration) Option {
	return func(g *Graph) {
		g.registry.Add(regs...)
	}
}

// WithFileTools registers the filesystem tools.
func WithFileTools(opts ...tool.FileToolOption) Option {
	return WithTools(tool.FileTools(opts...)...)
}

// WithInterruptOn pauses the run before calls to the named tools run.
func WithInterruptOn(reviews map[string]Review) Option {
	return func(g *Graph) {
		for name, r := range reviews {
			g.interruptOn[name] = r
		}
	}
}

// WithCheckpointer persists thread state in adapter. The graph owns the
// adapter and closes it on Close.
func WithCheckpointer(adapter store.Adapter) Option {
	return func(g *Graph) {
		g.checkpoints = store.NewTyped[Checkpoint](adapter)
		g.closers = append(g.closers, adapter)
	}
}

// WithRecursionLimit sets the step bound used when the run config has no
// recursion_limit.
func WithRecursionLimit(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.recursionLimit = n
		}
	}
}

// WithToolTimeout bounds each tool call. Zero means no bound.
func WithToolTimeout(d time.Duration) Option {
	return func(g *Graph) {
		g.toolTimeout = d
	}
}

// WithParallelTools runs the tool calls of one step concurrently. Results
// are still reported in call order.
func WithParallelTools(enabled bool) Option {
	return func(g *Graph) {
		g.parallel = enabled
	}
}

// WithRunIDs overrides run ID generation.
func WithRunIDs(next func() string) Option {
	return func(g *Graph) {
		g.nextRunID = next
	}
}

// WithCloser ties the lifetime of c to the graph.
func WithCloser(c io.Closer) Option {
	return func(g *Graph) {
		g.closers = append(g.closers, c)
	}
}
