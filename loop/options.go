package loop

import (
	"log/slog"
	"os"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/graph"
	"github.com/spetersoncode/agentcli/prompt"
	"github.com/spetersoncode/agentcli/render"
)

// Options contains configuration for a Runner.
type Options struct {
	// Interactive prompts for interrupt decisions. When false every pending
	// tool call is approved without prompting. Default is true.
	Interactive bool

	// Async pulls chunks on a producer goroutine instead of the loop's own.
	Async bool

	// StreamMode is passed to every Stream and Resume call.
	StreamMode graph.StreamMode

	// Verbose logs state transitions and renders full error chains.
	Verbose bool

	// Config is the run config passed through to the graph. A thread ID is
	// generated when it has none.
	Config ai.Config

	// Prompter reads REPL lines and decisions. Default reads os.Stdin.
	Prompter prompt.Prompter

	// Sink receives rendered output. Default writes text to os.Stdout.
	Sink render.Sink

	// Signals, when set, delivers interrupt requests (Ctrl-C). A signal
	// while streaming cancels the turn; at the REPL prompt it ends the loop.
	Signals <-chan os.Signal

	// OnStateChange is called on every state transition.
	OnStateChange func(from, to State)

	// Logger receives diagnostics. Default is slog.Default().
	Logger *slog.Logger
}

// Option is a functional option for configuring a Runner.
type Option func(*Options)

// WithInteractive enables or disables decision prompts.
func WithInteractive(v bool) Option {
	return func(o *Options) {
		o.Interactive = v
	}
}

// WithAsync selects asynchronous chunk delivery.
func WithAsync(v bool) Option {
	return func(o *Options) {
		o.Async = v
	}
}

// WithStreamMode sets the graph stream mode.
func WithStreamMode(m graph.StreamMode) Option {
	return func(o *Options) {
		o.StreamMode = m
	}
}

// WithVerbose enables verbose diagnostics.
func WithVerbose(v bool) Option {
	return func(o *Options) {
		o.Verbose = v
	}
}

// WithConfig sets the run config.
func WithConfig(cfg ai.Config) Option {
	return func(o *Options) {
		o.Config = cfg
	}
}

// WithPrompter sets the input source.
func WithPrompter(p prompt.Prompter) Option {
	return func(o *Options) {
		o.Prompter = p
	}
}

// WithSink sets the output sink.
func WithSink(s render.Sink) Option {
	return func(o *Options) {
		o.Sink = s
	}
}

// WithSignals sets the interrupt signal channel.
func WithSignals(ch <-chan os.Signal) Option {
	return func(o *Options) {
		o.Signals = ch
	}
}

// WithStateHook sets a callback for state transitions.
func WithStateHook(fn func(from, to State)) Option {
	return func(o *Options) {
		o.OnStateChange = fn
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// ApplyOptions applies functional options over the defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		Interactive: true,
		StreamMode:  graph.ModeUpdates,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Prompter == nil {
		o.Prompter = prompt.NewLine(os.Stdin, os.Stdout)
	}
	if o.Sink == nil {
		o.Sink = render.NewText(os.Stdout, render.WithVerbose(o.Verbose))
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.StreamMode == "" {
		o.StreamMode = graph.ModeUpdates
	}
	return o
}
