// Package graph defines the contract between the conversation loop and an
// agent graph, and the process-wide registry graphs can be exported through.
//
// A Graph is opaque to the loop beyond its two streaming operations. Both
// return lazy, finite, non-restartable sequences of chunks: ranging a
// sequence drives the run, breaking out of the range abandons it.
//
//	for c, err := range g.Stream(ctx, agentcli.PrepareInput("hi", cfg)) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(c.Text)
//	}
//
// Wrap a sequence with [Async] to run it on a producer goroutine instead of
// pulling it from the caller's goroutine.
package graph

import (
	"context"
	"fmt"
	"iter"
	"strings"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
)

// Graph is a conversational agent that streams its progress as chunks.
type Graph interface {
	// Stream starts a run for the given input.
	Stream(ctx context.Context, in ai.Input, opts ...Option) iter.Seq2[chunk.Chunk, error]

	// Resume continues the interrupted run identified by runID. The input
	// carries the decisions for the pending interrupt.
	Resume(ctx context.Context, runID string, in ai.Input, opts ...Option) iter.Seq2[chunk.Chunk, error]
}

// StreamMode selects what a graph reports while it runs.
type StreamMode string

const (
	// ModeUpdates reports what each node produced (default).
	ModeUpdates StreamMode = "updates"
	// ModeValues reports the full state after each step.
	ModeValues StreamMode = "values"
	// ModeMessages reports message tokens as they are generated.
	ModeMessages StreamMode = "messages"
)

// StreamModes lists the accepted stream modes.
var StreamModes = []StreamMode{ModeUpdates, ModeValues, ModeMessages}

// ParseStreamMode parses a stream mode name. An empty name is ModeUpdates.
func ParseStreamMode(s string) (StreamMode, error) {
	switch m := StreamMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeUpdates, nil
	case ModeUpdates, ModeValues, ModeMessages:
		return m, nil
	default:
		return "", &ai.InputError{
			Source: "stream-mode",
			Msg:    fmt.Sprintf("unknown stream mode %q (want updates, values or messages)", s),
		}
	}
}

// Options configures a single Stream or Resume call.
type Options struct {
	StreamMode StreamMode
}

// Option is a functional option for Stream and Resume.
type Option func(*Options)

// WithStreamMode sets the stream mode.
func WithStreamMode(m StreamMode) Option {
	return func(o *Options) {
		o.StreamMode = m
	}
}

// ApplyOptions applies functional options over the defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{StreamMode: ModeUpdates}
	for _, opt := range opts {
		opt(o)
	}
	if o.StreamMode == "" {
		o.StreamMode = ModeUpdates
	}
	return o
}
