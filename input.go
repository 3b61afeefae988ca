package agentcli

import (
	"slices"
	"strings"
)

// Input is the payload handed to a graph's Stream or Resume call.
//
// Only Messages is part of the serialized input; Resume travels as the resume
// command and Config as the run config.
type Input struct {
	Messages []Message      `json:"messages,omitempty"`
	Resume   *ResumePayload `json:"-"`
	Config   Config         `json:"-"`
}

// IsResume reports whether the input carries decisions.
func (in Input) IsResume() bool {
	return in.Resume != nil
}

// InputOption configures PrepareInput.
type InputOption func(*Input)

// WithDecisions attaches a resume payload built from the given decisions.
func WithDecisions(decisions ...Decision) InputOption {
	return func(in *Input) {
		in.Resume = &ResumePayload{Decisions: slices.Clone(decisions)}
	}
}

// WithHistory prepends prior messages before the user message.
func WithHistory(messages ...Message) InputOption {
	return func(in *Input) {
		in.Messages = append(slices.Clone(messages), in.Messages...)
	}
}

// PrepareInput shapes a user message into the payload a graph expects. It is
// pure: equal arguments give structurally equal inputs. An empty or
// whitespace-only message adds no message entry.
func PrepareInput(message string, cfg Config, opts ...InputOption) Input {
	in := Input{Config: cfg.Clone()}
	if strings.TrimSpace(message) != "" {
		in.Messages = []Message{NewUserMessage(message)}
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}
