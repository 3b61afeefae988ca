package agentcli

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptySpec is returned when no agent spec was supplied.
	ErrEmptySpec = errors.New("empty agent spec")

	// ErrNoPendingInterrupt is returned when a resume is attempted without an
	// open interrupt.
	ErrNoPendingInterrupt = errors.New("no pending interrupt")
)

// ErrorCategory classifies errors by how the front-end reports them.
type ErrorCategory string

const (
	// CategoryResolution is fatal to startup.
	CategoryResolution ErrorCategory = "resolution"

	// CategoryInput aborts a one-shot invocation; in the REPL the turn is skipped.
	CategoryInput ErrorCategory = "input"

	// CategoryStreaming is reported and the loop continues with the next turn.
	CategoryStreaming ErrorCategory = "streaming"

	// CategoryInterruptProtocol aborts the current turn.
	CategoryInterruptProtocol ErrorCategory = "interrupt_protocol"

	// CategoryCanceled marks a turn stopped by the user.
	CategoryCanceled ErrorCategory = "canceled"

	// CategoryUnknown is anything else.
	CategoryUnknown ErrorCategory = "unknown"
)

// ResolutionKind tells which half of a spec failed to resolve.
type ResolutionKind string

const (
	LocationNotFound  ResolutionKind = "location_not_found"
	AttributeNotFound ResolutionKind = "attribute_not_found"
)

// ResolutionError is returned when an agent spec cannot be turned into a graph.
type ResolutionError struct {
	Spec      string
	Location  string
	Attribute string
	Kind      ResolutionKind
	// Available lists the attributes the location does export, when known.
	Available []string
	Err       error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	switch e.Kind {
	case AttributeNotFound:
		fmt.Fprintf(&b, "resolve %q: %s has no attribute %q", e.Spec, e.Location, e.Attribute)
		if len(e.Available) > 0 {
			fmt.Fprintf(&b, " (available: %s)", strings.Join(e.Available, ", "))
		}
	default:
		fmt.Fprintf(&b, "resolve %q: location %q not found", e.Spec, e.Location)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// InputError reports invalid user-supplied input: a malformed config payload,
// an unreadable message file, or a bad decision.
type InputError struct {
	// Source names where the input came from ("--config", "--file", ...).
	Source string
	Msg    string
	Err    error
}

func (e *InputError) Error() string {
	msg := e.Msg
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %v", msg, e.Err)
	}
	return "invalid input: " + msg
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// StreamingError wraps a failure raised by a graph while a turn was streaming.
type StreamingError struct {
	RunID string
	Node  string
	Err   error
}

func (e *StreamingError) Error() string {
	prefix := "stream failed"
	if e.Node != "" {
		prefix = fmt.Sprintf("stream failed in node %q", e.Node)
	}
	if e.Err == nil {
		return prefix
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

func (e *StreamingError) Unwrap() error {
	return e.Err
}

// InterruptProtocolError is returned for a malformed interrupt or a decision
// the graph cannot accept.
type InterruptProtocolError struct {
	InterruptID string
	Msg         string
	Err         error
}

func (e *InterruptProtocolError) Error() string {
	msg := "interrupt protocol: " + e.Msg
	if e.InterruptID != "" {
		msg = fmt.Sprintf("interrupt %s: %s", e.InterruptID, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *InterruptProtocolError) Unwrap() error {
	return e.Err
}

// Category classifies err, looking through wrapped errors. The outermost
// taxonomy error wins.
func Category(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch e.(type) {
		case *ResolutionError:
			return CategoryResolution
		case *InputError:
			return CategoryInput
		case *InterruptProtocolError:
			return CategoryInterruptProtocol
		case *StreamingError:
			if errors.Is(e, context.Canceled) {
				return CategoryCanceled
			}
			return CategoryStreaming
		}
	}
	if errors.Is(err, context.Canceled) {
		return CategoryCanceled
	}
	return CategoryUnknown
}

// IsFatal reports whether err should end the process rather than the turn.
func IsFatal(err error) bool {
	return Category(err) == CategoryResolution
}

// Chain returns the messages of err and every error it wraps, outermost first.
// Joined errors are walked depth-first.
func Chain(err error) []string {
	var out []string
	var walk func(error)
	walk = func(e error) {
		for e != nil {
			out = append(out, e.Error())
			if j, ok := e.(interface{ Unwrap() []error }); ok {
				for _, inner := range j.Unwrap() {
					walk(inner)
				}
				return
			}
			e = errors.Unwrap(e)
		}
	}
	walk(err)
	return out
}
