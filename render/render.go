// Package render writes what a turn produces to the user.
//
// A [Sink] receives chunks as soon as the loop pulls them. [Text] is the
// human-readable terminal renderer; the agui package provides a sink that
// emits AG-UI protocol events instead.
package render

import (
	"github.com/spetersoncode/agentcli/chunk"
)

// Sink receives the output of the conversation loop. Calls are made from a
// single goroutine.
type Sink interface {
	// TurnStart is called before the first chunk of a turn.
	TurnStart(threadID string)

	// Chunk writes one chunk immediately.
	Chunk(c chunk.Chunk)

	// Interrupt shows the tool calls awaiting a decision.
	Interrupt(in *chunk.Interrupt)

	// Notice writes an informational line.
	Notice(msg string)

	// Warn writes a warning line.
	Warn(msg string)

	// Error reports a failed turn or command.
	Error(err error)

	// TurnEnd is called after the last chunk of a turn; err is the turn's
	// failure, if any.
	TurnEnd(err error)
}
