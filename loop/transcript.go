package loop

import (
	"slices"
	"sync"
	"time"

	"github.com/spetersoncode/agentcli/chunk"
)

// Turn is one user message and everything the graph streamed in response,
// including chunks produced after resuming interrupts.
type Turn struct {
	Message  string
	ThreadID string
	Chunks   []chunk.Chunk
	// Decisions counts the interrupts answered during the turn.
	Decisions int
	Err       error
	Started   time.Time
	Finished  time.Time
}

// Text returns the concatenated assistant text of the turn.
func (t Turn) Text() string {
	return chunk.Texts(t.Chunks)
}

// Transcript is the in-memory record of the session's turns, in order.
// It is safe for concurrent use.
type Transcript struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append records a finished turn.
func (t *Transcript) Append(turn Turn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, turn)
}

// Turns returns a copy of the recorded turns.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.turns)
}

// Len returns the number of recorded turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Last returns the most recent turn.
func (t *Transcript) Last() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// Clear forgets every turn.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = nil
}
