package chunk

import (
	"context"
	"time"
)

// Buffer is the capacity of channels created by NewChannel.
const Buffer = 100

// NewChannel creates a buffered chunk channel with standard capacity.
func NewChannel() chan Chunk {
	return make(chan Chunk, Buffer)
}

// Emit stamps c and sends it on ch, blocking until the receiver takes it or
// ctx is done. Chunks are never dropped; it returns false only when ctx ended
// first.
func Emit(ctx context.Context, ch chan<- Chunk, c Chunk) bool {
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// Collect drains ch into a slice.
func Collect(ch <-chan Chunk) []Chunk {
	var out []Chunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

// Texts concatenates the text of every text chunk in order.
func Texts(chunks []Chunk) string {
	var n int
	for _, c := range chunks {
		n += len(c.Text)
	}
	b := make([]byte, 0, n)
	for _, c := range chunks {
		if c.Type == TypeText {
			b = append(b, c.Text...)
		}
	}
	return string(b)
}
