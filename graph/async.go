package graph

import (
	"context"
	"iter"

	"github.com/spetersoncode/agentcli/chunk"
)

type result struct {
	chunk chunk.Chunk
	err   error
}

// Source opens a chunk sequence bound to ctx, typically by calling
// Graph.Stream or Graph.Resume.
type Source func(ctx context.Context) iter.Seq2[chunk.Chunk, error]

// Async opens src on a single producer goroutine and hands its chunks to the
// consumer over a channel, preserving order. The sequence is opened with a
// context derived from ctx; breaking out of the returned sequence cancels it,
// and the producer is drained before the range returns, so no two producers
// for the same call ever overlap.
//
// If ctx ends while the consumer is waiting, the sequence yields ctx.Err().
func Async(ctx context.Context, src Source) iter.Seq2[chunk.Chunk, error] {
	return func(yield func(chunk.Chunk, error) bool) {
		pctx, cancel := context.WithCancel(ctx)
		defer cancel()

		ch := make(chan result, chunk.Buffer)
		go func() {
			defer close(ch)
			for c, err := range src(pctx) {
				if pctx.Err() != nil {
					return
				}
				select {
				case ch <- result{chunk: c, err: err}:
				case <-pctx.Done():
					return
				}
			}
		}()

		var sawErr bool
		for r := range ch {
			if r.err != nil {
				sawErr = true
			}
			if !yield(r.chunk, r.err) {
				cancel()
				for range ch {
				}
				return
			}
		}
		if err := ctx.Err(); err != nil && !sawErr {
			yield(chunk.Chunk{}, err)
		}
	}
}
