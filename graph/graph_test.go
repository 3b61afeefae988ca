package graph

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
)

func textSeq(parts ...string) iter.Seq2[chunk.Chunk, error] {
	return func(yield func(chunk.Chunk, error) bool) {
		for _, p := range parts {
			if !yield(chunk.NewText("run", "agent", p), nil) {
				return
			}
		}
	}
}

func fixed(seq iter.Seq2[chunk.Chunk, error]) Source {
	return func(context.Context) iter.Seq2[chunk.Chunk, error] { return seq }
}

func TestParseStreamMode(t *testing.T) {
	tests := []struct {
		in      string
		want    StreamMode
		wantErr bool
	}{
		{"", ModeUpdates, false},
		{"updates", ModeUpdates, false},
		{" Values ", ModeValues, false},
		{"messages", ModeMessages, false},
		{"debug", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStreamMode(tt.in)
			if tt.wantErr {
				assert.Equal(t, ai.CategoryInput, ai.Category(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyOptions(t *testing.T) {
	assert.Equal(t, ModeUpdates, ApplyOptions().StreamMode)
	assert.Equal(t, ModeValues, ApplyOptions(WithStreamMode(ModeValues)).StreamMode)
}

func TestAsync(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		var got []chunk.Chunk
		for c, err := range Async(context.Background(), fixed(textSeq("a", "b", "c", "d"))) {
			require.NoError(t, err)
			got = append(got, c)
		}
		assert.Equal(t, "abcd", chunk.Texts(got))
	})

	t.Run("matches sync delivery", func(t *testing.T) {
		var syncChunks, asyncChunks []chunk.Chunk
		for c := range textSeq("x", "y") {
			syncChunks = append(syncChunks, c)
		}
		for c := range Async(context.Background(), fixed(textSeq("x", "y"))) {
			asyncChunks = append(asyncChunks, c)
		}
		assert.Equal(t, chunk.Texts(syncChunks), chunk.Texts(asyncChunks))
	})

	t.Run("forwards errors", func(t *testing.T) {
		boom := errors.New("boom")
		seq := func(yield func(chunk.Chunk, error) bool) {
			if !yield(chunk.NewText("run", "", "partial"), nil) {
				return
			}
			yield(chunk.Chunk{}, boom)
		}
		var errs []error
		for _, err := range Async(context.Background(), fixed(seq)) {
			if err != nil {
				errs = append(errs, err)
			}
		}
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], boom)
	})

	t.Run("early break stops producer", func(t *testing.T) {
		produced := 0
		seq := func(yield func(chunk.Chunk, error) bool) {
			for i := 0; i < 1000; i++ {
				produced++
				if !yield(chunk.NewText("run", "", "x"), nil) {
					return
				}
			}
		}
		for range Async(context.Background(), fixed(seq)) {
			break
		}
		assert.Less(t, produced, 1000)
	})

	t.Run("early break cancels a blocked sequence", func(t *testing.T) {
		src := func(ctx context.Context) iter.Seq2[chunk.Chunk, error] {
			return func(yield func(chunk.Chunk, error) bool) {
				if !yield(chunk.NewText("run", "", "first"), nil) {
					return
				}
				<-ctx.Done()
			}
		}
		done := make(chan struct{})
		go func() {
			defer close(done)
			for range Async(context.Background(), src) {
				break
			}
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("range did not return after break")
		}
	})

	t.Run("reports cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		block := make(chan struct{})
		seq := func(yield func(chunk.Chunk, error) bool) {
			if !yield(chunk.NewText("run", "", "first"), nil) {
				return
			}
			<-block
		}
		var lastErr error
		for c, err := range Async(ctx, fixed(seq)) {
			if c.Text == "first" {
				cancel()
				close(block)
			}
			lastErr = err
		}
		assert.ErrorIs(t, lastErr, context.Canceled)
	})
}
