package graph

import (
	"context"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
)

type stubGraph struct{ name string }

func (s *stubGraph) Stream(context.Context, ai.Input, ...Option) iter.Seq2[chunk.Chunk, error] {
	return textSeq(s.name)
}

func (s *stubGraph) Resume(context.Context, string, ai.Input, ...Option) iter.Seq2[chunk.Chunk, error] {
	return textSeq(s.name)
}

func TestRegistry(t *testing.T) {
	g := &stubGraph{name: "a"}
	Register("registry-test", "graph", g)
	Register("registry-test", "alt", &stubGraph{name: "b"})

	t.Run("lookup returns the registered object", func(t *testing.T) {
		got, ok := Lookup("registry-test", "graph")
		assert.True(t, ok)
		assert.Same(t, g, got)
	})

	t.Run("missing name", func(t *testing.T) {
		_, ok := Lookup("registry-test", "nope")
		assert.False(t, ok)
		assert.True(t, HasModule("registry-test"))
		assert.False(t, HasModule("registry-missing"))
	})

	t.Run("exports and modules are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"alt", "graph"}, Exports("registry-test"))
		assert.Contains(t, Modules(), "registry-test")
	})

	t.Run("duplicate panics", func(t *testing.T) {
		assert.Panics(t, func() { Register("registry-test", "graph", g) })
	})

	t.Run("nil panics", func(t *testing.T) {
		assert.Panics(t, func() { Register("registry-test", "nil", nil) })
	})
}
