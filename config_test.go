package agentcli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Run("empty source", func(t *testing.T) {
		cfg, err := ParseConfig("  ")
		require.NoError(t, err)
		assert.Empty(t, cfg)
	})

	t.Run("inline json", func(t *testing.T) {
		cfg, err := ParseConfig(`{"configurable": {"thread_id": "abc"}, "recursion_limit": 40}`)
		require.NoError(t, err)
		assert.Equal(t, "abc", cfg.ThreadID())
		assert.Equal(t, 40, cfg.RecursionLimit(DefaultRecursionLimit))
	})

	t.Run("json5 syntax", func(t *testing.T) {
		cfg, err := ParseConfig(`{
			// thread to resume
			configurable: {thread_id: "abc",},
		}`)
		require.NoError(t, err)
		assert.Equal(t, "abc", cfg.ThreadID())
	})

	t.Run("file path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"recursion_limit": 7}`), 0o644))

		cfg, err := ParseConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.RecursionLimit(DefaultRecursionLimit))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ParseConfig("does-not-exist.json")
		var inputErr *InputError
		require.ErrorAs(t, err, &inputErr)
		assert.Equal(t, CategoryInput, Category(err))
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := ParseConfig(`{"configurable": `)
		var inputErr *InputError
		require.ErrorAs(t, err, &inputErr)
	})
}

func TestConfig(t *testing.T) {
	t.Run("merge overlays nested keys", func(t *testing.T) {
		base := Config{
			"configurable":    map[string]any{"thread_id": "env", "user": "u1"},
			"recursion_limit": float64(10),
		}
		over := Config{"configurable": map[string]any{"thread_id": "cli"}}

		merged := base.Merge(over)
		assert.Equal(t, "cli", merged.ThreadID())
		assert.Equal(t, "u1", merged.Configurable()["user"])
		assert.Equal(t, 10, merged.RecursionLimit(DefaultRecursionLimit))
		assert.Equal(t, "env", base.ThreadID(), "merge must not mutate the receiver")
	})

	t.Run("with thread id", func(t *testing.T) {
		var cfg Config
		next := cfg.WithThreadID("t-2")
		assert.Equal(t, "t-2", next.ThreadID())
		assert.Equal(t, "", cfg.ThreadID())
	})

	t.Run("recursion limit default", func(t *testing.T) {
		assert.Equal(t, DefaultRecursionLimit, Config{}.RecursionLimit(DefaultRecursionLimit))
		assert.Equal(t, DefaultRecursionLimit, Config{"recursion_limit": float64(-1)}.RecursionLimit(DefaultRecursionLimit))
	})

	t.Run("keys are sorted", func(t *testing.T) {
		cfg := Config{"b": 1, "a": 2}
		assert.Equal(t, []string{"a", "b"}, cfg.Keys())
	})
}
