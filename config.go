package agentcli

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/titanous/json5"
)

// DefaultRecursionLimit bounds the number of steps a graph may take per run
// when the config does not say otherwise.
const DefaultRecursionLimit = 25

// Config is the run configuration passed through to a graph unchanged, for
// example {"configurable": {"thread_id": "..."}, "recursion_limit": 50}.
type Config map[string]any

// ParseConfig parses source as a JSON object, or, when source is not an
// object literal, as the path of a file containing one. JSON5 syntax
// (comments, trailing commas, unquoted keys) is accepted. An empty source
// yields an empty Config.
func ParseConfig(source string) (Config, error) {
	text := strings.TrimSpace(source)
	if text == "" {
		return Config{}, nil
	}
	if !strings.HasPrefix(text, "{") {
		data, err := os.ReadFile(text)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &InputError{Source: "config", Msg: fmt.Sprintf("%q is neither a JSON object nor a file", text), Err: err}
			}
			return nil, &InputError{Source: "config", Msg: "read config file", Err: err}
		}
		return decodeConfig(text, data)
	}
	return decodeConfig("config", []byte(text))
}

func decodeConfig(source string, data []byte) (Config, error) {
	var cfg map[string]any
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, &InputError{Source: source, Msg: "config must be a JSON object", Err: err}
	}
	if cfg == nil {
		return Config{}, nil
	}
	return Config(cfg), nil
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	if c == nil {
		return Config{}
	}
	return Config(cloneMap(c))
}

// Merge returns a copy of c with over laid on top. Nested objects are merged
// key by key; any other value in over replaces the one in c.
func (c Config) Merge(over Config) Config {
	out := c.Clone()
	mergeInto(out, over)
	return out
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := dst[k].(map[string]any); ok {
				mergeInto(dv, sv)
				continue
			}
		}
		dst[k] = cloneValue(v)
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Config:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Configurable returns the "configurable" section, or nil.
func (c Config) Configurable() map[string]any {
	m, _ := c["configurable"].(map[string]any)
	return m
}

// ThreadID returns configurable.thread_id, or "" when unset.
func (c Config) ThreadID() string {
	switch v := c.Configurable()["thread_id"].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// WithThreadID returns a copy of c addressing the given thread.
func (c Config) WithThreadID(id string) Config {
	out := c.Clone()
	conf := map[string]any{}
	if existing, ok := out["configurable"].(map[string]any); ok {
		conf = existing
	}
	conf["thread_id"] = id
	out["configurable"] = conf
	return out
}

// RecursionLimit returns recursion_limit, or def when unset or not a
// positive number.
func (c Config) RecursionLimit(def int) int {
	var n int
	switch v := c["recursion_limit"].(type) {
	case float64:
		n = int(v)
	case int:
		n = v
	case int64:
		n = int(v)
	}
	if n <= 0 {
		return def
	}
	return n
}

// Keys returns the top-level keys of c.
func (c Config) Keys() []string {
	return sortedKeys(c)
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

// NewThreadID creates a fresh thread identifier.
func NewThreadID() string {
	return uuid.New().String()
}
