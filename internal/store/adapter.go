package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Adapter defines the interface for persistence backends.
// Implementations must be thread-safe.
type Adapter interface {
	// Get retrieves a value by key. Returns nil, false, nil if not found.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)

	// Set stores a value by key.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes a key. No error if key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys in ascending order.
	Keys(ctx context.Context) ([]string, error)

	// Close releases the backend. Later calls fail with ErrAdapterClosed.
	Close() error
}

// Open returns the adapter named by dsn: "memory" (or "") for an in-process
// map, or "sqlite:PATH" for a SQLite database file.
func Open(dsn string) (Adapter, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return NewMemoryAdapter(), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		path := strings.TrimPrefix(dsn, "sqlite:")
		if path == "" {
			return nil, fmt.Errorf("store: sqlite dsn %q has no path", dsn)
		}
		return NewSQLiteAdapter(path)
	default:
		return nil, fmt.Errorf("store: unknown checkpointer %q (want memory or sqlite:PATH)", dsn)
	}
}
