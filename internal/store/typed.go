package store

import (
	"context"
	"encoding/json"
)

// Typed provides type-safe, keyed access to JSON values of type T.
type Typed[T any] struct {
	adapter Adapter
}

// NewTyped creates a Typed store over adapter.
// If adapter is nil, a default in-memory adapter is used.
func NewTyped[T any](adapter Adapter) *Typed[T] {
	if adapter == nil {
		adapter = NewMemoryAdapter()
	}
	return &Typed[T]{adapter: adapter}
}

// Load returns the value stored under key. ok is false if there is none.
func (s *Typed[T]) Load(ctx context.Context, key string) (value T, ok bool, err error) {
	raw, ok, err := s.adapter.Get(ctx, key)
	if err != nil || !ok {
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, &CodecError{Op: "decode", Key: key, Err: err}
	}
	return value, true, nil
}

// Save stores value under key, replacing any previous value.
func (s *Typed[T]) Save(ctx context.Context, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &CodecError{Op: "encode", Key: key, Err: err}
	}
	return s.adapter.Set(ctx, key, raw)
}

// Delete removes the value stored under key.
func (s *Typed[T]) Delete(ctx context.Context, key string) error {
	return s.adapter.Delete(ctx, key)
}

// Adapter returns the underlying adapter.
func (s *Typed[T]) Adapter() Adapter {
	return s.adapter
}
