package store

import (
	"errors"
	"fmt"
)

// ErrAdapterClosed is returned by every operation on a closed adapter.
var ErrAdapterClosed = errors.New("store: adapter closed")

// CodecError reports a value that could not be encoded for, or decoded
// from, the key it is stored under. A decode failure usually means the
// record was written by an incompatible version.
type CodecError struct {
	Op  string // "encode" or "decode"
	Key string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("store: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}
