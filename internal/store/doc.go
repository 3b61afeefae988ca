// Package store persists JSON state behind a pluggable key-value adapter.
//
// Two adapters are provided: [MemoryAdapter] keeps values for the life of
// the process and [SQLiteAdapter] writes them to a SQLite database file.
// [Open] selects one from a DSN:
//
//	memory          in-process map
//	sqlite:PATH     SQLite database at PATH (created if missing)
//
// [Typed] layers type-safe, keyed access on top of an adapter; the chat
// graph uses it to checkpoint each conversation thread by ID:
//
//	checkpoints := store.NewTyped[Checkpoint](adapter)
//	cp, ok, err := checkpoints.Load(ctx, threadID)
//	...
//	err = checkpoints.Save(ctx, threadID, cp)
//
// All adapters are safe for concurrent use.
package store
