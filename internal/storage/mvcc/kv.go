// Package mvcc defines the versioned key-value engine contract shared by
// the storage backends.
//
// An Engine stores every committed version of a key under its commit
// timestamp, plus an optional lock per key. Readers open an Iterator at a
// read timestamp and see, for each key, the newest version committed at or
// before it. Deleted keys are hidden.
package mvcc

import (
	"context"
	"errors"
	"fmt"
)

// Common errors
var (
	ErrClosed           = errors.New("kv engine closed")
	ErrInvalidTimestamp = errors.New("timestamp must be greater than zero")
	ErrEmptyKey         = errors.New("key must not be empty")
)

// Op is a mutation kind.
type Op int

// Mutation kinds.
const (
	OpPut Op = iota
	OpDelete
	OpLock
	OpUnlock
)

func (o Op) String() string {
	switch o {
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	case OpLock:
		return "lock"
	case OpUnlock:
		return "unlock"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Mutation is one change applied at a commit timestamp.
type Mutation struct {
	Op    Op
	Key   []byte
	Value []byte
}

// Put writes value under key.
func Put(key, value []byte) Mutation {
	return Mutation{Op: OpPut, Key: key, Value: value}
}

// Delete writes a tombstone for key.
func Delete(key []byte) Mutation {
	return Mutation{Op: OpDelete, Key: key}
}

// LockKey places a lock on key whose lock timestamp is the write timestamp.
func LockKey(key []byte) Mutation {
	return Mutation{Op: OpLock, Key: key}
}

// UnlockKey removes the lock on key, if any.
func UnlockKey(key []byte) Mutation {
	return Mutation{Op: OpUnlock, Key: key}
}

// Validate checks a single mutation.
func (m Mutation) Validate() error {
	if len(m.Key) == 0 {
		return ErrEmptyKey
	}
	if m.Op < OpPut || m.Op > OpUnlock {
		return fmt.Errorf("unknown mutation %s", m.Op)
	}
	return nil
}

// Lock is an outstanding write intent on a key.
type Lock struct {
	Key []byte
	TS  uint64
}

// IteratorOptions tunes a read iterator.
type IteratorOptions struct {
	// FillCache lets the engine keep scanned blocks and values cached.
	FillCache bool
}

// Iterator walks visible keys in ascending order. Key and Value results
// are valid until the next Seek, Next or Close.
type Iterator interface {
	Seek(key []byte)
	Valid() bool
	Key() []byte
	Value() ([]byte, error)
	Next()
	Close() error
}

// Engine is a versioned key-value store.
//
// Implementation requirements:
// - Thread-safe: concurrent reads and writes must be safe
// - Snapshot reads: an open Iterator is unaffected by later writes
type Engine interface {
	// Write applies muts at commitTS. The memory engine applies them
	// atomically. The badger engine may split a large batch into several
	// commits at the same timestamp, so a reader at or above commitTS can
	// observe part of the batch until Write returns.
	Write(ctx context.Context, commitTS uint64, muts []Mutation) error

	// NewIterator opens a read view at readTS.
	NewIterator(readTS uint64, opts IteratorOptions) (Iterator, error)

	// FirstLock returns the first lock in [start, end) with TS <= maxTS,
	// or nil. An empty end means unbounded.
	FirstLock(start, end []byte, maxTS uint64) (*Lock, error)

	// Stats returns storage statistics.
	Stats(ctx context.Context) (*KVStats, error)

	// Close gracefully shuts down the engine.
	Close() error
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// Backend names the engine ("memory", "badger").
	Backend string `json:"backend" yaml:"backend"`

	// Keys is the approximate number of stored versions.
	Keys uint64 `json:"keys" yaml:"keys"`

	// Locks is the number of outstanding locks.
	Locks uint64 `json:"locks" yaml:"locks"`

	// TotalSize is the stored key and value bytes (memory) or the disk
	// usage (badger).
	TotalSize uint64 `json:"total_size" yaml:"total_size"`

	// LSMSize is the LSM tree size (badger).
	LSMSize uint64 `json:"lsm_size" yaml:"lsm_size"`

	// ValueLogSize is the value log size (badger).
	ValueLogSize uint64 `json:"value_log_size" yaml:"value_log_size"`

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64 `json:"last_gc_time" yaml:"last_gc_time"`
}
