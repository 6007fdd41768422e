// Package memory provides an in-memory MVCC engine for kvsum.
//
// Versions live in a copy-on-write B-tree ordered by key ascending and
// commit timestamp descending, so the newest visible version of a key is
// the first entry at or after (key, readTS). Locks live in a second tree,
// one per key.
//
// Thread Safety:
//
// Writes take the store lock. Iterators read from a lazily cloned tree
// and never block writers.
package memory
