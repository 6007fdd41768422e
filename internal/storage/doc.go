// Package storage provides the snapshot storage behind kvsum checksums.
//
// Architecture:
//
//   - mvcc: the versioned engine contract (writes at commit timestamps,
//     iterators at read timestamps, per-key locks)
//   - memory: B-tree backed engine for tests and one shot runs
//   - BadgerEngine: Badger v3 in managed mode for on-disk data
//   - Snapshot and Scanner: adapt an engine to the checksum service's
//     Snapshot and RowSource ports
//   - tablecodec: table row and index key layout
package storage
