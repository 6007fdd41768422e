// Package service implements the checksum engine and its request service.
//
//   - ChecksumContext: single use engine that drains a list of key ranges
//     through a RowSource and folds every pair into a CRC64-XOR checksum
//   - ChecksumService: validates input, assigns request IDs, logs and
//     records metrics around one engine run
//
// Storage is reached only through the Snapshot and RowSource ports defined
// in ports.go, so the engine is tested with in-memory spies.
package service
