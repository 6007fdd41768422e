// Package domain defines the core domain models for kvsum.
//
// Domain models are pure value objects without any IO dependencies
// or framework coupling. This package contains:
//
//   - ChecksumRequest: algorithm, scan mode and read timestamp of a request
//   - KeyRange: half-open key interval scanned by a request
//   - ChecksumResult: checksum, row count and byte count, combinable by XOR
//   - Errors: coded domain errors shared by the engine and its callers
package domain
