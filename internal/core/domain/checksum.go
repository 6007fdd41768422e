package domain

import (
	"fmt"
	"hash/crc64"
	"strings"
)

// ChecksumAlgorithm selects how rows are folded into the checksum.
type ChecksumAlgorithm int32

const (
	// AlgorithmCRC64XOR digests key ++ value with CRC-64 (ECMA-182) and
	// combines digests by XOR.
	AlgorithmCRC64XOR ChecksumAlgorithm = 0
)

// String returns the string representation of the algorithm.
func (a ChecksumAlgorithm) String() string {
	switch a {
	case AlgorithmCRC64XOR:
		return "crc64_xor"
	default:
		return fmt.Sprintf("unknown(%d)", int32(a))
	}
}

// ParseChecksumAlgorithm parses the name produced by String.
func ParseChecksumAlgorithm(s string) (ChecksumAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "crc64_xor", "crc64-xor", "crc64":
		return AlgorithmCRC64XOR, nil
	default:
		return 0, ErrUnsupportedAlgorithm.WithDetails(s)
	}
}

// ScanOn selects the logical object whose layout the row source decodes.
type ScanOn int32

const (
	ScanOnTable ScanOn = 0
	ScanOnIndex ScanOn = 1
)

// String returns the string representation of the scan mode.
func (s ScanOn) String() string {
	switch s {
	case ScanOnTable:
		return "table"
	case ScanOnIndex:
		return "index"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// ParseScanOn parses "table" or "index".
func ParseScanOn(s string) (ScanOn, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return ScanOnTable, nil
	case "index":
		return ScanOnIndex, nil
	default:
		return 0, ErrInvalidArgument.WithDetails("unknown scan_on " + s)
	}
}

// IsolationLevel controls which versions and locks a snapshot read observes.
type IsolationLevel int32

const (
	// IsolationSI reads the versions committed at or before the start
	// timestamp and fails on locks that could commit below it.
	IsolationSI IsolationLevel = 0

	// IsolationRC reads the latest committed version and ignores locks.
	IsolationRC IsolationLevel = 1
)

// String returns the string representation of the isolation level.
func (l IsolationLevel) String() string {
	switch l {
	case IsolationSI:
		return "si"
	case IsolationRC:
		return "rc"
	default:
		return fmt.Sprintf("unknown(%d)", int32(l))
	}
}

// ParseIsolationLevel parses "si" or "rc".
func ParseIsolationLevel(s string) (IsolationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "si":
		return IsolationSI, nil
	case "rc":
		return IsolationRC, nil
	default:
		return 0, ErrInvalidArgument.WithDetails("unknown isolation level " + s)
	}
}

// ChecksumRequest is the immutable input of a checksum request.
type ChecksumRequest struct {
	Algorithm ChecksumAlgorithm
	ScanOn    ScanOn
	StartTS   uint64
}

// ChecksumResult is the outcome of a checksum request.
type ChecksumResult struct {
	Checksum   uint64 `json:"checksum" yaml:"checksum"`
	TotalKVs   uint64 `json:"total_kvs" yaml:"total_kvs"`
	TotalBytes uint64 `json:"total_bytes" yaml:"total_bytes"`
}

// IsEmpty reports whether no row contributed to the result.
func (r ChecksumResult) IsEmpty() bool {
	return r.Checksum == 0 && r.TotalKVs == 0 && r.TotalBytes == 0
}

// Merge combines the result of a disjoint set of ranges into r.
// The checksum is XORed, the counters are added.
func (r ChecksumResult) Merge(other ChecksumResult) ChecksumResult {
	return ChecksumResult{
		Checksum:   r.Checksum ^ other.Checksum,
		TotalKVs:   r.TotalKVs + other.TotalKVs,
		TotalBytes: r.TotalBytes + other.TotalBytes,
	}
}

// String formats the result for logs and CLI output.
func (r ChecksumResult) String() string {
	return fmt.Sprintf("checksum=%#016x total_kvs=%d total_bytes=%d", r.Checksum, r.TotalKVs, r.TotalBytes)
}

// Response is the opaque envelope carrying an encoded checksum response.
type Response struct {
	Data []byte
}

var crc64Table = crc64.MakeTable(crc64.ECMA)

// RowDigest returns the CRC-64 (ECMA-182) of key bytes immediately
// followed by value bytes.
func RowDigest(key, value []byte) uint64 {
	return crc64.Update(crc64.Update(0, crc64Table, key), crc64Table, value)
}

// CRC64XOR folds one row into checksum.
func CRC64XOR(checksum uint64, key, value []byte) uint64 {
	return checksum ^ RowDigest(key, value)
}
