// Package tablecodec encodes table row and index keys.
//
// Layout, with every integer encoded as 8 bytes big endian with the sign
// bit flipped so byte order matches numeric order:
//
//	row:   t{tableID}_r{handle}
//	index: t{tableID}_i{indexID}{indexValues}
package tablecodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/stevenberge/tikv/internal/core/domain"
)

const (
	idLen     = 8
	signMask  = uint64(1) << 63
	prefixLen = 1 + idLen + 2

	// RecordRowKeyLen is the length of an encoded row key.
	RecordRowKeyLen = prefixLen + idLen
)

var (
	tablePrefix     = []byte{'t'}
	recordPrefixSep = []byte("_r")
	indexPrefixSep  = []byte("_i")
)

// ErrKeyLayout is returned for keys that are not table row or index keys.
var ErrKeyLayout = errors.New("tablecodec: unexpected key layout")

// EncodeInt appends the order preserving form of v.
func EncodeInt(b []byte, v int64) []byte {
	var buf [idLen]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v)^signMask)
	return append(b, buf[:]...)
}

// DecodeInt decodes an integer written by EncodeInt and returns the rest.
func DecodeInt(b []byte) ([]byte, int64, error) {
	if len(b) < idLen {
		return nil, 0, fmt.Errorf("%w: need %d bytes for an int, have %d", ErrKeyLayout, idLen, len(b))
	}
	v := int64(binary.BigEndian.Uint64(b[:idLen]) ^ signMask)
	return b[idLen:], v, nil
}

// TablePrefix returns t{tableID}.
func TablePrefix(tableID int64) []byte {
	return EncodeInt(append([]byte(nil), tablePrefix...), tableID)
}

// RecordPrefix returns t{tableID}_r.
func RecordPrefix(tableID int64) []byte {
	return append(TablePrefix(tableID), recordPrefixSep...)
}

// IndexPrefix returns t{tableID}_i{indexID}.
func IndexPrefix(tableID, indexID int64) []byte {
	return EncodeInt(append(TablePrefix(tableID), indexPrefixSep...), indexID)
}

// EncodeRowKey returns the key of row handle in table tableID.
func EncodeRowKey(tableID, handle int64) []byte {
	return EncodeInt(RecordPrefix(tableID), handle)
}

// EncodeIndexKey returns the key of an index entry. values is the already
// encoded index column data.
func EncodeIndexKey(tableID, indexID int64, values []byte) []byte {
	return append(IndexPrefix(tableID, indexID), values...)
}

// DecodeRowKey splits a row key into its table ID and handle.
func DecodeRowKey(key []byte) (tableID, handle int64, err error) {
	if len(key) != RecordRowKeyLen || !hasSep(key, recordPrefixSep) {
		return 0, 0, fmt.Errorf("%w: not a row key %x", ErrKeyLayout, key)
	}
	rest, tableID, err := DecodeInt(key[1:])
	if err != nil {
		return 0, 0, err
	}
	_, handle, err = DecodeInt(rest[len(recordPrefixSep):])
	if err != nil {
		return 0, 0, err
	}
	return tableID, handle, nil
}

// DecodeIndexKey splits an index key into table ID, index ID and the
// encoded column values.
func DecodeIndexKey(key []byte) (tableID, indexID int64, values []byte, err error) {
	if len(key) < prefixLen+idLen || !hasSep(key, indexPrefixSep) {
		return 0, 0, nil, fmt.Errorf("%w: not an index key %x", ErrKeyLayout, key)
	}
	rest, tableID, err := DecodeInt(key[1:])
	if err != nil {
		return 0, 0, nil, err
	}
	values, indexID, err = DecodeInt(rest[len(indexPrefixSep):])
	if err != nil {
		return 0, 0, nil, err
	}
	return tableID, indexID, values, nil
}

// IsRecordKey reports whether key is a table row key.
func IsRecordKey(key []byte) bool {
	return len(key) == RecordRowKeyLen && hasSep(key, recordPrefixSep)
}

// IsIndexKey reports whether key is a table index key.
func IsIndexKey(key []byte) bool {
	return len(key) >= prefixLen+idLen && hasSep(key, indexPrefixSep)
}

func hasSep(key, sep []byte) bool {
	return len(key) >= prefixLen &&
		key[0] == tablePrefix[0] &&
		bytes.Equal(key[1+idLen:prefixLen], sep)
}

// CheckLayout verifies key matches the layout scanOn expects.
func CheckLayout(scanOn domain.ScanOn, key []byte) error {
	switch scanOn {
	case domain.ScanOnTable:
		if IsRecordKey(key) {
			return nil
		}
	case domain.ScanOnIndex:
		if IsIndexKey(key) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s scan found key %x", ErrKeyLayout, scanOn, key)
}

// PrefixNext returns the smallest key greater than every key with the
// given prefix, or nil when no such key exists.
func PrefixNext(prefix []byte) []byte {
	next := append([]byte(nil), prefix...)
	for i := len(next) - 1; i >= 0; i-- {
		next[i]++
		if next[i] != 0 {
			return next[:i+1]
		}
	}
	return nil
}

// PrefixRange returns the range covering every key with prefix.
func PrefixRange(prefix []byte) domain.KeyRange {
	return domain.KeyRange{
		Start: append([]byte(nil), prefix...),
		End:   PrefixNext(prefix),
	}
}

// TableRecordRange covers every row of tableID.
func TableRecordRange(tableID int64) domain.KeyRange {
	return PrefixRange(RecordPrefix(tableID))
}

// TableIndexRange covers every entry of one index.
func TableIndexRange(tableID, indexID int64) domain.KeyRange {
	return PrefixRange(IndexPrefix(tableID, indexID))
}

// TableRange covers every row and index entry of tableID.
func TableRange(tableID int64) domain.KeyRange {
	return PrefixRange(TablePrefix(tableID))
}
