package domain

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// KeyRange is the half-open key interval [Start, End).
// An empty End means the range is unbounded above.
type KeyRange struct {
	Start []byte
	End   []byte
}

// NewKeyRange copies start and end into a new range.
func NewKeyRange(start, end []byte) KeyRange {
	return KeyRange{
		Start: append([]byte(nil), start...),
		End:   append([]byte(nil), end...),
	}
}

// Unbounded reports whether the range has no upper bound.
func (r KeyRange) Unbounded() bool {
	return len(r.End) == 0
}

// Contains reports whether key falls inside the range.
func (r KeyRange) Contains(key []byte) bool {
	if bytes.Compare(key, r.Start) < 0 {
		return false
	}
	return r.Unbounded() || bytes.Compare(key, r.End) < 0
}

// Validate checks that Start does not sort after End.
func (r KeyRange) Validate() error {
	if !r.Unbounded() && bytes.Compare(r.Start, r.End) > 0 {
		return ErrInvalidRange.WithDetails(r.String())
	}
	return nil
}

// String renders the range with hex encoded bounds.
func (r KeyRange) String() string {
	end := hex.EncodeToString(r.End)
	if r.Unbounded() {
		end = "+inf"
	}
	return fmt.Sprintf("[%s, %s)", hex.EncodeToString(r.Start), end)
}

// ParseKeyRange parses "START:END". With hexKeys the bounds are hex
// encoded, otherwise they are taken verbatim and must not contain ':'.
// Either side may be empty.
func ParseKeyRange(s string, hexKeys bool) (KeyRange, error) {
	start, end, ok := strings.Cut(s, ":")
	if !ok {
		return KeyRange{}, ErrInvalidArgument.WithDetails("range must be START:END, got " + s)
	}
	if !hexKeys && strings.Contains(end, ":") {
		return KeyRange{}, ErrInvalidArgument.WithDetails("raw range bounds must not contain ':', use hex keys: " + s)
	}

	decode := func(v string) ([]byte, error) {
		if !hexKeys {
			return []byte(v), nil
		}
		b, err := hex.DecodeString(v)
		if err != nil {
			return nil, ErrInvalidArgument.WithDetails("range bound is not hex: " + v).WithCause(err)
		}
		return b, nil
	}

	var r KeyRange
	var err error
	if r.Start, err = decode(start); err != nil {
		return KeyRange{}, err
	}
	if r.End, err = decode(end); err != nil {
		return KeyRange{}, err
	}
	if err := r.Validate(); err != nil {
		return KeyRange{}, err
	}
	return r, nil
}
