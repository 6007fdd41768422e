package checksumpb

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers.
const (
	fieldStartTS   protowire.Number = 1
	fieldScanOn    protowire.Number = 2
	fieldAlgorithm protowire.Number = 3

	fieldChecksum   protowire.Number = 1
	fieldTotalKVs   protowire.Number = 2
	fieldTotalBytes protowire.Number = 3

	fieldData       protowire.Number = 1
	fieldOtherError protowire.Number = 4
)

// ErrMalformed is returned when a message cannot be parsed.
var ErrMalformed = errors.New("checksumpb: malformed message")

// ChecksumRequest is the wire form of a checksum request.
type ChecksumRequest struct {
	StartTS   uint64
	ScanOn    int32
	Algorithm int32
}

// ChecksumResponse is the wire form of a checksum result.
type ChecksumResponse struct {
	Checksum   uint64
	TotalKVs   uint64
	TotalBytes uint64
}

// Response is the coprocessor response envelope.
type Response struct {
	Data       []byte
	OtherError string
}

// Marshal encodes the request. All fields are written, including zeros.
func (m *ChecksumRequest) Marshal() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("checksumpb: marshal nil request")
	}
	b := make([]byte, 0, 16)
	b = appendVarintField(b, fieldStartTS, m.StartTS)
	b = appendVarintField(b, fieldScanOn, uint64(m.ScanOn))
	b = appendVarintField(b, fieldAlgorithm, uint64(m.Algorithm))
	return b, nil
}

// Unmarshal decodes b into m. Unknown fields are skipped.
func (m *ChecksumRequest) Unmarshal(b []byte) error {
	*m = ChecksumRequest{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldStartTS, fieldScanOn, fieldAlgorithm:
			v, n, err := consumeVarint(typ, b)
			if err != nil {
				return 0, err
			}
			switch num {
			case fieldStartTS:
				m.StartTS = v
			case fieldScanOn:
				m.ScanOn = int32(v)
			case fieldAlgorithm:
				m.Algorithm = int32(v)
			}
			return n, nil
		}
		return skipField(num, typ, b)
	})
}

// Marshal encodes the response. All fields are written, including zeros.
func (m *ChecksumResponse) Marshal() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("checksumpb: marshal nil response")
	}
	b := make([]byte, 0, 3*(1+protowire.SizeVarint(^uint64(0))))
	b = appendVarintField(b, fieldChecksum, m.Checksum)
	b = appendVarintField(b, fieldTotalKVs, m.TotalKVs)
	b = appendVarintField(b, fieldTotalBytes, m.TotalBytes)
	return b, nil
}

// Unmarshal decodes b into m. Unknown fields are skipped.
func (m *ChecksumResponse) Unmarshal(b []byte) error {
	*m = ChecksumResponse{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var dst *uint64
		switch num {
		case fieldChecksum:
			dst = &m.Checksum
		case fieldTotalKVs:
			dst = &m.TotalKVs
		case fieldTotalBytes:
			dst = &m.TotalBytes
		default:
			return skipField(num, typ, b)
		}
		v, n, err := consumeVarint(typ, b)
		if err != nil {
			return 0, err
		}
		*dst = v
		return n, nil
	})
}

// Marshal encodes the envelope. Empty fields are omitted.
func (m *Response) Marshal() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("checksumpb: marshal nil envelope")
	}
	var b []byte
	if len(m.Data) > 0 {
		b = protowire.AppendTag(b, fieldData, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Data)
	}
	if m.OtherError != "" {
		b = protowire.AppendTag(b, fieldOtherError, protowire.BytesType)
		b = protowire.AppendString(b, m.OtherError)
	}
	return b, nil
}

// Unmarshal decodes b into m. Unknown fields are skipped.
func (m *Response) Unmarshal(b []byte) error {
	*m = Response{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if (num != fieldData && num != fieldOtherError) || typ != protowire.BytesType {
			return skipField(num, typ, b)
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		if num == fieldData {
			m.Data = append([]byte(nil), v...)
		} else {
			m.OtherError = string(v)
		}
		return n, nil
	})
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// walkFields calls fn for every field of b. fn consumes the field value
// and returns the number of bytes it used.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		used, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		b = b[used:]
	}
	return nil
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("%w: expected varint, got wire type %d", ErrMalformed, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
	}
	return v, n, nil
}

func skipField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
	}
	return n, nil
}
