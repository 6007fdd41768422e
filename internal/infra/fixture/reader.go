package fixture

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/stevenberge/tikv/internal/storage/mvcc"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// maxLineSize bounds a single fixture line.
const maxLineSize = 16 << 20

// Row is one line of a fixture file.
//
//	{"key":"k1","value":"v1"}
//	{"key":"k2","op":"delete"}
//	{"key":"k3","op":"lock"}
type Row struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
	// Op is put (default), delete, lock or unlock.
	Op string `json:"op,omitempty"`
}

// Mutation converts the row. With hexKeys key and value are hex encoded.
func (r Row) Mutation(hexKeys bool) (mvcc.Mutation, error) {
	decode := func(s string) ([]byte, error) {
		if !hexKeys {
			return []byte(s), nil
		}
		return hex.DecodeString(s)
	}

	key, err := decode(r.Key)
	if err != nil {
		return mvcc.Mutation{}, fmt.Errorf("key: %w", err)
	}

	switch strings.ToLower(r.Op) {
	case "", "put":
		value, err := decode(r.Value)
		if err != nil {
			return mvcc.Mutation{}, fmt.Errorf("value: %w", err)
		}
		return mvcc.Put(key, value), nil
	case "delete":
		return mvcc.Delete(key), nil
	case "lock":
		return mvcc.LockKey(key), nil
	case "unlock":
		return mvcc.UnlockKey(key), nil
	}
	return mvcc.Mutation{}, fmt.Errorf("unknown op %q", r.Op)
}

// Reader reads fixture rows from JSON lines, plain or zstd compressed.
type Reader struct {
	scanner *bufio.Scanner
	dec     *zstd.Decoder
	closer  io.Closer
	line    int
}

// NewReader wraps r. Compressed input is detected by the zstd frame magic.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	rd := &Reader{}

	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("fixture: peek: %w", err)
	}

	var src io.Reader = br
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("fixture: zstd: %w", err)
		}
		rd.dec = dec
		src = dec
	}

	rd.scanner = bufio.NewScanner(src)
	rd.scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return rd, nil
}

// Open opens the fixture file at path. "-" reads stdin.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	rd, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	rd.closer = f
	return rd, nil
}

// Next returns the next row. Blank lines are skipped. It returns io.EOF
// after the last row.
func (r *Reader) Next() (Row, error) {
	for r.scanner.Scan() {
		r.line++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var row Row
		if err := json.Unmarshal(line, &row); err != nil {
			return Row{}, fmt.Errorf("fixture: line %d: %w", r.line, err)
		}
		if row.Key == "" {
			return Row{}, fmt.Errorf("fixture: line %d: %w", r.line, mvcc.ErrEmptyKey)
		}
		return row, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Row{}, fmt.Errorf("fixture: line %d: %w", r.line+1, err)
	}
	return Row{}, io.EOF
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// Close releases the decoder and the underlying file.
func (r *Reader) Close() error {
	if r.dec != nil {
		r.dec.Close()
		r.dec = nil
	}
	if r.closer != nil {
		err := r.closer.Close()
		r.closer = nil
		return err
	}
	return nil
}
