package memory

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/btree"

	"github.com/stevenberge/tikv/internal/storage/mvcc"
)

// DefaultDegree is the B-tree degree used when none is configured.
const DefaultDegree = 32

type version struct {
	key     []byte
	ts      uint64
	value   []byte
	deleted bool
}

func versionLess(a, b version) bool {
	if c := bytes.Compare(a.key, b.key); c != 0 {
		return c < 0
	}
	return a.ts > b.ts
}

type lockEntry struct {
	key []byte
	ts  uint64
}

func lockLess(a, b lockEntry) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// Store is an in-memory mvcc.Engine.
type Store struct {
	mu     sync.RWMutex
	data   *btree.BTreeG[version]
	locks  *btree.BTreeG[lockEntry]
	closed bool
}

// Option configures the Store.
type Option func(*config)

type config struct {
	degree int
}

// WithDegree sets the B-tree degree.
func WithDegree(degree int) Option {
	return func(c *config) {
		if degree >= 2 {
			c.degree = degree
		}
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	cfg := config{degree: DefaultDegree}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Store{
		data:  btree.NewG(cfg.degree, versionLess),
		locks: btree.NewG(cfg.degree, lockLess),
	}
}

var _ mvcc.Engine = (*Store)(nil)

// Write applies muts at commitTS. Either all mutations are applied or none.
func (s *Store) Write(_ context.Context, commitTS uint64, muts []mvcc.Mutation) error {
	if commitTS == 0 {
		return mvcc.ErrInvalidTimestamp
	}
	for i, m := range muts {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("mutation %d: %w", i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return mvcc.ErrClosed
	}

	for _, m := range muts {
		key := append([]byte(nil), m.Key...)
		switch m.Op {
		case mvcc.OpPut:
			s.data.ReplaceOrInsert(version{key: key, ts: commitTS, value: append([]byte{}, m.Value...)})
		case mvcc.OpDelete:
			s.data.ReplaceOrInsert(version{key: key, ts: commitTS, deleted: true})
		case mvcc.OpLock:
			s.locks.ReplaceOrInsert(lockEntry{key: key, ts: commitTS})
		case mvcc.OpUnlock:
			s.locks.Delete(lockEntry{key: key})
		}
	}
	return nil
}

// NewIterator opens a snapshot view at readTS.
func (s *Store) NewIterator(readTS uint64, _ mvcc.IteratorOptions) (mvcc.Iterator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, mvcc.ErrClosed
	}
	// Clone needs exclusive access to the source tree.
	return &iterator{tree: s.data.Clone(), readTS: readTS}, nil
}

// FirstLock returns the first lock in [start, end) with a timestamp at or
// below maxTS.
func (s *Store) FirstLock(start, end []byte, maxTS uint64) (*mvcc.Lock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, mvcc.ErrClosed
	}

	var found *mvcc.Lock
	s.locks.AscendGreaterOrEqual(lockEntry{key: start}, func(l lockEntry) bool {
		if len(end) > 0 && bytes.Compare(l.key, end) >= 0 {
			return false
		}
		if l.ts <= maxTS {
			found = &mvcc.Lock{Key: append([]byte(nil), l.key...), TS: l.ts}
			return false
		}
		return true
	})
	return found, nil
}

// Stats returns storage statistics.
func (s *Store) Stats(_ context.Context) (*mvcc.KVStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, mvcc.ErrClosed
	}

	var size uint64
	s.data.Ascend(func(v version) bool {
		size += uint64(len(v.key) + len(v.value))
		return true
	})

	return &mvcc.KVStats{
		Backend:   "memory",
		Keys:      uint64(s.data.Len()),
		Locks:     uint64(s.locks.Len()),
		TotalSize: size,
	}, nil
}

// Close releases the trees. Open iterators keep working on their clone.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return mvcc.ErrClosed
	}
	s.closed = true
	s.data = btree.NewG(2, versionLess)
	s.locks = btree.NewG(2, lockLess)
	return nil
}

// iterator resolves the newest visible version per key on a cloned tree.
type iterator struct {
	tree   *btree.BTreeG[version]
	readTS uint64

	cur    version
	valid  bool
	closed bool
}

func (it *iterator) Seek(key []byte) {
	it.scanFrom(version{key: key, ts: math.MaxUint64})
}

func (it *iterator) Next() {
	if !it.valid {
		return
	}
	// key+0x00 is the smallest key sorting after cur.key.
	next := make([]byte, len(it.cur.key)+1)
	copy(next, it.cur.key)
	it.scanFrom(version{key: next, ts: math.MaxUint64})
}

func (it *iterator) scanFrom(pivot version) {
	it.valid = false
	if it.closed {
		return
	}

	var resolved []byte
	haveResolved := false
	it.tree.AscendGreaterOrEqual(pivot, func(v version) bool {
		if v.ts > it.readTS {
			return true
		}
		if haveResolved && bytes.Equal(v.key, resolved) {
			return true
		}
		if v.deleted {
			resolved, haveResolved = v.key, true
			return true
		}
		it.cur, it.valid = v, true
		return false
	})
}

func (it *iterator) Valid() bool {
	return it.valid
}

func (it *iterator) Key() []byte {
	if !it.valid {
		return nil
	}
	return it.cur.key
}

func (it *iterator) Value() ([]byte, error) {
	if it.closed {
		return nil, mvcc.ErrClosed
	}
	if !it.valid {
		return nil, fmt.Errorf("memory: value of invalid iterator")
	}
	return it.cur.value, nil
}

func (it *iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.valid = false
	it.tree = nil
	return nil
}
