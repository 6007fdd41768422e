package storage

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/stevenberge/tikv/internal/core/domain"
	"github.com/stevenberge/tikv/internal/core/service"
	"github.com/stevenberge/tikv/internal/storage/mvcc"
	"github.com/stevenberge/tikv/internal/storage/tablecodec"
)

// Scan errors.
var (
	ErrKeyIsLocked = errors.New("key is locked")
	ErrKeyLayout   = tablecodec.ErrKeyLayout
	ErrClosed      = mvcc.ErrClosed
)

// LockedError reports a lock that blocks a snapshot read.
type LockedError struct {
	Key    []byte
	LockTS uint64
	ReadTS uint64
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("key %x is locked at ts %d, read ts %d", e.Key, e.LockTS, e.ReadTS)
}

// Is reports ErrKeyIsLocked.
func (e *LockedError) Is(target error) bool {
	return target == ErrKeyIsLocked
}

// Scanner is a service.RowSource over one key range of an mvcc.Engine.
// It keeps its iterator across Reset calls while the read timestamp and
// cache policy stay the same.
type Scanner struct {
	engine mvcc.Engine
	scanOn domain.ScanOn

	rng       domain.KeyRange
	readTS    uint64
	fillCache bool
	isolation domain.IsolationLevel
	strict    bool

	it        mvcc.Iterator
	started   bool
	exhausted bool
	closed    bool

	stats service.ScanStatistics
}

var _ service.RowSource = (*Scanner)(nil)

// NewScanner binds a scanner to r under view.
func NewScanner(engine mvcc.Engine, view *service.StoreView, scanOn domain.ScanOn, r domain.KeyRange) (*Scanner, error) {
	if engine == nil {
		return nil, domain.ErrInvalidArgument.WithDetails("nil engine")
	}
	s := &Scanner{engine: engine, scanOn: scanOn}
	if err := s.Reset(r, view); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// ReadTimestamp is the version bound a view reads at: start_ts under
// snapshot isolation, the newest committed version under read committed.
func ReadTimestamp(view *service.StoreView) uint64 {
	if view.Isolation == domain.IsolationRC {
		return math.MaxUint64
	}
	return view.StartTS
}

// Reset rebinds the scanner to r and clears its statistics. Under snapshot
// isolation a lock in r at or below the read timestamp fails the reset.
func (s *Scanner) Reset(r domain.KeyRange, view *service.StoreView) error {
	if s.closed {
		return ErrClosed
	}
	if view == nil {
		return domain.ErrInvalidArgument.WithDetails("nil store view")
	}
	if err := r.Validate(); err != nil {
		return err
	}

	readTS := ReadTimestamp(view)
	if s.it == nil || readTS != s.readTS || view.FillCache != s.fillCache {
		if s.it != nil {
			s.it.Close()
			s.it = nil
		}
		it, err := s.engine.NewIterator(readTS, mvcc.IteratorOptions{FillCache: view.FillCache})
		if err != nil {
			return err
		}
		s.it = it
		s.readTS = readTS
		s.fillCache = view.FillCache
	}

	s.rng = r
	s.isolation = view.Isolation
	s.strict = view.StrictLayout
	s.started = false
	s.exhausted = false
	s.stats = service.ScanStatistics{}

	if s.isolation == domain.IsolationSI {
		lock, err := s.engine.FirstLock(r.Start, r.End, readTS)
		if err != nil {
			return err
		}
		if lock != nil {
			return &LockedError{Key: lock.Key, LockTS: lock.TS, ReadTS: readTS}
		}
	}
	return nil
}

// Next returns the next visible pair in the bound range.
func (s *Scanner) Next() ([]byte, []byte, bool, error) {
	if s.closed {
		return nil, nil, false, ErrClosed
	}
	if s.exhausted {
		return nil, nil, false, nil
	}

	if !s.started {
		s.it.Seek(s.rng.Start)
		s.stats.Seek++
		s.started = true
	} else {
		s.it.Next()
		s.stats.Next++
	}

	if !s.it.Valid() {
		s.exhausted = true
		return nil, nil, false, nil
	}
	key := s.it.Key()
	if !s.rng.Unbounded() && bytes.Compare(key, s.rng.End) >= 0 {
		s.exhausted = true
		return nil, nil, false, nil
	}
	if s.strict {
		if err := tablecodec.CheckLayout(s.scanOn, key); err != nil {
			return nil, nil, false, err
		}
	}

	value, err := s.it.Value()
	if err != nil {
		return nil, nil, false, fmt.Errorf("read value of %x: %w", key, err)
	}
	s.stats.Processed++
	s.stats.ProcessedBytes += uint64(len(key)) + uint64(len(value))
	return key, value, true, nil
}

// CollectStatistics adds the statistics of the bound range into into.
func (s *Scanner) CollectStatistics(into *service.ScanStatistics) {
	into.Add(s.stats)
}

// Close releases the iterator. It is safe to call more than once.
func (s *Scanner) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.it == nil {
		return nil
	}
	err := s.it.Close()
	s.it = nil
	return err
}
