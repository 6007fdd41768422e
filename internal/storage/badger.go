package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/stevenberge/tikv/internal/storage/mvcc"
	"github.com/stevenberge/tikv/internal/telemetry/logger"
)

// Column families are emulated with a one byte key prefix.
const (
	cfWrite byte = 'w'
	cfLock  byte = 'l'
)

// BadgerEngine implements mvcc.Engine on Badger v3 in managed mode: every
// write carries an explicit commit timestamp and readers open
// transactions at their read timestamp.
type BadgerEngine struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger logger.Logger

	closed     atomic.Bool
	lastGCTime atomic.Int64 // Unix milliseconds

	// Shutdown
	stopCh chan struct{}
	doneCh chan struct{}
}

var _ mvcc.Engine = (*BadgerEngine)(nil)

// NewBadgerEngine opens (or creates) a managed Badger database in dir.
func NewBadgerEngine(dir string, cfg BadgerConfig, log logger.Logger) (*BadgerEngine, error) {
	if dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "badger")

	opts := badger.DefaultOptions(dir)
	opts.Logger = &badgerLogger{logger: log}
	opts.BlockCacheSize = cfg.CacheSize
	opts.ValueLogFileSize = cfg.ValueLogFileSize
	opts.NumMemtables = cfg.NumMemtables
	opts.NumLevelZeroTables = cfg.NumLevelZeroTables
	opts.NumLevelZeroTablesStall = cfg.NumLevelZeroTablesStall
	opts.SyncWrites = cfg.SyncWrites
	opts.DetectConflicts = false
	// Every committed version is a readable snapshot.
	opts.NumVersionsToKeep = math.MaxInt32

	db, err := badger.OpenManaged(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	engine := &BadgerEngine{
		db:     db,
		cfg:    cfg,
		logger: log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go engine.gcLoop()

	log.Info("badger engine started",
		"dir", dir,
		"cache_size", cfg.CacheSize,
		"gc_interval", cfg.GCInterval)

	return engine, nil
}

func prefixed(cf byte, key []byte) []byte {
	out := make([]byte, 0, len(key)+1)
	out = append(out, cf)
	return append(out, key...)
}

// Write applies muts at commitTS. Batches too large for one Badger
// transaction are committed in several pieces at the same timestamp. Such a
// batch is not atomic: readers at or above commitTS may see a prefix of it
// until Write returns. Readers below commitTS never see any of it.
func (e *BadgerEngine) Write(ctx context.Context, commitTS uint64, muts []mvcc.Mutation) error {
	if commitTS == 0 {
		return mvcc.ErrInvalidTimestamp
	}
	for i, m := range muts {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("mutation %d: %w", i, err)
		}
	}
	if e.closed.Load() {
		return mvcc.ErrClosed
	}

	txn := e.db.NewTransactionAt(math.MaxUint64, true)
	defer func() { txn.Discard() }()

	pieces := 1
	for _, m := range muts {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := applyMutation(txn, commitTS, m)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := txn.CommitAt(commitTS, nil); err != nil {
				return fmt.Errorf("badger: commit: %w", err)
			}
			txn = e.db.NewTransactionAt(math.MaxUint64, true)
			pieces++
			err = applyMutation(txn, commitTS, m)
		}
		if err != nil {
			return fmt.Errorf("badger: %s %x: %w", m.Op, m.Key, err)
		}
	}

	if err := txn.CommitAt(commitTS, nil); err != nil {
		return fmt.Errorf("badger: commit: %w", err)
	}
	if pieces > 1 {
		e.logger.Debug("large batch committed in pieces", "commit_ts", commitTS, "pieces", pieces, "mutations", len(muts))
	}
	return nil
}

func applyMutation(txn *badger.Txn, commitTS uint64, m mvcc.Mutation) error {
	switch m.Op {
	case mvcc.OpPut:
		return txn.Set(prefixed(cfWrite, m.Key), m.Value)
	case mvcc.OpDelete:
		return txn.Delete(prefixed(cfWrite, m.Key))
	case mvcc.OpLock:
		var ts [8]byte
		binary.BigEndian.PutUint64(ts[:], commitTS)
		return txn.Set(prefixed(cfLock, m.Key), ts[:])
	case mvcc.OpUnlock:
		return txn.Delete(prefixed(cfLock, m.Key))
	}
	return fmt.Errorf("unknown mutation %s", m.Op)
}

// NewIterator opens a read-only transaction at readTS. FillCache maps to
// value prefetching.
func (e *BadgerEngine) NewIterator(readTS uint64, opts mvcc.IteratorOptions) (mvcc.Iterator, error) {
	if e.closed.Load() {
		return nil, mvcc.ErrClosed
	}

	txn := e.db.NewTransactionAt(readTS, false)
	iopts := badger.DefaultIteratorOptions
	iopts.PrefetchValues = opts.FillCache
	iopts.Prefix = []byte{cfWrite}

	return &badgerIterator{txn: txn, it: txn.NewIterator(iopts)}, nil
}

// FirstLock returns the first current lock in [start, end) whose lock
// timestamp is at or below maxTS.
func (e *BadgerEngine) FirstLock(start, end []byte, maxTS uint64) (*mvcc.Lock, error) {
	if e.closed.Load() {
		return nil, mvcc.ErrClosed
	}

	var found *mvcc.Lock
	err := e.db.View(func(txn *badger.Txn) error {
		iopts := badger.DefaultIteratorOptions
		iopts.Prefix = []byte{cfLock}
		it := txn.NewIterator(iopts)
		defer it.Close()

		for it.Seek(prefixed(cfLock, start)); it.Valid(); it.Next() {
			item := it.Item()
			key := item.Key()[1:]
			if len(end) > 0 && bytes.Compare(key, end) >= 0 {
				return nil
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if len(v) != 8 {
				return fmt.Errorf("badger: corrupt lock on %x", key)
			}
			if ts := binary.BigEndian.Uint64(v); ts <= maxTS {
				found = &mvcc.Lock{Key: append([]byte(nil), key...), TS: ts}
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Stats returns storage statistics. Keys counts versions in flushed tables
// only, so it lags recent writes.
func (e *BadgerEngine) Stats(ctx context.Context) (*mvcc.KVStats, error) {
	if e.closed.Load() {
		return nil, mvcc.ErrClosed
	}

	lsm, vlog := e.db.Size()
	stats := &mvcc.KVStats{
		Backend:      "badger",
		TotalSize:    uint64(lsm + vlog),
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   e.lastGCTime.Load(),
	}
	for _, t := range e.db.Tables() {
		stats.Keys += uint64(t.KeyCount)
	}

	err := e.db.View(func(txn *badger.Txn) error {
		iopts := badger.DefaultIteratorOptions
		iopts.PrefetchValues = false
		iopts.Prefix = []byte{cfLock}
		it := txn.NewIterator(iopts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			stats.Locks++
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// GC runs value log garbage collection until nothing more is rewritten.
// It returns the number of rewritten value log files.
func (e *BadgerEngine) GC(ctx context.Context) (int, error) {
	startTime := time.Now()

	rewrites := 0
	for ctx.Err() == nil {
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return rewrites, fmt.Errorf("gc: %w", err)
		}
		rewrites++
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	e.logger.Info("gc completed",
		"rewrites", rewrites,
		"elapsed", time.Since(startTime))

	return rewrites, nil
}

// Close gracefully shuts down the Badger engine.
func (e *BadgerEngine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return mvcc.ErrClosed
	}
	e.logger.Info("shutting down badger engine")

	close(e.stopCh)
	<-e.doneCh

	if err := e.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	e.logger.Info("badger engine shutdown complete")
	return nil
}

// gcLoop runs periodic garbage collection. A zero or invalid interval
// disables it.
func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)

	interval, err := time.ParseDuration(e.cfg.GCInterval)
	if err != nil || interval <= 0 {
		if err != nil && e.cfg.GCInterval != "" {
			e.logger.Warn("invalid gc_interval, automatic gc disabled", "error", err)
		}
		<-e.stopCh
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := e.GC(ctx); err != nil {
				e.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-e.stopCh:
			return
		}
	}
}

// badgerIterator strips the column family prefix from keys.
type badgerIterator struct {
	txn *badger.Txn
	it  *badger.Iterator
	buf []byte

	closed bool
}

func (i *badgerIterator) Seek(key []byte) {
	i.it.Seek(prefixed(cfWrite, key))
}

func (i *badgerIterator) Valid() bool {
	return !i.closed && i.it.Valid()
}

func (i *badgerIterator) Key() []byte {
	return i.it.Item().Key()[1:]
}

func (i *badgerIterator) Value() ([]byte, error) {
	if i.closed {
		return nil, mvcc.ErrClosed
	}
	var err error
	i.buf, err = i.it.Item().ValueCopy(i.buf[:0])
	return i.buf, err
}

func (i *badgerIterator) Next() {
	i.it.Next()
}

func (i *badgerIterator) Close() error {
	if i.closed {
		return nil
	}
	i.closed = true
	i.it.Close()
	i.txn.Discard()
	return nil
}

// badgerLogger adapts Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// Badger reports every compaction and flush at info.
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
