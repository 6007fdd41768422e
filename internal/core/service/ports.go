package service

import (
	"github.com/stevenberge/tikv/internal/core/domain"
)

// ReqContext carries the request scoped read options that are not part of
// the checksum request itself.
type ReqContext struct {
	// Isolation selects snapshot isolation (reads at start_ts, locks are
	// errors) or read committed (latest committed version, locks ignored).
	Isolation domain.IsolationLevel

	// FillCache lets the backend populate its block and value caches while
	// scanning. Bulk verification scans usually turn it off.
	FillCache bool

	// StrictLayout rejects keys that do not match the table or index key
	// layout implied by ScanOn.
	StrictLayout bool
}

// DefaultReqContext returns the options used when the caller has none.
func DefaultReqContext() ReqContext {
	return ReqContext{
		Isolation: domain.IsolationSI,
		FillCache: true,
	}
}

// StoreView is a snapshot scoped view at a fixed read timestamp.
type StoreView struct {
	Snapshot     Snapshot
	StartTS      uint64
	Isolation    domain.IsolationLevel
	FillCache    bool
	StrictLayout bool
}

// NewStoreView builds the view a checksum request reads through.
func NewStoreView(snap Snapshot, startTS uint64, reqCtx ReqContext) *StoreView {
	return &StoreView{
		Snapshot:     snap,
		StartTS:      startTS,
		Isolation:    reqCtx.Isolation,
		FillCache:    reqCtx.FillCache,
		StrictLayout: reqCtx.StrictLayout,
	}
}

// Snapshot is a consistent, read-only view of the key space.
//
// Implementations must be safe for concurrent use when they are shared
// across requests; a single request only ever holds one row source.
type Snapshot interface {
	// NewRowSource binds a row source over r as seen through view.
	NewRowSource(view *StoreView, scanOn domain.ScanOn, r domain.KeyRange) (RowSource, error)
}

// RowSource yields the visible key/value pairs of one range at a time.
type RowSource interface {
	// Next returns the next pair in the bound range. ok is false once the
	// range is exhausted. Returned slices stay valid until the next call.
	Next() (key, value []byte, ok bool, err error)

	// Reset rebinds the source to a new range, possibly under a new view,
	// and clears its per-range statistics.
	Reset(r domain.KeyRange, view *StoreView) error

	// CollectStatistics adds the statistics of the current range into into.
	CollectStatistics(into *ScanStatistics)

	// Close releases the underlying iterator and transaction.
	Close() error
}
