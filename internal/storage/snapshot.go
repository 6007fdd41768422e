package storage

import (
	"context"

	"github.com/stevenberge/tikv/internal/core/domain"
	"github.com/stevenberge/tikv/internal/core/service"
	"github.com/stevenberge/tikv/internal/storage/mvcc"
	"github.com/stevenberge/tikv/internal/telemetry/metric"
)

// Snapshot exposes an engine as a service.Snapshot. Every row source it
// creates reads at the timestamp of the view it is bound with.
type Snapshot struct {
	engine mvcc.Engine
}

var _ service.Snapshot = (*Snapshot)(nil)

// NewSnapshot wraps engine.
func NewSnapshot(engine mvcc.Engine) *Snapshot {
	return &Snapshot{engine: engine}
}

// NewRowSource implements service.Snapshot.
func (s *Snapshot) NewRowSource(view *service.StoreView, scanOn domain.ScanOn, r domain.KeyRange) (service.RowSource, error) {
	sc, err := NewScanner(s.engine, view, scanOn, r)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// StatsSource adapts an engine to metric.StorageStatsSource. Stats errors
// report zeros.
type StatsSource struct {
	Engine mvcc.Engine
}

// StorageStats implements metric.StorageStatsSource.
func (s StatsSource) StorageStats() metric.StorageStats {
	st, err := s.Engine.Stats(context.Background())
	if err != nil {
		return metric.StorageStats{}
	}
	return metric.StorageStats{
		LSMBytes:      int64(st.LSMSize),
		ValueLogBytes: int64(st.ValueLogSize),
		Keys:          int64(st.Keys),
		Locks:         int64(st.Locks),
	}
}
