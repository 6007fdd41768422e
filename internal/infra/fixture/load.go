package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/stevenberge/tikv/internal/storage/mvcc"
	"github.com/stevenberge/tikv/internal/telemetry/logger"
)

// DefaultBatchSize is the number of rows written per engine call.
const DefaultBatchSize = 1000

// LoadOptions controls Load.
type LoadOptions struct {
	// CommitTS is the timestamp every row is committed at.
	CommitTS uint64
	// Hex decodes keys and values from hex.
	Hex bool
	// BatchSize is the number of rows per write. Zero means the default.
	BatchSize int
	// OnBatch is called after each written batch with its row count and
	// key plus value bytes.
	OnBatch func(rows int, bytes uint64)
}

// LoadResult summarizes a load.
type LoadResult struct {
	Rows    int    `json:"rows" yaml:"rows"`
	Batches int    `json:"batches" yaml:"batches"`
	Bytes   uint64 `json:"bytes" yaml:"bytes"`
}

// Load writes every row of r into engine at opts.CommitTS. Rows already
// written stay committed when a later batch fails.
func Load(ctx context.Context, engine mvcc.Engine, r *Reader, opts LoadOptions) (LoadResult, error) {
	var res LoadResult
	if opts.CommitTS == 0 {
		return res, mvcc.ErrInvalidTimestamp
	}
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	log := logger.L(ctx).With("commit_ts", opts.CommitTS)

	batch := make([]mvcc.Mutation, 0, size)
	var batchBytes uint64
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := engine.Write(ctx, opts.CommitTS, batch); err != nil {
			return fmt.Errorf("fixture: write batch %d: %w", res.Batches+1, err)
		}
		res.Batches++
		res.Rows += len(batch)
		res.Bytes += batchBytes
		if opts.OnBatch != nil {
			opts.OnBatch(len(batch), batchBytes)
		}
		log.Debug("batch written", "rows", len(batch), "line", r.Line())
		batch = batch[:0]
		batchBytes = 0
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}
		m, err := row.Mutation(opts.Hex)
		if err != nil {
			return res, fmt.Errorf("fixture: line %d: %w", r.Line(), err)
		}
		batchBytes += uint64(len(m.Key) + len(m.Value))
		batch = append(batch, m)
		if len(batch) == size {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := flush(); err != nil {
		return res, err
	}

	log.Info("fixture loaded", "rows", res.Rows, "batches", res.Batches)
	return res, nil
}
