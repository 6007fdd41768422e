package service

import (
	"errors"
	"fmt"

	"github.com/stevenberge/tikv/api/checksumpb"
	"github.com/stevenberge/tikv/internal/core/domain"
)

// ChecksumContext computes the XOR-of-CRC64 checksum of every visible pair
// in a list of key ranges. It is single use and not safe for concurrent use.
type ChecksumContext struct {
	req    domain.ChecksumRequest
	view   *StoreView
	ranges []domain.KeyRange
	cursor int

	// source is created lazily on the first range and reset for the rest.
	source RowSource
	bound  bool

	consumed bool

	encode func(domain.ChecksumResult) ([]byte, error)
}

// NewChecksumContext prepares a checksum over ranges read through snap at
// req.StartTS. No row source is opened until HandleRequest runs.
func NewChecksumContext(req domain.ChecksumRequest, ranges []domain.KeyRange, snap Snapshot, reqCtx ReqContext) *ChecksumContext {
	return &ChecksumContext{
		req:    req,
		view:   NewStoreView(snap, req.StartTS, reqCtx),
		ranges: ranges,
		encode: encodeChecksumResponse,
	}
}

// HandleRequest drains every range, folds each pair into the checksum and
// returns the encoded ChecksumResponse. metrics receives one range count
// per range and one statistics flush per exhausted range; it may be nil.
func (c *ChecksumContext) HandleRequest(metrics *ExecutorMetrics) (resp *domain.Response, err error) {
	if c.consumed {
		return nil, domain.ErrContextConsumed
	}
	c.consumed = true

	defer func() {
		if c.source == nil {
			return
		}
		if cerr := c.source.Close(); cerr != nil && err == nil {
			resp = nil
			err = domain.ErrScanFailure.WithDetails("close row source").WithCause(cerr)
		}
		c.source = nil
	}()

	if c.req.Algorithm != domain.AlgorithmCRC64XOR {
		return nil, domain.ErrUnsupportedAlgorithm.WithDetails(c.req.Algorithm.String())
	}

	if metrics == nil {
		metrics = &ExecutorMetrics{}
	}

	var result domain.ChecksumResult
	for {
		key, value, ok, err := c.nextRow(metrics)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		result.Checksum = domain.CRC64XOR(result.Checksum, key, value)
		result.TotalKVs++
		result.TotalBytes += uint64(len(key)) + uint64(len(value))
	}

	data, err := c.encode(result)
	if err != nil {
		return nil, domain.ErrEncodingFailure.WithCause(err)
	}
	return &domain.Response{Data: data}, nil
}

// nextRow advances the scan state machine. While a range is bound it pulls
// from the row source; when the range runs dry the statistics are flushed
// and the next range is bound in the same call.
func (c *ChecksumContext) nextRow(metrics *ExecutorMetrics) (key, value []byte, ok bool, err error) {
	for {
		if c.bound {
			key, value, ok, err = c.source.Next()
			if err != nil {
				return nil, nil, false, c.scanFailure(err)
			}
			if ok {
				return key, value, true, nil
			}
			c.source.CollectStatistics(&metrics.CFStats)
			metrics.Flushes++
			c.bound = false
		}

		if c.cursor >= len(c.ranges) {
			return nil, nil, false, nil
		}
		r := c.ranges[c.cursor]
		c.cursor++

		if c.source != nil {
			if err := c.source.Reset(r, c.view); err != nil {
				return nil, nil, false, c.scanFailure(err)
			}
		} else {
			if c.view.Snapshot == nil {
				return nil, nil, false, domain.ErrInvalidArgument.WithDetails("nil snapshot")
			}
			source, err := c.view.Snapshot.NewRowSource(c.view, c.req.ScanOn, r)
			if err != nil {
				return nil, nil, false, c.scanFailure(err)
			}
			c.source = source
		}
		c.bound = true
		metrics.ScanCounter.IncRange()
	}
}

func (c *ChecksumContext) scanFailure(err error) error {
	if errors.Is(err, domain.ErrScanFailure) {
		return err
	}
	details := fmt.Sprintf("range %d of %d", c.cursor, len(c.ranges))
	return domain.ErrScanFailure.WithDetails(details).WithCause(err)
}

func encodeChecksumResponse(r domain.ChecksumResult) ([]byte, error) {
	msg := checksumpb.ChecksumResponse{
		Checksum:   r.Checksum,
		TotalKVs:   r.TotalKVs,
		TotalBytes: r.TotalBytes,
	}
	return msg.Marshal()
}

// DecodeChecksumResponse parses a payload produced by HandleRequest.
func DecodeChecksumResponse(data []byte) (domain.ChecksumResult, error) {
	var msg checksumpb.ChecksumResponse
	if err := msg.Unmarshal(data); err != nil {
		return domain.ChecksumResult{}, err
	}
	return domain.ChecksumResult{
		Checksum:   msg.Checksum,
		TotalKVs:   msg.TotalKVs,
		TotalBytes: msg.TotalBytes,
	}, nil
}
