package service

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stevenberge/tikv/api/checksumpb"
	"github.com/stevenberge/tikv/internal/core/domain"
	"github.com/stevenberge/tikv/internal/telemetry/logger"
)

// MetricsRecorder receives one observation per finished request.
type MetricsRecorder interface {
	ObserveChecksum(scanOn domain.ScanOn, result domain.ChecksumResult, m *ExecutorMetrics, elapsed time.Duration, err error)
}

// ChecksumOutcome is everything a caller may want to report about a
// finished request.
type ChecksumOutcome struct {
	RequestID string                 `json:"request_id" yaml:"request_id"`
	Result    domain.ChecksumResult  `json:"result" yaml:"result"`
	Metrics   ExecutorMetrics        `json:"metrics" yaml:"metrics"`
	Elapsed   time.Duration          `json:"elapsed" yaml:"elapsed"`
	Response  *domain.Response       `json:"-" yaml:"-"`
	Request   domain.ChecksumRequest `json:"-" yaml:"-"`
}

// ChecksumService runs checksum requests against a shared snapshot source.
// It is safe for concurrent use when the snapshot is.
type ChecksumService struct {
	snapshot Snapshot
	recorder MetricsRecorder
	newID    func() string
	now      func() time.Time
}

// ServiceOption configures a ChecksumService.
type ServiceOption func(*ChecksumService)

// WithRecorder sets the metrics recorder.
func WithRecorder(r MetricsRecorder) ServiceOption {
	return func(s *ChecksumService) {
		s.recorder = r
	}
}

// WithIDGenerator overrides request ID generation.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *ChecksumService) {
		s.newID = fn
	}
}

// NewChecksumService creates a service reading through snap.
func NewChecksumService(snap Snapshot, opts ...ServiceOption) *ChecksumService {
	s := &ChecksumService{
		snapshot: snap,
		newID:    func() string { return ulid.Make().String() },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle validates the ranges, runs one checksum request to completion and
// decodes the result. ctx is only checked before the scan starts; the
// engine itself never blocks on it.
func (s *ChecksumService) Handle(ctx context.Context, req domain.ChecksumRequest, ranges []domain.KeyRange, reqCtx ReqContext) (*ChecksumOutcome, error) {
	out := &ChecksumOutcome{RequestID: s.newID(), Request: req}
	ctx = logger.WithRequestID(ctx, out.RequestID)
	log := logger.L(ctx).With(
		"start_ts", req.StartTS,
		"scan_on", req.ScanOn.String(),
		"ranges", len(ranges),
		"isolation", reqCtx.Isolation.String(),
	)

	if s.snapshot == nil {
		return nil, domain.ErrInvalidArgument.WithDetails("no snapshot configured")
	}
	// An unsupported algorithm is left to the engine, which rejects it
	// before looking at any range.
	if req.Algorithm == domain.AlgorithmCRC64XOR {
		for i, r := range ranges {
			if err := r.Validate(); err != nil {
				log.Warn("rejecting checksum request", "range_index", i, "error", err)
				return nil, err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := s.now()
	log.Debug("checksum started")

	engine := NewChecksumContext(req, ranges, s.snapshot, reqCtx)
	resp, err := engine.HandleRequest(&out.Metrics)
	out.Elapsed = s.now().Sub(started)
	if err == nil {
		out.Response = resp
		out.Result, err = DecodeChecksumResponse(resp.Data)
		if err != nil {
			err = domain.ErrEncodingFailure.WithDetails("decode own payload").WithCause(err)
		}
	}

	if s.recorder != nil {
		s.recorder.ObserveChecksum(req.ScanOn, out.Result, &out.Metrics, out.Elapsed, err)
	}

	if err != nil {
		log.Error("checksum failed",
			"error", err,
			"code", domain.GetErrorCode(err),
			"elapsed", out.Elapsed,
		)
		return nil, err
	}

	log.Info("checksum finished",
		"checksum", out.Result.Checksum,
		"total_kvs", out.Result.TotalKVs,
		"total_bytes", out.Result.TotalBytes,
		"scanned_ranges", out.Metrics.ScanCounter.Range,
		"elapsed", out.Elapsed,
	)
	return out, nil
}

// HandleWire decodes a wire ChecksumRequest, runs it and returns the
// encoded Response envelope. Failures are reported in the envelope's
// other_error field and also returned.
func (s *ChecksumService) HandleWire(ctx context.Context, payload []byte, ranges []domain.KeyRange, reqCtx ReqContext) ([]byte, error) {
	var wire checksumpb.ChecksumRequest
	if err := wire.Unmarshal(payload); err != nil {
		return errorEnvelope(domain.ErrInvalidArgument.WithDetails("checksum request").WithCause(err))
	}

	req := domain.ChecksumRequest{
		Algorithm: domain.ChecksumAlgorithm(wire.Algorithm),
		ScanOn:    domain.ScanOn(wire.ScanOn),
		StartTS:   wire.StartTS,
	}
	out, err := s.Handle(ctx, req, ranges, reqCtx)
	if err != nil {
		return errorEnvelope(err)
	}

	env := checksumpb.Response{Data: out.Response.Data}
	b, err := env.Marshal()
	if err != nil {
		return nil, domain.ErrEncodingFailure.WithCause(err)
	}
	return b, nil
}

func errorEnvelope(cause error) ([]byte, error) {
	env := checksumpb.Response{OtherError: cause.Error()}
	b, err := env.Marshal()
	if err != nil {
		return nil, domain.ErrEncodingFailure.WithCause(err)
	}
	return b, cause
}
