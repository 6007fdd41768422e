package metric

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"

	"github.com/stevenberge/tikv/internal/core/domain"
	"github.com/stevenberge/tikv/internal/core/service"
)

const namespace = "kvsum"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Request metrics
	ChecksumRequests *prometheus.CounterVec
	ChecksumDuration *prometheus.HistogramVec
	ChecksumKVs      prometheus.Counter
	ChecksumBytes    prometheus.Counter

	// Scan metrics, fed from per-request ExecutorMetrics
	ScanRanges         prometheus.Counter
	ScanProcessedKeys  prometheus.Counter
	ScanProcessedBytes prometheus.Counter
	ScanSeeks          prometheus.Counter
	ScanNexts          prometheus.Counter

	// Load metrics
	LoadedRows prometheus.Counter
}

// NewRegistry creates a new metrics registry with Go runtime and process
// collectors preinstalled.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		ChecksumRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checksum_requests_total",
			Help:      "Checksum requests by scan target and result code.",
		}, []string{"scan_on", "result"}),
		ChecksumDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checksum_request_duration_seconds",
			Help:      "Wall time of a checksum request.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"scan_on"}),
		ChecksumKVs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checksum_kvs_total",
			Help:      "Pairs folded into successful checksums.",
		}),
		ChecksumBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checksum_bytes_total",
			Help:      "Key and value bytes folded into successful checksums.",
		}),
		ScanRanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "ranges_total",
			Help:      "Key ranges bound to a row source.",
		}),
		ScanProcessedKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "processed_keys_total",
			Help:      "Visible rows yielded by row sources.",
		}),
		ScanProcessedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "processed_bytes_total",
			Help:      "Key and value bytes yielded by row sources.",
		}),
		ScanSeeks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "seek_total",
			Help:      "Iterator seeks.",
		}),
		ScanNexts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "next_total",
			Help:      "Iterator steps including skipped versions.",
		}),
		LoadedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loaded_rows_total",
			Help:      "Rows written by the fixture loader.",
		}),
	}

	reg.MustRegister(
		r.ChecksumRequests,
		r.ChecksumDuration,
		r.ChecksumKVs,
		r.ChecksumBytes,
		r.ScanRanges,
		r.ScanProcessedKeys,
		r.ScanProcessedBytes,
		r.ScanSeeks,
		r.ScanNexts,
		r.LoadedRows,
	)
	return r
}

// Register adds extra collectors, such as a storage Collector.
func (r *Registry) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := r.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Gatherer exposes the underlying registry for exposition and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveChecksum records one finished checksum request. result is only
// counted when err is nil.
func (r *Registry) ObserveChecksum(scanOn domain.ScanOn, result domain.ChecksumResult, m *service.ExecutorMetrics, elapsed time.Duration, err error) {
	code := "ok"
	if err != nil {
		code = domain.GetErrorCode(err)
		if code == "" {
			code = "unknown"
		}
	}
	label := scanOn.String()
	r.ChecksumRequests.WithLabelValues(label, code).Inc()
	r.ChecksumDuration.WithLabelValues(label).Observe(elapsed.Seconds())

	if err == nil {
		r.ChecksumKVs.Add(float64(result.TotalKVs))
		r.ChecksumBytes.Add(float64(result.TotalBytes))
	}

	if m == nil {
		return
	}
	r.ScanRanges.Add(float64(m.ScanCounter.Range))
	r.ScanProcessedKeys.Add(float64(m.CFStats.Processed))
	r.ScanProcessedBytes.Add(float64(m.CFStats.ProcessedBytes))
	r.ScanSeeks.Add(float64(m.CFStats.Seek))
	r.ScanNexts.Add(float64(m.CFStats.Next))
}

// AddLoadedRows counts rows written by the loader.
func (r *Registry) AddLoadedRows(n int) {
	r.LoadedRows.Add(float64(n))
}

// WriteText writes every gathered family in the Prometheus text format.
func (r *Registry) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
