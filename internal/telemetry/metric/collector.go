package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StorageStats is a point-in-time view of a storage backend.
type StorageStats struct {
	LSMBytes      int64
	ValueLogBytes int64
	Keys          int64
	Locks         int64
}

// StorageStatsSource is implemented by storage backends.
type StorageStatsSource interface {
	StorageStats() StorageStats
}

// Collector reports storage statistics at scrape time.
type Collector struct {
	source StorageStatsSource

	lsmBytes  *prometheus.Desc
	vlogBytes *prometheus.Desc
	keys      *prometheus.Desc
	locks     *prometheus.Desc
}

// NewCollector creates a collector for source labelled with backend.
func NewCollector(backend string, source StorageStatsSource) *Collector {
	labels := prometheus.Labels{"backend": backend}
	return &Collector{
		source: source,
		lsmBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "lsm_bytes"),
			"Size of the LSM tree in bytes.", nil, labels),
		vlogBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "value_log_bytes"),
			"Size of the value log in bytes.", nil, labels),
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "keys"),
			"Stored key versions.", nil, labels),
		locks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "locks"),
			"Outstanding locks.", nil, labels),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.lsmBytes
	ch <- c.vlogBytes
	ch <- c.keys
	ch <- c.locks
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.StorageStats()
	ch <- prometheus.MustNewConstMetric(c.lsmBytes, prometheus.GaugeValue, float64(s.LSMBytes))
	ch <- prometheus.MustNewConstMetric(c.vlogBytes, prometheus.GaugeValue, float64(s.ValueLogBytes))
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(s.Keys))
	ch <- prometheus.MustNewConstMetric(c.locks, prometheus.GaugeValue, float64(s.Locks))
}
