// Package metric provides Prometheus metrics for kvsum.
//
//   - prometheus.go: registry, checksum request and scan metrics, exposition
//   - collector.go: scrape-time collector for storage backend statistics
//
// A Registry owns its own prometheus.Registry so tests and short lived CLI
// runs never share state through the default registerer.
package metric
