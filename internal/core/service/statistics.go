package service

import "fmt"

// ScanStatistics counts the work a row source did over a range.
type ScanStatistics struct {
	// Processed is the number of visible rows yielded.
	Processed uint64 `json:"processed_keys" yaml:"processed_keys"`
	// ProcessedBytes is the key and value bytes of the yielded rows.
	ProcessedBytes uint64 `json:"processed_bytes" yaml:"processed_bytes"`
	// Seek is the number of iterator seeks.
	Seek uint64 `json:"seek" yaml:"seek"`
	// Next is the number of iterator steps, including skipped versions.
	Next uint64 `json:"next" yaml:"next"`
}

// Add accumulates other into s.
func (s *ScanStatistics) Add(other ScanStatistics) {
	s.Processed += other.Processed
	s.ProcessedBytes += other.ProcessedBytes
	s.Seek += other.Seek
	s.Next += other.Next
}

// String implements fmt.Stringer.
func (s ScanStatistics) String() string {
	return fmt.Sprintf("processed=%d processed_bytes=%d seek=%d next=%d",
		s.Processed, s.ProcessedBytes, s.Seek, s.Next)
}

// ScanCounter counts ranges handed to a row source.
type ScanCounter struct {
	Range uint64 `json:"range" yaml:"range"`
}

// IncRange records one range.
func (c *ScanCounter) IncRange() {
	c.Range++
}

// ExecutorMetrics is the per-request metrics sink the engine writes into.
type ExecutorMetrics struct {
	ScanCounter ScanCounter    `json:"scan_counter" yaml:"scan_counter"`
	CFStats     ScanStatistics `json:"cf_stats" yaml:"cf_stats"`
	// Flushes counts statistics flushes, one per exhausted range.
	Flushes uint64 `json:"flushes" yaml:"flushes"`
}

// Merge adds other into m.
func (m *ExecutorMetrics) Merge(other *ExecutorMetrics) {
	if other == nil {
		return
	}
	m.ScanCounter.Range += other.ScanCounter.Range
	m.CFStats.Add(other.CFStats)
	m.Flushes += other.Flushes
}
