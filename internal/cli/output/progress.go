package output

import (
	"fmt"
	"io"
	"sync"
)

// Progress reports a running row count on a single terminal line.
type Progress struct {
	w     io.Writer
	title string
	rows  int64
	bytes int64
	mu    sync.Mutex
}

// NewProgress creates a progress line. A nil writer discards updates.
func NewProgress(w io.Writer, title string) *Progress {
	if w == nil {
		w = io.Discard
	}
	return &Progress{w: w, title: title}
}

// Add records n more rows carrying size bytes.
func (p *Progress) Add(n, size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows += n
	p.bytes += size
	p.render()
}

// Rows returns the rows recorded so far.
func (p *Progress) Rows() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rows
}

// Finish renders the final state and ends the line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render()
	fmt.Fprintln(p.w)
}

func (p *Progress) render() {
	fmt.Fprintf(p.w, "\r%s %d rows (%s)", p.title, p.rows, FormatBytes(p.bytes))
}

// FormatBytes formats bytes to a human readable string.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
