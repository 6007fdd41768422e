package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgress_Add(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgress(buf, "Loading")

	p.Add(1000, 2048)
	p.Add(500, 1024)

	if p.Rows() != 1500 {
		t.Errorf("Rows() = %d, want 1500", p.Rows())
	}
	output := buf.String()
	if !strings.Contains(output, "Loading 1500 rows (3.0 KB)") {
		t.Errorf("output = %q", output)
	}
}

func TestProgress_Finish(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgress(buf, "Loading")
	p.Add(3, 12)
	p.Finish()

	if !strings.HasSuffix(buf.String(), "Loading 3 rows (12 B)\n") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestProgress_NilWriter(t *testing.T) {
	p := NewProgress(nil, "quiet")
	p.Add(1, 1)
	p.Finish()
	if p.Rows() != 1 {
		t.Errorf("Rows() = %d", p.Rows())
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
		{1099511627776, "1.0 TB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.input); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
