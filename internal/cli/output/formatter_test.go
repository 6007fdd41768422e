package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	if _, ok := NewFormatter("unknown").(*TableFormatter); !ok {
		t.Error("expected TableFormatter as default")
	}
}

type result struct {
	Checksum   uint64 `json:"checksum" yaml:"checksum"`
	TotalKVs   uint64 `json:"total_kvs" yaml:"total_kvs"`
	TotalBytes uint64 `json:"total_bytes" yaml:"total_bytes"`
}

func TestJSONFormatter_Format(t *testing.T) {
	data := result{Checksum: 7595052514261542177, TotalKVs: 1, TotalBytes: 4}

	t.Run("indented", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (&JSONFormatter{}).Format(&buf, data); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if !strings.Contains(buf.String(), `"total_kvs": 1`) {
			t.Errorf("output = %s", buf.String())
		}
	})

	t.Run("compact", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (&JSONFormatter{Compact: true}).Format(&buf, data); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		want := `{"checksum":7595052514261542177,"total_kvs":1,"total_bytes":4}` + "\n"
		if buf.String() != want {
			t.Errorf("output = %q, want %q", buf.String(), want)
		}
	})

	t.Run("nil", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (&JSONFormatter{}).Format(&buf, nil); err != nil {
			t.Fatalf("Format(nil) error = %v", err)
		}
		if strings.TrimSpace(buf.String()) != "null" {
			t.Errorf("Format(nil) = %q, want 'null'", buf.String())
		}
	})
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	data := result{Checksum: 1, TotalKVs: 2, TotalBytes: 3}
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "checksum: 1\ntotal_kvs: 2\ntotal_bytes: 3\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}
