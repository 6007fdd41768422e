package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactSensitive(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"key bytes as hex", slog.Any("start_key", []byte("k1")), "6b31"},
		{"empty key", slog.Any("end_key", []byte{}), ""},
		{"value bytes masked", slog.Any("value", []byte("secret-row")), "***REDACTED***(10 bytes)"},
		{"value string masked", slog.String("raw_value", "v1"), "***REDACTED***"},
		{"empty value string kept", slog.String("value", ""), ""},
		{"password masked", slog.String("Password", "hunter2"), "***REDACTED***"},
		{"normal string kept", slog.String("range", "[6b31, +inf)"), "[6b31, +inf)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redactSensitive(tt.attr)
			if got.Value.String() != tt.want {
				t.Errorf("redactSensitive(%v) = %q, want %q", tt.attr, got.Value.String(), tt.want)
			}
		})
	}
}

func TestRedactSensitive_NonStringKept(t *testing.T) {
	a := redactSensitive(slog.Int("value_count", 7))
	if a.Value.Int64() != 7 {
		t.Errorf("int attribute changed: %v", a)
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	a := slog.Group("row", slog.Any("key", []byte{0xff}), slog.Any("value", []byte("x")))
	got := redactSensitive(a)

	attrs := got.Value.Group()
	if len(attrs) != 2 {
		t.Fatalf("group has %d attrs, want 2", len(attrs))
	}
	if attrs[0].Value.String() != "ff" {
		t.Errorf("key = %q, want ff", attrs[0].Value.String())
	}
	if !strings.HasPrefix(attrs[1].Value.String(), redactedValue) {
		t.Errorf("value = %q, want redacted", attrs[1].Value.String())
	}
}

func TestRedactKey(t *testing.T) {
	long := bytes.Repeat([]byte{0xab}, 20)
	tests := []struct {
		name string
		key  []byte
		want string
	}{
		{"nil", nil, ""},
		{"short", []byte("k1"), "6b31"},
		{"exact limit", bytes.Repeat([]byte{0x01}, maxKeyBytes), strings.Repeat("01", maxKeyBytes)},
		{"truncated", long, strings.Repeat("ab", maxKeyBytes) + "...(20 bytes)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactKey(tt.key); got != tt.want {
				t.Errorf("RedactKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"value", true},
		{"row_value", true},
		{"VALUE", true},
		{"secret", true},
		{"key", false},
		{"start_key", false},
		{"checksum", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := IsSensitiveKey(tt.key); got != tt.want {
				t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestLogger_RedactsRowData(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("row", "key", []byte("k1"), "value", []byte("v1"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if entry["key"] != "6b31" {
		t.Errorf("key = %v, want 6b31", entry["key"])
	}
	if v, _ := entry["value"].(string); !strings.HasPrefix(v, redactedValue) {
		t.Errorf("value = %v, want redacted", entry["value"])
	}
}
