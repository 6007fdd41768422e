package command

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stevenberge/tikv/internal/core/domain"
	"github.com/stevenberge/tikv/internal/core/service"
	"github.com/stevenberge/tikv/internal/infra/fixture"
	"github.com/stevenberge/tikv/internal/storage"
	"github.com/stevenberge/tikv/internal/storage/tablecodec"
)

const rows = `{"key":"k1","value":"v1"}
{"key":"k2","value":"v2"}
{"key":"k3","value":"v3"}
`

// run executes the app and captures its output.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	app := App()
	var stdout, stderr bytes.Buffer
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"kvsum", "--log-level", "error"}, args...))
	return stdout.String(), stderr.String(), err
}

// seeded loads content at commit ts 5 into a fresh badger directory.
func seeded(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "rows.jsonl")
	if err := os.WriteFile(input, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := run(t, "--data-dir", dir, "load", "-i", input, "--commit-ts", "5", "-q", "-o", "json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var res fixture.LoadResult
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("load output %q: %v", stdout, err)
	}
	if res.Rows != strings.Count(content, "\n") {
		t.Fatalf("loaded %d rows", res.Rows)
	}
	return dir
}

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "kvsum" {
		t.Errorf("Name = %q, want %q", app.Name, "kvsum")
	}

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, name := range []string{"load", "checksum", "combine", "stats", "version"} {
		if !names[name] {
			t.Errorf("missing command: %s", name)
		}
	}

	flags := make(map[string]bool)
	for _, f := range app.Flags {
		flags[f.Names()[0]] = true
	}
	for _, name := range []string{"config", "data-dir", "backend", "log-level", "log-format", "log-backend", "metrics", "metrics-file"} {
		if !flags[name] {
			t.Errorf("missing global flag: %s", name)
		}
	}
}

func TestChecksum_EndToEnd(t *testing.T) {
	dir := seeded(t, rows)

	tests := []struct {
		name string
		args []string
		want domain.ChecksumResult
	}{
		{"all", nil, domain.ChecksumResult{Checksum: 0xe58d918bc7356f85, TotalKVs: 3, TotalBytes: 12}},
		{"one range", []string{"--range", "k1:k2"}, domain.ChecksumResult{Checksum: 0x69a83c7f55f85d21, TotalKVs: 1, TotalBytes: 4}},
		{"hex ranges", []string{"--hex", "--range", "6b33:", "--range", ":6b32"}, domain.ChecksumResult{Checksum: 0x69a83c7f55f85d21 ^ 0xe33bc8bddf6c26ec, TotalKVs: 2, TotalBytes: 8}},
		{"before commit", []string{"--start-ts", "4"}, domain.ChecksumResult{}},
		{"read committed", []string{"--start-ts", "1", "--isolation", "rc", "--no-fill-cache"}, domain.ChecksumResult{Checksum: 0xe58d918bc7356f85, TotalKVs: 3, TotalBytes: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []string{"--data-dir", dir, "checksum", "-o", "json"}
			if !containsFlag(tt.args, "--start-ts") {
				args = append(args, "--start-ts", "10")
			}
			stdout, _, err := run(t, append(args, tt.args...)...)
			if err != nil {
				t.Fatal(err)
			}

			var out service.ChecksumOutcome
			if err := json.Unmarshal([]byte(stdout), &out); err != nil {
				t.Fatalf("output %q: %v", stdout, err)
			}
			if out.Result != tt.want {
				t.Errorf("result = %s, want %s", out.Result, tt.want)
			}
			if out.RequestID == "" {
				t.Error("request id missing")
			}
		})
	}
}

func containsFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func TestChecksum_TableAndRaw(t *testing.T) {
	dir := seeded(t, `{"key":"k1","value":"v1"}`+"\n")

	stdout, _, err := run(t, "--data-dir", dir, "checksum", "--start-ts", "10")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"checksum", "0x69a83c7f55f85d21", "total_kvs", "total_bytes", "request_id"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("table output missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = run(t, "--data-dir", dir, "checksum", "--start-ts", "10", "--raw")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(stdout); got != "0a0e08a1bae1aff58f8fd46910011804" {
		t.Errorf("raw envelope = %s", got)
	}
}

func TestChecksum_Locked(t *testing.T) {
	dir := seeded(t, rows+`{"key":"k2","op":"lock"}`+"\n")

	_, _, err := run(t, "--data-dir", dir, "checksum", "--start-ts", "10")
	if !errors.Is(err, domain.ErrScanFailure) || !errors.Is(err, storage.ErrKeyIsLocked) {
		t.Errorf("err = %v, want scan failure on a locked key", err)
	}

	_, _, err = run(t, "--data-dir", dir, "checksum", "--start-ts", "10", "--range", "k3:")
	if err != nil {
		t.Errorf("range without the lock: %v", err)
	}
}

func TestChecksum_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"missing start ts", []string{"checksum"}, nil},
		{"range and table", []string{"checksum", "--start-ts", "1", "--range", "a:b", "--table-id", "1"}, domain.ErrInvalidArgument},
		{"index without table", []string{"checksum", "--start-ts", "1", "--index-id", "1"}, domain.ErrInvalidArgument},
		{"index scan over table records", []string{"checksum", "--start-ts", "1", "--table-id", "1", "--scan-on", "index"}, domain.ErrInvalidArgument},
		{"table scan over index", []string{"checksum", "--start-ts", "1", "--table-id", "1", "--index-id", "2", "--scan-on", "table"}, domain.ErrInvalidArgument},
		{"colon in raw range", []string{"checksum", "--start-ts", "1", "--range", "a:b:c"}, domain.ErrInvalidArgument},
		{"bad range", []string{"checksum", "--start-ts", "1", "--range", "nocolon"}, domain.ErrInvalidArgument},
		{"inverted range", []string{"checksum", "--start-ts", "1", "--range", "z:a"}, domain.ErrInvalidRange},
		{"unsupported algorithm", []string{"checksum", "--start-ts", "1", "--algorithm", "md5"}, domain.ErrUnsupportedAlgorithm},
		{"bad isolation", []string{"checksum", "--start-ts", "1", "--isolation", "serializable"}, domain.ErrInvalidArgument},
		{"bad output", []string{"checksum", "--start-ts", "1", "-o", "xml"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, append([]string{"--data-dir", dir}, tt.args...)...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("err = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestChecksum_TableID(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "rows.jsonl")
	content := fmt.Sprintf("{\"key\":%q,\"value\":\"7231\"}\n{\"key\":%q,\"value\":\"6931\"}\n{\"key\":%q,\"value\":\"7831\"}\n",
		hex.EncodeToString(tablecodec.EncodeRowKey(7, 1)),
		hex.EncodeToString(tablecodec.EncodeIndexKey(7, 2, []byte("a"))),
		hex.EncodeToString(tablecodec.EncodeRowKey(8, 1)),
	)
	if err := os.WriteFile(input, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := run(t, "--data-dir", dir, "load", "-i", input, "--commit-ts", "1", "--hex", "-q"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		args  []string
		value string
	}{
		{"records", []string{"--table-id", "7"}, "r1"},
		{"index", []string{"--table-id", "7", "--index-id", "2"}, "i1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--data-dir", dir, "checksum", "--start-ts", "1", "--strict", "-o", "json"}, tt.args...)
			stdout, _, err := run(t, args...)
			if err != nil {
				t.Fatal(err)
			}
			var out service.ChecksumOutcome
			if err := json.Unmarshal([]byte(stdout), &out); err != nil {
				t.Fatal(err)
			}
			if out.Result.TotalKVs != 1 {
				t.Errorf("total_kvs = %d, want 1 (%s)", out.Result.TotalKVs, out.Result)
			}
		})
	}

	// A strict index scan over a record range is a layout violation.
	_, _, err := run(t, "--data-dir", dir, "checksum", "--start-ts", "1", "--strict", "--scan-on", "index", "--hex",
		"--range", hex.EncodeToString(tablecodec.EncodeRowKey(7, 0))+":")
	if !errors.Is(err, storage.ErrKeyLayout) {
		t.Errorf("err = %v, want ErrKeyLayout", err)
	}
}

func TestCombine(t *testing.T) {
	stdout, _, err := run(t, "combine", "--part", "0x69a83c7f55f85d21,1,4", "--part", "0x6f1e65494da11448,1,4", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var got domain.ChecksumResult
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatal(err)
	}
	want := domain.ChecksumResult{Checksum: 0x06b6593618594969, TotalKVs: 2, TotalBytes: 8}
	if got != want {
		t.Errorf("combine = %s, want %s", got, want)
	}

	stdout, _, err = run(t, "combine", "--part", "0x69a83c7f55f85d21,1,4")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "0x69a83c7f55f85d21") {
		t.Errorf("table output = %q", stdout)
	}
}

func TestParsePart(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.ChecksumResult
		wantErr bool
	}{
		{"1,2,3", domain.ChecksumResult{Checksum: 1, TotalKVs: 2, TotalBytes: 3}, false},
		{"0xff, 0, 0", domain.ChecksumResult{Checksum: 255}, false},
		{"1,2", domain.ChecksumResult{}, true},
		{"x,2,3", domain.ChecksumResult{}, true},
		{"-1,2,3", domain.ChecksumResult{}, true},
	}
	for _, tt := range tests {
		got, err := ParsePart(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePart(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePart(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestStats(t *testing.T) {
	stdout, _, err := run(t, "--backend", "memory", "stats", "--gc", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, `"backend": "memory"`) {
		t.Errorf("stats = %s", stdout)
	}

	dir := seeded(t, rows)
	stdout, _, err = run(t, "--data-dir", dir, "stats", "--gc", "-o", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "backend: badger") {
		t.Errorf("stats = %s", stdout)
	}
}

func TestMetricsDump(t *testing.T) {
	dir := seeded(t, rows)
	metricsFile := filepath.Join(t.TempDir(), "metrics.txt")

	if _, _, err := run(t, "--data-dir", dir, "--metrics", "--metrics-file", metricsFile, "checksum", "--start-ts", "10"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		`kvsum_checksum_requests_total{result="ok",scan_on="table"} 1`,
		"kvsum_checksum_kvs_total",
		`kvsum_storage_keys{backend="badger"}`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics dump missing %q", want)
		}
	}

	_, stderr, err := run(t, "--backend", "memory", "--metrics", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "kvsum_checksum_requests_total") && !strings.Contains(stderr, "go_goroutines") {
		t.Errorf("stderr dump = %q", stderr)
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, `"go_version"`) {
		t.Errorf("version = %s", stdout)
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kvsum.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  backend: memory\nlog:\n  backend: zap\n"), 0644); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := run(t, "--config", path, "stats", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, `"backend": "memory"`) {
		t.Errorf("stats = %s", stdout)
	}

	if _, _, err := run(t, "--backend", "rocks", "stats"); err == nil {
		t.Error("unknown backend accepted")
	}
}
