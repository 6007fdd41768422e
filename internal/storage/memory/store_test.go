package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stevenberge/tikv/internal/storage/mvcc"
)

func mustWrite(t *testing.T, s *Store, ts uint64, muts ...mvcc.Mutation) {
	t.Helper()
	if err := s.Write(context.Background(), ts, muts); err != nil {
		t.Fatalf("Write(ts=%d): %v", ts, err)
	}
}

func scanAll(t *testing.T, s *Store, readTS uint64, from string) []string {
	t.Helper()
	it, err := s.NewIterator(readTS, mvcc.IteratorOptions{})
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	defer it.Close()

	var out []string
	for it.Seek([]byte(from)); it.Valid(); it.Next() {
		v, err := it.Value()
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		out = append(out, fmt.Sprintf("%s=%s", it.Key(), v))
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStore_VersionVisibility(t *testing.T) {
	s := New(WithDegree(2))
	mustWrite(t, s, 10, mvcc.Put([]byte("a"), []byte("a10")), mvcc.Put([]byte("b"), []byte("b10")))
	mustWrite(t, s, 20, mvcc.Put([]byte("a"), []byte("a20")), mvcc.Delete([]byte("b")))
	mustWrite(t, s, 30, mvcc.Put([]byte("b"), []byte("b30")), mvcc.Put([]byte("c"), []byte("c30")))

	tests := []struct {
		readTS uint64
		want   []string
	}{
		{5, nil},
		{10, []string{"a=a10", "b=b10"}},
		{15, []string{"a=a10", "b=b10"}},
		{20, []string{"a=a20"}},
		{29, []string{"a=a20"}},
		{30, []string{"a=a20", "b=b30", "c=c30"}},
		{math.MaxUint64, []string{"a=a20", "b=b30", "c=c30"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("ts=%d", tt.readTS), func(t *testing.T) {
			if got := scanAll(t, s, tt.readTS, ""); !equal(got, tt.want) {
				t.Errorf("scan = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_Seek(t *testing.T) {
	s := New()
	mustWrite(t, s, 1,
		mvcc.Put([]byte("k1"), []byte("v1")),
		mvcc.Put([]byte("k1a"), []byte("v1a")),
		mvcc.Put([]byte("k2"), []byte("v2")),
	)

	if got, want := scanAll(t, s, 1, "k1"), []string{"k1=v1", "k1a=v1a", "k2=v2"}; !equal(got, want) {
		t.Errorf("Seek(k1) = %v, want %v", got, want)
	}
	if got, want := scanAll(t, s, 1, "k10"), []string{"k1a=v1a", "k2=v2"}; !equal(got, want) {
		t.Errorf("Seek(k10) = %v, want %v", got, want)
	}
	if got := scanAll(t, s, 1, "z"); len(got) != 0 {
		t.Errorf("Seek(z) = %v, want empty", got)
	}
}

func TestStore_EmptyValue(t *testing.T) {
	s := New()
	mustWrite(t, s, 1, mvcc.Put([]byte("k"), nil))

	if got, want := scanAll(t, s, 1, ""), []string{"k="}; !equal(got, want) {
		t.Errorf("scan = %v, want %v", got, want)
	}
}

func TestStore_IteratorIsSnapshot(t *testing.T) {
	s := New()
	mustWrite(t, s, 1, mvcc.Put([]byte("a"), []byte("1")))

	it, err := s.NewIterator(math.MaxUint64, mvcc.IteratorOptions{})
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	defer it.Close()

	mustWrite(t, s, 2, mvcc.Put([]byte("b"), []byte("2")), mvcc.Delete([]byte("a")))

	var keys []string
	for it.Seek(nil); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if !equal(keys, []string{"a"}) {
		t.Errorf("iterator saw %v, want [a]", keys)
	}
}

func TestStore_WriteValidation(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Write(ctx, 0, []mvcc.Mutation{mvcc.Put([]byte("a"), nil)}); !errors.Is(err, mvcc.ErrInvalidTimestamp) {
		t.Errorf("ts=0: error = %v, want ErrInvalidTimestamp", err)
	}

	err := s.Write(ctx, 1, []mvcc.Mutation{mvcc.Put([]byte("a"), []byte("1")), mvcc.Put(nil, []byte("2"))})
	if !errors.Is(err, mvcc.ErrEmptyKey) {
		t.Errorf("empty key: error = %v, want ErrEmptyKey", err)
	}
	if got := scanAll(t, s, 1, ""); len(got) != 0 {
		t.Errorf("rejected batch was partially applied: %v", got)
	}

	if err := s.Write(ctx, 1, []mvcc.Mutation{{Op: mvcc.Op(9), Key: []byte("a")}}); err == nil {
		t.Error("unknown op should fail")
	}
}

func TestStore_Locks(t *testing.T) {
	s := New()
	mustWrite(t, s, 15, mvcc.LockKey([]byte("b")))
	mustWrite(t, s, 40, mvcc.LockKey([]byte("d")))

	tests := []struct {
		name       string
		start, end string
		maxTS      uint64
		want       string
	}{
		{"below lock ts", "a", "z", 10, ""},
		{"covers b", "a", "z", 20, "b"},
		{"end excludes b", "a", "b", 100, ""},
		{"start after b", "c", "", 100, "d"},
		{"d too new", "c", "", 39, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := s.FirstLock([]byte(tt.start), []byte(tt.end), tt.maxTS)
			if err != nil {
				t.Fatalf("FirstLock: %v", err)
			}
			got := ""
			if l != nil {
				got = string(l.Key)
			}
			if got != tt.want {
				t.Errorf("FirstLock = %q, want %q", got, tt.want)
			}
		})
	}

	mustWrite(t, s, 50, mvcc.UnlockKey([]byte("b")))
	if l, _ := s.FirstLock([]byte("a"), []byte("c"), 100); l != nil {
		t.Errorf("lock on b survived unlock: %+v", l)
	}
}

func TestStore_Stats(t *testing.T) {
	s := New()
	mustWrite(t, s, 1, mvcc.Put([]byte("k1"), []byte("v1")), mvcc.LockKey([]byte("k2")))
	mustWrite(t, s, 2, mvcc.Put([]byte("k1"), []byte("v11")))

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Backend != "memory" || stats.Keys != 2 || stats.Locks != 1 || stats.TotalSize != 9 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestStore_Close(t *testing.T) {
	s := New()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); !errors.Is(err, mvcc.ErrClosed) {
		t.Errorf("second Close = %v, want ErrClosed", err)
	}
	if _, err := s.NewIterator(1, mvcc.IteratorOptions{}); !errors.Is(err, mvcc.ErrClosed) {
		t.Errorf("NewIterator after Close = %v, want ErrClosed", err)
	}
	if err := s.Write(context.Background(), 1, nil); !errors.Is(err, mvcc.ErrClosed) {
		t.Errorf("Write after Close = %v, want ErrClosed", err)
	}
}

func TestStore_ConcurrentReadWrite(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := []byte(fmt.Sprintf("w%d-%03d", w, i))
				if err := s.Write(context.Background(), uint64(i+1), []mvcc.Mutation{mvcc.Put(key, key)}); err != nil {
					t.Errorf("Write: %v", err)
					return
				}
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				it, err := s.NewIterator(math.MaxUint64, mvcc.IteratorOptions{})
				if err != nil {
					t.Errorf("NewIterator: %v", err)
					return
				}
				for it.Seek(nil); it.Valid(); it.Next() {
				}
				it.Close()
			}
		}()
	}
	wg.Wait()

	if got := len(scanAll(t, s, math.MaxUint64, "")); got != 400 {
		t.Errorf("keys = %d, want 400", got)
	}
}
