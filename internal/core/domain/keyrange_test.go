package domain

import (
	"errors"
	"testing"
)

func TestKeyRange_Contains(t *testing.T) {
	r := KeyRange{Start: []byte("b"), End: []byte("d")}

	tests := []struct {
		key  string
		want bool
	}{
		{"a", false},
		{"b", true},
		{"c", true},
		{"czzz", true},
		{"d", false},
		{"e", false},
	}
	for _, tt := range tests {
		if got := r.Contains([]byte(tt.key)); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}

	open := KeyRange{Start: []byte("b")}
	if !open.Contains([]byte("zzzz")) {
		t.Error("unbounded range should contain keys above start")
	}
}

func TestKeyRange_Validate(t *testing.T) {
	if err := (KeyRange{Start: []byte("b"), End: []byte("a")}).Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Validate() = %v, want ErrInvalidRange", err)
	}
	if err := (KeyRange{Start: []byte("a"), End: []byte("a")}).Validate(); err != nil {
		t.Errorf("empty range should be valid, got %v", err)
	}
	if err := (KeyRange{Start: []byte("z")}).Validate(); err != nil {
		t.Errorf("unbounded range should be valid, got %v", err)
	}
}

func TestParseKeyRange(t *testing.T) {
	t.Run("raw", func(t *testing.T) {
		r, err := ParseKeyRange("a:c", false)
		if err != nil {
			t.Fatal(err)
		}
		if string(r.Start) != "a" || string(r.End) != "c" {
			t.Errorf("got %v", r)
		}
	})

	t.Run("hex", func(t *testing.T) {
		r, err := ParseKeyRange("6b31:6b33", true)
		if err != nil {
			t.Fatal(err)
		}
		if string(r.Start) != "k1" || string(r.End) != "k3" {
			t.Errorf("got %v", r)
		}
	})

	t.Run("unbounded end", func(t *testing.T) {
		r, err := ParseKeyRange("k:", false)
		if err != nil {
			t.Fatal(err)
		}
		if !r.Unbounded() {
			t.Errorf("expected unbounded range, got %v", r)
		}
	})

	t.Run("colon in raw bound", func(t *testing.T) {
		_, err := ParseKeyRange("a:b:c", false)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("error = %v, want ErrInvalidArgument", err)
		}
		r, err := ParseKeyRange("613a62:63", true)
		if err != nil {
			t.Fatal(err)
		}
		if string(r.Start) != "a:b" || string(r.End) != "c" {
			t.Errorf("got %v", r)
		}
	})

	t.Run("errors", func(t *testing.T) {
		for _, in := range []string{"nocolon", "zz:k", "c:a"} {
			if _, err := ParseKeyRange(in, in == "zz:k"); err == nil {
				t.Errorf("ParseKeyRange(%q) should fail", in)
			}
		}
	})
}

func TestNewKeyRange_Copies(t *testing.T) {
	start := []byte("a")
	r := NewKeyRange(start, []byte("b"))
	start[0] = 'z'
	if string(r.Start) != "a" {
		t.Errorf("NewKeyRange should copy bounds, got %q", r.Start)
	}
}
