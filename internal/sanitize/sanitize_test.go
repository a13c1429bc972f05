package sanitize

import (
	"strings"
	"testing"
)

func TestCleanMasksBlockedWords(t *testing.T) {
	s := New(nil)

	cases := map[string]string{
		"test player":   "*** player",
		"Test Player":   "*** Player",
		"ADMIN account": "*** account",
		"clean name":    "clean name",
		"contest":       "con***",
	}
	for input, want := range cases {
		if got := s.Clean(input, 50); got != want {
			t.Errorf("Clean(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCleanTruncatesWithEllipsis(t *testing.T) {
	s := New(nil)
	out := s.Clean(strings.Repeat("a", 60), 10)
	if len(out) != 10 {
		t.Fatalf("expected length 10, got %d (%q)", len(out), out)
	}
	if !strings.HasSuffix(out, "...") {
		t.Fatalf("expected trailing ellipsis, got %q", out)
	}
}

func TestCleanTrimsWhitespace(t *testing.T) {
	s := New(nil)
	if got := s.Clean("  padded  ", 50); got != "padded" {
		t.Fatalf("expected %q, got %q", "padded", got)
	}
}

func TestCleanCustomBlocklist(t *testing.T) {
	s := New([]string{"forbidden"})
	if got := s.Clean("Forbidden name", 50); got != "*** name" {
		t.Fatalf("expected custom word masked, got %q", got)
	}
	// the defaults no longer apply once a list is supplied
	if got := s.Clean("test name", 50); got != "test name" {
		t.Fatalf("expected default list replaced, got %q", got)
	}
}
