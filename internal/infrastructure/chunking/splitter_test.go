package chunking

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitEmptyInput(t *testing.T) {
	s := NewSplitter(100, 20)
	if got := s.Split(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := s.Split(" \n\t  "); got != nil {
		t.Fatalf("expected nil for whitespace input, got %v", got)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(100, 20)
	got := s.Split("  hello world  ")
	if len(got) != 1 || got[0] != "hello world" {
		t.Fatalf("expected single trimmed chunk, got %v", got)
	}
}

func TestSplitWindowsAndOverlap(t *testing.T) {
	s := NewSplitter(10, 4)
	got := s.Split("abcdefghijklmnopqrstuvwxyz")
	want := []string{"abcdefghij", "ghijklmnop", "mnopqrstuv", "stuvwxyz"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSplitTrimsBeforeWindowing(t *testing.T) {
	s := NewSplitter(4, 0)
	got := s.Split("   abcd")
	want := []string{"abcd"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("leading whitespace must not shift windows: got %v, want %v", got, want)
	}
	got = s.Split("  abcdef  ")
	want = []string{"abcd", "ef"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected windows over trimmed text, got %v, want %v", got, want)
	}
}

func TestSplitWindowsCoverInput(t *testing.T) {
	text := strings.Repeat("0123456789", 13)
	for _, tc := range []struct{ size, overlap int }{
		{10, 0}, {10, 4}, {17, 5}, {130, 20}, {200, 50},
	} {
		s := NewSplitter(tc.size, tc.overlap)
		chunks := s.Split(text)
		if len(chunks) == 0 {
			t.Fatalf("size=%d overlap=%d: expected chunks", tc.size, tc.overlap)
		}
		// Each window repeats the previous window's tail; dropping that
		// prefix and concatenating must rebuild the input exactly.
		var b strings.Builder
		b.WriteString(chunks[0])
		for i := 1; i < len(chunks); i++ {
			prev := []rune(chunks[i-1])
			cur := []rune(chunks[i])
			if string(prev[len(prev)-s.Overlap:]) != string(cur[:s.Overlap]) {
				t.Fatalf("size=%d overlap=%d: chunk %d does not overlap its predecessor", tc.size, tc.overlap, i)
			}
			b.WriteString(string(cur[s.Overlap:]))
		}
		if b.String() != text {
			t.Fatalf("size=%d overlap=%d: reassembled text diverges from input", tc.size, tc.overlap)
		}
	}
}

func TestSplitNeverExceedsChunkSize(t *testing.T) {
	s := NewSplitter(50, 10)
	text := strings.Repeat("lorem ipsum dolor sit amet ", 40)
	for i, chunk := range s.Split(text) {
		if utf8.RuneCountInString(chunk) > 50 {
			t.Fatalf("chunk %d exceeds size: %d runes", i, utf8.RuneCountInString(chunk))
		}
	}
}

func TestSplitTerminatesWithOversizedOverlap(t *testing.T) {
	// Bypasses constructor normalization on purpose: the loop itself
	// must guarantee forward progress.
	s := &Splitter{ChunkSize: 4, Overlap: 10}
	got := s.Split("abcdefgh")
	want := []string{"abcd", "bcde", "cdef", "defg", "efgh"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSplitNormalizesNULBytes(t *testing.T) {
	s := NewSplitter(100, 0)
	got := s.Split("foo\x00bar")
	if len(got) != 1 || got[0] != "foo bar" {
		t.Fatalf("expected NUL replaced by space, got %v", got)
	}
	if got := s.Split("\x00\x00"); got != nil {
		t.Fatalf("expected nil for NUL-only input, got %v", got)
	}
}

func TestSplitSkipsWhitespaceOnlyWindows(t *testing.T) {
	s := NewSplitter(3, 0)
	got := s.Split("ab    cd")
	want := []string{"ab", "cd"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSplitDeterministic(t *testing.T) {
	s := NewSplitter(15, 5)
	text := strings.Repeat("determinism matters ", 10)
	first := s.Split(text)
	second := s.Split(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical chunking across runs")
	}
}

func TestNewSplitterNormalizesArguments(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.ChunkSize != 1200 || s.Overlap != 0 {
		t.Fatalf("expected defaults 1200/0, got %d/%d", s.ChunkSize, s.Overlap)
	}
	s = NewSplitter(10, 10)
	if s.Overlap != 2 {
		t.Fatalf("expected overlap clamped to size/4, got %d", s.Overlap)
	}
}
