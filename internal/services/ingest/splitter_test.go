package ingest

import (
	"strings"
	"testing"
)

func TestSplitterSplit(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		text      string
		want      []string
	}{
		{
			name:      "empty input yields no chunks",
			chunkSize: 10,
			overlap:   2,
			text:      "",
			want:      nil,
		},
		{
			name:      "input within chunk size stays whole",
			chunkSize: 10,
			overlap:   2,
			text:      "short",
			want:      []string{"short"},
		},
		{
			name:      "input exactly chunk size stays whole",
			chunkSize: 5,
			overlap:   2,
			text:      "abcde",
			want:      []string{"abcde"},
		},
		{
			name:      "sliding window with overlap",
			chunkSize: 4,
			overlap:   2,
			text:      "abcdefgh",
			want:      []string{"abcd", "cdef", "efgh"},
		},
		{
			name:      "no overlap",
			chunkSize: 3,
			overlap:   0,
			text:      "abcdefgh",
			want:      []string{"abc", "def", "gh"},
		},
		{
			name:      "last chunk shorter than chunk size",
			chunkSize: 4,
			overlap:   1,
			text:      "abcdefghij",
			want:      []string{"abcd", "defg", "ghij"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSplitter(tt.chunkSize, tt.overlap)
			got := s.Split(tt.text)

			if len(got) != len(tt.want) {
				t.Fatalf("expected %d chunks, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestSplitterDeterministic(t *testing.T) {
	s := NewSplitter(50, 10)
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 20)

	first := s.Split(text)
	second := s.Split(text)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitterClampsOverlap(t *testing.T) {
	// overlap >= chunkSize would stall the window
	s := NewSplitter(4, 10)
	chunks := s.Split("abcdefgh")

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i] == chunks[i-1] {
			t.Fatalf("window did not advance: chunk %d repeats %q", i, chunks[i])
		}
	}
}

func TestSplitterMultibyte(t *testing.T) {
	// Splitting counts runes, never bytes
	s := NewSplitter(4, 0)
	chunks := s.Split("日本語のテキスト")

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "日本語の" || chunks[1] != "テキスト" {
		t.Errorf("unexpected chunks: %v", chunks)
	}
}
