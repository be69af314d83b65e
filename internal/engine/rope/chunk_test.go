package rope

import (
	"strings"
	"testing"
)

func TestComputeSummary(t *testing.T) {
	tests := []struct {
		input string
		bytes ByteOffset
		lines int
	}{
		{"", 0, 0},
		{"abc", 3, 0},
		{"a\nb", 3, 1},
		{"\n\n\n", 3, 3},
		{"世界", 6, 0},
	}

	for _, tt := range tests {
		s := ComputeSummary(tt.input)
		if s.Bytes != tt.bytes || s.Lines != tt.lines {
			t.Errorf("ComputeSummary(%q) = %+v, want bytes=%d lines=%d",
				tt.input, s, tt.bytes, tt.lines)
		}
	}
}

func TestChunkNewlinePositions(t *testing.T) {
	c := NewChunk("ab\ncd\nef")

	if got := c.NewlinePosition(1); got != 2 {
		t.Errorf("NewlinePosition(1) = %d, want 2", got)
	}
	if got := c.NewlinePosition(2); got != 5 {
		t.Errorf("NewlinePosition(2) = %d, want 5", got)
	}
	if got := c.NewlinePosition(3); got != -1 {
		t.Errorf("NewlinePosition(3) = %d, want -1", got)
	}
	if got := c.NewlinePosition(0); got != -1 {
		t.Errorf("NewlinePosition(0) = %d, want -1", got)
	}
}

func TestChunkNewlinesBefore(t *testing.T) {
	c := NewChunk("ab\ncd\nef")

	tests := []struct {
		offset int
		want   int
	}{
		{0, 0},
		{2, 0},
		{3, 1},
		{5, 1},
		{6, 2},
		{8, 2},
	}

	for _, tt := range tests {
		if got := c.NewlinesBefore(tt.offset); got != tt.want {
			t.Errorf("NewlinesBefore(%d) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}

func TestChunkSplit(t *testing.T) {
	c := NewChunk("hello world")

	l, r := c.Split(5)
	if l.String() != "hello" || r.String() != " world" {
		t.Errorf("Split(5) = %q, %q", l.String(), r.String())
	}

	l, r = c.Split(0)
	if !l.IsEmpty() || r.String() != "hello world" {
		t.Error("Split(0) should return empty left")
	}

	l, r = c.Split(11)
	if l.String() != "hello world" || !r.IsEmpty() {
		t.Error("Split(len) should return empty right")
	}
}

func TestSplitIntoChunks(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"small", "tiny"},
		{"exactly max", strings.Repeat("x", MaxChunkSize)},
		{"just over max", strings.Repeat("x", MaxChunkSize+1)},
		{"large with newlines", strings.Repeat("some line here\n", 200)},
		{"large unicode", strings.Repeat("世界", 500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitIntoChunks(tt.input)

			var sb strings.Builder
			for _, c := range chunks {
				if c.Len() > MaxChunkSize {
					t.Errorf("chunk size %d exceeds max", c.Len())
				}
				if c.IsEmpty() {
					t.Error("empty chunk produced")
				}
				sb.WriteString(c.String())
			}
			if sb.String() != tt.input {
				t.Error("chunks do not reassemble input")
			}

			// Every chunk boundary must be a UTF-8 boundary.
			for _, c := range chunks {
				if c.Len() > 0 && !isUTF8Start(c.String()[0]) {
					t.Error("chunk starts mid-rune")
				}
			}
		})
	}
}
