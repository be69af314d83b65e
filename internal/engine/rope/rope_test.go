package rope

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	r := New()
	if r.Len() != 0 {
		t.Errorf("New rope should have length 0, got %d", r.Len())
	}
	if !r.IsEmpty() {
		t.Error("New rope should be empty")
	}
	if r.String() != "" {
		t.Errorf("New rope String() should be empty, got %q", r.String())
	}
	if r.LineCount() != 1 {
		t.Errorf("New rope should have 1 line, got %d", r.LineCount())
	}
}

func TestFromString(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"single char", "a"},
		{"short string", "hello"},
		{"with newline", "hello\nworld"},
		{"multiple newlines", "a\nb\nc\nd"},
		{"unicode", "hello 世界 🌍"},
		{"long string", strings.Repeat("abcdefghij", 100)},
		{"very long string", strings.Repeat("x", 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromString(tt.input)
			if r.String() != tt.input {
				t.Errorf("String() = %q, want %q", r.String(), tt.input)
			}
			if r.Len() != ByteOffset(len(tt.input)) {
				t.Errorf("Len() = %d, want %d", r.Len(), len(tt.input))
			}
		})
	}
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		offset   ByteOffset
		text     string
		expected string
	}{
		{"insert at start", "world", 0, "hello ", "hello world"},
		{"insert at end", "hello", 5, " world", "hello world"},
		{"insert in middle", "helloworld", 5, " ", "hello world"},
		{"insert into empty", "", 0, "hello", "hello"},
		{"insert empty string", "hello", 3, "", "hello"},
		{"insert past end clamps", "hello", 99, "!", "hello!"},
		{"insert unicode", "hello", 5, " 世界", "hello 世界"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromString(tt.initial)
			r = r.Insert(tt.offset, tt.text)
			if got := r.String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		start    ByteOffset
		end      ByteOffset
		expected string
	}{
		{"delete at start", "hello world", 0, 6, "world"},
		{"delete at end", "hello world", 5, 11, "hello"},
		{"delete in middle", "hello world", 5, 6, "helloworld"},
		{"delete all", "hello", 0, 5, ""},
		{"delete nothing", "hello", 3, 3, "hello"},
		{"delete past end clamps", "hello", 3, 99, "hel"},
		{"delete inverted range", "hello", 4, 2, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromString(tt.initial)
			r = r.Delete(tt.start, tt.end)
			if got := r.String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestReplace(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		start    ByteOffset
		end      ByteOffset
		text     string
		expected string
	}{
		{"replace word", "hello world", 6, 11, "there", "hello there"},
		{"replace with longer", "abc", 1, 2, "xyz", "axyzc"},
		{"replace with empty is delete", "hello", 1, 4, "", "ho"},
		{"empty range is insert", "hello", 2, 2, "XX", "heXXllo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromString(tt.initial)
			r = r.Replace(tt.start, tt.end, tt.text)
			if got := r.String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestImmutability(t *testing.T) {
	original := FromString("hello world")
	_ = original.Insert(5, "XXX")
	_ = original.Delete(0, 5)

	if original.String() != "hello world" {
		t.Errorf("original mutated: %q", original.String())
	}
}

func TestSlice(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog"
	r := FromString(text)

	tests := []struct {
		name  string
		start ByteOffset
		end   ByteOffset
		want  string
	}{
		{"prefix", 0, 3, "The"},
		{"middle", 4, 9, "quick"},
		{"suffix", 35, ByteOffset(len(text)), "lazy dog"},
		{"full", 0, ByteOffset(len(text)), text},
		{"empty", 5, 5, ""},
		{"clamped end", 40, 999, "dog"},
		{"negative start clamps", -5, 3, "The"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Slice(tt.start, tt.end); got != tt.want {
				t.Errorf("Slice(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestByteAt(t *testing.T) {
	r := FromString("hello")

	if b, ok := r.ByteAt(0); !ok || b != 'h' {
		t.Errorf("ByteAt(0) = %c, %v", b, ok)
	}
	if b, ok := r.ByteAt(4); !ok || b != 'o' {
		t.Errorf("ByteAt(4) = %c, %v", b, ok)
	}
	if _, ok := r.ByteAt(5); ok {
		t.Error("ByteAt(5) should be out of range")
	}
	if _, ok := r.ByteAt(-1); ok {
		t.Error("ByteAt(-1) should be out of range")
	}
}

func TestLineCount(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 1},
		{"one line", 1},
		{"two\nlines", 2},
		{"trailing newline\n", 2},
		{"a\nb\nc", 3},
		{strings.Repeat("line\n", 1000), 1001},
	}

	for _, tt := range tests {
		r := FromString(tt.input)
		if got := r.LineCount(); got != tt.want {
			t.Errorf("LineCount(%.20q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestLineStartOffset(t *testing.T) {
	r := FromString("abc\ndef\nghi")

	tests := []struct {
		line int
		want ByteOffset
	}{
		{0, 0},
		{1, 4},
		{2, 8},
		{99, 11}, // out of range clamps to end
	}

	for _, tt := range tests {
		if got := r.LineStartOffset(tt.line); got != tt.want {
			t.Errorf("LineStartOffset(%d) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

func TestLineText(t *testing.T) {
	r := FromString("abc\ndef\nghi")

	wantText := []string{"abc", "def", "ghi"}
	for i, want := range wantText {
		if got := r.LineText(i); got != want {
			t.Errorf("LineText(%d) = %q, want %q", i, got, want)
		}
	}

	wantRaw := []string{"abc\n", "def\n", "ghi"}
	for i, want := range wantRaw {
		if got := r.Line(i); got != want {
			t.Errorf("Line(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestLineRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"no newline",
		"trailing\n",
		"a\n\n\nb",
		strings.Repeat("the quick brown fox\n", 500),
	}

	for _, input := range inputs {
		r := FromString(input)
		var sb strings.Builder
		for i := 0; i < r.LineCount(); i++ {
			sb.WriteString(r.Line(i))
		}
		if sb.String() != input {
			t.Errorf("line concatenation does not round-trip for %.20q", input)
		}
	}
}

func TestOffsetToLine(t *testing.T) {
	r := FromString("abc\ndef\nghi")

	tests := []struct {
		offset ByteOffset
		want   int
	}{
		{0, 0},
		{3, 0},  // the newline itself belongs to line 0
		{4, 1},
		{7, 1},
		{8, 2},
		{10, 2},
		{999, 2}, // clamps to last line
	}

	for _, tt := range tests {
		if got := r.OffsetToLine(tt.offset); got != tt.want {
			t.Errorf("OffsetToLine(%d) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}

func TestOffsetLineInverse(t *testing.T) {
	r := FromString(strings.Repeat("0123456789\n", 300))
	for line := 0; line < r.LineCount(); line++ {
		off := r.LineStartOffset(line)
		if got := r.OffsetToLine(off); got != line {
			t.Errorf("OffsetToLine(LineStartOffset(%d)) = %d", line, got)
		}
	}
}

func TestLargeRopeEdits(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 2000; i++ {
		sb.WriteString("line with some content here\n")
	}
	text := sb.String()

	r := FromString(text)
	r = r.Insert(0, "FIRST\n")
	r = r.Insert(r.Len(), "LAST")
	r = r.Delete(6, 6+28)

	want := "FIRST\n" + text[28:] + "LAST"
	if r.String() != want {
		t.Error("large rope edit sequence mismatch")
	}
	if r.Height() > 8 {
		t.Errorf("tree unexpectedly tall: height %d", r.Height())
	}
}

func TestChunkIterator(t *testing.T) {
	text := strings.Repeat("abcdefghij", 500)
	r := FromString(text)

	var sb strings.Builder
	it := r.Chunks()
	count := 0
	for it.Next() {
		c := it.Chunk()
		if c.Len() > MaxChunkSize {
			t.Errorf("chunk exceeds MaxChunkSize: %d", c.Len())
		}
		sb.WriteString(c.String())
		count++
	}

	if sb.String() != text {
		t.Error("chunk iteration does not reproduce text")
	}
	if count < 2 {
		t.Errorf("expected multiple chunks, got %d", count)
	}
}

func TestChunkIteratorEmpty(t *testing.T) {
	it := New().Chunks()
	for it.Next() {
		if it.Chunk().Len() > 0 {
			t.Error("empty rope yielded a non-empty chunk")
		}
	}
}

func TestLineIterator(t *testing.T) {
	r := FromString("a\nbb\nccc")

	var lines []string
	it := r.Lines()
	for it.Next() {
		lines = append(lines, it.Text())
	}

	want := []string{"a\n", "bb\n", "ccc"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestBuilder(t *testing.T) {
	var b Builder
	for i := 0; i < 100; i++ {
		b.WriteString("chunk of text ")
	}
	want := strings.Repeat("chunk of text ", 100)

	if b.Len() != len(want) {
		t.Errorf("Builder.Len() = %d, want %d", b.Len(), len(want))
	}
	r := b.Build()
	if r.String() != want {
		t.Error("built rope does not match written text")
	}
	if b.Len() != 0 {
		t.Error("Build should reset the builder")
	}
}

func TestFromReader(t *testing.T) {
	text := strings.Repeat("streamed line\n", 1000)
	r, err := FromReader(strings.NewReader(text))
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if r.String() != text {
		t.Error("FromReader content mismatch")
	}
	if r.LineCount() != 1001 {
		t.Errorf("LineCount = %d, want 1001", r.LineCount())
	}
}
