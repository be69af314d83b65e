package buffer

import (
	"fmt"
	"os"

	"github.com/dshills/jive/internal/engine/rope"
)

// ropeSource is the small-file representation and the escalation target:
// the full logical content held in an immutable rope, mutated by value
// replacement. No overlay or cache is needed.
type ropeSource struct {
	rope rope.Rope
}

func openRope(path string) (*ropeSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r, err := rope.FromReader(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &ropeSource{rope: r}, nil
}

func (s *ropeSource) lineCount() int {
	if s.rope.IsEmpty() {
		return 0
	}
	return s.rope.LineCount()
}

func (s *ropeSource) size() int64 {
	return s.rope.Len()
}

func (s *ropeSource) line(i int) string {
	return s.rope.Line(i)
}

func (s *ropeSource) slice(start, end int64) string {
	return s.rope.Slice(start, end)
}

func (s *ropeSource) byteAt(offset int64) (byte, bool) {
	return s.rope.ByteAt(offset)
}

func (s *ropeSource) lineOffset(i int) int64 {
	return s.rope.LineStartOffset(i)
}

func (s *ropeSource) offsetToLine(offset int64) int {
	return s.rope.OffsetToLine(offset)
}

func (s *ropeSource) replace(start, end int64, text string) {
	s.rope = s.rope.Replace(start, end, text)
}

func (s *ropeSource) close() error {
	return nil
}
