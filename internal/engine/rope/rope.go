package rope

import (
	"io"
	"strings"
)

// ByteOffset represents an absolute byte position in the rope.
type ByteOffset = int64

// Rope is an immutable rope. Operations return new Rope values; the original
// is never modified, so a Rope may be shared freely across goroutines.
type Rope struct {
	root *node
}

// New creates an empty rope.
func New() Rope {
	return Rope{root: newLeaf()}
}

// FromString creates a rope from a string.
func FromString(s string) Rope {
	if len(s) == 0 {
		return New()
	}
	return fromChunks(splitIntoChunks(s))
}

// FromReader creates a rope by streaming from an io.Reader.
// Peak memory stays bounded by the read buffer plus the tree itself.
func FromReader(r io.Reader) (Rope, error) {
	var b Builder
	if _, err := b.ReadFrom(r); err != nil {
		return Rope{}, err
	}
	return b.Build(), nil
}

// fromChunks builds a balanced rope bottom-up from pre-split chunks.
func fromChunks(chunks []Chunk) Rope {
	if len(chunks) == 0 {
		return New()
	}

	var leaves []*node
	for i := 0; i < len(chunks); i += MaxChunksPerLeaf {
		end := i + MaxChunksPerLeaf
		if end > len(chunks) {
			end = len(chunks)
		}
		leafChunks := make([]Chunk, end-i)
		copy(leafChunks, chunks[i:end])
		leaves = append(leaves, newLeafWithChunks(leafChunks))
	}
	return Rope{root: buildFromNodes(leaves)}
}

// Len returns the total byte length.
func (r Rope) Len() ByteOffset {
	if r.root == nil {
		return 0
	}
	return r.root.len()
}

// LineCount returns the number of lines (newlines + 1).
func (r Rope) LineCount() int {
	if r.root == nil {
		return 1
	}
	return r.root.summary.Lines + 1
}

// IsEmpty returns true if the rope contains no text.
func (r Rope) IsEmpty() bool {
	return r.Len() == 0
}

// String returns the full text as a string.
// Use sparingly for large ropes; prefer Chunks for streaming.
func (r Rope) String() string {
	if r.root == nil {
		return ""
	}
	var sb strings.Builder
	sb.Grow(int(r.Len()))
	r.root.appendTo(&sb)
	return sb.String()
}

// Slice returns the text in the byte range [start, end), clamped to content.
func (r Rope) Slice(start, end ByteOffset) string {
	if r.root == nil {
		return ""
	}
	if start < 0 {
		start = 0
	}
	if end > r.Len() {
		end = r.Len()
	}
	if start >= end {
		return ""
	}
	var sb strings.Builder
	sb.Grow(int(end - start))
	r.root.appendRange(&sb, start, end)
	return sb.String()
}

// ByteAt returns the byte at the given offset.
// Returns 0 and false if offset is out of range.
func (r Rope) ByteAt(offset ByteOffset) (byte, bool) {
	if r.root == nil || offset < 0 || offset >= r.Len() {
		return 0, false
	}

	n := r.root
	for !n.isLeaf() {
		idx, childOffset := n.findChildByOffset(offset)
		n = n.children[idx]
		offset = childOffset
	}
	for _, c := range n.chunks {
		chunkLen := ByteOffset(c.Len())
		if offset < chunkLen {
			return c.String()[offset], true
		}
		offset -= chunkLen
	}
	return 0, false
}

// Insert inserts text at the given byte offset, clamped to content bounds.
// Returns a new rope; the original is unchanged.
func (r Rope) Insert(offset ByteOffset, text string) Rope {
	if len(text) == 0 {
		return r
	}
	if r.root == nil || r.Len() == 0 {
		return FromString(text)
	}
	if offset <= 0 {
		return FromString(text).Concat(r)
	}
	if offset >= r.Len() {
		return r.Concat(FromString(text))
	}

	left, right := r.Split(offset)
	return left.Concat(FromString(text)).Concat(right)
}

// Delete removes text in the byte range [start, end).
// Returns a new rope; the original is unchanged.
func (r Rope) Delete(start, end ByteOffset) Rope {
	if r.root == nil || start >= end {
		return r
	}
	ropeLen := r.Len()
	if start < 0 {
		start = 0
	}
	if start >= ropeLen {
		return r
	}
	if end > ropeLen {
		end = ropeLen
	}

	if start == 0 && end == ropeLen {
		return New()
	}
	if start == 0 {
		_, right := r.Split(end)
		return right
	}
	if end == ropeLen {
		left, _ := r.Split(start)
		return left
	}

	left, rest := r.Split(start)
	_, right := rest.Split(end - start)
	return left.Concat(right)
}

// Replace replaces text in the byte range [start, end) with new text.
// Returns a new rope; the original is unchanged.
func (r Rope) Replace(start, end ByteOffset, text string) Rope {
	if start >= end {
		return r.Insert(start, text)
	}
	if len(text) == 0 {
		return r.Delete(start, end)
	}
	return r.Delete(start, end).Insert(start, text)
}

// Split splits the rope at offset: left contains [0, offset), right the rest.
func (r Rope) Split(offset ByteOffset) (Rope, Rope) {
	if r.root == nil || offset <= 0 {
		return New(), r
	}
	if offset >= r.Len() {
		return r, New()
	}
	left, right := r.root.split(offset)
	return Rope{root: left}, Rope{root: right}
}

// Concat concatenates two ropes.
func (r Rope) Concat(other Rope) Rope {
	if r.root == nil || r.Len() == 0 {
		return other
	}
	if other.root == nil || other.Len() == 0 {
		return r
	}
	return Rope{root: concatNodes(r.root, other.root)}
}

// LineStartOffset returns the byte offset of the start of the given line.
// Lines are 0-indexed; out-of-range lines clamp to the end of the rope.
func (r Rope) LineStartOffset(line int) ByteOffset {
	if r.root == nil || line <= 0 {
		return 0
	}
	if line >= r.LineCount() {
		return r.Len()
	}

	// Descend skipping `line` newlines, accumulating byte offsets.
	n := r.root
	base := ByteOffset(0)
	remaining := line // newlines still to skip
	for !n.isLeaf() {
		found := false
		for i, summary := range n.childSummaries {
			if summary.Lines >= remaining {
				n = n.children[i]
				found = true
				break
			}
			remaining -= summary.Lines
			base += summary.Bytes
		}
		if !found {
			// Summaries guarantee the target is inside some child.
			return r.Len()
		}
	}

	for _, c := range n.chunks {
		if c.Summary().Lines >= remaining {
			pos := c.NewlinePosition(remaining)
			if pos < 0 {
				return r.Len()
			}
			return base + ByteOffset(pos) + 1
		}
		remaining -= c.Summary().Lines
		base += ByteOffset(c.Len())
	}
	return r.Len()
}

// LineEndOffset returns the byte offset of the end of the given line,
// not including the newline character.
func (r Rope) LineEndOffset(line int) ByteOffset {
	if r.root == nil {
		return 0
	}
	lineCount := r.LineCount()
	if line >= lineCount-1 {
		return r.Len()
	}
	next := r.LineStartOffset(line + 1)
	if next > 0 {
		return next - 1
	}
	return 0
}

// LineText returns the text of the given line without its newline.
func (r Rope) LineText(line int) string {
	return r.Slice(r.LineStartOffset(line), r.LineEndOffset(line))
}

// Line returns the raw text of the given line including its trailing
// newline, if any. This is the round-trip-safe form: concatenating Line(i)
// for every i reproduces the rope byte for byte.
func (r Rope) Line(line int) string {
	start := r.LineStartOffset(line)
	var end ByteOffset
	if line >= r.LineCount()-1 {
		end = r.Len()
	} else {
		end = r.LineStartOffset(line + 1)
	}
	return r.Slice(start, end)
}

// OffsetToLine returns the 0-indexed line containing the given byte offset.
// Offsets beyond content clamp to the last line.
func (r Rope) OffsetToLine(offset ByteOffset) int {
	if r.root == nil || offset <= 0 {
		return 0
	}
	if offset >= r.Len() {
		return r.LineCount() - 1
	}

	// Descend counting newlines strictly before offset.
	n := r.root
	lines := 0
	for !n.isLeaf() {
		idx, childOffset := n.findChildByOffset(offset)
		for i := 0; i < idx; i++ {
			lines += n.childSummaries[i].Lines
		}
		n = n.children[idx]
		offset = childOffset
	}
	for _, c := range n.chunks {
		chunkLen := ByteOffset(c.Len())
		if offset < chunkLen {
			return lines + c.NewlinesBefore(int(offset))
		}
		lines += c.Summary().Lines
		offset -= chunkLen
	}
	return lines
}

// Height returns the height of the rope tree. Useful for balance tests.
func (r Rope) Height() int {
	if r.root == nil {
		return 0
	}
	return int(r.root.height) + 1
}
