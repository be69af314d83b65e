package rope

// Chunk size constants control the granularity of text storage.
const (
	// MinChunkSize is the minimum bytes per chunk (except for the last chunk).
	MinChunkSize = 128

	// MaxChunkSize is the maximum bytes per chunk before splitting.
	MaxChunkSize = 256

	// TargetChunkSize is the preferred chunk size when building.
	TargetChunkSize = (MinChunkSize + MaxChunkSize) / 2
)

// Summary holds aggregated metrics for a text span. It forms a monoid under
// Add, which is what lets internal tree nodes answer byte and line queries
// without touching text.
type Summary struct {
	Bytes ByteOffset // UTF-8 byte count
	Lines int        // number of newline characters
}

// Add combines two summaries.
func (s Summary) Add(other Summary) Summary {
	return Summary{
		Bytes: s.Bytes + other.Bytes,
		Lines: s.Lines + other.Lines,
	}
}

// ComputeSummary calculates metrics for a string.
func ComputeSummary(s string) Summary {
	sum := Summary{Bytes: ByteOffset(len(s))}
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			sum.Lines++
		}
	}
	return sum
}

// Chunk represents a bounded string stored in leaf nodes.
// Chunks are immutable once created.
type Chunk struct {
	data     string
	summary  Summary
	newlines []uint16 // byte positions of newlines within data
}

// NewChunk creates a chunk from a string, precomputing its metrics and
// newline positions.
func NewChunk(s string) Chunk {
	c := Chunk{data: s, summary: ComputeSummary(s)}
	if c.summary.Lines > 0 {
		c.newlines = make([]uint16, 0, c.summary.Lines)
		for i := 0; i < len(s); i++ {
			if s[i] == '\n' {
				c.newlines = append(c.newlines, uint16(i))
			}
		}
	}
	return c
}

// String returns the chunk's text.
func (c Chunk) String() string {
	return c.data
}

// Summary returns the chunk's precomputed metrics.
func (c Chunk) Summary() Summary {
	return c.summary
}

// Len returns the byte length of the chunk.
func (c Chunk) Len() int {
	return len(c.data)
}

// IsEmpty returns true if the chunk contains no text.
func (c Chunk) IsEmpty() bool {
	return len(c.data) == 0
}

// NewlinePosition returns the byte offset of the nth newline (1-indexed)
// within the chunk, or -1 if the chunk has fewer newlines.
func (c Chunk) NewlinePosition(n int) int {
	if n < 1 || n > len(c.newlines) {
		return -1
	}
	return int(c.newlines[n-1])
}

// NewlinesBefore counts newlines strictly before the given byte offset.
func (c Chunk) NewlinesBefore(offset int) int {
	count := 0
	for _, pos := range c.newlines {
		if int(pos) >= offset {
			break
		}
		count++
	}
	return count
}

// Split splits a chunk at byte offset, returning two chunks.
// The offset must be at a valid UTF-8 boundary.
func (c Chunk) Split(offset int) (Chunk, Chunk) {
	if offset <= 0 {
		return Chunk{}, c
	}
	if offset >= len(c.data) {
		return c, Chunk{}
	}
	return NewChunk(c.data[:offset]), NewChunk(c.data[offset:])
}

// splitIntoChunks splits a string into chunks of appropriate size.
func splitIntoChunks(s string) []Chunk {
	if len(s) == 0 {
		return nil
	}
	if len(s) <= MaxChunkSize {
		return []Chunk{NewChunk(s)}
	}

	var chunks []Chunk
	remaining := s
	for len(remaining) > 0 {
		if len(remaining) <= MaxChunkSize {
			chunks = append(chunks, NewChunk(remaining))
			break
		}
		split := findSplitPoint(remaining, TargetChunkSize)
		chunks = append(chunks, NewChunk(remaining[:split]))
		remaining = remaining[split:]
	}
	return chunks
}

// findSplitPoint finds a valid UTF-8 boundary near the target position,
// preferring to split just after a newline when one is nearby.
func findSplitPoint(s string, target int) int {
	if target >= len(s) {
		return len(s)
	}
	if target <= 0 {
		return 0
	}

	searchStart := target - MinChunkSize/4
	if searchStart < 0 {
		searchStart = 0
	}
	searchEnd := target + MinChunkSize/4
	if searchEnd > len(s) {
		searchEnd = len(s)
	}

	for i := target; i < searchEnd; i++ {
		if s[i] == '\n' {
			return i + 1
		}
	}
	for i := target - 1; i >= searchStart; i-- {
		if s[i] == '\n' {
			return i + 1
		}
	}

	// No newline nearby; back off to a UTF-8 boundary.
	pos := target
	for pos > 0 && !isUTF8Start(s[pos]) {
		pos--
	}
	if pos == 0 {
		pos = target
		for pos < len(s) && !isUTF8Start(s[pos]) {
			pos++
		}
	}
	return pos
}

// isUTF8Start returns true if the byte is the start of a UTF-8 sequence.
// Continuation bytes match 10xxxxxx.
func isUTF8Start(b byte) bool {
	return b&0xC0 != 0x80
}
