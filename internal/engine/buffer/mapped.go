package buffer

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// mappedSource is the large-file representation: a read-only memory map,
// a line offset table built by one linear scan, a bounded LRU line cache,
// and the sparse overlay of replaced lines. The mapped bytes are never
// written; every mutation lands in the overlay.
//
// All addressing is in original-file coordinates. Overlay entries change
// what a line reads as, not where it starts.
type mappedSource struct {
	path        string
	data        []byte
	mapped      int64
	lineOffsets []int64
	cache       *lineCache
	overlay     *overlay
}

// openMapped maps the file read-only and indexes its line starts. The
// progress handle is advanced 0-100 during the scan so a concurrent poller
// can report long indexing runs.
func openMapped(path string, cacheLines int, progress *atomic.Uint32) (*mappedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	size := info.Size()

	m := &mappedSource{
		path:    path,
		mapped:  size,
		cache:   newLineCache(cacheLines),
		overlay: newOverlay(),
	}
	if size == 0 {
		progress.Store(100)
		return m, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	m.data = data
	m.lineOffsets = buildLineOffsets(data, progress)
	return m, nil
}

// buildLineOffsets scans for newline bytes in one pass. lineOffsets[i] is
// the offset of line i's first byte; the table is strictly increasing and
// starts at 0.
func buildLineOffsets(data []byte, progress *atomic.Uint32) []int64 {
	offsets := []int64{0}
	size := int64(len(data))

	var pos int64
	for pos < size {
		i := bytes.IndexByte(data[pos:], '\n')
		if i < 0 {
			break
		}
		pos += int64(i) + 1
		offsets = append(offsets, pos)
		progress.Store(uint32(pos * 100 / size))
	}
	progress.Store(100)
	return offsets
}

func (m *mappedSource) lineCount() int {
	return len(m.lineOffsets)
}

func (m *mappedSource) size() int64 {
	return m.mapped
}

// rawLine returns line i straight from the mapped bytes, including the
// trailing newline.
func (m *mappedSource) rawLine(i int) string {
	if i < 0 || i >= len(m.lineOffsets) {
		return ""
	}
	start := m.lineOffsets[i]
	end := m.mapped
	if i+1 < len(m.lineOffsets) {
		end = m.lineOffsets[i+1]
	}
	return string(m.data[start:end])
}

// line is the pure read path: overlay, then an existing cache entry, then
// the mapped bytes. The cache is never populated or reordered.
func (m *mappedSource) line(i int) string {
	if text, ok := m.overlay.get(i); ok {
		return text
	}
	if text, ok := m.cache.peek(i); ok {
		return text
	}
	return m.rawLine(i)
}

// lineCached is the viewport read path: same precedence, but a miss
// materializes the line into the cache.
func (m *mappedSource) lineCached(i int) string {
	if text, ok := m.overlay.get(i); ok {
		return text
	}
	if text, ok := m.cache.get(i); ok {
		return text
	}
	if i < 0 || i >= len(m.lineOffsets) {
		return ""
	}
	text := m.rawLine(i)
	m.cache.put(i, text)
	return text
}

func (m *mappedSource) slice(start, end int64) string {
	if start < 0 {
		start = 0
	}
	if end > m.mapped {
		end = m.mapped
	}
	if start >= end {
		return ""
	}
	return string(m.data[start:end])
}

func (m *mappedSource) byteAt(offset int64) (byte, bool) {
	if offset < 0 || offset >= m.mapped {
		return 0, false
	}
	return m.data[offset], true
}

func (m *mappedSource) lineOffset(i int) int64 {
	if len(m.lineOffsets) == 0 || i < 0 {
		return 0
	}
	if i >= len(m.lineOffsets) {
		return m.lineOffsets[len(m.lineOffsets)-1]
	}
	return m.lineOffsets[i]
}

func (m *mappedSource) offsetToLine(offset int64) int {
	if len(m.lineOffsets) == 0 || offset <= 0 {
		return 0
	}
	if offset >= m.mapped {
		return len(m.lineOffsets) - 1
	}
	// First line start past the offset, then one back.
	i := sort.Search(len(m.lineOffsets), func(i int) bool {
		return m.lineOffsets[i] > offset
	})
	return i - 1
}

// logicalOffset translates an original-file offset into the coordinates of
// the logical content, shifting it by the length delta of every overlay
// entry on an earlier line. Offsets within the containing line are
// unaffected since overlay entries replace whole lines.
func (m *mappedSource) logicalOffset(offset int64) int64 {
	line := m.offsetToLine(offset)
	var delta int64
	for i, e := range m.overlay.lines {
		if i < line {
			delta += int64(len(e.NewText) - e.OldLen)
		}
	}
	return offset + delta
}

// patchLine applies a single-line edit as a whole-line overlay entry: the
// current line (overlay precedence applied) is patched in memory and
// written back as a full replacement. The recorded original span is the
// raw mapped line, captured once on the line's first edit.
func (m *mappedSource) patchLine(start, end int64, text string) {
	i := m.offsetToLine(start)
	current := m.line(i)

	col := int(start - m.lineOffset(i))
	if col < 0 {
		col = 0
	}
	if col > len(current) {
		col = len(current)
	}
	del := int(end - start)
	if col+del > len(current) {
		del = len(current) - col
	}

	patched := current[:col] + text + current[col+del:]
	m.overlay.set(i, m.lineOffset(i), len(m.rawLine(i)), patched)
}

func (m *mappedSource) close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}
