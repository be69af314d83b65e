package buffer

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/dshills/jive/internal/engine/rope"
)

// Errors returned by buffer operations.
var (
	ErrNoPath         = errors.New("buffer has no file path")
	ErrNoSource       = errors.New("buffer has no loaded content")
	ErrRangeInvalid   = errors.New("invalid range")
	ErrSaveInProgress = errors.New("save already in progress")
	ErrNoPendingSave  = errors.New("no completed save to finalize")
)

// Default policy constants. Each is overridable through an Option.
const (
	// DefaultMmapThreshold is the file size at or past which Load picks
	// the mapped representation.
	DefaultMmapThreshold = 10 * 1024 * 1024

	// DefaultCacheLines bounds the mapped-mode LRU line cache.
	DefaultCacheLines = 1000

	// DefaultOverlayLimit is the overlay entry count past which the next
	// mapped-mode mutation escalates to a rope.
	DefaultOverlayLimit = 100

	// DefaultWriterSize is the buffered-writer size for streaming saves.
	DefaultWriterSize = 256 * 1024
)

// source is the representation behind a Buffer: either a read-only mapped
// view with overlay and cache, or a rope. Line text always includes the
// trailing newline so that concatenating every line reproduces the content
// byte-for-byte.
type source interface {
	lineCount() int
	size() int64
	line(i int) string
	slice(start, end int64) string
	byteAt(offset int64) (byte, bool)
	lineOffset(i int) int64
	offsetToLine(offset int64) int
	close() error
}

// Buffer owns one open file and dispatches reads and edits to the active
// representation. All methods are safe for concurrent use; the background
// save goroutine communicates only through atomic state.
type Buffer struct {
	mu       sync.RWMutex
	path     string
	src      source
	fileSize int64
	modified bool

	mmapThreshold int64
	cacheLines    int
	overlayLimit  int
	writerSize    int

	loading      atomic.Bool
	loadProgress atomic.Uint32

	save saveState

	watch watchState
}

// Option is a functional option for configuring a Buffer.
type Option func(*Buffer)

// WithMmapThreshold sets the file size at which Load maps instead of
// reading into a rope.
func WithMmapThreshold(bytes int64) Option {
	return func(b *Buffer) {
		if bytes > 0 {
			b.mmapThreshold = bytes
		}
	}
}

// WithCacheLines sets the mapped-mode line cache capacity.
func WithCacheLines(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.cacheLines = n
		}
	}
}

// WithOverlayLimit sets the overlay entry count that forces escalation.
func WithOverlayLimit(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.overlayLimit = n
		}
	}
}

// WithWriterSize sets the buffered-writer size used by streaming saves.
func WithWriterSize(bytes int) Option {
	return func(b *Buffer) {
		if bytes > 0 {
			b.writerSize = bytes
		}
	}
}

// New creates an empty buffer. Load attaches file content.
func New(opts ...Option) *Buffer {
	b := &Buffer{
		mmapThreshold: DefaultMmapThreshold,
		cacheLines:    DefaultCacheLines,
		overlayLimit:  DefaultOverlayLimit,
		writerSize:    DefaultWriterSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load opens the file at path and chooses a representation by size: mapped
// at or past the mmap threshold, rope below it. A buffer can be reloaded;
// the previous representation is released first. Loading is refused while
// a save is in flight: the writer would otherwise mark its completion
// against content it never wrote.
func (b *Buffer) Load(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.save.saving.Load() {
		return ErrSaveInProgress
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var src source
	if info.Size() >= b.mmapThreshold {
		b.loading.Store(true)
		src, err = openMapped(path, b.cacheLines, &b.loadProgress)
		b.loading.Store(false)
	} else {
		src, err = openRope(path)
	}
	if err != nil {
		return err
	}

	if b.src != nil {
		b.src.close()
	}
	b.path = path
	b.src = src
	b.fileSize = info.Size()
	b.modified = false
	b.save.reset()
	return nil
}

// Read Operations

// GetLine returns line i's raw text including its trailing newline, or ""
// when i is out of range. This is the pure read path: overlay first, then a
// cache hit if one exists, then the backing bytes. It never populates the
// cache.
func (b *Buffer) GetLine(i int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.src == nil {
		return ""
	}
	return b.src.line(i)
}

// GetLineCached is the viewport read path: identical precedence to GetLine,
// but a mapped-mode miss materializes the line into the LRU cache.
func (b *Buffer) GetLineCached(i int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.src == nil {
		return ""
	}
	if m, ok := b.src.(*mappedSource); ok {
		return m.lineCached(i)
	}
	return b.src.line(i)
}

// GetVisibleLines concatenates up to count lines starting at start,
// stopping at end of file. Used for viewport rendering and as the
// tokenizer's input window.
func (b *Buffer) GetVisibleLines(start, count int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.src == nil || count <= 0 {
		return ""
	}

	var sb strings.Builder
	total := b.src.lineCount()
	for i := start; i < start+count && i < total; i++ {
		if i < 0 {
			continue
		}
		if m, ok := b.src.(*mappedSource); ok {
			sb.WriteString(m.lineCached(i))
		} else {
			sb.WriteString(b.src.line(i))
		}
	}
	return sb.String()
}

// Slice returns the bytes in [start, end), clamped to content bounds.
func (b *Buffer) Slice(start, end int64) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.src == nil {
		return ""
	}
	return b.src.slice(start, end)
}

// CharAt returns the character whose UTF-8 encoding starts at offset, or
// false when the offset is out of range. An offset into the middle of a
// multibyte sequence decodes as utf8.RuneError.
func (b *Buffer) CharAt(offset int64) (rune, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.src == nil {
		return 0, false
	}
	if _, ok := b.src.byteAt(offset); !ok {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(b.src.slice(offset, offset+utf8.UTFMax))
	return r, true
}

// Coordinate Conversion

// ByteOffsetToLine returns the line containing the byte offset. Offsets
// past the content clamp to the last line.
func (b *Buffer) ByteOffsetToLine(offset int64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.src == nil {
		return 0
	}
	return b.src.offsetToLine(offset)
}

// LineToByteOffset returns the byte offset of the first byte of line.
// Out-of-range lines clamp to the nearest valid boundary.
func (b *Buffer) LineToByteOffset(line int) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.src == nil {
		return 0
	}
	return b.src.lineOffset(line)
}

// Write Operations

// Insert inserts text at the byte offset. In mapped mode a text without a
// newline becomes a single-line overlay entry; a text containing one
// escalates to rope mode first.
func (b *Buffer) Insert(offset int64, text string) error {
	if text == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mutate(offset, offset, text)
}

// Delete removes the bytes in [start, end). A mapped-mode delete spanning
// more than one line escalates to rope mode first.
func (b *Buffer) Delete(start, end int64) error {
	if start == end {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mutate(start, end, "")
}

// Replace substitutes text for the bytes in [start, end).
func (b *Buffer) Replace(start, end int64, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mutate(start, end, text)
}

// mutate applies one edit to the active representation. Caller holds the
// write lock.
func (b *Buffer) mutate(start, end int64, text string) error {
	if b.src == nil {
		return ErrNoSource
	}
	if start < 0 || start > end || end > b.src.size() {
		return ErrRangeInvalid
	}

	if m, ok := b.src.(*mappedSource); ok {
		if b.needsEscalation(m, start, end, text) {
			// The rope holds logical content, so the edit's
			// original-file range must shift past any length delta
			// earlier overlay entries introduced.
			start, end = m.logicalOffset(start), m.logicalOffset(end)
			r, err := b.escalate(m)
			if err != nil {
				return err
			}
			b.src = r
			if sz := r.size(); end > sz {
				end = sz
			}
			if start > end {
				start = end
			}
		}
	}

	switch s := b.src.(type) {
	case *ropeSource:
		s.replace(start, end, text)
	case *mappedSource:
		s.patchLine(start, end, text)
	}
	b.modified = true
	return nil
}

// needsEscalation reports whether the edit cannot be represented as a
// single whole-line overlay entry, or the overlay is already at its limit.
// A range whose end lands on a later line deletes a newline, which joins
// lines and so cannot stay a per-line patch.
func (b *Buffer) needsEscalation(m *mappedSource, start, end int64, text string) bool {
	if strings.ContainsRune(text, '\n') {
		return true
	}
	if m.offsetToLine(start) != m.offsetToLine(end) {
		return true
	}
	return m.overlay.count() >= b.overlayLimit
}

// escalate rebuilds the content as a rope by streaming every logical line,
// so pending overlay entries survive the transition. The old mapping is
// released. Caller holds the write lock.
func (b *Buffer) escalate(m *mappedSource) (*ropeSource, error) {
	builder := rope.NewBuilder()
	for i := 0; i < m.lineCount(); i++ {
		builder.WriteString(m.line(i))
	}
	r := &ropeSource{rope: builder.Build()}
	if err := m.close(); err != nil {
		return nil, fmt.Errorf("release mapping: %w", err)
	}
	return r, nil
}

// Buffer State

// LineCount returns the number of lines in the active representation.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.src == nil {
		return 0
	}
	return b.src.lineCount()
}

// Len returns the logical content length in bytes.
func (b *Buffer) Len() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.src == nil {
		return 0
	}
	return b.src.size()
}

// FileSize returns the on-disk size recorded at Load.
func (b *Buffer) FileSize() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fileSize
}

// Path returns the file path, or "" for an unloaded buffer.
func (b *Buffer) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// IsEmpty reports whether the buffer holds no content.
func (b *Buffer) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.src == nil || b.src.size() == 0
}

// IsModified reports whether the buffer has unsaved edits.
func (b *Buffer) IsModified() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.modified
}

// IsMapped reports whether the active representation is the mapped view.
func (b *Buffer) IsMapped() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.src.(*mappedSource)
	return ok
}

// IsLoading reports whether a mapped Load is still indexing lines. Only
// meaningful when polled from another goroutine; Load itself is
// synchronous.
func (b *Buffer) IsLoading() bool {
	return b.loading.Load()
}

// LoadProgress returns the line-index build progress as 0-100.
func (b *Buffer) LoadProgress() int {
	return int(b.loadProgress.Load())
}

// Close releases the active representation and any watcher.
func (b *Buffer) Close() error {
	b.StopWatcher()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.src == nil {
		return nil
	}
	err := b.src.close()
	b.src = nil
	return err
}
