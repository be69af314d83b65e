package buffer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sys/unix"

	"github.com/dshills/jive/internal/engine/rope"
)

// errReflinkUnsupported signals that the clone ioctl failed before any byte
// was written, so the save falls back to streaming.
var errReflinkUnsupported = errors.New("filesystem does not support reflink")

// Save progress checkpoints. The write phase interpolates between
// progressWrite and progressWritten by bytes processed.
const (
	progressStart   = 10
	progressWrite   = 20
	progressWritten = 90
	progressDone    = 100
)

// saveState is the atomic coordination surface between the interactive
// side and the background save goroutine. No other state crosses that
// boundary; the goroutine owns its captured job outright.
type saveState struct {
	saving   atomic.Bool
	pending  atomic.Bool
	progress atomic.Uint32
	checksum atomic.Uint64
	reflink  atomic.Int32 // 0 unprobed, 1 supported, -1 unsupported

	mu      sync.Mutex
	lastErr error
}

func (s *saveState) reset() {
	s.pending.Store(false)
	s.progress.Store(0)
	s.checksum.Store(0)
	s.setErr(nil)
}

func (s *saveState) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *saveState) getErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// saveJob is the content a save captures before its goroutine spawns.
// Rope saves carry the immutable rope value; mapped saves carry the merged
// edit list plus the path of the bytes the edits patch. Later buffer edits
// are invisible to a job already in flight.
type saveJob struct {
	target     string // destination; <target>.tmp is the scratch file
	origPath   string // mapped source bytes, "" for rope jobs
	origSize   int64
	isRope     bool
	rope       rope.Rope
	edits      []Edit
	writerSize int
}

// Save persists the current logical content to the buffer's path on a
// background goroutine. It returns immediately; poll IsSaving and
// SaveProgress, then call FinalizeSave once the in-progress flag clears.
// A second Save while one is in flight returns ErrSaveInProgress.
func (b *Buffer) Save() error {
	b.mu.RLock()
	if b.src == nil {
		b.mu.RUnlock()
		return ErrNoSource
	}
	if b.path == "" {
		b.mu.RUnlock()
		return ErrNoPath
	}

	if !b.save.saving.CompareAndSwap(false, true) {
		b.mu.RUnlock()
		return ErrSaveInProgress
	}

	job := saveJob{
		target:     b.path,
		writerSize: b.writerSize,
	}
	switch s := b.src.(type) {
	case *ropeSource:
		job.isRope = true
		job.rope = s.rope
		job.origSize = s.rope.Len()
	case *mappedSource:
		job.origPath = s.path
		job.origSize = s.mapped
		job.edits = s.overlay.merged()
	}
	b.mu.RUnlock()

	b.save.pending.Store(false)
	b.save.progress.Store(progressStart)
	b.save.setErr(nil)

	go b.runSave(job)
	return nil
}

// SaveAs points the buffer at a new path and saves there. A mapped buffer
// keeps reading its original bytes from the old path until FinalizeSave
// remaps the new one.
func (b *Buffer) SaveAs(path string) error {
	if path == "" {
		return ErrNoPath
	}
	b.mu.Lock()
	b.path = path
	b.mu.Unlock()
	return b.Save()
}

// runSave is the background worker. Failures reset progress to 0 and leave
// the original file untouched; the rename is the only step that publishes
// new content.
func (b *Buffer) runSave(job saveJob) {
	err := b.writeSave(job)
	if err != nil {
		b.save.setErr(err)
		b.save.progress.Store(0)
		b.save.saving.Store(false)
		return
	}
	b.save.progress.Store(progressDone)
	b.save.pending.Store(true)
	b.save.saving.Store(false)
}

// writeSave picks one strategy per save: the clone-and-patch path when the
// job is a mapped edit set whose every merged edit is length-preserving and
// the filesystem clones files, otherwise streaming through <target>.tmp.
// The two are never mixed; a failed clone probe falls back before any byte
// is written.
func (b *Buffer) writeSave(job saveJob) error {
	if !job.isRope && len(job.edits) > 0 &&
		allLengthPreserving(job.edits) && b.save.reflink.Load() >= 0 {
		err := b.cloneSave(job)
		if err == nil {
			b.save.reflink.Store(1)
			return nil
		}
		if !errors.Is(err, errReflinkUnsupported) {
			return err
		}
		b.save.reflink.Store(-1)
	}
	return b.streamSave(job)
}

// cloneSave reflinks the original to the scratch file, patches the changed
// ranges in place, and renames. Requires every edit to be
// length-preserving; offsets in the clone match the original exactly.
func (b *Buffer) cloneSave(job saveJob) error {
	src, err := os.Open(job.origPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", job.origPath, err)
	}
	defer src.Close()

	tmp := job.target + ".tmp"
	f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	if err := unix.IoctlFileClone(int(f.Fd()), int(src.Fd())); err != nil {
		f.Close()
		os.Remove(tmp)
		return errReflinkUnsupported
	}

	for i, e := range job.edits {
		if _, err := f.WriteAt([]byte(e.NewText), e.Offset); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("patch %s: %w", tmp, err)
		}
		b.save.progress.Store(writePhase(int64(i+1), int64(len(job.edits))))
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, job.target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	// The clone path patches in place, so no stream digest exists.
	b.save.checksum.Store(0)
	return nil
}

// streamSave writes the full logical content through a buffered writer to
// <target>.tmp and renames it over the target. Rope jobs stream the chunk
// sequence; mapped jobs interleave original byte runs with patches. Peak
// memory stays bounded by the writer and chunk sizes.
func (b *Buffer) streamSave(job saveJob) error {
	tmp := job.target + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	bw := bufio.NewWriterSize(f, job.writerSize)
	digest := xxhash.New()
	w := io.MultiWriter(bw, digest)

	if job.isRope {
		err = b.streamRope(w, job)
	} else {
		err = b.streamMapped(w, job)
	}
	if err == nil {
		err = bw.Flush()
	}
	if err == nil {
		err = f.Sync()
	}
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, job.target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	b.save.checksum.Store(digest.Sum64())
	return nil
}

// streamRope walks the rope's native chunks so no contiguous copy of the
// content is ever built.
func (b *Buffer) streamRope(w io.Writer, job saveJob) error {
	var written int64
	it := job.rope.Chunks()
	for it.Next() {
		c := it.Chunk()
		if _, err := io.WriteString(w, c.String()); err != nil {
			return err
		}
		written += int64(c.Len())
		b.save.progress.Store(writePhase(written, job.origSize))
	}
	return nil
}

// streamMapped copies original byte runs from the source file, substituting
// each merged edit's replacement for the span it supersedes. Edits arrive
// sorted and non-overlapping.
func (b *Buffer) streamMapped(w io.Writer, job saveJob) error {
	src, err := os.Open(job.origPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", job.origPath, err)
	}
	defer src.Close()

	var pos int64
	for _, e := range job.edits {
		if run := e.Offset - pos; run > 0 {
			if _, err := io.CopyN(w, src, run); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, e.NewText); err != nil {
			return err
		}
		if _, err := src.Seek(int64(e.OldLen), io.SeekCurrent); err != nil {
			return err
		}
		pos = e.Offset + int64(e.OldLen)
		b.save.progress.Store(writePhase(pos, job.origSize))
	}
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return nil
}

// writePhase maps bytes processed into the 20-90 progress band.
func writePhase(done, total int64) uint32 {
	if total <= 0 {
		return progressWritten
	}
	if done > total {
		done = total
	}
	return uint32(progressWrite + done*(progressWritten-progressWrite)/total)
}

// FinalizeSave reconciles the buffer with the file a completed save wrote.
// A mapped buffer remaps the saved file and rebuilds its line index,
// dropping the overlay and cache; a rope buffer already holds the saved
// content. Must be called from the owning goroutine once IsSaving reports
// false.
func (b *Buffer) FinalizeSave() error {
	if b.save.saving.Load() {
		return ErrSaveInProgress
	}
	if !b.save.pending.CompareAndSwap(true, false) {
		return ErrNoPendingSave
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if m, ok := b.src.(*mappedSource); ok {
		fresh, err := openMapped(b.path, b.cacheLines, &b.loadProgress)
		if err != nil {
			b.save.pending.Store(true)
			return fmt.Errorf("remap %s: %w", b.path, err)
		}
		m.close()
		b.src = fresh
	}

	if info, err := os.Stat(b.path); err == nil {
		b.fileSize = info.Size()
	}
	b.modified = false
	return nil
}

// IsSaving reports whether a background save is in flight. Non-blocking,
// safe to poll every frame.
func (b *Buffer) IsSaving() bool {
	return b.save.saving.Load()
}

// SaveProgress returns the save progress as 0-100. A failed save drops
// back to 0.
func (b *Buffer) SaveProgress() int {
	return int(b.save.progress.Load())
}

// SavePending reports whether a completed save awaits FinalizeSave.
func (b *Buffer) SavePending() bool {
	return b.save.pending.Load()
}

// LastSaveError returns the failure of the most recent save attempt, or
// nil. Cleared when a new save starts.
func (b *Buffer) LastSaveError() error {
	return b.save.getErr()
}

// LastSaveChecksum returns the xxhash64 digest of the bytes the last
// streaming save wrote, or 0 after a clone-path save.
func (b *Buffer) LastSaveChecksum() uint64 {
	return b.save.checksum.Load()
}
