package buffer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitSave blocks until the background save goroutine has finished.
func waitSave(t *testing.T, b *Buffer) {
	t.Helper()
	require.Eventually(t, func() bool { return !b.IsSaving() },
		5*time.Second, time.Millisecond)
}

func TestSaveRopeRoundTrip(t *testing.T) {
	path := writeTemp(t, "hello world\nsecond line\n")
	b := New()
	require.NoError(t, b.Load(path))
	defer b.Close()

	require.NoError(t, b.Insert(5, ", big"))
	require.NoError(t, b.Delete(17, 24))
	want := b.GetVisibleLines(0, b.LineCount())

	require.NoError(t, b.Save())
	waitSave(t, b)
	require.NoError(t, b.LastSaveError())
	require.True(t, b.SavePending())
	assert.Equal(t, progressDone, b.SaveProgress())

	require.NoError(t, b.FinalizeSave())
	assert.False(t, b.IsModified())
	assert.False(t, b.SavePending())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))
	assert.Equal(t, xxhash.Sum64(data), b.LastSaveChecksum())
}

func TestSaveMappedRoundTrip(t *testing.T) {
	path := writeTemp(t, "aaa\nbbb\nccc\n")
	b := New(WithMmapThreshold(1))
	require.NoError(t, b.Load(path))
	defer b.Close()

	// A length-changing edit keeps this off the clone path.
	require.NoError(t, b.Insert(4, "XX"))
	require.NoError(t, b.Replace(8, 11, "C"))
	want := b.GetVisibleLines(0, b.LineCount())

	require.NoError(t, b.Save())
	waitSave(t, b)
	require.NoError(t, b.LastSaveError())
	require.NoError(t, b.FinalizeSave())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "aaa\nXXbbb\nC\n", string(data))
	assert.Equal(t, want, string(data))

	// The remapped buffer reads the saved bytes with a clean overlay.
	require.True(t, b.IsMapped())
	assert.Equal(t, "XXbbb\n", b.GetLine(1))
	m := b.src.(*mappedSource)
	assert.Equal(t, 0, m.overlay.count())
	assert.Equal(t, 0, m.cache.len())
}

func TestSaveMappedLengthPreserving(t *testing.T) {
	path := writeTemp(t, "aaa\nbbb\nccc\n")
	b := New(WithMmapThreshold(1))
	require.NoError(t, b.Load(path))
	defer b.Close()

	// Length-preserving edits may take the clone path where the
	// filesystem supports it; either strategy must produce these bytes.
	require.NoError(t, b.Replace(0, 3, "AAA"))
	require.NoError(t, b.Replace(8, 11, "CCC"))

	require.NoError(t, b.Save())
	waitSave(t, b)
	require.NoError(t, b.LastSaveError())
	require.NoError(t, b.FinalizeSave())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AAA\nbbb\nCCC\n", string(data))
}

func TestSaveUnmodifiedMapped(t *testing.T) {
	path := writeTemp(t, "aaa\nbbb\n")
	b := New(WithMmapThreshold(1))
	require.NoError(t, b.Load(path))
	defer b.Close()

	require.NoError(t, b.Save())
	waitSave(t, b)
	require.NoError(t, b.LastSaveError())
	require.NoError(t, b.FinalizeSave())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "aaa\nbbb\n", string(data))
}

func TestSaveWhileSaving(t *testing.T) {
	b := loadRope(t, "content")

	b.save.saving.Store(true)
	assert.ErrorIs(t, b.Save(), ErrSaveInProgress)
	assert.ErrorIs(t, b.FinalizeSave(), ErrSaveInProgress)
	b.save.saving.Store(false)
}

func TestLoadWhileSaving(t *testing.T) {
	b := loadRope(t, "content")
	other := writeTemp(t, "other file\n")

	// The in-flight writer would otherwise flag its completion against
	// content from a different file.
	b.save.saving.Store(true)
	assert.ErrorIs(t, b.Load(other), ErrSaveInProgress)
	b.save.saving.Store(false)

	require.NoError(t, b.Load(other))
	assert.Equal(t, "other file\n", b.GetLine(0))
}

func TestSaveFailureLeavesOriginal(t *testing.T) {
	path := writeTemp(t, "precious bytes\n")
	b := New()
	require.NoError(t, b.Load(path))
	defer b.Close()
	require.NoError(t, b.Insert(0, "edited "))

	// A directory squatting on the scratch path makes creation fail
	// before the original is ever touched.
	require.NoError(t, os.Mkdir(path+".tmp", 0o755))

	require.NoError(t, b.Save())
	waitSave(t, b)
	assert.Error(t, b.LastSaveError())
	assert.Equal(t, 0, b.SaveProgress())
	assert.False(t, b.SavePending())
	assert.ErrorIs(t, b.FinalizeSave(), ErrNoPendingSave)
	assert.True(t, b.IsModified())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "precious bytes\n", string(data))
}

func TestSaveAs(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "orig.json")
	require.NoError(t, os.WriteFile(orig, []byte("aaa\nbbb\n"), 0o644))

	b := New(WithMmapThreshold(1))
	require.NoError(t, b.Load(orig))
	defer b.Close()
	require.NoError(t, b.Replace(0, 3, "zzz"))

	dest := filepath.Join(dir, "copy.json")
	require.NoError(t, b.SaveAs(dest))
	waitSave(t, b)
	require.NoError(t, b.LastSaveError())
	require.NoError(t, b.FinalizeSave())

	assert.Equal(t, dest, b.Path())
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "zzz\nbbb\n", string(data))

	// The original still holds its pre-save bytes.
	data, err = os.ReadFile(orig)
	require.NoError(t, err)
	assert.Equal(t, "aaa\nbbb\n", string(data))

	assert.ErrorIs(t, b.SaveAs(""), ErrNoPath)
}

func TestFinalizeWithoutSave(t *testing.T) {
	b := loadRope(t, "content")
	assert.ErrorIs(t, b.FinalizeSave(), ErrNoPendingSave)
}

func TestEditsDuringSaveInvisibleToIt(t *testing.T) {
	path := writeTemp(t, "line one\nline two\n")
	b := New()
	require.NoError(t, b.Load(path))
	defer b.Close()

	require.NoError(t, b.Insert(0, "A"))
	require.NoError(t, b.Save())

	// This edit lands after the save captured its rope value. Whether the
	// writer has finished or not, the saved file must not contain it.
	require.NoError(t, b.Insert(0, "B"))
	waitSave(t, b)
	require.NoError(t, b.LastSaveError())
	require.NoError(t, b.FinalizeSave())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Aline one\nline two\n", string(data))
	assert.Equal(t, "BAline one\nline two\n", b.GetVisibleLines(0, 10))
}

func TestSaveRoundTripAfterEscalation(t *testing.T) {
	path := writeTemp(t, "aaa\nbbb\nccc\n")
	b := New(WithMmapThreshold(1))
	require.NoError(t, b.Load(path))
	defer b.Close()

	require.NoError(t, b.Replace(4, 7, "BBB"))
	require.NoError(t, b.Delete(0, 4)) // multi-line, escalates
	require.False(t, b.IsMapped())
	want := b.GetVisibleLines(0, b.LineCount())

	require.NoError(t, b.Save())
	waitSave(t, b)
	require.NoError(t, b.LastSaveError())
	require.NoError(t, b.FinalizeSave())

	reloaded := New()
	require.NoError(t, reloaded.Load(path))
	defer reloaded.Close()
	assert.Equal(t, want, reloaded.GetVisibleLines(0, reloaded.LineCount()))
	assert.Equal(t, "BBB\nccc\n", want)
}

func TestWatcherExternalModify(t *testing.T) {
	path := writeTemp(t, "watched\n")
	b := New()
	require.NoError(t, b.Load(path))
	defer b.Close()

	require.NoError(t, b.StartWatcher())
	assert.False(t, b.ExternallyModified())

	require.NoError(t, os.WriteFile(path, []byte("intruder\n"), 0o644))
	require.Eventually(t, b.ExternallyModified, 5*time.Second, time.Millisecond)

	b.ClearExternallyModified()
	assert.False(t, b.ExternallyModified())
}
