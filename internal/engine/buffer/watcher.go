package buffer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// watchState tracks the optional on-disk change watcher. The watcher only
// raises a flag; it never mutates the buffer.
type watchState struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	done     chan struct{}
	external atomic.Bool
}

// StartWatcher begins watching the buffer's file for external writes.
// Changes made by the buffer's own save rename are not reported. Calling
// it again replaces the previous watcher.
func (b *Buffer) StartWatcher() error {
	b.mu.RLock()
	path := b.path
	b.mu.RUnlock()
	if path == "" {
		return ErrNoPath
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", path, err)
	}

	b.StopWatcher()
	b.watch.mu.Lock()
	b.watch.watcher = w
	b.watch.done = make(chan struct{})
	done := b.watch.done
	b.watch.mu.Unlock()

	go b.runWatcher(w, done)
	return nil
}

// runWatcher drains events until the watcher closes. Writes observed while
// one of our own saves is in flight or unfinalized are ours, not external.
func (b *Buffer) runWatcher(w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
				!ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
				continue
			}
			if b.IsSaving() || b.SavePending() {
				continue
			}
			b.watch.external.Store(true)
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

// StopWatcher stops the watcher, if one is running, and waits for its
// goroutine to exit.
func (b *Buffer) StopWatcher() {
	b.watch.mu.Lock()
	w := b.watch.watcher
	done := b.watch.done
	b.watch.watcher = nil
	b.watch.done = nil
	b.watch.mu.Unlock()

	if w == nil {
		return
	}
	w.Close()
	<-done
}

// ExternallyModified reports whether the file changed on disk outside this
// buffer since the flag was last cleared.
func (b *Buffer) ExternallyModified() bool {
	return b.watch.external.Load()
}

// ClearExternallyModified resets the external-change flag, typically after
// the caller reloads or decides to overwrite.
func (b *Buffer) ClearExternallyModified() {
	b.watch.external.Store(false)
}
