package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/jive/internal/config"
	"github.com/dshills/jive/internal/engine/buffer"
	"github.com/dshills/jive/internal/engine/index"
)

// Errors returned by application operations.
var (
	ErrNotOpen      = errors.New("no document open")
	ErrPathNotFound = errors.New("query path not found")
)

// Application wires the storage core, the structural index, and the
// configuration into the surface the command layer consumes.
type Application struct {
	cfg     config.Config
	log     *Logger
	buf     *buffer.Buffer
	idx     *index.Index
	logFile *os.File
}

// New builds an application from configuration. The logger writes to the
// configured path, or stderr when none is set.
func New(cfg config.Config) (*Application, error) {
	a := &Application{cfg: cfg}

	logCfg := DefaultLoggerConfig()
	logCfg.Level = ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Path != "" {
		f, err := os.OpenFile(cfg.Log.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log %s: %w", cfg.Log.Path, err)
		}
		a.logFile = f
		logCfg.Output = f
	}
	a.log = NewLogger(logCfg)
	return a, nil
}

// Logger returns the application logger.
func (a *Application) Logger() *Logger {
	if a.log == nil {
		return NullLogger
	}
	return a.log
}

// Open loads the file into a buffer configured from the application
// settings and builds the initial structural index.
func (a *Application) Open(path string) error {
	buf := buffer.New(
		buffer.WithMmapThreshold(a.cfg.Buffer.MmapThreshold),
		buffer.WithCacheLines(a.cfg.Buffer.CacheLines),
		buffer.WithOverlayLimit(a.cfg.Buffer.OverlayLimit),
		buffer.WithWriterSize(a.cfg.Save.WriterSize),
	)
	start := time.Now()
	if err := buf.Load(path); err != nil {
		return err
	}
	a.buf = buf
	a.log.WithComponent("buffer").Info("opened %s: %d bytes, %d lines, mapped=%v in %s",
		path, buf.Len(), buf.LineCount(), buf.IsMapped(), time.Since(start).Round(time.Millisecond))

	a.RebuildIndex()
	return nil
}

// Buffer returns the open buffer, or nil.
func (a *Application) Buffer() *buffer.Buffer {
	return a.buf
}

// Index returns the current structural index, or nil before Open.
func (a *Application) Index() *index.Index {
	return a.idx
}

// Document materializes the full logical content with overlay precedence
// applied. O(content size); the command surface uses it for whole-document
// queries, not the interactive path.
func (a *Application) Document() string {
	if a.buf == nil {
		return ""
	}
	return a.buf.GetVisibleLines(0, a.buf.LineCount())
}

// RebuildIndex re-tokenizes the document and replaces the index. Node ids
// from the previous index are invalid afterwards.
func (a *Application) RebuildIndex() *index.Index {
	if a.buf == nil {
		return nil
	}
	start := time.Now()
	a.idx = index.BuildFromString(a.Document())
	a.log.WithComponent("index").Debug("rebuilt: %d nodes in %s",
		a.idx.Len(), time.Since(start).Round(time.Microsecond))
	return a.idx
}

// Stat describes the open document for status display.
type Stat struct {
	Path     string
	Bytes    int64
	Lines    int
	Mapped   bool
	Modified bool
	Nodes    int
}

// Stat returns the document status.
func (a *Application) Stat() (Stat, error) {
	if a.buf == nil {
		return Stat{}, ErrNotOpen
	}
	s := Stat{
		Path:     a.buf.Path(),
		Bytes:    a.buf.Len(),
		Lines:    a.buf.LineCount(),
		Mapped:   a.buf.IsMapped(),
		Modified: a.buf.IsModified(),
	}
	if a.idx != nil {
		s.Nodes = a.idx.Len()
	}
	return s, nil
}

// NodeChain returns the innermost node containing the byte offset followed
// by its ancestors up to the root. Empty when no node contains the offset.
func (a *Application) NodeChain(offset int64) []index.Node {
	if a.idx == nil {
		return nil
	}
	var chain []index.Node
	id, ok := a.idx.NodeAt(offset)
	for ok {
		n, found := a.idx.Get(id)
		if !found {
			break
		}
		chain = append(chain, n)
		id, ok = a.idx.Parent(id)
	}
	return chain
}

// Query evaluates a gjson path against the document and returns the raw
// JSON of the match.
func (a *Application) Query(path string) (string, error) {
	if a.buf == nil {
		return "", ErrNotOpen
	}
	res := gjson.Get(a.Document(), path)
	if !res.Exists() {
		return "", fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	return res.Raw, nil
}

// Set writes raw JSON at a sjson path, replaces the document content, and
// rebuilds the index. The caller decides when to save.
func (a *Application) Set(path, rawValue string) error {
	if a.buf == nil {
		return ErrNotOpen
	}
	doc, err := sjson.SetRaw(a.Document(), path, rawValue)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	if err := a.buf.Replace(0, a.buf.Len(), doc); err != nil {
		return err
	}
	a.RebuildIndex()
	return nil
}

// SaveSync runs a full save cycle: spawn, wait for the background writer,
// surface its error, finalize. Used by the command surface where blocking
// is fine.
func (a *Application) SaveSync() error {
	if a.buf == nil {
		return ErrNotOpen
	}
	start := time.Now()
	if err := a.buf.Save(); err != nil {
		return err
	}
	for a.buf.IsSaving() {
		time.Sleep(time.Millisecond)
	}
	if err := a.buf.LastSaveError(); err != nil {
		return err
	}
	if err := a.buf.FinalizeSave(); err != nil {
		return err
	}
	a.log.WithComponent("save").Info("saved %s: %d bytes in %s",
		a.buf.Path(), a.buf.Len(), time.Since(start).Round(time.Millisecond))
	return nil
}

// Watch starts the external-change watcher on the open document.
func (a *Application) Watch() error {
	if a.buf == nil {
		return ErrNotOpen
	}
	return a.buf.StartWatcher()
}

// Close releases the buffer and the log file.
func (a *Application) Close() error {
	var err error
	if a.buf != nil {
		err = a.buf.Close()
		a.buf = nil
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
	return err
}
