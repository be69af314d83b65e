// Package buffer owns file content for the editor core.
//
// A Buffer holds one open file in one of two representations. Small files
// load straight into a rope and every mutation edits the rope in place.
// Files at or past the mmap threshold are memory-mapped read-only; reads go
// through a line offset table with a bounded LRU line cache, and mutations
// are recorded as whole-line entries in a sparse overlay layered over the
// mapped bytes. The overlay always wins over the cache and the mapped view.
//
// The mapped representation escalates to a rope when an edit cannot be
// expressed as a single-line replacement or when the overlay grows past its
// limit. Escalation is one-directional; a buffer never returns to mapped
// mode except through a fresh Load.
//
// Saving runs on a background goroutine that captures its content before it
// starts, writes to <path>.tmp, and atomically renames over the original.
// Progress and completion are visible through atomic read handles safe to
// poll every frame. FinalizeSave reconciles the buffer with the saved file.
package buffer
