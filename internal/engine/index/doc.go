// Package index tokenizes JSON text and builds a navigable structural index
// over it.
//
// The index is a flat slice of typed byte-range nodes in discovery order,
// built by a single left-to-right scan over the token stream. Tree-shaped
// queries (parent, siblings, children, key/value hops) are answered by
// positional scanning over that slice rather than pointer links, so node ids
// are plain slice indices and are invalidated whenever the index is rebuilt.
//
// The tokenizer and index operate on whatever window of text the caller
// provides; callers working with large documents typically index an expanding
// prefix and rebuild as the window grows or the content changes.
package index
