// Package rope provides an immutable rope data structure for efficient text
// storage and manipulation.
//
// A rope is a B+ tree where leaf nodes contain text chunks and internal nodes
// store aggregated metrics (byte count, newline count). Operations return new
// Rope values; the original is never modified, which makes snapshots cheap and
// lets a background writer stream a captured rope while the owner keeps
// editing a new one.
//
// Basic usage:
//
//	r := rope.FromString("hello world")
//	r = r.Insert(5, ",")           // "hello, world"
//	r = r.Delete(0, 6)             // "world"
//	text := r.String()             // "world"
//
// Line addressing is answered from the aggregated metrics in O(log n) without
// materializing text.
package rope
