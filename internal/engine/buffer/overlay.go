package buffer

import "sort"

// Edit records one whole-line replacement in original-file coordinates:
// OldLen bytes at Offset are superseded by NewText. The save engine merges
// edits into ascending, non-overlapping order before applying them.
type Edit struct {
	Offset  int64
	OldLen  int
	NewText string
}

// lengthPreserving reports whether the edit can be patched in place.
func (e Edit) lengthPreserving() bool {
	return len(e.NewText) == e.OldLen
}

// overlay is the sparse per-line patch table layered over the mapped view.
// Each entry fully replaces its line and carries the original span it
// supersedes, so the table doubles as the save engine's edit list.
type overlay struct {
	lines map[int]Edit
}

func newOverlay() *overlay {
	return &overlay{lines: make(map[int]Edit)}
}

// get returns the replacement text for the line, if any.
func (o *overlay) get(line int) (string, bool) {
	e, ok := o.lines[line]
	return e.NewText, ok
}

// set records a whole-line replacement. A second set for the same line
// keeps the original span and swaps the text.
func (o *overlay) set(line int, origOffset int64, origLen int, text string) {
	if prev, ok := o.lines[line]; ok {
		prev.NewText = text
		o.lines[line] = prev
		return
	}
	o.lines[line] = Edit{Offset: origOffset, OldLen: origLen, NewText: text}
}

func (o *overlay) count() int {
	return len(o.lines)
}

func (o *overlay) clear() {
	o.lines = make(map[int]Edit)
}

// merged returns the edit list sorted by ascending offset with overlapping
// or adjacent records coalesced into one spanning their union.
func (o *overlay) merged() []Edit {
	if len(o.lines) == 0 {
		return nil
	}
	edits := make([]Edit, 0, len(o.lines))
	for _, e := range o.lines {
		edits = append(edits, e)
	}
	sort.Slice(edits, func(i, j int) bool {
		return edits[i].Offset < edits[j].Offset
	})

	merged := edits[:1]
	for _, e := range edits[1:] {
		last := &merged[len(merged)-1]
		if e.Offset <= last.Offset+int64(last.OldLen) {
			span := e.Offset + int64(e.OldLen) - last.Offset
			if int64(last.OldLen) < span {
				last.OldLen = int(span)
			}
			last.NewText += e.NewText
			continue
		}
		merged = append(merged, e)
	}
	return merged
}

// allLengthPreserving reports whether every merged edit can be patched in
// place, the precondition for the copy-on-write save path.
func allLengthPreserving(edits []Edit) bool {
	for _, e := range edits {
		if !e.lengthPreserving() {
			return false
		}
	}
	return true
}
