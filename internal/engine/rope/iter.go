package rope

// chunkFrame tracks a position in the tree traversal for chunk iteration.
type chunkFrame struct {
	node     *node
	childIdx int // next child to visit (internal nodes)
	chunkIdx int // next chunk to visit (leaf nodes)
}

// ChunkIterator iterates over the chunks of a rope in document order.
// The iterator lets a writer stream rope content without ever building a
// contiguous copy of the text.
type ChunkIterator struct {
	stack   []chunkFrame
	started bool
	chunk   Chunk
}

// Chunks returns an iterator over all chunks in the rope.
func (r Rope) Chunks() *ChunkIterator {
	it := &ChunkIterator{stack: make([]chunkFrame, 0, 8)}
	if r.root != nil {
		it.stack = append(it.stack, chunkFrame{node: r.root})
	}
	return it
}

// Next advances to the next chunk.
// Returns false when iteration is complete.
func (it *ChunkIterator) Next() bool {
	if it.started && len(it.stack) > 0 {
		frame := &it.stack[len(it.stack)-1]
		if frame.node.isLeaf() {
			frame.chunkIdx++
		}
	}
	it.started = true

	for len(it.stack) > 0 {
		frame := &it.stack[len(it.stack)-1]
		n := frame.node

		if n.isLeaf() {
			if frame.chunkIdx < len(n.chunks) {
				it.chunk = n.chunks[frame.chunkIdx]
				return true
			}
			it.pop()
			continue
		}

		if frame.childIdx < len(n.children) {
			child := n.children[frame.childIdx]
			it.stack = append(it.stack, chunkFrame{node: child})
			continue
		}
		it.pop()
	}
	return false
}

func (it *ChunkIterator) pop() {
	it.stack = it.stack[:len(it.stack)-1]
	if len(it.stack) > 0 {
		it.stack[len(it.stack)-1].childIdx++
	}
}

// Chunk returns the current chunk.
func (it *ChunkIterator) Chunk() Chunk {
	return it.chunk
}

// LineIterator iterates over the lines of a rope.
// Each line includes its trailing newline, except possibly the last.
type LineIterator struct {
	rope Rope
	line int
	text string
	done bool
}

// Lines returns an iterator over all lines in the rope.
func (r Rope) Lines() *LineIterator {
	return &LineIterator{rope: r, line: -1}
}

// Next advances to the next line.
// Returns false when iteration is complete.
func (it *LineIterator) Next() bool {
	if it.done {
		return false
	}
	it.line++
	if it.line >= it.rope.LineCount() {
		it.done = true
		return false
	}
	it.text = it.rope.Line(it.line)
	return true
}

// Text returns the current line including its newline, if any.
func (it *LineIterator) Text() string {
	return it.text
}

// Line returns the current 0-indexed line number.
func (it *LineIterator) Line() int {
	return it.line
}
