package rope

import "strings"

// Tree structure constants.
const (
	// MaxChildren is the maximum children per internal node before splitting.
	MaxChildren = 8

	// MaxChunksPerLeaf is the maximum chunks in a leaf node.
	MaxChunksPerLeaf = 4
)

// node is a node in the rope B+ tree. Leaf nodes (height == 0) hold text
// chunks; internal nodes hold child references plus per-child summaries so
// seeks can skip whole subtrees.
type node struct {
	height         uint8
	summary        Summary
	children       []*node   // internal nodes only
	childSummaries []Summary // parallel to children
	chunks         []Chunk   // leaf nodes only
}

func newLeaf() *node {
	return &node{chunks: make([]Chunk, 0, MaxChunksPerLeaf)}
}

func newLeafWithChunks(chunks []Chunk) *node {
	n := &node{chunks: chunks}
	for _, c := range chunks {
		n.summary = n.summary.Add(c.Summary())
	}
	return n
}

func newInternal(children []*node) *node {
	if len(children) == 0 {
		return newLeaf()
	}
	n := &node{
		height:         children[0].height + 1,
		children:       children,
		childSummaries: make([]Summary, len(children)),
	}
	for i, child := range children {
		n.childSummaries[i] = child.summary
		n.summary = n.summary.Add(child.summary)
	}
	return n
}

func (n *node) isLeaf() bool {
	return n.height == 0
}

func (n *node) len() ByteOffset {
	return n.summary.Bytes
}

func (n *node) appendTo(sb *strings.Builder) {
	if n.isLeaf() {
		for _, c := range n.chunks {
			sb.WriteString(c.String())
		}
		return
	}
	for _, child := range n.children {
		child.appendTo(sb)
	}
}

// appendRange appends text in the byte range [start, end) to the builder.
func (n *node) appendRange(sb *strings.Builder, start, end ByteOffset) {
	if start >= end {
		return
	}

	if n.isLeaf() {
		offset := ByteOffset(0)
		for _, c := range n.chunks {
			chunkEnd := offset + ByteOffset(c.Len())
			if chunkEnd <= start {
				offset = chunkEnd
				continue
			}
			if offset >= end {
				break
			}
			lo := 0
			if start > offset {
				lo = int(start - offset)
			}
			hi := c.Len()
			if end < chunkEnd {
				hi = int(end - offset)
			}
			sb.WriteString(c.String()[lo:hi])
			offset = chunkEnd
		}
		return
	}

	offset := ByteOffset(0)
	for i, child := range n.children {
		childEnd := offset + n.childSummaries[i].Bytes
		if childEnd <= start {
			offset = childEnd
			continue
		}
		if offset >= end {
			break
		}
		childStart := ByteOffset(0)
		if start > offset {
			childStart = start - offset
		}
		childStop := n.childSummaries[i].Bytes
		if end < childEnd {
			childStop = end - offset
		}
		child.appendRange(sb, childStart, childStop)
		offset = childEnd
	}
}

// split splits the node at the given byte offset into [0, offset) and
// [offset, end).
func (n *node) split(offset ByteOffset) (*node, *node) {
	if offset <= 0 {
		return newLeaf(), n
	}
	if offset >= n.len() {
		return n, newLeaf()
	}

	if n.isLeaf() {
		var left, right []Chunk
		pos := ByteOffset(0)
		for _, c := range n.chunks {
			chunkLen := ByteOffset(c.Len())
			switch {
			case pos+chunkLen <= offset:
				left = append(left, c)
			case pos >= offset:
				right = append(right, c)
			default:
				l, r := c.Split(int(offset - pos))
				if !l.IsEmpty() {
					left = append(left, l)
				}
				if !r.IsEmpty() {
					right = append(right, r)
				}
			}
			pos += chunkLen
		}
		return newLeafWithChunks(left), newLeafWithChunks(right)
	}

	var left, right []*node
	pos := ByteOffset(0)
	for i, child := range n.children {
		childLen := n.childSummaries[i].Bytes
		switch {
		case pos+childLen <= offset:
			left = append(left, child)
		case pos >= offset:
			right = append(right, child)
		default:
			l, r := child.split(offset - pos)
			if l.len() > 0 {
				left = append(left, l)
			}
			if r.len() > 0 {
				right = append(right, r)
			}
		}
		pos += childLen
	}
	return buildFromNodes(left), buildFromNodes(right)
}

// buildFromNodes creates a balanced tree from a list of subtrees of equal or
// mixed height. Heights are equal in practice because callers pass siblings.
func buildFromNodes(nodes []*node) *node {
	switch len(nodes) {
	case 0:
		return newLeaf()
	case 1:
		return nodes[0]
	}
	if len(nodes) <= MaxChildren {
		return newInternal(nodes)
	}

	var parents []*node
	for i := 0; i < len(nodes); i += MaxChildren {
		end := i + MaxChildren
		if end > len(nodes) {
			end = len(nodes)
		}
		parents = append(parents, newInternal(nodes[i:end]))
	}
	return buildFromNodes(parents)
}

// concatNodes concatenates two subtrees.
func concatNodes(left, right *node) *node {
	if left == nil || left.len() == 0 {
		if right == nil {
			return newLeaf()
		}
		return right
	}
	if right == nil || right.len() == 0 {
		return left
	}

	if left.isLeaf() && right.isLeaf() {
		return concatLeaves(left, right)
	}

	for left.height < right.height {
		left = newInternal([]*node{left})
	}
	for right.height < left.height {
		right = newInternal([]*node{right})
	}

	if left.isLeaf() {
		return concatLeaves(left, right)
	}

	all := make([]*node, 0, len(left.children)+len(right.children))
	all = append(all, left.children...)
	all = append(all, right.children...)
	return buildFromNodes(all)
}

func concatLeaves(left, right *node) *node {
	total := len(left.chunks) + len(right.chunks)
	if total <= MaxChunksPerLeaf {
		chunks := make([]Chunk, 0, total)
		chunks = append(chunks, left.chunks...)
		chunks = append(chunks, right.chunks...)
		return newLeafWithChunks(chunks)
	}
	return newInternal([]*node{left, right})
}

// findChildByOffset finds the child containing the given byte offset.
// Returns the child index and the offset within that child.
func (n *node) findChildByOffset(offset ByteOffset) (int, ByteOffset) {
	pos := ByteOffset(0)
	for i, summary := range n.childSummaries {
		if pos+summary.Bytes > offset {
			return i, offset - pos
		}
		pos += summary.Bytes
	}
	last := len(n.children) - 1
	return last, offset - (n.summary.Bytes - n.childSummaries[last].Bytes)
}
