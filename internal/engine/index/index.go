package index

import "sort"

// Index is a structural index over a JSON text window: a flat list of typed
// nodes in single-scan discovery order. The ordering is load-bearing:
// sibling and ancestor queries rely on positional adjacency rather than an
// explicit tree.
type Index struct {
	nodes []Node
}

// openContainer tracks an unclosed object or array during the build scan.
type openContainer struct {
	id NodeID
}

// Build constructs an index from a token stream in one linear pass.
//
// An open bracket pushes a node with a provisional end (fixed on close) and
// parent set to the current stack top; leaf tokens become nodes parented to
// the stack top. After the scan, string children in even slots of an object
// are reclassified as keys, mirroring key/value pairing order.
func Build(tokens []Token) *Index {
	idx := &Index{}
	var stack []openContainer

	parentOf := func() NodeID {
		if len(stack) == 0 {
			return NoNode
		}
		return stack[len(stack)-1].id
	}

	for _, tok := range tokens {
		switch tok.Kind {
		case TokenBraceOpen, TokenBracketOpen:
			kind := KindObject
			if tok.Kind == TokenBracketOpen {
				kind = KindArray
			}
			id := len(idx.nodes)
			idx.nodes = append(idx.nodes, Node{
				Kind:   kind,
				Start:  tok.Start,
				End:    tok.End, // provisional until the close token
				Depth:  tok.Depth,
				Parent: parentOf(),
			})
			stack = append(stack, openContainer{id: id})

		case TokenBraceClose, TokenBracketClose:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				idx.nodes[top.id].End = tok.End
			}

		case TokenString, TokenNumber, TokenTrue, TokenFalse, TokenNull:
			var kind NodeKind
			switch tok.Kind {
			case TokenString:
				kind = KindString
			case TokenNumber:
				kind = KindNumber
			case TokenTrue, TokenFalse:
				kind = KindBoolean
			default:
				kind = KindNull
			}
			idx.nodes = append(idx.nodes, Node{
				Kind:   kind,
				Start:  tok.Start,
				End:    tok.End,
				Depth:  tok.Depth,
				Parent: parentOf(),
			})

		case TokenInvalid:
			idx.nodes = append(idx.nodes, Node{
				Kind:   KindError,
				Start:  tok.Start,
				End:    tok.End,
				Depth:  tok.Depth,
				Parent: parentOf(),
			})
		}
		// Whitespace, colons, and commas carry no node.
	}

	// Containers left open at end of input extend to the end of the
	// scanned range so children stay inside their parent's span.
	if len(stack) > 0 && len(tokens) > 0 {
		end := tokens[len(tokens)-1].End
		for _, open := range stack {
			if idx.nodes[open.id].End < end {
				idx.nodes[open.id].End = end
			}
		}
	}

	idx.classifyKeys()
	return idx
}

// BuildFromString tokenizes and indexes a text window in one call.
func BuildFromString(text string) *Index {
	return Build(NewTokenizer(text).Tokenize())
}

// classifyKeys retags even-ordinal string children of objects as keys.
func (idx *Index) classifyKeys() {
	for id := range idx.nodes {
		if idx.nodes[id].Kind != KindObject {
			continue
		}
		for ordinal, child := range idx.Children(id) {
			if ordinal%2 == 0 && idx.nodes[child].Kind == KindString {
				idx.nodes[child].Kind = KindKey
			}
		}
	}
}

// Len returns the number of nodes.
func (idx *Index) Len() int {
	return len(idx.nodes)
}

// IsEmpty reports whether the index holds no nodes.
func (idx *Index) IsEmpty() bool {
	return len(idx.nodes) == 0
}

// Nodes returns the flat node slice in discovery order.
// The slice is owned by the index; callers must not modify it.
func (idx *Index) Nodes() []Node {
	return idx.nodes
}

// Get returns the node with the given id.
func (idx *Index) Get(id NodeID) (Node, bool) {
	if id < 0 || id >= len(idx.nodes) {
		return Node{}, false
	}
	return idx.nodes[id], true
}

// NodeAt returns the innermost node containing the byte offset.
//
// Nodes are sorted by start offset, and a container precedes its children,
// so the innermost match is the last node starting at or before the offset
// whose span still covers it.
func (idx *Index) NodeAt(offset int64) (NodeID, bool) {
	// First node with Start > offset.
	hi := sort.Search(len(idx.nodes), func(i int) bool {
		return idx.nodes[i].Start > offset
	})
	for i := hi - 1; i >= 0; i-- {
		if idx.nodes[i].Contains(offset) {
			return i, true
		}
	}
	return NoNode, false
}

// NextSibling returns the nearest following node sharing the same depth and
// parent, stopping early when a shallower node signals that the enclosing
// container has ended.
func (idx *Index) NextSibling(id NodeID) (NodeID, bool) {
	node, ok := idx.Get(id)
	if !ok {
		return NoNode, false
	}
	for i := id + 1; i < len(idx.nodes); i++ {
		n := idx.nodes[i]
		if n.Depth == node.Depth && n.Parent == node.Parent {
			return i, true
		}
		if n.Depth < node.Depth {
			break
		}
	}
	return NoNode, false
}

// PrevSibling returns the nearest preceding node sharing the same depth and
// parent.
func (idx *Index) PrevSibling(id NodeID) (NodeID, bool) {
	node, ok := idx.Get(id)
	if !ok {
		return NoNode, false
	}
	for i := id - 1; i >= 0; i-- {
		n := idx.nodes[i]
		if n.Depth == node.Depth && n.Parent == node.Parent {
			return i, true
		}
		if n.Depth < node.Depth {
			break
		}
	}
	return NoNode, false
}

// Parent returns the parent of the given node.
func (idx *Index) Parent(id NodeID) (NodeID, bool) {
	node, ok := idx.Get(id)
	if !ok || node.Parent == NoNode {
		return NoNode, false
	}
	return node.Parent, true
}

// FirstChild returns the nearest following node whose parent is id and whose
// depth is exactly one greater.
func (idx *Index) FirstChild(id NodeID) (NodeID, bool) {
	node, ok := idx.Get(id)
	if !ok || !node.IsContainer() {
		return NoNode, false
	}
	for i := id + 1; i < len(idx.nodes); i++ {
		n := idx.nodes[i]
		if n.Start >= node.End {
			break
		}
		if n.Parent == id && n.Depth == node.Depth+1 {
			return i, true
		}
	}
	return NoNode, false
}

// Children returns the direct children of a container node, in order.
func (idx *Index) Children(id NodeID) []NodeID {
	node, ok := idx.Get(id)
	if !ok || !node.IsContainer() {
		return nil
	}
	var children []NodeID
	for i := id + 1; i < len(idx.nodes); i++ {
		n := idx.nodes[i]
		if n.Start >= node.End {
			break
		}
		if n.Depth == node.Depth+1 {
			children = append(children, i)
		}
	}
	return children
}

// isKey reports whether the node is an object key.
func (idx *Index) isKey(id NodeID) bool {
	return idx.nodes[id].Kind == KindKey
}

// isValue reports whether the node occupies a value position: a top-level
// node, an array element, or the value half of an object pair. An object
// child in key position that is not a string (malformed input) is neither
// key nor value.
func (idx *Index) isValue(id NodeID) bool {
	n := idx.nodes[id]
	if n.Kind == KindKey {
		return false
	}
	if n.Parent == NoNode {
		return true
	}
	parent := idx.nodes[n.Parent]
	switch parent.Kind {
	case KindArray:
		return true
	case KindObject:
		ordinal := 0
		for i := n.Parent + 1; i < id; i++ {
			c := idx.nodes[i]
			if c.Start >= parent.End {
				break
			}
			if c.Depth == parent.Depth+1 {
				ordinal++
			}
		}
		return ordinal%2 == 1
	}
	return false
}

// NextKey returns the first key node starting after the byte offset.
func (idx *Index) NextKey(offset int64) (NodeID, bool) {
	for i := range idx.nodes {
		if idx.nodes[i].Start > offset && idx.isKey(i) {
			return i, true
		}
	}
	return NoNode, false
}

// PrevKey returns the last key node starting before the byte offset.
func (idx *Index) PrevKey(offset int64) (NodeID, bool) {
	for i := len(idx.nodes) - 1; i >= 0; i-- {
		if idx.nodes[i].Start < offset && idx.isKey(i) {
			return i, true
		}
	}
	return NoNode, false
}

// NextValue returns the first value node starting after the byte offset.
func (idx *Index) NextValue(offset int64) (NodeID, bool) {
	for i := range idx.nodes {
		if idx.nodes[i].Start > offset && idx.isValue(i) {
			return i, true
		}
	}
	return NoNode, false
}

// PrevValue returns the last value node starting before the byte offset.
func (idx *Index) PrevValue(offset int64) (NodeID, bool) {
	for i := len(idx.nodes) - 1; i >= 0; i-- {
		if idx.nodes[i].Start < offset && idx.isValue(i) {
			return i, true
		}
	}
	return NoNode, false
}
