package index

// NodeKind identifies the syntactic class of an indexed span.
type NodeKind uint8

const (
	KindObject  NodeKind = iota // {}
	KindArray                   // []
	KindString                  // "..." in value position
	KindNumber                  // 123, 12.34
	KindBoolean                 // true, false
	KindNull                    // null
	KindKey                     // object key string
	KindUnknown                 // not yet classified
	KindError                   // malformed span
)

// String returns a readable name for the node kind.
func (k NodeKind) String() string {
	switch k {
	case KindObject:
		return "Object"
	case KindArray:
		return "Array"
	case KindString:
		return "String"
	case KindNumber:
		return "Number"
	case KindBoolean:
		return "Boolean"
	case KindNull:
		return "Null"
	case KindKey:
		return "Key"
	case KindError:
		return "Error"
	default:
		return "Unknown"
	}
}

// NodeID identifies a node by its position in the index's flat node slice.
// IDs are invalidated whenever the index is rebuilt.
type NodeID = int

// NoNode is the absent node id. "No parent" and "no such sibling" are normal
// structural facts, not errors.
const NoNode NodeID = -1

// Node describes a typed byte span. Start is inclusive, End exclusive.
// A node's range is contained within its parent's range, and siblings at the
// same depth never overlap.
type Node struct {
	Kind   NodeKind
	Start  int64
	End    int64
	Depth  int
	Parent NodeID
}

// Contains reports whether the byte offset falls inside the node's span.
func (n Node) Contains(offset int64) bool {
	return offset >= n.Start && offset < n.End
}

// Len returns the byte length of the node's span.
func (n Node) Len() int64 {
	return n.End - n.Start
}

// IsContainer reports whether the node is an object or array.
func (n Node) IsContainer() bool {
	return n.Kind == KindObject || n.Kind == KindArray
}

// IsLeaf reports whether the node is a scalar value or key.
func (n Node) IsLeaf() bool {
	switch n.Kind {
	case KindString, KindNumber, KindBoolean, KindNull, KindKey:
		return true
	}
	return false
}
