package tree

import "github.com/dhamidi/synth/text"

// NodeID names a node in a tree's arena. The generation counter is
// assigned when the slot is filled, so an id held across tree rebuilds
// can be detected as stale instead of silently aliasing another node.
// The zero NodeID is never valid.
type NodeID struct {
	Index uint32
	Gen   uint32
}

func (id NodeID) Valid() bool {
	return id.Gen != 0
}

// Node is a single AST node. Children are in document order; sibling
// spans are non-decreasing in offset.
type Node struct {
	ID       NodeID
	Type     string
	Parent   NodeID
	Children []NodeID
	Span     *text.Span
	Data     map[string]any
}

func NewNode(nodeType string) *Node {
	return &Node{Type: nodeType}
}

func (n *Node) WithSpan(span text.Span) *Node {
	n.Span = &span
	return n
}

func (n *Node) WithData(key string, value any) *Node {
	if n.Data == nil {
		n.Data = make(map[string]any)
	}
	n.Data[key] = value
	return n
}

// Clone returns a copy of n with its own children slice and data map.
func (n *Node) Clone() *Node {
	out := *n
	out.Children = append([]NodeID(nil), n.Children...)
	if n.Data != nil {
		out.Data = make(map[string]any, len(n.Data))
		for k, v := range n.Data {
			out.Data[k] = v
		}
	}
	return &out
}
