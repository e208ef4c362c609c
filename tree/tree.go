// Package tree provides arena-based AST storage with stable node ids,
// a zipper for path-copying updates, and a type-indexed query layer.
package tree

import (
	"fmt"
	"time"
)

// Metadata describes the source a tree was built from. Timestamps are
// milliseconds since epoch.
type Metadata struct {
	Language string
	Source   string
	Created  int64
	Modified int64
}

type slot struct {
	node *Node
	gen  uint32
	dead bool
}

// Tree is an append-only arena of nodes. Nodes are never relocated;
// removal leaves a tombstone so ids held by other structures (zipper
// paths, query indexes) stay resolvable. A Tree produced by Clone
// shares node storage with its original but owns its occupancy
// bookkeeping, so tombstoning in one snapshot never affects another.
type Tree struct {
	meta  Metadata
	root  NodeID
	slots []slot
	live  int
}

// New creates a tree containing a single "root" node.
func New(language, source string) *Tree {
	now := time.Now().UnixMilli()
	t := &Tree{
		meta: Metadata{
			Language: language,
			Source:   source,
			Created:  now,
			Modified: now,
		},
	}
	root, _ := t.Append(NewNode("root"))
	t.root = root
	return t
}

func (t *Tree) Meta() Metadata {
	return t.meta
}

func (t *Tree) Root() NodeID {
	return t.root
}

// NodeCount returns the number of live (non-tombstoned) nodes.
func (t *Tree) NodeCount() int {
	return t.live
}

// Append adds a node to the arena and returns its id. O(1).
func (t *Tree) Append(node *Node) (NodeID, error) {
	if node.Type == "" {
		return NodeID{}, fmt.Errorf("append node: %w", ErrInvalidNodeType)
	}
	id := NodeID{Index: uint32(len(t.slots)), Gen: 1}
	node.ID = id
	t.slots = append(t.slots, slot{node: node, gen: id.Gen})
	t.live++
	t.meta.Modified = time.Now().UnixMilli()
	return id, nil
}

// Get returns the node named by id. Tombstoned nodes are still
// returned; use Removed to check occupancy.
func (t *Tree) Get(id NodeID) (*Node, error) {
	s, err := t.slot(id)
	if err != nil {
		return nil, err
	}
	return s.node, nil
}

// Removed reports whether id names a tombstoned node.
func (t *Tree) Removed(id NodeID) bool {
	s, err := t.slot(id)
	return err == nil && s.dead
}

// Remove tombstones a node in O(1). The arena does not cascade: parent
// and sibling links of neighbors are the caller's responsibility.
func (t *Tree) Remove(id NodeID) error {
	s, err := t.slot(id)
	if err != nil {
		return err
	}
	if !s.dead {
		s.dead = true
		t.live--
		t.meta.Modified = time.Now().UnixMilli()
	}
	return nil
}

// AddChild links child under parent, appending to the parent's child
// list and setting the child's parent pointer.
func (t *Tree) AddChild(parent, child NodeID) error {
	p, err := t.Get(parent)
	if err != nil {
		return fmt.Errorf("add child: parent: %w", err)
	}
	c, err := t.Get(child)
	if err != nil {
		return fmt.Errorf("add child: child: %w", err)
	}
	if parent == child {
		return fmt.Errorf("add child: node %v cannot parent itself: %w", parent, ErrTreeStructure)
	}
	c.Parent = parent
	p.Children = append(p.Children, child)
	return nil
}

// Clone returns a snapshot sharing every node value with t. Appends,
// removals and node replacement on either tree are invisible to the
// other.
func (t *Tree) Clone() *Tree {
	slots := make([]slot, len(t.slots))
	copy(slots, t.slots)
	return &Tree{
		meta:  t.meta,
		root:  t.root,
		slots: slots,
		live:  t.live,
	}
}

// SetSource updates the source text this tree describes. Used by
// backends when deriving a snapshot for an edited document.
func (t *Tree) SetSource(source string) {
	t.meta.Source = source
	t.meta.Modified = time.Now().UnixMilli()
}

// Replace swaps the node stored in id's slot, keeping the id valid so
// structures holding it follow the update. Callers building a derived
// snapshot Clone first and replace in the clone; this is the primitive
// behind the zipper's path copying.
func (t *Tree) Replace(id NodeID, node *Node) error {
	s, err := t.slot(id)
	if err != nil {
		return err
	}
	node.ID = id
	s.node = node
	t.meta.Modified = time.Now().UnixMilli()
	return nil
}

func (t *Tree) slot(id NodeID) (*slot, error) {
	if !id.Valid() || int(id.Index) >= len(t.slots) {
		return nil, fmt.Errorf("node %d@%d: %w", id.Index, id.Gen, ErrInvalidNodeID)
	}
	s := &t.slots[id.Index]
	if s.gen != id.Gen {
		return nil, fmt.Errorf("node %d@%d: stale generation (slot at %d): %w", id.Index, id.Gen, s.gen, ErrInvalidNodeID)
	}
	return s, nil
}

// Walk calls fn for every live node in depth-first document order,
// starting at the root. Walking stops when fn returns false.
func (t *Tree) Walk(fn func(*Node) bool) {
	t.walkFrom(t.root, fn)
}

func (t *Tree) walkFrom(id NodeID, fn func(*Node) bool) bool {
	s, err := t.slot(id)
	if err != nil || s.dead {
		return true
	}
	if !fn(s.node) {
		return false
	}
	for _, child := range s.node.Children {
		if !t.walkFrom(child, fn) {
			return false
		}
	}
	return true
}
