package tree

import "fmt"

// Zipper is a cursor over a tree: the current node plus the path of
// ancestor ids leading to it. Navigation is O(1) per step.
type Zipper struct {
	tree    *Tree
	current NodeID
	path    []NodeID
}

// NewZipper positions a cursor at the tree's root.
func NewZipper(t *Tree) *Zipper {
	return &Zipper{tree: t, current: t.Root()}
}

func (z *Zipper) Current() NodeID {
	return z.current
}

func (z *Zipper) Node() (*Node, error) {
	return z.tree.Get(z.current)
}

// Up moves the cursor to the parent.
func (z *Zipper) Up() error {
	if len(z.path) == 0 {
		return fmt.Errorf("up from root: %w", ErrTreeStructure)
	}
	z.current = z.path[len(z.path)-1]
	z.path = z.path[:len(z.path)-1]
	return nil
}

// Down moves the cursor to the child at the given index.
func (z *Zipper) Down(childIndex int) error {
	node, err := z.Node()
	if err != nil {
		return err
	}
	if childIndex < 0 || childIndex >= len(node.Children) {
		return fmt.Errorf("down(%d): node has %d children: %w", childIndex, len(node.Children), ErrTreeStructure)
	}
	z.path = append(z.path, z.current)
	z.current = node.Children[childIndex]
	return nil
}

func (z *Zipper) NextSibling() error {
	return z.sibling(+1)
}

func (z *Zipper) PrevSibling() error {
	return z.sibling(-1)
}

func (z *Zipper) sibling(step int) error {
	if len(z.path) == 0 {
		return fmt.Errorf("sibling of root: %w", ErrTreeStructure)
	}
	parent, err := z.tree.Get(z.path[len(z.path)-1])
	if err != nil {
		return err
	}
	at := -1
	for i, child := range parent.Children {
		if child == z.current {
			at = i
			break
		}
	}
	if at < 0 {
		return fmt.Errorf("cursor not among parent's children: %w", ErrTreeStructure)
	}
	next := at + step
	if next < 0 || next >= len(parent.Children) {
		return fmt.Errorf("no sibling at %d: %w", next, ErrTreeStructure)
	}
	z.current = parent.Children[next]
	return nil
}

// ReplaceCurrent produces a new tree in which the current node is
// replaced by newNode. The path is copied: the replaced slot and every
// ancestor along the cursor path get fresh node values in the new
// tree, while all sibling subtrees are shared unchanged with the
// original. Node ids are preserved, so cursors and indexes built
// against the old tree resolve against the new one as well. The
// original tree is not modified.
func (z *Zipper) ReplaceCurrent(newNode *Node) (*Tree, error) {
	if newNode.Type == "" {
		return nil, fmt.Errorf("replace: %w", ErrInvalidNodeType)
	}
	old, err := z.Node()
	if err != nil {
		return nil, err
	}

	next := z.tree.Clone()

	replacement := newNode.Clone()
	replacement.Parent = old.Parent
	if err := next.Replace(z.current, replacement); err != nil {
		return nil, err
	}

	for i := len(z.path) - 1; i >= 0; i-- {
		ancestor, err := next.Get(z.path[i])
		if err != nil {
			return nil, err
		}
		if err := next.Replace(z.path[i], ancestor.Clone()); err != nil {
			return nil, err
		}
	}

	return next, nil
}
