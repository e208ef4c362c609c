package tree

import "fmt"

// QueryIndex maps node types to ids for one tree snapshot. It is built
// on demand and never auto-invalidates: after replacing a tree, build
// a new index against the new snapshot.
type QueryIndex struct {
	tree   *Tree
	byType map[string][]NodeID
	built  bool
}

func NewQueryIndex(t *Tree) *QueryIndex {
	return &QueryIndex{tree: t}
}

// Build populates the index by walking the tree in document order.
func (q *QueryIndex) Build() {
	q.byType = make(map[string][]NodeID)
	q.tree.Walk(func(n *Node) bool {
		q.byType[n.Type] = append(q.byType[n.Type], n.ID)
		return true
	})
	q.built = true
}

// NodesOfType returns the ids of every node with the given type, in
// document order. Fails before Build is called.
func (q *QueryIndex) NodesOfType(nodeType string) ([]NodeID, error) {
	if !q.built {
		return nil, fmt.Errorf("query %q: %w", nodeType, ErrIndexNotBuilt)
	}
	return q.byType[nodeType], nil
}

// CountOfType returns how many nodes have the given type.
func (q *QueryIndex) CountOfType(nodeType string) (int, error) {
	ids, err := q.NodesOfType(nodeType)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
