package tree

import "errors"

var (
	// ErrInvalidNodeID reports a NodeID that does not name a node in
	// this tree: index out of range or a stale generation.
	ErrInvalidNodeID = errors.New("invalid node id")

	// ErrInvalidNodeType reports a node appended without a type.
	ErrInvalidNodeType = errors.New("invalid node type")

	// ErrTreeStructure reports a violated parent/child invariant.
	ErrTreeStructure = errors.New("tree structure error")

	// ErrIndexNotBuilt reports a query against a QueryIndex before
	// Build was called.
	ErrIndexNotBuilt = errors.New("query index not built")
)
