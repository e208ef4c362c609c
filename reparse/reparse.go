// Package reparse rebuilds the edit-affected region of a block-shaped
// tree (root with one child per top-level unit) while sharing every
// unaffected child with the previous snapshot. Language backends whose
// trees have this shape implement their partial-reparse hook with it.
package reparse

import (
	"fmt"

	"github.com/dhamidi/synth/token"
	"github.com/dhamidi/synth/tokenizer"
	"github.com/dhamidi/synth/tree"
)

// Builder appends nodes for a run of tokens to t and returns their ids
// in document order. It must not link the nodes to a parent; RebuildTopLevel
// wires them under the root.
type Builder func(t *tree.Tree, tokens []token.Token) ([]tree.NodeID, error)

// RebuildTopLevel derives a new tree from prev for the given stream,
// rebuilding only the root children that overlap the affected token
// range. Children fully before the window keep their nodes and spans;
// children fully after it are shared by reference, so their recorded
// spans remain in pre-edit coordinates (the token stream, not the
// tree, is the authority for exact positions after an update).
func RebuildTopLevel(prev *tree.Tree, stream *token.Stream, rng tokenizer.Range, build Builder) (*tree.Tree, error) {
	next := prev.Clone()
	next.SetSource(stream.Source)

	root, err := next.Get(next.Root())
	if err != nil {
		return nil, fmt.Errorf("reparse: %w", err)
	}

	if len(stream.Tokens) == 0 {
		for _, child := range root.Children {
			if err := removeSubtree(next, child); err != nil {
				return nil, err
			}
		}
		empty := root.Clone()
		empty.Children = nil
		if err := next.Replace(next.Root(), empty); err != nil {
			return nil, err
		}
		return next, nil
	}

	rng = clampRange(rng, len(stream.Tokens))
	windowStart := stream.Tokens[rng.StartIndex].Span.Start.Offset
	windowEnd := stream.Tokens[rng.EndIndex].Span.End.Offset
	delta := len(stream.Source) - len(prev.Meta().Source)

	var prefix, affected, suffix []tree.NodeID
	for _, child := range root.Children {
		node, err := next.Get(child)
		if err != nil {
			return nil, fmt.Errorf("reparse: child: %w", err)
		}
		switch {
		case node.Span != nil && node.Span.End.Offset <= windowStart:
			prefix = append(prefix, child)
		case node.Span != nil && node.Span.Start.Offset >= windowEnd-delta:
			suffix = append(suffix, child)
		default:
			affected = append(affected, child)
		}
	}

	for _, id := range affected {
		if err := removeSubtree(next, id); err != nil {
			return nil, err
		}
	}

	rebuilt, err := build(next, stream.Tokens[rng.StartIndex:rng.EndIndex+1])
	if err != nil {
		return nil, err
	}
	for _, id := range rebuilt {
		node, err := next.Get(id)
		if err != nil {
			return nil, err
		}
		node.Parent = next.Root()
	}

	children := make([]tree.NodeID, 0, len(prefix)+len(rebuilt)+len(suffix))
	children = append(children, prefix...)
	children = append(children, rebuilt...)
	children = append(children, suffix...)

	newRoot := root.Clone()
	newRoot.Children = children
	if err := next.Replace(next.Root(), newRoot); err != nil {
		return nil, err
	}
	return next, nil
}

func removeSubtree(t *tree.Tree, id tree.NodeID) error {
	node, err := t.Get(id)
	if err != nil {
		return err
	}
	for _, child := range node.Children {
		if err := removeSubtree(t, child); err != nil {
			return err
		}
	}
	return t.Remove(id)
}

func clampRange(rng tokenizer.Range, n int) tokenizer.Range {
	if rng.StartIndex < 0 {
		rng.StartIndex = 0
	}
	if rng.EndIndex >= n {
		rng.EndIndex = n - 1
	}
	if rng.EndIndex < rng.StartIndex {
		rng.EndIndex = rng.StartIndex
	}
	return rng
}
