// Package format renders trees and token streams for the CLI.
package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/synth/tree"
)

type TreeJSONEncoder struct {
	w io.Writer
}

func NewTreeJSONEncoder(w io.Writer) *TreeJSONEncoder {
	return &TreeJSONEncoder{w: w}
}

func (e *TreeJSONEncoder) Encode(t *tree.Tree) error {
	text, err := e.MarshalText(t)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *TreeJSONEncoder) MarshalText(t *tree.Tree) ([]byte, error) {
	root, err := nodeToJSON(t, t.Root())
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(root, "", "  ")
}

type treeJSONNode struct {
	Type     string          `json:"type"`
	Span     *treeJSONSpan   `json:"span,omitempty"`
	Data     map[string]any  `json:"data,omitempty"`
	Children []*treeJSONNode `json:"children,omitempty"`
}

type treeJSONSpan struct {
	Start treeJSONPosition `json:"start"`
	End   treeJSONPosition `json:"end"`
}

type treeJSONPosition struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

func nodeToJSON(t *tree.Tree, id tree.NodeID) (*treeJSONNode, error) {
	node, err := t.Get(id)
	if err != nil {
		return nil, err
	}

	jn := &treeJSONNode{Type: node.Type}
	if node.Span != nil {
		jn.Span = &treeJSONSpan{
			Start: treeJSONPosition{
				Offset: node.Span.Start.Offset,
				Line:   node.Span.Start.Line,
				Column: node.Span.Start.Column,
			},
			End: treeJSONPosition{
				Offset: node.Span.End.Offset,
				Line:   node.Span.End.Line,
				Column: node.Span.End.Column,
			},
		}
	}
	if len(node.Data) > 0 {
		jn.Data = node.Data
	}

	for _, childID := range node.Children {
		if t.Removed(childID) {
			continue
		}
		child, err := nodeToJSON(t, childID)
		if err != nil {
			return nil, err
		}
		jn.Children = append(jn.Children, child)
	}
	return jn, nil
}
