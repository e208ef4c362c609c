package markdown

import (
	"strconv"

	"github.com/dhamidi/synth/reparse"
	"github.com/dhamidi/synth/token"
	"github.com/dhamidi/synth/tokenizer"
	"github.com/dhamidi/synth/tree"
)

// Backend builds markdown trees: a root with one node per block, each
// text-bearing block carrying a text child.
type Backend struct {
	strategy *Strategy
}

func NewBackend(strategy *Strategy) *Backend {
	return &Backend{strategy: strategy}
}

func (b *Backend) Parse(source string) (*tree.Tree, error) {
	t := tree.New("markdown", source)
	tokens := b.strategy.Tokenize(source)
	ids, err := buildBlocks(t, tokens)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := t.AddChild(t.Root(), id); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ReparseRegion rebuilds only the blocks overlapping the affected
// token range, sharing every other block with prev.
func (b *Backend) ReparseRegion(prev *tree.Tree, rng tokenizer.Range, stream *token.Stream) (*tree.Tree, error) {
	return reparse.RebuildTopLevel(prev, stream, rng, buildBlocks)
}

func buildBlocks(t *tree.Tree, tokens []token.Token) ([]tree.NodeID, error) {
	var ids []tree.NodeID
	for _, tok := range tokens {
		if tok.Kind == KindBlankLine {
			continue
		}
		id, err := buildBlock(t, tok)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func buildBlock(t *tree.Tree, tok token.Token) (tree.NodeID, error) {
	switch tok.Kind {
	case KindHeading:
		depth, _ := strconv.Atoi(tok.Metadata["depth"])
		node := tree.NewNode("heading").WithSpan(tok.Span).WithData("depth", depth)
		return appendWithText(t, node, tok)

	case KindParagraph:
		return appendWithText(t, tree.NewNode("paragraph").WithSpan(tok.Span), tok)

	case KindCodeBlock:
		node := tree.NewNode("code").WithSpan(tok.Span).WithData("value", tok.Metadata["value"])
		if lang, ok := tok.Metadata["lang"]; ok {
			node.WithData("lang", lang)
		}
		if meta, ok := tok.Metadata["meta"]; ok {
			node.WithData("meta", meta)
		}
		return t.Append(node)

	case KindThematicBreak:
		return t.Append(tree.NewNode("thematicBreak").WithSpan(tok.Span))

	case KindBlockQuote:
		return appendWithText(t, tree.NewNode("blockquote").WithSpan(tok.Span), tok)

	case KindListItem:
		ordered, _ := strconv.ParseBool(tok.Metadata["ordered"])
		node := tree.NewNode("listItem").WithSpan(tok.Span).WithData("ordered", ordered)
		if checked, ok := tok.Metadata["checked"]; ok {
			c, _ := strconv.ParseBool(checked)
			node.WithData("checked", c)
		}
		return appendWithText(t, node, tok)

	default:
		// Error tokens become one opaque node so the tree stays whole.
		return t.Append(tree.NewNode("error").WithSpan(tok.Span).WithData("value", tok.Value))
	}
}

func appendWithText(t *tree.Tree, node *tree.Node, tok token.Token) (tree.NodeID, error) {
	id, err := t.Append(node)
	if err != nil {
		return tree.NodeID{}, err
	}
	textValue := tok.Metadata["text"]
	if textValue == "" {
		return id, nil
	}
	textID, err := t.Append(tree.NewNode("text").WithSpan(tok.Span).WithData("value", textValue))
	if err != nil {
		return tree.NodeID{}, err
	}
	if err := t.AddChild(id, textID); err != nil {
		return tree.NodeID{}, err
	}
	return id, nil
}
