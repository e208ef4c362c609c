package javascript

import (
	"strings"

	"github.com/dhamidi/synth/reparse"
	"github.com/dhamidi/synth/text"
	"github.com/dhamidi/synth/token"
	"github.com/dhamidi/synth/tokenizer"
	"github.com/dhamidi/synth/tree"
)

// Backend builds statement-level trees: a root with one node per
// top-level statement. Comment-only groups become comment nodes.
type Backend struct {
	strategy *Strategy
}

func NewBackend(strategy *Strategy) *Backend {
	return &Backend{strategy: strategy}
}

func (b *Backend) Parse(source string) (*tree.Tree, error) {
	t := tree.New("javascript", source)
	ids, err := buildStatements(t, b.strategy.Tokenize(source))
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

// ReparseRegion rebuilds only the statements overlapping the affected
// token range.
func (b *Backend) ReparseRegion(prev *tree.Tree, rng tokenizer.Range, stream *token.Stream) (*tree.Tree, error) {
	return reparse.RebuildTopLevel(prev, stream, rng, buildStatements)
}

// buildStatements groups a token run into statements. A statement ends
// at a `;` or closing `}` at brace depth zero, plus any same-line
// trailing trivia.
func buildStatements(t *tree.Tree, tokens []token.Token) ([]tree.NodeID, error) {
	var ids []tree.NodeID
	depth := 0
	group := make([]token.Token, 0, 8)

	flush := func() error {
		if len(group) == 0 {
			return nil
		}
		id, err := buildStatement(t, group)
		if err != nil {
			return err
		}
		if id.Valid() {
			ids = append(ids, id)
		}
		group = group[:0]
		return nil
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		group = append(group, tok)

		if tok.Kind == KindPunct {
			switch tok.Value {
			case "{":
				depth++
			case "}":
				depth--
			}
		}
		if !statementEnd(tok, depth) {
			continue
		}
		// Absorb trailing trivia on the same line.
		for i+1 < len(tokens) {
			next := tokens[i+1]
			if next.Kind == KindLineComment ||
				(next.Kind == KindWhitespace && !strings.Contains(next.Value, "\n")) {
				group = append(group, next)
				i++
				continue
			}
			break
		}
		if err := flush(); err != nil {
			return nil, err
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return ids, nil
}

func statementEnd(tok token.Token, depth int) bool {
	return tok.Kind == KindPunct && depth <= 0 && (tok.Value == ";" || tok.Value == "}")
}

// buildStatement appends one node for a token group. Groups holding
// only whitespace produce no node; the zero NodeID signals that.
func buildStatement(t *tree.Tree, group []token.Token) (tree.NodeID, error) {
	span := text.NewSpan(group[0].Span.Start, group[len(group)-1].Span.End)

	var content strings.Builder
	commentOnly := true
	for _, tok := range group {
		content.WriteString(tok.Value)
		switch tok.Kind {
		case KindWhitespace, KindComment, KindLineComment:
		default:
			commentOnly = false
		}
	}
	trimmed := strings.TrimSpace(content.String())
	if trimmed == "" {
		return tree.NodeID{}, nil
	}

	nodeType := "statement"
	if commentOnly {
		nodeType = "comment"
	}
	return t.Append(tree.NewNode(nodeType).WithSpan(span).WithData("text", trimmed))
}
