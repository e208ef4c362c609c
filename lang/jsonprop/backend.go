package jsonprop

import (
	"github.com/dhamidi/synth/text"
	"github.com/dhamidi/synth/token"
	"github.com/dhamidi/synth/tree"
)

// Backend builds object/array/property trees. It has no region
// reparser: JSON documents are cheap to rebuild whole, so incremental
// updates fall back to a full parse.
type Backend struct {
	strategy *Strategy
}

func NewBackend(strategy *Strategy) *Backend {
	return &Backend{strategy: strategy}
}

func (b *Backend) Parse(source string) (*tree.Tree, error) {
	t := tree.New(b.strategy.Language(), source)
	p := &parser{tree: t, tokens: b.strategy.Tokenize(source)}
	for p.skipTrivia(); !p.eof(); p.skipTrivia() {
		id, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := t.AddChild(t.Root(), id); err != nil {
			return nil, err
		}
	}
	return t, nil
}

type parser struct {
	tree   *tree.Tree
	tokens []token.Token
	pos    int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) skipTrivia() {
	for !p.eof() && p.tokens[p.pos].Kind == KindWhitespace {
		p.pos++
	}
}

func (p *parser) peek() token.Token {
	return p.tokens[p.pos]
}

func (p *parser) next() token.Token {
	tok := p.tokens[p.pos]
	p.pos++
	return tok
}

func (p *parser) parseValue() (tree.NodeID, error) {
	tok := p.peek()
	switch tok.Kind {
	case KindString:
		p.pos++
		return p.leaf("string", tok, unquote(tok.Value))
	case KindNumber:
		p.pos++
		return p.leaf("number", tok, tok.Value)
	case KindLiteral:
		p.pos++
		return p.leaf("literal", tok, tok.Value)
	case KindPunct:
		switch tok.Value {
		case "{":
			return p.parseObject()
		case "[":
			return p.parseArray()
		}
	}
	p.pos++
	return p.leaf("error", tok, tok.Value)
}

func (p *parser) parseObject() (tree.NodeID, error) {
	open := p.next()
	node := tree.NewNode("object").WithSpan(open.Span)
	id, err := p.tree.Append(node)
	if err != nil {
		return tree.NodeID{}, err
	}
	for {
		p.skipTrivia()
		if p.eof() {
			break
		}
		if p.punct("}") {
			node.Span = containerSpan(open, p.next())
			return id, nil
		}
		propID, err := p.parseProperty()
		if err != nil {
			return tree.NodeID{}, err
		}
		if err := p.tree.AddChild(id, propID); err != nil {
			return tree.NodeID{}, err
		}
		p.skipTrivia()
		if !p.eof() && p.punct(",") {
			p.pos++
		}
	}
	// Unterminated object: keep what parsed, span ends at EOF.
	node.Span = spanToEnd(open, p.tokens)
	return id, nil
}

func (p *parser) parseProperty() (tree.NodeID, error) {
	key := p.peek()
	if key.Kind != KindString {
		p.pos++
		return p.leaf("error", key, key.Value)
	}
	p.pos++
	node := tree.NewNode("property").WithSpan(key.Span).WithData("key", unquote(key.Value))
	id, err := p.tree.Append(node)
	if err != nil {
		return tree.NodeID{}, err
	}
	p.skipTrivia()
	if p.eof() || !p.punct(":") {
		// Key without a value still yields a property node, so the
		// tree covers every parsed byte.
		return id, nil
	}
	p.pos++
	p.skipTrivia()
	if p.eof() {
		return id, nil
	}
	valueID, err := p.parseValue()
	if err != nil {
		return tree.NodeID{}, err
	}
	if err := p.tree.AddChild(id, valueID); err != nil {
		return tree.NodeID{}, err
	}
	value, err := p.tree.Get(valueID)
	if err != nil {
		return tree.NodeID{}, err
	}
	if value.Span != nil {
		node.Span = &text.Span{Start: key.Span.Start, End: value.Span.End}
	}
	return id, nil
}

func (p *parser) parseArray() (tree.NodeID, error) {
	open := p.next()
	node := tree.NewNode("array").WithSpan(open.Span)
	id, err := p.tree.Append(node)
	if err != nil {
		return tree.NodeID{}, err
	}
	for {
		p.skipTrivia()
		if p.eof() {
			break
		}
		if p.punct("]") {
			node.Span = containerSpan(open, p.next())
			return id, nil
		}
		elemID, err := p.parseValue()
		if err != nil {
			return tree.NodeID{}, err
		}
		if err := p.tree.AddChild(id, elemID); err != nil {
			return tree.NodeID{}, err
		}
		p.skipTrivia()
		if !p.eof() && p.punct(",") {
			p.pos++
		}
	}
	node.Span = spanToEnd(open, p.tokens)
	return id, nil
}

func (p *parser) punct(value string) bool {
	tok := p.peek()
	return tok.Kind == KindPunct && tok.Value == value
}

func (p *parser) leaf(nodeType string, tok token.Token, value string) (tree.NodeID, error) {
	return p.tree.Append(tree.NewNode(nodeType).WithSpan(tok.Span).WithData("value", value))
}

// unquote strips the surrounding quotes of a complete string token.
// Escape sequences are kept raw; decoding is the consumer's concern.
func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}
	return value
}

func containerSpan(open, close token.Token) *text.Span {
	return &text.Span{Start: open.Span.Start, End: close.Span.End}
}

func spanToEnd(open token.Token, tokens []token.Token) *text.Span {
	end := open.Span.End
	if len(tokens) > 0 {
		end = tokens[len(tokens)-1].Span.End
	}
	return &text.Span{Start: open.Span.Start, End: end}
}
