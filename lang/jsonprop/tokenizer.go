// Package jsonprop tokenizes JSON at property granularity. Every token
// is self-delimited, so incremental updates never need to grow the
// retokenized window beyond the tokens the edit touched.
package jsonprop

import (
	"github.com/dhamidi/synth/edit"
	"github.com/dhamidi/synth/text"
	"github.com/dhamidi/synth/token"
	"github.com/dhamidi/synth/tokenizer"
)

const (
	KindString token.Kind = token.KindLanguageBase + iota
	KindNumber
	KindLiteral
	KindPunct
	KindWhitespace
)

type Strategy struct{}

func NewStrategy() *Strategy { return &Strategy{} }

func (s *Strategy) Language() string { return "json" }

func (s *Strategy) Tokenize(source string) []token.Token {
	lx := &lexer{src: source, pos: text.StartOfFile()}
	var tokens []token.Token
	for !lx.eof() {
		tokens = append(tokens, lx.next())
	}
	return tokens
}

// ExpandBoundary is the identity: JSON tokens carry no cross-token
// state, so the window chosen by the driver is already well-formed.
func (s *Strategy) ExpandBoundary(stream *token.Stream, rng tokenizer.Range, ed edit.Edit) tokenizer.Range {
	return rng
}

type lexer struct {
	src string
	pos text.Position
}

func (lx *lexer) eof() bool {
	return lx.pos.Offset >= len(lx.src)
}

func (lx *lexer) peek() byte {
	if lx.eof() {
		return 0
	}
	return lx.src[lx.pos.Offset]
}

func (lx *lexer) advance() {
	lx.pos = lx.pos.Advance(lx.src[lx.pos.Offset])
}

func (lx *lexer) emit(start text.Position, kind token.Kind, flags token.Flags) token.Token {
	span := text.NewSpan(start, lx.pos)
	if span.Start.Line != span.End.Line {
		flags |= token.FlagMultiline
	}
	return token.Token{
		Kind:  kind,
		Value: lx.src[start.Offset:lx.pos.Offset],
		Span:  span,
		Flags: flags,
	}
}

func (lx *lexer) next() token.Token {
	start := lx.pos
	ch := lx.peek()
	switch {
	case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
		for !lx.eof() && isSpace(lx.peek()) {
			lx.advance()
		}
		return lx.emit(start, KindWhitespace, 0)
	case ch == '{' || ch == '}' || ch == '[' || ch == ']' || ch == ':' || ch == ',':
		lx.advance()
		return lx.emit(start, KindPunct, 0)
	case ch == '"':
		return lx.scanString(start)
	case ch == '-' || (ch >= '0' && ch <= '9'):
		return lx.scanNumber(start)
	case ch >= 'a' && ch <= 'z':
		return lx.scanLiteral(start)
	default:
		for !lx.eof() && !isDelimiter(lx.peek()) {
			lx.advance()
		}
		if lx.pos.Offset == start.Offset {
			lx.advance()
		}
		return lx.emit(start, token.KindError, 0)
	}
}

func (lx *lexer) scanString(start text.Position) token.Token {
	lx.advance() // opening quote
	var flags token.Flags
	for !lx.eof() {
		ch := lx.peek()
		if ch == '\n' {
			return lx.emit(start, token.KindError, flags|token.FlagIncomplete)
		}
		lx.advance()
		if ch == '"' {
			return lx.emit(start, KindString, flags)
		}
		if ch == '\\' && !lx.eof() {
			flags |= token.FlagEscaped
			lx.advance()
		}
	}
	return lx.emit(start, token.KindError, flags|token.FlagIncomplete)
}

func (lx *lexer) scanNumber(start text.Position) token.Token {
	if lx.peek() == '-' {
		lx.advance()
	}
	digits := 0
	for !lx.eof() && isDigit(lx.peek()) {
		lx.advance()
		digits++
	}
	if digits == 0 {
		// A lone minus sign is not a number.
		return lx.emit(start, token.KindError, 0)
	}
	if lx.peek() == '.' {
		lx.advance()
		for !lx.eof() && isDigit(lx.peek()) {
			lx.advance()
		}
	}
	if ch := lx.peek(); ch == 'e' || ch == 'E' {
		lx.advance()
		if ch := lx.peek(); ch == '+' || ch == '-' {
			lx.advance()
		}
		for !lx.eof() && isDigit(lx.peek()) {
			lx.advance()
		}
	}
	return lx.emit(start, KindNumber, 0)
}

func (lx *lexer) scanLiteral(start text.Position) token.Token {
	for !lx.eof() && lx.peek() >= 'a' && lx.peek() <= 'z' {
		lx.advance()
	}
	switch lx.src[start.Offset:lx.pos.Offset] {
	case "true", "false", "null":
		return lx.emit(start, KindLiteral, 0)
	}
	return lx.emit(start, token.KindError, 0)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isDelimiter(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '{', '}', '[', ']', ':', ',', '"':
		return true
	}
	return false
}
