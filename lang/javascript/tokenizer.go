// Package javascript tokenizes JavaScript/TypeScript source and
// parses it into statement-level trees. Tokens cover the source
// completely, including whitespace and comments, so streams always
// reconstruct their input.
package javascript

import (
	"strings"

	"github.com/dhamidi/synth/edit"
	"github.com/dhamidi/synth/text"
	"github.com/dhamidi/synth/token"
	"github.com/dhamidi/synth/tokenizer"
)

const (
	KindIdent token.Kind = token.KindLanguageBase + iota
	KindKeyword
	KindNumber
	KindString
	KindTemplate
	KindRegex
	KindComment
	KindLineComment
	KindPunct
	KindWhitespace
)

var keywords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true,
	"class": true, "const": true, "continue": true, "debugger": true,
	"default": true, "delete": true, "do": true, "else": true,
	"enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true,
	"import": true, "in": true, "instanceof": true, "let": true,
	"new": true, "null": true, "of": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true,
	"true": true, "try": true, "typeof": true, "var": true,
	"void": true, "while": true, "with": true, "yield": true,
	"async": true, "static": true, "get": true, "set": true,
	"interface": true, "type": true, "namespace": true, "declare": true,
	"readonly": true, "abstract": true, "implements": true,
	"private": true, "protected": true, "public": true,
}

// operators that need longest-match scanning, longest first.
var operators = []string{
	">>>=",
	"===", "!==", "**=", "...", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"==", "!=", "<=", ">=", "&&", "||", "??", "?.", "=>", "**",
	"++", "--", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>",
	"{", "}", "(", ")", "[", "]", ";", ",", ".", ":", "?", "@",
	"+", "-", "*", "/", "%", "<", ">", "=", "!", "&", "|", "^", "~",
}

// Strategy implements tokenizer.Strategy for JavaScript.
type Strategy struct{}

func NewStrategy() *Strategy { return &Strategy{} }

func (s *Strategy) Language() string { return "javascript" }

func (s *Strategy) Tokenize(source string) []token.Token {
	lx := &lexer{src: source, pos: text.StartOfFile()}
	var tokens []token.Token
	for !lx.eof() {
		tokens = append(tokens, lx.next())
	}
	return tokens
}

// ExpandBoundary grows the affected range to statement boundaries: a
// statement runs from just after the previous `;` or `}` through its
// own terminator, and owns the comment and whitespace trivia directly
// around it.
func (s *Strategy) ExpandBoundary(stream *token.Stream, rng tokenizer.Range, ed edit.Edit) tokenizer.Range {
	tokens := stream.Tokens

	for rng.StartIndex > 0 && !isTerminator(tokens[rng.StartIndex-1]) {
		rng.StartIndex--
	}
	// A window lexer starts with no previous significant token and would
	// read a leading `/` as a regex, while after `}` it is division.
	// Keeping the brace in the window preserves that context.
	if rng.StartIndex > 0 && tokens[rng.StartIndex-1].Value == "}" {
		rng.StartIndex--
	}
	for rng.EndIndex < len(tokens)-1 && !isTerminator(tokens[rng.EndIndex]) {
		rng.EndIndex++
	}
	// Trailing trivia on the terminator's line belongs to the statement.
	for rng.EndIndex < len(tokens)-1 {
		next := tokens[rng.EndIndex+1]
		if next.Kind == KindLineComment ||
			(next.Kind == KindWhitespace && !strings.Contains(next.Value, "\n")) {
			rng.EndIndex++
			continue
		}
		break
	}
	return rng
}

func isTerminator(tok token.Token) bool {
	return tok.Kind == KindPunct && (tok.Value == ";" || tok.Value == "}")
}

type lexer struct {
	src string
	pos text.Position

	// prevSignificant is the last non-trivia token, used to decide
	// whether a `/` starts a regex literal or a division operator.
	prevSignificant *token.Token
}

func (lx *lexer) eof() bool {
	return lx.pos.Offset >= len(lx.src)
}

func (lx *lexer) peekAt(n int) byte {
	if lx.pos.Offset+n >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos.Offset+n]
}

func (lx *lexer) peek() byte {
	return lx.peekAt(0)
}

func (lx *lexer) advance() byte {
	b := lx.src[lx.pos.Offset]
	lx.pos = lx.pos.Advance(b)
	return b
}

func (lx *lexer) next() token.Token {
	start := lx.pos
	ch := lx.peek()

	var tok token.Token
	switch {
	case isSpace(ch):
		tok = lx.scanWhitespace(start)
	case ch == '/' && lx.peekAt(1) == '/':
		tok = lx.scanLineComment(start)
	case ch == '/' && lx.peekAt(1) == '*':
		tok = lx.scanBlockComment(start)
	case ch == '/' && lx.regexAllowed():
		tok = lx.scanRegex(start)
	case isIdentStart(ch):
		tok = lx.scanIdent(start)
	case ch >= '0' && ch <= '9':
		tok = lx.scanNumber(start)
	case ch == '.' && lx.peekAt(1) >= '0' && lx.peekAt(1) <= '9':
		tok = lx.scanNumber(start)
	case ch == '"' || ch == '\'':
		tok = lx.scanString(start, ch)
	case ch == '`':
		tok = lx.scanTemplate(start)
	default:
		tok = lx.scanOperator(start)
	}

	if tok.Kind != KindWhitespace && tok.Kind != KindComment && tok.Kind != KindLineComment {
		copied := tok
		lx.prevSignificant = &copied
	}
	return tok
}

func (lx *lexer) emit(start text.Position, kind token.Kind, flags token.Flags) token.Token {
	value := lx.src[start.Offset:lx.pos.Offset]
	if strings.Contains(value, "\n") {
		flags |= token.FlagMultiline
	}
	return token.Token{
		Kind:  kind,
		Value: value,
		Span:  text.NewSpan(start, lx.pos),
		Flags: flags,
	}
}

func (lx *lexer) scanWhitespace(start text.Position) token.Token {
	for !lx.eof() && isSpace(lx.peek()) {
		lx.advance()
	}
	return lx.emit(start, KindWhitespace, 0)
}

func (lx *lexer) scanLineComment(start text.Position) token.Token {
	for !lx.eof() && lx.peek() != '\n' {
		lx.advance()
	}
	return lx.emit(start, KindLineComment, 0)
}

func (lx *lexer) scanBlockComment(start text.Position) token.Token {
	lx.advance()
	lx.advance()
	var flags token.Flags
	terminated := false
	for !lx.eof() {
		if lx.peek() == '*' && lx.peekAt(1) == '/' {
			lx.advance()
			lx.advance()
			terminated = true
			break
		}
		lx.advance()
	}
	if !terminated {
		flags |= token.FlagIncomplete
	}
	return lx.emit(start, KindComment, flags)
}

func (lx *lexer) scanIdent(start text.Position) token.Token {
	for !lx.eof() && isIdentPart(lx.peek()) {
		lx.advance()
	}
	value := lx.src[start.Offset:lx.pos.Offset]
	kind := KindIdent
	if keywords[value] {
		kind = KindKeyword
	}
	return lx.emit(start, kind, 0)
}

func (lx *lexer) scanNumber(start text.Position) token.Token {
	// Prefixed forms: 0x... 0b... 0o...
	if lx.peek() == '0' {
		switch p := lx.peekAt(1); p {
		case 'x', 'X', 'b', 'B', 'o', 'O':
			lx.advance()
			lx.advance()
			for !lx.eof() && isIdentPart(lx.peek()) {
				lx.advance()
			}
			return lx.emit(start, KindNumber, 0)
		}
	}
	for !lx.eof() {
		ch := lx.peek()
		switch {
		case ch >= '0' && ch <= '9', ch == '.', ch == '_':
			lx.advance()
		case ch == 'e' || ch == 'E':
			lx.advance()
			if lx.peek() == '+' || lx.peek() == '-' {
				lx.advance()
			}
		case ch == 'n': // BigInt suffix
			lx.advance()
			return lx.emit(start, KindNumber, 0)
		default:
			return lx.emit(start, KindNumber, 0)
		}
	}
	return lx.emit(start, KindNumber, 0)
}

func (lx *lexer) scanString(start text.Position, quote byte) token.Token {
	lx.advance()
	var flags token.Flags
	terminated := false
	for !lx.eof() {
		ch := lx.peek()
		if ch == '\\' && lx.pos.Offset+1 < len(lx.src) {
			flags |= token.FlagEscaped
			lx.advance()
			lx.advance()
			continue
		}
		if ch == '\n' {
			break
		}
		lx.advance()
		if ch == quote {
			terminated = true
			break
		}
	}
	if !terminated {
		flags |= token.FlagIncomplete
	}
	return lx.emit(start, KindString, flags)
}

func (lx *lexer) scanTemplate(start text.Position) token.Token {
	lx.advance()
	var flags token.Flags
	terminated := false
	for !lx.eof() {
		ch := lx.peek()
		if ch == '\\' && lx.pos.Offset+1 < len(lx.src) {
			flags |= token.FlagEscaped
			lx.advance()
			lx.advance()
			continue
		}
		lx.advance()
		if ch == '`' {
			terminated = true
			break
		}
	}
	if !terminated {
		flags |= token.FlagIncomplete
	}
	return lx.emit(start, KindTemplate, flags)
}

// regexAllowed reports whether a `/` at the current position can start
// a regex literal, judged from the previous significant token.
func (lx *lexer) regexAllowed() bool {
	prev := lx.prevSignificant
	if prev == nil {
		return true
	}
	switch prev.Kind {
	case KindIdent, KindNumber, KindString, KindTemplate, KindRegex:
		return false
	case KindKeyword:
		// `this` and `super` are value positions; everything else
		// (return, typeof, case, ...) expects an operand.
		return prev.Value != "this" && prev.Value != "super"
	case KindPunct:
		switch prev.Value {
		case ")", "]", "}", "++", "--":
			return false
		}
		return true
	}
	return true
}

func (lx *lexer) scanRegex(start text.Position) token.Token {
	lx.advance() // opening /
	inClass := false
	terminated := false
	for !lx.eof() {
		ch := lx.peek()
		if ch == '\n' {
			break
		}
		if ch == '\\' && lx.pos.Offset+1 < len(lx.src) {
			lx.advance()
			lx.advance()
			continue
		}
		lx.advance()
		if ch == '[' {
			inClass = true
		} else if ch == ']' {
			inClass = false
		} else if ch == '/' && !inClass {
			terminated = true
			break
		}
	}
	var flags token.Flags
	if !terminated {
		flags |= token.FlagIncomplete
	} else {
		for !lx.eof() && isIdentPart(lx.peek()) {
			lx.advance()
		}
	}
	return lx.emit(start, KindRegex, flags)
}

func (lx *lexer) scanOperator(start text.Position) token.Token {
	rest := lx.src[start.Offset:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			for range op {
				lx.advance()
			}
			return lx.emit(start, KindPunct, 0)
		}
	}
	// A byte no rule recognizes: one error token, never a failure.
	lx.advance()
	return lx.emit(start, token.KindError, 0)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
