// Package token defines the language-independent token model shared by
// every tokenizer: kinds, flags, spans and streams.
package token

import (
	"fmt"

	"github.com/dhamidi/synth/text"
)

// Kind identifies a token's type. The token package reserves the low
// kinds; each language defines its own constants starting at
// KindLanguageBase.
type Kind int

const (
	// KindError marks a region the tokenizer could not make sense of.
	// Malformed input is encoded as one error token spanning the
	// region instead of a failed tokenization.
	KindError Kind = iota
	KindEOF

	// KindLanguageBase is the first kind value available to language
	// packages.
	KindLanguageBase Kind = 16
)

// Flags is a bitset of token properties.
type Flags uint8

const (
	FlagLeadingSpace Flags = 1 << iota
	FlagTrailingSpace
	FlagMultiline
	FlagEscaped
	FlagIncomplete
	FlagSynthetic
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

type Token struct {
	Kind     Kind
	Value    string
	Span     text.Span
	Flags    Flags
	Index    int
	Metadata map[string]string
}

// Stream is an ordered token sequence over a single source text.
// Invariants: Tokens[i].Index == i, and spans are contiguous and
// non-overlapping in offset order, together covering [0, len(Source)).
type Stream struct {
	Language string
	Source   string
	Tokens   []Token
}

func NewStream(language, source string, tokens []Token) *Stream {
	for i := range tokens {
		tokens[i].Index = i
	}
	return &Stream{Language: language, Source: source, Tokens: tokens}
}

func (s *Stream) Len() int {
	return len(s.Tokens)
}

// TokenAt returns the token whose span contains the given byte offset,
// or nil when the offset is at or beyond the end of the document.
func (s *Stream) TokenAt(offset int) *Token {
	if offset < 0 || offset >= len(s.Source) {
		return nil
	}
	lo, hi := 0, len(s.Tokens)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		tok := &s.Tokens[mid]
		switch {
		case offset < tok.Span.Start.Offset:
			hi = mid - 1
		case offset >= tok.Span.End.Offset:
			lo = mid + 1
		default:
			return tok
		}
	}
	return nil
}

// Validate checks the stream invariants: indices are dense, spans are
// contiguous, and concatenating every token value reproduces Source.
func (s *Stream) Validate() error {
	offset := 0
	for i, tok := range s.Tokens {
		if tok.Index != i {
			return fmt.Errorf("token %d has index %d", i, tok.Index)
		}
		if tok.Span.Start.Offset != offset {
			return fmt.Errorf("token %d starts at %d, expected %d", i, tok.Span.Start.Offset, offset)
		}
		if tok.Span.End.Offset < tok.Span.Start.Offset {
			return fmt.Errorf("token %d has negative length", i)
		}
		if s.Source[tok.Span.Start.Offset:tok.Span.End.Offset] != tok.Value {
			return fmt.Errorf("token %d value %q does not match source", i, tok.Value)
		}
		offset = tok.Span.End.Offset
	}
	if offset != len(s.Source) {
		return fmt.Errorf("tokens cover %d bytes, source has %d", offset, len(s.Source))
	}
	return nil
}
