package format

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dhamidi/synth/token"
)

type TokenJSONEncoder struct {
	w io.Writer
}

func NewTokenJSONEncoder(w io.Writer) *TokenJSONEncoder {
	return &TokenJSONEncoder{w: w}
}

func (e *TokenJSONEncoder) Encode(stream *token.Stream) error {
	text, err := e.MarshalText(stream)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *TokenJSONEncoder) MarshalText(stream *token.Stream) ([]byte, error) {
	out := make([]tokenJSON, 0, len(stream.Tokens))
	for _, tok := range stream.Tokens {
		out = append(out, tokenJSON{
			Index:  tok.Index,
			Kind:   int(tok.Kind),
			Value:  tok.Value,
			Line:   tok.Span.Start.Line,
			Column: tok.Span.Start.Column,
			Flags:  flagNames(tok.Flags),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

type tokenJSON struct {
	Index  int      `json:"index"`
	Kind   int      `json:"kind"`
	Value  string   `json:"value"`
	Line   int      `json:"line"`
	Column int      `json:"column"`
	Flags  []string `json:"flags,omitempty"`
}

// TokenTextEncoder writes one line per token, the tokenize command's
// default output.
type TokenTextEncoder struct {
	w io.Writer
}

func NewTokenTextEncoder(w io.Writer) *TokenTextEncoder {
	return &TokenTextEncoder{w: w}
}

func (e *TokenTextEncoder) Encode(stream *token.Stream) error {
	for _, tok := range stream.Tokens {
		_, err := fmt.Fprintf(e.w, "%4d  %3d  %d:%d  %q\n",
			tok.Index, tok.Kind, tok.Span.Start.Line, tok.Span.Start.Column, tok.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

func flagNames(flags token.Flags) []string {
	var names []string
	for _, entry := range []struct {
		flag token.Flags
		name string
	}{
		{token.FlagLeadingSpace, "leadingSpace"},
		{token.FlagTrailingSpace, "trailingSpace"},
		{token.FlagMultiline, "multiline"},
		{token.FlagEscaped, "escaped"},
		{token.FlagIncomplete, "incomplete"},
		{token.FlagSynthetic, "synthetic"},
	} {
		if flags&entry.flag != 0 {
			names = append(names, entry.name)
		}
	}
	return names
}
