package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateSession is returned by Open when the key is taken.
	ErrDuplicateSession = errors.New("session already exists")

	// ErrSessionNotFound is returned by Update and Close for unknown
	// keys. GetTree degrades to absence instead of returning it.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnknownLanguage is returned by the registry for names no
	// backend was registered under.
	ErrUnknownLanguage = errors.New("unknown language")
)

// ParseError reports an unrecoverable syntax failure from a language
// backend's full parse. Incremental updates never produce one:
// malformed regions surface as error-kind tokens instead.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}
