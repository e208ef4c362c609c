// Package text defines source positions and spans shared by the edit
// detector, token streams and trees. Offsets are 0-based byte offsets,
// lines are 1-based, columns are 0-based.
package text

type Position struct {
	Offset int
	Line   int
	Column int
}

func StartOfFile() Position {
	return Position{Offset: 0, Line: 1, Column: 0}
}

// Advance returns the position after consuming b.
func (p Position) Advance(b byte) Position {
	p.Offset++
	if b == '\n' {
		p.Line++
		p.Column = 0
	} else {
		p.Column++
	}
	return p
}

// AdvanceString returns the position after consuming all of s.
func (p Position) AdvanceString(s string) Position {
	for i := 0; i < len(s); i++ {
		p = p.Advance(s[i])
	}
	return p
}

type Span struct {
	Start Position
	End   Position
}

func NewSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// Contains reports whether the half-open byte range [Start, End)
// contains offset. A zero-length span contains nothing.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start.Offset && offset < s.End.Offset
}

// Touches reports whether offset falls inside the span or exactly on
// either boundary.
func (s Span) Touches(offset int) bool {
	return offset >= s.Start.Offset && offset <= s.End.Offset
}

// ShiftOffset moves both endpoints of the span by delta bytes, leaving
// line and column information untouched. Used when splicing tokens
// after an edit that did not change line structure before them.
func (s Span) ShiftOffset(delta int) Span {
	s.Start.Offset += delta
	s.End.Offset += delta
	return s
}

// Shift moves the span by deltaOffset bytes and deltaLines lines,
// preserving columns.
func (s Span) Shift(deltaOffset, deltaLines int) Span {
	s.Start.Offset += deltaOffset
	s.End.Offset += deltaOffset
	s.Start.Line += deltaLines
	s.End.Line += deltaLines
	return s
}

// Rebase translates a span produced against a substring so that it is
// expressed against the full source, where base is the position of the
// substring's first byte.
func (s Span) Rebase(base Position) Span {
	return Span{
		Start: rebase(s.Start, base),
		End:   rebase(s.End, base),
	}
}

func rebase(p, base Position) Position {
	out := Position{Offset: base.Offset + p.Offset}
	if p.Line == 1 {
		out.Line = base.Line
		out.Column = base.Column + p.Column
	} else {
		out.Line = base.Line + p.Line - 1
		out.Column = p.Column
	}
	return out
}
