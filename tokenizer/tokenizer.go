// Package tokenizer implements the incremental tokenization driver.
// A language plugs in a Strategy (full tokenization plus a boundary
// expansion policy); the driver handles locating the edit-affected
// token range, expanding it, retokenizing only the expanded window and
// splicing the result back into the stream.
package tokenizer

import (
	"github.com/dhamidi/synth/edit"
	"github.com/dhamidi/synth/text"
	"github.com/dhamidi/synth/token"
)

// Range identifies a run of tokens by index. EndIndex is inclusive.
type Range struct {
	StartIndex int
	EndIndex   int
}

// Stats reports how much of an update was reused. Speedup is a cost
// proxy (total tokens over retokenized tokens), not a wall-clock
// measurement. Window is the retokenized index range in the new
// stream, empty (EndIndex < StartIndex) when every token was reused;
// tree rebuilders use it to bound their work.
type Stats struct {
	TotalTokens int
	Retokenized int
	Reused      int
	ReuseRate   float64
	Speedup     float64
	Window      Range
}

// Strategy is the per-language capability the driver needs. Tokenize
// must cover its input completely (concatenating token values yields
// the input back), must not fail on malformed text (emit a
// token.KindError token instead), and produces spans relative to the
// start of its input. ExpandBoundary grows an affected token range to
// the nearest boundary the language can safely retokenize in
// isolation; it is the only place a strategy may look outside the
// literal edit range.
type Strategy interface {
	Language() string
	Tokenize(source string) []token.Token
	ExpandBoundary(stream *token.Stream, rng Range, ed edit.Edit) Range
}

// Tokenize runs a full tokenization and wraps the result in a stream.
func Tokenize(s Strategy, source string) *token.Stream {
	return token.NewStream(s.Language(), source, s.Tokenize(source))
}

// Update applies an edit to a previously tokenized stream, reusing
// every token outside the expanded edit window. If the prior stream
// cannot be mapped onto the edit (corrupt or empty), the whole new
// source is retokenized and the stats report zero reuse.
func Update(s Strategy, stream *token.Stream, newSource string, ed edit.Edit) (*token.Stream, Stats) {
	if ed.Empty() && newSource == stream.Source {
		return stream, reuseAllStats(len(stream.Tokens))
	}

	rng, ok := locate(stream, ed)
	if !ok {
		return fullRetokenize(s, newSource)
	}
	rng = clamp(s.ExpandBoundary(stream, rng, ed), len(stream.Tokens))

	oldTokens := stream.Tokens
	windowStart := oldTokens[rng.StartIndex].Span.Start
	oldWindowEnd := oldTokens[rng.EndIndex].Span.End.Offset
	if oldWindowEnd < ed.OldEndOffset {
		// The stream does not cover the edit; prior state is unusable.
		return fullRetokenize(s, newSource)
	}

	newWindowEnd := oldWindowEnd + ed.Delta()
	if windowStart.Offset > ed.StartOffset || newWindowEnd > len(newSource) {
		return fullRetokenize(s, newSource)
	}

	newWindow := newSource[windowStart.Offset:newWindowEnd]

	fresh := s.Tokenize(newWindow)
	for i := range fresh {
		fresh[i].Span = fresh[i].Span.Rebase(windowStart)
	}

	oldEnd := oldTokens[rng.EndIndex].Span.End
	newEnd := windowStart.AdvanceString(newWindow)
	deltaLines := newEnd.Line - oldEnd.Line
	deltaCols := newEnd.Column - oldEnd.Column

	spliced := make([]token.Token, 0, rng.StartIndex+len(fresh)+len(oldTokens)-rng.EndIndex-1)
	spliced = append(spliced, oldTokens[:rng.StartIndex]...)
	spliced = append(spliced, fresh...)
	for _, tok := range oldTokens[rng.EndIndex+1:] {
		tok.Span = shiftTail(tok.Span, ed.Delta(), deltaLines, deltaCols, oldEnd.Line)
		spliced = append(spliced, tok)
	}

	next := token.NewStream(s.Language(), newSource, spliced)

	total := len(spliced)
	stats := Stats{
		TotalTokens: total,
		Retokenized: len(fresh),
		Reused:      total - len(fresh),
		Window: Range{
			StartIndex: rng.StartIndex,
			EndIndex:   rng.StartIndex + len(fresh) - 1,
		},
	}
	if total > 0 {
		stats.ReuseRate = float64(stats.Reused) / float64(total)
	}
	if len(fresh) > 0 {
		stats.Speedup = float64(total) / float64(len(fresh))
	} else if total > 0 {
		stats.Speedup = float64(total)
	} else {
		stats.Speedup = 1
	}
	return next, stats
}

// shiftTail moves a trailing span past the spliced window. Offsets and
// lines shift uniformly, but columns only move for positions that sat
// on the old window's last line; later lines keep their layout.
func shiftTail(sp text.Span, deltaOffset, deltaLines, deltaCols, windowEndLine int) text.Span {
	if sp.Start.Line == windowEndLine {
		sp.Start.Column += deltaCols
	}
	if sp.End.Line == windowEndLine {
		sp.End.Column += deltaCols
	}
	return sp.Shift(deltaOffset, deltaLines)
}

// locate binary-searches the sorted token spans for the first token
// touching the edit start and the last token touching the old edit
// end. Tokens adjacent to the edit boundaries count as touching, since
// inserted text may fuse with them.
func locate(stream *token.Stream, ed edit.Edit) (Range, bool) {
	tokens := stream.Tokens
	if len(tokens) == 0 {
		return Range{}, false
	}
	if ed.StartOffset > len(stream.Source) || ed.OldEndOffset > len(stream.Source) {
		return Range{}, false
	}

	// First token whose end reaches the edit start.
	lo, hi := 0, len(tokens)
	for lo < hi {
		mid := (lo + hi) / 2
		if tokens[mid].Span.End.Offset < ed.StartOffset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	first := lo
	if first == len(tokens) {
		first = len(tokens) - 1
	}

	// Last token whose start is at or before the old edit end.
	lo, hi = first, len(tokens)
	for lo < hi {
		mid := (lo + hi) / 2
		if tokens[mid].Span.Start.Offset <= ed.OldEndOffset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	last := lo - 1
	if last < first {
		last = first
	}

	return Range{StartIndex: first, EndIndex: last}, true
}

func clamp(rng Range, n int) Range {
	if rng.StartIndex < 0 {
		rng.StartIndex = 0
	}
	if rng.EndIndex >= n {
		rng.EndIndex = n - 1
	}
	if rng.EndIndex < rng.StartIndex {
		rng.EndIndex = rng.StartIndex
	}
	return rng
}

func fullRetokenize(s Strategy, source string) (*token.Stream, Stats) {
	next := Tokenize(s, source)
	return next, Stats{
		TotalTokens: len(next.Tokens),
		Retokenized: len(next.Tokens),
		ReuseRate:   0,
		Speedup:     1,
		Window:      Range{StartIndex: 0, EndIndex: len(next.Tokens) - 1},
	}
}

func reuseAllStats(total int) Stats {
	s := Stats{
		TotalTokens: total,
		Reused:      total,
		ReuseRate:   1,
		Speedup:     1,
		Window:      Range{StartIndex: 0, EndIndex: -1},
	}
	if total > 0 {
		s.Speedup = float64(total)
	}
	return s
}
