// Package markdown tokenizes and parses markdown at block granularity.
// Every block (heading, paragraph, fenced code, quote, list item,
// thematic break, blank line) is one token whose value is the raw
// source slice, so a token stream always reconstructs its source.
package markdown

import (
	"strconv"
	"strings"

	"github.com/dhamidi/synth/edit"
	"github.com/dhamidi/synth/text"
	"github.com/dhamidi/synth/token"
	"github.com/dhamidi/synth/tokenizer"
)

const (
	KindHeading token.Kind = token.KindLanguageBase + iota
	KindParagraph
	KindCodeBlock
	KindThematicBreak
	KindBlankLine
	KindBlockQuote
	KindListItem
)

// Config holds the boundary-expansion tuning knobs. The values are
// inherited heuristics, not derived: treat them as dials.
type Config struct {
	// SmallDocCutoff is the document size in bytes below which edits
	// expand minimally unless they touch a structural marker.
	SmallDocCutoff int

	// MaxBlankLines caps how many blank lines boundary expansion may
	// cross in each direction when chasing a loose list or quote run.
	MaxBlankLines int
}

func DefaultConfig() Config {
	return Config{
		SmallDocCutoff: 1024,
		MaxBlankLines:  2,
	}
}

// Strategy implements tokenizer.Strategy for markdown.
type Strategy struct {
	cfg Config
}

func NewStrategy(cfg Config) *Strategy {
	return &Strategy{cfg: cfg}
}

func (s *Strategy) Language() string { return "markdown" }

func (s *Strategy) Tokenize(source string) []token.Token {
	sc := &scanner{src: source, pos: text.StartOfFile()}
	var tokens []token.Token
	for !sc.eof() {
		tokens = append(tokens, sc.scanBlock())
	}
	return tokens
}

// ExpandBoundary grows the affected range to blank-line-delimited
// block boundaries. Small documents expand only when the edit touches
// a structural marker; large documents additionally chase list and
// quote runs across at most MaxBlankLines blank lines per direction.
func (s *Strategy) ExpandBoundary(stream *token.Stream, rng tokenizer.Range, ed edit.Edit) tokenizer.Range {
	tokens := stream.Tokens
	if len(tokens) == 0 {
		return rng
	}

	if len(stream.Source) < s.cfg.SmallDocCutoff {
		if !touchesStructural(tokens[rng.StartIndex : rng.EndIndex+1]) {
			return rng
		}
		return tokenizer.Range{StartIndex: 0, EndIndex: len(tokens) - 1}
	}

	// Leftward: absorb everything until a blank-line boundary; cross
	// blank lines only between list/quote items, bounded.
	blanks := 0
	for rng.StartIndex > 0 {
		prev := tokens[rng.StartIndex-1]
		if prev.Kind != KindBlankLine {
			rng.StartIndex--
			continue
		}
		if blanks < s.cfg.MaxBlankLines && continuesRun(tokens, rng.StartIndex-1, -1) {
			blanks++
			rng.StartIndex--
			continue
		}
		break
	}

	blanks = 0
	for rng.EndIndex < len(tokens)-1 {
		next := tokens[rng.EndIndex+1]
		if next.Kind != KindBlankLine {
			rng.EndIndex++
			continue
		}
		if blanks < s.cfg.MaxBlankLines && continuesRun(tokens, rng.EndIndex+1, +1) {
			blanks++
			rng.EndIndex++
			continue
		}
		break
	}

	return rng
}

// continuesRun reports whether the blank line at index i sits between
// two tokens of the same list/quote run, so that crossing it keeps the
// run in one retokenization window.
func continuesRun(tokens []token.Token, i, dir int) bool {
	before, after := i-1, i+1
	if dir < 0 {
		before, after = i+1, i-1
	}
	if before < 0 || before >= len(tokens) || after < 0 || after >= len(tokens) {
		return false
	}
	return isRunKind(tokens[before].Kind) && isRunKind(tokens[after].Kind)
}

func isRunKind(k token.Kind) bool {
	return k == KindListItem || k == KindBlockQuote
}

func touchesStructural(tokens []token.Token) bool {
	for _, tok := range tokens {
		switch tok.Kind {
		case KindHeading, KindCodeBlock, KindThematicBreak, KindListItem, KindBlockQuote:
			return true
		}
	}
	return false
}

type scanner struct {
	src string
	pos text.Position
}

func (sc *scanner) eof() bool {
	return sc.pos.Offset >= len(sc.src)
}

// restOfLine returns the current line starting at offset, including
// its trailing newline when present.
func (sc *scanner) restOfLine(offset int) string {
	end := strings.IndexByte(sc.src[offset:], '\n')
	if end < 0 {
		return sc.src[offset:]
	}
	return sc.src[offset : offset+end+1]
}

func (sc *scanner) scanBlock() token.Token {
	start := sc.pos
	line := sc.restOfLine(start.Offset)
	trimmed := strings.TrimLeft(line, " \t")

	switch {
	case strings.TrimRight(trimmed, "\n") == "":
		return sc.takeLines(start, 1, KindBlankLine, nil)

	case trimmed[0] == '#':
		return sc.scanHeading(start, line, trimmed)

	case strings.HasPrefix(trimmed, "```"):
		return sc.scanCodeBlock(start, trimmed)

	case isThematicBreak(trimmed):
		return sc.takeLines(start, 1, KindThematicBreak, nil)

	case trimmed[0] == '>':
		return sc.scanQuoteOrList(start, KindBlockQuote)

	case isListItemLine(trimmed):
		return sc.scanQuoteOrList(start, KindListItem)

	default:
		return sc.scanParagraph(start)
	}
}

// takeLines consumes n lines and produces a token of the given kind.
func (sc *scanner) takeLines(start text.Position, n int, kind token.Kind, metadata map[string]string) token.Token {
	for i := 0; i < n && !sc.eof(); i++ {
		sc.pos = sc.pos.AdvanceString(sc.restOfLine(sc.pos.Offset))
	}
	return sc.emit(start, kind, metadata, 0)
}

func (sc *scanner) emit(start text.Position, kind token.Kind, metadata map[string]string, flags token.Flags) token.Token {
	value := sc.src[start.Offset:sc.pos.Offset]
	if strings.Count(value, "\n") > 1 || (strings.Contains(value, "\n") && !strings.HasSuffix(value, "\n")) {
		flags |= token.FlagMultiline
	}
	if len(value) > 0 && (value[0] == ' ' || value[0] == '\t') {
		flags |= token.FlagLeadingSpace
	}
	return token.Token{
		Kind:     kind,
		Value:    value,
		Span:     text.NewSpan(start, sc.pos),
		Flags:    flags,
		Metadata: metadata,
	}
}

func (sc *scanner) scanHeading(start text.Position, line, trimmed string) token.Token {
	depth := 0
	for depth < len(trimmed) && trimmed[depth] == '#' {
		depth++
	}
	rest := trimmed[depth:]
	// A heading needs 1-6 markers followed by a space or end of line,
	// otherwise the line is an ordinary paragraph.
	if depth > 6 || (rest != "" && rest != "\n" && rest[0] != ' ') {
		return sc.scanParagraph(start)
	}
	metadata := map[string]string{
		"depth": strconv.Itoa(depth),
		"text":  strings.TrimSpace(rest),
	}
	return sc.takeLines(start, 1, KindHeading, metadata)
}

func (sc *scanner) scanCodeBlock(start text.Position, trimmed string) token.Token {
	info := strings.TrimSpace(strings.TrimPrefix(strings.TrimRight(trimmed, "\n"), "```"))
	metadata := map[string]string{}
	if info != "" {
		parts := strings.SplitN(info, " ", 2)
		metadata["lang"] = parts[0]
		if len(parts) > 1 {
			metadata["meta"] = parts[1]
		}
	}

	sc.pos = sc.pos.AdvanceString(sc.restOfLine(sc.pos.Offset))

	var flags token.Flags
	terminated := false
	var code strings.Builder
	for !sc.eof() {
		line := sc.restOfLine(sc.pos.Offset)
		sc.pos = sc.pos.AdvanceString(line)
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "```") {
			terminated = true
			break
		}
		code.WriteString(line)
	}
	if !terminated {
		flags |= token.FlagIncomplete
	}
	metadata["value"] = strings.TrimRight(code.String(), "\n")
	return sc.emit(start, KindCodeBlock, metadata, flags)
}

func (sc *scanner) scanQuoteOrList(start text.Position, kind token.Kind) token.Token {
	line := sc.restOfLine(start.Offset)
	trimmed := strings.TrimLeft(line, " \t")

	metadata := map[string]string{}
	if kind == KindBlockQuote {
		metadata["text"] = strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))
	} else {
		rest, ordered := stripListMarker(trimmed)
		metadata["ordered"] = strconv.FormatBool(ordered)
		if checked, ok := stripTaskBox(&rest); ok {
			metadata["checked"] = strconv.FormatBool(checked)
		}
		metadata["text"] = strings.TrimSpace(rest)
	}
	return sc.takeLines(start, 1, kind, metadata)
}

func (sc *scanner) scanParagraph(start text.Position) token.Token {
	var content strings.Builder
	for !sc.eof() {
		line := sc.restOfLine(sc.pos.Offset)
		sc.pos = sc.pos.AdvanceString(line)
		content.WriteString(line)

		if sc.eof() {
			break
		}
		next := strings.TrimLeft(sc.restOfLine(sc.pos.Offset), " \t")
		if next == "" || next == "\n" || startsStructural(next) {
			break
		}
	}
	metadata := map[string]string{
		"text": strings.TrimSpace(content.String()),
	}
	return sc.emit(start, KindParagraph, metadata, 0)
}

func startsStructural(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	switch trimmed[0] {
	case '#', '>':
		return true
	case '`':
		return strings.HasPrefix(trimmed, "```")
	case '-', '*', '_':
		return isThematicBreak(trimmed) || isListItemLine(trimmed)
	}
	return isListItemLine(trimmed)
}

func isThematicBreak(trimmed string) bool {
	line := strings.TrimRight(trimmed, "\n")
	if line == "" {
		return false
	}
	marker := line[0]
	if marker != '-' && marker != '*' && marker != '_' {
		return false
	}
	count := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case marker:
			count++
		case ' ', '\t':
		default:
			return false
		}
	}
	return count >= 3
}

func isListItemLine(trimmed string) bool {
	line := strings.TrimRight(trimmed, "\n")
	if line == "" {
		return false
	}
	if (line[0] == '-' || line[0] == '*') && len(line) > 1 && line[1] == ' ' {
		return true
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return false
	}
	if line[i] != '.' && line[i] != ')' {
		return false
	}
	return i+1 < len(line) && line[i+1] == ' '
}

// stripListMarker removes the bullet or ordered marker and reports
// whether the item is ordered.
func stripListMarker(trimmed string) (string, bool) {
	if trimmed[0] == '-' || trimmed[0] == '*' {
		return trimmed[1:], false
	}
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	return trimmed[i+1:], true
}

// stripTaskBox removes a leading [x] or [ ] from a list item body.
func stripTaskBox(rest *string) (bool, bool) {
	body := strings.TrimLeft(*rest, " \t")
	switch {
	case strings.HasPrefix(body, "[x]"), strings.HasPrefix(body, "[X]"):
		*rest = body[3:]
		return true, true
	case strings.HasPrefix(body, "[ ]"):
		*rest = body[3:]
		return false, true
	}
	return false, false
}
