package markdown

import (
	"strings"
	"testing"

	"github.com/dhamidi/synth/edit"
	"github.com/dhamidi/synth/token"
	"github.com/dhamidi/synth/tokenizer"
)

func tokenize(t *testing.T, source string) *token.Stream {
	t.Helper()
	stream := tokenizer.Tokenize(NewStrategy(DefaultConfig()), source)
	if err := stream.Validate(); err != nil {
		t.Fatalf("tokenize(%q): invalid stream: %v", source, err)
	}
	return stream
}

func TestTokenizeHeading(t *testing.T) {
	stream := tokenize(t, "# Hello World\n")
	if stream.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", stream.Len())
	}
	tok := stream.Tokens[0]
	if tok.Kind != KindHeading {
		t.Errorf("Kind = %v, want KindHeading", tok.Kind)
	}
	if tok.Metadata["depth"] != "1" {
		t.Errorf("depth = %q, want 1", tok.Metadata["depth"])
	}
	if tok.Metadata["text"] != "Hello World" {
		t.Errorf("text = %q", tok.Metadata["text"])
	}
}

func TestTokenizeHeadingDepths(t *testing.T) {
	stream := tokenize(t, "### Deep\n")
	if stream.Tokens[0].Metadata["depth"] != "3" {
		t.Errorf("depth = %q, want 3", stream.Tokens[0].Metadata["depth"])
	}

	// No space after the markers: a paragraph, not a heading.
	stream = tokenize(t, "#not-a-heading\n")
	if stream.Tokens[0].Kind != KindParagraph {
		t.Errorf("Kind = %v, want KindParagraph", stream.Tokens[0].Kind)
	}
}

func TestTokenizeCodeBlock(t *testing.T) {
	stream := tokenize(t, "```go main\nfunc main() {}\n```\n")
	if stream.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", stream.Len())
	}
	tok := stream.Tokens[0]
	if tok.Kind != KindCodeBlock {
		t.Fatalf("Kind = %v, want KindCodeBlock", tok.Kind)
	}
	if tok.Metadata["lang"] != "go" {
		t.Errorf("lang = %q", tok.Metadata["lang"])
	}
	if tok.Metadata["meta"] != "main" {
		t.Errorf("meta = %q", tok.Metadata["meta"])
	}
	if tok.Metadata["value"] != "func main() {}" {
		t.Errorf("value = %q", tok.Metadata["value"])
	}
	if !tok.Flags.Has(token.FlagMultiline) {
		t.Error("FlagMultiline not set")
	}
}

func TestTokenizeUnterminatedCodeBlock(t *testing.T) {
	stream := tokenize(t, "```go\nfunc main() {}\n")
	tok := stream.Tokens[0]
	if tok.Kind != KindCodeBlock {
		t.Fatalf("Kind = %v, want KindCodeBlock", tok.Kind)
	}
	if !tok.Flags.Has(token.FlagIncomplete) {
		t.Error("FlagIncomplete not set on unterminated fence")
	}
}

func TestTokenizeListItems(t *testing.T) {
	stream := tokenize(t, "- first\n- [x] done\n1. ordered\n")
	if stream.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", stream.Len())
	}
	if stream.Tokens[0].Metadata["ordered"] != "false" {
		t.Errorf("ordered = %q", stream.Tokens[0].Metadata["ordered"])
	}
	if stream.Tokens[1].Metadata["checked"] != "true" {
		t.Errorf("checked = %q", stream.Tokens[1].Metadata["checked"])
	}
	if stream.Tokens[1].Metadata["text"] != "done" {
		t.Errorf("text = %q", stream.Tokens[1].Metadata["text"])
	}
	if stream.Tokens[2].Metadata["ordered"] != "true" {
		t.Errorf("ordered = %q", stream.Tokens[2].Metadata["ordered"])
	}
}

func TestTokenizeMixedDocument(t *testing.T) {
	source := "# Title\n\nFirst paragraph\nspanning two lines\n\n> quoted\n\n---\n"
	stream := tokenize(t, source)

	kinds := []token.Kind{KindHeading, KindBlankLine, KindParagraph, KindBlankLine, KindBlockQuote, KindBlankLine, KindThematicBreak}
	if stream.Len() != len(kinds) {
		t.Fatalf("Len() = %d, want %d", stream.Len(), len(kinds))
	}
	for i, want := range kinds {
		if stream.Tokens[i].Kind != want {
			t.Errorf("Tokens[%d].Kind = %v, want %v", i, stream.Tokens[i].Kind, want)
		}
	}

	var rebuilt strings.Builder
	for _, tok := range stream.Tokens {
		rebuilt.WriteString(tok.Value)
	}
	if rebuilt.String() != source {
		t.Errorf("round trip = %q", rebuilt.String())
	}
}

// largeDoc builds a document over the small-document cutoff: many
// blank-line-separated paragraphs with one heading in the middle.
func largeDoc() string {
	var b strings.Builder
	b.WriteString("# Top\n\n")
	for i := 0; i < 30; i++ {
		b.WriteString("Paragraph body with enough words to take up space.\n\n")
	}
	b.WriteString("## Section heading\n\n")
	for i := 0; i < 30; i++ {
		b.WriteString("More body text after the section heading here.\n\n")
	}
	return b.String()
}

func TestIncrementalHeadingEdit(t *testing.T) {
	old := largeDoc()
	new_ := strings.Replace(old, "## Section heading\n", "## Section headline\n", 1)
	if new_ == old {
		t.Fatal("replacement did not apply")
	}

	strategy := NewStrategy(DefaultConfig())
	stream := tokenizer.Tokenize(strategy, old)
	next, stats := tokenizer.Update(strategy, stream, new_, edit.Detect(old, new_))

	if err := next.Validate(); err != nil {
		t.Fatalf("updated stream invalid: %v", err)
	}
	if stats.Retokenized != 1 {
		t.Errorf("Retokenized = %d, want 1", stats.Retokenized)
	}
	total := float64(stats.TotalTokens)
	if stats.ReuseRate <= (total-1)/total*0.95 {
		t.Errorf("ReuseRate = %v, want overwhelming reuse", stats.ReuseRate)
	}
	if stats.Speedup <= 1 {
		t.Errorf("Speedup = %v, want > 1", stats.Speedup)
	}
}

func TestExpandBoundarySmallDocNonStructural(t *testing.T) {
	source := "one paragraph\n\nanother paragraph\n"
	strategy := NewStrategy(DefaultConfig())
	stream := tokenizer.Tokenize(strategy, source)

	rng := tokenizer.Range{StartIndex: 0, EndIndex: 0}
	got := strategy.ExpandBoundary(stream, rng, edit.Edit{StartOffset: 4, OldEndOffset: 5, NewEndOffset: 5})
	if got != rng {
		t.Errorf("ExpandBoundary = %+v, want unexpanded %+v", got, rng)
	}
}

func TestExpandBoundarySmallDocStructural(t *testing.T) {
	source := "# heading\n\nbody\n"
	strategy := NewStrategy(DefaultConfig())
	stream := tokenizer.Tokenize(strategy, source)

	rng := tokenizer.Range{StartIndex: 0, EndIndex: 0}
	got := strategy.ExpandBoundary(stream, rng, edit.Edit{StartOffset: 3, OldEndOffset: 4, NewEndOffset: 4})
	want := tokenizer.Range{StartIndex: 0, EndIndex: stream.Len() - 1}
	if got != want {
		t.Errorf("ExpandBoundary = %+v, want %+v", got, want)
	}
}

func TestExpandBoundaryLargeDocStopsAtBlankLines(t *testing.T) {
	source := largeDoc()
	strategy := NewStrategy(DefaultConfig())
	stream := tokenizer.Tokenize(strategy, source)

	// Find the section heading token.
	at := -1
	for i, tok := range stream.Tokens {
		if tok.Kind == KindHeading && tok.Metadata["depth"] == "2" {
			at = i
			break
		}
	}
	if at < 0 {
		t.Fatal("no section heading token")
	}

	rng := tokenizer.Range{StartIndex: at, EndIndex: at}
	offset := stream.Tokens[at].Span.Start.Offset + 4
	got := strategy.ExpandBoundary(stream, rng, edit.Edit{StartOffset: offset, OldEndOffset: offset + 1, NewEndOffset: offset + 1})
	if got != rng {
		t.Errorf("ExpandBoundary = %+v, want unexpanded %+v (blank lines on both sides)", got, rng)
	}
}

func TestExpandBoundaryListRunCrossesBlanks(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("filler paragraph to get over the size cutoff.\n\n")
	}
	b.WriteString("- item one\n\n- item two\n\n- item three\n")
	source := b.String()

	strategy := NewStrategy(DefaultConfig())
	stream := tokenizer.Tokenize(strategy, source)

	// Locate the middle list item.
	at := -1
	count := 0
	for i, tok := range stream.Tokens {
		if tok.Kind == KindListItem {
			count++
			if count == 2 {
				at = i
			}
		}
	}
	if at < 0 {
		t.Fatal("no middle list item")
	}

	rng := tokenizer.Range{StartIndex: at, EndIndex: at}
	offset := stream.Tokens[at].Span.Start.Offset + 3
	got := strategy.ExpandBoundary(stream, rng, edit.Edit{StartOffset: offset, OldEndOffset: offset, NewEndOffset: offset + 1})
	if got.StartIndex >= at {
		t.Errorf("StartIndex = %d, want expansion into the list run", got.StartIndex)
	}
	if got.EndIndex <= at {
		t.Errorf("EndIndex = %d, want expansion into the list run", got.EndIndex)
	}
}
