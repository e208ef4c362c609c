package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dhamidi/synth/edit"
	"github.com/dhamidi/synth/text"
	"github.com/dhamidi/synth/token"
	"github.com/dhamidi/synth/tokenizer"
	"github.com/dhamidi/synth/tree"
)

// lineStrategy tokenizes input into one token per line, including the
// trailing newline. Exact enough to predict reuse numbers.
type lineStrategy struct{}

const kindLine = token.KindLanguageBase

func (lineStrategy) Language() string { return "lines" }

func (lineStrategy) Tokenize(source string) []token.Token {
	var tokens []token.Token
	pos := text.StartOfFile()
	for pos.Offset < len(source) {
		start := pos
		end := strings.IndexByte(source[pos.Offset:], '\n')
		var value string
		if end < 0 {
			value = source[pos.Offset:]
		} else {
			value = source[pos.Offset : pos.Offset+end+1]
		}
		pos = pos.AdvanceString(value)
		tokens = append(tokens, token.Token{
			Kind:  kindLine,
			Value: value,
			Span:  text.NewSpan(start, pos),
		})
	}
	return tokens
}

func (lineStrategy) ExpandBoundary(stream *token.Stream, rng tokenizer.Range, ed edit.Edit) tokenizer.Range {
	return rng
}

// lineBackend builds one "line" node per token. It deliberately lacks
// ReparseRegion, so updates through it take the full-parse fallback.
type lineBackend struct {
	parses  int
	failing bool
}

func (b *lineBackend) Parse(source string) (*tree.Tree, error) {
	b.parses++
	if b.failing {
		return nil, &ParseError{Line: 1, Column: 0, Msg: "forced failure"}
	}
	t := tree.New("lines", source)
	for _, tok := range (lineStrategy{}).Tokenize(source) {
		id, err := t.Append(tree.NewNode("line").WithSpan(tok.Span).WithData("value", tok.Value))
		if err != nil {
			return nil, err
		}
		if err := t.AddChild(t.Root(), id); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// reparserBackend records the ranges handed to it.
type reparserBackend struct {
	lineBackend
	ranges []tokenizer.Range
}

func (b *reparserBackend) ReparseRegion(prev *tree.Tree, rng tokenizer.Range, stream *token.Stream) (*tree.Tree, error) {
	b.ranges = append(b.ranges, rng)
	return b.Parse(stream.Source)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestManager(t *testing.T, backend Backend, opts ...Option) *Manager {
	t.Helper()
	registry := NewRegistry()
	if err := registry.Add("lines", Sync(Language{Strategy: lineStrategy{}, Backend: backend})); err != nil {
		t.Fatalf("Add = %v", err)
	}
	return NewManager(registry, opts...)
}

func TestOpenDuplicate(t *testing.T) {
	m := newTestManager(t, &lineBackend{})
	ctx := context.Background()

	if _, err := m.Open(ctx, "a.txt", "one\n", "lines"); err != nil {
		t.Fatalf("first Open = %v", err)
	}
	_, err := m.Open(ctx, "a.txt", "two\n", "lines")
	if !errors.Is(err, ErrDuplicateSession) {
		t.Errorf("second Open = %v, want ErrDuplicateSession", err)
	}
}

func TestOpenUnknownLanguage(t *testing.T) {
	m := newTestManager(t, &lineBackend{})
	_, err := m.Open(context.Background(), "a.txt", "one\n", "prolog")
	if !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("Open = %v, want ErrUnknownLanguage", err)
	}
}

func TestSessionNotFound(t *testing.T) {
	m := newTestManager(t, &lineBackend{})

	if _, err := m.Update("missing", "x\n", nil); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Update = %v, want ErrSessionNotFound", err)
	}
	if err := m.Close("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Close = %v, want ErrSessionNotFound", err)
	}
	if _, ok := m.GetTree("missing"); ok {
		t.Error("GetTree returned a tree for an unknown key")
	}
}

func TestUpdateSameSourceReusesEverything(t *testing.T) {
	m := newTestManager(t, &lineBackend{})
	src := "one\ntwo\nthree\n"

	opened, err := m.Open(context.Background(), "a.txt", src, "lines")
	if err != nil {
		t.Fatalf("Open = %v", err)
	}
	res, err := m.Update("a.txt", src, nil)
	if err != nil {
		t.Fatalf("Update = %v", err)
	}
	if res.ReuseRate != 1.0 {
		t.Errorf("reuse rate = %f, want 1.0", res.ReuseRate)
	}
	if res.Tree != opened {
		t.Error("tree rebuilt on a no-op update, want the same tree")
	}
	if res.NodeDelta != 0 {
		t.Errorf("node delta = %d, want 0", res.NodeDelta)
	}
}

func TestUpdateFallsBackToFullParse(t *testing.T) {
	backend := &lineBackend{}
	m := newTestManager(t, backend)

	if _, err := m.Open(context.Background(), "a.txt", "one\ntwo\n", "lines"); err != nil {
		t.Fatalf("Open = %v", err)
	}
	res, err := m.Update("a.txt", "one\ntWo\n", nil)
	if err != nil {
		t.Fatalf("Update = %v", err)
	}
	if backend.parses != 2 {
		t.Errorf("parses = %d, want 2 (open + fallback)", backend.parses)
	}
	// Token reuse still happens even though the tree is rebuilt whole,
	// but the reported speedup must say the parse was paid in full.
	if res.Stats.Reused != 1 {
		t.Errorf("reused tokens = %d, want 1", res.Stats.Reused)
	}
	if res.Speedup != 1 {
		t.Errorf("speedup = %f, want 1 (full reparse)", res.Speedup)
	}
	if avg := m.GlobalStats().AvgSpeedup; avg != 1 {
		t.Errorf("avg speedup = %f, want 1", avg)
	}
	session, err := m.GetSession("a.txt")
	if err != nil {
		t.Fatalf("GetSession = %v", err)
	}
	if session.Source != "one\ntWo\n" {
		t.Errorf("session source = %q", session.Source)
	}
}

func TestUpdateDelegatesRegion(t *testing.T) {
	backend := &reparserBackend{}
	m := newTestManager(t, backend)

	if _, err := m.Open(context.Background(), "a.txt", "one\ntwo\nthree\n", "lines"); err != nil {
		t.Fatalf("Open = %v", err)
	}
	res, err := m.Update("a.txt", "one\ntWo\nthree\n", nil)
	if err != nil {
		t.Fatalf("Update = %v", err)
	}
	if len(backend.ranges) != 1 {
		t.Fatalf("reparse calls = %d, want 1", len(backend.ranges))
	}
	want := tokenizer.Range{StartIndex: 1, EndIndex: 1}
	if backend.ranges[0] != want {
		t.Errorf("range = %+v, want %+v", backend.ranges[0], want)
	}
	// Region reparse keeps the tokenizer's speedup: 1 of 3 tokens redone.
	if res.Speedup != 3 {
		t.Errorf("speedup = %f, want 3", res.Speedup)
	}
}

func TestUpdateFailureKeepsPriorState(t *testing.T) {
	backend := &lineBackend{}
	m := newTestManager(t, backend)

	opened, err := m.Open(context.Background(), "a.txt", "one\n", "lines")
	if err != nil {
		t.Fatalf("Open = %v", err)
	}

	backend.failing = true
	_, err = m.Update("a.txt", "two\n", nil)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Update = %v, want *ParseError", err)
	}

	session, _ := m.GetSession("a.txt")
	if session.Source != "one\n" {
		t.Errorf("source committed on failure: %q", session.Source)
	}
	if session.Tree != opened {
		t.Error("tree committed on failure")
	}
	if session.Updates != 0 {
		t.Errorf("updates = %d, want 0", session.Updates)
	}
}

func TestEvictionDropsOldest(t *testing.T) {
	clock := &fakeClock{}
	m := newTestManager(t, &lineBackend{}, WithMaxSessions(2), WithClock(clock.Now))
	ctx := context.Background()

	for _, key := range []string{"a", "b"} {
		if _, err := m.Open(ctx, key, key+"\n", "lines"); err != nil {
			t.Fatalf("Open(%q) = %v", key, err)
		}
	}
	// Touch "a" so "b" becomes the eviction candidate.
	if _, err := m.Update("a", "a!\n", nil); err != nil {
		t.Fatalf("Update = %v", err)
	}
	if _, err := m.Open(ctx, "c", "c\n", "lines"); err != nil {
		t.Fatalf("Open(c) = %v", err)
	}

	if _, ok := m.GetTree("b"); ok {
		t.Error("evicted session still resolvable")
	}
	if _, ok := m.GetTree("a"); !ok {
		t.Error("recently touched session evicted")
	}
	if _, err := m.Update("b", "b\n", nil); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Update(evicted) = %v, want ErrSessionNotFound", err)
	}

	stats := m.GlobalStats()
	if stats.ActiveSessions != 2 {
		t.Errorf("active = %d, want 2", stats.ActiveSessions)
	}
	if stats.TotalSessions != 3 {
		t.Errorf("total = %d, want 3 (eviction never erases history)", stats.TotalSessions)
	}
	if stats.Evictions != 1 {
		t.Errorf("evictions = %d, want 1", stats.Evictions)
	}
}

func TestGlobalStatsRunningAverage(t *testing.T) {
	m := newTestManager(t, &lineBackend{})
	ctx := context.Background()

	if _, err := m.Open(ctx, "a", "one\ntwo\nthree\nfour\n", "lines"); err != nil {
		t.Fatalf("Open = %v", err)
	}
	// First update reuses everything, second reuses 3 of 4 lines.
	if _, err := m.Update("a", "one\ntwo\nthree\nfour\n", nil); err != nil {
		t.Fatalf("Update = %v", err)
	}
	if _, err := m.Update("a", "one\ntwo\nthrEe\nfour\n", nil); err != nil {
		t.Fatalf("Update = %v", err)
	}

	stats := m.GlobalStats()
	if stats.TotalUpdates != 2 {
		t.Fatalf("updates = %d, want 2", stats.TotalUpdates)
	}
	want := (1.0 + 0.75) / 2
	if diff := stats.AvgReuseRate - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("avg reuse = %f, want %f", stats.AvgReuseRate, want)
	}
}
