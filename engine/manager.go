// Package engine manages parser sessions: one tokenized, parsed
// document per key, updated incrementally and bounded by an LRU cap.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/synth/edit"
	"github.com/dhamidi/synth/token"
	"github.com/dhamidi/synth/tokenizer"
	"github.com/dhamidi/synth/tree"
)

var log = commonlog.GetLogger("synth.engine")

// Config carries the manager's knobs. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	MaxSessions int
	Tuning      Tuning
}

func DefaultConfig() Config {
	return Config{
		MaxSessions: 16,
		Tuning:      DefaultTuning(),
	}
}

// Session is one open document. The manager hands out the live
// pointer; callers treat it as read-only.
type Session struct {
	ID            string
	Key           string
	Language      string
	Source        string
	Stream        *token.Stream
	Tree          *tree.Tree
	LastTouchedAt time.Time
	Updates       int

	lang Language
}

// UpdateResult reports one incremental update.
type UpdateResult struct {
	Tree      *tree.Tree
	ReuseRate float64
	Speedup   float64
	NodeDelta int
	Stats     tokenizer.Stats
}

// GlobalStats accumulates across the manager's lifetime. Averages are
// running averages over every update ever made; eviction does not
// reset them.
type GlobalStats struct {
	ActiveSessions int
	TotalSessions  int
	TotalUpdates   int
	Evictions      int
	AvgReuseRate   float64
	AvgSpeedup     float64
}

type Option func(*Manager)

func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

func WithMaxSessions(n int) Option {
	return func(m *Manager) { m.cfg.MaxSessions = n }
}

func WithTuning(tuning Tuning) Option {
	return func(m *Manager) { m.cfg.Tuning = tuning }
}

// WithClock replaces the time source. Tests use it to order evictions
// deterministically.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager owns the session table. All methods are safe for concurrent
// use.
type Manager struct {
	mu       sync.RWMutex
	registry *Registry
	cfg      Config
	now      func() time.Time
	sessions map[string]*Session
	stats    GlobalStats
}

func NewManager(registry *Registry, opts ...Option) *Manager {
	m := &Manager{
		registry: registry,
		cfg:      DefaultConfig(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Tuning() Tuning {
	return m.cfg.Tuning
}

// Open tokenizes and parses source under key. The language must be
// registered; resolving it may block on an async backend's first
// initialization.
func (m *Manager) Open(ctx context.Context, key, source, language string) (*tree.Tree, error) {
	m.mu.RLock()
	_, exists := m.sessions[key]
	m.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("open %q: %w", key, ErrDuplicateSession)
	}

	lang, err := m.registry.Resolve(ctx, language)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", key, err)
	}

	stream := tokenizer.Tokenize(lang.Strategy, source)
	parsed, err := lang.Backend.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[key]; exists {
		return nil, fmt.Errorf("open %q: %w", key, ErrDuplicateSession)
	}
	for len(m.sessions) >= m.cfg.MaxSessions && m.evictOldestLocked() {
	}

	session := &Session{
		ID:            uuid.NewString(),
		Key:           key,
		Language:      language,
		Source:        source,
		Stream:        stream,
		Tree:          parsed,
		LastTouchedAt: m.now(),
		lang:          lang,
	}
	m.sessions[key] = session
	m.stats.TotalSessions++
	log.Infof("opened session %s (%s, key=%q, %d tokens, %d nodes)",
		session.ID, language, key, stream.Len(), parsed.NodeCount())
	return parsed, nil
}

// Update applies newSource to the session. A nil ed means "detect it
// against the current source". On backend failure nothing is
// committed: the session keeps its prior source, stream and tree.
func (m *Manager) Update(key, newSource string, ed *edit.Edit) (UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[key]
	if !ok {
		return UpdateResult{}, fmt.Errorf("update %q: %w", key, ErrSessionNotFound)
	}

	detected := edit.Detect(session.Source, newSource)
	if ed != nil {
		detected = *ed
	}

	stream, stats := tokenizer.Update(session.lang.Strategy, session.Stream, newSource, detected)
	prevNodes := session.Tree.NodeCount()

	var next *tree.Tree
	speedup := stats.Speedup
	switch reparser, incremental := session.lang.Backend.(RegionReparser); {
	case stats.Retokenized == 0 && stream == session.Stream:
		next = session.Tree
	case incremental:
		rebuilt, err := reparser.ReparseRegion(session.Tree, stats.Window, stream)
		if err != nil {
			return UpdateResult{}, fmt.Errorf("update %q: reparse region: %w", key, err)
		}
		next = rebuilt
	default:
		rebuilt, err := session.lang.Backend.Parse(newSource)
		if err != nil {
			return UpdateResult{}, fmt.Errorf("update %q: %w", key, err)
		}
		next = rebuilt
		// The whole tree was rebuilt, so token reuse bought no parsing
		// work back. Report the honest speedup.
		speedup = 1
	}

	session.Source = newSource
	session.Stream = stream
	session.Tree = next
	session.LastTouchedAt = m.now()
	session.Updates++

	m.stats.TotalUpdates++
	n := float64(m.stats.TotalUpdates)
	m.stats.AvgReuseRate += (stats.ReuseRate - m.stats.AvgReuseRate) / n
	m.stats.AvgSpeedup += (speedup - m.stats.AvgSpeedup) / n

	delta := next.NodeCount() - prevNodes
	log.Debugf("session %s updated: reuse=%.2f speedup=%.1fx nodes%+d",
		session.ID, stats.ReuseRate, speedup, delta)

	return UpdateResult{
		Tree:      next,
		ReuseRate: stats.ReuseRate,
		Speedup:   speedup,
		NodeDelta: delta,
		Stats:     stats,
	}, nil
}

func (m *Manager) GetSession(key string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[key]
	if !ok {
		return nil, fmt.Errorf("get session %q: %w", key, ErrSessionNotFound)
	}
	return session, nil
}

// GetTree degrades to absence: an evicted or never-opened key is not
// an error here.
func (m *Manager) GetTree(key string) (*tree.Tree, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[key]
	if !ok {
		return nil, false
	}
	return session.Tree, true
}

func (m *Manager) Close(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[key]
	if !ok {
		return fmt.Errorf("close %q: %w", key, ErrSessionNotFound)
	}
	delete(m.sessions, key)
	log.Infof("closed session %s (key=%q, %d updates)", session.ID, key, session.Updates)
	return nil
}

func (m *Manager) GlobalStats() GlobalStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := m.stats
	stats.ActiveSessions = len(m.sessions)
	return stats
}

// evictOldestLocked drops the session with the oldest LastTouchedAt.
// Eviction is bookkeeping, never an error.
func (m *Manager) evictOldestLocked() bool {
	var oldest *Session
	for _, session := range m.sessions {
		if oldest == nil || session.LastTouchedAt.Before(oldest.LastTouchedAt) {
			oldest = session
		}
	}
	if oldest == nil {
		return false
	}
	delete(m.sessions, oldest.Key)
	m.stats.Evictions++
	log.Infof("evicted session %s (key=%q)", oldest.ID, oldest.Key)
	return true
}
