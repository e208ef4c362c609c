package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/dhamidi/synth/token"
	"github.com/dhamidi/synth/tokenizer"
	"github.com/dhamidi/synth/tree"
)

// Backend turns source text into a tree. Every language provides one.
type Backend interface {
	Parse(source string) (*tree.Tree, error)
}

// RegionReparser is the optional incremental capability. Backends
// without it get a full Parse on every update.
type RegionReparser interface {
	ReparseRegion(prev *tree.Tree, rng tokenizer.Range, stream *token.Stream) (*tree.Tree, error)
}

// Language pairs a tokenization strategy with its tree backend.
type Language struct {
	Strategy tokenizer.Strategy
	Backend  Backend
}

// BackendKind is declared at registration time. The registry never
// infers it by inspecting the backend.
type BackendKind int

const (
	SyncBackend BackendKind = iota
	AsyncBackend
)

// InitFunc builds a language whose backend needs deferred setup
// (loading grammar tables, warming caches).
type InitFunc func(ctx context.Context) (Language, error)

// Registration is one registry entry. Construct with Sync or Async.
type Registration struct {
	kind BackendKind
	lang Language
	init InitFunc
	once sync.Once
	err  error
}

func Sync(lang Language) *Registration {
	return &Registration{kind: SyncBackend, lang: lang}
}

func Async(init InitFunc) *Registration {
	return &Registration{kind: AsyncBackend, init: init}
}

func (r *Registration) Kind() BackendKind {
	return r.kind
}

// Registry maps language names to registrations. Async entries are
// initialized on first resolve, behind a single pending op; the
// result, success or failure, is memoized.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Registration
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Registration)}
}

func (r *Registry) Add(name string, reg *Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("register %q: already registered", name)
	}
	r.entries[name] = reg
	return nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

func (r *Registry) Resolve(ctx context.Context, name string) (Language, error) {
	r.mu.RLock()
	reg, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return Language{}, fmt.Errorf("resolve %q: %w", name, ErrUnknownLanguage)
	}
	if reg.kind == SyncBackend {
		return reg.lang, nil
	}
	reg.once.Do(func() {
		reg.lang, reg.err = reg.init(ctx)
	})
	if reg.err != nil {
		return Language{}, fmt.Errorf("resolve %q: %w", name, reg.err)
	}
	return reg.lang, nil
}
