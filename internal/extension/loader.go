// Package extension resolves module identifiers to handler sets. Modules
// register a factory at startup (init() in their package, blank-imported by
// the binary); the loader builds each module on first use and caches it.
package extension

import (
	"fmt"
	"sort"
	"sync"

	"chatwarden/internal/chat"
	"chatwarden/internal/runtime"

	"github.com/rs/zerolog"
)

// Extension is one loadable handler module.
type Extension interface {
	ID() string
	// Setup runs once during engine initialization. It may register commands,
	// schedule background jobs, and wire event listeners.
	Setup(rc *runtime.Context) error
	// Handlers exposes the module's command handlers by name.
	Handlers() map[string]chat.HandlerFunc
}

// CoreExtender is implemented by extensions that attach capabilities onto the
// shared runtime context.
type CoreExtender interface {
	Capabilities(rc *runtime.Context) map[string]any
}

// Factory builds a fresh extension instance.
type Factory func() Extension

// ResolutionError means a module identifier could not be resolved to a
// working handler set. It is never cached; a later load retries.
type ResolutionError struct {
	Module string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve module '%s': %v", e.Module, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

var (
	factoriesMu sync.Mutex
	factories   = make(map[string]Factory)
)

// RegisterFactory adds a module factory to the default table. Called from
// init() in extension packages; re-registering an id replaces the factory.
func RegisterFactory(id string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[id] = f
}

// Loader resolves and caches extension modules.
type Loader struct {
	mu        sync.Mutex
	factories map[string]Factory
	cache     map[string]Extension
	extended  bool
	log       zerolog.Logger
}

// NewLoader snapshots the default factory table.
func NewLoader(logger zerolog.Logger) *Loader {
	factoriesMu.Lock()
	snapshot := make(map[string]Factory, len(factories))
	for id, f := range factories {
		snapshot[id] = f
	}
	factoriesMu.Unlock()

	return &Loader{
		factories: snapshot,
		cache:     make(map[string]Extension),
		log:       logger,
	}
}

// Register adds a factory to this loader only.
func (l *Loader) Register(id string, f Factory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.factories[id] = f
}

// Load resolves a module id to its extension. The first successful resolution
// is cached; failures are returned as *ResolutionError and never cached.
func (l *Loader) Load(id string) (Extension, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(id)
}

func (l *Loader) load(id string) (Extension, error) {
	if ext, ok := l.cache[id]; ok {
		return ext, nil
	}

	factory, ok := l.factories[id]
	if !ok {
		return nil, &ResolutionError{Module: id, Err: fmt.Errorf("no factory registered")}
	}

	ext := factory()
	if ext == nil {
		return nil, &ResolutionError{Module: id, Err: fmt.Errorf("factory returned nil")}
	}

	l.cache[id] = ext
	return ext, nil
}

// Handler resolves a module and returns the named handler. A missing handler
// is a resolution failure: dispatch fails closed.
func (l *Loader) Handler(module, name string) (chat.HandlerFunc, error) {
	ext, err := l.Load(module)
	if err != nil {
		return nil, err
	}
	fn, ok := ext.Handlers()[name]
	if !ok {
		return nil, &ResolutionError{Module: module, Err: fmt.Errorf("no handler '%s'", name)}
	}
	return fn, nil
}

// RegisterAll loads every known module and runs its setup with the shared
// runtime context. One module's failure is logged and skipped; it never
// aborts the others.
func (l *Loader) RegisterAll(rc *runtime.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, 0, len(l.factories))
	for id := range l.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		ext, err := l.load(id)
		if err != nil {
			l.log.Error().Err(err).Str("module", id).Msg("Skipping module: load failed")
			continue
		}
		if err := ext.Setup(rc); err != nil {
			l.log.Error().Err(err).Str("module", id).Msg("Skipping module: setup failed")
			delete(l.cache, id)
			continue
		}
		l.log.Info().Str("module", id).Msg("Module registered")
	}
}

// ExtendCore applies every loaded module's capability hooks onto the runtime
// context, exactly once per loader lifetime. Conflicting capability names
// overwrite (logged by the context).
func (l *Loader) ExtendCore(rc *runtime.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.extended {
		return
	}
	l.extended = true

	ids := make([]string, 0, len(l.cache))
	for id := range l.cache {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		extender, ok := l.cache[id].(CoreExtender)
		if !ok {
			continue
		}
		for name, capability := range extender.Capabilities(rc) {
			rc.Extend(name, capability)
		}
	}
}

// Unload drops a module from the cache so the next load rebuilds it. The
// caller is responsible for unregistering its commands first.
func (l *Loader) Unload(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, id)
}
