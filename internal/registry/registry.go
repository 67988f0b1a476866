// Package registry maps command names (and command/subcommand pairs) to the
// module that owns them, the handler that executes them, and their policy
// metadata.
package registry

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// InheritPrice on a subcommand means "use the parent command's price".
const InheritPrice = -1

// CustomModule is the reserved module tag for data-defined commands whose
// "handler" is a stored response template.
const CustomModule = "custom"

// Entry binds a command name to its handler and policies. A non-empty
// SubcommandOf makes this a subcommand entry, keyed by (name, module) so the
// same subcommand name can exist under parents from different modules.
type Entry struct {
	Name         string
	Module       string
	Handler      string
	SubcommandOf string

	Enabled         bool
	Permission      int
	CooldownSeconds int
	Price           int
}

type Registry struct {
	mu       sync.RWMutex
	commands map[string]Entry // top-level, keyed by name
	subs     map[string]Entry // keyed by name + "\x00" + module
	log      zerolog.Logger
}

func New(logger zerolog.Logger) *Registry {
	return &Registry{
		commands: make(map[string]Entry),
		subs:     make(map[string]Entry),
		log:      logger,
	}
}

func subKey(name, module string) string {
	return name + "\x00" + module
}

// Register adds or replaces an entry. Registering the same (name, module)
// twice replaces the previous metadata, never duplicates.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.Name = strings.ToLower(e.Name)
	if e.SubcommandOf != "" {
		e.SubcommandOf = strings.ToLower(e.SubcommandOf)
		r.subs[subKey(e.Name, e.Module)] = e
		return
	}
	r.commands[e.Name] = e
}

// Unregister removes the module's top-level commands; with cascading it also
// removes the module's subcommand entries. Used when an extension is disabled
// or the engine shuts down.
func (r *Registry) Unregister(module string, cascading bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, e := range r.commands {
		if e.Module == module {
			delete(r.commands, name)
		}
	}
	if cascading {
		for key, e := range r.subs {
			if e.Module == module {
				delete(r.subs, key)
			}
		}
	}
}

// Deregister removes a single top-level entry when it belongs to the module.
func (r *Registry) Deregister(name, module string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.commands[strings.ToLower(name)]; ok && e.Module == module {
		delete(r.commands, strings.ToLower(name))
	}
}

// Get returns the top-level entry for a command.
func (r *Registry) Get(command string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.commands[strings.ToLower(command)]
	return e, ok
}

// GetSub returns the subcommand entry for a resolved (command, subcommand)
// pair. The parent's module selects among same-named subcommands.
func (r *Registry) GetSub(command, subcommand string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getSub(command, subcommand)
}

func (r *Registry) getSub(command, subcommand string) (Entry, bool) {
	parent, ok := r.commands[strings.ToLower(command)]
	if !ok {
		return Entry{}, false
	}
	e, ok := r.subs[subKey(strings.ToLower(subcommand), parent.Module)]
	if !ok || e.SubcommandOf != parent.Name {
		return Entry{}, false
	}
	return e, true
}

// ResolveSubcommand reports whether candidate names a known subcommand of
// command, matching case-insensitively.
func (r *Registry) ResolveSubcommand(command, candidate string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.getSub(command, candidate)
	return ok
}

// Exists reports whether a matching entry exists, enabled or not. An
// unresolvable subcommand falls back to the bare command lookup.
func (r *Registry) Exists(command, subcommand string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if subcommand != "" {
		if _, ok := r.getSub(command, subcommand); ok {
			return true
		}
	}
	_, ok := r.commands[strings.ToLower(command)]
	return ok
}

// IsEnabled reads the enabled flag. A subcommand is enabled independently of
// its parent.
func (r *Registry) IsEnabled(command, subcommand string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if subcommand != "" {
		if e, ok := r.getSub(command, subcommand); ok {
			return e.Enabled
		}
	}
	e, ok := r.commands[strings.ToLower(command)]
	return ok && e.Enabled
}

// PermLevel returns the required permission level; a subcommand entry
// overrides its parent.
func (r *Registry) PermLevel(command, subcommand string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if subcommand != "" {
		if e, ok := r.getSub(command, subcommand); ok {
			return e.Permission
		}
	}
	if e, ok := r.commands[strings.ToLower(command)]; ok {
		return e.Permission
	}
	return 0
}

// CooldownSeconds returns the cooldown for the resolved pair; a subcommand
// entry overrides its parent.
func (r *Registry) CooldownSeconds(command, subcommand string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if subcommand != "" {
		if e, ok := r.getSub(command, subcommand); ok {
			return e.CooldownSeconds
		}
	}
	if e, ok := r.commands[strings.ToLower(command)]; ok {
		return e.CooldownSeconds
	}
	return 0
}

// Price returns the cost of the resolved pair. A subcommand price of
// InheritPrice falls through to the parent's price.
func (r *Registry) Price(command, subcommand string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if subcommand != "" {
		if e, ok := r.getSub(command, subcommand); ok && e.Price != InheritPrice {
			return e.Price
		}
	}
	if e, ok := r.commands[strings.ToLower(command)]; ok {
		return e.Price
	}
	return 0
}

// IsCustom reports whether the command belongs to the reserved custom module.
func (r *Registry) IsCustom(command string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.commands[strings.ToLower(command)]
	return ok && e.Module == CustomModule
}

// All returns every top-level entry.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Entry, 0, len(r.commands))
	for _, e := range r.commands {
		list = append(list, e)
	}
	return list
}
