// Package runtime defines the shared engine context handed to every
// component and extension. It is constructed exactly once at engine start and
// passed by reference; nothing reads it through a global.
package runtime

import (
	"sync"

	"chatwarden/internal/cooldown"
	"chatwarden/internal/economy"
	"chatwarden/internal/events"
	"chatwarden/internal/platform"
	"chatwarden/internal/registry"
	"chatwarden/internal/storage"
	"chatwarden/pkg/jobmgr"

	"github.com/rs/zerolog"
)

// Context exposes the engine's capabilities to extensions and handlers.
type Context struct {
	Channel string
	BotName string

	Store     *storage.Storage
	Registry  *registry.Registry
	Cooldowns *cooldown.Tracker
	Points    *economy.Points
	Bus       *events.Bus
	Connector platform.Connector
	Jobs      *jobmgr.Manager
	Live      economy.LiveChecker // nil when no stream API credentials are set
	Log       zerolog.Logger

	mu           sync.RWMutex
	capabilities map[string]any
}

// Extend attaches a named capability. Attaching a name that already exists
// overwrites the previous value, with a warning, so re-initialization stays
// idempotent.
func (c *Context) Extend(name string, capability any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capabilities == nil {
		c.capabilities = make(map[string]any)
	}
	if _, exists := c.capabilities[name]; exists {
		c.Log.Warn().Str("capability", name).Msg("Capability already attached, overwriting")
	}
	c.capabilities[name] = capability
}

// Capability returns an attached capability by name.
func (c *Context) Capability(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.capabilities[name]
	return v, ok
}
