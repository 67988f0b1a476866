// Package general carries the small utility commands that don't belong to a
// bigger feature: uptime, rank lookup, and the command index.
package general

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"chatwarden/internal/chat"
	"chatwarden/internal/extension"
	"chatwarden/internal/registry"
	"chatwarden/internal/runtime"
)

const moduleID = "general"

func init() {
	extension.RegisterFactory(moduleID, func() extension.Extension { return &Module{} })
}

type Module struct {
	rc *runtime.Context

	mu     sync.Mutex // dispatches run concurrently, liveAt is shared across them
	liveAt time.Time
}

func (m *Module) ID() string { return moduleID }

func (m *Module) Setup(rc *runtime.Context) error {
	m.rc = rc

	rc.Registry.Register(registry.Entry{
		Name: "uptime", Module: moduleID, Handler: "uptime",
		Enabled: true, Permission: chat.GroupEveryone, CooldownSeconds: 15,
	})
	rc.Registry.Register(registry.Entry{
		Name: "rank", Module: moduleID, Handler: "rank",
		Enabled: true, Permission: chat.GroupEveryone, CooldownSeconds: 10,
	})
	rc.Registry.Register(registry.Entry{
		Name: "commands", Module: moduleID, Handler: "commands",
		Enabled: true, Permission: chat.GroupEveryone, CooldownSeconds: 30,
	})
	return nil
}

func (m *Module) Handlers() map[string]chat.HandlerFunc {
	return map[string]chat.HandlerFunc{
		"uptime":   m.handleUptime,
		"rank":     m.handleRank,
		"commands": m.handleCommands,
	}
}

func (m *Module) handleUptime(ctx context.Context, ev *chat.Event) error {
	if m.rc.Live == nil {
		ev.Respond("Stream status is not available.")
		return nil
	}
	live, err := m.rc.Live.IsLive(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if !live {
		m.liveAt = time.Time{}
		m.mu.Unlock()
		ev.Respond(m.rc.Channel + " is offline.")
		return nil
	}
	// The stream API only answers live/offline, so uptime is measured from
	// the first live observation this process made.
	if m.liveAt.IsZero() {
		m.liveAt = time.Now()
		m.mu.Unlock()
		ev.Respond(m.rc.Channel + " is live!")
		return nil
	}
	d := time.Since(m.liveAt).Round(time.Minute)
	m.mu.Unlock()

	ev.Respond(fmt.Sprintf("%s has been live for at least %s.", m.rc.Channel, formatDuration(d)))
	return nil
}

func (m *Module) handleRank(ctx context.Context, ev *chat.Event) error {
	account, found, err := m.rc.Store.GetUser(ev.Sender.Name)
	if err != nil {
		return err
	}
	if !found || account.Rank == 0 {
		ev.Respond(fmt.Sprintf("@%s you don't have a rank yet.", ev.Sender.DisplayName))
		return nil
	}
	ev.Respond(fmt.Sprintf("@%s your rank is %d.", ev.Sender.DisplayName, account.Rank))
	return nil
}

func (m *Module) handleCommands(ctx context.Context, ev *chat.Event) error {
	names := make([]string, 0)
	for _, e := range m.rc.Registry.All() {
		if e.Enabled && e.Permission >= ev.Sender.GroupID {
			names = append(names, "!"+e.Name)
		}
	}
	sort.Strings(names)
	ev.Respond("Available commands: " + strings.Join(names, ", "))
	return nil
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	min := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", min)
	}
	return fmt.Sprintf("%dh %dm", h, min)
}
