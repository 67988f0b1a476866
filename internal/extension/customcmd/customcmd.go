// Package customcmd manages data-defined commands: stored response templates
// registered under the reserved "custom" module and rendered at dispatch.
package customcmd

import (
	"context"
	"fmt"
	"strings"

	"chatwarden/internal/chat"
	"chatwarden/internal/extension"
	"chatwarden/internal/registry"
	"chatwarden/internal/runtime"
)

const moduleID = "customcmd"

func init() {
	extension.RegisterFactory(moduleID, func() extension.Extension { return &Module{} })
}

type Module struct {
	rc *runtime.Context
}

func (m *Module) ID() string { return moduleID }

func (m *Module) Setup(rc *runtime.Context) error {
	m.rc = rc

	rc.Registry.Register(registry.Entry{
		Name: "command", Module: moduleID, Handler: "help",
		Enabled: true, Permission: chat.GroupModerator,
	})
	for _, sub := range []string{"add", "remove", "list"} {
		rc.Registry.Register(registry.Entry{
			Name: sub, Module: moduleID, Handler: sub, SubcommandOf: "command",
			Enabled: true, Permission: chat.GroupModerator, Price: registry.InheritPrice,
		})
	}

	// Stored custom commands survive restarts; put them back in the registry.
	names, err := rc.Store.ListCustomCommands()
	if err != nil {
		return err
	}
	for _, name := range names {
		m.registerCustom(name)
	}
	return nil
}

func (m *Module) Handlers() map[string]chat.HandlerFunc {
	return map[string]chat.HandlerFunc{
		"help":   m.handleHelp,
		"add":    m.handleAdd,
		"remove": m.handleRemove,
		"list":   m.handleList,
	}
}

func (m *Module) registerCustom(name string) {
	m.rc.Registry.Register(registry.Entry{
		Name:    name,
		Module:  registry.CustomModule,
		Enabled: true, Permission: chat.GroupEveryone, CooldownSeconds: 5,
	})
}

func (m *Module) handleHelp(ctx context.Context, ev *chat.Event) error {
	ev.Respond("Usage: !command add <name> <response> | !command remove <name> | !command list")
	return nil
}

func (m *Module) handleAdd(ctx context.Context, ev *chat.Event) error {
	if len(ev.Args) < 2 {
		ev.Respond("Usage: !command add <name> <response>")
		return nil
	}

	name := strings.ToLower(strings.TrimPrefix(ev.Args[0], "!"))
	response := strings.Join(ev.Args[1:], " ")

	if _, exists := m.rc.Registry.Get(name); exists && !m.rc.Registry.IsCustom(name) {
		ev.Respond(fmt.Sprintf("!%s is a built-in command and can't be replaced.", name))
		return nil
	}

	if err := m.rc.Store.SaveCustomCommand(name, response); err != nil {
		return err
	}
	m.registerCustom(name)
	ev.Respond(fmt.Sprintf("Command !%s saved.", name))
	return nil
}

func (m *Module) handleRemove(ctx context.Context, ev *chat.Event) error {
	if len(ev.Args) < 1 {
		ev.Respond("Usage: !command remove <name>")
		return nil
	}

	name := strings.ToLower(strings.TrimPrefix(ev.Args[0], "!"))
	if !m.rc.Registry.IsCustom(name) {
		ev.Respond(fmt.Sprintf("!%s is not a custom command.", name))
		return nil
	}

	if err := m.rc.Store.DeleteCustomCommand(name); err != nil {
		return err
	}
	m.rc.Registry.Deregister(name, registry.CustomModule)
	ev.Respond(fmt.Sprintf("Command !%s removed.", name))
	return nil
}

func (m *Module) handleList(ctx context.Context, ev *chat.Event) error {
	names, err := m.rc.Store.ListCustomCommands()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		ev.Respond("No custom commands defined.")
		return nil
	}
	ev.Respond("Custom commands: !" + strings.Join(names, ", !"))
	return nil
}
