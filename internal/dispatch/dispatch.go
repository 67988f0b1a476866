// Package dispatch sequences the policy pipeline for every incoming command:
// registry lookup, enablement, cooldown, permission and affordability checks,
// handler execution, side-effect commit, and completion notification.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"chatwarden/internal/chat"
	"chatwarden/internal/events"
	"chatwarden/internal/extension"
	"chatwarden/internal/runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Settings keys for the engine-wide policy switches. Both default to on.
const (
	SettingEconomyEnabled  = "economy.enabled"
	SettingCooldownEnabled = "cooldown.enabled"
)

type Dispatcher struct {
	rc     *runtime.Context
	loader *extension.Loader
	log    zerolog.Logger
}

func New(rc *runtime.Context, loader *extension.Loader) *Dispatcher {
	return &Dispatcher{
		rc:     rc,
		loader: loader,
		log:    rc.Log.With().Str("component", "dispatch").Logger(),
	}
}

// Run processes one command event through the full pipeline. Rejections
// short-circuit: unknown and disabled commands abort silently, cooldown,
// permission and affordability rejections notify the sender. Side effects
// are committed only after the handler succeeds.
func (d *Dispatcher) Run(ctx context.Context, ev *chat.Event) {
	// Stage 1: peel off a subcommand when the first argument resolves to one.
	if len(ev.Args) > 0 && d.rc.Registry.ResolveSubcommand(ev.Command, ev.Args[0]) {
		ev.Subcommand = strings.ToLower(ev.Args[0])
		ev.Args = ev.Args[1:]
	}
	command, sub, user := ev.Command, ev.Subcommand, ev.Sender.Name

	// Stage 2: fetch all policy inputs concurrently, join before deciding.
	var (
		economyOn, cooldownOn   bool
		cmdExists, cmdEnabled   bool
		permLevel, cooldownSecs int
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { economyOn = d.rc.Store.SettingBool(SettingEconomyEnabled, true); return nil })
	g.Go(func() error { cooldownOn = d.rc.Store.SettingBool(SettingCooldownEnabled, true); return nil })
	g.Go(func() error { cmdExists = d.rc.Registry.Exists(command, sub); return nil })
	g.Go(func() error { cmdEnabled = d.rc.Registry.IsEnabled(command, sub); return nil })
	g.Go(func() error { permLevel = d.rc.Registry.PermLevel(command, sub); return nil })
	_ = g.Wait()

	// Stage 3: unknown commands stay silent. Typos and other bots would
	// otherwise flood chat with error noise.
	if !cmdExists {
		d.log.Debug().Str("command", command).Str("user", user).Msg("Unknown command")
		return
	}

	// Stage 4: disabled commands are equally silent.
	if !cmdEnabled {
		d.log.Debug().Str("command", command).Str("sub", sub).Msg("Command disabled")
		return
	}

	// Stage 5: cooldown, keyed by the resolved pair so a subcommand never
	// shares a bucket with its parent.
	if cooldownOn {
		cooldownSecs = d.rc.Registry.CooldownSeconds(command, sub)
		if remaining := d.rc.Cooldowns.Remaining(command, sub, user, cooldownSecs); remaining > 0 {
			d.log.Info().Str("command", command).Str("user", user).Int("remaining", remaining).Msg("Command on cooldown")
			d.rc.Connector.Whisper(user, fmt.Sprintf("You need to wait %d seconds before using !%s again.", remaining, displayName(command, sub)))
			return
		}
	}

	// Stage 6: lower group number means higher privilege; a sender whose
	// group number exceeds the required level is rejected.
	if ev.Sender.GroupID > permLevel {
		d.log.Info().Str("command", command).Str("user", user).Int("group", ev.Sender.GroupID).Int("required", permLevel).Msg("Permission denied")
		d.rc.Connector.Whisper(user, fmt.Sprintf("You don't have permission to use !%s.", displayName(command, sub)))
		return
	}

	// Stage 7: affordability, only for priced commands. A balance exactly
	// equal to the price is not enough.
	price := 0
	if economyOn {
		affordable, points, cost, err := d.rc.Points.CanAffordCommand(ctx, user, command, sub)
		if err != nil {
			d.log.Error().Err(err).Str("command", command).Str("user", user).Msg("Affordability check failed")
			return
		}
		price = cost
		if price > 0 && !affordable {
			d.log.Info().Str("command", command).Str("user", user).Int("points", points).Int("price", price).Msg("Cannot afford command")
			d.rc.Connector.Whisper(user, fmt.Sprintf("!%s costs %d %s and you have %d.", displayName(command, sub), price, d.rc.Points.PointName(price == 1), points))
			return
		}
	}

	// Stage 8: execution. Respond routes by how the command arrived.
	ev.Respond = d.responder(ev)

	if d.rc.Registry.IsCustom(command) {
		tpl, found, err := d.rc.Store.GetCustomCommand(command)
		if err != nil || !found {
			d.log.Error().Err(err).Str("command", command).Msg("Custom command has no stored response")
			return
		}
		ev.Respond(RenderTemplate(tpl, ev, d.rc.Channel))
	} else {
		entry, ok := d.rc.Registry.Get(command)
		if sub != "" {
			if subEntry, subOk := d.rc.Registry.GetSub(command, sub); subOk {
				entry, ok = subEntry, true
			}
		}
		if !ok {
			return
		}

		fn, err := d.loader.Handler(entry.Module, entry.Handler)
		if err != nil {
			d.log.Error().Err(err).Str("command", command).Msg("Handler resolution failed, dispatch aborted")
			return
		}
		if err := invoke(ctx, fn, ev); err != nil {
			d.log.Error().Err(err).Str("command", command).Str("user", user).Msg("Handler execution failed")
			return
		}
	}

	// Stage 9: commit side effects only on the success path.
	if cooldownOn {
		d.rc.Cooldowns.Start(command, sub, user)
	}
	if economyOn && price > 0 {
		if err := d.rc.Points.Sub(user, price); err != nil {
			d.log.Error().Err(err).Str("command", command).Str("user", user).Int("price", price).Msg("Failed to debit command price")
		}
	}

	// Stage 10: completion notification for observers.
	name := "command:" + command
	if sub != "" {
		name += ":" + sub
	}
	d.rc.Bus.Emit(name, events.Payload{
		"command":    command,
		"subcommand": sub,
		"user":       user,
		"args":       ev.Args,
		"whispered":  ev.Whispered,
	})
}

// invoke runs a handler, converting a panic into an error so one broken
// handler never takes the engine down.
func invoke(ctx context.Context, fn chat.HandlerFunc, ev *chat.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn(ctx, ev)
}

func (d *Dispatcher) responder(ev *chat.Event) func(string) {
	if ev.Whispered {
		user := ev.Sender.Name
		return func(msg string) { d.rc.Connector.Whisper(user, msg) }
	}
	channel := d.rc.Channel
	return func(msg string) { d.rc.Connector.Say(channel, msg) }
}

func displayName(command, sub string) string {
	if sub == "" {
		return command
	}
	return command + " " + sub
}
