// Package engine assembles the runtime: storage tables, registry, cooldowns,
// economy, extension loading, the dispatcher, and the connector lifecycle.
package engine

import (
	"context"
	"fmt"
	"sync"

	"chatwarden/internal/chat"
	"chatwarden/internal/cooldown"
	"chatwarden/internal/dispatch"
	"chatwarden/internal/economy"
	"chatwarden/internal/events"
	"chatwarden/internal/extension"
	"chatwarden/internal/platform"
	"chatwarden/internal/registry"
	"chatwarden/internal/runtime"
	"chatwarden/internal/storage"
	"chatwarden/pkg/jobmgr"

	"github.com/rs/zerolog"
)

var tables = []string{
	storage.UsersTable,
	storage.CommandsTable,
	storage.SettingsTable,
	economy.RankBonusTable,
	economy.GroupBonusTable,
}

type Engine struct {
	botName   string
	channel   string
	store     *storage.Storage
	connector platform.Connector
	live      economy.LiveChecker
	log       zerolog.Logger

	mu          sync.Mutex
	started     bool
	stopped     bool
	rc          *runtime.Context
	loader      *extension.Loader
	cancelSweep context.CancelFunc
}

// New wires an engine but starts nothing; call Initialize to bring it up.
// live may be nil when no stream API credentials are available.
func New(botName, channel string, store *storage.Storage, connector platform.Connector, live economy.LiveChecker, logger zerolog.Logger) *Engine {
	return &Engine{
		botName:   botName,
		channel:   channel,
		store:     store,
		connector: connector,
		live:      live,
		log:       logger.With().Str("component", "engine").Logger(),
	}
}

// Initialize brings the engine up: tables, runtime context, extensions,
// message routing, the connector, and background maintenance. Calling it on a
// running engine is a no-op. An engine is single-cycle: Disconnect closes the
// injected store, so initializing again after a disconnect is an error.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}
	if e.stopped {
		return fmt.Errorf("engine: already disconnected, the store is closed; build a new engine")
	}
	if e.store == nil || e.connector == nil {
		return fmt.Errorf("engine: store and connector are required")
	}
	if e.botName == "" || e.channel == "" {
		return fmt.Errorf("engine: bot name and channel are required")
	}

	for _, t := range tables {
		if err := e.store.AddTable(t); err != nil {
			return fmt.Errorf("engine: create table %s: %w", t, err)
		}
	}

	jobs := jobmgr.NewManager(func(status string) {
		e.log.Debug().Str("job", status).Msg("Job status")
	})
	reg := registry.New(e.log)
	bus := events.New(e.log)
	points := economy.New(e.store, reg, e.botName, e.channel, e.live, e.connector, e.log)

	e.rc = &runtime.Context{
		Channel:   e.channel,
		BotName:   e.botName,
		Store:     e.store,
		Registry:  reg,
		Cooldowns: cooldown.New(),
		Points:    points,
		Bus:       bus,
		Connector: e.connector,
		Jobs:      jobs,
		Live:      e.live,
		Log:       e.log,
	}

	e.loader = extension.NewLoader(e.log)
	e.loader.RegisterAll(e.rc)
	e.loader.ExtendCore(e.rc)

	d := dispatch.New(e.rc, e.loader)
	e.connector.OnMessage(func(ev *chat.Event) {
		go d.Run(context.Background(), ev)
	})

	sweepCtx, cancel := context.WithCancel(context.Background())
	e.cancelSweep = cancel
	go cooldown.RunSweeper(sweepCtx, e.rc.Cooldowns, e.log)

	go func() {
		if err := e.connector.Connect(); err != nil {
			e.log.Error().Err(err).Msg("Connector stopped")
		}
	}()

	e.started = true
	bus.Emit("engine:ready", events.Payload{"channel": e.channel})
	e.log.Info().Str("channel", e.channel).Msg("Engine initialized")
	return nil
}

// Disconnect tears the engine down: jobs, sweeper, listeners, connector, and
// finally the store. Calling it on a stopped engine is a no-op.
func (e *Engine) Disconnect() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil
	}
	e.started = false
	e.stopped = true

	e.rc.Jobs.StopAll()
	if e.cancelSweep != nil {
		e.cancelSweep()
	}

	e.rc.Bus.Emit("engine:unloaded", events.Payload{"channel": e.channel})
	e.rc.Bus.RemoveAll()

	if err := e.connector.Disconnect(); err != nil {
		e.log.Error().Err(err).Msg("Connector disconnect failed")
	}
	if err := e.store.Close(); err != nil {
		return fmt.Errorf("engine: close store: %w", err)
	}

	e.log.Info().Msg("Engine disconnected")
	return nil
}

// Runtime exposes the shared context, nil before Initialize.
func (e *Engine) Runtime() *runtime.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rc
}
