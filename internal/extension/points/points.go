// Package points is the built-in economy extension: balance queries, manual
// grants, the leaderboard, and the recurring payout job.
package points

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"chatwarden/internal/chat"
	"chatwarden/internal/economy"
	"chatwarden/internal/extension"
	"chatwarden/internal/registry"
	"chatwarden/internal/runtime"
	"chatwarden/internal/storage"
)

const moduleID = "points"

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
		Name: "points", Module: moduleID, Handler: "balance",
		Enabled: true, Permission: chat.GroupEveryone, CooldownSeconds: 5,
	})
	rc.Registry.Register(registry.Entry{
		Name: "give", Module: moduleID, Handler: "give", SubcommandOf: "points",
		Enabled: true, Permission: chat.GroupModerator, Price: registry.InheritPrice,
	})
	rc.Registry.Register(registry.Entry{
		Name: "top", Module: moduleID, Handler: "top", SubcommandOf: "points",
		Enabled: true, Permission: chat.GroupEveryone, CooldownSeconds: 30, Price: registry.InheritPrice,
	})

	if err := rc.Jobs.StartRecurring(economy.PayoutJobName, economy.PayoutPeriod, rc.Points.RunPayout); err != nil {
		// Already running after a reconnect cycle; the old timer keeps going.
		rc.Log.Debug().Err(err).Msg("Payout job already scheduled")
	}
	return nil
}

func (m *Module) Handlers() map[string]chat.HandlerFunc {
	return map[string]chat.HandlerFunc{
		"balance": m.handleBalance,
		"give":    m.handleGive,
		"top":     m.handleTop,
	}
}

// Capabilities exposes the currency vocabulary to other extensions.
func (m *Module) Capabilities(rc *runtime.Context) map[string]any {
	return map[string]any{
		"pointname": func(singular bool) string { return rc.Points.PointName(singular) },
	}
}

func (m *Module) handleBalance(ctx context.Context, ev *chat.Event) error {
	balance, err := m.rc.Points.Balance(ev.Sender.Name)
	if err != nil {
		return err
	}
	ev.Respond(fmt.Sprintf("@%s you have %d %s.", ev.Sender.DisplayName, balance, m.rc.Points.PointName(balance == 1)))
	return nil
}

func (m *Module) handleGive(ctx context.Context, ev *chat.Event) error {
	if len(ev.Args) < 2 {
		ev.Respond("Usage: !points give <user> <amount>")
		return nil
	}

	target := strings.ToLower(strings.TrimPrefix(ev.Args[0], "@"))
	amount, err := strconv.Atoi(ev.Args[1])
	if err != nil || amount <= 0 {
		ev.Respond("Amount must be a positive number.")
		return nil
	}

	if err := m.rc.Points.Add(target, amount); err != nil {
		return err
	}
	ev.Respond(fmt.Sprintf("Gave %d %s to %s.", amount, m.rc.Points.PointName(amount == 1), target))
	return nil
}

func (m *Module) handleTop(ctx context.Context, ev *chat.Event) error {
	rows, err := m.rc.Store.GetAll(storage.UsersTable)
	if err != nil {
		return err
	}

	type entry struct {
		name   string
		points int
	}
	ranked := make([]entry, 0, len(rows))
	for _, row := range rows {
		name := storage.ToString(row["name"])
		if strings.EqualFold(name, m.rc.BotName) {
			continue
		}
		ranked = append(ranked, entry{name: name, points: storage.ToInt(row["points"])})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].points > ranked[j].points })

	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	parts := make([]string, 0, len(ranked))
	for i, e := range ranked {
		parts = append(parts, fmt.Sprintf("%d. %s (%d)", i+1, e.name, e.points))
	}
	if len(parts) == 0 {
		ev.Respond("Nobody has any " + m.rc.Points.PointName(false) + " yet.")
		return nil
	}
	ev.Respond("Top " + m.rc.Points.PointName(false) + ": " + strings.Join(parts, ", "))
	return nil
}
