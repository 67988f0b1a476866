// Package economy manages per-user point balances, command pricing, and the
// periodic payout job.
package economy

import (
	"context"
	"sync"
	"time"

	"chatwarden/internal/registry"
	"chatwarden/internal/storage"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// LiveChecker reports whether the channel's stream is currently live.
type LiveChecker interface {
	IsLive(ctx context.Context) (bool, error)
}

// UserLister returns the chatters currently present in a channel.
type UserLister interface {
	Userlist(channel string) ([]string, error)
}

type Points struct {
	store   *storage.Storage
	reg     *registry.Registry
	botName string
	channel string
	live    LiveChecker
	users   UserLister
	log     zerolog.Logger

	payoutMu     sync.Mutex // one payout run at a time
	lastPayoutAt time.Time
	lastUserList map[string]bool
	now          func() time.Time
}

func New(store *storage.Storage, reg *registry.Registry, botName, channel string, live LiveChecker, users UserLister, logger zerolog.Logger) *Points {
	return &Points{
		store:        store,
		reg:          reg,
		botName:      botName,
		channel:      channel,
		live:         live,
		users:        users,
		log:          logger,
		lastUserList: make(map[string]bool),
		now:          time.Now,
	}
}

// Add credits points to a user, creating the account row when needed. The
// increment happens at the storage layer, never read-modify-write here.
func (p *Points) Add(user string, amount int) error {
	if err := p.store.EnsureUser(user); err != nil {
		return err
	}
	return p.store.Incr(storage.UsersTable, "points", amount, storage.Where{"name": user})
}

// Sub debits points from a user. Balances may go negative; nothing here
// floors at zero.
func (p *Points) Sub(user string, amount int) error {
	if err := p.store.EnsureUser(user); err != nil {
		return err
	}
	return p.store.Decr(storage.UsersTable, "points", amount, storage.Where{"name": user})
}

// Balance returns the user's current points, zero for unknown users.
func (p *Points) Balance(user string) (int, error) {
	return p.store.GetUserPoints(user)
}

// CanAffordCommand fetches price and balance concurrently and reports whether
// the user can afford the resolved command. Affordable means strictly more
// points than the price: a user holding exactly the price cannot afford it.
func (p *Points) CanAffordCommand(ctx context.Context, user, command, subcommand string) (affordable bool, points, price int, err error) {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		price = p.reg.Price(command, subcommand)
		return nil
	})
	g.Go(func() error {
		var berr error
		points, berr = p.Balance(user)
		return berr
	})
	if err = g.Wait(); err != nil {
		return false, 0, 0, err
	}
	return points > price, points, price, nil
}

// PointName returns the configured currency vocabulary.
func (p *Points) PointName(singular bool) string {
	if singular {
		return p.store.SettingString("points.name", "point")
	}
	return p.store.SettingString("points.name.plural", "points")
}
