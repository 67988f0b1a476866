package economy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"chatwarden/internal/storage"
	"chatwarden/pkg/util"
)

// Payout job wiring: name and period of the recurring timer that drives
// RunPayout. The timer fires every minute; RunPayout itself decides whether a
// payout is due.
const (
	PayoutJobName = "economy-payout"
	PayoutPeriod  = time.Minute
)

// Bonus tables: rows {rank|group, bonus}. A matching rank bonus wins; the
// group bonus is the fallback, never both.
const (
	RankBonusTable  = "rank_bonuses"
	GroupBonusTable = "group_bonuses"
)

// ErrPayoutCycle marks a payout cycle aborted mid-iteration. Cycle state is
// left untouched so the next tick retries; users already credited in the
// failed cycle may be credited again. The job is at-least-once.
var ErrPayoutCycle = errors.New("payout cycle failed")

// RunPayout executes one payout check. Settings select the active branch:
//
//	payout.live.amount / payout.live.interval       (minutes)
//	payout.offline.amount / payout.offline.interval (minutes)
//
// A payout is due when the branch interval has elapsed since the last payout.
// Non-positive amount or interval disables the branch. Users who were not
// present before the most recent payout wait one full cycle.
func (p *Points) RunPayout(ctx context.Context) error {
	if !p.payoutMu.TryLock() {
		p.log.Warn().Msg("Payout run still in progress, skipping tick")
		return nil
	}
	defer p.payoutMu.Unlock()

	branch := "offline"
	if p.live != nil {
		live, err := p.live.IsLive(ctx)
		if err != nil {
			p.log.Warn().Err(err).Msg("Stream state lookup failed, using offline rates")
		} else if live {
			branch = "live"
		}
	}

	amount := p.store.SettingInt("payout."+branch+".amount", 0)
	interval := p.store.SettingInt("payout."+branch+".interval", 0)
	if amount <= 0 || interval <= 0 {
		return nil
	}

	now := p.now()
	if !p.lastPayoutAt.IsZero() && now.Before(p.lastPayoutAt.Add(time.Duration(interval)*time.Minute)) {
		return nil
	}

	current, err := p.users.Userlist(p.channel)
	if err != nil {
		return fmt.Errorf("%w: user list: %v", ErrPayoutCycle, err)
	}

	currentSet := make(map[string]bool, len(current))
	for _, u := range current {
		currentSet[u] = true
	}

	eligible := make([]string, 0, len(current))
	for _, u := range current {
		if strings.EqualFold(u, p.botName) {
			continue
		}
		if !p.lastUserList[u] {
			continue
		}
		eligible = append(eligible, u)
	}

	var paid atomic.Int64
	err = util.Parallel(ctx, eligible, 4, func(ctx context.Context, u string) error {
		account, found, err := p.store.GetUser(u)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", u, err)
		}
		if !found {
			return nil
		}
		if err := p.Add(u, amount+p.bonusFor(account)); err != nil {
			return fmt.Errorf("crediting %s: %w", u, err)
		}
		paid.Add(1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPayoutCycle, err)
	}

	p.lastUserList = currentSet
	p.lastPayoutAt = now

	p.log.Info().Str("branch", branch).Int("amount", amount).Int64("paid", paid.Load()).Msg("Payout cycle complete")
	return nil
}

func (p *Points) bonusFor(account *storage.UserAccount) int {
	if v, found, err := p.store.Get(RankBonusTable, "bonus", storage.Where{"rank": account.Rank}); err == nil && found {
		return storage.ToInt(v)
	}
	if v, found, err := p.store.Get(GroupBonusTable, "bonus", storage.Where{"group": account.PermissionGroup}); err == nil && found {
		return storage.ToInt(v)
	}
	return 0
}
