// Package cooldown tracks the last invocation time per (command, subcommand,
// user). Records live in memory only; a restart resets all cooldowns.
package cooldown

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Tracker struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

func New() *Tracker {
	return &Tracker{
		last: make(map[string]time.Time),
		now:  time.Now,
	}
}

func key(command, subcommand, user string) string {
	return command + "\x00" + subcommand + "\x00" + user
}

// Remaining returns the whole seconds left on the cooldown, rounded up, or
// zero when the user is not on cooldown. No prior record means no cooldown.
func (t *Tracker) Remaining(command, subcommand, user string, cooldownSeconds int) int {
	if cooldownSeconds <= 0 {
		return 0
	}

	t.mu.Lock()
	last, ok := t.last[key(command, subcommand, user)]
	t.mu.Unlock()
	if !ok {
		return 0
	}

	elapsed := t.now().Sub(last).Seconds()
	if elapsed >= float64(cooldownSeconds) {
		return 0
	}
	return int(math.Ceil(float64(cooldownSeconds) - elapsed))
}

// Start records now as the last invocation, overwriting any prior record.
func (t *Tracker) Start(command, subcommand, user string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[key(command, subcommand, user)] = t.now()
}

// Sweep drops records older than horizon.
func (t *Tracker) Sweep(horizon time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-horizon)
	for k, at := range t.last {
		if at.Before(cutoff) {
			delete(t.last, k)
		}
	}
}

// RunSweeper clears stale cooldown records every minute until ctx is done.
// No command carries a cooldown anywhere near an hour, so sweeping behind
// that horizon never revives an active cooldown.
func RunSweeper(ctx context.Context, t *Tracker, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep(time.Hour)
			logger.Debug().Msg("Swept expired cooldown records")
		}
	}
}
