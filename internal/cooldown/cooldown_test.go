package cooldown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestTracker(start time.Time) (*Tracker, *time.Time) {
	now := start
	t := New()
	t.now = func() time.Time { return now }
	return t, &now
}

func TestRemainingRoundsUp(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr, now := newTestTracker(base)

	tr.Start("roll", "", "alice")

	*now = base.Add(2500 * time.Millisecond)
	assert.Equal(t, 8, tr.Remaining("roll", "", "alice", 10))

	*now = base.Add(10 * time.Second)
	assert.Equal(t, 0, tr.Remaining("roll", "", "alice", 10))
}

func TestNoRecordMeansNoCooldown(t *testing.T) {
	tr, _ := newTestTracker(time.Now())
	assert.Equal(t, 0, tr.Remaining("roll", "", "alice", 10))
}

func TestZeroCooldownAlwaysReady(t *testing.T) {
	tr, _ := newTestTracker(time.Now())
	tr.Start("roll", "", "alice")
	assert.Equal(t, 0, tr.Remaining("roll", "", "alice", 0))
	assert.Equal(t, 0, tr.Remaining("roll", "", "alice", -5))
}

func TestKeysAreIndependent(t *testing.T) {
	base := time.Now()
	tr, _ := newTestTracker(base)
	tr.Start("roll", "", "alice")

	assert.Equal(t, 0, tr.Remaining("roll", "", "bob", 10))
	assert.Equal(t, 0, tr.Remaining("roll", "high", "alice", 10))
	assert.Equal(t, 0, tr.Remaining("flip", "", "alice", 10))
	assert.Equal(t, 10, tr.Remaining("roll", "", "alice", 10))
}

func TestStartOverwrites(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr, now := newTestTracker(base)

	tr.Start("roll", "", "alice")
	*now = base.Add(8 * time.Second)
	tr.Start("roll", "", "alice")

	*now = base.Add(9 * time.Second)
	assert.Equal(t, 9, tr.Remaining("roll", "", "alice", 10))
}

func TestSweepDropsOnlyStaleRecords(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr, now := newTestTracker(base)

	tr.Start("old", "", "alice")
	*now = base.Add(2 * time.Hour)
	tr.Start("fresh", "", "alice")

	tr.Sweep(time.Hour)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Len(t, tr.last, 1)
	_, ok := tr.last[key("fresh", "", "alice")]
	assert.True(t, ok)
}
