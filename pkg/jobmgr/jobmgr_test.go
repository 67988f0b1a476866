package jobmgr

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAsyncRunsAndRemovesItself(t *testing.T) {
	m := NewManager(nil)
	done := make(chan struct{})

	require.NoError(t, m.StartAsync("once", func(ctx context.Context) error {
		close(done)
		return nil
	}))

	<-done
	assert.Eventually(t, func() bool { return len(m.List()) == 0 }, time.Second, 10*time.Millisecond)
}

func TestDuplicateNameRejected(t *testing.T) {
	m := NewManager(nil)
	block := make(chan struct{})
	defer close(block)

	require.NoError(t, m.StartAsync("job", func(ctx context.Context) error {
		<-block
		return nil
	}))
	assert.Error(t, m.StartAsync("job", func(ctx context.Context) error { return nil }))
	assert.Error(t, m.StartRecurring("job", time.Second, func(ctx context.Context) error { return nil }))
}

func TestRecurringTicksUntilStopped(t *testing.T) {
	m := NewManager(nil)
	var ticks atomic.Int64

	require.NoError(t, m.StartRecurring("tick", 20*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	}))

	assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, 10*time.Millisecond)
	require.NoError(t, m.Stop("tick"))

	assert.Eventually(t, func() bool { return len(m.List()) == 0 }, time.Second, 10*time.Millisecond)
	settled := ticks.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, ticks.Load())
}

func TestRecurringSurvivesRunnerErrors(t *testing.T) {
	m := NewManager(nil)

	var ticks atomic.Int64
	require.NoError(t, m.StartRecurring("flaky", 20*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)
		return errors.New("transient")
	}))
	defer m.StopAll()

	assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, 10*time.Millisecond)
}

func TestRecurringRejectsNonPositivePeriod(t *testing.T) {
	m := NewManager(nil)
	assert.Error(t, m.StartRecurring("bad", 0, func(ctx context.Context) error { return nil }))
}

func TestStopAllAndList(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.StartRecurring("b", time.Hour, func(ctx context.Context) error { return nil }))
	require.NoError(t, m.StartRecurring("a", time.Hour, func(ctx context.Context) error { return nil }))

	assert.Equal(t, []string{"a", "b"}, m.List())

	m.StopAll()
	assert.Eventually(t, func() bool { return len(m.List()) == 0 }, time.Second, 10*time.Millisecond)
}

func TestStopUnknownJob(t *testing.T) {
	m := NewManager(nil)
	assert.Error(t, m.Stop("ghost"))
}
