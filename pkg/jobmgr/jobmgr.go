// Package jobmgr runs named background jobs with cancellation and in-memory
// tracking. One-shot jobs run in their own goroutine and remove themselves on
// completion; recurring jobs run a ticker loop, executing the runner
// synchronously each tick so a job never overlaps itself.
package jobmgr

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// StatusReporter receives lifecycle messages such as "running:economy-payout"
// or "error:economy-payout:connection refused".
type StatusReporter func(string)

type job struct {
	name   string
	cancel context.CancelFunc
}

// Manager orchestrates starting, stopping and tracking jobs. Safe for
// concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*job
	reporter StatusReporter
}

// NewManager creates a Manager. The reporter may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*job),
		reporter: reporter,
	}
}

// StartAsync runs a one-shot job in a separate goroutine. Starting a name
// that is already running is an error. The job is removed automatically on
// completion.
func (m *Manager) StartAsync(name string, runner func(ctx context.Context) error) error {
	ctx, err := m.track(name)
	if err != nil {
		return err
	}

	go func() {
		m.report("running:" + name)
		if err := runner(ctx); err != nil {
			m.report("error:" + name + ":" + err.Error())
		} else {
			m.report("done:" + name)
		}
		m.remove(name)
	}()

	return nil
}

// StartRecurring runs the runner on a fixed period until the job is stopped.
// Each invocation runs synchronously inside the ticker loop; a slow run
// delays the next tick instead of overlapping it. Runner errors are reported
// and the loop continues.
func (m *Manager) StartRecurring(name string, period time.Duration, runner func(ctx context.Context) error) error {
	if period <= 0 {
		return fmt.Errorf("job '%s': period must be positive", name)
	}

	ctx, err := m.track(name)
	if err != nil {
		return err
	}

	go func() {
		m.report("running:" + name)
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				m.report("stopped:" + name)
				m.remove(name)
				return
			case <-ticker.C:
				if err := runner(ctx); err != nil {
					m.report("error:" + name + ":" + err.Error())
				}
			}
		}
	}()

	return nil
}

// Stop cancels a running job by name.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("job '%s' not running", name)
	}
	j.cancel()
	delete(m.jobs, name)
	return nil
}

// StopAll cancels every running job.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, j := range m.jobs {
		j.cancel()
		delete(m.jobs, name)
	}
}

// List returns the active job names, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) track(name string) (context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[name]; exists {
		return nil, fmt.Errorf("job '%s' is already running", name)
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.jobs[name] = &job{name: name, cancel: cancel}
	return ctx, nil
}

func (m *Manager) remove(name string) {
	m.mu.Lock()
	delete(m.jobs, name)
	m.mu.Unlock()
}

func (m *Manager) report(s string) {
	if m.reporter != nil {
		m.reporter(s)
	}
}
