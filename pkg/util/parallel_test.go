package util

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelProcessesEverything(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int]bool)

	inputs := make([]int, 100)
	for i := range inputs {
		inputs[i] = i
	}

	err := Parallel(context.Background(), inputs, 8, func(ctx context.Context, n int) error {
		mu.Lock()
		seen[n] = true
		mu.Unlock()
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, seen, 100)
}

func TestParallelEmptyInput(t *testing.T) {
	called := false
	err := Parallel(context.Background(), nil, 4, func(ctx context.Context, n int) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestParallelReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := Parallel(context.Background(), []int{1, 2, 3, 4, 5}, 2, func(ctx context.Context, n int) error {
		if n == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestParallelErrorStopsFeeding(t *testing.T) {
	var mu sync.Mutex
	processed := 0

	inputs := make([]int, 1000)
	err := Parallel(context.Background(), inputs, 1, func(ctx context.Context, n int) error {
		mu.Lock()
		processed++
		mu.Unlock()
		return errors.New("stop")
	})

	require.Error(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Less(t, processed, 1000)
}

func TestParallelClampWorkerLimit(t *testing.T) {
	err := Parallel(context.Background(), []int{1, 2, 3}, 0, func(ctx context.Context, n int) error {
		return nil
	})
	require.NoError(t, err)
}
