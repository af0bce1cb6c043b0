package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"focusquest/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	runs    atomic.Int32
	blocked chan struct{}
}

func (s *countingSweeper) Run(ctx context.Context, _ time.Time) (jobs.SweepResult, error) {
	s.runs.Add(1)
	if s.blocked != nil {
		select {
		case <-s.blocked:
		case <-ctx.Done():
			return jobs.SweepResult{}, ctx.Err()
		}
	}
	return jobs.SweepResult{}, nil
}

type countingCleaner struct {
	runs atomic.Int32
}

func (c *countingCleaner) CleanupExpired(context.Context) (int64, error) {
	c.runs.Add(1)
	return 0, nil
}

func TestSchedulerRunsSweep(t *testing.T) {
	sweeper := &countingSweeper{}
	s, err := New(sweeper, &countingCleaner{}, time.Second, time.UTC)
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return sweeper.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestSchedulerStopCancelsRunningSweep(t *testing.T) {
	sweeper := &countingSweeper{blocked: make(chan struct{})}
	s, err := New(sweeper, &countingCleaner{}, time.Second, time.UTC)
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return sweeper.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
	assert.Equal(t, int32(1), sweeper.runs.Load())
}

func TestNewRejectsBadInterval(t *testing.T) {
	_, err := New(&countingSweeper{}, &countingCleaner{}, 0, time.UTC)
	assert.Error(t, err)
}
