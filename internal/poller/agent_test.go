package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaleCompletionDiscarded(t *testing.T) {
	var callN atomic.Int32
	block := make(chan struct{})

	var applied []any

	a := &Agent{
		ID:       "stale-test",
		Interval: time.Hour,
		Timeout:  time.Minute,
		Fetch: func(ctx context.Context) (any, error) {
			n := callN.Add(1)
			if n == 1 {
				// first cycle stalls until after the second completes
				<-block
			}
			return int(n), nil
		},
		Apply: func(result any, err error) {
			applied = append(applied, result)
		},
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	defer a.cancel()

	var wg sync.WaitGroup
	var applyMu sync.Mutex

	a.cycle(&wg, &applyMu)
	a.cycle(&wg, &applyMu)

	// second cycle applies; releasing the first must not overwrite it
	require.Eventually(t, func() bool {
		applyMu.Lock()
		defer applyMu.Unlock()
		return len(applied) == 1
	}, 2*time.Second, 5*time.Millisecond)

	close(block)
	wg.Wait()

	require.Len(t, applied, 1)
	assert.Equal(t, 2, applied[0], "only the latest issued cycle may apply")
}

func TestCycleTimesOutWithoutBlockingNextTick(t *testing.T) {
	done := make(chan error, 1)

	a := &Agent{
		ID:       "timeout-test",
		Interval: time.Hour,
		Timeout:  20 * time.Millisecond,
		Fetch: func(ctx context.Context) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		Apply: func(result any, err error) {
			done <- err
		},
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	defer a.cancel()

	var wg sync.WaitGroup
	var applyMu sync.Mutex
	a.cycle(&wg, &applyMu)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("timed-out cycle never applied")
	}
	wg.Wait()
}

func TestPollerRunsAndStops(t *testing.T) {
	var cycles atomic.Int32

	p := New()
	p.Schedule(&Agent{
		ID:       "counter",
		Interval: 10 * time.Millisecond,
		Timeout:  time.Second,
		Fetch: func(ctx context.Context) (any, error) {
			return "ok", nil
		},
		Apply: func(result any, err error) {
			cycles.Add(1)
		},
	})

	p.Start()
	require.Eventually(t, func() bool {
		return cycles.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	p.Stop()
	after := cycles.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, cycles.Load(), "no apply callback may fire after Stop")
}

func TestUnscheduleAbandonsInFlightCycle(t *testing.T) {
	block := make(chan struct{})
	applied := make(chan struct{}, 1)

	p := New()
	p.Schedule(&Agent{
		ID:       "abandoned",
		Interval: time.Hour,
		Timeout:  time.Minute,
		Fetch: func(ctx context.Context) (any, error) {
			<-block
			return "late", nil
		},
		Apply: func(result any, err error) {
			applied <- struct{}{}
		},
	})
	p.Start()

	// let the first cycle get in flight, then abandon it
	time.Sleep(20 * time.Millisecond)
	p.Unschedule("abandoned")
	close(block)

	select {
	case <-applied:
		t.Fatal("apply fired for an unscheduled agent")
	case <-time.After(200 * time.Millisecond):
	}
	p.Stop()
}

func TestScheduleReplacesAgentWithSameID(t *testing.T) {
	var first, second atomic.Int32

	p := New()
	p.Schedule(&Agent{
		ID:       "dup",
		Interval: 10 * time.Millisecond,
		Timeout:  time.Second,
		Fetch:    func(ctx context.Context) (any, error) { return nil, nil },
		Apply:    func(any, error) { first.Add(1) },
	})
	p.Schedule(&Agent{
		ID:       "dup",
		Interval: 10 * time.Millisecond,
		Timeout:  time.Second,
		Fetch:    func(ctx context.Context) (any, error) { return nil, nil },
		Apply:    func(any, error) { second.Add(1) },
	})

	p.Start()
	require.Eventually(t, func() bool {
		return second.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
	p.Stop()

	assert.Zero(t, first.Load(), "replaced agent must never run")
}
