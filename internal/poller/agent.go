package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Satyasy/smart-home-recognition-iot/internal/metrics"
)

// Agent runs one independent repeating poll cycle against a single endpoint.
// Each cycle issues the fetch with a bounded timeout in its own goroutine, so
// a stalled request never delays the next tick or any other agent.
type Agent struct {
	ID       string
	Interval time.Duration
	Timeout  time.Duration

	// Fetch issues the request; it must honor ctx cancellation
	Fetch func(ctx context.Context) (any, error)
	// Apply folds the result (or failure) into shared state
	Apply func(result any, err error)

	// seq is the generation token. A completion whose token is no longer the
	// latest issued is discarded, so a late response never overwrites a newer
	// one.
	seq    atomic.Uint64
	ctx    context.Context
	cancel context.CancelFunc
}

func (a *Agent) run(wg *sync.WaitGroup, applyMu *sync.Mutex) {
	defer wg.Done()

	log.Printf("agent %s: start poll agent (interval %s, timeout %s)", a.ID, a.Interval, a.Timeout)

	ticker := time.NewTicker(a.Interval)
	defer ticker.Stop()

	a.cycle(wg, applyMu)
	for {
		select {
		case <-a.ctx.Done():
			log.Printf("agent %s: stopped", a.ID)
			return
		case <-ticker.C:
			a.cycle(wg, applyMu)
		}
	}
}

func (a *Agent) cycle(wg *sync.WaitGroup, applyMu *sync.Mutex) {
	token := a.seq.Add(1)
	ctx, cancel := context.WithTimeout(a.ctx, a.Timeout)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		result, err := a.Fetch(ctx)

		// completion callbacks run one at a time across all agents
		applyMu.Lock()
		defer applyMu.Unlock()

		if a.ctx.Err() != nil {
			metrics.PollDiscarded.WithLabelValues(a.ID).Inc()
			return
		}
		if a.seq.Load() != token {
			log.Debugf("agent %s: discarding stale completion (token %d)", a.ID, token)
			metrics.PollDiscarded.WithLabelValues(a.ID).Inc()
			return
		}

		if err != nil {
			log.Debugf("agent %s: poll failed: %v", a.ID, err)
			metrics.PollTotal.WithLabelValues(a.ID, metrics.OutcomeFailure).Inc()
		} else {
			metrics.PollTotal.WithLabelValues(a.ID, metrics.OutcomeSuccess).Inc()
		}
		a.Apply(result, err)
	}()
}
