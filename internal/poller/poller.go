package poller

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Poller schedules independent poll agents. Cycles for different endpoints
// are mutually non-blocking; unscheduling an agent or stopping the poller
// cancels in-flight requests, and no Apply callback fires afterwards.
type Poller struct {
	mu      sync.Mutex
	applyMu sync.Mutex
	agents  map[string]*Agent
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

func New() *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		agents: make(map[string]*Agent),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule registers an agent and, if the poller is already running, starts
// its cycle immediately. Scheduling an ID twice replaces the prior agent.
func (p *Poller) Schedule(a *Agent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.agents[a.ID]; ok {
		prev.cancel()
	}

	a.ctx, a.cancel = context.WithCancel(p.ctx)
	p.agents[a.ID] = a

	if p.started {
		p.wg.Add(1)
		go a.run(&p.wg, &p.applyMu)
	}
}

// Unschedule cancels future cycles for an endpoint and abandons in-flight
// requests; their late completions are discarded.
func (p *Poller) Unschedule(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if a, ok := p.agents[id]; ok {
		a.cancel()
		delete(p.agents, id)
		log.Printf("poller: unscheduled %s", id)
	}
}

// Start launches every scheduled agent
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true

	for _, a := range p.agents {
		p.wg.Add(1)
		go a.run(&p.wg, &p.applyMu)
	}
}

// Stop cancels all agents and waits for their goroutines to drain
func (p *Poller) Stop() {
	p.cancel()
	p.wg.Wait()
	log.Printf("poller: all agents exited")
}
