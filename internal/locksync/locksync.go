package locksync

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Satyasy/smart-home-recognition-iot/internal/dashapi"
	"github.com/Satyasy/smart-home-recognition-iot/internal/devices"
	"github.com/Satyasy/smart-home-recognition-iot/internal/events"
	"github.com/Satyasy/smart-home-recognition-iot/internal/orchestrator"
	"github.com/Satyasy/smart-home-recognition-iot/internal/poller"
	"github.com/Satyasy/smart-home-recognition-iot/internal/state"
)

// Syncer wires the poller, reconciler, orchestrator and dashboard API into
// one daemon. Construction is explicit; teardown cancels every poll cycle,
// pending timer and the event feed.
type Syncer struct {
	cfg Config

	backend *devices.Backend
	lock    *devices.LockController
	camera  *devices.Camera

	store  *state.Store
	poller *poller.Poller
	orch   *orchestrator.Orchestrator
	feed   *events.Feed
	hub    *dashapi.Hub
	api    *dashapi.Server
}

func ms(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Millisecond
}

func New(cfg Config) (*Syncer, error) {
	if cfg.Backend.Endpoint == "" {
		return nil, fmt.Errorf("missing backend endpoint")
	}
	if cfg.LockController.Endpoint == "" {
		return nil, fmt.Errorf("missing lock controller endpoint")
	}

	s := &Syncer{cfg: cfg}

	// Client Initialization
	s.backend = devices.NewBackend(cfg.Backend.Endpoint, ms(cfg.Backend.TimeoutMs, 10000))
	s.lock = devices.NewLockController(cfg.LockController.Endpoint, ms(cfg.LockController.TimeoutMs, 5000))
	if cfg.Camera.Endpoint != "" {
		s.camera = devices.NewCamera(cfg.Camera.Endpoint, ms(cfg.Camera.TimeoutMs, 20000))
	}

	// Shared State Initialization
	s.store = state.NewStore(cfg.Sensors.ProximityThresholdCm, state.DefaultLogMax)
	s.orch = orchestrator.New(orchestrator.Config{
		RelockDelay:   ms(cfg.Door.RelockDelayMs, 5000),
		AlertDuration: ms(cfg.Door.AlertDurationMs, 3000),
		PinLength:     cfg.Door.PinLength,
		DevicePIN:     cfg.LockController.ApiPin,
	}, s.store, s.lock, s.backend)

	// Dashboard push channel
	s.hub = dashapi.NewHub()
	s.store.OnChange(s.hub.BroadcastSnapshot)
	s.api = dashapi.New(cfg.Http, s.store, s.orch, s.backend, s.hub)

	// Poll Agent Initialization
	s.poller = poller.New()
	s.scheduleAgents()

	// Optional recognition event feed
	if cfg.Events.Enabled {
		path := cfg.Events.Path
		if path == "" {
			path = "/api/events"
		}
		s.feed = events.NewFeed(cfg.Backend.Endpoint, path, func(ev events.RecognitionEvent) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			s.orch.HandleRecognition(ctx, ev.Authorized, ev.User, ev.Confidence)
		})
	}

	return s, nil
}

func (s *Syncer) scheduleAgents() {
	logLimit := s.cfg.Poll.LogLimit
	if logLimit <= 0 {
		logLimit = 20
	}

	s.poller.Schedule(&poller.Agent{
		ID:       "backend-health",
		Interval: ms(s.cfg.Poll.HealthIntervalMs, 30000),
		Timeout:  ms(s.cfg.Backend.TimeoutMs, 10000),
		Fetch: func(ctx context.Context) (any, error) {
			return s.backend.Health(ctx)
		},
		Apply: func(result any, err error) {
			h, _ := result.(*devices.HealthResponse)
			s.store.ApplyHealth(h, err)
		},
	})

	s.poller.Schedule(&poller.Agent{
		ID:       "backend-logs",
		Interval: ms(s.cfg.Poll.LogsIntervalMs, 5000),
		Timeout:  ms(s.cfg.Backend.TimeoutMs, 10000),
		Fetch: func(ctx context.Context) (any, error) {
			return s.backend.Logs(ctx, logLimit)
		},
		Apply: func(result any, err error) {
			entries, _ := result.([]devices.RawLogEntry)
			s.store.ApplyLogs(entries, err)
		},
	})

	s.poller.Schedule(&poller.Agent{
		ID:       "lock-sensor",
		Interval: ms(s.cfg.Poll.DeviceIntervalMs, 2000),
		Timeout:  ms(s.cfg.LockController.TimeoutMs, 5000),
		Fetch: func(ctx context.Context) (any, error) {
			return s.lock.Sensor(ctx)
		},
		Apply: func(result any, err error) {
			raw, _ := result.(map[string]any)
			s.store.ApplySensors(raw, err)
		},
	})

	s.poller.Schedule(&poller.Agent{
		ID:       "lock-status",
		Interval: ms(s.cfg.Poll.DeviceIntervalMs, 2000),
		Timeout:  ms(s.cfg.LockController.TimeoutMs, 5000),
		Fetch: func(ctx context.Context) (any, error) {
			return s.lock.Status(ctx)
		},
		Apply: func(result any, err error) {
			raw, _ := result.(map[string]any)
			s.store.ApplyStatus(raw, err)
		},
	})

	if s.camera != nil {
		s.poller.Schedule(&poller.Agent{
			ID:       "camera-status",
			Interval: ms(s.cfg.Poll.CameraIntervalMs, 3000),
			Timeout:  ms(s.cfg.Camera.TimeoutMs, 20000),
			Fetch: func(ctx context.Context) (any, error) {
				return s.camera.Status(ctx)
			},
			Apply: func(result any, err error) {
				raw, _ := result.(map[string]any)
				s.store.ApplyCamera(raw, s.camera.StreamURL(), err)
			},
		})
	}
}

// Store exposes the merged snapshot owner
func (s *Syncer) Store() *state.Store {
	return s.store
}

// Run launches everything and blocks until a kill signal, then tears the
// daemon down in order: polling stops first so no late completion races the
// shutdown, then timers, then the API drains.
func (s *Syncer) Run() error {
	go s.hub.Run()
	s.poller.Start()
	if s.feed != nil {
		s.feed.Start()
	}

	apiErr := make(chan error, 1)
	go func() {
		apiErr <- s.api.Run()
	}()

	killSig := make(chan os.Signal, 1)
	signal.Notify(killSig, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	select {
	case err := <-apiErr:
		if err != nil {
			log.Errorf("api server failed: %v", err)
			s.teardown()
			return err
		}
	case <-killSig:
		log.Printf("Caught kill signal, shutting down")
	}

	s.teardown()
	log.Printf("All threads exited")
	return nil
}

func (s *Syncer) teardown() {
	s.poller.Stop()
	if s.feed != nil {
		s.feed.Stop()
	}
	s.orch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.api.Shutdown(ctx); err != nil {
		log.Errorf("api shutdown: %v", err)
	}
	s.hub.Stop()
}
