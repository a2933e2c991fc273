package state

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Satyasy/smart-home-recognition-iot/internal/devices"
	"github.com/Satyasy/smart-home-recognition-iot/internal/metrics"
	"github.com/Satyasy/smart-home-recognition-iot/internal/models"
)

// DefaultLogMax bounds the recent-log view
const DefaultLogMax = 10

// Store owns the merged snapshot. It is the only writer of sensor and
// connectivity fields; the orchestrator requests door/alert/lamp mutations
// through the Set* methods. Poll failures degrade connectivity and leave
// last-known values untouched.
type Store struct {
	mu          sync.RWMutex
	snap        models.Snapshot
	proximityCM float64
	logMax      int
	onChange    func(models.Snapshot)
}

// NewStore builds a store with every endpoint in the connecting state and the
// door assumed locked until the first device poll says otherwise.
func NewStore(proximityCM float64, logMax int) *Store {
	if proximityCM <= 0 {
		proximityCM = DefaultProximityCM
	}
	if logMax <= 0 {
		logMax = DefaultLogMax
	}

	return &Store{
		proximityCM: proximityCM,
		logMax:      logMax,
		snap: models.Snapshot{
			Door:  models.DoorState{Locked: true, Angle: models.AngleLocked, Source: models.DoorSourceDevice},
			Phase: models.PhaseLocked,
			LED:   models.LEDState{Red: true},
			Connectivity: map[string]models.Connectivity{
				models.EndpointBackend: {Status: models.ConnConnecting},
				models.EndpointLock:    {Status: models.ConnConnecting},
				models.EndpointCamera:  {Status: models.ConnConnecting},
			},
		},
	}
}

// OnChange registers a callback invoked with a copy of the snapshot after
// every mutation. Used by the dashboard push channel.
func (s *Store) OnChange(fn func(models.Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the merged state
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() models.Snapshot {
	out := s.snap
	out.Connectivity = make(map[string]models.Connectivity, len(s.snap.Connectivity))
	for k, v := range s.snap.Connectivity {
		out.Connectivity[k] = v
	}
	out.Logs = make([]models.AccessLogEntry, len(s.snap.Logs))
	copy(out.Logs, s.snap.Logs)
	return out
}

// mutate runs fn under the lock, stamps the snapshot and fires the change
// callback with a copy outside the lock.
func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.snap.UpdatedAt = time.Now()
	notify := s.onChange
	cp := s.copyLocked()
	s.mu.Unlock()

	if notify != nil {
		notify(cp)
	}
}

// markLocked records the poll outcome for one endpoint. The first observed
// result moves the endpoint out of connecting; after that it flips between
// online and offline.
func (s *Store) markLocked(endpoint string, err error) {
	c := s.snap.Connectivity[endpoint]
	if err != nil {
		c.Status = models.ConnOffline
		c.LastError = err.Error()
		metrics.ConnectivityUp.WithLabelValues(endpoint).Set(0)
	} else {
		c.Status = models.ConnOnline
		c.LastSuccessAt = time.Now()
		c.LastError = ""
		metrics.ConnectivityUp.WithLabelValues(endpoint).Set(1)
	}
	s.snap.Connectivity[endpoint] = c
}

// ApplySensors folds one sensor poll result
func (s *Store) ApplySensors(raw map[string]any, err error) {
	s.mutate(func() {
		s.markLocked(models.EndpointLock, err)
		if err != nil {
			log.Debugf("store: sensor poll failed, keeping last-known values: %v", err)
			return
		}
		s.snap.Sensors = MergeSensors(s.snap.Sensors, raw, time.Now(), s.proximityCM)
	})
}

// ApplyStatus folds one device status poll result. Device-confirmed door
// state always overwrites optimistic state.
func (s *Store) ApplyStatus(raw map[string]any, err error) {
	s.mutate(func() {
		s.markLocked(models.EndpointLock, err)
		if err != nil {
			return
		}
		d := MergeStatus(raw)
		s.snap.Door = d.Door
		s.snap.Face = d.Face
		s.snap.LED = models.LEDState{Red: d.Door.Locked, Green: !d.Door.Locked}
		if d.LampKnown {
			s.snap.LampOn = d.LampOn
		}
	})
}

// ApplyLogs replaces the recent-log view with the authoritative backend feed.
// Locally synthesized entries are superseded, not merged.
func (s *Store) ApplyLogs(entries []devices.RawLogEntry, err error) {
	s.mutate(func() {
		s.markLocked(models.EndpointBackend, err)
		if err != nil {
			return
		}
		s.snap.Logs = MergeLogs(entries, s.logMax)
	})
}

// ApplyCamera folds one camera status poll result
func (s *Store) ApplyCamera(raw map[string]any, streamURL string, err error) {
	s.mutate(func() {
		s.markLocked(models.EndpointCamera, err)
		if err != nil {
			return
		}
		s.snap.Camera = MergeCamera(raw, streamURL)
	})
}

// ApplyHealth folds one backend health poll result
func (s *Store) ApplyHealth(h *devices.HealthResponse, err error) {
	s.mutate(func() {
		s.markLocked(models.EndpointBackend, err)
		if err != nil {
			s.snap.Backend = models.BackendHealth{}
			return
		}
		s.snap.Backend = MergeHealth(h)
	})
}

// SetDoorOptimistic records a door transition assumed by the orchestrator
// before the next authoritative poll confirms it.
func (s *Store) SetDoorOptimistic(locked bool) {
	s.mutate(func() {
		angle := models.AngleUnlocked
		if locked {
			angle = models.AngleLocked
		}
		s.snap.Door = models.DoorState{Locked: locked, Angle: angle, Source: models.DoorSourceOptimistic}
		s.snap.LED = models.LEDState{Red: locked, Green: !locked}
	})
}

// SetPhase records the orchestrator's door command phase
func (s *Store) SetPhase(phase string) {
	s.mutate(func() {
		s.snap.Phase = phase
	})
}

// BeginPhase atomically checks the door phase against the guard values and,
// when none match, moves to next. Returns the prior phase and whether the
// transition was taken. This is the orchestrator's duplicate-command guard.
func (s *Store) BeginPhase(next string, guards ...string) (string, bool) {
	var prev string
	var ok bool
	s.mutate(func() {
		prev = s.snap.Phase
		for _, g := range guards {
			if prev == g {
				return
			}
		}
		ok = true
		s.snap.Phase = next
	})
	return prev, ok
}

// SetAlert records the orthogonal alert sub-state
func (s *Store) SetAlert(active bool, reason string) {
	s.mutate(func() {
		if active {
			s.snap.Alert = models.AlertState{Active: true, Reason: reason, Since: time.Now()}
		} else {
			s.snap.Alert = models.AlertState{}
		}
	})
}

// SetLamp records the relay state after a confirmed lamp command
func (s *Store) SetLamp(on bool) {
	s.mutate(func() {
		s.snap.LampOn = on
	})
}

// AppendLocalLog prepends a synthesized entry to the recent-log view for
// instant feedback; the next authoritative log poll supersedes it.
func (s *Store) AppendLocalLog(e models.AccessLogEntry) {
	e.Synthesized = true
	s.mutate(func() {
		logs := make([]models.AccessLogEntry, 0, len(s.snap.Logs)+1)
		logs = append(logs, e)
		logs = append(logs, s.snap.Logs...)
		if len(logs) > s.logMax {
			logs = logs[:s.logMax]
		}
		s.snap.Logs = logs
	})
}
