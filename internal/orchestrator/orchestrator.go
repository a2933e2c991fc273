package orchestrator

import (
	"context"
	"time"
	"unicode"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Satyasy/smart-home-recognition-iot/internal/devices"
	"github.com/Satyasy/smart-home-recognition-iot/internal/metrics"
	"github.com/Satyasy/smart-home-recognition-iot/internal/models"
	"github.com/Satyasy/smart-home-recognition-iot/internal/state"
)

// Defaults for the deferred actions and PIN format
const (
	DefaultRelockDelay   = 5000 * time.Millisecond
	DefaultAlertDuration = 3000 * time.Millisecond
	DefaultPinLength     = 4
)

// Config holds the orchestrator timing and credential settings
type Config struct {
	// RelockDelay is how long the door stays unlocked before auto-relock
	RelockDelay time.Duration
	// AlertDuration is how long the alert sub-state stays active
	AlertDuration time.Duration
	// PinLength is the fixed length of the numeric user PIN
	PinLength int
	// DevicePIN is the credential sent to the lock controller's /unlock.
	// It is a device credential from configuration, never the user's PIN.
	DevicePIN string
}

func (c *Config) applyDefaults() {
	if c.RelockDelay <= 0 {
		c.RelockDelay = DefaultRelockDelay
	}
	if c.AlertDuration <= 0 {
		c.AlertDuration = DefaultAlertDuration
	}
	if c.PinLength <= 0 {
		c.PinLength = DefaultPinLength
	}
}

// Orchestrator serializes user-initiated state transitions against the polled
// snapshot. It is the only writer of door/alert/lamp transitions triggered by
// user intent; its optimistic writes are reconciled by the next device poll.
type Orchestrator struct {
	cfg     Config
	store   *state.Store
	lock    *devices.LockController
	backend *devices.Backend
	timers  *timerSet
}

func New(cfg Config, st *state.Store, lock *devices.LockController, backend *devices.Backend) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		cfg:     cfg,
		store:   st,
		lock:    lock,
		backend: backend,
		timers:  newTimerSet(),
	}
}

// Close cancels all pending deferred actions; no timer callback fires after it
func (o *Orchestrator) Close() {
	o.timers.Close()
}

// Unlock opens the door. No-op when already unlocked or unlocking. On device
// acknowledgement it transitions to unlocked, appends a synthesized log entry
// and arms the auto-relock timer. A failed device call leaves state untouched.
func (o *Orchestrator) Unlock(ctx context.Context, method, identifier string) error {
	prev, ok := o.store.BeginPhase(models.PhaseUnlocking, models.PhaseUnlocked, models.PhaseUnlocking)
	if !ok {
		log.Debugf("orchestrator: unlock skipped, door already %s", prev)
		return nil
	}

	if err := o.lock.Unlock(ctx, o.cfg.DevicePIN); err != nil {
		o.store.SetPhase(prev)
		metrics.CommandTotal.WithLabelValues("unlock", metrics.OutcomeFailure).Inc()
		return err
	}

	o.store.SetPhase(models.PhaseUnlocked)
	o.store.SetDoorOptimistic(false)
	o.store.AppendLocalLog(newLogEntry(method, identifier, models.LogStatusSuccess, models.LogTypeEntry))
	metrics.CommandTotal.WithLabelValues("unlock", metrics.OutcomeSuccess).Inc()
	log.Printf("orchestrator: door unlocked (%s / %s), auto-relock in %s", method, identifier, o.cfg.RelockDelay)

	o.timers.Arm(purposeRelock, o.cfg.RelockDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.Lock(ctx); err != nil {
			log.Errorf("orchestrator: auto-relock failed: %v", err)
		}
	})
	return nil
}

// Lock closes the door. No-op when already locked or locking. Locking early
// consumes any pending auto-relock timer, so only one lock command is sent.
func (o *Orchestrator) Lock(ctx context.Context) error {
	prev, ok := o.store.BeginPhase(models.PhaseLocking, models.PhaseLocked, models.PhaseLocking)
	if !ok {
		log.Debugf("orchestrator: lock skipped, door already %s", prev)
		return nil
	}

	// consume the pending auto-relock before the device call so the timer
	// cannot fire mid-command
	o.timers.Cancel(purposeRelock)

	if err := o.lock.Lock(ctx); err != nil {
		o.store.SetPhase(prev)
		metrics.CommandTotal.WithLabelValues("lock", metrics.OutcomeFailure).Inc()
		return err
	}

	o.store.SetPhase(models.PhaseLocked)
	o.store.SetDoorOptimistic(true)
	metrics.CommandTotal.WithLabelValues("lock", metrics.OutcomeSuccess).Inc()
	log.Printf("orchestrator: door locked")
	return nil
}

// VerifyPIN delegates authorization to the backend. Denial is a normal
// outcome: it triggers an alert and leaves door state unchanged. Transport
// failures are returned to the caller.
func (o *Orchestrator) VerifyPIN(ctx context.Context, pin string) (*devices.PinResult, error) {
	if len(pin) != o.cfg.PinLength || !allDigits(pin) {
		return nil, errors.Wrapf(devices.ErrValidation, "pin must be %d digits", o.cfg.PinLength)
	}

	res, err := o.backend.VerifyPin(ctx, pin)
	if err != nil {
		metrics.CommandTotal.WithLabelValues("verify_pin", metrics.OutcomeFailure).Inc()
		return nil, err
	}

	if !res.Authorized {
		metrics.CommandTotal.WithLabelValues("verify_pin", metrics.OutcomeFailure).Inc()
		o.TriggerAlert(ctx, "Invalid PIN")
		return res, nil
	}

	metrics.CommandTotal.WithLabelValues("verify_pin", metrics.OutcomeSuccess).Inc()
	user := res.User
	if user == "" {
		user = "PIN User"
	}
	if err := o.Unlock(ctx, "PIN", user); err != nil {
		return res, err
	}
	return res, nil
}

// RegisterUser enrolls a face image with the backend. One-shot; no
// state-machine interaction with the door.
func (o *Orchestrator) RegisterUser(ctx context.Context, image, name, email, phone string) (*devices.RegisterResponse, error) {
	res, err := o.backend.Register(ctx, devices.RegisterRequest{
		Image: image,
		Name:  name,
		Email: email,
		Phone: phone,
	})
	if err != nil {
		metrics.CommandTotal.WithLabelValues("register", metrics.OutcomeFailure).Inc()
		return nil, err
	}
	metrics.CommandTotal.WithLabelValues("register", metrics.OutcomeSuccess).Inc()
	return res, nil
}

// ToggleLamp drives the independent relay; it is not interlocked with door
// state. On success the lamp boolean is updated and a lamp log entry appended.
func (o *Orchestrator) ToggleLamp(ctx context.Context, action string) (bool, error) {
	res, err := o.lock.SetLamp(ctx, action)
	if err != nil {
		metrics.CommandTotal.WithLabelValues("lamp", metrics.OutcomeFailure).Inc()
		return false, err
	}

	on := res.LampOn || res.State == "on"
	o.store.SetLamp(on)
	o.store.AppendLocalLog(newLogEntry("Lamp Control", "Dashboard", models.LogStatusSuccess, models.LogTypeLamp))
	metrics.CommandTotal.WithLabelValues("lamp", metrics.OutcomeSuccess).Inc()
	return on, nil
}

// TriggerAlert activates the alert sub-state, appends a failed/alert log
// entry and arms the auto-clear timer. The device buzzer call is best-effort;
// alerting and door locking are unrelated sub-systems and never block each
// other.
func (o *Orchestrator) TriggerAlert(ctx context.Context, reason string) {
	o.store.SetAlert(true, reason)
	o.store.AppendLocalLog(newLogEntry("Alert", reason, models.LogStatusFailed, models.LogTypeAlert))
	log.Printf("orchestrator: alert active (%s), clearing in %s", reason, o.cfg.AlertDuration)

	if err := o.lock.Alert(ctx); err != nil {
		log.Warnf("orchestrator: device alert call failed: %v", err)
	}

	o.timers.Arm(purposeAlertClear, o.cfg.AlertDuration, func() {
		o.store.SetAlert(false, "")
	})
}

// HandleRecognition folds a face-recognition outcome into the state machine:
// authorized opens the door, anything else raises an alert.
func (o *Orchestrator) HandleRecognition(ctx context.Context, authorized bool, user string, confidence float64) {
	if !authorized {
		o.TriggerAlert(ctx, "Unknown Face")
		return
	}
	if user == "" {
		user = "Unknown"
	}
	if err := o.Unlock(ctx, "Face Recognition", user); err != nil {
		log.Errorf("orchestrator: recognition unlock failed: %v", err)
	}
}

func newLogEntry(method, user, status, typ string) models.AccessLogEntry {
	now := time.Now()
	return models.AccessLogEntry{
		Time:   now.Format("15:04:05"),
		Date:   now.Format("2006-01-02"),
		Method: method,
		User:   user,
		Status: status,
		Type:   typ,
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
