package devices

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// LockController is the client for the sensor/actuator controller firmware.
// Poll reads (/sensor, /status) return raw maps so the reconciler can merge
// defensively against partial firmware responses; commands are typed.
type LockController struct {
	*client
}

// NewLockController constructs a lock controller client
func NewLockController(base string, timeout time.Duration) *LockController {
	return &LockController{client: newClient("lock-controller", base, timeout)}
}

// Sensor fetches the raw environment readings
func (l *LockController) Sensor(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := l.getJSON(ctx, "/sensor", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status fetches the raw actuator/door status
func (l *LockController) Status(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := l.getJSON(ctx, "/status", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CommandResponse is the firmware's generic command acknowledgement
type CommandResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	State   string `json:"state,omitempty"`
}

// Unlock drives the servo to the open position. The pin is the device
// credential from configuration, not a user-entered code.
func (l *LockController) Unlock(ctx context.Context, pin string) error {
	return l.command(func() error {
		var out CommandResponse
		return l.postJSON(ctx, "/unlock", map[string]string{"pin": pin}, &out)
	})
}

// Lock drives the servo to the closed position
func (l *LockController) Lock(ctx context.Context) error {
	return l.command(func() error {
		var out CommandResponse
		return l.postJSON(ctx, "/lock", map[string]string{}, &out)
	})
}

// SetLED switches the red or green indicator
func (l *LockController) SetLED(ctx context.Context, color string, state bool) error {
	if color != "red" && color != "green" {
		return errors.Wrapf(ErrValidation, "unknown led color %q", color)
	}
	return l.command(func() error {
		return l.postJSON(ctx, "/led", map[string]any{"color": color, "state": state}, nil)
	})
}

// SetBuzzer switches the buzzer
func (l *LockController) SetBuzzer(ctx context.Context, state bool) error {
	return l.command(func() error {
		return l.postJSON(ctx, "/buzzer", map[string]bool{"state": state}, nil)
	})
}

// SetLCD writes both display lines
func (l *LockController) SetLCD(ctx context.Context, line1, line2 string) error {
	return l.command(func() error {
		return l.postJSON(ctx, "/lcd", map[string]string{"line1": line1, "line2": line2}, nil)
	})
}

// Lamp actions accepted by the relay endpoint
const (
	LampOn     = "on"
	LampOff    = "off"
	LampToggle = "toggle"
)

// LampResponse reports the relay state after a lamp command
type LampResponse struct {
	Success bool   `json:"success"`
	State   string `json:"state"`
	LampOn  bool   `json:"lamp_on"`
}

// SetLamp drives the relay; action is one of on/off/toggle
func (l *LockController) SetLamp(ctx context.Context, action string) (*LampResponse, error) {
	if action != LampOn && action != LampOff && action != LampToggle {
		return nil, errors.Wrapf(ErrValidation, "unknown lamp action %q", action)
	}
	var out LampResponse
	err := l.command(func() error {
		return l.postJSON(ctx, "/lamp", map[string]string{"state": action}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Alert fires the buzzer + LED flash sequence on the device
func (l *LockController) Alert(ctx context.Context) error {
	return l.command(func() error {
		return l.postJSON(ctx, "/alert", map[string]string{}, nil)
	})
}
