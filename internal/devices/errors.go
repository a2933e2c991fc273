package devices

import (
	"context"
	"net"

	"github.com/pkg/errors"
)

// Failure taxonomy for calls to external endpoints. Transport-level failures
// (timeout, unreachable, protocol) degrade connectivity when they come from a
// poll and are surfaced when they come from a user command. Denied is a normal
// outcome of PIN/face authorization, never a transport failure.
var (
	ErrTimeout     = errors.New("request timeout")
	ErrUnreachable = errors.New("endpoint unreachable")
	ErrProtocol    = errors.New("protocol error")
	ErrDenied      = errors.New("authorization denied")
	ErrValidation  = errors.New("invalid input")
)

// IsTransport reports whether err is a transport-level failure rather than a
// domain outcome.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnreachable) || errors.Is(err, ErrProtocol)
}

// classify maps a net/http round-trip error onto the taxonomy. Exceeding the
// request deadline is treated the same as any other network failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(ErrTimeout, err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(ErrTimeout, err.Error())
	}
	return errors.Wrap(ErrUnreachable, err.Error())
}
