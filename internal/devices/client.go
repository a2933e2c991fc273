package devices

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// client wraps HTTP calls to one external endpoint with a bounded timeout.
// Commands additionally pass through a circuit breaker so a dead device fails
// fast; polls bypass the breaker because the next scheduled cycle is the retry.
type client struct {
	name    string
	base    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

func newClient(name, base string, timeout time.Duration) *client {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &client{
		name:    name,
		base:    base,
		http:    &http.Client{Timeout: timeout},
		breaker: cb,
	}
}

// BaseURL returns the normalized base URL of the endpoint
func (c *client) BaseURL() string {
	return c.base
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(ErrValidation, "%s: encode request: %v", c.name, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return errors.Wrapf(ErrValidation, "%s: build request: %v", c.name, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WithMessagef(classify(err), "%s %s%s", c.name, c.base, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// error bodies still carry a user-facing message; best-effort decode
		if out != nil {
			json.NewDecoder(resp.Body).Decode(out)
		}
		return errors.Wrapf(ErrProtocol, "%s %s: status %d", c.name, path, resp.StatusCode)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(ErrProtocol, "%s %s: decode response: %v", c.name, path, err)
	}
	return nil
}

// getJSON issues a GET and decodes the JSON body into out
func (c *client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// postJSON issues a POST with a JSON body and decodes the response into out
func (c *client) postJSON(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// command runs fn behind the circuit breaker. A tripped breaker reports the
// device as unreachable without touching the wire. Only transport failures
// count against the breaker; domain outcomes like a denied PIN do not.
func (c *client) command(fn func() error) error {
	var opErr error
	_, err := c.breaker.Execute(func() (any, error) {
		opErr = fn()
		if opErr != nil && !IsTransport(opErr) {
			return nil, nil
		}
		return nil, opErr
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		log.Debugf("%s: breaker open, command rejected", c.name)
		return errors.Wrapf(ErrUnreachable, "%s: circuit open", c.name)
	}
	return opErr
}
