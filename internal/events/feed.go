package events

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// RecognitionEvent is one server-sent recognition outcome from the backend
type RecognitionEvent struct {
	Type       string  `json:"type"`
	Authorized bool    `json:"authorized"`
	User       string  `json:"user"`
	Confidence float64 `json:"confidence"`
}

// Handler consumes dispatched recognition events
type Handler func(ev RecognitionEvent)

// Feed subscribes to the backend's EventSource stream and dispatches
// recognition events. Disconnects reconnect with exponential backoff; Stop
// cancels the stream and waits for the consumer goroutine to exit.
type Feed struct {
	url     string
	client  *http.Client
	handler Handler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFeed builds a feed against base+path (e.g. /api/events)
func NewFeed(base, path string, handler Handler) *Feed {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Feed{
		url: base + path,
		// no overall timeout: the stream is long-lived, cancellation comes
		// from the feed context
		client:  &http.Client{},
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the consumer goroutine
func (f *Feed) Start() {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = 0 // reconnect forever
		err := backoff.Retry(f.consume, backoff.WithContext(bo, f.ctx))
		if err != nil && f.ctx.Err() == nil {
			log.Errorf("events: feed terminated: %v", err)
		}
	}()
	log.Printf("events: subscribed to %s", f.url)
}

// Stop tears the stream down; no handler fires afterwards
func (f *Feed) Stop() {
	f.cancel()
	f.wg.Wait()
}

func (f *Feed) consume() error {
	req, err := http.NewRequestWithContext(f.ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := f.client.Do(req)
	if err != nil {
		if f.ctx.Err() != nil {
			return nil
		}
		log.Debugf("events: connect failed: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debugf("events: stream returned status %d", resp.StatusCode)
		return errors.Errorf("event stream status %d", resp.StatusCode)
	}

	err = readEvents(resp.Body, f.dispatch)
	if f.ctx.Err() != nil {
		return nil
	}
	if err == nil {
		err = errors.New("event stream closed")
	}
	return err
}

func (f *Feed) dispatch(ev RecognitionEvent) {
	if ev.Type != "" && ev.Type != "recognition" {
		return
	}
	if f.ctx.Err() != nil {
		return
	}
	f.handler(ev)
}

// readEvents scans text/event-stream framing: data lines accumulate until a
// blank line dispatches the event. Non-JSON payloads are skipped.
func readEvents(r io.Reader, fn func(RecognitionEvent)) error {
	scanner := bufio.NewScanner(r)
	var data strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case line == "":
			if data.Len() > 0 {
				var ev RecognitionEvent
				if err := json.Unmarshal([]byte(data.String()), &ev); err != nil {
					log.Debugf("events: skipping malformed event: %v", err)
				} else {
					fn(ev)
				}
				data.Reset()
			}
		}
	}
	return scanner.Err()
}
