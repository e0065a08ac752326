package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// StreamState is the connection state of the event stream.
type StreamState string

const (
	StateConnecting StreamState = "connecting"
	StateConnected  StreamState = "connected"
	StateBackingOff StreamState = "backing-off"
	StateGivenUp    StreamState = "given-up"
)

const (
	backoffBase = time.Second
	backoffMax  = 30 * time.Second
	maxAttempts = 10
)

// Event is one server-sent event as received off the wire.
type Event struct {
	Kind string
	Data json.RawMessage
}

// ErrStreamGivenUp is returned once reconnection attempts are exhausted.
var ErrStreamGivenUp = errors.New("event stream: gave up reconnecting")

// StreamOptions configures Stream. The zero value is usable.
type StreamOptions struct {
	// OnStateChange is called on every connection state transition, from
	// the streaming goroutine.
	OnStateChange func(StreamState)

	// BaseBackoff and MaxAttempts override the reconnect defaults when
	// set (1s doubling up to 30s, 10 attempts).
	BaseBackoff time.Duration
	MaxAttempts int
}

// Stream consumes the daemon's event feed, invoking handle for each
// event. Lost connections are retried with exponential backoff; the
// attempt counter resets after every successful connect. Stream returns
// nil when ctx is cancelled and ErrStreamGivenUp when the daemon stays
// unreachable.
func (c *Client) Stream(ctx context.Context, opts StreamOptions, handle func(Event)) error {
	notify := func(s StreamState) {
		if opts.OnStateChange != nil {
			opts.OnStateChange(s)
		}
	}

	base := opts.BaseBackoff
	if base <= 0 {
		base = backoffBase
	}
	limit := opts.MaxAttempts
	if limit <= 0 {
		limit = maxAttempts
	}

	attempts := 0
	backoff := base
	for {
		notify(StateConnecting)
		err := c.streamOnce(ctx, func(ev Event) {
			if attempts != 0 {
				// Connected and receiving again: this attempt run is over.
				attempts = 0
				backoff = base
			}
			if ev.Kind == "connected" {
				notify(StateConnected)
			}
			handle(ev)
		})
		if ctx.Err() != nil {
			return nil
		}
		attempts++
		if attempts >= limit {
			notify(StateGivenUp)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrStreamGivenUp, err)
			}
			return ErrStreamGivenUp
		}

		notify(StateBackingOff)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > backoffMax {
			backoff = backoffMax
		}
	}
}

// streamOnce holds one SSE connection open and dispatches its events
// until the connection drops or ctx is cancelled.
func (c *Client) streamOnce(ctx context.Context, handle func(Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream is long-lived and bounded only by ctx, so the client
	// used here carries no timeout.
	httpClient := &http.Client{Transport: c.http.Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var kind string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if kind != "" {
				handle(Event{Kind: kind, Data: json.RawMessage(data.String())})
			}
			kind = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			kind = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("event stream closed by server")
}
