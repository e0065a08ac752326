package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueJob(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/jobs", r.URL.Path)

		var req struct {
			Kind   string            `json:"kind"`
			Params map[string]string `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "extract-tasks-slack", req.Kind)

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]any{
			"id": "abc12345", "kind": req.Kind, "status": "queued",
			"created_at": time.Now().Format(time.RFC3339),
		})
	}))
	defer ts.Close()

	c := New(ts.URL)
	job, err := c.EnqueueJob(context.Background(), "extract-tasks-slack", map[string]string{"since_days": "3"})
	require.NoError(t, err)
	assert.Equal(t, "abc12345", job.ID)
	assert.Equal(t, "queued", job.Status)
}

func TestErrorPayloadSurfaces(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "job not found"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	_, err := c.GetJob(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job not found")
	assert.Contains(t, err.Error(), "404")
}

func TestRestartSendsBearerToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer hunter2" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "restarting"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	assert.Error(t, New(ts.URL).Restart(context.Background(), "wrong"))
	assert.NoError(t, c.Restart(context.Background(), "hunter2"))
}

func sseServer(t *testing.T, perConn func(n int32, w http.ResponseWriter, flush func())) *httptest.Server {
	t.Helper()
	var conns int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&conns, 1)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		perConn(n, w, flusher.Flush)
	}))
}

func TestStreamParsesEvents(t *testing.T) {
	ts := sseServer(t, func(n int32, w http.ResponseWriter, flush func()) {
		fmt.Fprint(w, "event:connected\ndata:{\"clientId\":\"c1\"}\n\n")
		fmt.Fprint(w, "event:job_completed\ndata:{\"id\":\"abc\"}\n\n")
		flush()
		// Hold the connection open until the client goes away.
		<-time.After(5 * time.Second)
	})
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []Event
	c := New(ts.URL)
	err := c.Stream(ctx, StreamOptions{}, func(ev Event) {
		got = append(got, ev)
		if ev.Kind == "job_completed" {
			cancel()
		}
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "connected", got[0].Kind)
	assert.JSONEq(t, `{"clientId": "c1"}`, string(got[0].Data))
	assert.Equal(t, "job_completed", got[1].Kind)
}

func TestStreamReconnects(t *testing.T) {
	ts := sseServer(t, func(n int32, w http.ResponseWriter, flush func()) {
		if n == 1 {
			// First connection dies immediately after one event.
			fmt.Fprint(w, "event:connected\ndata:{}\n\n")
			flush()
			return
		}
		fmt.Fprint(w, "event:connected\ndata:{}\n\n")
		fmt.Fprint(w, "event:heartbeat\ndata:{}\n\n")
		flush()
		<-time.After(5 * time.Second)
	})
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var states []StreamState
	heartbeats := 0
	c := New(ts.URL)
	err := c.Stream(ctx, StreamOptions{
		OnStateChange: func(s StreamState) { states = append(states, s) },
		BaseBackoff:   10 * time.Millisecond,
	}, func(ev Event) {
		if ev.Kind == "heartbeat" {
			heartbeats++
			cancel()
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 1, heartbeats)
	assert.Contains(t, states, StateBackingOff)
	assert.Contains(t, states, StateConnected)
}

func TestStreamGivesUpEventually(t *testing.T) {
	// A server that always refuses.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	ts.Close() // connection refused from the start

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var states []StreamState
	c := New(ts.URL)
	err := c.Stream(ctx, StreamOptions{
		OnStateChange: func(s StreamState) { states = append(states, s) },
		BaseBackoff:   time.Millisecond,
		MaxAttempts:   4,
	}, func(Event) {})
	require.ErrorIs(t, err, ErrStreamGivenUp)
	assert.Equal(t, StateGivenUp, states[len(states)-1])
}
