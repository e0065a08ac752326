// Package client is the Go API client for the lifelog daemon, used by
// the CLI and by anything else that talks to the HTTP surface.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/raphaelgruber/lifelog/internal/ratelimit"
)

// Job is the client-side view of a job. Record ids arrive as plain
// strings over the wire.
type Job struct {
	ID     string            `json:"id"`
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
	Status string            `json:"status"`

	Summary string         `json:"summary,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   *string        `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Client talks to a running daemon.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// EnqueueJob submits a job and returns it in queued state.
func (c *Client) EnqueueJob(ctx context.Context, kind string, params map[string]string) (*Job, error) {
	body, err := json.Marshal(map[string]any{"kind": kind, "params": params})
	if err != nil {
		return nil, err
	}
	var job Job
	if err := c.do(ctx, http.MethodPost, "/api/jobs", bytes.NewReader(body), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+id, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) ListJobs(ctx context.Context, limit int) ([]Job, error) {
	var resp struct {
		Jobs []Job `json:"jobs"`
	}
	path := "/api/jobs"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (c *Client) Usage(ctx context.Context) (*ratelimit.Usage, error) {
	var usage ratelimit.Usage
	if err := c.do(ctx, http.MethodGet, "/api/usage", nil, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

func (c *Client) Badges(ctx context.Context) (map[string]int, error) {
	var resp struct {
		Badges map[string]int `json:"badges"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/badges", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Badges, nil
}

// Restart asks the daemon to exit and be restarted by its supervisor.
func (c *Client) Restart(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/admin/restart", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("daemon returned %d", resp.StatusCode)
}
