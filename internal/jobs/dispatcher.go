// Package jobs runs asynchronous work requested over the API: a single
// worker drains a queue, executes registered handlers, and broadcasts
// completion events after results are persisted.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/raphaelgruber/lifelog/internal/events"
	"github.com/raphaelgruber/lifelog/internal/models"
	"github.com/raphaelgruber/lifelog/internal/ratelimit"
)

// Job kinds the dispatcher knows how to run.
const (
	KindExtractSlack    = "extract-tasks-slack"
	KindExtractGitHub   = "extract-tasks-github"
	KindExtractMemos    = "extract-tasks-memos"
	KindSummarizeWindow = "summarize-window"
)

const queueSize = 64

// Result is what a handler reports on success.
type Result struct {
	Summary string
	Data    map[string]any
}

// Handler executes one job kind. A returned error or a panic marks the
// job failed; the worker survives either way.
type Handler func(ctx context.Context, params map[string]string) (*Result, error)

// Store is the persistence surface the dispatcher needs.
type Store interface {
	CreateJob(ctx context.Context, id, kind string, params map[string]string) (*models.Job, error)
	MarkJobRunning(ctx context.Context, id string) error
	FinishJob(ctx context.Context, id string, status models.JobStatus, summary string, data map[string]any, errMsg *string) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	BadgeCounts(ctx context.Context) (map[string]int, error)
}

// Notifier receives broadcast events, satisfied by *events.Hub.
type Notifier interface {
	Broadcast(kind string, payload any)
}

// UsageSource reports current rate budget usage, satisfied by
// *ratelimit.Tracker.
type UsageSource interface {
	Snapshot() ratelimit.Usage
}

type queuedJob struct {
	id     string
	kind   string
	params map[string]string
}

// Dispatcher owns the job queue and the single worker that drains it.
// Jobs run strictly one at a time, in enqueue order.
type Dispatcher struct {
	store    Store
	hub      Notifier
	usage    UsageSource
	handlers map[string]Handler
	queue    chan queuedJob
	logger   *slog.Logger
}

func NewDispatcher(store Store, hub Notifier, usage UsageSource, handlers map[string]Handler, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		hub:      hub,
		usage:    usage,
		handlers: handlers,
		queue:    make(chan queuedJob, queueSize),
		logger:   logger,
	}
}

// Enqueue persists a queued job and hands it to the worker. The kind is
// not validated here; an unknown kind fails when the worker picks it up,
// so the failure is visible as a job record rather than a rejected
// request.
func (d *Dispatcher) Enqueue(ctx context.Context, kind string, params map[string]string) (*models.Job, error) {
	id := uuid.NewString()[:8]

	job, err := d.store.CreateJob(ctx, id, kind, params)
	if err != nil {
		return nil, fmt.Errorf("persisting job: %w", err)
	}

	select {
	case d.queue <- queuedJob{id: id, kind: kind, params: params}:
	default:
		errMsg := "job queue full"
		if ferr := d.store.FinishJob(ctx, id, models.JobStatusFailed, "", nil, &errMsg); ferr != nil {
			d.logger.Error("marking overflow job failed", "job_id", id, "error", ferr)
		}
		return nil, fmt.Errorf("job queue full")
	}

	d.logger.Info("job enqueued", "job_id", id, "kind", kind)
	return job, nil
}

// Run drains the queue until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case qj := <-d.queue:
			d.execute(ctx, qj)
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, qj queuedJob) {
	logger := d.logger.With("job_id", qj.id, "kind", qj.kind)

	if err := d.store.MarkJobRunning(ctx, qj.id); err != nil {
		logger.Error("marking job running", "error", err)
	}

	result, err := d.runHandler(ctx, qj, logger)

	status := models.JobStatusSucceeded
	summary := ""
	var data map[string]any
	var errMsg *string
	if err != nil {
		status = models.JobStatusFailed
		msg := err.Error()
		errMsg = &msg
		logger.Warn("job failed", "error", err)
	} else {
		summary = result.Summary
		data = result.Data
		logger.Info("job succeeded", "summary", summary)
	}

	// Persist the terminal state first. A client reacting to the
	// broadcast must be able to read the finished job back.
	if err := d.store.FinishJob(ctx, qj.id, status, summary, data, errMsg); err != nil {
		logger.Error("persisting job result", "error", err)
		return
	}

	job, err := d.store.GetJob(ctx, qj.id)
	if err != nil {
		logger.Error("reloading finished job", "error", err)
		return
	}
	d.hub.Broadcast(events.EventJobCompleted, job)

	if badges, err := d.store.BadgeCounts(ctx); err != nil {
		logger.Warn("loading badge counts", "error", err)
	} else {
		d.hub.Broadcast(events.EventBadgesUpdated, badges)
	}
	d.hub.Broadcast(events.EventRateLimitUpdated, d.usage.Snapshot())
}

// runHandler isolates handler execution so a panic in one job cannot
// take down the worker.
func (d *Dispatcher) runHandler(ctx context.Context, qj queuedJob, logger *slog.Logger) (result *Result, err error) {
	handler, ok := d.handlers[qj.kind]
	if !ok {
		return nil, fmt.Errorf("unknown job kind %q", qj.kind)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("job handler panicked", "panic", r)
			result = nil
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler(ctx, qj.params)
}
