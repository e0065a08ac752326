// Package db provides SurrealDB query functions for the extraction pipeline.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/lifelog/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// BadgeCount represents the number of pending tasks for one source kind.
type BadgeCount struct {
	SourceKind *string `json:"source_kind"`
	Count      int     `json:"count"`
}

// first unwraps the query-result envelope, returning nil when empty.
func first[T any](results *[]surrealdb.QueryResult[[]T]) *T {
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil
	}
	return &(*results)[0].Result[0]
}

// all unwraps the query-result envelope into a slice.
func all[T any](results *[]surrealdb.QueryResult[[]T]) []T {
	if results == nil || len(*results) == 0 {
		return []T{}
	}
	return (*results)[0].Result
}

// =============================================================================
// TASKS
// =============================================================================

// CreateTask persists a task in pending status and returns the stored record.
func (c *Client) CreateTask(ctx context.Context, input models.TaskInput) (*models.Task, error) {
	results, err := surrealdb.Query[[]models.Task](ctx, c.db, `
		CREATE task CONTENT {
			title: $title,
			description: $description,
			priority: $priority,
			confidence: $confidence,
			due_date: $due_date,
			status: "pending",
			source_kind: $source_kind,
			source_id: $source_id,
			similar_title: $similar_title,
			similar_verdict: $similar_verdict,
			similar_reason: $similar_reason
		}
	`, map[string]any{
		"title":           input.Title,
		"description":     input.Description,
		"priority":        priorityOrDefault(input.Priority),
		"confidence":      input.Confidence,
		"due_date":        input.DueDate,
		"source_kind":     input.SourceKind,
		"source_id":       input.SourceID,
		"similar_title":   input.SimilarTitle,
		"similar_verdict": input.SimilarVerdict,
		"similar_reason":  input.SimilarReason,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", wrapQueryError(err))
	}

	task := first(results)
	if task == nil {
		return nil, fmt.Errorf("create task: empty result")
	}
	return task, nil
}

// GetTaskByTitle returns the most recently created task with an exact
// title match, or nil if none exists.
func (c *Client) GetTaskByTitle(ctx context.Context, title string) (*models.Task, error) {
	results, err := surrealdb.Query[[]models.Task](ctx, c.db, `
		SELECT * FROM task WHERE title = $title ORDER BY created DESC LIMIT 1
	`, map[string]any{"title": title})
	if err != nil {
		return nil, fmt.Errorf("get task by title: %w", err)
	}
	return first(results), nil
}

// GetTask retrieves a task by ID. Returns nil if not found.
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	results, err := surrealdb.Query[[]models.Task](ctx, c.db, `
		SELECT * FROM type::record("task", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return first(results), nil
}

// ListResolvedTasks returns recently completed or rejected tasks, newest
// first. Feeds the "do not re-suggest" prompt section.
func (c *Client) ListResolvedTasks(ctx context.Context, days, limit int) ([]models.Task, error) {
	results, err := surrealdb.Query[[]models.Task](ctx, c.db, `
		SELECT * FROM task
		WHERE status IN ["completed", "rejected"]
		  AND created > time::now() - type::duration($window)
		ORDER BY created DESC LIMIT $limit
	`, map[string]any{
		"window": fmt.Sprintf("%dd", days),
		"limit":  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list resolved tasks: %w", err)
	}
	return all(results), nil
}

// ListTasksSince returns tasks created in the last N days, newest first.
func (c *Client) ListTasksSince(ctx context.Context, days, limit int) ([]models.Task, error) {
	results, err := surrealdb.Query[[]models.Task](ctx, c.db, `
		SELECT * FROM task
		WHERE created > time::now() - type::duration($window)
		ORDER BY created DESC LIMIT $limit
	`, map[string]any{
		"window": fmt.Sprintf("%dd", days),
		"limit":  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks since: %w", err)
	}
	return all(results), nil
}

// BadgeCounts returns the number of pending tasks grouped by source kind.
func (c *Client) BadgeCounts(ctx context.Context) (map[string]int, error) {
	results, err := surrealdb.Query[[]BadgeCount](ctx, c.db, `
		SELECT source_kind, count() AS count FROM task
		WHERE status = "pending" GROUP BY source_kind
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("badge counts: %w", err)
	}

	counts := make(map[string]int)
	for _, bc := range all(results) {
		kind := "manual"
		if bc.SourceKind != nil {
			kind = *bc.SourceKind
		}
		counts[kind] = bc.Count
	}
	return counts, nil
}

func priorityOrDefault(p string) string {
	if p == "" {
		return "medium"
	}
	return p
}

// =============================================================================
// DEPENDENCY EDGES
// =============================================================================

// EdgeExists reports whether an edge for the ordered (task, depends-on)
// pair already exists.
func (c *Client) EdgeExists(ctx context.Context, taskID, dependsOnID string) (bool, error) {
	results, err := surrealdb.Query[[]models.DependencyEdge](ctx, c.db, `
		SELECT * FROM depends_on
		WHERE in = type::record("task", $from) AND out = type::record("task", $to)
		LIMIT 1
	`, map[string]any{"from": taskID, "to": dependsOnID})
	if err != nil {
		return false, fmt.Errorf("edge exists: %w", err)
	}
	return first(results) != nil, nil
}

// CreateDependencyEdge relates two tasks. The unique pair index turns a
// concurrent duplicate insert into ErrAlreadyExists.
func (c *Client) CreateDependencyEdge(ctx context.Context, input models.DependencyEdgeInput) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		RELATE (type::record("task", $from))->depends_on->(type::record("task", $to)) SET
			rel_type = $rel_type,
			confidence = $confidence,
			reason = $reason,
			origin = $origin
	`, map[string]any{
		"from":       input.TaskID,
		"to":         input.DependsOnID,
		"rel_type":   input.RelType,
		"confidence": input.Confidence,
		"reason":     input.Reason,
		"origin":     string(input.Origin),
	})
	if err != nil {
		return fmt.Errorf("create dependency edge: %w", wrapQueryError(err))
	}
	return nil
}

// ListDependencyEdges returns all edges originating from a task.
func (c *Client) ListDependencyEdges(ctx context.Context, taskID string) ([]models.DependencyEdge, error) {
	results, err := surrealdb.Query[[]models.DependencyEdge](ctx, c.db, `
		SELECT * FROM depends_on WHERE in = type::record("task", $from)
	`, map[string]any{"from": taskID})
	if err != nil {
		return nil, fmt.Errorf("list dependency edges: %w", err)
	}
	return all(results), nil
}

// =============================================================================
// EXTRACTION LEDGER
// =============================================================================

// HasProcessed reports whether a ledger entry exists for the key tuple.
func (c *Client) HasProcessed(ctx context.Context, processKind, sourceKind, sourceID string) (bool, error) {
	results, err := surrealdb.Query[[]models.LedgerEntry](ctx, c.db, `
		SELECT * FROM type::thing("extraction_log", [$process_kind, $source_kind, $source_id])
	`, map[string]any{
		"process_kind": processKind,
		"source_kind":  sourceKind,
		"source_id":    sourceID,
	})
	if err != nil {
		return false, fmt.Errorf("has processed: %w", err)
	}
	return first(results) != nil, nil
}

// RecordProcessed writes the idempotency marker for a completed unit of
// work. Upsert semantics: a duplicate call for the same key overwrites.
func (c *Client) RecordProcessed(ctx context.Context, processKind, sourceKind, sourceID string, extractedCount int) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::thing("extraction_log", [$process_kind, $source_kind, $source_id]) SET
			process_kind = $process_kind,
			source_kind = $source_kind,
			source_id = $source_id,
			extracted_count = $count,
			processed_at = time::now()
	`, map[string]any{
		"process_kind": processKind,
		"source_kind":  sourceKind,
		"source_id":    sourceID,
		"count":        extractedCount,
	})
	if err != nil {
		return fmt.Errorf("record processed: %w", wrapQueryError(err))
	}
	return nil
}

// GetLedgerEntry returns the ledger entry for a key tuple, or nil.
func (c *Client) GetLedgerEntry(ctx context.Context, processKind, sourceKind, sourceID string) (*models.LedgerEntry, error) {
	results, err := surrealdb.Query[[]models.LedgerEntry](ctx, c.db, `
		SELECT * FROM type::thing("extraction_log", [$process_kind, $source_kind, $source_id])
	`, map[string]any{
		"process_kind": processKind,
		"source_kind":  sourceKind,
		"source_id":    sourceID,
	})
	if err != nil {
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return first(results), nil
}

// =============================================================================
// JOBS
// =============================================================================

// CreateJob persists a new job in queued status.
func (c *Client) CreateJob(ctx context.Context, id, kind string, params map[string]string) (*models.Job, error) {
	results, err := surrealdb.Query[[]models.Job](ctx, c.db, `
		CREATE type::thing("job", $id) CONTENT {
			kind: $kind,
			params: $params,
			status: "queued"
		}
	`, map[string]any{"id": id, "kind": kind, "params": params})
	if err != nil {
		return nil, fmt.Errorf("create job: %w", wrapQueryError(err))
	}

	job := first(results)
	if job == nil {
		return nil, fmt.Errorf("create job: empty result")
	}
	return job, nil
}

// MarkJobRunning transitions a job to running.
func (c *Client) MarkJobRunning(ctx context.Context, id string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("job", $id) SET status = "running"
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}
	return nil
}

// FinishJob persists a terminal status with its result. Must complete
// before the completion event is broadcast.
func (c *Client) FinishJob(ctx context.Context, id string, status models.JobStatus, summary string, data map[string]any, errMsg *string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("job", $id) SET
			status = $status,
			summary = $summary,
			data = $data,
			error = $error,
			completed_at = time::now()
	`, map[string]any{
		"id":      id,
		"status":  string(status),
		"summary": summary,
		"data":    data,
		"error":   errMsg,
	})
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID. Returns nil if not found.
func (c *Client) GetJob(ctx context.Context, id string) (*models.Job, error) {
	results, err := surrealdb.Query[[]models.Job](ctx, c.db, `
		SELECT * FROM type::record("job", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return first(results), nil
}

// ListJobs returns jobs, most recent first.
func (c *Client) ListJobs(ctx context.Context, limit int) ([]models.Job, error) {
	results, err := surrealdb.Query[[]models.Job](ctx, c.db, `
		SELECT * FROM job ORDER BY created_at DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return all(results), nil
}

// =============================================================================
// JUDGMENTS
// =============================================================================

// ListJudgments returns recent judgments with the given verdict, newest first.
func (c *Client) ListJudgments(ctx context.Context, verdict models.JudgmentVerdict, limit int) ([]models.Judgment, error) {
	results, err := surrealdb.Query[[]models.Judgment](ctx, c.db, `
		SELECT * FROM judgment WHERE verdict = $verdict ORDER BY created DESC LIMIT $limit
	`, map[string]any{"verdict": string(verdict), "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list judgments: %w", err)
	}
	return all(results), nil
}

// CreateJudgment records a human verdict on an extracted task.
func (c *Client) CreateJudgment(ctx context.Context, j models.Judgment) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE judgment CONTENT {
			task_title: $task_title,
			verdict: $verdict,
			corrected_title: $corrected_title,
			reason: $reason
		}
	`, map[string]any{
		"task_title":      j.TaskTitle,
		"verdict":         string(j.Verdict),
		"corrected_title": j.CorrectedTitle,
		"reason":          j.Reason,
	})
	if err != nil {
		return fmt.Errorf("create judgment: %w", wrapQueryError(err))
	}
	return nil
}

// =============================================================================
// SOURCE RECORDS (read-only collaborator tables)
// =============================================================================

var sourceTables = map[string]string{
	models.SourceSlack:  "slack_message",
	models.SourceGitHub: "github_comment",
	models.SourceMemo:   "memo",
}

// ListSourceRecords returns records of one source kind at or after the
// given time, oldest first. The connector processes own these tables;
// this is the only read path into them.
func (c *Client) ListSourceRecords(ctx context.Context, kind string, since time.Time) ([]models.SourceRecord, error) {
	table, ok := sourceTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown source kind: %q", kind)
	}

	results, err := surrealdb.Query[[]models.SourceRecord](ctx, c.db, fmt.Sprintf(`
		SELECT source_id, body, author, channel, timestamp FROM %s
		WHERE timestamp >= $since ORDER BY timestamp ASC
	`, table), map[string]any{"since": since})
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", kind, err)
	}

	records := all(results)
	for i := range records {
		records[i].Kind = kind
	}
	return records, nil
}
