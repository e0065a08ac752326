package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// JobStatus is the dispatcher state machine for a job. Terminal states
// are final; a failed job must be re-enqueued explicitly.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Job is a persisted extraction job. Jobs are never deleted; the history
// backs the activity log UI.
type Job struct {
	ID     surrealmodels.RecordID `json:"id"`
	Kind   string                 `json:"kind"`
	Params map[string]string      `json:"params,omitempty"`
	Status JobStatus              `json:"status"`

	Summary string         `json:"summary,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   *string        `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
