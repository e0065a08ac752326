// Package models defines data structures for the lifelog extraction core.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// TaskStatus is the review lifecycle of a task, owned by the user review
// flows. The extraction pipeline only ever creates tasks as pending.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusAccepted  TaskStatus = "accepted"
	TaskStatusRejected  TaskStatus = "rejected"
	TaskStatusCompleted TaskStatus = "completed"
)

// Task is a persisted task extracted from a source record (or created
// manually, in which case SourceKind/SourceID are nil).
type Task struct {
	ID          surrealmodels.RecordID `json:"id"`
	Title       string                 `json:"title"`
	Description *string                `json:"description,omitempty"`
	Priority    string                 `json:"priority,omitempty"`
	Confidence  float64                `json:"confidence"`
	DueDate     *time.Time             `json:"due_date,omitempty"`
	Status      TaskStatus             `json:"status"`

	// Provenance
	SourceKind *string `json:"source_kind,omitempty"`
	SourceID   *string `json:"source_id,omitempty"`

	// Similarity hint carried over from extraction, if the model flagged
	// the task as resembling a previously judged one.
	SimilarTitle   *string `json:"similar_title,omitempty"`
	SimilarVerdict *string `json:"similar_verdict,omitempty"`
	SimilarReason  *string `json:"similar_reason,omitempty"`

	Created time.Time `json:"created,omitempty"`
}

// TaskInput is the input structure for persisting a task.
type TaskInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Confidence  float64    `json:"confidence"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	SourceKind  *string    `json:"source_kind,omitempty"`
	SourceID    *string    `json:"source_id,omitempty"`

	SimilarTitle   *string `json:"similar_title,omitempty"`
	SimilarVerdict *string `json:"similar_verdict,omitempty"`
	SimilarReason  *string `json:"similar_reason,omitempty"`
}

// SimilarHint is the model's pointer to a previously judged task.
type SimilarHint struct {
	Title       string `json:"title"`
	PriorVerdict string `json:"prior_verdict"`
	Reason      string `json:"reason"`
}

// DependencyHint is a natural-language cross-reference proposed by the
// model. It is resolved to a DependencyEdge during materialization or
// silently dropped.
type DependencyHint struct {
	RelationType    string  `json:"relation_type"` // "blocks" | "related"
	ReferencedTitle string  `json:"referenced_title"`
	Reason          string  `json:"reason,omitempty"`
	Confidence      float64 `json:"confidence,omitempty"`
}

// CandidateTask is a model-proposed task pending materialization. It
// exists only inside one extraction pass.
type CandidateTask struct {
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Priority    string           `json:"priority,omitempty"`
	Confidence  float64          `json:"confidence"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	SimilarTo   *SimilarHint     `json:"similar_to,omitempty"`
	DependsOn   []DependencyHint `json:"depends_on,omitempty"`
}
