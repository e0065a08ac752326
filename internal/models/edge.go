package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// EdgeOrigin indicates how a dependency edge was created.
type EdgeOrigin string

const (
	EdgeOriginAuto   EdgeOrigin = "auto"   // Resolved from a model hint during materialization
	EdgeOriginManual EdgeOrigin = "manual" // User linked two tasks by hand
)

// Relation types for dependency edges. Closed set.
const (
	RelationBlocks  = "blocks"
	RelationRelated = "related"
)

// DependencyEdge is a directed relationship between two persisted tasks.
// At most one edge exists per ordered (task, depends-on) pair.
type DependencyEdge struct {
	ID surrealmodels.RecordID `json:"id"`

	In  surrealmodels.RecordID `json:"in"`  // The task that depends
	Out surrealmodels.RecordID `json:"out"` // The task depended on

	RelType    string     `json:"rel_type"`
	Confidence float64    `json:"confidence"`
	Reason     string     `json:"reason,omitempty"`
	Origin     EdgeOrigin `json:"origin"`

	Created time.Time `json:"created,omitempty"`
}

// DependencyEdgeInput is the input structure for creating dependency edges.
type DependencyEdgeInput struct {
	TaskID       string     `json:"task_id"`
	DependsOnID  string     `json:"depends_on_id"`
	RelType      string     `json:"rel_type"`
	Confidence   float64    `json:"confidence"`
	Reason       string     `json:"reason,omitempty"`
	Origin       EdgeOrigin `json:"origin"`
}
