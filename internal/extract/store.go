// Package extract turns unprocessed source records into persisted tasks
// and dependency edges, exactly once per record.
package extract

import (
	"context"
	"time"

	"github.com/raphaelgruber/lifelog/internal/models"
)

// ProcessKind names the extraction process in ledger keys. There is one
// process today; the key tuple leaves room for more.
const ProcessKind = "task"

// Store is the storage surface the extraction pipeline needs. *db.Client
// implements it; tests use in-memory fakes.
type Store interface {
	// Source records (read-only collaborator tables)
	ListSourceRecords(ctx context.Context, kind string, since time.Time) ([]models.SourceRecord, error)

	// Extraction ledger
	HasProcessed(ctx context.Context, processKind, sourceKind, sourceID string) (bool, error)
	RecordProcessed(ctx context.Context, processKind, sourceKind, sourceID string, extractedCount int) error

	// Tasks and edges
	CreateTask(ctx context.Context, input models.TaskInput) (*models.Task, error)
	GetTaskByTitle(ctx context.Context, title string) (*models.Task, error)
	EdgeExists(ctx context.Context, taskID, dependsOnID string) (bool, error)
	CreateDependencyEdge(ctx context.Context, input models.DependencyEdgeInput) error

	// Window summaries
	ListTasksSince(ctx context.Context, days, limit int) ([]models.Task, error)
}

// TextGenerator is the model call boundary. The prompt goes in, raw text
// comes out; everything else about the provider is elsewhere.
type TextGenerator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Budget is the rate accounting boundary, satisfied by ratelimit.Tracker.
type Budget interface {
	Reserve(estimatedTokens int) bool
	Record(requests, tokens int)
}
