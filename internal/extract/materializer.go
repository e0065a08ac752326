package extract

import (
	"context"
	"errors"
	"log/slog"

	"github.com/raphaelgruber/lifelog/internal/db"
	"github.com/raphaelgruber/lifelog/internal/models"
)

// RecordCandidates pairs a source record with the candidates the model
// proposed for it.
type RecordCandidates struct {
	Record     models.SourceRecord
	Candidates []models.CandidateTask
}

// MaterializeResult summarizes one materialization pass over a batch.
type MaterializeResult struct {
	TasksCreated int
	EdgesCreated int
	HintsDropped int

	// PerRecord maps source record ID to the number of tasks persisted
	// for it, including zero-candidate records. Ledger entries are
	// written from this map.
	PerRecord map[string]int
}

// Materializer persists candidate tasks and resolves their dependency
// hints into edges.
type Materializer struct {
	store  Store
	logger *slog.Logger
}

func NewMaterializer(store Store, logger *slog.Logger) *Materializer {
	return &Materializer{store: store, logger: logger}
}

type createdTask struct {
	id    string
	title string
	hints []models.DependencyHint
}

// Materialize runs in two phases: first every candidate in the batch is
// persisted as a task, then dependency hints are resolved against the
// now-complete batch. The second phase never starts until the first has
// finished, so sibling candidates from the same batch can reference each
// other by title regardless of order.
func (m *Materializer) Materialize(ctx context.Context, batch []RecordCandidates) MaterializeResult {
	result := MaterializeResult{PerRecord: make(map[string]int, len(batch))}

	// Phase 1: persist all tasks. Title -> id for batch-local resolution;
	// on duplicate titles the first persisted task wins.
	byTitle := make(map[string]string)
	var created []createdTask

	for _, rc := range batch {
		rec := rc.Record
		result.PerRecord[rec.SourceID] = 0
		for _, cand := range rc.Candidates {
			input := taskInput(rec, cand)
			task, err := m.store.CreateTask(ctx, input)
			if err != nil {
				m.logger.Warn("persisting task failed",
					"title", cand.Title,
					"source_kind", rec.Kind,
					"source_id", rec.SourceID,
					"error", err)
				continue
			}
			id := models.MustRecordIDString(task.ID)
			if _, dup := byTitle[cand.Title]; !dup {
				byTitle[cand.Title] = id
			}
			created = append(created, createdTask{id: id, title: cand.Title, hints: cand.DependsOn})
			result.TasksCreated++
			result.PerRecord[rec.SourceID]++
		}
	}

	// Phase 2: resolve hints. Batch-local titles first, then stored
	// tasks by exact title. Unresolvable, self-referencing and duplicate
	// hints are dropped, never errors.
	for _, t := range created {
		for _, hint := range t.hints {
			targetID, ok := m.resolveTitle(ctx, byTitle, hint.ReferencedTitle)
			if !ok || targetID == t.id {
				result.HintsDropped++
				continue
			}
			exists, err := m.store.EdgeExists(ctx, t.id, targetID)
			if err != nil {
				m.logger.Warn("edge lookup failed", "task", t.id, "depends_on", targetID, "error", err)
				result.HintsDropped++
				continue
			}
			if exists {
				result.HintsDropped++
				continue
			}
			err = m.store.CreateDependencyEdge(ctx, models.DependencyEdgeInput{
				TaskID:      t.id,
				DependsOnID: targetID,
				RelType:     relationType(hint.RelationType),
				Confidence:  hint.Confidence,
				Reason:      hint.Reason,
				Origin:      models.EdgeOriginAuto,
			})
			if errors.Is(err, db.ErrAlreadyExists) {
				result.HintsDropped++
				continue
			}
			if err != nil {
				m.logger.Warn("persisting edge failed", "task", t.id, "depends_on", targetID, "error", err)
				result.HintsDropped++
				continue
			}
			result.EdgesCreated++
		}
	}

	return result
}

func (m *Materializer) resolveTitle(ctx context.Context, byTitle map[string]string, title string) (string, bool) {
	if id, ok := byTitle[title]; ok {
		return id, true
	}
	task, err := m.store.GetTaskByTitle(ctx, title)
	if err != nil {
		m.logger.Warn("task lookup by title failed", "title", title, "error", err)
		return "", false
	}
	if task == nil {
		return "", false
	}
	return models.MustRecordIDString(task.ID), true
}

func relationType(rt string) string {
	if rt == models.RelationBlocks {
		return models.RelationBlocks
	}
	return models.RelationRelated
}

func taskInput(rec models.SourceRecord, cand models.CandidateTask) models.TaskInput {
	input := models.TaskInput{
		Title:      cand.Title,
		Priority:   cand.Priority,
		Confidence: cand.Confidence,
		DueDate:    cand.DueDate,
		SourceKind: ptr(rec.Kind),
		SourceID:   ptr(rec.SourceID),
	}
	if cand.Description != "" {
		input.Description = ptr(cand.Description)
	}
	if s := cand.SimilarTo; s != nil {
		input.SimilarTitle = ptr(s.Title)
		input.SimilarVerdict = ptr(s.PriorVerdict)
		input.SimilarReason = ptr(s.Reason)
	}
	return input
}

func ptr[T any](v T) *T { return &v }
