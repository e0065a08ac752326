package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/raphaelgruber/lifelog/internal/llm"
	"github.com/raphaelgruber/lifelog/internal/models"
	"github.com/raphaelgruber/lifelog/internal/prompt"
)

const defaultSinceDays = 3

// recordNouns names the records of each source kind in job summaries.
var recordNouns = map[string]string{
	models.SourceSlack:  "message",
	models.SourceGitHub: "comment",
	models.SourceMemo:   "memo",
}

// Extractor runs one extraction pass for a single source kind: list
// candidate records, skip already-processed ones, call the model per
// record, then materialize everything as one batch.
type Extractor struct {
	store     Store
	assembler *prompt.Assembler
	model     TextGenerator
	budget    Budget
	logger    *slog.Logger
}

func NewExtractor(store Store, assembler *prompt.Assembler, model TextGenerator, budget Budget, logger *slog.Logger) *Extractor {
	return &Extractor{
		store:     store,
		assembler: assembler,
		model:     model,
		budget:    budget,
		logger:    logger,
	}
}

// Outcome is what an extraction pass reports back to the job runner.
type Outcome struct {
	Summary string
	Data    map[string]any
}

// Run extracts tasks from unprocessed records of the given source kind.
// A single record failing its model call is logged and skipped; the rest
// of the batch proceeds. Run only errors when listing records fails,
// since nothing can be done without them.
func (e *Extractor) Run(ctx context.Context, sourceKind string, params map[string]string) (*Outcome, error) {
	sinceDays := intParam(params, "since_days", defaultSinceDays)
	since := time.Now().AddDate(0, 0, -sinceDays)

	records, err := e.store.ListSourceRecords(ctx, sourceKind, since)
	if err != nil {
		return nil, fmt.Errorf("listing %s records: %w", sourceKind, err)
	}

	contextText := e.assembler.Context(ctx)

	var (
		batch    []RecordCandidates
		skipped  int
		failures int
	)
	for _, rec := range records {
		done, err := e.store.HasProcessed(ctx, ProcessKind, rec.Kind, rec.SourceID)
		if err != nil {
			return nil, fmt.Errorf("checking ledger for %s/%s: %w", rec.Kind, rec.SourceID, err)
		}
		if done {
			skipped++
			continue
		}

		userPrompt := e.assembler.ForRecord(contextText, rec)
		if !e.budget.Reserve(llm.EstimateTokens(userPrompt)) {
			// Budget exhaustion is advisory, not a hard stop.
			e.logger.Warn("rate budget exceeded, proceeding anyway",
				"source_kind", rec.Kind, "source_id", rec.SourceID)
		}

		raw, err := e.model.GenerateWithSystem(ctx, prompt.SystemPrompt, userPrompt)
		if err != nil {
			e.logger.Warn("model call failed, skipping record",
				"source_kind", rec.Kind, "source_id", rec.SourceID, "error", err)
			failures++
			continue
		}
		e.budget.Record(1, llm.EstimateTokens(userPrompt)+llm.EstimateTokens(raw))

		batch = append(batch, RecordCandidates{
			Record:     rec,
			Candidates: llm.DecodeCandidates(raw),
		})
	}

	mat := NewMaterializer(e.store, e.logger).Materialize(ctx, batch)

	// Ledger entries only after materialization, and only for records
	// whose model call succeeded. Failed records stay unprocessed and
	// are picked up by the next run.
	for _, rc := range batch {
		count := mat.PerRecord[rc.Record.SourceID]
		if err := e.store.RecordProcessed(ctx, ProcessKind, rc.Record.Kind, rc.Record.SourceID, count); err != nil {
			e.logger.Warn("recording ledger entry failed",
				"source_kind", rc.Record.Kind, "source_id", rc.Record.SourceID, "error", err)
		}
	}

	noun := recordNouns[sourceKind]
	if noun == "" {
		noun = "record"
	}
	outcome := &Outcome{
		Summary: fmt.Sprintf("%s extracted from %d of %d candidate %s",
			plural(mat.TasksCreated, "task"), len(batch), len(records), noun+"s"),
		Data: map[string]any{
			"tasksCreated":   mat.TasksCreated,
			"edgesCreated":   mat.EdgesCreated,
			"hintsDropped":   mat.HintsDropped,
			"recordsTotal":   len(records),
			"recordsSkipped": skipped,
			"recordsFailed":  failures,
		},
	}
	return outcome, nil
}

func intParam(params map[string]string, key string, fallback int) int {
	if v, ok := params[key]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
