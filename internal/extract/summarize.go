package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphaelgruber/lifelog/internal/llm"
)

const (
	defaultSummaryDays = 7
	summaryTaskLimit   = 50
)

const summarizeSystemPrompt = `You are a personal productivity assistant. Given a list of recent tasks, write a short plain-text digest: what got done, what is pending, and what looks overdue or stuck. Four sentences at most. No markdown.`

// Summarizer produces a plain-text digest of the recent task window.
type Summarizer struct {
	store  Store
	model  TextGenerator
	budget Budget
	logger *slog.Logger
}

func NewSummarizer(store Store, model TextGenerator, budget Budget, logger *slog.Logger) *Summarizer {
	return &Summarizer{store: store, model: model, budget: budget, logger: logger}
}

func (s *Summarizer) Run(ctx context.Context, params map[string]string) (*Outcome, error) {
	days := intParam(params, "days", defaultSummaryDays)

	tasks, err := s.store.ListTasksSince(ctx, days, summaryTaskLimit)
	if err != nil {
		return nil, fmt.Errorf("listing recent tasks: %w", err)
	}
	if len(tasks) == 0 {
		return &Outcome{
			Summary: fmt.Sprintf("no tasks in the last %d days", days),
			Data:    map[string]any{"taskCount": 0, "days": days},
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tasks from the last %d days:\n", days)
	for _, t := range tasks {
		fmt.Fprintf(&b, "- [%s] %s (priority %s)\n", t.Status, t.Title, t.Priority)
	}
	userPrompt := b.String()

	if !s.budget.Reserve(llm.EstimateTokens(userPrompt)) {
		s.logger.Warn("rate budget exceeded, proceeding anyway", "job", "summarize-window")
	}
	digest, err := s.model.GenerateWithSystem(ctx, summarizeSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("generating digest: %w", err)
	}
	s.budget.Record(1, llm.EstimateTokens(userPrompt)+llm.EstimateTokens(digest))

	return &Outcome{
		Summary: fmt.Sprintf("summarized %s from the last %d days", plural(len(tasks), "task"), days),
		Data: map[string]any{
			"taskCount": len(tasks),
			"days":      days,
			"digest":    strings.TrimSpace(digest),
		},
	}, nil
}
