// Package prompt assembles the context text sent to the model for
// extraction runs.
package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphaelgruber/lifelog/internal/config"
	"github.com/raphaelgruber/lifelog/internal/models"
)

// Section caps. Prompts stay small on purpose; the few-shot and
// do-not-resuggest sections are hints, not training data.
const (
	fewShotLimit  = 5
	resolvedDays  = 14
	resolvedLimit = 20
	excerptRunes  = 80
)

// SystemPrompt instructs the model to emit candidates as fenced JSON.
const SystemPrompt = `You are a personal task extraction assistant. Read the given record and extract actionable tasks for the record's author.

Output a JSON array inside a fenced code block. Each element:
{
  "title": "short imperative task title",
  "description": "optional detail",
  "priority": "low" | "medium" | "high",
  "confidence": 0.0-1.0,
  "due_date": "RFC3339 timestamp, only when the text names one",
  "similar_to": {"title": "...", "prior_verdict": "accepted|rejected", "reason": "..."},
  "depends_on": [{"relation_type": "blocks"|"related", "referenced_title": "...", "reason": "...", "confidence": 0.0-1.0}]
}

Guidelines:
- Extract only genuinely actionable items; output [] when there are none.
- Never re-suggest tasks listed in the "recently resolved" section.
- Reference other tasks by their exact title in depends_on hints.`

// Store is the read-only storage surface the assembler needs.
type Store interface {
	ListJudgments(ctx context.Context, verdict models.JudgmentVerdict, limit int) ([]models.Judgment, error)
	ListResolvedTasks(ctx context.Context, days, limit int) ([]models.Task, error)
}

// Assembler builds extraction prompt context from prior judgments, the
// domain vocabulary, and recently resolved tasks.
type Assembler struct {
	store Store
	vocab *config.Vocabulary
}

// NewAssembler creates an assembler. vocab may be nil.
func NewAssembler(store Store, vocab *config.Vocabulary) *Assembler {
	return &Assembler{store: store, vocab: vocab}
}

// Context builds the shared context sections in fixed order: few-shot
// examples, vocabulary, recently resolved. It is a pure read of storage
// state and never fails; a failed or empty section is simply omitted.
func (a *Assembler) Context(ctx context.Context) string {
	var sections []string

	if s := a.fewShotSection(ctx); s != "" {
		sections = append(sections, s)
	}
	if s := a.vocabSection(); s != "" {
		sections = append(sections, s)
	}
	if s := a.resolvedSection(ctx); s != "" {
		sections = append(sections, s)
	}

	return strings.Join(sections, "\n\n")
}

// ForRecord appends the per-record template to the shared context,
// producing the final user prompt for one source record.
func (a *Assembler) ForRecord(contextText string, rec models.SourceRecord) string {
	var b strings.Builder
	if contextText != "" {
		b.WriteString(contextText)
		b.WriteString("\n\n")
	}

	switch rec.Kind {
	case models.SourceSlack:
		fmt.Fprintf(&b, "Slack message from %s in #%s at %s:\n%s",
			rec.Author, rec.Channel, rec.Timestamp.Format("2006-01-02 15:04"), rec.Body)
	case models.SourceGitHub:
		fmt.Fprintf(&b, "GitHub comment by %s on %s at %s:\n%s",
			rec.Author, rec.Channel, rec.Timestamp.Format("2006-01-02 15:04"), rec.Body)
	case models.SourceMemo:
		fmt.Fprintf(&b, "Memo written at %s:\n%s",
			rec.Timestamp.Format("2006-01-02 15:04"), rec.Body)
	default:
		fmt.Fprintf(&b, "Record (%s) at %s:\n%s",
			rec.Kind, rec.Timestamp.Format("2006-01-02 15:04"), rec.Body)
	}

	return b.String()
}

// fewShotSection lists recent human verdicts. Accepted examples that
// carry a correction come first; they teach the most.
func (a *Assembler) fewShotSection(ctx context.Context) string {
	accepted, err := a.store.ListJudgments(ctx, models.VerdictAccepted, fewShotLimit*2)
	if err != nil {
		slog.Warn("failed to load accepted judgments for prompt", "error", err)
		accepted = nil
	}
	rejected, err := a.store.ListJudgments(ctx, models.VerdictRejected, fewShotLimit)
	if err != nil {
		slog.Warn("failed to load rejected judgments for prompt", "error", err)
		rejected = nil
	}
	if len(accepted) == 0 && len(rejected) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Prior judgments on extracted tasks:")

	for _, j := range preferCorrected(accepted, fewShotLimit) {
		if j.CorrectedTitle != nil {
			fmt.Fprintf(&b, "\n- ACCEPTED (corrected to %q): %q", *j.CorrectedTitle, j.TaskTitle)
		} else {
			fmt.Fprintf(&b, "\n- ACCEPTED: %q", j.TaskTitle)
		}
		if j.Reason != nil {
			fmt.Fprintf(&b, " — %s", *j.Reason)
		}
	}
	for _, j := range rejected {
		fmt.Fprintf(&b, "\n- REJECTED: %q", j.TaskTitle)
		if j.Reason != nil {
			fmt.Fprintf(&b, " — %s", *j.Reason)
		}
	}

	return b.String()
}

// preferCorrected reorders judgments so corrected ones lead, then caps.
func preferCorrected(judgments []models.Judgment, limit int) []models.Judgment {
	ordered := make([]models.Judgment, 0, len(judgments))
	for _, j := range judgments {
		if j.CorrectedTitle != nil {
			ordered = append(ordered, j)
		}
	}
	for _, j := range judgments {
		if j.CorrectedTitle == nil {
			ordered = append(ordered, j)
		}
	}
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}

func (a *Assembler) vocabSection() string {
	if a.vocab == nil || len(a.vocab.Terms) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Domain vocabulary:")
	for _, t := range a.vocab.Terms {
		fmt.Fprintf(&b, "\n- %s: %s", t.Term, t.Meaning)
	}
	return b.String()
}

func (a *Assembler) resolvedSection(ctx context.Context) string {
	resolved, err := a.store.ListResolvedTasks(ctx, resolvedDays, resolvedLimit)
	if err != nil {
		slog.Warn("failed to load resolved tasks for prompt", "error", err)
		return ""
	}
	if len(resolved) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Recently resolved — do not re-suggest:")
	for _, t := range resolved {
		fmt.Fprintf(&b, "\n- %s", truncate(t.Title, excerptRunes))
	}
	return b.String()
}

// truncate shortens a string to maxRunes, adding "..." if truncated.
func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes-3]) + "..."
}
