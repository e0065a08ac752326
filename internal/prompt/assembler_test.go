package prompt

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/lifelog/internal/config"
	"github.com/raphaelgruber/lifelog/internal/models"
)

type stubStore struct {
	accepted []models.Judgment
	rejected []models.Judgment
	resolved []models.Task
	err      error
}

func (s *stubStore) ListJudgments(_ context.Context, verdict models.JudgmentVerdict, limit int) ([]models.Judgment, error) {
	if s.err != nil {
		return nil, s.err
	}
	list := s.accepted
	if verdict == models.VerdictRejected {
		list = s.rejected
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *stubStore) ListResolvedTasks(_ context.Context, days, limit int) ([]models.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resolved, nil
}

func strp(s string) *string { return &s }

func TestContextEmptyStore(t *testing.T) {
	a := NewAssembler(&stubStore{}, nil)
	assert.Equal(t, "", a.Context(context.Background()))
}

func TestContextSectionOrder(t *testing.T) {
	store := &stubStore{
		accepted: []models.Judgment{{TaskTitle: "Fix login timeout", Verdict: models.VerdictAccepted}},
		rejected: []models.Judgment{{TaskTitle: "Lunch?", Verdict: models.VerdictRejected, Reason: strp("not a task")}},
		resolved: []models.Task{{Title: "Upgrade staging DB", Status: models.TaskStatusCompleted}},
	}
	vocab := &config.Vocabulary{Terms: []config.VocabTerm{{Term: "ptal", Meaning: "please take a look, a review request"}}}
	a := NewAssembler(store, vocab)

	text := a.Context(context.Background())
	judgmentsAt := strings.Index(text, "Prior judgments")
	vocabAt := strings.Index(text, "Domain vocabulary")
	resolvedAt := strings.Index(text, "Recently resolved")
	require.True(t, judgmentsAt >= 0 && vocabAt >= 0 && resolvedAt >= 0, "all sections present:\n%s", text)
	assert.Less(t, judgmentsAt, vocabAt)
	assert.Less(t, vocabAt, resolvedAt)

	assert.Contains(t, text, `ACCEPTED: "Fix login timeout"`)
	assert.Contains(t, text, `REJECTED: "Lunch?"`)
	assert.Contains(t, text, "ptal: please take a look")
	assert.Contains(t, text, "Upgrade staging DB")
}

func TestContextStoreErrorOmitsSections(t *testing.T) {
	a := NewAssembler(&stubStore{err: fmt.Errorf("db down")}, nil)
	// Prompt assembly never fails; broken sections are just absent.
	assert.Equal(t, "", a.Context(context.Background()))
}

func TestFewShotPrefersCorrectedJudgments(t *testing.T) {
	var accepted []models.Judgment
	for i := 0; i < fewShotLimit; i++ {
		accepted = append(accepted, models.Judgment{TaskTitle: fmt.Sprintf("Plain %d", i), Verdict: models.VerdictAccepted})
	}
	accepted = append(accepted, models.Judgment{
		TaskTitle:      "Fix loginn",
		Verdict:        models.VerdictAccepted,
		CorrectedTitle: strp("Fix login"),
	})
	a := NewAssembler(&stubStore{accepted: accepted}, nil)

	text := a.Context(context.Background())
	// The corrected judgment must survive the cap and lead the list.
	assert.Contains(t, text, `corrected to "Fix login"`)
	assert.Less(t, strings.Index(text, "Fix loginn"), strings.Index(text, "Plain 0"))
}

func TestForRecordTemplates(t *testing.T) {
	a := NewAssembler(&stubStore{}, nil)
	ts := time.Date(2026, 8, 12, 9, 30, 0, 0, time.UTC)

	slack := a.ForRecord("", models.SourceRecord{
		Kind: models.SourceSlack, Author: "dana", Channel: "infra", Body: "can you rotate the certs", Timestamp: ts,
	})
	assert.Equal(t, "Slack message from dana in #infra at 2026-08-12 09:30:\ncan you rotate the certs", slack)

	github := a.ForRecord("", models.SourceRecord{
		Kind: models.SourceGitHub, Author: "sam", Channel: "org/repo", Body: "needs a changelog entry", Timestamp: ts,
	})
	assert.Contains(t, github, "GitHub comment by sam on org/repo")

	memo := a.ForRecord("", models.SourceRecord{
		Kind: models.SourceMemo, Body: "buy a new desk chair", Timestamp: ts,
	})
	assert.True(t, strings.HasPrefix(memo, "Memo written at"))
}

func TestForRecordPrependsContext(t *testing.T) {
	a := NewAssembler(&stubStore{}, nil)
	out := a.ForRecord("CONTEXT", models.SourceRecord{Kind: models.SourceMemo, Body: "x", Timestamp: time.Now()})
	assert.True(t, strings.HasPrefix(out, "CONTEXT\n\n"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := strings.Repeat("a", 100)
	got := truncate(long, excerptRunes)
	assert.Len(t, []rune(got), excerptRunes)
	assert.True(t, strings.HasSuffix(got, "..."))
}
