package models

import (
	"time"
)

// Source kinds the pipeline can read. The connectors that populate these
// tables live outside this module; the pipeline only selects from them.
const (
	SourceSlack  = "slack"
	SourceGitHub = "github"
	SourceMemo   = "memo"
)

// SourceRecord is a normalized view over one raw record from any source
// table, carrying just the fields the prompt templates need.
type SourceRecord struct {
	Kind      string    `json:"kind"`
	SourceID  string    `json:"source_id"`
	Body      string    `json:"body"`
	Author    string    `json:"author,omitempty"`  // Slack sender or GitHub comment author
	Channel   string    `json:"channel,omitempty"` // Slack channel or GitHub repo
	Timestamp time.Time `json:"timestamp"`
}

// LedgerEntry is an idempotency marker: its presence means "do not
// reprocess this source record for this process kind". Entries are
// written once per completed unit of work and never mutated.
type LedgerEntry struct {
	ProcessKind    string    `json:"process_kind"`
	SourceKind     string    `json:"source_kind"`
	SourceID       string    `json:"source_id"`
	ExtractedCount int       `json:"extracted_count"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// JudgmentVerdict is the outcome of a human review of an extracted task.
type JudgmentVerdict string

const (
	VerdictAccepted JudgmentVerdict = "accepted"
	VerdictRejected JudgmentVerdict = "rejected"
)

// Judgment records a human verdict on an extracted task. Recent judgments
// feed the few-shot section of extraction prompts; judgments with a
// correction are the most instructive examples.
type Judgment struct {
	TaskTitle      string          `json:"task_title"`
	Verdict        JudgmentVerdict `json:"verdict"`
	CorrectedTitle *string         `json:"corrected_title,omitempty"`
	Reason         *string         `json:"reason,omitempty"`
	Created        time.Time       `json:"created,omitempty"`
}
