package llm

import (
	"encoding/json"
	"strings"

	"github.com/raphaelgruber/lifelog/internal/models"
)

// candidateEnvelope matches the object form of model output, where the
// candidates sit under a "tasks" key.
type candidateEnvelope struct {
	Tasks []models.CandidateTask `json:"tasks"`
}

// DecodeCandidates parses a structured candidate list out of raw model
// output. Most models wrap JSON in a fenced code block; if one is present
// its contents are used, otherwise the whole trimmed output is tried.
// Any decode failure yields an empty list, never an error: a malformed
// model response and zero extractions are the same thing to callers.
func DecodeCandidates(raw string) []models.CandidateTask {
	payload := extractFencedBlock(raw)
	if payload == "" {
		payload = strings.TrimSpace(raw)
	}
	if payload == "" {
		return []models.CandidateTask{}
	}

	var candidates []models.CandidateTask
	if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
		var envelope candidateEnvelope
		if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
			return []models.CandidateTask{}
		}
		candidates = envelope.Tasks
	}
	if candidates == nil {
		return []models.CandidateTask{}
	}

	for i := range candidates {
		candidates[i].Confidence = clamp01(candidates[i].Confidence)
		for j := range candidates[i].DependsOn {
			candidates[i].DependsOn[j].Confidence = clamp01(candidates[i].DependsOn[j].Confidence)
		}
	}
	return candidates
}

// extractFencedBlock returns the contents of the first ``` fenced block,
// or "" when the text has no complete fence. A language tag on the
// opening fence ("```json") is skipped.
func extractFencedBlock(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return ""
	}
	rest := text[start+3:]

	// Drop the language tag line, if any
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine != "" && !strings.HasPrefix(firstLine, "{") && !strings.HasPrefix(firstLine, "[") {
			rest = rest[nl+1:]
		}
	}

	end := strings.Index(rest, "```")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
