package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCandidatesFencedBlock(t *testing.T) {
	raw := "Here are the tasks I found:\n" +
		"```json\n" +
		`[{"title": "Review PR 42", "priority": "high", "confidence": 0.9}]` + "\n" +
		"```\n" +
		"Let me know if you need more."

	candidates := DecodeCandidates(raw)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Review PR 42", candidates[0].Title)
	assert.Equal(t, "high", candidates[0].Priority)
	assert.InDelta(t, 0.9, candidates[0].Confidence, 0.001)
}

func TestDecodeCandidatesBareArray(t *testing.T) {
	raw := `[{"title": "Pay rent", "confidence": 0.8}, {"title": "Call dentist", "confidence": 0.7}]`

	candidates := DecodeCandidates(raw)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Pay rent", candidates[0].Title)
	assert.Equal(t, "Call dentist", candidates[1].Title)
}

func TestDecodeCandidatesTasksEnvelope(t *testing.T) {
	raw := "```\n" + `{"tasks": [{"title": "Write report", "confidence": 0.6}]}` + "\n```"

	candidates := DecodeCandidates(raw)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Write report", candidates[0].Title)
}

func TestDecodeCandidatesFenceWithoutLanguageTag(t *testing.T) {
	raw := "```\n[{\"title\": \"Fix the build\", \"confidence\": 1}]\n```"

	candidates := DecodeCandidates(raw)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Fix the build", candidates[0].Title)
}

func TestDecodeCandidatesNeverErrors(t *testing.T) {
	// Malformed output of any shape must yield an empty list, not a
	// failure that would abort the batch.
	cases := map[string]string{
		"empty":            "",
		"prose only":       "I could not find any tasks in this message.",
		"truncated json":   `[{"title": "Pay re`,
		"object not array": `{"title": "Pay rent"}`,
		"unclosed fence":   "```json\n[{\"title\": \"x\"}]",
		"wrong envelope":   `{"items": [{"title": "x"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, DecodeCandidates(raw))
		})
	}
}

func TestDecodeCandidatesClampsConfidence(t *testing.T) {
	raw := `[{"title": "a", "confidence": 1.7}, {"title": "b", "confidence": -0.2}]`

	candidates := DecodeCandidates(raw)
	require.Len(t, candidates, 2)
	assert.Equal(t, 1.0, candidates[0].Confidence)
	assert.Equal(t, 0.0, candidates[1].Confidence)
}

func TestDecodeCandidatesDependencyHints(t *testing.T) {
	raw := "```json\n" + `[
		{"title": "Deploy service", "confidence": 0.9,
		 "depends_on": [{"relation_type": "blocks", "referenced_title": "Fix the build", "reason": "deploy needs green CI", "confidence": 0.8}]}
	]` + "\n```"

	candidates := DecodeCandidates(raw)
	require.Len(t, candidates, 1)
	require.Len(t, candidates[0].DependsOn, 1)
	hint := candidates[0].DependsOn[0]
	assert.Equal(t, "blocks", hint.RelationType)
	assert.Equal(t, "Fix the build", hint.ReferencedTitle)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 1, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 25, EstimateTokens(string(make([]byte, 100))))
}
