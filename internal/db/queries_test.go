package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/lifelog/internal/models"
)

func strp(s string) *string { return &s }

func TestCreateAndGetTask(t *testing.T) {
	wipeTables(t)
	ctx := context.Background()

	task, err := testDB.CreateTask(ctx, models.TaskInput{
		Title:      "Rotate TLS certs",
		Confidence: 0.85,
		SourceKind: strp(models.SourceSlack),
		SourceID:   strp("msg-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Rotate TLS certs", task.Title)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, "medium", task.Priority, "missing priority defaults")
	assert.False(t, task.Created.IsZero())

	got, err := testDB.GetTask(ctx, models.MustRecordIDString(task.ID))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.Title, got.Title)

	byTitle, err := testDB.GetTaskByTitle(ctx, "Rotate TLS certs")
	require.NoError(t, err)
	require.NotNil(t, byTitle)
	assert.Equal(t, task.ID, byTitle.ID)

	missing, err := testDB.GetTaskByTitle(ctx, "No such task")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetTaskByTitlePrefersNewest(t *testing.T) {
	wipeTables(t)
	ctx := context.Background()

	older, err := testDB.CreateTask(ctx, models.TaskInput{Title: "Duplicate title"})
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	newer, err := testDB.CreateTask(ctx, models.TaskInput{Title: "Duplicate title"})
	require.NoError(t, err)

	got, err := testDB.GetTaskByTitle(ctx, "Duplicate title")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)
	assert.NotEqual(t, older.ID, got.ID)
}

func TestDependencyEdges(t *testing.T) {
	wipeTables(t)
	ctx := context.Background()

	a, err := testDB.CreateTask(ctx, models.TaskInput{Title: "Deploy service"})
	require.NoError(t, err)
	b, err := testDB.CreateTask(ctx, models.TaskInput{Title: "Fix build"})
	require.NoError(t, err)
	aID := models.MustRecordIDString(a.ID)
	bID := models.MustRecordIDString(b.ID)

	exists, err := testDB.EdgeExists(ctx, aID, bID)
	require.NoError(t, err)
	assert.False(t, exists)

	input := models.DependencyEdgeInput{
		TaskID:      aID,
		DependsOnID: bID,
		RelType:     models.RelationBlocks,
		Confidence:  0.8,
		Reason:      "deploy needs green CI",
		Origin:      models.EdgeOriginAuto,
	}
	require.NoError(t, testDB.CreateDependencyEdge(ctx, input))

	exists, err = testDB.EdgeExists(ctx, aID, bID)
	require.NoError(t, err)
	assert.True(t, exists)

	// Direction matters: the reverse pair does not exist.
	exists, err = testDB.EdgeExists(ctx, bID, aID)
	require.NoError(t, err)
	assert.False(t, exists)

	// The unique pair index rejects a duplicate insert.
	err = testDB.CreateDependencyEdge(ctx, input)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	edges, err := testDB.ListDependencyEdges(ctx, aID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, models.RelationBlocks, edges[0].RelType)
	assert.Equal(t, models.EdgeOriginAuto, edges[0].Origin)
}

func TestExtractionLedger(t *testing.T) {
	wipeTables(t)
	ctx := context.Background()

	done, err := testDB.HasProcessed(ctx, "task", models.SourceSlack, "msg-9")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, testDB.RecordProcessed(ctx, "task", models.SourceSlack, "msg-9", 2))

	done, err = testDB.HasProcessed(ctx, "task", models.SourceSlack, "msg-9")
	require.NoError(t, err)
	assert.True(t, done)

	// The key is the full tuple: other kinds and ids stay unprocessed.
	done, err = testDB.HasProcessed(ctx, "task", models.SourceGitHub, "msg-9")
	require.NoError(t, err)
	assert.False(t, done)
	done, err = testDB.HasProcessed(ctx, "summary", models.SourceSlack, "msg-9")
	require.NoError(t, err)
	assert.False(t, done)

	entry, err := testDB.GetLedgerEntry(ctx, "task", models.SourceSlack, "msg-9")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.ExtractedCount)
	assert.False(t, entry.ProcessedAt.IsZero())

	// Re-recording the same key overwrites instead of failing.
	require.NoError(t, testDB.RecordProcessed(ctx, "task", models.SourceSlack, "msg-9", 5))
	entry, err = testDB.GetLedgerEntry(ctx, "task", models.SourceSlack, "msg-9")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 5, entry.ExtractedCount)
}

func TestJobLifecycle(t *testing.T) {
	wipeTables(t)
	ctx := context.Background()

	job, err := testDB.CreateJob(ctx, "abc12345", "extract-tasks-slack", map[string]string{"since_days": "3"})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.Equal(t, "abc12345", models.MustRecordIDString(job.ID))
	assert.Equal(t, "3", job.Params["since_days"])
	assert.False(t, job.CreatedAt.IsZero())
	assert.Nil(t, job.CompletedAt)

	require.NoError(t, testDB.MarkJobRunning(ctx, "abc12345"))
	got, err := testDB.GetJob(ctx, "abc12345")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, got.Status)

	data := map[string]any{"tasksCreated": 4}
	require.NoError(t, testDB.FinishJob(ctx, "abc12345", models.JobStatusSucceeded, "4 tasks extracted from 4 of 5 candidate messages", data, nil))

	got, err = testDB.GetJob(ctx, "abc12345")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusSucceeded, got.Status)
	assert.Contains(t, got.Summary, "4 tasks extracted")
	require.NotNil(t, got.CompletedAt)
	assert.Nil(t, got.Error)

	missing, err := testDB.GetJob(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFailedJobKeepsError(t *testing.T) {
	wipeTables(t)
	ctx := context.Background()

	_, err := testDB.CreateJob(ctx, "failjob1", "extract-tasks-memos", nil)
	require.NoError(t, err)

	msg := "unknown job kind"
	require.NoError(t, testDB.FinishJob(ctx, "failjob1", models.JobStatusFailed, "", nil, &msg))

	got, err := testDB.GetJob(ctx, "failjob1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, msg, *got.Error)
}

func TestListJobsNewestFirst(t *testing.T) {
	wipeTables(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := testDB.CreateJob(ctx, fmt.Sprintf("job%d", i), "summarize-window", nil)
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	listed, err := testDB.ListJobs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "job2", models.MustRecordIDString(listed[0].ID))
	assert.Equal(t, "job1", models.MustRecordIDString(listed[1].ID))
}

func TestBadgeCounts(t *testing.T) {
	wipeTables(t)
	ctx := context.Background()

	mk := func(title string, kind *string, status string) {
		task, err := testDB.CreateTask(ctx, models.TaskInput{Title: title, SourceKind: kind, SourceID: strp("x")})
		require.NoError(t, err)
		if status != "pending" {
			_, err = testDB.Query(ctx, "UPDATE type::record('task', $id) SET status = $status",
				map[string]any{"id": models.MustRecordIDString(task.ID), "status": status})
			require.NoError(t, err)
		}
	}
	mk("s1", strp(models.SourceSlack), "pending")
	mk("s2", strp(models.SourceSlack), "pending")
	mk("s3", strp(models.SourceSlack), "completed")
	mk("g1", strp(models.SourceGitHub), "pending")
	mk("m1", nil, "pending")

	counts, err := testDB.BadgeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["slack"])
	assert.Equal(t, 1, counts["github"])
	assert.Equal(t, 1, counts["manual"])
}

func TestListResolvedTasks(t *testing.T) {
	wipeTables(t)
	ctx := context.Background()

	_, err := testDB.CreateTask(ctx, models.TaskInput{Title: "Still open"})
	require.NoError(t, err)
	resolved, err := testDB.CreateTask(ctx, models.TaskInput{Title: "Already done"})
	require.NoError(t, err)
	_, err = testDB.Query(ctx, "UPDATE type::record('task', $id) SET status = 'completed'",
		map[string]any{"id": models.MustRecordIDString(resolved.ID)})
	require.NoError(t, err)

	tasks, err := testDB.ListResolvedTasks(ctx, 14, 20)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Already done", tasks[0].Title)
}

func TestJudgments(t *testing.T) {
	wipeTables(t)
	ctx := context.Background()

	require.NoError(t, testDB.CreateJudgment(ctx, models.Judgment{
		TaskTitle:      "Fix loginn",
		Verdict:        models.VerdictAccepted,
		CorrectedTitle: strp("Fix login"),
	}))
	require.NoError(t, testDB.CreateJudgment(ctx, models.Judgment{
		TaskTitle: "Lunch?",
		Verdict:   models.VerdictRejected,
		Reason:    strp("not a task"),
	}))

	accepted, err := testDB.ListJudgments(ctx, models.VerdictAccepted, 10)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	require.NotNil(t, accepted[0].CorrectedTitle)
	assert.Equal(t, "Fix login", *accepted[0].CorrectedTitle)

	rejected, err := testDB.ListJudgments(ctx, models.VerdictRejected, 10)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "Lunch?", rejected[0].TaskTitle)
}

func TestListSourceRecords(t *testing.T) {
	wipeTables(t)
	ctx := context.Background()

	insert := func(table, id, body string, ts time.Time) {
		_, err := testDB.Query(ctx, fmt.Sprintf(`
			CREATE %s CONTENT {
				source_id: $source_id, body: $body, author: "raphael",
				channel: "general", timestamp: $ts
			}
		`, table), map[string]any{"source_id": id, "body": body, "ts": ts})
		require.NoError(t, err)
	}

	now := time.Now().UTC()
	insert("slack_message", "m1", "old message", now.Add(-72*time.Hour))
	insert("slack_message", "m2", "recent message", now.Add(-time.Hour))
	insert("slack_message", "m3", "another recent one", now.Add(-2*time.Hour))
	insert("github_comment", "c1", "a github comment", now.Add(-time.Hour))

	records, err := testDB.ListSourceRecords(ctx, models.SourceSlack, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Oldest first, kind filled in, github rows excluded.
	assert.Equal(t, "m3", records[0].SourceID)
	assert.Equal(t, "m2", records[1].SourceID)
	assert.Equal(t, models.SourceSlack, records[0].Kind)
	assert.Equal(t, "raphael", records[0].Author)

	_, err = testDB.ListSourceRecords(ctx, "pager", now)
	assert.Error(t, err)
}
