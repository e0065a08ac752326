package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	extractSinceDays int
	extractWait      bool
)

// sourceKinds maps the CLI argument to a job kind.
var sourceJobKinds = map[string]string{
	"slack":  "extract-tasks-slack",
	"github": "extract-tasks-github",
	"memos":  "extract-tasks-memos",
}

var extractCmd = &cobra.Command{
	Use:   "extract <slack|github|memos>",
	Short: "Enqueue a task extraction job for one source",
	Long: `Enqueue a task extraction job. The daemon scans recent records of the
given source, skips those already processed, and extracts tasks from
the rest.

Examples:
  lifelog extract slack
  lifelog extract github --since-days 7 --wait`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVar(&extractSinceDays, "since-days", 3, "how many days back to scan")
	extractCmd.Flags().BoolVarP(&extractWait, "wait", "w", false, "wait for the job to finish")
}

func runExtract(cmd *cobra.Command, args []string) error {
	kind, ok := sourceJobKinds[args[0]]
	if !ok {
		return fmt.Errorf("unknown source %q (want slack, github or memos)", args[0])
	}

	job, err := apiClient.EnqueueJob(cmd.Context(), kind, map[string]string{
		"since_days": strconv.Itoa(extractSinceDays),
	})
	if err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}

	if !extractWait {
		fmt.Printf("Job %s enqueued. Use 'lifelog jobs %s' to check status.\n", job.ID, job.ID)
		return nil
	}
	return RunJobProgress(apiClient, job)
}

var summarizeDays int

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Enqueue a digest of recent tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := apiClient.EnqueueJob(cmd.Context(), "summarize-window", map[string]string{
			"days": strconv.Itoa(summarizeDays),
		})
		if err != nil {
			return fmt.Errorf("enqueue job: %w", err)
		}
		return RunJobProgress(apiClient, job)
	},
}

func init() {
	summarizeCmd.Flags().IntVar(&summarizeDays, "days", 7, "how many days the digest covers")
}
