package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var jobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs [id]",
	Short: "List jobs or show one job",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return showJob(cmd, args[0])
		}
		return listJobs(cmd)
	},
}

func init() {
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "maximum jobs to list")
}

func listJobs(cmd *cobra.Command) error {
	jobs, err := apiClient.ListJobs(cmd.Context(), jobsLimit)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs yet.")
		return nil
	}

	fmt.Printf("%-10s %-22s %-10s %-20s %s\n", "ID", "KIND", "STATUS", "CREATED", "SUMMARY")
	for _, j := range jobs {
		summary := j.Summary
		if j.Status == "failed" && j.Error != nil {
			summary = *j.Error
		}
		fmt.Printf("%-10s %-22s %-10s %-20s %s\n",
			j.ID, j.Kind, statusGlyph(j.Status), j.CreatedAt.Local().Format("2006-01-02 15:04:05"), summary)
	}
	return nil
}

func showJob(cmd *cobra.Command, id string) error {
	job, err := apiClient.GetJob(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	fmt.Printf("Job:     %s\n", job.ID)
	fmt.Printf("Kind:    %s\n", job.Kind)
	fmt.Printf("Status:  %s\n", statusGlyph(job.Status))
	fmt.Printf("Created: %s\n", job.CreatedAt.Local().Format(time.RFC1123))
	if job.CompletedAt != nil {
		fmt.Printf("Took:    %s\n", job.CompletedAt.Sub(job.CreatedAt).Round(time.Millisecond))
	}
	if job.Summary != "" {
		fmt.Printf("Summary: %s\n", job.Summary)
	}
	if job.Error != nil {
		fmt.Printf("Error:   %s\n", *job.Error)
	}
	if len(job.Data) > 0 {
		fmt.Println("Data:")
		keys := make([]string, 0, len(job.Data))
		for k := range job.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-15s %v\n", k+":", job.Data[k])
		}
	}
	return nil
}

func statusGlyph(status string) string {
	switch status {
	case "succeeded":
		return "✓ " + status
	case "failed":
		return "✗ " + status
	default:
		return status
	}
}
