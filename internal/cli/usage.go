package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show rate budget usage",
	Long: `Show how much of the configured LLM rate budget is currently used,
per rolling window.

Examples:
  lifelog usage`,
	Args: cobra.NoArgs,
	RunE: runUsage,
}

func runUsage(cmd *cobra.Command, args []string) error {
	usage, err := apiClient.Usage(cmd.Context())
	if err != nil {
		return fmt.Errorf("get usage: %w", err)
	}

	if !usage.Enabled {
		fmt.Println("Rate budget tracking is disabled.")
		return nil
	}

	fmt.Printf("%-8s %16s %18s\n", "WINDOW", "REQUESTS", "TOKENS")
	for _, w := range usage.Windows {
		fmt.Printf("%-8s %10d/%d (%3.0f%%) %12d/%d (%3.0f%%)\n",
			w.Kind,
			w.Requests, w.RequestLimit, w.RequestPercent,
			w.Tokens, w.TokenLimit, w.TokenPercent)
	}
	return nil
}
