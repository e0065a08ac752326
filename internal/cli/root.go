// Package cli provides the command-line interface for lifelog.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/lifelog/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	serverURL string

	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lifelog",
	Short: "Task extraction for your life log",
	Long: `Lifelog watches your Slack messages, GitHub comments and memos and
extracts actionable tasks from them with an LLM. Extraction runs as
background jobs on the lifelog daemon (lifelogd); this CLI enqueues
jobs, inspects results and follows the live event stream.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		apiClient = client.New(serverURL)
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultServer := os.Getenv("LIFELOG_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8585"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "daemon base URL")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(restartCmd)
}
