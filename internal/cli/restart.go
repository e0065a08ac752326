package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var restartToken string

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Ask the daemon to restart",
	Long: `Ask the daemon to exit so its process supervisor restarts it. Requires
the admin token configured on the daemon (LIFELOG_ADMIN_TOKEN).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token := restartToken
		if token == "" {
			token = os.Getenv("LIFELOG_ADMIN_TOKEN")
		}
		if token == "" {
			return fmt.Errorf("no admin token given (use --token or LIFELOG_ADMIN_TOKEN)")
		}
		if err := apiClient.Restart(cmd.Context(), token); err != nil {
			return fmt.Errorf("restart: %w", err)
		}
		fmt.Println("Daemon is restarting.")
		return nil
	},
}

func init() {
	restartCmd.Flags().StringVar(&restartToken, "token", "", "admin token")
}
