package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/lifelog/internal/client"
)

var watchHeartbeats bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the daemon's live event stream",
	Long: `Follow the daemon's event stream and print each event as it arrives.
Reconnects automatically when the connection drops.

Examples:
  lifelog watch
  lifelog watch --heartbeats`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchHeartbeats, "heartbeats", false, "also print heartbeat events")
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts := client.StreamOptions{
		OnStateChange: func(s client.StreamState) {
			switch s {
			case client.StateConnected:
				fmt.Println("-- connected --")
			case client.StateBackingOff:
				fmt.Println("-- connection lost, retrying --")
			case client.StateGivenUp:
				fmt.Println("-- giving up --")
			}
		},
	}

	return apiClient.Stream(cmd.Context(), opts, func(ev client.Event) {
		if ev.Kind == "heartbeat" && !watchHeartbeats {
			return
		}
		ts := time.Now().Format("15:04:05")
		if len(ev.Data) == 0 {
			fmt.Printf("%s %s\n", ts, ev.Kind)
			return
		}
		fmt.Printf("%s %-20s %s\n", ts, ev.Kind, ev.Data)
	})
}
