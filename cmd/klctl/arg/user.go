package arg

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/fwarner/kidlock/internal/agent"
	"github.com/fwarner/kidlock/internal/ipc"
)

var userCmd = &cobra.Command{
	Use:   "user <username>",
	Short: "Show detailed status for a user",
	Long:  `Display usage, remaining time, block state and any pending time request for a user`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		username := args[0]

		conn, obj, err := daemonObject()
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()

		var jsonResult string
		if err := obj.Call(ipc.InterfaceName+".GetUserStatus", 0, username).Store(&jsonResult); err != nil {
			log.Fatal("Failed to get user status:", err)
		}

		var status agent.StatusSnapshot
		if err := json.Unmarshal([]byte(jsonResult), &status); err != nil {
			log.Fatal("Failed to parse response:", err)
		}

		fmt.Printf("User: %s\n", username)
		fmt.Printf("Status: %s\n", status.Status)
		if status.DailyLimit > 0 {
			fmt.Printf("Used today: %d of %d minutes", status.UsageMinutes, status.DailyLimit)
			if status.BonusMinutes > 0 {
				fmt.Printf(" (+%d bonus)", status.BonusMinutes)
			}
			fmt.Printf("\nRemaining: %d minutes\n", status.TimeRemaining)
		} else {
			fmt.Printf("Used today: %d minutes (no limit)\n", status.UsageMinutes)
		}
		if status.Paused {
			fmt.Println("Timer: paused")
		}
		if status.IsIdle {
			fmt.Println("Session: idle")
		}
		if status.Blocked {
			fmt.Printf("Blocked: %s\n", status.BlockReason)
		}
		if req := status.PendingRequest; req != nil {
			fmt.Printf("Pending request [%s]: %d minutes", req.ID, req.Minutes)
			if req.Reason != "" {
				fmt.Printf(" (%s)", req.Reason)
			}
			fmt.Printf(", created %s\n", req.CreatedAt.Format("2006-01-02 15:04"))
		}
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
}
