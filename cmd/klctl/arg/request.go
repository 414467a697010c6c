package arg

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fwarner/kidlock/internal/ipc"
)

var requestReason string

var requestCmd = &cobra.Command{
	Use:   "request <username> <minutes>",
	Short: "Submit a time request on behalf of a user",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		minutes, err := strconv.Atoi(args[1])
		if err != nil || minutes <= 0 {
			log.Fatalf("invalid minutes value: %s", args[1])
		}

		conn, obj, err := daemonObject()
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()

		if err := obj.Call(ipc.InterfaceName+".RequestTime", 0, args[0], int32(minutes), requestReason).Store(); err != nil {
			log.Fatal("Failed to call method:", err)
		}
		fmt.Printf("Requested %d minutes for user: %s\n", minutes, args[0])
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <username>",
	Short: "Approve a user's pending time request",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conn, obj, err := daemonObject()
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()

		if err := obj.Call(ipc.InterfaceName+".ApproveRequest", 0, args[0]).Store(); err != nil {
			log.Fatal("Failed to call method:", err)
		}
		fmt.Printf("Approved pending request for user: %s\n", args[0])
	},
}

var denyCmd = &cobra.Command{
	Use:   "deny <username>",
	Short: "Deny a user's pending time request",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conn, obj, err := daemonObject()
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()

		if err := obj.Call(ipc.InterfaceName+".DenyRequest", 0, args[0]).Store(); err != nil {
			log.Fatal("Failed to call method:", err)
		}
		fmt.Printf("Denied pending request for user: %s\n", args[0])
	},
}

func init() {
	requestCmd.Flags().StringVarP(&requestReason, "reason", "r", "", "reason for the request")
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(denyCmd)
}
