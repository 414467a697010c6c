package arg

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/fwarner/kidlock/internal/ipc"
)

var lockCmd = &cobra.Command{
	Use:   "lock <username>",
	Short: "Force logout a user and block further logins",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conn, obj, err := daemonObject()
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()

		if err := obj.Call(ipc.InterfaceName+".LockUser", 0, args[0]).Store(); err != nil {
			log.Fatal("Failed to call method:", err)
		}
		fmt.Printf("Locked user: %s\n", args[0])
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock <username>",
	Short: "Unblock a user so they can log in again",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conn, obj, err := daemonObject()
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()

		if err := obj.Call(ipc.InterfaceName+".UnlockUser", 0, args[0]).Store(); err != nil {
			log.Fatal("Failed to call method:", err)
		}
		fmt.Printf("Unlocked user: %s\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
}
