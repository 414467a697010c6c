package arg

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/fwarner/kidlock/internal/ipc"
)

var pauseCmd = &cobra.Command{
	Use:     "pause <username>",
	Aliases: []string{"p"},
	Short:   "Pause the screen time timer for a user",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conn, obj, err := daemonObject()
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()

		if err := obj.Call(ipc.InterfaceName+".PauseUser", 0, args[0]).Store(); err != nil {
			log.Fatal("Failed to call method:", err)
		}
		fmt.Printf("Timer paused for user: %s\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd)
}
