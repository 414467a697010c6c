package arg

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/fwarner/kidlock/internal/ipc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Run: func(cmd *cobra.Command, args []string) {
		conn, obj, err := daemonObject()
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()

		var result string
		if err := obj.Call(ipc.InterfaceName+".GetStatus", 0).Store(&result); err != nil {
			log.Fatal("Failed to call method:", err)
		}
		fmt.Println(result)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
