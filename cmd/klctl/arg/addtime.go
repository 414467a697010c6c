package arg

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fwarner/kidlock/internal/ipc"
)

var addTimeCmd = &cobra.Command{
	Use:   "add-time <username> <minutes>",
	Short: "Grant bonus screen time for today",
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

		if err := obj.Call(ipc.InterfaceName+".AddTime", 0, args[0], int32(minutes)).Store(); err != nil {
			log.Fatal("Failed to call method:", err)
		}
		fmt.Printf("Added %d bonus minutes for user: %s\n", minutes, args[0])
	},
}

func init() {
	rootCmd.AddCommand(addTimeCmd)
}
