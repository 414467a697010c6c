package arg

import (
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/fwarner/kidlock/internal/ipc"
)

var rootCmd = &cobra.Command{
	Use:   "klctl",
	Short: "klctl is the command line tool for the Kidlock daemon",
	Long: `klctl talks to the Kidlock daemon over D-Bus. Use it to inspect
user status, pause or resume timers, lock or unlock users, grant bonus
time, and manage time requests.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// daemonObject connects to the system bus and returns the daemon's
// Manager object.
func daemonObject() (*dbus.Conn, dbus.BusObject, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return conn, conn.Object(ipc.ServiceName, dbus.ObjectPath(ipc.ObjectPath)), nil
}
