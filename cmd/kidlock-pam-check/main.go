// kidlock-pam-check is invoked by the PAM stack during login. It exits 0
// when the named user may log in and 1 otherwise, printing the block
// reason on stderr for the login prompt. It reads the state file directly
// and never requires the daemon to be running.
package main

import (
	"fmt"
	"os"

	"github.com/fwarner/kidlock/internal/config"
	"github.com/fwarner/kidlock/internal/logingate"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: kidlock-pam-check <username>")
		os.Exit(1)
	}

	statePath := config.DefaultStateFile
	if env := os.Getenv("KIDLOCK_STATE_FILE"); env != "" {
		statePath = env
	}

	allowed, reason := logingate.CheckLogin(statePath, os.Args[1])
	if !allowed {
		fmt.Fprintf(os.Stderr, "Kidlock: %s\n", reason)
		os.Exit(1)
	}
}
