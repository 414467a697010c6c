// Package logingate answers "may this user log in right now" for the PAM
// stack. It reads the state file directly so it works in a short-lived
// process with no daemon running, and it fails open: a missing file, an
// unknown user, or any read or parse error allows the login. It must
// never crash the authentication path.
package logingate

import (
	"encoding/json"
	"os"
)

type userRecord struct {
	Blocked     bool   `json:"blocked"`
	BlockReason string `json:"block_reason"`
}

type stateFile struct {
	Users map[string]userRecord `json:"users"`
}

// CheckLogin returns whether the user may log in, and the block reason
// when denied.
func CheckLogin(statePath, username string) (bool, string) {
	data, err := os.ReadFile(statePath)
	if err != nil {
		return true, ""
	}

	var f stateFile
	if err := json.Unmarshal(data, &f); err != nil {
		return true, ""
	}

	record, ok := f.Users[username]
	if !ok || !record.Blocked {
		return true, ""
	}

	reason := record.BlockReason
	if reason == "" {
		reason = "Access blocked"
	}
	return false, reason
}
