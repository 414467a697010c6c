// Package platform abstracts the OS collaborators the daemon depends on:
// session enumeration, idle and lock state, and session termination.
package platform

// Platform is implemented by the logind backend and by test fakes.
type Platform interface {
	// LoggedInUsers returns the set of usernames with an active user
	// session.
	LoggedInUsers() (map[string]bool, error)

	// IdleSeconds returns how long the user's session has been idle, or
	// 0 when the session is active.
	IdleSeconds(username string) (int, error)

	// SessionLocked reports whether the user's session is locked.
	SessionLocked(username string) (bool, error)

	// TerminateUser ends all sessions for the user, trying a clean
	// method first and a forceful fallback second.
	TerminateUser(username string) error
}
