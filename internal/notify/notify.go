// Package notify delivers desktop notifications to controlled users.
package notify

import "fmt"

// Notifier is implemented by the desktop backend and by test fakes. Each
// method returns an error when delivery failed; callers use that to avoid
// marking warnings as sent.
type Notifier interface {
	TimeWarning(username string, minutesRemaining int) error
	PauseChanged(username string, paused bool) error
	BonusTime(username string, minutes int) error
	RequestSubmitted(username string) error
	RequestApproved(username string, minutes int) error
	RequestDenied(username string) error
}

func timeWarningText(minutesRemaining int) (string, string) {
	switch {
	case minutesRemaining <= 0:
		return "Time's Up!", "Your screen time is up. Logging out now..."
	case minutesRemaining == 1:
		return "1 Minute Left!", "Time to save your work!"
	case minutesRemaining <= 5:
		return fmt.Sprintf("%d Minutes Left", minutesRemaining), "Almost out of time - save your work!"
	default:
		return fmt.Sprintf("%d Minutes Left", minutesRemaining),
			fmt.Sprintf("You have %d minutes of screen time remaining.", minutesRemaining)
	}
}
