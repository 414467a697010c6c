package agent

import "github.com/fwarner/kidlock/internal/state"

// Command is an inbound control request, from the D-Bus service or the
// request directory. An empty User targets every controlled user.
type Command struct {
	Action  string `json:"action"`
	User    string `json:"user,omitempty"`
	Minutes int    `json:"minutes,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// StatusSnapshot is the per-user status published each tick.
type StatusSnapshot struct {
	Active         bool               `json:"active"`
	UsageMinutes   int                `json:"usage_minutes"`
	DailyLimit     int                `json:"daily_limit"`
	Blocked        bool               `json:"blocked"`
	BlockReason    string             `json:"block_reason"`
	TimeRemaining  int                `json:"time_remaining"`
	Status         string             `json:"status"`
	Paused         bool               `json:"paused"`
	BonusMinutes   int                `json:"bonus_minutes"`
	IsIdle         bool               `json:"is_idle"`
	PendingRequest *state.TimeRequest `json:"pending_request,omitempty"`
}

// Publisher receives events and status snapshots for external display and
// automation. Implemented by the D-Bus service and by test fakes.
type Publisher interface {
	PublishEvent(kind, username string, payload map[string]any)
	PublishUserStatus(username string, snapshot StatusSnapshot)
	PublishTamper(tampered bool, message string)
}
