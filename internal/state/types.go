package state

import "time"

// UserState tracks enforcement state for a single controlled user.
type UserState struct {
	UsageMinutes   int          `json:"usage_minutes"`
	LastUsageDate  string       `json:"last_usage_date,omitempty"`
	Blocked        bool         `json:"blocked"`
	BlockReason    string       `json:"block_reason"`
	Paused         bool         `json:"paused"`
	PausedAt       *time.Time   `json:"paused_at,omitempty"`
	BonusMinutes   int          `json:"bonus_minutes"`
	WarningsSent   IntSet       `json:"warnings_sent"`
	PendingRequest *TimeRequest `json:"pending_request,omitempty"`

	// IsIdle reflects the most recent idle observation. Runtime only,
	// never persisted.
	IsIdle bool `json:"-"`
}

// TimeRequest is a pending request for extra time, at most one per user.
type TimeRequest struct {
	ID        string    `json:"id"`
	Minutes   int       `json:"minutes"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// File is the top-level structure stored in the state file.
type File struct {
	Users   map[string]*UserState `json:"users"`
	Version int                   `json:"version"`
}
