// Package enforcer owns all per-user enforcement state: daily usage,
// schedule and limit decisions, pausing, bonus grants, warnings and time
// requests. Every mutation is serialized behind one mutex and written
// through to the state file so the login gate and status tools always see
// the latest state.
package enforcer

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fwarner/kidlock/internal/config"
	"github.com/fwarner/kidlock/internal/platform"
	"github.com/fwarner/kidlock/internal/state"
)

// Deny reasons returned by CheckUser. AddBonusTime matches on "limit" to
// decide whether a block was caused by the daily budget.
const (
	ReasonOutsideHours = "Outside allowed hours"
	ReasonDailyLimit   = "Daily time limit reached"
)

// Status of a user as reported to status consumers.
type Status string

const (
	StatusOffline Status = "Offline"
	StatusBlocked Status = "Blocked"
	StatusPaused  Status = "Paused"
	StatusPlaying Status = "Playing"
)

// Enforcer is the enforcement engine. It holds the authoritative user
// state map; the accountant loop and the command path both call into it.
type Enforcer struct {
	mu       sync.Mutex
	users    map[string]*state.UserState
	store    *state.Store
	platform platform.Platform

	loc *time.Location
	now func() time.Time
}

// New loads persisted state from the store. A corrupt or unreadable state
// file degrades to an empty in-memory map rather than failing the daemon.
func New(store *state.Store, p platform.Platform, loc *time.Location) *Enforcer {
	if loc == nil {
		loc = time.Local
	}
	e := &Enforcer{
		users:    make(map[string]*state.UserState),
		store:    store,
		platform: p,
		loc:      loc,
		now:      time.Now,
	}

	f, err := store.Load()
	if err != nil {
		slog.Error("failed to load state, starting empty", "error", err)
		return e
	}
	e.users = f.Users
	slog.Info("loaded state", "users", len(e.users))
	return e
}

func (e *Enforcer) today() string {
	return e.now().In(e.loc).Format("2006-01-02")
}

// user returns the state for username, creating it on first reference.
// Caller must hold e.mu.
func (e *Enforcer) user(username string) *state.UserState {
	u, ok := e.users[username]
	if !ok {
		u = &state.UserState{WarningsSent: state.NewIntSet()}
		e.users[username] = u
	}
	return u
}

// persist writes the state file. Failures are logged and the in-memory
// state stays authoritative. Caller must hold e.mu.
func (e *Enforcer) persist() {
	if err := e.store.Save(&state.File{Users: e.users, Version: 1}); err != nil {
		slog.Error("failed to save state", "error", err)
	}
}

// rolloverIfNeeded resets the day-scoped counters together the first time
// a new date is observed for the user. Blocked, paused and any pending
// request survive the rollover. Caller must hold e.mu; returns whether a
// reset happened.
func (e *Enforcer) rolloverIfNeeded(u *state.UserState) bool {
	today := e.today()
	if u.LastUsageDate == today {
		return false
	}
	u.UsageMinutes = 0
	u.BonusMinutes = 0
	u.WarningsSent = state.NewIntSet()
	u.LastUsageDate = today
	return true
}

// CheckUser decides whether the user is currently permitted: first the
// applicable schedule window, then the daily budget including bonus time.
// A day rollover observed here is persisted immediately.
func (e *Enforcer) CheckUser(username string, policy config.UserPolicy) (bool, string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.user(username)
	if e.rolloverIfNeeded(u) {
		e.persist()
	}

	if !withinSchedule(policy, e.now().In(e.loc)) {
		return false, ReasonOutsideHours
	}

	if limit := policy.Limit(); limit > 0 {
		totalAllowed := limit + u.BonusMinutes
		if u.UsageMinutes >= totalAllowed {
			return false, ReasonDailyLimit
		}
	}

	return true, ""
}

// AddUsage accrues minutes against today's budget. Callers are
// responsible for not accruing while the user is paused or idle.
func (e *Enforcer) AddUsage(username string, minutes int) {
	if minutes < 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.user(username)
	e.rolloverIfNeeded(u)
	u.UsageMinutes += minutes
	e.persist()
	slog.Debug("usage accrued", "user", username, "total_minutes", u.UsageMinutes)
}

// UsageMinutes returns today's accrued minutes without mutating state; a
// stale stored date reads as zero.
func (e *Enforcer) UsageMinutes(username string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.user(username)
	if u.LastUsageDate != e.today() {
		return 0
	}
	return u.UsageMinutes
}

// TimeRemaining returns the minutes left today including bonus time, -1
// when the limit is 0 (unlimited). A stored date other than today counts
// as a fresh day even before the rollover is persisted.
func (e *Enforcer) TimeRemaining(username string, dailyLimit int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeRemaining(e.user(username), dailyLimit)
}

func (e *Enforcer) timeRemaining(u *state.UserState, dailyLimit int) int {
	if dailyLimit <= 0 {
		return -1
	}
	if u.LastUsageDate != e.today() {
		return dailyLimit
	}
	remaining := dailyLimit + u.BonusMinutes - u.UsageMinutes
	if remaining < 0 {
		return 0
	}
	return remaining
}

// WarningsToSend returns the thresholds that are due and not yet
// delivered, in the order the threshold list gives them. It has no side
// effects; callers mark each threshold via MarkWarningSent once the
// notification actually went out.
func (e *Enforcer) WarningsToSend(username string, dailyLimit int, thresholds []int) []int {
	if dailyLimit <= 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.user(username)
	remaining := e.timeRemaining(u, dailyLimit)

	var due []int
	for _, threshold := range thresholds {
		if !u.WarningsSent.Has(threshold) && remaining <= threshold {
			due = append(due, threshold)
		}
	}
	return due
}

func (e *Enforcer) MarkWarningSent(username string, threshold int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.user(username).WarningsSent.Add(threshold)
	e.persist()
}

// SetPaused suspends or resumes accrual. Idempotent; persists only on an
// actual transition.
func (e *Enforcer) SetPaused(username string, paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.user(username)
	if u.Paused == paused {
		return
	}

	u.Paused = paused
	if paused {
		now := e.now()
		u.PausedAt = &now
		slog.Info("paused timer", "user", username)
	} else {
		u.PausedAt = nil
		slog.Info("resumed timer", "user", username)
	}
	e.persist()
}

func (e *Enforcer) IsPaused(username string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.user(username).Paused
}

// CheckPauseAutoResume unpauses the user once the pause has lasted at
// least autoResumeMinutes. Returns whether it resumed; must be polled.
func (e *Enforcer) CheckPauseAutoResume(username string, autoResumeMinutes int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.user(username)
	if !u.Paused || u.PausedAt == nil {
		return false
	}
	if e.now().Sub(*u.PausedAt) < time.Duration(autoResumeMinutes)*time.Minute {
		return false
	}

	u.Paused = false
	u.PausedAt = nil
	e.persist()
	slog.Info("auto-resumed timer", "user", username, "after_minutes", autoResumeMinutes)
	return true
}

// AddBonusTime grants extra budget for today. A block caused by the daily
// limit is lifted implicitly; a manual lock is not.
func (e *Enforcer) AddBonusTime(username string, minutes int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.addBonusTime(username, minutes)
}

func (e *Enforcer) addBonusTime(username string, minutes int) {
	if minutes < 0 {
		return
	}
	u := e.user(username)
	u.BonusMinutes += minutes
	if u.Blocked && strings.Contains(strings.ToLower(u.BlockReason), "limit") {
		u.Blocked = false
		u.BlockReason = ""
	}
	e.persist()
	slog.Info("added bonus time", "user", username, "minutes", minutes, "total_bonus", u.BonusMinutes)
}

func (e *Enforcer) BonusMinutes(username string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.user(username).BonusMinutes
}

// ForceLogout marks the user blocked, persists that, and then attempts to
// terminate the live session. The block always lands first so a failed
// termination still denies the next login.
func (e *Enforcer) ForceLogout(username, reason string) bool {
	slog.Warn("forcing logout", "user", username, "reason", reason)

	e.mu.Lock()
	u := e.user(username)
	u.Blocked = true
	u.BlockReason = reason
	e.persist()
	e.mu.Unlock()

	if err := e.platform.TerminateUser(username); err != nil {
		slog.Error("failed to terminate sessions", "user", username, "error", err)
		return false
	}
	return true
}

func (e *Enforcer) UnblockUser(username string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.user(username)
	if !u.Blocked && u.BlockReason == "" {
		return
	}
	u.Blocked = false
	u.BlockReason = ""
	e.persist()
	slog.Info("unblocked user", "user", username)
}

// SetIdle records the most recent idle observation. Runtime only, never
// persisted.
func (e *Enforcer) SetIdle(username string, idle bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.user(username).IsIdle = idle
}

func (e *Enforcer) IsIdle(username string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.user(username).IsIdle
}

// CreateTimeRequest records a pending time request, replacing any
// existing one. The one-outstanding-request rule is enforced by the
// callers that feed requests in.
func (e *Enforcer) CreateTimeRequest(username string, minutes int, reason string) state.TimeRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	request := state.TimeRequest{
		ID:        uuid.NewString()[:8],
		Minutes:   minutes,
		Reason:    reason,
		CreatedAt: e.now(),
	}
	e.user(username).PendingRequest = &request
	e.persist()
	slog.Info("created time request", "user", username, "minutes", minutes, "id", request.ID)
	return request
}

// PendingRequest returns a copy of the user's pending request, if any.
func (e *Enforcer) PendingRequest(username string) (state.TimeRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	req := e.user(username).PendingRequest
	if req == nil {
		return state.TimeRequest{}, false
	}
	return *req, true
}

func (e *Enforcer) HasPendingRequest(username string) bool {
	_, ok := e.PendingRequest(username)
	return ok
}

// ApproveRequest converts the pending request into bonus time. Returns
// the granted minutes and whether a request existed.
func (e *Enforcer) ApproveRequest(username string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.user(username)
	if u.PendingRequest == nil {
		return 0, false
	}

	minutes := u.PendingRequest.Minutes
	u.PendingRequest = nil
	e.addBonusTime(username, minutes)
	slog.Info("approved time request", "user", username, "minutes", minutes)
	return minutes, true
}

// DenyRequest clears the pending request; returns whether one existed.
func (e *Enforcer) DenyRequest(username string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.user(username)
	if u.PendingRequest == nil {
		return false
	}
	u.PendingRequest = nil
	e.persist()
	slog.Info("denied time request", "user", username)
	return true
}

// UserStatus reports the user's current state for status consumers.
func (e *Enforcer) UserStatus(username string) Status {
	loggedIn := false
	if users, err := e.platform.LoggedInUsers(); err == nil {
		loggedIn = users[username]
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.user(username)
	switch {
	case !loggedIn:
		return StatusOffline
	case u.Blocked:
		return StatusBlocked
	case u.Paused:
		return StatusPaused
	default:
		return StatusPlaying
	}
}

// Snapshot returns a copy of the user's state for publication.
func (e *Enforcer) Snapshot(username string) state.UserState {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.user(username)
	snapshot := *u
	snapshot.WarningsSent = state.NewIntSet()
	for v := range u.WarningsSent {
		snapshot.WarningsSent.Add(v)
	}
	if u.PendingRequest != nil {
		req := *u.PendingRequest
		snapshot.PendingRequest = &req
	}
	return snapshot
}
