// Package agent runs the periodic enforcement loop: it accrues usage for
// logged-in users, applies schedule and limit decisions, emits warnings
// and status snapshots, and dispatches inbound commands.
package agent

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fwarner/kidlock/internal/config"
	"github.com/fwarner/kidlock/internal/enforcer"
	"github.com/fwarner/kidlock/internal/notify"
	"github.com/fwarner/kidlock/internal/platform"
	"github.com/fwarner/kidlock/internal/requestdir"
	"github.com/fwarner/kidlock/internal/tamper"
)

type Agent struct {
	cfg      *config.Config
	enf      *enforcer.Enforcer
	platform platform.Platform
	notifier notify.Notifier
	bus      Publisher
	tamper   *tamper.Detector
	requests *requestdir.Spool

	now func() time.Time

	// lastCheck only advances by whole consumed minutes; the fractional
	// remainder carries into the next tick instead of being dropped.
	lastCheck time.Time

	// mu guards lastLoggedIn: the tick goroutine swaps it while the D-Bus
	// handler goroutine reads it through UserStatus.
	mu           sync.Mutex
	lastLoggedIn map[string]bool

	tamperDetected bool
}

func New(
	cfg *config.Config,
	enf *enforcer.Enforcer,
	p platform.Platform,
	notifier notify.Notifier,
	bus Publisher,
	detector *tamper.Detector,
	requests *requestdir.Spool,
) *Agent {
	return &Agent{
		cfg:          cfg,
		enf:          enf,
		platform:     p,
		notifier:     notifier,
		bus:          bus,
		tamper:       detector,
		requests:     requests,
		now:          time.Now,
		lastLoggedIn: make(map[string]bool),
	}
}

// Run drives the enforcement loop until the context is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	interval := time.Duration(a.cfg.Agent.PollInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.lastCheck = a.now()
	slog.Info("agent running", "interval", interval, "users", a.cfg.ControlledUsers())

	a.Tick()
	for {
		select {
		case <-ctx.Done():
			slog.Info("agent shutting down")
			return nil
		case <-ticker.C:
			a.Tick()
		}
	}
}

// Tick performs one full pass: tamper check, enforcement, usage
// accounting, and the request spool.
func (a *Agent) Tick() {
	if a.cfg.Agent.TamperDetection {
		a.checkTamper()
	}
	a.checkAndEnforce()
	a.accountUsage()
	a.checkFileRequests()
}

// checkTamper polls the detector and publishes edge-triggered tamper
// state transitions.
func (a *Agent) checkTamper() {
	tampered, msg := a.tamper.Check()
	if tampered && !a.tamperDetected {
		slog.Warn("clock tamper detected", "message", msg)
		a.bus.PublishEvent("clock_tamper", "system", map[string]any{"message": msg})
		a.bus.PublishTamper(true, msg)
		a.tamperDetected = true
	} else if !tampered && a.tamperDetected {
		a.bus.PublishTamper(false, "")
		a.tamperDetected = false
	}
}

// checkAndEnforce evaluates every controlled user: login/logout edges,
// pause auto-resume, the allow decision with forced logout, warnings, and
// the status snapshot.
func (a *Agent) checkAndEnforce() {
	loggedIn, err := a.platform.LoggedInUsers()
	if err != nil {
		slog.Error("failed to list logged-in users", "error", err)
		loggedIn = map[string]bool{}
	}

	// swap the map first so published status snapshots see current logins
	a.mu.Lock()
	prev := a.lastLoggedIn
	a.lastLoggedIn = loggedIn
	a.mu.Unlock()

	for _, username := range a.cfg.ControlledUsers() {
		policy := a.cfg.Users[username]
		isLoggedIn := loggedIn[username]
		wasLoggedIn := prev[username]

		if isLoggedIn && !wasLoggedIn {
			slog.Info("user logged in", "user", username)
			a.bus.PublishEvent("login", username, nil)
		} else if !isLoggedIn && wasLoggedIn {
			slog.Info("user logged out", "user", username)
			a.bus.PublishEvent("logout", username, nil)
		}

		if a.enf.IsPaused(username) {
			if a.enf.CheckPauseAutoResume(username, a.cfg.Agent.PauseAutoResumeMinutes) {
				a.notifier.PauseChanged(username, false)
				a.bus.PublishEvent("pause_changed", username, map[string]any{"paused": false, "auto": true})
			}
		}

		allowed, reason := a.enf.CheckUser(username, policy)

		if isLoggedIn {
			if !allowed {
				a.notifier.TimeWarning(username, 0)
				a.bus.PublishEvent("time_exhausted", username, nil)
				a.enf.ForceLogout(username, reason)
			} else {
				a.clearTimeBasedBlock(username)
				a.sendWarnings(username, policy)
			}
		}

		a.bus.PublishUserStatus(username, a.UserStatus(username))
	}
}

// clearTimeBasedBlock lifts a block that was caused by schedule or limit
// enforcement once the user is allowed again. Manual locks stay until an
// explicit unlock command.
func (a *Agent) clearTimeBasedBlock(username string) {
	snapshot := a.enf.Snapshot(username)
	if !snapshot.Blocked {
		return
	}
	reason := strings.ToLower(snapshot.BlockReason)
	if strings.Contains(reason, "limit") || strings.Contains(reason, "hours") {
		a.enf.UnblockUser(username)
	}
}

// sendWarnings delivers due threshold warnings and marks each one sent
// only after delivery succeeded.
func (a *Agent) sendWarnings(username string, policy config.UserPolicy) {
	limit := policy.Limit()
	if limit <= 0 {
		return
	}

	for _, threshold := range a.enf.WarningsToSend(username, limit, policy.Warnings) {
		remaining := a.enf.TimeRemaining(username, limit)
		if err := a.notifier.TimeWarning(username, remaining); err != nil {
			slog.Warn("failed to deliver time warning", "user", username, "error", err)
			continue
		}
		a.enf.MarkWarningSent(username, threshold)
		a.bus.PublishEvent("time_warning", username, map[string]any{
			"minutes_remaining": remaining,
			"threshold":         threshold,
		})
		slog.Info("sent time warning", "user", username, "threshold", threshold)
	}
}

// accountUsage accrues elapsed whole minutes for each logged-in,
// unpaused, non-idle user.
func (a *Agent) accountUsage() {
	now := a.now()
	elapsed := int(now.Sub(a.lastCheck) / time.Minute)
	if elapsed < 1 {
		return
	}
	a.lastCheck = a.lastCheck.Add(time.Duration(elapsed) * time.Minute)

	loggedIn, err := a.platform.LoggedInUsers()
	if err != nil {
		slog.Error("failed to list logged-in users", "error", err)
		return
	}

	idleThresholdSecs := a.cfg.Agent.IdleThresholdMinutes * 60
	for _, username := range a.cfg.ControlledUsers() {
		if !loggedIn[username] || a.enf.IsPaused(username) {
			continue
		}

		if idleThresholdSecs > 0 {
			idleSecs, idleErr := a.platform.IdleSeconds(username)
			locked, lockErr := a.platform.SessionLocked(username)
			if idleErr == nil && lockErr == nil && (idleSecs >= idleThresholdSecs || locked) {
				a.enf.SetIdle(username, true)
				continue
			}
			a.enf.SetIdle(username, false)
		}

		a.enf.AddUsage(username, elapsed)
	}
}

// checkFileRequests consumes spooled time requests from the tray.
func (a *Agent) checkFileRequests() {
	if a.requests == nil {
		return
	}
	for _, req := range a.requests.Consume() {
		if _, controlled := a.cfg.Users[req.Username]; !controlled {
			slog.Warn("time request for uncontrolled user", "user", req.Username)
			continue
		}
		if a.enf.HasPendingRequest(req.Username) {
			continue
		}
		a.submitTimeRequest(req.Username, req.Minutes, req.Reason)
		slog.Info("processed file request", "user", req.Username, "minutes", req.Minutes)
	}
}

func (a *Agent) submitTimeRequest(username string, minutes int, reason string) {
	request := a.enf.CreateTimeRequest(username, minutes, reason)
	a.notifier.RequestSubmitted(username)
	a.bus.PublishEvent("time_request", username, map[string]any{
		"request_id": request.ID,
		"minutes":    minutes,
		"reason":     reason,
	})
}

// UserStatus builds the published snapshot for one user.
func (a *Agent) UserStatus(username string) StatusSnapshot {
	policy := a.cfg.Users[username]
	snapshot := a.enf.Snapshot(username)

	a.mu.Lock()
	loggedIn := a.lastLoggedIn[username]
	a.mu.Unlock()

	limit := policy.Limit()
	status := StatusSnapshot{
		Active:        loggedIn && !snapshot.Blocked,
		UsageMinutes:  a.enf.UsageMinutes(username),
		DailyLimit:    limit,
		Blocked:       snapshot.Blocked,
		BlockReason:   snapshot.BlockReason,
		TimeRemaining: a.enf.TimeRemaining(username, limit),
		Status:        string(a.enf.UserStatus(username)),
		Paused:        snapshot.Paused,
		BonusMinutes:  snapshot.BonusMinutes,
		IsIdle:        snapshot.IsIdle,
	}
	if snapshot.PendingRequest != nil {
		req := *snapshot.PendingRequest
		status.PendingRequest = &req
	}
	return status
}
