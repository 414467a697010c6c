package agent

import "log/slog"

const defaultRequestMinutes = 15

// Dispatch routes an inbound command to the engine. Unknown actions are
// logged and dropped; a command never crashes the daemon.
func (a *Agent) Dispatch(cmd Command) {
	targets := a.targets(cmd.User)

	switch cmd.Action {
	case "lock":
		for _, username := range targets {
			a.enf.ForceLogout(username, "Remote lock command")
		}

	case "unlock":
		for _, username := range targets {
			a.enf.UnblockUser(username)
		}

	case "pause":
		for _, username := range targets {
			a.enf.SetPaused(username, true)
			a.notifier.PauseChanged(username, true)
			a.bus.PublishEvent("pause_changed", username, map[string]any{"paused": true})
		}

	case "resume":
		for _, username := range targets {
			a.enf.SetPaused(username, false)
			a.notifier.PauseChanged(username, false)
			a.bus.PublishEvent("pause_changed", username, map[string]any{"paused": false})
		}

	case "add_time":
		minutes := cmd.Minutes
		if minutes <= 0 {
			minutes = defaultRequestMinutes
		}
		for _, username := range targets {
			a.enf.AddBonusTime(username, minutes)
			a.notifier.BonusTime(username, minutes)
			a.bus.PublishEvent("bonus_time", username, map[string]any{"minutes": minutes})
		}

	case "request_time":
		if cmd.User == "" {
			slog.Warn("request_time needs a username")
			return
		}
		minutes := cmd.Minutes
		if minutes <= 0 {
			minutes = defaultRequestMinutes
		}
		a.submitTimeRequest(cmd.User, minutes, cmd.Reason)

	case "approve_request":
		for _, username := range targets {
			if minutes, ok := a.enf.ApproveRequest(username); ok {
				a.notifier.RequestApproved(username, minutes)
				a.bus.PublishEvent("request_approved", username, map[string]any{"minutes": minutes})
			}
		}

	case "deny_request":
		for _, username := range targets {
			if a.enf.DenyRequest(username) {
				a.notifier.RequestDenied(username)
				a.bus.PublishEvent("request_denied", username, nil)
			}
		}

	default:
		slog.Warn("unknown command", "action", cmd.Action)
	}
}

// targets resolves a command's scope: one named user, or every controlled
// user when the name is empty.
func (a *Agent) targets(username string) []string {
	if username != "" {
		return []string{username}
	}
	return a.cfg.ControlledUsers()
}
