package platform

import (
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	login1Service = "org.freedesktop.login1"
	login1Path    = "/org/freedesktop/login1"
	managerIface  = "org.freedesktop.login1.Manager"
	sessionIface  = "org.freedesktop.login1.Session"
)

// Logind talks to systemd-logind over the system D-Bus.
type Logind struct {
	conn *dbus.Conn
}

func NewLogind() (*Logind, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return &Logind{conn: conn}, nil
}

func (l *Logind) Close() error {
	return l.conn.Close()
}

// listedSession matches the (susso) tuples returned by
// org.freedesktop.login1.Manager.ListSessions.
type listedSession struct {
	ID   string
	UID  uint32
	User string
	Seat string
	Path dbus.ObjectPath
}

func (l *Logind) listSessions() ([]listedSession, error) {
	obj := l.conn.Object(login1Service, login1Path)

	var sessions []listedSession
	if err := obj.Call(managerIface+".ListSessions", 0).Store(&sessions); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (l *Logind) LoggedInUsers() (map[string]bool, error) {
	sessions, err := l.listSessions()
	if err != nil {
		return nil, err
	}

	users := make(map[string]bool)
	for _, s := range sessions {
		class, err := l.sessionClass(s.Path)
		if err != nil || class != "user" {
			continue
		}
		users[s.User] = true
	}
	return users, nil
}

func (l *Logind) sessionClass(path dbus.ObjectPath) (string, error) {
	obj := l.conn.Object(login1Service, path)
	variant, err := obj.GetProperty(sessionIface + ".Class")
	if err != nil {
		return "", err
	}
	class, ok := variant.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected type for session class")
	}
	return class, nil
}

// SessionPath returns the D-Bus object path of the user's first active
// session.
func (l *Logind) SessionPath(username string) (dbus.ObjectPath, error) {
	sessions, err := l.listSessions()
	if err != nil {
		return "", err
	}
	for _, s := range sessions {
		if s.User == username {
			return s.Path, nil
		}
	}
	return "", fmt.Errorf("no session for user %s", username)
}

func (l *Logind) IdleSeconds(username string) (int, error) {
	path, err := l.SessionPath(username)
	if err != nil {
		return 0, err
	}

	obj := l.conn.Object(login1Service, path)
	hintVariant, err := obj.GetProperty(sessionIface + ".IdleHint")
	if err != nil {
		return 0, fmt.Errorf("failed to get IdleHint: %w", err)
	}
	idle, _ := hintVariant.Value().(bool)
	if !idle {
		return 0, nil
	}

	sinceVariant, err := obj.GetProperty(sessionIface + ".IdleSinceHint")
	if err != nil {
		return 0, fmt.Errorf("failed to get IdleSinceHint: %w", err)
	}
	sinceUsec, _ := sinceVariant.Value().(uint64)
	if sinceUsec == 0 {
		return 0, nil
	}

	since := time.UnixMicro(int64(sinceUsec))
	return int(time.Since(since).Seconds()), nil
}

func (l *Logind) SessionLocked(username string) (bool, error) {
	path, err := l.SessionPath(username)
	if err != nil {
		return false, err
	}

	obj := l.conn.Object(login1Service, path)
	variant, err := obj.GetProperty(sessionIface + ".LockedHint")
	if err != nil {
		return false, fmt.Errorf("failed to get LockedHint from path %s: %w", path, err)
	}
	locked, _ := variant.Value().(bool)
	return locked, nil
}

// SessionLeader returns the PID of the session leader process for the
// user's session. The notifier uses it to locate the session D-Bus.
func (l *Logind) SessionLeader(username string) (int, error) {
	path, err := l.SessionPath(username)
	if err != nil {
		return 0, err
	}

	obj := l.conn.Object(login1Service, path)
	variant, err := obj.GetProperty(sessionIface + ".Leader")
	if err != nil {
		return 0, fmt.Errorf("failed to get Leader property: %w", err)
	}
	pid, _ := variant.Value().(uint32)
	if pid == 0 {
		return 0, fmt.Errorf("session for %s has no leader", username)
	}
	return int(pid), nil
}

// TerminateUser asks logind to end the user's sessions; if that fails it
// falls back to killing all the user's processes.
func (l *Logind) TerminateUser(username string) error {
	sessions, err := l.listSessions()
	if err == nil {
		for _, s := range sessions {
			if s.User != username {
				continue
			}
			obj := l.conn.Object(login1Service, login1Path)
			call := obj.Call(managerIface+".TerminateUser", 0, s.UID)
			if call.Err == nil {
				slog.Info("terminated sessions via logind", "user", username)
				return nil
			}
			err = call.Err
			break
		}
	}
	if err != nil {
		slog.Warn("logind termination failed, falling back to pkill", "user", username, "error", err)
	}

	cmd := exec.Command("pkill", "-KILL", "-u", username)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pkill failed for %s: %w (%s)", username, err, out)
	}
	slog.Info("killed processes via pkill", "user", username)
	return nil
}
