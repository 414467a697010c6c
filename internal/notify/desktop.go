package notify

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/fwarner/kidlock/internal/platform"
)

// Desktop sends notifications over each user's session bus, located via
// the logind session leader's environment.
type Desktop struct {
	logind *platform.Logind
}

func NewDesktop(logind *platform.Logind) *Desktop {
	return &Desktop{logind: logind}
}

func (d *Desktop) TimeWarning(username string, minutesRemaining int) error {
	title, body := timeWarningText(minutesRemaining)
	return d.send(username, title, body, "dialog-warning")
}

func (d *Desktop) PauseChanged(username string, paused bool) error {
	if paused {
		return d.send(username, "Timer Paused", "Your screen time timer has been paused.", "media-playback-pause")
	}
	return d.send(username, "Timer Resumed", "Your screen time timer is now running.", "media-playback-start")
}

func (d *Desktop) BonusTime(username string, minutes int) error {
	body := fmt.Sprintf("You've been given %d extra minutes of screen time!", minutes)
	return d.send(username, "Bonus Time!", body, "dialog-information")
}

func (d *Desktop) RequestSubmitted(username string) error {
	return d.send(username, "Request Sent", "Your request for more time has been sent to your parent.", "dialog-information")
}

func (d *Desktop) RequestApproved(username string, minutes int) error {
	body := fmt.Sprintf("Your request was approved! You got %d extra minutes.", minutes)
	return d.send(username, "Request Approved!", body, "dialog-information")
}

func (d *Desktop) RequestDenied(username string) error {
	return d.send(username, "Request Denied", "Your request for more time was denied.", "dialog-warning")
}

// send connects to the user's session bus and posts a notification via
// org.freedesktop.Notifications.
func (d *Desktop) send(username, summary, body, icon string) error {
	busAddr, err := d.sessionBusAddress(username)
	if err != nil {
		return fmt.Errorf("failed to get session bus address: %w", err)
	}

	userConn, err := dbus.Dial(busAddr)
	if err != nil {
		return fmt.Errorf("failed to connect to user session bus: %w", err)
	}
	defer userConn.Close()

	if err := userConn.Auth(nil); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	if err := userConn.Hello(); err != nil {
		return fmt.Errorf("failed to send hello: %w", err)
	}

	obj := userConn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		"Kidlock",  // app_name
		uint32(0),  // replaces_id
		icon,       // app_icon
		summary,    // summary
		body,       // body
		[]string{}, // actions
		map[string]dbus.Variant{
			"urgency": dbus.MakeVariant(byte(1)),
		},
		int32(10000), // expire_timeout
	)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}

	slog.Debug("sent notification", "user", username, "summary", summary)
	return nil
}

// sessionBusAddress finds DBUS_SESSION_BUS_ADDRESS for the user by
// reading the session leader's /proc environment.
func (d *Desktop) sessionBusAddress(username string) (string, error) {
	pid, err := d.logind.SessionLeader(username)
	if err != nil {
		return "", err
	}

	busAddr, err := envFromProc(pid, "DBUS_SESSION_BUS_ADDRESS")
	if err != nil {
		return "", fmt.Errorf("failed to get session bus address from process: %w", err)
	}
	return busAddr, nil
}
