// Package ipc exposes the daemon on the system D-Bus: a Manager object
// accepting control commands, plus Event/UserStatus/Tamper signals for
// external display and automation.
package ipc

const (
	ServiceName   = "net.fwarner.kidlock"
	ObjectPath    = "/net/fwarner/kidlock"
	InterfaceName = "net.fwarner.kidlock.Manager"

	SignalEvent      = InterfaceName + ".Event"
	SignalUserStatus = InterfaceName + ".UserStatus"
	SignalTamper     = InterfaceName + ".Tamper"
)
