package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/godbus/dbus/v5"

	"github.com/fwarner/kidlock/internal/agent"
)

// Service is the exported D-Bus object. It doubles as the agent's
// Publisher: events and status snapshots go out as signals on the same
// connection. The connection pointer is atomic because Serve stores it
// from its own goroutine while the agent's tick goroutine publishes;
// publishing before Serve has connected is a no-op.
type Service struct {
	agent *agent.Agent
	conn  atomic.Pointer[dbus.Conn]
}

func NewService() *Service {
	return &Service{}
}

// Attach wires the agent in after construction; the agent and the
// service reference each other, so one side has to come second.
func (s *Service) Attach(a *agent.Agent) {
	s.agent = a
}

// Serve claims the service name and exports the command interface until
// the context is cancelled.
func (s *Service) Serve(ctx context.Context) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", ServiceName)
	}

	if err := conn.Export(s, dbus.ObjectPath(ObjectPath), InterfaceName); err != nil {
		return fmt.Errorf("failed to export interface: %w", err)
	}

	s.conn.Store(conn)
	slog.Info("ipc service running", "name", ServiceName)
	<-ctx.Done()
	s.conn.Store(nil)
	return nil
}

// Exported methods. D-Bus integer arguments arrive as int32.

func (s *Service) GetStatus() (string, *dbus.Error) {
	return "Kidlock daemon is running", nil
}

func (s *Service) GetUserStatus(username string) (string, *dbus.Error) {
	snapshot := s.agent.UserStatus(username)
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

func (s *Service) LockUser(username string) *dbus.Error {
	s.agent.Dispatch(agent.Command{Action: "lock", User: username})
	return nil
}

func (s *Service) UnlockUser(username string) *dbus.Error {
	s.agent.Dispatch(agent.Command{Action: "unlock", User: username})
	return nil
}

func (s *Service) PauseUser(username string) *dbus.Error {
	s.agent.Dispatch(agent.Command{Action: "pause", User: username})
	return nil
}

func (s *Service) ResumeUser(username string) *dbus.Error {
	s.agent.Dispatch(agent.Command{Action: "resume", User: username})
	return nil
}

func (s *Service) AddTime(username string, minutes int32) *dbus.Error {
	s.agent.Dispatch(agent.Command{Action: "add_time", User: username, Minutes: int(minutes)})
	return nil
}

func (s *Service) RequestTime(username string, minutes int32, reason string) *dbus.Error {
	s.agent.Dispatch(agent.Command{Action: "request_time", User: username, Minutes: int(minutes), Reason: reason})
	return nil
}

func (s *Service) ApproveRequest(username string) *dbus.Error {
	s.agent.Dispatch(agent.Command{Action: "approve_request", User: username})
	return nil
}

func (s *Service) DenyRequest(username string) *dbus.Error {
	s.agent.Dispatch(agent.Command{Action: "deny_request", User: username})
	return nil
}

// Publisher implementation.

func (s *Service) PublishEvent(kind, username string, payload map[string]any) {
	conn := s.conn.Load()
	if conn == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode event payload", "kind", kind, "error", err)
		return
	}
	if err := conn.Emit(dbus.ObjectPath(ObjectPath), SignalEvent, kind, username, string(data)); err != nil {
		slog.Error("failed to emit event", "kind", kind, "error", err)
	}
}

func (s *Service) PublishUserStatus(username string, snapshot agent.StatusSnapshot) {
	conn := s.conn.Load()
	if conn == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("failed to encode status", "user", username, "error", err)
		return
	}
	if err := conn.Emit(dbus.ObjectPath(ObjectPath), SignalUserStatus, username, string(data)); err != nil {
		slog.Error("failed to emit status", "user", username, "error", err)
	}
}

func (s *Service) PublishTamper(tampered bool, message string) {
	conn := s.conn.Load()
	if conn == nil {
		return
	}
	if err := conn.Emit(dbus.ObjectPath(ObjectPath), SignalTamper, tampered, message); err != nil {
		slog.Error("failed to emit tamper state", "error", err)
	}
}
