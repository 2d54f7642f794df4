package server

import (
	"log/slog"
	"time"

	"github.com/X-Magic-X/console-network-chat/pkg/rbac"
)

// Kick force-disconnects a connected user on behalf of an admin.
func (s *Server) Kick(admin *Session, target, reason string) {
	if msg := rbac.RequirePermission(admin.Role(), rbac.PermKick); msg != "" {
		_ = admin.SendSystem(msg)
		return
	}
	victim, ok := s.registry.Find(target)
	if !ok {
		_ = admin.SendSystem("user " + target + " not found")
		return
	}
	if victim == admin {
		_ = admin.SendSystem("you cannot kick yourself")
		return
	}

	ModerationTotal.WithLabelValues("kick").Inc()
	s.registry.Broadcast("user " + target + " was disconnected by administrator " + admin.Username())
	_ = victim.SendSystem("/kickok " + reason)
	victim.Terminate()
	slog.Info("user kicked", "target", target, "by", admin.Username(), "reason", reason)
}

// Ban records a ban in the account directory and kicks the target if
// connected. A zero duration bans permanently. The ban is enforced at
// the next authentication attempt.
func (s *Server) Ban(admin *Session, target string, duration time.Duration, reason string) {
	if msg := rbac.RequirePermission(admin.Role(), rbac.PermBan); msg != "" {
		_ = admin.SendSystem(msg)
		return
	}
	if target == admin.Username() {
		_ = admin.SendSystem("you cannot ban yourself")
		return
	}

	found, err := s.directory.RecordBan(admin.UserID(), target, reason, duration)
	if err != nil {
		slog.Error("record ban failed", "target", target, "err", err)
		_ = admin.SendSystem("error: could not record ban")
		return
	}
	if !found {
		_ = admin.SendSystem("user " + target + " not found")
		return
	}

	ModerationTotal.WithLabelValues("ban").Inc()
	s.registry.Broadcast("user " + target + " was banned by administrator " + admin.Username())
	if victim, ok := s.registry.Find(target); ok {
		_ = victim.SendSystem("/kickok " + reason)
		victim.Terminate()
	}
	slog.Info("user banned", "target", target, "by", admin.Username(),
		"reason", reason, "duration", duration)
}

// Shutdown stops the whole server on behalf of an admin: a notice goes
// out to everyone, every session is terminated, and the listener closes.
func (s *Server) Shutdown(admin *Session) {
	if msg := rbac.RequirePermission(admin.Role(), rbac.PermShutdown); msg != "" {
		_ = admin.SendSystem(msg)
		return
	}
	ModerationTotal.WithLabelValues("shutdown").Inc()
	slog.Info("shutdown requested", "by", admin.Username())
	s.drainSessions()
	s.Stop()
}

// drainSessions notifies and terminates every live session.
func (s *Server) drainSessions() {
	s.registry.Broadcast("server is shutting down")
	s.reaper.Stop()
	for _, member := range s.registry.Snapshot() {
		_ = member.SendSystem("/exitok")
		member.Terminate()
	}
}
