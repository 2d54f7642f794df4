package server

import "github.com/prometheus/client_golang/prometheus"

var (
	// RegisteredSessions tracks the current size of the session registry.
	RegisteredSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_registered_sessions",
		Help: "Number of authenticated sessions currently in the registry.",
	})

	// ConnectionsTotal counts every TCP connection the server accepted.
	ConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_connections_total",
		Help: "Lifetime TCP connections accepted.",
	})

	// AuthTotal counts authentication attempts by outcome
	// (ok, rejected, banned, busy, registered).
	AuthTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_auth_total",
		Help: "Authentication attempts by outcome.",
	}, []string{"outcome"})

	// MessagesTotal counts messages processed by type
	// (chat, whisper, broadcast).
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Messages processed by type.",
	}, []string{"type"})

	// BroadcastSendFailures counts per-member delivery failures during
	// broadcasts. Failures are isolated, never fatal to the broadcast.
	BroadcastSendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_broadcast_send_failures_total",
		Help: "Per-member delivery failures during broadcasts.",
	})

	// ModerationTotal counts moderation actions by type
	// (kick, ban, shutdown).
	ModerationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_moderation_total",
		Help: "Moderation actions by type.",
	}, []string{"action"})

	// IdleDisconnects counts sessions closed by the idle reaper.
	IdleDisconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_idle_disconnects_total",
		Help: "Sessions disconnected by the idle reaper.",
	})
)

func init() {
	prometheus.MustRegister(
		RegisteredSessions,
		ConnectionsTotal,
		AuthTotal,
		MessagesTotal,
		BroadcastSendFailures,
		ModerationTotal,
		IdleDisconnects,
	)
}
