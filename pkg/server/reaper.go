package server

import (
	"log/slog"
	"sync"
	"time"
)

// IdleReaper periodically scans the registry and force-disconnects
// sessions that have been silent past the threshold. Termination goes
// through the session's idempotent teardown, so racing against a client
// that leaves on its own is harmless.
type IdleReaper struct {
	registry  *Registry
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewIdleReaper creates a reaper scanning every interval for sessions
// idle longer than threshold.
func NewIdleReaper(reg *Registry, interval, threshold time.Duration) *IdleReaper {
	return &IdleReaper{
		registry:  reg,
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the background scan loop.
func (r *IdleReaper) Start() {
	go r.run()
}

// Stop signals the loop to exit. Safe to call more than once.
func (r *IdleReaper) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Wait blocks until the loop has exited. Only valid after Start.
func (r *IdleReaper) Wait() {
	<-r.doneCh
}

func (r *IdleReaper) run() {
	defer close(r.doneCh)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.reap()
		case <-r.stopCh:
			return
		}
	}
}

func (r *IdleReaper) reap() {
	now := r.now()
	for _, member := range r.registry.Snapshot() {
		if now.Sub(member.LastActivity()) <= r.threshold {
			continue
		}
		name := member.Username()
		r.registry.Broadcast(name + " was disconnected for inactivity")
		_ = member.SendSystem("/kickok inactivity")
		member.Terminate()
		IdleDisconnects.Inc()
		slog.Info("idle session disconnected", "username", name)
	}
}
