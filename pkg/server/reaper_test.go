package server

import (
	"testing"
	"time"

	"github.com/X-Magic-X/console-network-chat/pkg/directory"
	"github.com/X-Magic-X/console-network-chat/pkg/model"
)

func TestReapDisconnectsIdleSessions(t *testing.T) {
	dir := directory.NewMemory()
	mustCreate(t, dir, "alice", "password1", "alice", model.RoleUser)
	mustCreate(t, dir, "bob", "password1", "bob", model.RoleUser)
	srv := newTestServer(dir)

	alice := authClient(t, srv, "alice", "password1", "alice")
	bob := authClient(t, srv, "bob", "password1", "bob")

	reaper := NewIdleReaper(srv.Registry(), time.Minute, 20*time.Minute)

	// Nobody over the threshold yet.
	reaper.reap()
	if srv.Registry().Len() != 2 {
		t.Fatalf("registry size = %d after no-op reap, want 2", srv.Registry().Len())
	}

	// Age alice past the threshold without touching bob.
	alice.sess.lastActivity.Store(time.Now().Add(-21 * time.Minute).UnixNano())
	reaper.reap()

	bob.waitFor(t, "alice was disconnected for inactivity")
	alice.waitFor(t, "/kickok inactivity")
	alice.waitClosed(t)

	if srv.Registry().IsUsernameBusy("alice") {
		t.Error("idle session still in registry")
	}
	if !srv.Registry().IsUsernameBusy("bob") {
		t.Error("active session was reaped")
	}
}

func TestReaperStartStop(t *testing.T) {
	reaper := NewIdleReaper(NewRegistry(), 10*time.Millisecond, time.Hour)
	reaper.Start()

	reaper.Stop()
	reaper.Stop() // must be safe to repeat

	done := make(chan struct{})
	go func() {
		reaper.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("reaper did not stop")
	}
}

func TestReaperLoopReaps(t *testing.T) {
	dir := directory.NewMemory()
	mustCreate(t, dir, "alice", "password1", "alice", model.RoleUser)
	srv := newTestServer(dir)

	alice := authClient(t, srv, "alice", "password1", "alice")
	alice.sess.lastActivity.Store(time.Now().Add(-time.Hour).UnixNano())

	reaper := NewIdleReaper(srv.Registry(), 10*time.Millisecond, 20*time.Minute)
	reaper.Start()
	defer func() {
		reaper.Stop()
		reaper.Wait()
	}()

	alice.waitFor(t, "/kickok inactivity")
	alice.waitClosed(t)
}
