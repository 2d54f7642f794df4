package server

import (
	"errors"
	"sort"
	"sync"
)

// ErrDuplicateUsername is returned by Add when a live session already
// holds the username. The account directory guarantees uniqueness
// upstream, so hitting this means two sessions raced the same account.
var ErrDuplicateUsername = errors.New("server: username already connected")

// Registry is the authoritative set of authenticated, live sessions,
// keyed by username. All operations are safe under concurrent callers;
// broadcasts work on a point-in-time snapshot so membership changes
// mid-broadcast never fail the broadcaster.
type Registry struct {
	mu      sync.RWMutex
	members map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{members: make(map[string]*Session)}
}

// Add registers a session under its username.
func (r *Registry) Add(s *Session) error {
	name := s.Username()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.members[name]; exists {
		return ErrDuplicateUsername
	}
	r.members[name] = s
	RegisteredSessions.Set(float64(len(r.members)))
	return nil
}

// Remove drops a session from the registry. It is an idempotent no-op
// when the session is not present.
func (r *Registry) Remove(s *Session) {
	name := s.Username()
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.members[name]; ok && current == s {
		delete(r.members, name)
		RegisteredSessions.Set(float64(len(r.members)))
	}
}

// Find returns the session holding the username, if any.
func (r *Registry) Find(username string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.members[username]
	return s, ok
}

// IsUsernameBusy reports whether a live session holds the username.
func (r *Registry) IsUsernameBusy(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[username]
	return ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Snapshot returns a point-in-time copy of the member set.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]*Session, 0, len(r.members))
	for _, s := range r.members {
		members = append(members, s)
	}
	return members
}

// SnapshotUsernames returns the sorted usernames of all members.
func (r *Registry) SnapshotUsernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.members))
	for name := range r.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Broadcast delivers text as a timestamped display line to a snapshot of
// members. Delivery failures to individual members are isolated: one
// broken peer never blocks or fails the broadcast for the others.
func (r *Registry) Broadcast(text string) {
	for _, member := range r.Snapshot() {
		if err := member.SendDisplay(text); err != nil {
			BroadcastSendFailures.Inc()
		}
	}
	MessagesTotal.WithLabelValues("broadcast").Inc()
}

// Rename atomically moves a session to a new username key and updates the
// session's own username. It fails when another live session already
// holds the name.
func (r *Registry) Rename(s *Session, newName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.members[newName]; ok && current != s {
		return false
	}
	old := s.Username()
	if r.members[old] == s {
		delete(r.members, old)
	}
	s.setUsername(newName)
	r.members[newName] = s
	return true
}
