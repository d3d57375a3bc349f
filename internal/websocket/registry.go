package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// PresenceTracker is notified when an authenticated user gains its first or
// loses its last live session. Implementations must tolerate being called
// from short-lived goroutines.
type PresenceTracker interface {
	SetUserOnline(ctx context.Context, username string) error
	SetUserOffline(ctx context.Context, username string) error
}

const presenceTimeout = 5 * time.Second

// Registry is the single shared collection of live sessions. All mutation is
// lock-protected; fan-out iterates over a snapshot so no lock is ever held
// across a network send.
type Registry struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	presence PresenceTracker
}

type RegistryOption func(*Registry)

// WithPresence wires an optional presence tracker; the registry works
// without one.
func WithPresence(p PresenceTracker) RegistryOption {
	return func(r *Registry) { r.presence = p }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{sessions: make(map[*Session]struct{})}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers a session. It never blocks on I/O; presence updates run on
// their own goroutine with a bounded context.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	r.sessions[s] = struct{}{}
	count := len(r.sessions)
	first := s.principal != nil && r.sessionsForUserLocked(s.Username()) == 1
	r.mu.Unlock()

	slog.Info("session registered", "sessionID", s.ID(), "user", s.Username(), "sessions", count)

	if first {
		r.trackPresence(s.Username(), true)
	}
}

// Remove unregisters and closes a session. It is idempotent and safe to call
// for a session that was never added; whichever code path detects a closure
// first wins and later calls are no-ops.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	_, ok := r.sessions[s]
	if ok {
		delete(r.sessions, s)
	}
	count := len(r.sessions)
	last := ok && s.principal != nil && r.sessionsForUserLocked(s.Username()) == 0
	r.mu.Unlock()

	if !ok {
		return
	}
	s.close()

	slog.Info("session unregistered", "sessionID", s.ID(), "user", s.Username(), "sessions", count)

	if last {
		r.trackPresence(s.Username(), false)
	}
}

// BroadcastAll delivers the payload once to every registered session. A
// session added mid-broadcast may or may not be visited; one that fails to
// accept delivery is dropped without affecting the rest.
func (r *Registry) BroadcastAll(payload []byte) {
	for _, s := range r.snapshot() {
		r.deliver(s, payload)
	}
}

// SendToUser delivers the payload to every session authenticated as
// username: zero, one, or many. Anonymous sessions are never targeted.
func (r *Registry) SendToUser(username string, payload []byte) {
	if username == "" {
		return
	}
	for _, s := range r.snapshot() {
		if s.Username() == username {
			r.deliver(s, payload)
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Usernames returns the distinct authenticated usernames with a live session.
func (r *Registry) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0, len(r.sessions))
	for s := range r.sessions {
		name := s.Username()
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Close drops every session, e.g. during shutdown.
func (r *Registry) Close() {
	for _, s := range r.snapshot() {
		r.Remove(s)
	}
}

func (r *Registry) snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *Registry) deliver(s *Session, payload []byte) {
	if err := s.Send(payload); err != nil {
		slog.Warn("dropping session after failed delivery", "sessionID", s.ID(), "user", s.Username(), "error", err)
		r.Remove(s)
	}
}

func (r *Registry) sessionsForUserLocked(username string) int {
	n := 0
	for s := range r.sessions {
		if s.Username() == username {
			n++
		}
	}
	return n
}

func (r *Registry) trackPresence(username string, online bool) {
	if r.presence == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		defer cancel()

		var err error
		if online {
			err = r.presence.SetUserOnline(ctx, username)
		} else {
			err = r.presence.SetUserOffline(ctx, username)
		}
		if err != nil {
			slog.Error("presence update failed", "user", username, "online", online, "error", err)
		}
	}()
}
