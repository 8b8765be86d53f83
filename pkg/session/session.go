// Package session tracks live conversation sessions so the control plane can
// reach a running pipeline by identifier.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrNotFound is returned when a session identifier is unknown.
var ErrNotFound = errors.New("session: not found")

// Handle is the control surface of one live conversation pipeline. The only
// capability the bridge needs is injecting a spoken event into the running
// conversation.
type Handle interface {
	// Say speaks the given text through the session's pipeline.
	Say(ctx context.Context, text string) error
}

// Registry is the process-wide directory of active sessions. Connections
// register on establishment and must unregister on every exit path; a stale
// entry makes the control plane believe a dead session is alive.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Handle
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]Handle),
		logger:   logger.With("component", "session.registry"),
	}
}

// Register records a live session under id, replacing any previous handle.
func (r *Registry) Register(id string, h Handle) {
	r.mu.Lock()
	r.sessions[id] = h
	r.mu.Unlock()
	r.logger.Info("session registered", "session_id", id)
}

// Unregister removes the session. Unknown ids are a no-op so that deferred
// cleanup on error paths stays unconditional.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	r.logger.Info("session unregistered", "session_id", id)
}

// Lookup returns the handle for id, if the session is alive.
func (r *Registry) Lookup(id string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.sessions[id]
	return h, ok
}

// ListActive returns the identifiers of all live sessions, in no particular
// order.
func (r *Registry) ListActive() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
