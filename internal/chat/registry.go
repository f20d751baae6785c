package chat

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Factory builds a fresh controller for a session id. The registry calls it
// under its own lock, so it must not call back into the registry.
type Factory func(sessionID string) *Controller

// SessionSummary is one row of the active-session listing.
type SessionSummary struct {
	SessionID    string `json:"session_id"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
}

type registryEntry struct {
	controller *Controller
	lastActive time.Time
}

// Registry holds the live controllers for all active sessions and evicts
// the ones idle past the TTL.
type Registry struct {
	factory Factory
	clock   Clock
	ttl     time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*registryEntry
}

// NewRegistry creates an empty registry. A nil clock means wall time.
func NewRegistry(factory Factory, ttl time.Duration, clock Clock, logger *slog.Logger) *Registry {
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factory:  factory,
		clock:    clock,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*registryEntry),
	}
}

// GetOrCreate returns the controller for the session, building one on first
// use. Every lookup refreshes the session's idle timer.
func (r *Registry) GetOrCreate(sessionID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sessionID]
	if !ok {
		entry = &registryEntry{controller: r.factory(sessionID)}
		r.sessions[sessionID] = entry
		r.logger.Info("created session", "session_id", sessionID)
	}
	entry.lastActive = r.clock.Now()
	return entry.controller
}

// Get returns the controller without creating one. The idle timer is
// refreshed on hit.
func (r *Registry) Get(sessionID string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	entry.lastActive = r.clock.Now()
	return entry.controller, true
}

// Replace installs a controller for the session, displacing any existing
// one. Used when restoring a saved conversation into a live session.
func (r *Registry) Replace(sessionID string, c *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = &registryEntry{controller: c, lastActive: r.clock.Now()}
}

// Delete drops the session. Reports whether it existed.
func (r *Registry) Delete(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	return ok
}

// List summarizes active sessions, busiest conversation first; sessions with
// equal message counts order by recency.
func (r *Registry) List() []SessionSummary {
	type row struct {
		summary    SessionSummary
		controller *Controller
		active     time.Time
	}

	r.mu.Lock()
	rows := make([]row, 0, len(r.sessions))
	for id, entry := range r.sessions {
		rows = append(rows, row{
			summary:    SessionSummary{SessionID: id},
			controller: entry.controller,
			active:     entry.lastActive,
		})
	}
	r.mu.Unlock()

	// Title and MessageCount take the controller lock, so fill them in
	// outside the registry lock.
	for i := range rows {
		rows[i].summary.Title = rows[i].controller.Title()
		rows[i].summary.MessageCount = rows[i].controller.MessageCount()
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].summary.MessageCount != rows[j].summary.MessageCount {
			return rows[i].summary.MessageCount > rows[j].summary.MessageCount
		}
		return rows[i].active.After(rows[j].active)
	})

	out := make([]SessionSummary, len(rows))
	for i, r := range rows {
		out[i] = r.summary
	}
	return out
}

// EvictIdle removes sessions idle longer than the TTL and reports how many
// were dropped.
func (r *Registry) EvictIdle() int {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, entry := range r.sessions {
		if now.Sub(entry.lastActive) > r.ttl {
			delete(r.sessions, id)
			evicted++
			r.logger.Info("evicted idle session", "session_id", id, "idle", now.Sub(entry.lastActive))
		}
	}
	return evicted
}

// StartEvictionWorker runs a background goroutine that periodically sweeps
// for idle sessions until the context is canceled.
func (r *Registry) StartEvictionWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		r.logger.Info("session eviction worker started", "interval", interval, "ttl", r.ttl)

		for {
			select {
			case <-ticker.C:
				if n := r.EvictIdle(); n > 0 {
					r.logger.Info("session eviction sweep completed", "evicted", n)
				}
			case <-ctx.Done():
				r.logger.Info("session eviction worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
