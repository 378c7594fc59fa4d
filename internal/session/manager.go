// Package session maps visitor session IDs to live context engine stores.
// Stores are hydrated from persisted snapshots on first touch and evicted
// after a TTL of inactivity; eviction persists the final state first.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"cuepoint/internal/engine"
	"cuepoint/internal/logging"
	"cuepoint/internal/persist"
)

type entry struct {
	store     *engine.Store
	lastTouch time.Time
}

// Manager owns the set of live sessions.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*entry
	snapshots *persist.SnapshotStore
	ttl       time.Duration
}

// NewManager creates a manager evicting sessions idle longer than ttl.
func NewManager(snapshots *persist.SnapshotStore, ttl time.Duration) *Manager {
	return &Manager{
		sessions:  make(map[string]*entry),
		snapshots: snapshots,
		ttl:       ttl,
	}
}

// NewSessionID returns a fresh visitor session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// Get returns the store for sessionID, creating and hydrating it on first
// touch. Every call refreshes the idle timer.
func (m *Manager) Get(sessionID string) *engine.Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[sessionID]; ok {
		e.lastTouch = time.Now()
		return e.store
	}

	store := engine.NewStore(sessionID, m.snapshots)
	if snap, ok := m.snapshots.LoadSnapshot(sessionID); ok {
		store.Dispatch(engine.SyncState(snap))
		logging.Session("hydrated session %s from snapshot", sessionID)
	} else {
		logging.Session("new session %s", sessionID)
	}

	m.sessions[sessionID] = &entry{store: store, lastTouch: time.Now()}
	return store
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle longer than the TTL, persisting each final
// state before dropping it. Returns the number evicted.
func (m *Manager) Sweep() int {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var expired []string
	for id, e := range m.sessions {
		if e.lastTouch.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	stores := make(map[string]*engine.Store, len(expired))
	for _, id := range expired {
		stores[id] = m.sessions[id].store
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for id, store := range stores {
		if err := m.snapshots.SaveSnapshot(id, store.State()); err != nil {
			logging.Get(logging.CategorySession).Error("failed to persist evicted session %s: %v", id, err)
		}
	}
	if len(expired) > 0 {
		logging.Session("evicted %d idle sessions", len(expired))
	}
	return len(expired)
}

// RunSweeper sweeps at the given interval until ctx is cancelled.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
