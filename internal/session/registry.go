package session

import (
	"sync"

	"github.com/example/studybot/pkg/models"
)

// entry is the in-memory tracking for one active session: its configuration,
// the ordered study queue and the running progress aggregate.
type entry struct {
	userID   int64
	config   models.SessionConfig
	queue    []queued
	position int
	progress *models.SessionProgress
}

// queued pairs a card with its item for presentation.
type queued struct {
	card models.Card
	item models.Item
}

// Registry holds active sessions keyed by session id. It is an explicit
// object owned by the manager rather than package state, so independent
// managers never share sessions. Safe for concurrent access.
type Registry struct {
	mu      sync.RWMutex
	entries map[int64]*entry
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[int64]*entry)}
}

func (r *Registry) put(id int64, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = e
}

func (r *Registry) get(id int64) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

func (r *Registry) remove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
