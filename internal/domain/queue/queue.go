// Package queue holds the matchmaking waitlist.
//
// Every operation takes the manager lock for its whole duration, so a
// membership check and the insert or removal that depends on it cannot
// interleave with another command.
package queue

import (
	"slices"
	"sync"
	"time"

	"github.com/okian/pugbot/internal/domain/model"
	"github.com/okian/pugbot/pkg/metrics"
)

// DefaultCapacity is the number of slots for a 5v5 match.
const DefaultCapacity = 10

// Entry is a queued player. Entries keep insertion order.
type Entry struct {
	Identity model.Identity
	JoinedAt time.Time
}

// Manager is the in-memory roster.
type Manager struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	now      func() time.Time
}

// NewManager creates an empty roster.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.entries = make([]Entry, 0, m.capacity)

	metrics.UpdateQueueSize(0, m.capacity)
	return m
}

// Join adds a player on their own behalf and returns the roster size after insertion.
func (m *Manager) Join(id model.Identity) (int, error) {
	return m.insert("join", id)
}

// Add adds a player on someone else's behalf. The checks are the same as Join.
func (m *Manager) Add(id model.Identity) (int, error) {
	return m.insert("add", id)
}

// Leave removes the caller.
func (m *Manager) Leave(id string) error {
	return m.remove("leave", id)
}

// Remove removes a referenced player.
func (m *Manager) Remove(id string) error {
	return m.remove("remove", id)
}

// Swap replaces outID with in at the same position. The incoming player gets a fresh join time.
func (m *Manager) Swap(outID string, in model.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(outID)
	if idx < 0 {
		metrics.RecordQueueOperation("swap", "not_queued")
		return ErrNotQueued
	}
	if m.indexOf(in.ID) >= 0 {
		metrics.RecordQueueOperation("swap", "already_queued")
		return ErrAlreadyQueued
	}

	m.entries[idx] = Entry{Identity: in, JoinedAt: m.now()}
	metrics.RecordQueueOperation("swap", "ok")
	return nil
}

// Contains reports whether id is queued.
func (m *Manager) Contains(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexOf(id) >= 0
}

// Snapshot returns a copy of the roster in join order.
func (m *Manager) Snapshot() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

// Drain returns the roster and empties it in one step.
func (m *Manager) Drain() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.entries
	m.entries = make([]Entry, 0, m.capacity)
	metrics.UpdateQueueSize(0, m.capacity)
	return out
}

// Clear empties the roster and returns how many entries were dropped.
func (m *Manager) Clear() int {
	return len(m.Drain())
}

// Len returns the number of queued players.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Capacity returns the configured slot count.
func (m *Manager) Capacity() int {
	return m.capacity
}

func (m *Manager) insert(op string, id model.Identity) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(id.ID) >= 0 {
		metrics.RecordQueueOperation(op, "already_queued")
		return len(m.entries), ErrAlreadyQueued
	}
	if len(m.entries) >= m.capacity {
		metrics.RecordQueueOperation(op, "full")
		return len(m.entries), ErrQueueFull
	}

	m.entries = append(m.entries, Entry{Identity: id, JoinedAt: m.now()})
	metrics.RecordQueueOperation(op, "ok")
	metrics.UpdateQueueSize(len(m.entries), m.capacity)
	return len(m.entries), nil
}

func (m *Manager) remove(op, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		metrics.RecordQueueOperation(op, "not_queued")
		return ErrNotQueued
	}

	m.entries = slices.Delete(m.entries, idx, idx+1)
	metrics.RecordQueueOperation(op, "ok")
	metrics.UpdateQueueSize(len(m.entries), m.capacity)
	return nil
}

// indexOf must be called with m.mu held.
func (m *Manager) indexOf(id string) int {
	return slices.IndexFunc(m.entries, func(e Entry) bool { return e.Identity.ID == id })
}
