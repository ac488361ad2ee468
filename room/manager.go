// room/manager.go
package room

import (
	"sync"

	"github.com/stakehall/matchengine/game"
)

// Manager owns every live room.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewManager() *Manager {
	return &Manager{rooms: make(map[string]*Room)}
}

// Add registers a freshly built room under its ID.
func (m *Manager) Add(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.ID] = r
}

// Remove drops the room from the index. The room itself is closed by its
// owner; Remove only forgets it.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
}

// Get returns the room with the given ID.
func (m *Manager) Get(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// FindForming returns an unstarted room with a free seat that matches the
// requested variant and stake, or nil when none exists.
func (m *Manager) FindForming(variant game.Variant, stake int64) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rooms {
		if r.Variant != variant || r.Stake() != stake {
			continue
		}
		if r.Started() || r.Ended() || r.Full() {
			continue
		}
		return r
	}
	return nil
}

// Count returns the number of live rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// All returns a snapshot of every live room.
func (m *Manager) All() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out
}
