// room/manager.go
package room

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wfunc/officeserver/models"
)

// Manager owns every live room, keyed by room number. Rooms run
// independently; the manager only serializes create/remove.
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate returns the room for opts.RoomNumber, creating it on first
// request. The returned bool is true when the room was created by this call;
// room fields (name, password, autoDispose) are only honored then.
func (m *Manager) GetOrCreate(opts models.JoinOptions, deps Deps) (*Room, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if r, exists := m.rooms[opts.RoomNumber]; exists {
		return r, false, nil
	}

	r, err := NewRoom(uuid.New().String(), opts, deps, m.removeWhenEmpty)
	if err != nil {
		return nil, false, err
	}
	m.rooms[opts.RoomNumber] = r
	return r, true, nil
}

func (m *Manager) Get(number string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	r, exists := m.rooms[number]
	return r, exists
}

// GetByID finds a room by its opaque id rather than its number.
func (m *Manager) GetByID(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, r := range m.rooms {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Remove tears the room down and forgets it.
func (m *Manager) Remove(number string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if r, exists := m.rooms[number]; exists {
		r.Close()
		delete(m.rooms, number)
	}
}

// removeWhenEmpty is the auto-dispose hook handed to every room.
func (m *Manager) removeWhenEmpty(number string) {
	m.Remove(number)
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// ListMetadata snapshots the metadata of every live room. Each room answers
// on its own loop.
func (m *Manager) ListMetadata() []models.RoomMetadata {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mutex.RUnlock()

	out := make([]models.RoomMetadata, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Metadata())
	}
	return out
}
