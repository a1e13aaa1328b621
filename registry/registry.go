// registry/registry.go
package registry

import (
	"sync"

	"github.com/google/uuid"
)

// WhiteboardRegistry tracks which whiteboard room ids are in use across the
// whole process, so two office rooms can never share a board session. It is
// created once in main and injected into every room; it is the only mutable
// state shared between rooms, touched only on first board connect and on
// room disposal.
type WhiteboardRegistry struct {
	mutex sync.Mutex
	inUse map[string]struct{}
}

func NewWhiteboardRegistry() *WhiteboardRegistry {
	return &WhiteboardRegistry{
		inUse: make(map[string]struct{}),
	}
}

// Reserve allocates a fresh globally unique id and marks it in use.
func (r *WhiteboardRegistry) Reserve() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for {
		id := uuid.New().String()
		if _, taken := r.inUse[id]; !taken {
			r.inUse[id] = struct{}{}
			return id
		}
	}
}

// Release frees a previously reserved id. Releasing an unknown id is a no-op.
func (r *WhiteboardRegistry) Release(id string) {
	if id == "" {
		return
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.inUse, id)
}

// InUse reports whether the id is currently reserved.
func (r *WhiteboardRegistry) InUse(id string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	_, ok := r.inUse[id]
	return ok
}

// Len returns the number of live reservations.
func (r *WhiteboardRegistry) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.inUse)
}
