// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/officeserver/room"
	"github.com/wfunc/officeserver/session"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// RoomBroadcaster fans messages out to the sessions of one room. Sends are
// fire-and-forget: a failed send is skipped, teardown happens via the
// reader's leave path.
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	return b.broadcast(roomID, "", msgID, data)
}

// BroadcastToRoomExcept sends to every session in the room but the named
// one. Chat and seat relays use this: the sender already applied the change
// locally.
func (b *RoomBroadcaster) BroadcastToRoomExcept(roomID, exceptSessionID string, msgID uint16, data []byte) error {
	return b.broadcast(roomID, exceptSessionID, msgID, data)
}

func (b *RoomBroadcaster) broadcast(roomID, exceptSessionID string, msgID uint16, data []byte) error {
	r, exists := b.roomManager.GetByID(roomID)
	if !exists {
		return ErrRoomNotFound
	}

	for _, s := range r.GetSessions() {
		if s.ID == exceptSessionID {
			continue
		}
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}
