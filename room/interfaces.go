package room

import (
	"github.com/wfunc/officeserver/models"
	"github.com/wfunc/officeserver/session"
	"github.com/wfunc/officeserver/state"
)

// Broadcaster defines the interface for broadcasting messages to a room.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastToRoomExcept(roomID, exceptSessionID string, msgID uint16, data []byte) error
}

// Relay delivers a message to a single session by id, wherever it is
// connected. The return value reports whether the target was reachable;
// notify-only commands ignore it.
type Relay interface {
	SendTo(sessionID string, msgID uint16, data []byte) bool
}

// Replicator is the state-diff capability the room consumes. The room only
// guarantees mutation order; computing and delivering per-observer field
// diffs is this interface's job.
type Replicator interface {
	// SyncFull sends the observer a complete snapshot and records its
	// baseline version.
	SyncFull(sess *session.Session, st *state.OfficeState)
	// Publish delivers to every observer the changes since the version it
	// last acknowledged.
	Publish(st *state.OfficeState, observers []*session.Session)
	// Forget drops an observer's bookkeeping after it leaves.
	Forget(sessionID string)
}

// Archiver receives chat messages for write-behind storage. Implementations
// must not block; the room fires and forgets.
type Archiver interface {
	ArchiveChatMessage(rec models.ChatRecord)
}
