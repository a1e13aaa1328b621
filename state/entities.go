// state/entities.go
package state

// Player 玩家实体，每个在线连接一个
type Player struct {
	Name           string
	X              float64
	Y              float64
	Anim           string
	WebRTCId       string
	ReadyToConnect bool
	VideoConnected bool
	StudentID      int64

	version uint64
}

// Computer is a fixed interactive station. Both membership sets must be
// updated together: ConnectedUser is keyed by session id, ConnectedWebRTCId
// by the stabler media identity used for out-of-band signaling.
type Computer struct {
	ConnectedUser     map[string]struct{}
	ConnectedWebRTCId map[string]struct{}

	version uint64
}

func newComputer() *Computer {
	return &Computer{
		ConnectedUser:     make(map[string]struct{}),
		ConnectedWebRTCId: make(map[string]struct{}),
	}
}

// Whiteboard is a fixed interactive board. RoomID is the process-wide
// reservation handle, assigned lazily on first connect.
type Whiteboard struct {
	RoomID        string
	ConnectedUser map[string]struct{}

	version uint64
}

func newWhiteboard() *Whiteboard {
	return &Whiteboard{
		ConnectedUser: make(map[string]struct{}),
	}
}

// ChatMessage is immutable once appended.
type ChatMessage struct {
	Author    string
	CreatedAt int64
	Content   string
}
