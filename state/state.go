// state/state.go
package state

import (
	"errors"
	"strconv"
)

var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrComputerNotFound   = errors.New("computer not found")
	ErrWhiteboardNotFound = errors.New("whiteboard not found")
)

// OfficeState is the canonical room state: players, computers, whiteboards
// and the chat log. It carries no locks. The owning room processes commands
// one at a time, so every method here runs with exclusive access; callers
// outside the room loop must not touch it.
//
// Every mutation bumps a monotonic version and stamps the touched entity,
// which is what the replication layer diffs against an observer's last
// acknowledged version.
type OfficeState struct {
	players     map[string]*Player
	computers   map[string]*Computer
	whiteboards map[string]*Whiteboard
	chat        []ChatMessage

	version uint64
	removed map[string]uint64 // sessionID -> version it was removed at
}

// NewOfficeState creates the state with the fixed station layout.
func NewOfficeState(computers, whiteboards int) *OfficeState {
	s := &OfficeState{
		players:     make(map[string]*Player),
		computers:   make(map[string]*Computer),
		whiteboards: make(map[string]*Whiteboard),
		removed:     make(map[string]uint64),
	}
	for i := 0; i < computers; i++ {
		s.computers[strconv.Itoa(i)] = newComputer()
	}
	for i := 0; i < whiteboards; i++ {
		s.whiteboards[strconv.Itoa(i)] = newWhiteboard()
	}
	return s
}

func (s *OfficeState) bump() uint64 {
	s.version++
	return s.version
}

// Version returns the current mutation counter.
func (s *OfficeState) Version() uint64 { return s.version }

func (p *Player) Version() uint64     { return p.version }
func (c *Computer) Version() uint64   { return c.version }
func (w *Whiteboard) Version() uint64 { return w.version }

// --- players ---

func (s *OfficeState) AddPlayer(sessionID string, p Player) {
	p.version = s.bump()
	s.players[sessionID] = &p
	delete(s.removed, sessionID)
}

func (s *OfficeState) GetPlayer(sessionID string) (*Player, bool) {
	p, ok := s.players[sessionID]
	return p, ok
}

// FindPlayerByWebRTCId reports whether any current player holds the given
// media identity. Used by the duplicate-login check at auth time.
func (s *OfficeState) FindPlayerByWebRTCId(webRTCId string) (string, bool) {
	if webRTCId == "" {
		return "", false
	}
	for id, p := range s.players {
		if p.WebRTCId == webRTCId {
			return id, true
		}
	}
	return "", false
}

func (s *OfficeState) UpdatePlayerTransform(sessionID string, x, y float64, anim string) error {
	p, ok := s.players[sessionID]
	if !ok {
		return ErrPlayerNotFound
	}
	p.X = x
	p.Y = y
	p.Anim = anim
	p.version = s.bump()
	return nil
}

func (s *OfficeState) SetPlayerName(sessionID, name string) error {
	p, ok := s.players[sessionID]
	if !ok {
		return ErrPlayerNotFound
	}
	p.Name = name
	p.version = s.bump()
	return nil
}

func (s *OfficeState) SetReadyToConnect(sessionID string) error {
	p, ok := s.players[sessionID]
	if !ok {
		return ErrPlayerNotFound
	}
	p.ReadyToConnect = true
	p.version = s.bump()
	return nil
}

func (s *OfficeState) SetVideoConnected(sessionID string) error {
	p, ok := s.players[sessionID]
	if !ok {
		return ErrPlayerNotFound
	}
	p.VideoConnected = true
	p.version = s.bump()
	return nil
}

func (s *OfficeState) PlayerCount() int { return len(s.players) }

func (s *OfficeState) EachPlayer(fn func(sessionID string, p *Player)) {
	for id, p := range s.players {
		fn(id, p)
	}
}

// RemovedPlayersSince lists session ids deleted after version v.
func (s *OfficeState) RemovedPlayersSince(v uint64) []string {
	var ids []string
	for id, at := range s.removed {
		if at > v {
			ids = append(ids, id)
		}
	}
	return ids
}

// --- computers ---

func (s *OfficeState) GetComputer(id string) (*Computer, bool) {
	c, ok := s.computers[id]
	return c, ok
}

func (s *OfficeState) ConnectComputer(computerID, sessionID, webRTCId string) error {
	c, ok := s.computers[computerID]
	if !ok {
		return ErrComputerNotFound
	}
	c.ConnectedUser[sessionID] = struct{}{}
	if webRTCId != "" {
		c.ConnectedWebRTCId[webRTCId] = struct{}{}
	}
	c.version = s.bump()
	return nil
}

func (s *OfficeState) DisconnectComputer(computerID, sessionID, webRTCId string) error {
	c, ok := s.computers[computerID]
	if !ok {
		return ErrComputerNotFound
	}
	delete(c.ConnectedUser, sessionID)
	delete(c.ConnectedWebRTCId, webRTCId)
	c.version = s.bump()
	return nil
}

func (s *OfficeState) EachComputer(fn func(id string, c *Computer)) {
	for id, c := range s.computers {
		fn(id, c)
	}
}

// --- whiteboards ---

func (s *OfficeState) GetWhiteboard(id string) (*Whiteboard, bool) {
	w, ok := s.whiteboards[id]
	return w, ok
}

func (s *OfficeState) ConnectWhiteboard(whiteboardID, sessionID string) error {
	w, ok := s.whiteboards[whiteboardID]
	if !ok {
		return ErrWhiteboardNotFound
	}
	w.ConnectedUser[sessionID] = struct{}{}
	w.version = s.bump()
	return nil
}

func (s *OfficeState) DisconnectWhiteboard(whiteboardID, sessionID string) error {
	w, ok := s.whiteboards[whiteboardID]
	if !ok {
		return ErrWhiteboardNotFound
	}
	delete(w.ConnectedUser, sessionID)
	w.version = s.bump()
	return nil
}

// SetWhiteboardRoomID records the lazily reserved process-wide id.
func (s *OfficeState) SetWhiteboardRoomID(whiteboardID, roomID string) error {
	w, ok := s.whiteboards[whiteboardID]
	if !ok {
		return ErrWhiteboardNotFound
	}
	w.RoomID = roomID
	w.version = s.bump()
	return nil
}

func (s *OfficeState) EachWhiteboard(fn func(id string, w *Whiteboard)) {
	for id, w := range s.whiteboards {
		fn(id, w)
	}
}

// --- chat ---

func (s *OfficeState) AppendChatMessage(author, content string, createdAt int64) {
	s.chat = append(s.chat, ChatMessage{
		Author:    author,
		CreatedAt: createdAt,
		Content:   content,
	})
	s.bump()
}

// ChatMessages returns the full ordered log. The slice must not be mutated.
func (s *OfficeState) ChatMessages() []ChatMessage { return s.chat }

// --- leave sweep ---

// RemovePlayer deletes the player and scrubs its session id (and media id)
// from every computer and whiteboard membership set. Safe to call for ids
// that are already gone.
func (s *OfficeState) RemovePlayer(sessionID string) {
	var webRTCId string
	if p, ok := s.players[sessionID]; ok {
		webRTCId = p.WebRTCId
	}
	for _, c := range s.computers {
		if _, ok := c.ConnectedUser[sessionID]; ok {
			delete(c.ConnectedUser, sessionID)
			c.version = s.bump()
		}
		if webRTCId != "" {
			if _, ok := c.ConnectedWebRTCId[webRTCId]; ok {
				delete(c.ConnectedWebRTCId, webRTCId)
				c.version = s.bump()
			}
		}
	}
	for _, w := range s.whiteboards {
		if _, ok := w.ConnectedUser[sessionID]; ok {
			delete(w.ConnectedUser, sessionID)
			w.version = s.bump()
		}
	}
	if _, ok := s.players[sessionID]; ok {
		delete(s.players, sessionID)
		s.removed[sessionID] = s.bump()
	}
}
