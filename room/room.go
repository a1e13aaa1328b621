// room/room.go
package room

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wfunc/officeserver/logger"
	"github.com/wfunc/officeserver/models"
	"github.com/wfunc/officeserver/network"
	"github.com/wfunc/officeserver/registry"
	"github.com/wfunc/officeserver/session"
	"github.com/wfunc/officeserver/state"
)

const bcryptCost = 10

// RejectedError carries the code and reason sent to a client whose join
// attempt failed authentication.
type RejectedError struct {
	Code   int
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("join rejected (%d): %s", e.Code, e.Reason)
}

var (
	ErrPasswordIncorrect = &RejectedError{Code: 403, Reason: "Password is incorrect!"}
	ErrDuplicatedUser    = &RejectedError{Code: 403, Reason: "Duplicated user!"}
	ErrRoomClosed        = &RejectedError{Code: 410, Reason: "Room is closed!"}
)

// Deps bundles the collaborators a room needs. The server wires one Deps and
// hands it to the manager at room creation.
type Deps struct {
	Broadcaster Broadcaster
	Relay       Relay
	Replicator  Replicator
	Archiver    Archiver
	Boards      *registry.WhiteboardRegistry
	Computers   int
	Whiteboards int
}

// Room is one office: the authoritative state plus the queue that serializes
// every mutation touching it. All state access happens on the room loop;
// public methods post onto the queue and wait where a result is needed.
type Room struct {
	ID          string
	Number      string
	Name        string
	Description string
	CreatedAt   time.Time

	passwordHash []byte
	autoDispose  bool

	state  *state.OfficeState
	chairs []models.ChairSlot

	sessions     map[string]*session.Session
	sessionMutex sync.RWMutex

	broadcaster Broadcaster
	relay       Relay
	replicator  Replicator
	archiver    Archiver
	boards      *registry.WhiteboardRegistry

	ops       chan func()
	closeChan chan struct{}
	closeOnce sync.Once
	onEmpty   func(number string)
}

// NewRoom creates a room and starts its loop. A non-empty password is
// bcrypt-hashed; the plaintext is never kept.
func NewRoom(id string, opts models.JoinOptions, deps Deps, onEmpty func(number string)) (*Room, error) {
	r := &Room{
		ID:          id,
		Number:      opts.RoomNumber,
		Name:        opts.Name,
		Description: opts.Description,
		CreatedAt:   time.Now(),
		autoDispose: opts.AutoDispose,
		state:       state.NewOfficeState(deps.Computers, deps.Whiteboards),
		sessions:    make(map[string]*session.Session),
		broadcaster: deps.Broadcaster,
		relay:       deps.Relay,
		replicator:  deps.Replicator,
		archiver:    deps.Archiver,
		boards:      deps.Boards,
		ops:         make(chan func(), 256),
		closeChan:   make(chan struct{}),
		onEmpty:     onEmpty,
	}

	if opts.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcryptCost)
		if err != nil {
			return nil, err
		}
		r.passwordHash = hash
	}

	go r.loop()
	return r, nil
}

func (r *Room) loop() {
	for {
		select {
		case op := <-r.ops:
			op()
		case <-r.closeChan:
			r.dispose()
			return
		}
	}
}

// post schedules op onto the room loop. Returns false once the room closed.
func (r *Room) post(op func()) bool {
	select {
	case r.ops <- op:
		return true
	case <-r.closeChan:
		return false
	}
}

// Dispatch queues a command for ordered execution. Commands posted after the
// room closed are dropped.
func (r *Room) Dispatch(cmd Command) {
	if !r.post(func() { r.execute(cmd) }) {
		logger.Log.Warnf("Room %s is closed, dropping command %T", r.Number, cmd)
	}
}

// HasPassword reports whether joins require a credential.
func (r *Room) HasPassword() bool {
	return len(r.passwordHash) != 0
}

// Join authenticates and admits a session. It blocks until the room loop has
// processed the request, so two racing joins with the same webRTC id are
// checked one after the other and the second one loses.
func (r *Room) Join(sess *session.Session, opts models.JoinOptions) error {
	errCh := make(chan error, 1)
	if !r.post(func() { errCh <- r.join(sess, opts) }) {
		return ErrRoomClosed
	}
	select {
	case err := <-errCh:
		return err
	case <-r.closeChan:
		return ErrRoomClosed
	}
}

func (r *Room) join(sess *session.Session, opts models.JoinOptions) error {
	// Both checks run on every attempt, reconnects included.
	if r.HasPassword() {
		if bcrypt.CompareHashAndPassword(r.passwordHash, []byte(opts.Password)) != nil {
			return ErrPasswordIncorrect
		}
	}
	if _, taken := r.state.FindPlayerByWebRTCId(opts.WebRTCId); taken {
		return ErrDuplicatedUser
	}

	r.state.AddPlayer(sess.ID, state.Player{
		Name:           opts.PlayerName,
		X:              opts.EnterX,
		Y:              opts.EnterY,
		Anim:           opts.PlayerAnim,
		WebRTCId:       opts.WebRTCId,
		ReadyToConnect: opts.ReadyToConnect,
		VideoConnected: opts.VideoConnected,
		StudentID:      opts.StudentID,
	})

	r.sessionMutex.Lock()
	r.sessions[sess.ID] = sess
	sess.RoomID = r.ID
	r.sessionMutex.Unlock()

	// Descriptor first, so the client can render context before the state
	// sync arrives.
	desc, _ := json.Marshal(models.RoomDescriptor{
		Name:        r.Name,
		RoomNumber:  r.Number,
		Description: r.Description,
	})
	sess.Send(network.MsgTypeRoomData, desc)

	r.replicator.SyncFull(sess, r.state)
	r.publish()
	return nil
}

// Leave removes every trace of the session: station membership, the player
// entry, its seat, and the observer bookkeeping. Safe to call more than
// once; a second call for the same id finds nothing to remove. The consented
// flag comes from the transport and does not change cleanup.
func (r *Room) Leave(sessionID string, consented bool) {
	r.post(func() { r.leave(sessionID, consented) })
}

func (r *Room) leave(sessionID string, consented bool) {
	r.state.RemovePlayer(sessionID)

	chairs := r.chairs[:0]
	for _, slot := range r.chairs {
		if slot.PlayerID != sessionID {
			chairs = append(chairs, slot)
		}
	}
	r.chairs = chairs

	r.sessionMutex.Lock()
	if sess, ok := r.sessions[sessionID]; ok {
		sess.RoomID = ""
		delete(r.sessions, sessionID)
	}
	empty := len(r.sessions) == 0
	r.sessionMutex.Unlock()

	r.replicator.Forget(sessionID)
	r.publish()

	if empty && r.autoDispose && r.onEmpty != nil {
		logger.Log.Infof("Room %s is empty, disposing", r.Number)
		r.onEmpty(r.Number)
	}
}

// Metadata returns the non-replicated room summary, read on the room loop so
// it never observes a half-applied seat change.
func (r *Room) Metadata() models.RoomMetadata {
	ch := make(chan models.RoomMetadata, 1)
	if !r.post(func() {
		chairs := make([]models.ChairSlot, len(r.chairs))
		copy(chairs, r.chairs)
		ch <- models.RoomMetadata{
			Name:        r.Name,
			RoomNumber:  r.Number,
			Description: r.Description,
			HasPassword: r.HasPassword(),
			Chair:       chairs,
		}
	}) {
		return models.RoomMetadata{Name: r.Name, RoomNumber: r.Number, Description: r.Description, HasPassword: r.HasPassword()}
	}
	select {
	case md := <-ch:
		return md
	case <-r.closeChan:
		return models.RoomMetadata{Name: r.Name, RoomNumber: r.Number, Description: r.Description, HasPassword: r.HasPassword()}
	}
}

// GetSessions returns a snapshot of the connected sessions.
func (r *Room) GetSessions() []*session.Session {
	r.sessionMutex.RLock()
	defer r.sessionMutex.RUnlock()

	sessions := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// PlayerCount returns the number of admitted sessions.
func (r *Room) PlayerCount() int {
	r.sessionMutex.RLock()
	defer r.sessionMutex.RUnlock()
	return len(r.sessions)
}

// publish hands the current state to the replication boundary. Runs on the
// room loop after every mutation.
func (r *Room) publish() {
	r.replicator.Publish(r.state, r.GetSessions())
}

// Close stops the loop. Pending queued commands are dropped; disposal runs
// on the loop goroutine before it exits.
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.closeChan)
	})
}

func (r *Room) dispose() {
	r.state.EachWhiteboard(func(id string, w *state.Whiteboard) {
		if w.RoomID != "" {
			r.boards.Release(w.RoomID)
		}
	})
	logger.Log.Infof("Room %s disposed", r.Number)
}
