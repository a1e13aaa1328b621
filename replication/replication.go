// replication/replication.go
package replication

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/wfunc/officeserver/network"
	"github.com/wfunc/officeserver/session"
	"github.com/wfunc/officeserver/state"
)

// Wire views of the replicated entities.

type PlayerView struct {
	Name           string  `json:"name"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Anim           string  `json:"anim"`
	WebRTCId       string  `json:"webRTCId"`
	ReadyToConnect bool    `json:"readyToConnect"`
	VideoConnected bool    `json:"videoConnected"`
	StudentID      int64   `json:"studentId"`
}

type ComputerView struct {
	ConnectedUser     []string `json:"connectedUser"`
	ConnectedWebRTCId []string `json:"connectedWebRTCId"`
}

type WhiteboardView struct {
	RoomID        string   `json:"roomId"`
	ConnectedUser []string `json:"connectedUser"`
}

type ChatView struct {
	Author    string `json:"author"`
	CreatedAt int64  `json:"createdAt"`
	Content   string `json:"content"`
}

// Patch carries everything that changed since the observer's last version.
// A full snapshot is a patch against version zero.
type Patch struct {
	Version        uint64                    `json:"version"`
	Players        map[string]PlayerView     `json:"players,omitempty"`
	RemovedPlayers []string                  `json:"removedPlayers,omitempty"`
	Computers      map[string]ComputerView   `json:"computers,omitempty"`
	Whiteboards    map[string]WhiteboardView `json:"whiteboards,omitempty"`
	ChatBase       int                       `json:"chatBase"`
	Chat           []ChatView                `json:"chat,omitempty"`
}

type cursor struct {
	version uint64
	chatLen int
}

// PatchReplicator implements the state-diff capability: it remembers, per
// observer, the last state version it delivered and sends only entities
// stamped newer than that. Because every room applies mutations in a total
// order, the emitted patch stream is deterministic and replayable.
type PatchReplicator struct {
	mutex   sync.Mutex
	cursors map[string]*cursor
}

func NewPatchReplicator() *PatchReplicator {
	return &PatchReplicator{
		cursors: make(map[string]*cursor),
	}
}

// SyncFull delivers a complete snapshot and records the observer's baseline.
func (p *PatchReplicator) SyncFull(sess *session.Session, st *state.OfficeState) {
	patch := buildPatch(st, 0, 0)
	data, err := json.Marshal(patch)
	if err != nil {
		return
	}
	sess.Send(network.MsgTypeStateFull, data)

	p.mutex.Lock()
	p.cursors[sess.ID] = &cursor{version: st.Version(), chatLen: len(st.ChatMessages())}
	p.mutex.Unlock()
}

// Publish sends each observer the delta since its cursor. Observers without
// a cursor (never synced) are skipped; they will get a full sync on join.
func (p *PatchReplicator) Publish(st *state.OfficeState, observers []*session.Session) {
	version := st.Version()
	chatLen := len(st.ChatMessages())

	for _, sess := range observers {
		p.mutex.Lock()
		cur, ok := p.cursors[sess.ID]
		p.mutex.Unlock()
		if !ok {
			continue
		}
		if cur.version == version && cur.chatLen == chatLen {
			continue
		}

		patch := buildPatch(st, cur.version, cur.chatLen)
		data, err := json.Marshal(patch)
		if err != nil {
			continue
		}
		if sess.Send(network.MsgTypeStatePatch, data) == nil {
			cur.version = version
			cur.chatLen = chatLen
		}
	}
}

// Forget drops the observer's cursor.
func (p *PatchReplicator) Forget(sessionID string) {
	p.mutex.Lock()
	delete(p.cursors, sessionID)
	p.mutex.Unlock()
}

func buildPatch(st *state.OfficeState, since uint64, chatBase int) Patch {
	patch := Patch{
		Version:  st.Version(),
		ChatBase: chatBase,
	}

	st.EachPlayer(func(id string, pl *state.Player) {
		if since > 0 && pl.Version() <= since {
			return
		}
		if patch.Players == nil {
			patch.Players = make(map[string]PlayerView)
		}
		patch.Players[id] = PlayerView{
			Name:           pl.Name,
			X:              pl.X,
			Y:              pl.Y,
			Anim:           pl.Anim,
			WebRTCId:       pl.WebRTCId,
			ReadyToConnect: pl.ReadyToConnect,
			VideoConnected: pl.VideoConnected,
			StudentID:      pl.StudentID,
		}
	})

	if since > 0 {
		patch.RemovedPlayers = st.RemovedPlayersSince(since)
		sort.Strings(patch.RemovedPlayers)
	}

	st.EachComputer(func(id string, c *state.Computer) {
		if since > 0 && c.Version() <= since {
			return
		}
		if patch.Computers == nil {
			patch.Computers = make(map[string]ComputerView)
		}
		patch.Computers[id] = ComputerView{
			ConnectedUser:     sortedKeys(c.ConnectedUser),
			ConnectedWebRTCId: sortedKeys(c.ConnectedWebRTCId),
		}
	})

	st.EachWhiteboard(func(id string, w *state.Whiteboard) {
		if since > 0 && w.Version() <= since {
			return
		}
		if patch.Whiteboards == nil {
			patch.Whiteboards = make(map[string]WhiteboardView)
		}
		patch.Whiteboards[id] = WhiteboardView{
			RoomID:        w.RoomID,
			ConnectedUser: sortedKeys(w.ConnectedUser),
		}
	})

	for _, msg := range st.ChatMessages()[chatBase:] {
		patch.Chat = append(patch.Chat, ChatView{
			Author:    msg.Author,
			CreatedAt: msg.CreatedAt,
			Content:   msg.Content,
		})
	}

	return patch
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
