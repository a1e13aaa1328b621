// room/command.go
package room

import (
	"encoding/json"
	"time"

	"github.com/wfunc/officeserver/logger"
	"github.com/wfunc/officeserver/models"
	"github.com/wfunc/officeserver/network"
)

// Command is the closed set of room mutations. Each inbound message maps to
// exactly one variant; the room executes them one at a time on its loop, so
// no two commands ever interleave on the shared state.
type Command interface {
	isCommand()
}

type ConnectToComputer struct {
	SessionID  string
	ComputerID string
}

type DisconnectFromComputer struct {
	SessionID  string
	ComputerID string
}

type StopScreenShare struct {
	SessionID  string
	ComputerID string
}

type ConnectToWhiteboard struct {
	SessionID    string
	WhiteboardID string
}

type DisconnectFromWhiteboard struct {
	SessionID    string
	WhiteboardID string
}

type UpdatePlayer struct {
	SessionID string
	X, Y      float64
	Anim      string
}

type UpdatePlayerName struct {
	SessionID string
	Name      string
}

type SetReadyToConnect struct {
	SessionID string
}

type SetVideoConnected struct {
	SessionID string
}

type DisconnectStream struct {
	SessionID string
	TargetID  string
}

type AddChatMessage struct {
	SessionID string
	Content   string
}

type SetSeat struct {
	SessionID string
	Request   models.SitRequest
}

func (ConnectToComputer) isCommand()        {}
func (DisconnectFromComputer) isCommand()   {}
func (StopScreenShare) isCommand()          {}
func (ConnectToWhiteboard) isCommand()      {}
func (DisconnectFromWhiteboard) isCommand() {}
func (UpdatePlayer) isCommand()             {}
func (UpdatePlayerName) isCommand()         {}
func (SetReadyToConnect) isCommand()        {}
func (SetVideoConnected) isCommand()        {}
func (DisconnectStream) isCommand()         {}
func (AddChatMessage) isCommand()           {}
func (SetSeat) isCommand()                  {}

// SeatRemove is the sentinel seat id meaning "stand up from whatever seat
// this player currently holds".
const SeatRemove = -1

// execute runs one command against the room state. It always runs on the
// room loop. Reference errors (stale computer/whiteboard/player ids) are
// logged and the command dropped; they never propagate.
func (r *Room) execute(cmd Command) {
	switch c := cmd.(type) {
	case ConnectToComputer:
		player, ok := r.state.GetPlayer(c.SessionID)
		if !ok {
			logger.Log.Warnf("Room %s: connect to computer from unknown player %s", r.Number, c.SessionID)
			return
		}
		if err := r.state.ConnectComputer(c.ComputerID, c.SessionID, player.WebRTCId); err != nil {
			logger.Log.Warnf("Room %s: %v (computer %s)", r.Number, err, c.ComputerID)
			return
		}
		r.publish()

	case DisconnectFromComputer:
		webRTCId := ""
		if player, ok := r.state.GetPlayer(c.SessionID); ok {
			webRTCId = player.WebRTCId
		}
		if err := r.state.DisconnectComputer(c.ComputerID, c.SessionID, webRTCId); err != nil {
			logger.Log.Warnf("Room %s: %v (computer %s)", r.Number, err, c.ComputerID)
			return
		}
		r.publish()

	case StopScreenShare:
		// Notify-only: no state change. Queued with the rest so the signal
		// keeps its order relative to membership changes.
		computer, ok := r.state.GetComputer(c.ComputerID)
		if !ok {
			logger.Log.Warnf("Room %s: stop screen share on unknown computer %s", r.Number, c.ComputerID)
			return
		}
		player, ok := r.state.GetPlayer(c.SessionID)
		if !ok {
			logger.Log.Warnf("Room %s: stop screen share from unknown player %s", r.Number, c.SessionID)
			return
		}
		data, _ := json.Marshal(models.StreamSignal{WebRTCId: player.WebRTCId})
		for memberID := range computer.ConnectedUser {
			if memberID == c.SessionID {
				continue
			}
			r.relay.SendTo(memberID, network.MsgTypeStopScreenShare, data)
		}

	case ConnectToWhiteboard:
		board, ok := r.state.GetWhiteboard(c.WhiteboardID)
		if !ok {
			logger.Log.Warnf("Room %s: unknown whiteboard %s", r.Number, c.WhiteboardID)
			return
		}
		if board.RoomID == "" {
			r.state.SetWhiteboardRoomID(c.WhiteboardID, r.boards.Reserve())
		}
		r.state.ConnectWhiteboard(c.WhiteboardID, c.SessionID)
		r.publish()

	case DisconnectFromWhiteboard:
		if err := r.state.DisconnectWhiteboard(c.WhiteboardID, c.SessionID); err != nil {
			logger.Log.Warnf("Room %s: %v (whiteboard %s)", r.Number, err, c.WhiteboardID)
			return
		}
		r.publish()

	case UpdatePlayer:
		if err := r.state.UpdatePlayerTransform(c.SessionID, c.X, c.Y, c.Anim); err != nil {
			logger.Log.Warnf("Room %s: %v (session %s)", r.Number, err, c.SessionID)
			return
		}
		r.publish()

	case UpdatePlayerName:
		if err := r.state.SetPlayerName(c.SessionID, c.Name); err != nil {
			logger.Log.Warnf("Room %s: %v (session %s)", r.Number, err, c.SessionID)
			return
		}
		r.publish()

	case SetReadyToConnect:
		if err := r.state.SetReadyToConnect(c.SessionID); err != nil {
			logger.Log.Warnf("Room %s: %v (session %s)", r.Number, err, c.SessionID)
			return
		}
		r.publish()

	case SetVideoConnected:
		if err := r.state.SetVideoConnected(c.SessionID); err != nil {
			logger.Log.Warnf("Room %s: %v (session %s)", r.Number, err, c.SessionID)
			return
		}
		r.publish()

	case DisconnectStream:
		// Notify-only. A disconnected target is a silent no-op.
		player, ok := r.state.GetPlayer(c.SessionID)
		if !ok {
			logger.Log.Warnf("Room %s: disconnect stream from unknown player %s", r.Number, c.SessionID)
			return
		}
		data, _ := json.Marshal(models.StreamSignal{WebRTCId: player.WebRTCId})
		r.relay.SendTo(c.TargetID, network.MsgTypeDisconnectStream, data)

	case AddChatMessage:
		if _, ok := r.state.GetPlayer(c.SessionID); !ok {
			logger.Log.Warnf("Room %s: chat from unknown player %s", r.Number, c.SessionID)
			return
		}
		now := time.Now()
		r.state.AppendChatMessage(c.SessionID, c.Content, now.UnixMilli())
		if r.archiver != nil {
			r.archiver.ArchiveChatMessage(models.ChatRecord{
				RoomNumber: r.Number,
				Author:     c.SessionID,
				Content:    c.Content,
				CreatedAt:  now,
			})
		}
		// The sender already rendered its own message locally.
		data, _ := json.Marshal(models.ChatBroadcast{ClientID: c.SessionID, Content: c.Content})
		r.broadcaster.BroadcastToRoomExcept(r.ID, c.SessionID, network.MsgTypeAddChatMessage, data)
		r.publish()

	case SetSeat:
		if c.Request.ID == SeatRemove {
			chairs := r.chairs[:0]
			for _, slot := range r.chairs {
				if slot.PlayerID != c.Request.Player {
					chairs = append(chairs, slot)
				}
			}
			r.chairs = chairs
		} else {
			// Repeated sits for the same player append duplicate entries.
			r.chairs = append(r.chairs, models.ChairSlot{ID: c.Request.ID, PlayerID: c.Request.Player})
		}
		if c.Request.IsBroadcast {
			data, _ := json.Marshal(models.SitBroadcast{ClientID: c.SessionID, Content: c.Request})
			r.broadcaster.BroadcastToRoomExcept(r.ID, c.SessionID, network.MsgTypePlayerSitBroadcast, data)
		}
	}
}
