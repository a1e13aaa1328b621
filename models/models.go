// models/models.go
package models

import "time"

// JoinOptions is the payload of the first packet a client sends after the
// websocket upgrade. Room fields are only honored when the room does not
// exist yet; player fields seed the new player entity.
type JoinOptions struct {
	RoomNumber  string `json:"roomNumber"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Password    string `json:"password"`
	AutoDispose bool   `json:"autoDispose"`

	PlayerName     string  `json:"playerName"`
	PlayerAnim     string  `json:"playerAnim"`
	EnterX         float64 `json:"enterX"`
	EnterY         float64 `json:"enterY"`
	WebRTCId       string  `json:"webRTCId"`
	VideoConnected bool    `json:"videoConnected"`
	ReadyToConnect bool    `json:"readyToConnect"`
	StudentID      int64   `json:"studentId"`
}

// JoinRejected is sent back when authentication fails; the connection is
// closed right after.
type JoinRejected struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RoomDescriptor is pushed to a client immediately after a successful join,
// before the first state sync.
type RoomDescriptor struct {
	Name        string `json:"name"`
	RoomNumber  string `json:"roomNumber"`
	Description string `json:"description"`
}

// ChairSlot is one entry of the ephemeral seat list kept in room metadata.
type ChairSlot struct {
	ID       int    `json:"id"`
	PlayerID string `json:"playerId"`
}

// RoomMetadata is the externally queryable, non-replicated room summary.
type RoomMetadata struct {
	Name        string      `json:"name"`
	RoomNumber  string      `json:"roomNumber"`
	Description string      `json:"description"`
	HasPassword bool        `json:"hasPassword"`
	Chair       []ChairSlot `json:"chair"`
}

// Inbound command payloads.

type ComputerRequest struct {
	ComputerID string `json:"computerId"`
}

type WhiteboardRequest struct {
	WhiteboardID string `json:"whiteboardId"`
}

type PlayerUpdate struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Anim string  `json:"anim"`
}

type PlayerNameUpdate struct {
	Name string `json:"name"`
}

type StreamDisconnect struct {
	ClientID string `json:"clientId"`
}

type ChatRequest struct {
	Content string `json:"content"`
}

// SitRequest moves or clears a player's seat. ID == -1 means "stand up":
// remove whatever seat the player currently holds.
type SitRequest struct {
	ID          int    `json:"id"`
	Player      string `json:"player"`
	IsBroadcast bool   `json:"isBroadcast"`
	IsSit       bool   `json:"isSit"`
}

// Outbound side-channel payloads.

type ChatBroadcast struct {
	ClientID string `json:"clientId"`
	Content  string `json:"content"`
}

type SitBroadcast struct {
	ClientID string     `json:"clientId"`
	Content  SitRequest `json:"content"`
}

type StreamSignal struct {
	WebRTCId string `json:"webRTCId"`
}

// ChatRecord is the archival form of a chat message.
type ChatRecord struct {
	RoomNumber string    `json:"room_number"`
	Author     string    `json:"author"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
