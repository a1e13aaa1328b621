package network

// Message ids carried in the packet header. Payloads are JSON, see models.
const (
	MsgTypeHeartbeat = 1

	MsgTypeJoinRoom     = 101
	MsgTypeJoinRejected = 102
	MsgTypeLeaveRoom    = 103
	MsgTypeRoomData     = 110

	MsgTypeConnectToComputer        = 201
	MsgTypeDisconnectFromComputer   = 202
	MsgTypeStopScreenShare          = 203
	MsgTypeConnectToWhiteboard      = 204
	MsgTypeDisconnectFromWhiteboard = 205

	MsgTypeUpdatePlayer     = 301
	MsgTypeUpdatePlayerName = 302
	MsgTypeReadyToConnect   = 303
	MsgTypeVideoConnected   = 304
	MsgTypeDisconnectStream = 305

	MsgTypeAddChatMessage     = 401
	MsgTypePlayerSit          = 402
	MsgTypePlayerSitBroadcast = 403

	MsgTypeStateFull  = 501
	MsgTypeStatePatch = 502
)
