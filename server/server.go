package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/officeserver/broadcast"
	"github.com/wfunc/officeserver/config"
	"github.com/wfunc/officeserver/logger"
	"github.com/wfunc/officeserver/models"
	"github.com/wfunc/officeserver/monitor"
	"github.com/wfunc/officeserver/network"
	"github.com/wfunc/officeserver/registry"
	"github.com/wfunc/officeserver/replication"
	"github.com/wfunc/officeserver/room"
	officerpc "github.com/wfunc/officeserver/rpc"
	"github.com/wfunc/officeserver/services"
	"github.com/wfunc/officeserver/session"
	"github.com/wfunc/officeserver/timer"
)

type OfficeServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    room.Broadcaster
	replicator     room.Replicator
	archiver       room.Archiver
	boards         *registry.WhiteboardRegistry
	monitor        *monitor.Monitor
	timers         *timer.TimerManager
	rpcServer      *officerpc.Server
	shutdownChan   chan struct{}
}

// NewOfficeServer wires the managers, the replication boundary and the admin
// RPC endpoint. archiver and studentService may be nil when the database is
// disabled.
func NewOfficeServer(cfg *config.Config, boards *registry.WhiteboardRegistry, archiver room.Archiver, studentService *services.StudentService) *OfficeServer {
	s := &OfficeServer{
		cfg:            cfg,
		roomManager:    room.NewManager(),
		sessionManager: session.NewManager(),
		archiver:       archiver,
		boards:         boards,
		monitor:        monitor.NewMonitor("officeserver"),
		timers:         timer.NewTimerManager(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)
	s.replicator = replication.NewPatchReplicator()

	rpcServer, err := officerpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	officeService := officerpc.NewOfficeService(studentService, s.roomManager)
	rpc.Register(officeService)

	// Idle sweep runs at the transport boundary: a silent session gets its
	// connection closed and cleanup flows through the normal leave path.
	idle := cfg.Office.SessionIdleTimeout
	if idle > 0 {
		s.timers.AddTimer(idle, idle/2, func() {
			now := time.Now()
			s.sessionManager.Each(func(sess *session.Session) {
				if sess.IdleSince(now) > idle {
					logger.Log.Infof("Session %s idle for %v, closing", sess.ID, sess.IdleSince(now))
					sess.Close()
				}
			})
		})
	}

	return s
}

func (s *OfficeServer) Start() error {
	go s.rpcServer.Start()
	s.monitor.StartServer(s.cfg.Server.MetricsAddress)

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Office server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, nil)
}

func (s *OfficeServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

func (s *OfficeServer) deps() room.Deps {
	return room.Deps{
		Broadcaster: s.broadcaster,
		Relay:       s.sessionManager,
		Replicator:  s.replicator,
		Archiver:    s.archiver,
		Boards:      s.boards,
		Computers:   s.cfg.Office.ComputersPerRoom,
		Whiteboards: s.cfg.Office.WhiteboardsPerRoom,
	}
}

func (s *OfficeServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *OfficeServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	if s.cfg.Office.SessionIdleTimeout > 0 {
		wsConn.SetIdleTimeout(s.cfg.Office.SessionIdleTimeout)
	}
	sess := session.NewSession(uuid.New().String(), wsConn)

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
	defer wsConn.Close()

	// First packet must be the join request.
	packet, err := wsConn.ReadPacket()
	if err != nil || packet.MsgID != network.MsgTypeJoinRoom {
		logger.Log.Warnf("Session %s did not open with a join request", sess.GetID())
		return
	}
	var opts models.JoinOptions
	if err := json.Unmarshal(packet.Data, &opts); err != nil {
		logger.Log.Warnf("Session %s sent a malformed join payload: %v", sess.GetID(), err)
		return
	}
	if opts.RoomNumber == "" {
		logger.Log.Warnf("Session %s requested a join without a room number", sess.GetID())
		return
	}

	activeRoom, created, err := s.roomManager.GetOrCreate(opts, s.deps())
	if err != nil {
		logger.Log.Errorf("Failed to create room %s: %v", opts.RoomNumber, err)
		return
	}
	if created {
		logger.Log.Infof("Room %s created (auto-dispose: %v)", opts.RoomNumber, opts.AutoDispose)
	}
	s.monitor.SetActiveRooms(s.roomManager.Count())

	if err := activeRoom.Join(sess, opts); err != nil {
		s.rejectJoin(sess, err)
		// A rejected join must not leak the room it just created.
		if created && opts.AutoDispose && activeRoom.PlayerCount() == 0 {
			s.roomManager.Remove(opts.RoomNumber)
			s.monitor.SetActiveRooms(s.roomManager.Count())
		}
		return
	}

	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	consented := false
	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s (consented: %v)", wsConn.RemoteAddr(), sess.GetID(), consented)
		activeRoom.Leave(sess.GetID(), consented)
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		s.monitor.SetActiveRooms(s.roomManager.Count())
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			sess.Touch()
			if packet.MsgID == network.MsgTypeLeaveRoom {
				consented = true
				return
			}
			start := time.Now()
			s.handlePacket(activeRoom, sess, packet)
			s.monitor.IncMessagesReceived()
			s.monitor.ObserveMessageLatency(time.Since(start))
		}
	}
}

func (s *OfficeServer) rejectJoin(sess *session.Session, err error) {
	rejected, ok := err.(*room.RejectedError)
	if !ok {
		rejected = &room.RejectedError{Code: 500, Reason: "join failed"}
	}
	logger.Log.Infof("Session %s rejected: %s", sess.GetID(), rejected.Reason)
	s.monitor.IncJoinRejections(rejected.Reason)
	data, _ := json.Marshal(models.JoinRejected{Code: rejected.Code, Message: rejected.Reason})
	sess.Send(network.MsgTypeJoinRejected, data)
}

// handlePacket maps an inbound message to its command and queues it on the
// room. Malformed payloads are dropped with a warning.
func (s *OfficeServer) handlePacket(r *room.Room, sess *session.Session, packet *network.Packet) {
	sessionID := sess.GetID()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		// Touch already happened.

	case network.MsgTypeConnectToComputer:
		var req models.ComputerRequest
		if !decode(packet, &req, sessionID) {
			return
		}
		r.Dispatch(room.ConnectToComputer{SessionID: sessionID, ComputerID: req.ComputerID})

	case network.MsgTypeDisconnectFromComputer:
		var req models.ComputerRequest
		if !decode(packet, &req, sessionID) {
			return
		}
		r.Dispatch(room.DisconnectFromComputer{SessionID: sessionID, ComputerID: req.ComputerID})

	case network.MsgTypeStopScreenShare:
		var req models.ComputerRequest
		if !decode(packet, &req, sessionID) {
			return
		}
		r.Dispatch(room.StopScreenShare{SessionID: sessionID, ComputerID: req.ComputerID})

	case network.MsgTypeConnectToWhiteboard:
		var req models.WhiteboardRequest
		if !decode(packet, &req, sessionID) {
			return
		}
		r.Dispatch(room.ConnectToWhiteboard{SessionID: sessionID, WhiteboardID: req.WhiteboardID})

	case network.MsgTypeDisconnectFromWhiteboard:
		var req models.WhiteboardRequest
		if !decode(packet, &req, sessionID) {
			return
		}
		r.Dispatch(room.DisconnectFromWhiteboard{SessionID: sessionID, WhiteboardID: req.WhiteboardID})

	case network.MsgTypeUpdatePlayer:
		var req models.PlayerUpdate
		if !decode(packet, &req, sessionID) {
			return
		}
		r.Dispatch(room.UpdatePlayer{SessionID: sessionID, X: req.X, Y: req.Y, Anim: req.Anim})

	case network.MsgTypeUpdatePlayerName:
		var req models.PlayerNameUpdate
		if !decode(packet, &req, sessionID) {
			return
		}
		r.Dispatch(room.UpdatePlayerName{SessionID: sessionID, Name: req.Name})

	case network.MsgTypeReadyToConnect:
		r.Dispatch(room.SetReadyToConnect{SessionID: sessionID})

	case network.MsgTypeVideoConnected:
		r.Dispatch(room.SetVideoConnected{SessionID: sessionID})

	case network.MsgTypeDisconnectStream:
		var req models.StreamDisconnect
		if !decode(packet, &req, sessionID) {
			return
		}
		r.Dispatch(room.DisconnectStream{SessionID: sessionID, TargetID: req.ClientID})

	case network.MsgTypeAddChatMessage:
		var req models.ChatRequest
		if !decode(packet, &req, sessionID) {
			return
		}
		r.Dispatch(room.AddChatMessage{SessionID: sessionID, Content: req.Content})

	case network.MsgTypePlayerSit:
		var req models.SitRequest
		if !decode(packet, &req, sessionID) {
			return
		}
		r.Dispatch(room.SetSeat{SessionID: sessionID, Request: req})

	case network.MsgTypeRoomData:
		// Informational request: answer with the current metadata.
		data, err := json.Marshal(r.Metadata())
		if err != nil {
			return
		}
		sess.Send(network.MsgTypeRoomData, data)

	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func decode(packet *network.Packet, v interface{}, sessionID string) bool {
	if err := json.Unmarshal(packet.Data, v); err != nil {
		logger.Log.Warnf("Session %s sent malformed payload for message %d: %v", sessionID, packet.MsgID, err)
		return false
	}
	return true
}
