package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/officeserver/logger"
	"github.com/wfunc/officeserver/models"
	"github.com/wfunc/officeserver/room"
	"github.com/wfunc/officeserver/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// OfficeService exposes admin queries over net/rpc: exported methods,
// exported argument structs, reply pointer, error return.
type OfficeService struct {
	studentService *services.StudentService
	roomManager    *room.Manager
}

func NewOfficeService(ss *services.StudentService, rm *room.Manager) *OfficeService {
	return &OfficeService{studentService: ss, roomManager: rm}
}

type GetStudentArgs struct {
	StudentID int64
}

type GetStudentReply struct {
	Data map[string]interface{}
}

func (os *OfficeService) GetStudentWithStats(args *GetStudentArgs, reply *GetStudentReply) error {
	if os.studentService == nil {
		return errors.New("student roster is not configured")
	}
	data, err := os.studentService.GetStudentWithStats(args.StudentID)
	if err != nil {
		return err
	}
	reply.Data = data
	return nil
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []models.RoomMetadata
}

// ListRooms returns the metadata of every live room, seat lists included.
func (os *OfficeService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = os.roomManager.ListMetadata()
	return nil
}
