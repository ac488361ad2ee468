package rpc

import (
	"net"
	"net/rpc"

	"github.com/stakehall/matchengine/logger"
	"github.com/stakehall/matchengine/persistence"
	"github.com/stakehall/matchengine/room"
)

// Server manages the admin RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates the listener. Services are registered by the caller
// through net/rpc before Start.
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
	logger.Log.Infof("admin RPC listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("admin RPC listener closed")
				return
			}
			logger.Log.Errorf("admin RPC accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("stopping admin RPC server")
		s.listener.Close()
	}
}

// AdminService exposes operational queries over net/rpc. Methods follow
// the net/rpc signature rules: exported, pointer reply, error return.
type AdminService struct {
	store persistence.Store
	rooms *room.Manager
}

func NewAdminService(store persistence.Store, rooms *room.Manager) *AdminService {
	return &AdminService{store: store, rooms: rooms}
}

// Register installs the service under the default net/rpc server.
func (as *AdminService) Register() error {
	return rpc.RegisterName("Admin", as)
}

type HouseBalanceArgs struct{}

type HouseBalanceReply struct {
	Balance int64
}

func (as *AdminService) HouseBalance(args *HouseBalanceArgs, reply *HouseBalanceReply) error {
	balance, err := as.store.HouseBalance()
	if err != nil {
		return err
	}
	reply.Balance = balance
	return nil
}

type ActiveRoomsArgs struct{}

type RoomInfo struct {
	RoomID  string
	Variant string
	Stake   int64
	Started bool
}

type ActiveRoomsReply struct {
	Rooms []RoomInfo
}

func (as *AdminService) ActiveRooms(args *ActiveRoomsArgs, reply *ActiveRoomsReply) error {
	for _, r := range as.rooms.All() {
		reply.Rooms = append(reply.Rooms, RoomInfo{
			RoomID:  r.ID,
			Variant: string(r.Variant),
			Stake:   r.Stake(),
			Started: r.Started(),
		})
	}
	return nil
}

type MatchStatusArgs struct {
	MatchID string
}

type MatchStatusReply struct {
	Variant string
	Stake   int64
	Status  string
}

func (as *AdminService) MatchStatus(args *MatchStatusArgs, reply *MatchStatusReply) error {
	m, err := as.store.GetMatch(args.MatchID)
	if err != nil {
		return err
	}
	reply.Variant = m.Variant
	reply.Stake = m.Stake
	reply.Status = m.Status
	return nil
}
