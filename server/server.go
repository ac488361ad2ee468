package server

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/stakehall/matchengine/bot"
	"github.com/stakehall/matchengine/broadcast"
	"github.com/stakehall/matchengine/config"
	"github.com/stakehall/matchengine/game"
	"github.com/stakehall/matchengine/logger"
	"github.com/stakehall/matchengine/models"
	"github.com/stakehall/matchengine/monitor"
	"github.com/stakehall/matchengine/network"
	"github.com/stakehall/matchengine/persistence"
	"github.com/stakehall/matchengine/room"
	enginerpc "github.com/stakehall/matchengine/rpc"
	"github.com/stakehall/matchengine/session"
	"github.com/stakehall/matchengine/timer"
)

const heartbeatInterval = 30 * time.Second

// joinRequest is the payload of MsgTypeJoinMatch. Account identity is
// trusted from the upstream gateway; the engine performs no authentication.
type joinRequest struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	Variant   string `json:"variant"`
	Stake     int64  `json:"stake"`
	// FillHouse starts the match immediately, binding every remaining seat
	// to the house account instead of waiting for more humans.
	FillHouse bool `json:"fill_house,omitempty"`
}

type joinReply struct {
	RoomID string `json:"room_id"`
	Seat   int    `json:"seat"`
}

type errorReply struct {
	Message string `json:"message"`
}

// MatchServer accepts websocket connections, runs matchmaking, and routes
// packets between sessions and their rooms.
type MatchServer struct {
	addr     string
	upgrader websocket.Upgrader

	cfg       *config.Config
	store     persistence.Store
	rooms     *room.Manager
	sessions  *session.Manager
	bots      *bot.Engine
	scheduler *timer.Manager

	broadcaster *broadcast.RoomBroadcaster
	rpcServer   *enginerpc.Server
	mon         *monitor.Monitor

	mutex        sync.Mutex
	shutdownChan chan struct{}
}

func NewMatchServer(cfg *config.Config, store persistence.Store, scheduler *timer.Manager, mon *monitor.Monitor) (*MatchServer, error) {
	s := &MatchServer{
		addr:      cfg.Server.HTTPAddress,
		cfg:       cfg,
		store:     store,
		rooms:     room.NewManager(),
		sessions:  session.NewManager(),
		scheduler: scheduler,
		mon:       mon,
		bots: bot.New(bot.Config{
			PartnerErrorRate: cfg.Engine.PartnerBotErrorRate,
		}),
		shutdownChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // origin filtering belongs to the gateway
			},
		},
	}
	s.broadcaster = broadcast.NewRoomBroadcaster(s.rooms, s.sessions)

	rpcServer, err := enginerpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		return nil, err
	}
	s.rpcServer = rpcServer

	admin := enginerpc.NewAdminService(store, s.rooms)
	if err := admin.Register(); err != nil {
		return nil, err
	}
	return s, nil
}

// Rooms exposes the room manager for recovery and admin wiring.
func (s *MatchServer) Rooms() *room.Manager {
	return s.rooms
}

// Broadcaster exposes the room broadcaster for recovery wiring.
func (s *MatchServer) Broadcaster() *broadcast.RoomBroadcaster {
	return s.broadcaster
}

// Bots exposes the shared automated-decision engine.
func (s *MatchServer) Bots() *bot.Engine {
	return s.bots
}

// RoomConfig derives the per-room tuning from the engine configuration.
func (s *MatchServer) RoomConfig() room.Config {
	return room.Config{
		GracePeriod:  s.cfg.Engine.GracePeriod,
		CleanupDelay: s.cfg.Engine.CleanupDelay,
		BotDelayMin:  s.cfg.Engine.BotDelayMin,
		BotDelayMax:  s.cfg.Engine.BotDelayMax,
	}
}

// Options derives the static per-variant rule tuning.
func (s *MatchServer) Options() game.Options {
	return game.Options{
		TargetScore: s.cfg.Engine.TargetScore,
		Ante:        s.cfg.Engine.DrawBetAnte,
		RaiseCap:    s.cfg.Engine.DrawBetRaiseCap,
	}
}

func (s *MatchServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("match server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *MatchServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
}

func (s *MatchServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("websocket upgrade failed: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *MatchServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessions.Add(sess)
	s.mon.IncOnlineSessions()

	logger.Log.Infow("connection opened", "remote", wsConn.RemoteAddr().String(), "session", sess.GetID())

	defer func() {
		logger.Log.Infow("connection closed", "session", sess.GetID())
		s.detachFromRoom(sess)
		s.sessions.Remove(sess.GetID())
		s.mon.DecOnlineSessions()
		wsConn.Close()
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
			s.handlePacket(sess, packet)
		}
	}
}

// detachFromRoom hands the seat to the grace-period machinery. A started
// match keeps running; the seat goes automated if no reattach happens.
func (s *MatchServer) detachFromRoom(sess *session.Session) {
	if sess.RoomID == "" || sess.SeatIndex < 0 {
		return
	}
	if r, ok := s.rooms.Get(sess.RoomID); ok {
		r.Detach(sess.SeatIndex)
	}
}

func (s *MatchServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.LastActive = time.Now()
		_ = sess.Send(network.MsgTypeHeartbeat, nil)
	case network.MsgTypeJoinMatch:
		s.handleJoin(sess, packet)
	case network.MsgTypeLeaveMatch:
		s.handleLeave(sess)
	case network.MsgTypeAction:
		s.handleAction(sess, packet)
	default:
		logger.Log.Infof("unknown message type %d from session %s", packet.MsgID, sess.GetID())
	}
}

func (s *MatchServer) sendError(sess *session.Session, message string) {
	_ = sess.SendJSON(network.MsgTypeError, &errorReply{Message: message})
}

// handleJoin runs matchmaking: reattach to a running match first, then a
// forming room with the same variant and stake, else a fresh room.
func (s *MatchServer) handleJoin(sess *session.Session, packet *network.Packet) {
	var req joinRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "undecodable join payload")
		return
	}
	if req.AccountID <= 0 || req.AccountID == models.HouseAccountID {
		s.sendError(sess, "invalid account")
		return
	}
	if req.Stake < 0 || (s.cfg.Engine.MaxStake > 0 && req.Stake > s.cfg.Engine.MaxStake) {
		s.sendError(sess, "stake out of range")
		return
	}
	variant := game.Variant(req.Variant)
	rules, err := game.NewRules(variant, s.Options())
	if err != nil {
		s.sendError(sess, "unknown game variant")
		return
	}
	if err := s.store.EnsureAccount(req.AccountID, req.Name, 0); err != nil {
		logger.Log.Errorw("ensure account", "account", req.AccountID, "err", err)
		s.sendError(sess, "account unavailable")
		return
	}
	sess.Bind(req.AccountID)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	// A disconnected seat in a running match takes priority over new
	// matchmaking: the account picks up exactly where it left.
	if s.reattach(sess, req.AccountID) {
		return
	}

	r := s.rooms.FindForming(variant, req.Stake)
	if r == nil {
		r = s.createRoom(rules, req.Stake)
	}
	seat, err := r.JoinSeat(req.AccountID, req.Name)
	if err != nil {
		s.sendError(sess, err.Error())
		return
	}
	if err := r.Attach(seat, sess); err != nil {
		s.sendError(sess, err.Error())
		return
	}
	_ = sess.SendJSON(network.MsgTypeJoined, &joinReply{RoomID: r.ID, Seat: seat})
	logger.Log.Infow("seat joined", "room", r.ID, "seat", seat, "account", req.AccountID)

	if req.FillHouse {
		r.FillWithHouse(models.HouseAccountID)
	}
	if r.Full() && !r.Started() {
		s.startMatch(r)
	}
}

// reattach reconnects the session to a seat its account already holds in a
// live room. Returns true when a reattach happened (or was attempted).
func (s *MatchServer) reattach(sess *session.Session, accountID int64) bool {
	for _, r := range s.rooms.All() {
		if !r.Started() || r.Ended() {
			continue
		}
		for _, seat := range r.Seats() {
			if seat.AccountID != accountID || seat.House || seat.Connected {
				continue
			}
			if err := r.Attach(seat.Index, sess); err != nil {
				s.sendError(sess, err.Error())
				return true
			}
			_ = sess.SendJSON(network.MsgTypeJoined, &joinReply{RoomID: r.ID, Seat: seat.Index})
			logger.Log.Infow("seat reattached", "room", r.ID, "seat", seat.Index, "account", accountID)
			return true
		}
	}
	return false
}

func (s *MatchServer) createRoom(rules game.Rules, stake int64) *room.Room {
	roomID := uuid.New().String()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	table := game.NewTable(rules.Variant(), rules.SeatCount(), stake, rng)
	r := room.NewRoom(roomID, rules, table, s.RoomConfig(),
		s.bots, s.store, s.broadcaster, s.scheduler, s.onRoomEnded)
	r.SetRecorder(s.mon)
	s.rooms.Add(r)
	s.mon.SetActiveRooms(s.rooms.Count())
	logger.Log.Infow("room created", "room", roomID, "variant", rules.Variant(), "stake", stake)
	return r
}

func (s *MatchServer) onRoomEnded(roomID string) {
	if r, ok := s.rooms.Get(roomID); ok && r.Started() {
		s.mon.IncSettlement()
	}
	s.rooms.Remove(roomID)
	s.mon.SetActiveRooms(s.rooms.Count())
}

// startMatch persists the match, locks every seat's stake in one
// transaction, and deals the first round. A failed lock aborts the match
// with no partial debits; every seated session is told why.
func (s *MatchServer) startMatch(r *room.Room) {
	match := &models.Match{
		MatchID:   r.ID,
		Variant:   string(r.Variant),
		Stake:     r.Stake(),
		SeatCount: len(r.Seats()),
		Status:    models.MatchForming,
	}
	for _, seat := range r.Seats() {
		match.Seats = append(match.Seats, models.MatchSeat{
			MatchID:   r.ID,
			SeatIndex: seat.Index,
			AccountID: seat.AccountID,
			House:     seat.House,
		})
	}
	if err := s.store.CreateMatch(match); err != nil {
		logger.Log.Errorw("persist match", "room", r.ID, "err", err)
		s.abortRoom(r, "match could not be persisted")
		return
	}
	if err := s.store.Lock(r.ID); err != nil {
		logger.Log.Warnw("stake lock failed", "room", r.ID, "err", err)
		s.abortRoom(r, "stake could not be locked: "+err.Error())
		return
	}
	if err := r.Start(); err != nil {
		logger.Log.Errorw("room start", "room", r.ID, "err", err)
		s.abortRoom(r, "match could not start")
		return
	}
	logger.Log.Infow("match started", "room", r.ID, "variant", r.Variant, "stake", r.Stake())
}

func (s *MatchServer) abortRoom(r *room.Room, reason string) {
	for _, sess := range r.Sessions() {
		_ = sess.SendJSON(network.MsgTypeError, &errorReply{Message: reason})
	}
	r.Close()
}

// handleLeave is a voluntary exit. The seat enters the same grace flow as
// a dropped connection, so an accidental leave is still recoverable.
func (s *MatchServer) handleLeave(sess *session.Session) {
	s.detachFromRoom(sess)
	sess.RoomID = ""
	sess.SeatIndex = -1
}

func (s *MatchServer) handleAction(sess *session.Session, packet *network.Packet) {
	if sess.RoomID == "" || sess.SeatIndex < 0 {
		s.sendError(sess, "not seated in a match")
		return
	}
	r, ok := s.rooms.Get(sess.RoomID)
	if !ok {
		s.sendError(sess, "room not found")
		return
	}
	started := time.Now()
	if err := r.SubmitRaw(sess.SeatIndex, packet.Data); err != nil {
		logger.Log.Warnw("action submit", "room", r.ID, "seat", sess.SeatIndex, "err", err)
		return
	}
	s.mon.IncActionApplied(string(r.Variant))
	s.mon.ObserveActionLatency(time.Since(started))
}
