// room/room.go
package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stakehall/matchengine/bot"
	"github.com/stakehall/matchengine/escrow"
	"github.com/stakehall/matchengine/game"
	"github.com/stakehall/matchengine/logger"
	"github.com/stakehall/matchengine/network"
	"github.com/stakehall/matchengine/session"
	"github.com/stakehall/matchengine/state"
)

var (
	ErrRoomFull       = errors.New("room is full")
	ErrRoomStarted    = errors.New("match already started")
	ErrSeatUnbound    = errors.New("seat not bound")
	ErrRoomProcessing = errors.New("room is processing another action")
)

// Config is the static room tuning taken from the engine configuration.
type Config struct {
	GracePeriod  time.Duration
	CleanupDelay time.Duration
	BotDelayMin  time.Duration
	BotDelayMax  time.Duration
}

// Summary is the terminal broadcast sent once at settlement.
type Summary struct {
	RoomID     string        `json:"room_id"`
	Winners    []int         `json:"winners"`
	TotalStake int64         `json:"total_stake"`
	Fee        int64         `json:"fee"`
	Pot        int64         `json:"pot"`
	Payouts    map[int]int64 `json:"payouts,omitempty"`
}

// Room supervises one match: connection attach/detach, grace timers,
// automated-control handoff, and strictly serialized application of
// actions. At most one decision is in flight per room.
type Room struct {
	ID      string
	Variant game.Variant

	rules game.Rules
	table *game.Table

	mu         sync.Mutex
	processing bool

	// sessMu guards the sessions map on its own so the broadcaster can
	// look up sessions while an action holds mu. Writers hold both locks,
	// mu first.
	sessMu   sync.RWMutex
	sessions map[int]*session.Session
	presence []*state.Machine
	bound    []bool

	graceTimers  map[int]int64
	botTimer     int64
	botSeat      int
	botVersion   uint64
	cleanupTimer int64
	tickTimer    int64

	started bool
	ended   bool

	cfg         Config
	bots        *bot.Engine
	ledger      escrow.Ledger
	broadcaster Broadcaster
	scheduler   Scheduler
	recorder    Recorder
	onEnded     func(roomID string)
}

// NewRoom builds a waiting room around a prepared table. onEnded fires
// after settlement or teardown so the owner can drop the room.
func NewRoom(id string, rules game.Rules, table *game.Table, cfg Config,
	bots *bot.Engine, ledger escrow.Ledger, broadcaster Broadcaster,
	scheduler Scheduler, onEnded func(roomID string)) *Room {

	r := &Room{
		ID:          id,
		Variant:     rules.Variant(),
		rules:       rules,
		table:       table,
		sessions:    make(map[int]*session.Session),
		presence:    make([]*state.Machine, len(table.Seats)),
		bound:       make([]bool, len(table.Seats)),
		graceTimers: make(map[int]int64),
		cfg:         cfg,
		bots:        bots,
		ledger:      ledger,
		broadcaster: broadcaster,
		scheduler:   scheduler,
		onEnded:     onEnded,
	}
	r.tickTimer = scheduler.AddTimer(time.Second, time.Second, r.Tick)
	return r
}

// SetRecorder attaches the counter sink. Call before Start.
func (r *Room) SetRecorder(rec Recorder) {
	r.recorder = rec
}

// JoinSeat binds the next free seat to an account and returns its index.
func (r *Room) JoinSeat(accountID int64, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return -1, ErrRoomStarted
	}
	for i, taken := range r.bound {
		if taken {
			continue
		}
		r.bound[i] = true
		s := r.table.Seats[i]
		s.AccountID = accountID
		s.Name = name
		s.Connected = true
		r.presence[i] = state.NewMachine()
		return i, nil
	}
	return -1, ErrRoomFull
}

// BindHouseSeat fills one seat with the house's automated participant.
// Used when a forming room starts short of humans and during recovery.
func (r *Room) bindHouseSeatLocked(i int, accountID int64) {
	r.bound[i] = true
	s := r.table.Seats[i]
	s.AccountID = accountID
	s.Name = fmt.Sprintf("house-%d", i+1)
	s.House = true
	s.Automated = true
	r.presence[i] = state.NewMachine()
	r.presence[i].ForceAutomated()
}

// RestoreSeat rebinds one seat from its persisted match row. Only the
// recovery path uses this, before forcing the room under automated control.
func (r *Room) RestoreSeat(i int, accountID int64, name string, house bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrRoomStarted
	}
	s := r.table.SeatAt(i)
	if s == nil {
		return fmt.Errorf("%w: seat %d", ErrSeatUnbound, i)
	}
	r.bound[i] = true
	s.AccountID = accountID
	s.Name = name
	s.House = house
	r.presence[i] = state.NewMachine()
	return nil
}

// FillWithHouse binds every unbound seat to the house account.
func (r *Room) FillWithHouse(houseAccountID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, taken := range r.bound {
		if !taken {
			r.bindHouseSeatLocked(i, houseAccountID)
		}
	}
}

// Full reports whether every seat is bound.
func (r *Room) Full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, taken := range r.bound {
		if !taken {
			return false
		}
	}
	return true
}

// Stake returns the per-seat stake the room was created with.
func (r *Room) Stake() int64 {
	return r.table.Stake
}

// Started reports whether the match has left the waiting phase.
func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Seats returns a snapshot of the fixed seat list.
func (r *Room) Seats() []game.Seat {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]game.Seat, len(r.table.Seats))
	for i, s := range r.table.Seats {
		out[i] = *s
	}
	return out
}

// SessionAt returns the session attached to a seat, if any.
func (r *Room) SessionAt(seat int) (*session.Session, bool) {
	r.sessMu.RLock()
	defer r.sessMu.RUnlock()
	sess, ok := r.sessions[seat]
	return sess, ok
}

// Sessions returns every attached session.
func (r *Room) Sessions() []*session.Session {
	r.sessMu.RLock()
	defer r.sessMu.RUnlock()
	out := make([]*session.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}

// Start deals the first round and begins play. The caller has already
// persisted the match and locked stakes.
func (r *Room) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrRoomStarted
	}
	for i, taken := range r.bound {
		if !taken {
			return fmt.Errorf("%w: seat %d", ErrSeatUnbound, i)
		}
	}
	r.started = true
	if r.cleanupTimer != 0 {
		r.scheduler.RemoveTimer(r.cleanupTimer)
		r.cleanupTimer = 0
	}
	r.rules.Deal(r.table)
	r.table.Bump()
	r.broadcastStateLocked()
	r.scheduleBotLocked()
	return nil
}

// AutomateAll forces every seat under automated control; the recovery path
// after a restart, when no human connection can exist.
func (r *Room) AutomateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.table.Seats {
		s.Connected = false
		s.Automated = true
		if r.presence[i] == nil {
			r.presence[i] = state.NewMachine()
		}
		r.presence[i].ForceAutomated()
	}
}

// Attach connects (or reconnects) a session to its seat. Reattaching a
// seat under automated control revokes the bot immediately, cancelling any
// pending automated turn.
func (r *Room) Attach(seat int, sess *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.table.SeatAt(seat)
	if s == nil || r.presence[seat] == nil {
		return ErrSeatUnbound
	}

	if id, ok := r.graceTimers[seat]; ok {
		r.scheduler.RemoveTimer(id)
		delete(r.graceTimers, seat)
	}
	if s.Automated && r.botTimer != 0 && r.botSeat == seat {
		r.scheduler.RemoveTimer(r.botTimer)
		r.botTimer = 0
	}
	if err := r.presence[seat].Transition(state.Connected); err != nil {
		logger.Log.Warnw("presence transition on attach", "room", r.ID, "seat", seat, "err", err)
	}
	s.Connected = true
	s.Automated = false
	r.sessMu.Lock()
	r.sessions[seat] = sess
	r.sessMu.Unlock()
	sess.RoomID = r.ID
	sess.SeatIndex = seat

	// The rejoining seat resumes with exactly the state it left.
	_ = r.broadcaster.SendToSeat(r.ID, seat, network.MsgTypeRoomState, r.table.ViewFor(seat))
	return nil
}

// Detach marks the seat disconnected and starts the grace timer. If the
// timer expires before a reattach, the seat is handed to the bot engine.
func (r *Room) Detach(seat int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.table.SeatAt(seat)
	if s == nil || r.presence[seat] == nil || !s.Connected {
		return
	}
	s.Connected = false
	r.sessMu.Lock()
	delete(r.sessions, seat)
	r.sessMu.Unlock()
	if err := r.presence[seat].Transition(state.GracePeriod); err != nil {
		logger.Log.Warnw("presence transition on detach", "room", r.ID, "seat", seat, "err", err)
	}
	r.graceTimers[seat] = r.scheduler.AddTimer(r.cfg.GracePeriod, 0, func() {
		r.onGraceExpired(seat)
	})

	// A waiting room abandoned by everyone is torn down after a delay; a
	// started match is always driven to completion instead.
	if !r.started && r.allDisconnectedLocked() && r.cleanupTimer == 0 {
		r.cleanupTimer = r.scheduler.AddTimer(r.cfg.CleanupDelay, 0, r.teardownIfAbandoned)
	}
	r.broadcastStateLocked()
}

func (r *Room) onGraceExpired(seat int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ended {
		return
	}
	delete(r.graceTimers, seat)
	s := r.table.SeatAt(seat)
	if s == nil || s.Connected {
		return // reattached in the meantime
	}
	if err := r.presence[seat].Transition(state.Automated); err != nil {
		return
	}
	s.Automated = true
	logger.Log.Infow("seat handed to automated control", "room", r.ID, "seat", seat)
	r.broadcastStateLocked()
	r.scheduleBotLocked()
}

func (r *Room) allDisconnectedLocked() bool {
	for i, taken := range r.bound {
		if taken && r.table.Seats[i].Connected {
			return false
		}
	}
	return true
}

func (r *Room) teardownIfAbandoned() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || !r.allDisconnectedLocked() {
		r.cleanupTimer = 0
		return
	}
	logger.Log.Infow("tearing down abandoned waiting room", "room", r.ID)
	r.closeLocked()
}

// SubmitAction applies one decoded action from a seat. Rejections are
// reported to the submitting seat only; accepted actions broadcast the new
// redacted state to every connected seat.
func (r *Room) SubmitAction(seat int, a game.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.processing {
		return ErrRoomProcessing
	}
	r.processing = true
	defer func() { r.processing = false }()

	return r.applyLocked(seat, a)
}

// SubmitRaw decodes a JSON payload and submits it.
func (r *Room) SubmitRaw(seat int, payload []byte) error {
	var a game.Action
	if err := json.Unmarshal(payload, &a); err != nil {
		r.rejectTo(seat, game.Reject(game.RejectMalformed, "undecodable action payload"))
		return nil
	}
	return r.SubmitAction(seat, a)
}

func (r *Room) applyLocked(seat int, a game.Action) error {
	if r.ended || !r.started {
		r.rejectTo(seat, game.Reject(game.RejectBadPhase, "match not running"))
		return nil
	}
	if seat != r.table.Turn {
		r.rejectTo(seat, game.Reject(game.RejectWrongTurn, "not seat %d's turn", seat))
		return nil
	}

	if err := r.rules.Apply(r.table, seat, a); err != nil {
		var rej *game.Rejection
		if errors.As(err, &rej) {
			r.rejectTo(seat, rej)
			return nil
		}
		// Internal invariant violation: tear the room down; escrowed
		// funds are resolved by the recovery path, never dropped.
		logger.Log.Errorw("fatal room error", "room", r.ID, "seat", seat, "err", err)
		r.closeLocked()
		return err
	}

	r.table.Bump()
	r.broadcastStateLocked()

	if done, winners := r.rules.Terminal(r.table); done {
		r.settleLocked(winners)
		return nil
	}
	r.scheduleBotLocked()
	return nil
}

func (r *Room) rejectTo(seat int, rej *game.Rejection) {
	if r.recorder != nil {
		r.recorder.IncRejection(rej.Code)
	}
	_ = r.broadcaster.SendToSeat(r.ID, seat, network.MsgTypeActionRejected, rej)
}

func (r *Room) broadcastStateLocked() {
	for i := range r.table.Seats {
		if _, ok := r.sessions[i]; !ok {
			continue
		}
		_ = r.broadcaster.SendToSeat(r.ID, i, network.MsgTypeRoomState, r.table.ViewFor(i))
	}
}

// scheduleBotLocked arms the automated decision for the awaited seat, if
// it is under automated control and no decision is already outstanding.
func (r *Room) scheduleBotLocked() {
	if r.ended || !game.RequiresAction(r.table) {
		return
	}
	seat := r.table.Turn
	if !r.table.Seats[seat].Automated {
		return
	}
	if r.botTimer != 0 {
		return // single outstanding decision per room
	}
	delay := r.cfg.BotDelayMin
	if spread := r.cfg.BotDelayMax - r.cfg.BotDelayMin; spread > 0 {
		delay += time.Duration(r.table.Rng().Int63n(int64(spread)))
	}
	version := r.table.Version
	r.botSeat = seat
	r.botVersion = version
	r.botTimer = r.scheduler.AddTimer(delay, 0, func() {
		r.fireBot(seat, version)
	})
}

// fireBot runs a scheduled automated decision. The seat and version are
// re-checked under the lock: if a human reconnected or the table advanced
// since scheduling, the stale decision is discarded silently.
func (r *Room) fireBot(seat int, version uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.botTimer = 0
	if r.ended || !r.table.Active() {
		return
	}
	if r.table.Turn != seat || r.table.Version != version || !r.table.Seats[seat].Automated {
		return
	}
	a := r.bots.Decide(r.table, seat)
	if r.recorder != nil {
		r.recorder.IncBotDecision()
	}
	if err := r.applyLocked(seat, a); err != nil {
		return
	}
	// Some decisions keep the turn on the same seat (a draw-bet look, a
	// race roll); applyLocked already rearmed the next decision.
}

// settleLocked invokes the escrow ledger exactly once and emits the
// terminal summary. The persisted match status guards re-invocation.
func (r *Room) settleLocked(winners []int) {
	settlement, err := r.ledger.Settle(r.ID, winners)
	if err != nil {
		logger.Log.Errorw("settlement failed", "room", r.ID, "err", err)
		// Leave the match in-progress; recovery will finish the job.
		r.closeLocked()
		return
	}
	summary := &Summary{
		RoomID:  r.ID,
		Winners: winners,
	}
	if !settlement.AlreadySettled {
		summary.TotalStake = settlement.TotalStake
		summary.Fee = settlement.Fee
		summary.Pot = settlement.Pot
		summary.Payouts = settlement.Payouts
	}
	_ = r.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeRoomEnded, summary)
	logger.Log.Infow("match settled", "room", r.ID, "winners", winners, "pot", summary.Pot)
	r.closeLocked()
}

// Tick is periodic maintenance: it re-arms a missing automated decision
// (self-healing after an error path) while the room is active.
func (r *Room) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended || !r.started {
		return
	}
	r.scheduleBotLocked()
}

// Close tears the room down and cancels every pending timer.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

func (r *Room) closeLocked() {
	if r.ended {
		return
	}
	r.ended = true
	for seat, id := range r.graceTimers {
		r.scheduler.RemoveTimer(id)
		delete(r.graceTimers, seat)
	}
	if r.botTimer != 0 {
		r.scheduler.RemoveTimer(r.botTimer)
		r.botTimer = 0
	}
	if r.cleanupTimer != 0 {
		r.scheduler.RemoveTimer(r.cleanupTimer)
		r.cleanupTimer = 0
	}
	if r.tickTimer != 0 {
		r.scheduler.RemoveTimer(r.tickTimer)
		r.tickTimer = 0
	}
	if r.onEnded != nil {
		go r.onEnded(r.ID)
	}
}

// Ended reports whether the room has been torn down.
func (r *Room) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}
