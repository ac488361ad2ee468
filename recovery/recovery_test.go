package recovery

import (
	"sync"
	"testing"
	"time"

	"github.com/stakehall/matchengine/bot"
	"github.com/stakehall/matchengine/escrow"
	"github.com/stakehall/matchengine/game"
	"github.com/stakehall/matchengine/logger"
	"github.com/stakehall/matchengine/models"
	"github.com/stakehall/matchengine/room"
)

func init() {
	logger.Init()
}

const testBotDelay = 10 * time.Millisecond

type fakeTimer struct {
	delay    time.Duration
	interval time.Duration
	cb       func()
	removed  bool
}

type fakeScheduler struct {
	mu     sync.Mutex
	nextID int64
	timers map[int64]*fakeTimer
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{timers: make(map[int64]*fakeTimer)}
}

func (s *fakeScheduler) AddTimer(delay, interval time.Duration, cb func()) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.timers[s.nextID] = &fakeTimer{delay: delay, interval: interval, cb: cb}
	return s.nextID
}

func (s *fakeScheduler) RemoveTimer(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ft, ok := s.timers[id]; ok {
		ft.removed = true
	}
}

func (s *fakeScheduler) fireOneShot(delay time.Duration) bool {
	s.mu.Lock()
	var cb func()
	for id, ft := range s.timers {
		if !ft.removed && ft.interval == 0 && ft.delay == delay {
			cb = ft.cb
			delete(s.timers, id)
			break
		}
	}
	s.mu.Unlock()
	if cb == nil {
		return false
	}
	cb()
	return true
}

type nullBroadcaster struct{}

func (nullBroadcaster) SendToSeat(roomID string, seat int, msgID uint16, v interface{}) error {
	return nil
}

func (nullBroadcaster) BroadcastToRoom(roomID string, msgID uint16, v interface{}) error {
	return nil
}

// fakeStore serves one persisted in-progress match and records settlement.
type fakeStore struct {
	mu          sync.Mutex
	matches     []*models.Match
	settleCalls map[string]int
}

func (s *fakeStore) Lock(matchID string) error { return nil }

func (s *fakeStore) Settle(matchID string, winners []int) (*escrow.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settleCalls == nil {
		s.settleCalls = make(map[string]int)
	}
	s.settleCalls[matchID]++
	if s.settleCalls[matchID] > 1 {
		return &escrow.Settlement{AlreadySettled: true}, nil
	}
	return &escrow.Settlement{Payouts: escrow.SplitEven(0, winners)}, nil
}

func (s *fakeStore) EnsureAccount(accountID int64, name string, opening int64) error { return nil }
func (s *fakeStore) SpendableBalance(accountID int64) (int64, error)                 { return 0, nil }
func (s *fakeStore) LockedBalance(accountID int64) (int64, error)                    { return 0, nil }
func (s *fakeStore) HouseBalance() (int64, error)                                    { return 0, nil }
func (s *fakeStore) CreateMatch(m *models.Match) error                               { return nil }
func (s *fakeStore) GetMatch(matchID string) (*models.Match, error)                  { return nil, nil }
func (s *fakeStore) Close() error                                                    { return nil }

func (s *fakeStore) MatchesInProgress() ([]*models.Match, error) {
	return s.matches, nil
}

func (s *fakeStore) settles(matchID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settleCalls[matchID]
}

func unfinishedMatch(id string) *models.Match {
	m := &models.Match{
		MatchID:   id,
		Variant:   string(game.VariantDrawBet),
		Stake:     0,
		SeatCount: 4,
		Status:    models.MatchInProgress,
	}
	for i := 0; i < 4; i++ {
		seat := models.MatchSeat{MatchID: id, SeatIndex: i, AccountID: int64(100 + i)}
		if i == 3 {
			seat.AccountID = models.HouseAccountID
			seat.House = true
		}
		m.Seats = append(m.Seats, seat)
	}
	return m
}

func testDeps(store *fakeStore, scheduler *fakeScheduler) Deps {
	return Deps{
		Store:       store,
		Rooms:       room.NewManager(),
		Bots:        bot.New(bot.Config{}),
		Broadcaster: nullBroadcaster{},
		Scheduler:   scheduler,
		RoomConfig: room.Config{
			GracePeriod:  time.Minute,
			CleanupDelay: time.Minute,
			BotDelayMin:  testBotDelay,
			BotDelayMax:  testBotDelay,
		},
		Options: game.Options{Ante: 100, RaiseCap: 1600},
	}
}

func TestRecoveryDrivesMatchToSingleSettlement(t *testing.T) {
	store := &fakeStore{matches: []*models.Match{unfinishedMatch("match-1")}}
	scheduler := newFakeScheduler()
	deps := testDeps(store, scheduler)

	recovered, err := NewCoordinator(deps).Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if recovered != 1 {
		t.Fatalf("recovered = %d, want 1", recovered)
	}

	r, ok := deps.Rooms.Get("match-1")
	if !ok {
		t.Fatal("recovered room not registered")
	}
	for _, seat := range r.Seats() {
		if !seat.Automated {
			t.Fatalf("seat %d not automated after recovery", seat.Index)
		}
	}
	if house := r.Seats()[3]; !house.House {
		t.Fatal("house seat lost its flag")
	}

	for i := 0; i < 10000 && !r.Ended(); i++ {
		if !scheduler.fireOneShot(testBotDelay) {
			t.Fatal("no bot decision pending on the recovered match")
		}
	}
	if !r.Ended() {
		t.Fatal("recovered match did not finish")
	}
	if n := store.settles("match-1"); n != 1 {
		t.Errorf("settle calls = %d, want exactly 1", n)
	}
}

func TestRecoveryNothingToDo(t *testing.T) {
	store := &fakeStore{}
	recovered, err := NewCoordinator(testDeps(store, newFakeScheduler())).Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if recovered != 0 {
		t.Errorf("recovered = %d, want 0", recovered)
	}
}

func TestRecoverySkipsCorruptSeatRows(t *testing.T) {
	bad := unfinishedMatch("match-bad")
	bad.Seats = bad.Seats[:2] // fewer rows than seats
	store := &fakeStore{matches: []*models.Match{bad}}
	deps := testDeps(store, newFakeScheduler())

	recovered, err := NewCoordinator(deps).Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if recovered != 0 {
		t.Errorf("recovered = %d, want 0", recovered)
	}
	if _, ok := deps.Rooms.Get("match-bad"); ok {
		t.Error("corrupt match must not produce a room")
	}
}
