// recovery/recovery.go
package recovery

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/stakehall/matchengine/bot"
	"github.com/stakehall/matchengine/game"
	"github.com/stakehall/matchengine/logger"
	"github.com/stakehall/matchengine/models"
	"github.com/stakehall/matchengine/persistence"
	"github.com/stakehall/matchengine/room"
)

// Deps is everything the coordinator needs to rebuild a room.
type Deps struct {
	Store       persistence.Store
	Rooms       *room.Manager
	Bots        *bot.Engine
	Broadcaster room.Broadcaster
	Scheduler   room.Scheduler
	RoomConfig  room.Config
	Options     game.Options
}

// Coordinator drives crash recovery: every match persisted as in-progress
// is rebuilt as a room with all seats under automated control and played
// out to completion, so settlement that was interrupted by the crash runs
// exactly once. Humans cannot reattach to a recovered match; their seats
// stay automated.
type Coordinator struct {
	deps Deps
}

func NewCoordinator(deps Deps) *Coordinator {
	return &Coordinator{deps: deps}
}

// Run rebuilds and restarts every unfinished match. It is called once at
// startup, before the server accepts connections.
func (c *Coordinator) Run() (int, error) {
	matches, err := c.deps.Store.MatchesInProgress()
	if err != nil {
		return 0, fmt.Errorf("list unfinished matches: %w", err)
	}
	recovered := 0
	for _, m := range matches {
		if err := c.recoverMatch(m); err != nil {
			logger.Log.Errorw("match recovery failed", "match", m.MatchID, "err", err)
			continue
		}
		recovered++
	}
	if recovered > 0 {
		logger.Log.Infow("recovered unfinished matches", "count", recovered)
	}
	return recovered, nil
}

func (c *Coordinator) recoverMatch(m *models.Match) error {
	rules, err := game.NewRules(game.Variant(m.Variant), c.deps.Options)
	if err != nil {
		return err
	}
	if len(m.Seats) != m.SeatCount {
		return fmt.Errorf("match %s has %d seat rows, want %d", m.MatchID, len(m.Seats), m.SeatCount)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	table := game.NewTable(rules.Variant(), m.SeatCount, m.Stake, rng)
	r := room.NewRoom(m.MatchID, rules, table, c.deps.RoomConfig,
		c.deps.Bots, c.deps.Store, c.deps.Broadcaster, c.deps.Scheduler,
		c.deps.Rooms.Remove)

	for _, seat := range m.Seats {
		name := fmt.Sprintf("account-%d", seat.AccountID)
		if seat.House {
			name = fmt.Sprintf("house-%d", seat.SeatIndex+1)
		}
		if err := r.RestoreSeat(seat.SeatIndex, seat.AccountID, name, seat.House); err != nil {
			r.Close()
			return err
		}
	}
	r.AutomateAll()
	c.deps.Rooms.Add(r)
	if err := r.Start(); err != nil {
		c.deps.Rooms.Remove(m.MatchID)
		r.Close()
		return err
	}
	logger.Log.Infow("recovered match restarted under automated control",
		"match", m.MatchID, "variant", m.Variant, "stake", m.Stake)
	return nil
}
