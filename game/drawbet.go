// game/drawbet.go
//
// Draw-betting over concealed three-card hands. Every seat antes, then in
// turn folds, pays to look at its own hand (doubling its stakes from then
// on), matches the current bet, or raises up to a fixed ceiling. The hand
// ends when one seat remains, when a seat pays for a show with two left, or
// after a full orbit of calls with no raise (which forces the showdown so
// blind-versus-blind play cannot loop forever). Hand order:
// three-of-a-kind > straight-flush > straight > flush > pair > high card,
// with the ace-low straight ranked lowest among straights.
package game

import (
	"sort"

	"github.com/stakehall/matchengine/deck"
)

const (
	drawBetSeatCount = 4
	drawBetHandSize  = 3

	defaultAnte     = 100
	defaultRaiseCap = 1600
)

type drawBet struct {
	ante     int64
	raiseCap int64
}

func newDrawBet(opts Options) *drawBet {
	ante := opts.Ante
	if ante <= 0 {
		ante = defaultAnte
	}
	cap := opts.RaiseCap
	if cap <= 0 {
		cap = defaultRaiseCap
	}
	return &drawBet{ante: ante, raiseCap: cap}
}

func (r *drawBet) Variant() Variant { return VariantDrawBet }
func (r *drawBet) SeatCount() int   { return drawBetSeatCount }

func (r *drawBet) Deal(t *Table) {
	cards := deck.New()
	deck.Shuffle(cards, t.rng)
	hands := deck.Deal(cards, len(t.Seats), drawBetHandSize)
	t.Pot = 0
	for i, s := range t.Seats {
		s.Hand = hands[i]
		s.Folded = false
		s.Seen = false
		s.Committed = r.ante
		t.Pot += r.ante
	}
	t.CurrentBet = r.ante
	t.RaiseCap = r.raiseCap
	t.callsSince = 0
	t.Round++
	t.Phase = PhasePlaying
	t.Turn = 0
}

func (r *drawBet) active(t *Table) []*Seat {
	var out []*Seat
	for _, s := range t.Seats {
		if !s.Folded {
			out = append(out, s)
		}
	}
	return out
}

// callCost is what seat s pays to stay in: seen seats pay double.
func (r *drawBet) callCost(t *Table, s *Seat) int64 {
	if s.Seen {
		return 2 * t.CurrentBet
	}
	return t.CurrentBet
}

// checkFunds rejects a bet that would push the seat past its locked stake.
// Casual matches (stake 0) carry no bound.
func (r *drawBet) checkFunds(t *Table, s *Seat, cost int64) *Rejection {
	if t.Stake > 0 && s.Committed+cost > t.Stake {
		return Reject(RejectInsufficientFunds,
			"seat %d cannot cover %d beyond committed %d of stake %d",
			s.Index, cost, s.Committed, t.Stake)
	}
	return nil
}

func (r *drawBet) Apply(t *Table, seat int, a Action) error {
	if seat != t.Turn {
		return Reject(RejectWrongTurn, "seat %d acted out of turn", seat)
	}
	if t.Phase != PhasePlaying {
		return Reject(RejectBadPhase, "no actions accepted in phase %s", t.Phase)
	}
	s := t.Seats[seat]
	if s.Folded {
		return Reject(RejectMalformed, "seat %d already folded", seat)
	}

	switch a.Type {
	case ActSee:
		if s.Seen {
			return Reject(RejectMalformed, "seat %d already looked at its hand", seat)
		}
		s.Seen = true
		// Looking does not consume the turn.
		return nil

	case ActFold:
		s.Folded = true
		t.callsSince = 0
		if remaining := r.active(t); len(remaining) == 1 {
			r.finish(t, remaining)
			return nil
		}
		r.advanceActive(t)
		return nil

	case ActCall:
		cost := r.callCost(t, s)
		if rej := r.checkFunds(t, s, cost); rej != nil {
			return rej
		}
		s.Committed += cost
		t.Pot += cost
		t.callsSince++
		if t.callsSince >= len(r.active(t)) {
			r.finish(t, r.active(t))
			return nil
		}
		r.advanceActive(t)
		return nil

	case ActRaise:
		if a.Amount <= t.CurrentBet {
			return Reject(RejectMalformed, "raise to %d must exceed current bet %d", a.Amount, t.CurrentBet)
		}
		if a.Amount > r.raiseCap {
			return Reject(RejectIllegalMove, "raise to %d exceeds ceiling %d", a.Amount, r.raiseCap)
		}
		cost := a.Amount
		if s.Seen {
			cost = 2 * a.Amount
		}
		if rej := r.checkFunds(t, s, cost); rej != nil {
			return rej
		}
		s.Committed += cost
		t.Pot += cost
		t.CurrentBet = a.Amount
		t.callsSince = 1 // the raiser has matched its own bet
		r.advanceActive(t)
		return nil

	case ActShow:
		if len(r.active(t)) != 2 {
			return Reject(RejectIllegalMove, "show requires exactly two seats in the hand")
		}
		cost := r.callCost(t, s)
		if rej := r.checkFunds(t, s, cost); rej != nil {
			return rej
		}
		s.Committed += cost
		t.Pot += cost
		r.finish(t, r.active(t))
		return nil

	default:
		return Reject(RejectMalformed, "unknown draw-bet action %s", a.Type)
	}
}

func (r *drawBet) advanceActive(t *Table) {
	next := NextActiveSeat(t, t.Turn, func(s *Seat) bool { return !s.Folded })
	if next >= 0 {
		t.Turn = next
	}
}

// finish runs the showdown among remaining and ends the hand.
func (r *drawBet) finish(t *Table, remaining []*Seat) {
	best := int64(-1)
	for _, s := range remaining {
		if v := EvalThree(s.Hand); v > best {
			best = v
		}
	}
	for _, s := range t.Seats {
		s.Won = !s.Folded && EvalThree(s.Hand) == best
	}
	t.Phase = PhaseEnded
}

func (r *drawBet) Terminal(t *Table) (bool, []int) {
	if t.Phase != PhaseEnded {
		return false, nil
	}
	var winners []int
	for _, s := range t.Seats {
		if s.Won {
			winners = append(winners, s.Index)
		}
	}
	return true, winners
}

// Hand categories, low to high.
const (
	catHighCard = iota
	catPair
	catFlush
	catStraight
	catStraightFlush
	catTrips
)

// EvalThree scores a three-card hand; higher beats lower and equal scores
// tie. Exported for the bot engine.
func EvalThree(hand []deck.Card) int64 {
	ranks := []int{int(hand[0].Rank), int(hand[1].Rank), int(hand[2].Rank)}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	flush := hand[0].Suit == hand[1].Suit && hand[1].Suit == hand[2].Suit
	straightHigh := 0
	if ranks[0] == ranks[1]+1 && ranks[1] == ranks[2]+1 {
		straightHigh = ranks[0]
	} else if ranks[0] == int(deck.Ace) && ranks[1] == 3 && ranks[2] == 2 {
		// Ace-low straight is the lowest straight.
		straightHigh = 3
		ranks = []int{3, 2, 1}
	}

	cat := catHighCard
	switch {
	case ranks[0] == ranks[1] && ranks[1] == ranks[2]:
		cat = catTrips
	case straightHigh > 0 && flush:
		cat = catStraightFlush
	case straightHigh > 0:
		cat = catStraight
	case flush:
		cat = catFlush
	case ranks[0] == ranks[1] || ranks[1] == ranks[2]:
		cat = catPair
		if ranks[1] == ranks[2] {
			// Order pair first, kicker last.
			ranks = []int{ranks[1], ranks[2], ranks[0]}
		}
	}
	return int64(cat)<<24 | int64(ranks[0])<<16 | int64(ranks[1])<<8 | int64(ranks[2])
}
