// game/bidding.go
//
// Trick-taking with bidding. Every seat commits an integer bid exactly
// once, the highest bidder names the dominant suit and leads. A round
// scores +bid for a seat that made at least its bid in tricks and -bid
// otherwise. Two scoring modes: first seat to reach the target cumulative
// score, or a single round decided by the highest round score.
package game

import "github.com/stakehall/matchengine/deck"

const (
	trickSeatCount = 4
	trickHandSize  = 13
	defaultTarget  = 51
	minBid, maxBid = 1, trickHandSize
)

type trickBidding struct {
	target int
	single bool
}

func newTrickBidding(opts Options) *trickBidding {
	target := opts.TargetScore
	if target <= 0 {
		target = defaultTarget
	}
	return &trickBidding{target: target, single: opts.SingleRound}
}

func (r *trickBidding) Variant() Variant { return VariantTrickBidding }
func (r *trickBidding) SeatCount() int   { return trickSeatCount }

func (r *trickBidding) Deal(t *Table) {
	dealTrickHands(t)
	t.Phase = PhaseBidding
	t.HighBidSeat = -1
	// Rotate the opening bidder each round.
	t.Turn = (t.Round - 1) % len(t.Seats)
}

func (r *trickBidding) Apply(t *Table, seat int, a Action) error {
	if seat != t.Turn {
		return Reject(RejectWrongTurn, "seat %d acted out of turn", seat)
	}
	switch t.Phase {
	case PhaseBidding:
		return r.applyBid(t, seat, a)
	case PhaseDeclaring:
		return r.applyDeclare(t, seat, a)
	case PhasePlaying:
		return r.applyPlay(t, seat, a)
	default:
		return Reject(RejectBadPhase, "no actions accepted in phase %s", t.Phase)
	}
}

func (r *trickBidding) applyBid(t *Table, seat int, a Action) error {
	if a.Type != ActBid {
		return Reject(RejectBadPhase, "expected a bid, got %s", a.Type)
	}
	s := t.Seats[seat]
	if s.HasBid {
		return Reject(RejectMalformed, "seat %d already bid", seat)
	}
	if a.Bid < minBid || a.Bid > maxBid {
		return Reject(RejectMalformed, "bid %d out of range [%d,%d]", a.Bid, minBid, maxBid)
	}
	s.Bid = a.Bid
	s.HasBid = true
	if t.HighBidSeat < 0 || a.Bid > t.Seats[t.HighBidSeat].Bid {
		t.HighBidSeat = seat
	}

	for _, other := range t.Seats {
		if !other.HasBid {
			t.advance()
			return nil
		}
	}
	t.Phase = PhaseDeclaring
	t.Turn = t.HighBidSeat
	return nil
}

func (r *trickBidding) applyDeclare(t *Table, seat int, a Action) error {
	if a.Type != ActDeclare {
		return Reject(RejectBadPhase, "expected a suit declaration, got %s", a.Type)
	}
	if a.Suit == nil || *a.Suit > deck.Spades {
		return Reject(RejectMalformed, "declaration carries no valid suit")
	}
	t.Trump = *a.Suit
	t.Phase = PhasePlaying
	t.Turn = t.HighBidSeat // declarer leads the first trick
	return nil
}

func (r *trickBidding) applyPlay(t *Table, seat int, a Action) error {
	if a.Type != ActPlay {
		return Reject(RejectBadPhase, "expected a card, got %s", a.Type)
	}
	if a.Card == nil {
		return Reject(RejectMalformed, "play carries no card")
	}
	if rej := validateTrickPlay(t, t.Seats[seat], *a.Card); rej != nil {
		return rej
	}
	if applyTrickPlay(t, seat, *a.Card) {
		r.scoreRound(t)
	}
	return nil
}

func (r *trickBidding) scoreRound(t *Table) {
	for _, s := range t.Seats {
		if s.Tricks >= s.Bid {
			s.Score += s.Bid
		} else {
			s.Score -= s.Bid
		}
	}
	if r.single || r.reached(t) {
		t.Phase = PhaseEnded
		return
	}
	// Nobody at the target: keep dealing.
	r.Deal(t)
}

func (r *trickBidding) reached(t *Table) bool {
	for _, s := range t.Seats {
		if s.Score >= r.target {
			return true
		}
	}
	return false
}

func (r *trickBidding) Terminal(t *Table) (bool, []int) {
	if t.Phase != PhaseEnded {
		return false, nil
	}
	best := t.Seats[0].Score
	for _, s := range t.Seats[1:] {
		if s.Score > best {
			best = s.Score
		}
	}
	var winners []int
	for _, s := range t.Seats {
		if s.Score == best {
			winners = append(winners, s.Index)
		}
	}
	return true, winners
}
