// game/hiddensuit.go
//
// Trick-taking with a hidden power suit. Seats 0/2 and 1/3 form two teams.
// Bidding is collective: a team's bid is the highest of its members', ties
// going to the most recent bidder. The designated bidder of the higher team
// buries one of their own cards as a concealed trump designator. A seat
// that cannot follow the lead suit may, once per such occasion, demand the
// reveal or pass; passing forfeits the right for that trick only. The match
// is one round: the bidding team wins by taking at least its bid in tricks.
package game

type hiddenSuit struct{}

func newHiddenSuit() *hiddenSuit { return &hiddenSuit{} }

func (r *hiddenSuit) Variant() Variant { return VariantHiddenSuit }
func (r *hiddenSuit) SeatCount() int   { return trickSeatCount }

// teamOf pairs opposite seats: 0/2 against 1/3.
func teamOf(seat int) int { return seat % 2 }

func (r *hiddenSuit) Deal(t *Table) {
	dealTrickHands(t)
	t.Phase = PhaseBidding
	t.HighBidSeat = -1
	t.Turn = (t.Round - 1) % len(t.Seats)
}

func (r *hiddenSuit) Apply(t *Table, seat int, a Action) error {
	if seat != t.Turn {
		return Reject(RejectWrongTurn, "seat %d acted out of turn", seat)
	}
	switch t.Phase {
	case PhaseBidding:
		return r.applyBid(t, seat, a)
	case PhaseConcealing:
		return r.applyConceal(t, seat, a)
	case PhasePlaying:
		return r.applyPlay(t, seat, a)
	default:
		return Reject(RejectBadPhase, "no actions accepted in phase %s", t.Phase)
	}
}

func (r *hiddenSuit) applyBid(t *Table, seat int, a Action) error {
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
	// >= keeps the most recent bidder on equal bids, which is also how
	// the designated bidder is picked inside a team.
	if t.HighBidSeat < 0 || a.Bid >= t.Seats[t.HighBidSeat].Bid {
		t.HighBidSeat = seat
	}

	for _, other := range t.Seats {
		if !other.HasBid {
			t.advance()
			return nil
		}
	}
	t.Phase = PhaseConcealing
	t.Turn = t.HighBidSeat
	return nil
}

func (r *hiddenSuit) applyConceal(t *Table, seat int, a Action) error {
	if a.Type != ActConceal {
		return Reject(RejectBadPhase, "expected the concealed card, got %s", a.Type)
	}
	if a.Card == nil {
		return Reject(RejectMalformed, "conceal carries no card")
	}
	s := t.Seats[seat]
	found := false
	for _, c := range s.Hand {
		if c == *a.Card {
			found = true
			break
		}
	}
	if !found {
		return Reject(RejectIllegalCard, "seat %d does not hold %s", seat, *a.Card)
	}
	t.Hidden = &Hidden{Owner: seat, Card: *a.Card}
	t.Phase = PhasePlaying
	t.Turn = t.HighBidSeat // designated bidder leads
	return nil
}

func (r *hiddenSuit) applyPlay(t *Table, seat int, a Action) error {
	if t.AwaitReveal {
		switch a.Type {
		case ActReveal:
			t.Hidden.Revealed = true
			t.Trump = t.Hidden.Card.Suit
			t.AwaitReveal = false
			return nil
		case ActPass:
			if t.declinedThis == nil {
				t.declinedThis = make(map[int]bool)
			}
			t.declinedThis[seat] = true
			t.AwaitReveal = false
			return nil
		default:
			return Reject(RejectBadPhase, "must reveal or pass before playing")
		}
	}
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
		return nil
	}
	if needsRevealDecision(t, t.Turn) {
		t.AwaitReveal = true
	}
	return nil
}

func (r *hiddenSuit) scoreRound(t *Table) {
	bidTeam := teamOf(t.HighBidSeat)
	teamBid := 0
	taken := 0
	for _, s := range t.Seats {
		if teamOf(s.Index) != bidTeam {
			continue
		}
		if s.Bid > teamBid {
			teamBid = s.Bid
		}
		taken += s.Tricks
	}
	winningTeam := bidTeam
	if taken < teamBid {
		winningTeam = 1 - bidTeam
	}
	for _, s := range t.Seats {
		s.Won = teamOf(s.Index) == winningTeam
	}
	t.Phase = PhaseEnded
}

func (r *hiddenSuit) Terminal(t *Table) (bool, []int) {
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
