// bot/engine.go
package bot

import (
	"sort"

	"github.com/stakehall/matchengine/deck"
	"github.com/stakehall/matchengine/game"
)

// Config selects the difficulty asymmetry: a bot standing in for a seat
// partnered with a live human deliberately errs at PartnerErrorRate, while
// opposing bots play the tuning straight.
type Config struct {
	PartnerErrorRate float64
	Tuning           Tuning
}

// Engine produces one action for an automated seat whose turn it is. It is
// stateless; all randomness comes from the table's own source so decisions
// stay reproducible under a seeded table.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	if cfg.Tuning == (Tuning{}) {
		cfg.Tuning = DefaultTuning
	}
	return &Engine{cfg: cfg}
}

// Decide returns the move for seat. The caller guarantees the seat is
// automated and awaited; Decide itself never mutates the table.
func (e *Engine) Decide(t *game.Table, seat int) game.Action {
	weak := e.playsWeak(t, seat)
	switch t.Variant {
	case game.VariantTrickBidding, game.VariantHiddenSuit:
		return e.decideTrick(t, seat, weak)
	case game.VariantDrawBet:
		return e.decideDrawBet(t, seat)
	case game.VariantBoardRace:
		return e.decideRace(t, seat, weak)
	}
	return game.Action{}
}

// playsWeak rolls the partner handicap: only bots covering a seat whose
// teammate is a connected human are shaded down.
func (e *Engine) playsWeak(t *game.Table, seat int) bool {
	if e.cfg.PartnerErrorRate <= 0 || t.Variant != game.VariantHiddenSuit {
		return false
	}
	mate := t.Seats[(seat+2)%len(t.Seats)]
	if !mate.Connected || mate.Automated {
		return false
	}
	return t.Rng().Float64() < e.cfg.PartnerErrorRate
}

func (e *Engine) decideTrick(t *game.Table, seat int, weak bool) game.Action {
	switch t.Phase {
	case game.PhaseBidding:
		bid := e.estimateBid(t.Seats[seat].Hand)
		if weak && bid > 1 {
			bid--
		}
		return game.Action{Type: game.ActBid, Bid: bid}
	case game.PhaseDeclaring:
		suit := longestSuit(t.Seats[seat].Hand)
		return game.Action{Type: game.ActDeclare, Suit: &suit}
	case game.PhaseConcealing:
		card := e.concealChoice(t.Seats[seat].Hand)
		return game.Action{Type: game.ActConceal, Card: &card}
	case game.PhasePlaying:
		if t.AwaitReveal {
			if e.shouldReveal(t, seat) {
				return game.Action{Type: game.ActReveal}
			}
			return game.Action{Type: game.ActPass}
		}
		card := e.pickTrickCard(t, seat, weak)
		return game.Action{Type: game.ActPlay, Card: &card}
	}
	return game.Action{}
}

// estimateBid counts likely tricks from honours plus length in the longest
// suit.
func (e *Engine) estimateBid(hand []deck.Card) int {
	w := e.cfg.Tuning.Bid
	pts := 0.0
	for _, c := range hand {
		switch c.Rank {
		case deck.Ace:
			pts += w.AceTricks
		case deck.King:
			pts += w.KingTricks
		case deck.Queen:
			pts += w.QueenTricks
		}
	}
	longest := 0
	for s := deck.Clubs; s <= deck.Spades; s++ {
		if n := deck.CountSuit(hand, s); n > longest {
			longest = n
		}
	}
	if longest > 4 {
		pts += w.LongSuitBonus * float64(longest-4)
	}
	bid := int(pts + 0.5)
	if bid < 1 {
		bid = 1
	}
	if bid > len(hand) {
		bid = len(hand)
	}
	return bid
}

func longestSuit(hand []deck.Card) deck.Suit {
	best, bestN := deck.Clubs, -1
	for s := deck.Clubs; s <= deck.Spades; s++ {
		if n := deck.CountSuit(hand, s); n > bestN {
			best, bestN = s, n
		}
	}
	return best
}

// concealChoice buries the highest card of the longest suit so the reveal
// promotes a suit the owner dominates.
func (e *Engine) concealChoice(hand []deck.Card) deck.Card {
	suit := longestSuit(hand)
	var pick deck.Card
	for _, c := range hand {
		if c.Suit != suit {
			continue
		}
		if pick == (deck.Card{}) || c.Rank > pick.Rank {
			pick = c
		}
	}
	return pick
}

// shouldReveal fires when the bot's side is currently behind or the round
// is nearly over; otherwise the power card stays buried.
func (e *Engine) shouldReveal(t *game.Table, seat int) bool {
	if len(t.Seats[seat].Hand) <= e.cfg.Tuning.RevealHandThreshold {
		return true
	}
	mine, theirs := 0, 0
	for _, s := range t.Seats {
		if s.Index%2 == seat%2 {
			mine += s.Tricks
		} else {
			theirs += s.Tricks
		}
	}
	return mine < theirs
}

// pickTrickCard plays the lowest card that still wins the trick, or the
// lowest legal card when it cannot win. The power suit is only used to cut
// once a human seat has committed to the trick.
func (e *Engine) pickTrickCard(t *game.Table, seat int, weak bool) deck.Card {
	legal := game.LegalTrickCards(t, seat)
	sort.Slice(legal, func(i, j int) bool { return legal[i].Rank < legal[j].Rank })
	if weak {
		return legal[0]
	}

	if len(t.TrickCards) == 0 {
		// Lead from length: lowest card of the longest suit held.
		suit := longestSuit(t.Seats[seat].Hand)
		for _, c := range legal {
			if c.Suit == suit {
				return c
			}
		}
		return legal[0]
	}

	lead := t.TrickCards[0].Card
	winner := game.TrickWinnerSoFar(t)
	var winning deck.Card
	for _, p := range t.TrickCards {
		if p.Seat == winner {
			winning = p.Card
		}
	}

	humanCommitted := false
	for _, p := range t.TrickCards {
		if !t.Seats[p.Seat].Automated {
			humanCommitted = true
		}
	}

	var best *deck.Card
	for i := range legal {
		c := legal[i]
		if !deck.Beats(c, winning, lead.Suit, t.Trump) {
			continue
		}
		cut := t.Trump != deck.NoSuit && c.Suit == t.Trump && c.Suit != lead.Suit
		if cut && !humanCommitted {
			continue
		}
		if best == nil || c.Rank < best.Rank {
			best = &legal[i]
		}
	}
	if best != nil {
		return *best
	}
	return legal[0]
}

func (e *Engine) decideDrawBet(t *game.Table, seat int) game.Action {
	s := t.Seats[seat]
	tun := e.cfg.Tuning
	if !s.Seen {
		if t.Rng().Float64() < tun.SeeProbability {
			return game.Action{Type: game.ActSee}
		}
		if t.Rng().Float64() < tun.BlindRaiseProbability {
			if raise := e.legalRaise(t, s); raise > 0 {
				return game.Action{Type: game.ActRaise, Amount: raise}
			}
		}
		return e.callOrFold(t, s)
	}

	score := game.EvalThree(s.Hand)
	switch {
	case score < tun.FoldBelow:
		return game.Action{Type: game.ActFold}
	case score >= tun.RaiseAbove:
		if raise := e.legalRaise(t, s); raise > 0 {
			return game.Action{Type: game.ActRaise, Amount: raise}
		}
	}
	return e.callOrFold(t, s)
}

// legalRaise doubles the current bet, clipped to the ceiling and the
// remaining stake; zero means no raise is affordable.
func (e *Engine) legalRaise(t *game.Table, s *game.Seat) int64 {
	raise := t.CurrentBet * 2
	if raise > e.raiseCapOf(t) {
		raise = e.raiseCapOf(t)
	}
	if raise <= t.CurrentBet {
		return 0
	}
	cost := raise
	if s.Seen {
		cost = 2 * raise
	}
	if t.Stake > 0 && s.Committed+cost > t.Stake {
		return 0
	}
	return raise
}

// raiseCapOf prefers the ceiling the rules published on the table and
// falls back to a stake-derived guess.
func (e *Engine) raiseCapOf(t *game.Table) int64 {
	if t.RaiseCap > 0 {
		return t.RaiseCap
	}
	if t.Stake > 0 {
		return t.Stake / 2
	}
	return t.CurrentBet * 4
}

func (e *Engine) callOrFold(t *game.Table, s *game.Seat) game.Action {
	cost := t.CurrentBet
	if s.Seen {
		cost = 2 * t.CurrentBet
	}
	if t.Stake > 0 && s.Committed+cost > t.Stake {
		return game.Action{Type: game.ActFold}
	}
	return game.Action{Type: game.ActCall}
}

func (e *Engine) decideRace(t *game.Table, seat int, weak bool) game.Action {
	if t.Die == 0 {
		return game.Action{Type: game.ActRoll}
	}
	legal := game.LegalRaceMoves(t, seat)
	if len(legal) == 0 {
		// Should not happen: the rules auto-skip rolls with no moves.
		return game.Action{Type: game.ActRoll}
	}
	if weak {
		return game.Action{Type: game.ActMove, Piece: legal[t.Rng().Intn(len(legal))]}
	}

	pieces := t.Seats[seat].Pieces
	pick := legal[0]
	bestScore := -1
	for _, p := range legal {
		score := pieces[p] // default: advance the furthest piece
		if game.RaceMoveCaptures(t, seat, p) {
			score = 1000
		}
		if score > bestScore {
			bestScore = score
			pick = p
		}
	}
	return game.Action{Type: game.ActMove, Piece: pick}
}
