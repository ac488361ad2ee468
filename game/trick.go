// game/trick.go
//
// Trick mechanics shared by the two trick-taking variants. A trick is won
// by the highest card of the dominant suit if one was played, otherwise by
// the highest card of the lead suit; the winner leads the next trick.
package game

import (
	"github.com/stakehall/matchengine/deck"
)

// validateTrickPlay checks that seat may legally put card on the current
// trick: the seat must hold the card and must follow the lead suit when it
// can.
func validateTrickPlay(t *Table, s *Seat, card deck.Card) *Rejection {
	if !deck.Contains(s.Hand, card) {
		return Reject(RejectIllegalCard, "seat %d does not hold %s", s.Index, card)
	}
	if len(t.TrickCards) > 0 && card.Suit != t.LeadSuit && deck.HasSuit(s.Hand, t.LeadSuit) {
		return Reject(RejectIllegalCard, "must follow %s", t.LeadSuit)
	}
	return nil
}

// applyTrickPlay puts an already validated card on the trick and advances
// the turn, resolving the trick when every seat has played. It reports
// whether the round ended (all hands empty after resolution).
func applyTrickPlay(t *Table, seat int, card deck.Card) (roundOver bool) {
	s := t.Seats[seat]
	s.Hand, _ = deck.Remove(s.Hand, card)

	// Playing the concealed designator reveals the power suit.
	if t.Hidden != nil && !t.Hidden.Revealed && t.Hidden.Owner == seat && t.Hidden.Card == card {
		t.Hidden.Revealed = true
		t.Trump = t.Hidden.Card.Suit
	}

	if len(t.TrickCards) == 0 {
		t.LeadSuit = card.Suit
	}
	t.TrickCards = append(t.TrickCards, Played{Seat: seat, Card: card})

	if len(t.TrickCards) < len(t.Seats) {
		t.advance()
		return false
	}

	// Trick complete.
	cards := make([]deck.Card, len(t.TrickCards))
	for i, p := range t.TrickCards {
		cards[i] = p.Card
	}
	winner := t.TrickCards[deck.Winning(cards, t.LeadSuit, t.Trump)].Seat
	t.Seats[winner].Tricks++
	t.TrickCards = t.TrickCards[:0]
	t.LeadSuit = deck.NoSuit
	t.declinedThis = nil
	t.Turn = winner

	return len(t.Seats[winner].Hand) == 0
}

// needsRevealDecision reports whether seat, about to play, must first be
// asked to reveal the concealed power card: the card is still hidden, the
// seat cannot follow the lead suit, and it has not already passed on this
// trick.
func needsRevealDecision(t *Table, seat int) bool {
	if t.Hidden == nil || t.Hidden.Revealed {
		return false
	}
	if len(t.TrickCards) == 0 {
		return false
	}
	if t.declinedThis != nil && t.declinedThis[seat] {
		return false
	}
	return !deck.HasSuit(t.Seats[seat].Hand, t.LeadSuit)
}

// LegalTrickCards lists every card seat may put on the current trick.
// Used by the bot engine and tests.
func LegalTrickCards(t *Table, seat int) []deck.Card {
	s := t.Seats[seat]
	if len(t.TrickCards) > 0 && deck.HasSuit(s.Hand, t.LeadSuit) {
		var out []deck.Card
		for _, c := range s.Hand {
			if c.Suit == t.LeadSuit {
				out = append(out, c)
			}
		}
		return out
	}
	return append([]deck.Card(nil), s.Hand...)
}

// TrickWinnerSoFar returns the seat currently winning the open trick, or -1
// if nothing has been played.
func TrickWinnerSoFar(t *Table) int {
	if len(t.TrickCards) == 0 {
		return -1
	}
	cards := make([]deck.Card, len(t.TrickCards))
	for i, p := range t.TrickCards {
		cards[i] = p.Card
	}
	return t.TrickCards[deck.Winning(cards, t.LeadSuit, t.Trump)].Seat
}

// dealTrickHands shuffles a fresh deck and deals even hands to every seat,
// clearing per-round trick state.
func dealTrickHands(t *Table) {
	cards := deck.New()
	deck.Shuffle(cards, t.rng)
	per := len(cards) / len(t.Seats)
	hands := deck.Deal(cards, len(t.Seats), per)
	for i, s := range t.Seats {
		s.Hand = hands[i]
		s.Bid = 0
		s.HasBid = false
		s.Tricks = 0
	}
	t.TrickCards = t.TrickCards[:0]
	t.LeadSuit = deck.NoSuit
	t.Trump = deck.NoSuit
	t.Hidden = nil
	t.AwaitReveal = false
	t.declinedThis = nil
	t.Round++
}
