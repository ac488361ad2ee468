// deck/deck.go
package deck

import (
	"fmt"
	"math/rand"
)

// Suit of a playing card. NoSuit marks "no dominant suit decided yet".
type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
	NoSuit Suit = 0xFF
)

var suitNames = map[Suit]string{
	Clubs:    "clubs",
	Diamonds: "diamonds",
	Hearts:   "hearts",
	Spades:   "spades",
	NoSuit:   "none",
}

func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return fmt.Sprintf("suit(%d)", uint8(s))
}

// Rank runs 2..14 with Ace high. Ace-low straights are handled by the
// draw-betting evaluator, not here.
type Rank uint8

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (c Card) String() string {
	return fmt.Sprintf("%d-%s", c.Rank, c.Suit)
}

// New returns a standard 52-card deck in canonical order.
func New() []Card {
	cards := make([]Card, 0, 52)
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}
	return cards
}

// Shuffle permutes cards in place using the supplied source.
func Shuffle(cards []Card, rng *rand.Rand) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// Deal splits the top hands*per cards into hands slices of per cards each.
// The deck must be large enough; Deal panics otherwise since hand sizes are
// fixed per variant and checked at room creation.
func Deal(cards []Card, hands, per int) [][]Card {
	if len(cards) < hands*per {
		panic("deck: not enough cards to deal")
	}
	out := make([][]Card, hands)
	for h := 0; h < hands; h++ {
		hand := make([]Card, per)
		copy(hand, cards[h*per:(h+1)*per])
		out[h] = hand
	}
	return out
}

// Beats reports whether a beats b given the lead suit and an optional
// dominant (trump) suit. A card off both the lead and dominant suit never
// beats anything.
func Beats(a, b Card, lead, trump Suit) bool {
	if trump != NoSuit && a.Suit != b.Suit {
		if a.Suit == trump {
			return true
		}
		if b.Suit == trump {
			return false
		}
	}
	if a.Suit == b.Suit {
		return a.Rank > b.Rank
	}
	// Different non-trump suits: only the lead suit can win.
	return a.Suit == lead && b.Suit != lead
}

// Winning returns the index of the winning card of a completed trick.
// The result depends only on the set of cards, the lead suit and the
// dominant suit, never on play order.
func Winning(cards []Card, lead, trump Suit) int {
	best := 0
	for i := 1; i < len(cards); i++ {
		if Beats(cards[i], cards[best], lead, trump) {
			best = i
		}
	}
	return best
}

// Contains reports whether hand holds card.
func Contains(hand []Card, card Card) bool {
	for _, c := range hand {
		if c == card {
			return true
		}
	}
	return false
}

// Remove deletes the first occurrence of card from hand, returning the new
// slice and whether the card was present.
func Remove(hand []Card, card Card) ([]Card, bool) {
	for i, c := range hand {
		if c == card {
			return append(hand[:i], hand[i+1:]...), true
		}
	}
	return hand, false
}

// CountSuit returns how many cards of suit are in hand.
func CountSuit(hand []Card, suit Suit) int {
	n := 0
	for _, c := range hand {
		if c.Suit == suit {
			n++
		}
	}
	return n
}

// HasSuit reports whether hand can follow suit.
func HasSuit(hand []Card, suit Suit) bool {
	return CountSuit(hand, suit) > 0
}
