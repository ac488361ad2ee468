package deck

import (
	"math/rand"
	"testing"
)

func TestNewDeck(t *testing.T) {
	cards := New()
	if len(cards) != 52 {
		t.Fatalf("expected 52 cards, got %d", len(cards))
	}

	seen := make(map[Card]bool)
	for _, c := range cards {
		if seen[c] {
			t.Errorf("duplicate card %s", c)
		}
		seen[c] = true
	}
}

func TestShuffleIsDeterministicForSeed(t *testing.T) {
	a := New()
	Shuffle(a, rand.New(rand.NewSource(7)))
	b := New()
	Shuffle(b, rand.New(rand.NewSource(7)))

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different decks at %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestDeal(t *testing.T) {
	hands := Deal(New(), 4, 13)
	if len(hands) != 4 {
		t.Fatalf("expected 4 hands, got %d", len(hands))
	}
	for i, h := range hands {
		if len(h) != 13 {
			t.Errorf("hand %d has %d cards, want 13", i, len(h))
		}
	}
}

func TestBeats(t *testing.T) {
	tests := []struct {
		name        string
		a, b        Card
		lead, trump Suit
		want        bool
	}{
		{"higher rank same suit", Card{Hearts, Ace}, Card{Hearts, King}, Hearts, NoSuit, true},
		{"lower rank same suit", Card{Hearts, Two}, Card{Hearts, Three}, Hearts, NoSuit, false},
		{"trump beats lead", Card{Spades, Two}, Card{Hearts, Ace}, Hearts, Spades, true},
		{"lead beats off-suit", Card{Hearts, Two}, Card{Clubs, Ace}, Hearts, NoSuit, true},
		{"off-suit never wins", Card{Clubs, Ace}, Card{Hearts, Two}, Hearts, NoSuit, false},
		{"trump over trump by rank", Card{Spades, Queen}, Card{Spades, Jack}, Hearts, Spades, true},
	}
	for _, tt := range tests {
		if got := Beats(tt.a, tt.b, tt.lead, tt.trump); got != tt.want {
			t.Errorf("%s: Beats(%s, %s) = %v, want %v", tt.name, tt.a, tt.b, got, tt.want)
		}
	}
}

// The winner of a trick must not depend on play order.
func TestWinningOrderIndependent(t *testing.T) {
	cards := []Card{
		{Hearts, Ten},
		{Hearts, King},
		{Spades, Two},
		{Clubs, Ace},
	}
	winner := cards[Winning(cards, Hearts, Spades)]
	if winner != (Card{Spades, Two}) {
		t.Fatalf("expected the trump two to win, got %s", winner)
	}

	reversed := []Card{cards[3], cards[2], cards[1], cards[0]}
	if got := reversed[Winning(reversed, Hearts, Spades)]; got != winner {
		t.Errorf("winner changed with order: %s vs %s", got, winner)
	}
}

func TestWinningNoTrump(t *testing.T) {
	cards := []Card{
		{Hearts, Ten},
		{Hearts, King},
		{Clubs, Ace},
	}
	if got := cards[Winning(cards, Hearts, NoSuit)]; got != (Card{Hearts, King}) {
		t.Errorf("expected the king of the lead suit to win, got %s", got)
	}
}

func TestRemove(t *testing.T) {
	hand := []Card{{Hearts, Two}, {Hearts, Three}}
	hand, ok := Remove(hand, Card{Hearts, Two})
	if !ok {
		t.Fatal("card should have been removed")
	}
	if len(hand) != 1 || hand[0] != (Card{Hearts, Three}) {
		t.Errorf("unexpected hand after removal: %v", hand)
	}

	if _, ok := Remove(hand, Card{Spades, Ace}); ok {
		t.Error("removing an absent card should report false")
	}
}

func TestSuitHelpers(t *testing.T) {
	hand := []Card{{Hearts, Two}, {Hearts, King}, {Clubs, Five}}
	if n := CountSuit(hand, Hearts); n != 2 {
		t.Errorf("CountSuit = %d, want 2", n)
	}
	if !HasSuit(hand, Clubs) {
		t.Error("HasSuit should find clubs")
	}
	if HasSuit(hand, Spades) {
		t.Error("HasSuit should not find spades")
	}
}
