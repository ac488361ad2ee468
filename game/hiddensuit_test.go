package game

import (
	"testing"

	"github.com/stakehall/matchengine/deck"
)

func dealHiddenSuitBids(t *testing.T, rules Rules, table *Table, bids []int) {
	t.Helper()
	rules.Deal(table)
	for seat, bid := range bids {
		if err := rules.Apply(table, seat, Action{Type: ActBid, Bid: bid}); err != nil {
			t.Fatalf("seat %d bid: %v", seat, err)
		}
	}
}

// Equal bids go to the most recent bidder, which also picks the designated
// bidder within the winning team.
func TestHiddenSuitTieGoesToMostRecentBidder(t *testing.T) {
	rules, table := newTestTable(t, VariantHiddenSuit, Options{})
	dealHiddenSuitBids(t, rules, table, []int{4, 6, 6, 3})

	if table.Phase != PhaseConcealing {
		t.Fatalf("phase = %s, want %s", table.Phase, PhaseConcealing)
	}
	if table.HighBidSeat != 2 {
		t.Errorf("designated bidder = %d, want 2 (most recent of the tied bids)", table.HighBidSeat)
	}
}

func TestConcealMustHoldCard(t *testing.T) {
	rules, table := newTestTable(t, VariantHiddenSuit, Options{})
	dealHiddenSuitBids(t, rules, table, []int{4, 6, 5, 3})

	bidder := table.HighBidSeat
	held := table.Seats[bidder].Hand[0]
	unheld := held
	for deck.Contains(table.Seats[bidder].Hand, unheld) {
		unheld.Rank++
		if unheld.Rank > deck.Ace {
			unheld.Rank = deck.Two
			unheld.Suit = (unheld.Suit + 1) % 4
		}
	}

	err := rules.Apply(table, bidder, Action{Type: ActConceal, Card: &unheld})
	if code := rejectionCode(t, err); code != RejectIllegalCard {
		t.Errorf("code = %s, want %s", code, RejectIllegalCard)
	}

	if err := rules.Apply(table, bidder, Action{Type: ActConceal, Card: &held}); err != nil {
		t.Fatalf("conceal: %v", err)
	}
	if table.Phase != PhasePlaying || table.Turn != bidder {
		t.Errorf("designated bidder should lead: phase %s turn %d", table.Phase, table.Turn)
	}
	if table.Hidden == nil || table.Hidden.Card != held || table.Hidden.Revealed {
		t.Errorf("hidden designator not recorded: %+v", table.Hidden)
	}
	if !deck.Contains(table.Seats[bidder].Hand, held) {
		t.Error("the concealed card must stay in the owner's hand")
	}
}

// A seat that cannot follow is offered the reveal; passing forfeits the
// offer for this trick only.
func TestRevealGate(t *testing.T) {
	rules, table := newTestTable(t, VariantHiddenSuit, Options{})
	dealHiddenSuitBids(t, rules, table, []int{4, 3, 3, 3})
	bidder := table.HighBidSeat // seat 0

	concealed := deck.Card{Suit: deck.Spades, Rank: deck.Ace}
	table.Seats[0].Hand = []deck.Card{concealed, {Suit: deck.Hearts, Rank: deck.Ten}}
	table.Seats[1].Hand = []deck.Card{{Suit: deck.Clubs, Rank: deck.Four}, {Suit: deck.Clubs, Rank: deck.Five}}
	table.Seats[2].Hand = []deck.Card{{Suit: deck.Hearts, Rank: deck.Two}, {Suit: deck.Hearts, Rank: deck.Three}}
	table.Seats[3].Hand = []deck.Card{{Suit: deck.Hearts, Rank: deck.Four}, {Suit: deck.Hearts, Rank: deck.Five}}

	if bidder != 0 {
		t.Fatalf("expected seat 0 as designated bidder, got %d", bidder)
	}
	if err := rules.Apply(table, 0, Action{Type: ActConceal, Card: &concealed}); err != nil {
		t.Fatalf("conceal: %v", err)
	}

	lead := deck.Card{Suit: deck.Hearts, Rank: deck.Ten}
	if err := rules.Apply(table, 0, Action{Type: ActPlay, Card: &lead}); err != nil {
		t.Fatalf("lead: %v", err)
	}

	// Seat 1 holds no hearts: the reveal decision gates its play.
	if !table.AwaitReveal {
		t.Fatal("expected the reveal gate for the void seat")
	}
	card := deck.Card{Suit: deck.Clubs, Rank: deck.Four}
	err := rules.Apply(table, 1, Action{Type: ActPlay, Card: &card})
	if code := rejectionCode(t, err); code != RejectBadPhase {
		t.Errorf("playing through the gate: code = %s, want %s", code, RejectBadPhase)
	}

	if err := rules.Apply(table, 1, Action{Type: ActPass}); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if table.AwaitReveal {
		t.Fatal("pass should clear the gate")
	}
	if table.Hidden.Revealed || table.Trump != deck.NoSuit {
		t.Error("pass must not reveal the power suit")
	}
	if err := rules.Apply(table, 1, Action{Type: ActPlay, Card: &card}); err != nil {
		t.Fatalf("play after pass: %v", err)
	}
}

func TestRevealSetsPowerSuit(t *testing.T) {
	rules, table := newTestTable(t, VariantHiddenSuit, Options{})
	dealHiddenSuitBids(t, rules, table, []int{4, 3, 3, 3})

	concealed := deck.Card{Suit: deck.Spades, Rank: deck.Ace}
	table.Seats[0].Hand = []deck.Card{concealed, {Suit: deck.Hearts, Rank: deck.Ten}}
	table.Seats[1].Hand = []deck.Card{{Suit: deck.Clubs, Rank: deck.Four}, {Suit: deck.Spades, Rank: deck.Five}}
	table.Seats[2].Hand = []deck.Card{{Suit: deck.Hearts, Rank: deck.Two}, {Suit: deck.Hearts, Rank: deck.Three}}
	table.Seats[3].Hand = []deck.Card{{Suit: deck.Hearts, Rank: deck.Four}, {Suit: deck.Hearts, Rank: deck.Five}}

	if err := rules.Apply(table, 0, Action{Type: ActConceal, Card: &concealed}); err != nil {
		t.Fatalf("conceal: %v", err)
	}
	lead := deck.Card{Suit: deck.Hearts, Rank: deck.Ten}
	if err := rules.Apply(table, 0, Action{Type: ActPlay, Card: &lead}); err != nil {
		t.Fatalf("lead: %v", err)
	}
	if err := rules.Apply(table, 1, Action{Type: ActReveal}); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if !table.Hidden.Revealed || table.Trump != deck.Spades {
		t.Errorf("reveal should promote spades, trump = %s", table.Trump)
	}
}

// Playing the concealed designator itself forces the reveal.
func TestPlayingConcealedCardForcesReveal(t *testing.T) {
	rules, table := newTestTable(t, VariantHiddenSuit, Options{})
	dealHiddenSuitBids(t, rules, table, []int{4, 3, 3, 3})

	concealed := deck.Card{Suit: deck.Spades, Rank: deck.Ace}
	table.Seats[0].Hand = []deck.Card{concealed, {Suit: deck.Spades, Rank: deck.Two}}

	if err := rules.Apply(table, 0, Action{Type: ActConceal, Card: &concealed}); err != nil {
		t.Fatalf("conceal: %v", err)
	}
	if err := rules.Apply(table, 0, Action{Type: ActPlay, Card: &concealed}); err != nil {
		t.Fatalf("play: %v", err)
	}
	if !table.Hidden.Revealed || table.Trump != deck.Spades {
		t.Errorf("playing the designator should reveal spades, trump = %s", table.Trump)
	}
}

func TestHiddenSuitTeamScoring(t *testing.T) {
	rules, table := newTestTable(t, VariantHiddenSuit, Options{})
	hs := rules.(*hiddenSuit)
	rules.Deal(table)

	// Team 0 (seats 0 and 2) bid 7 collectively and took 8 tricks.
	table.HighBidSeat = 2
	bids := []int{5, 3, 7, 2}
	tricks := []int{3, 2, 5, 3}
	for i, s := range table.Seats {
		s.Bid = bids[i]
		s.Tricks = tricks[i]
	}
	hs.scoreRound(table)

	done, winners := rules.Terminal(table)
	if !done {
		t.Fatal("Terminal should report done")
	}
	if len(winners) != 2 || winners[0] != 0 || winners[1] != 2 {
		t.Errorf("winners = %v, want [0 2]", winners)
	}
}

func TestHiddenSuitDefendersWinOnMissedBid(t *testing.T) {
	rules, table := newTestTable(t, VariantHiddenSuit, Options{})
	hs := rules.(*hiddenSuit)
	rules.Deal(table)

	table.HighBidSeat = 1
	bids := []int{2, 8, 3, 4}
	tricks := []int{4, 4, 2, 3} // team 1 took 7 of its 8
	for i, s := range table.Seats {
		s.Bid = bids[i]
		s.Tricks = tricks[i]
	}
	hs.scoreRound(table)

	_, winners := rules.Terminal(table)
	if len(winners) != 2 || winners[0] != 0 || winners[1] != 2 {
		t.Errorf("winners = %v, want the defending team [0 2]", winners)
	}
}
