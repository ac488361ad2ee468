package game

import (
	"math/rand"
	"testing"

	"github.com/stakehall/matchengine/deck"
)

func c(s deck.Suit, r deck.Rank) deck.Card { return deck.Card{Suit: s, Rank: r} }

func TestEvalThreeOrdering(t *testing.T) {
	hands := []struct {
		name string
		hand []deck.Card
	}{
		{"trips", []deck.Card{c(deck.Clubs, deck.Five), c(deck.Hearts, deck.Five), c(deck.Spades, deck.Five)}},
		{"straight flush", []deck.Card{c(deck.Hearts, deck.Nine), c(deck.Hearts, deck.Eight), c(deck.Hearts, deck.Seven)}},
		{"straight", []deck.Card{c(deck.Clubs, deck.Nine), c(deck.Hearts, deck.Eight), c(deck.Spades, deck.Seven)}},
		{"flush", []deck.Card{c(deck.Spades, deck.King), c(deck.Spades, deck.Nine), c(deck.Spades, deck.Four)}},
		{"pair", []deck.Card{c(deck.Clubs, deck.Queen), c(deck.Hearts, deck.Queen), c(deck.Spades, deck.Two)}},
		{"high card", []deck.Card{c(deck.Clubs, deck.Ace), c(deck.Hearts, deck.Jack), c(deck.Spades, deck.Six)}},
	}
	for i := 0; i < len(hands)-1; i++ {
		hi, lo := EvalThree(hands[i].hand), EvalThree(hands[i+1].hand)
		if hi <= lo {
			t.Errorf("%s (%d) should beat %s (%d)", hands[i].name, hi, hands[i+1].name, lo)
		}
	}
}

func TestEvalThreeAceLowStraightIsLowestStraight(t *testing.T) {
	aceLow := EvalThree([]deck.Card{c(deck.Clubs, deck.Ace), c(deck.Hearts, deck.Two), c(deck.Spades, deck.Three)})
	fourHigh := EvalThree([]deck.Card{c(deck.Clubs, deck.Four), c(deck.Hearts, deck.Three), c(deck.Spades, deck.Two)})
	aceHigh := EvalThree([]deck.Card{c(deck.Clubs, deck.Ace), c(deck.Hearts, deck.King), c(deck.Spades, deck.Queen)})

	if aceLow >= fourHigh {
		t.Error("the ace-low straight must rank below the four-high straight")
	}
	if aceLow >= aceHigh {
		t.Error("the ace-low straight must rank below the ace-high straight")
	}
	bestPair := EvalThree([]deck.Card{c(deck.Clubs, deck.Ace), c(deck.Hearts, deck.Ace), c(deck.Spades, deck.King)})
	if aceLow <= bestPair {
		t.Error("any straight must beat any pair")
	}
}

func TestEvalThreePairBeforeKicker(t *testing.T) {
	lowPairHighKicker := EvalThree([]deck.Card{c(deck.Clubs, deck.Two), c(deck.Hearts, deck.Two), c(deck.Spades, deck.Ace)})
	highPairLowKicker := EvalThree([]deck.Card{c(deck.Clubs, deck.Three), c(deck.Hearts, deck.Three), c(deck.Spades, deck.Four)})
	if highPairLowKicker <= lowPairHighKicker {
		t.Error("the pair rank must dominate the kicker")
	}
}

func dealDrawBet(t *testing.T, stake int64) (Rules, *Table) {
	t.Helper()
	rules, err := NewRules(VariantDrawBet, Options{Ante: 100, RaiseCap: 1600})
	if err != nil {
		t.Fatal(err)
	}
	table := NewTable(VariantDrawBet, rules.SeatCount(), stake, rand.New(rand.NewSource(1)))
	rules.Deal(table)
	return rules, table
}

func TestDrawBetDealAntes(t *testing.T) {
	_, table := dealDrawBet(t, 0)
	if table.Pot != 400 {
		t.Errorf("pot = %d, want 400", table.Pot)
	}
	if table.CurrentBet != 100 {
		t.Errorf("current bet = %d, want the ante", table.CurrentBet)
	}
	for i, s := range table.Seats {
		if len(s.Hand) != 3 {
			t.Errorf("seat %d holds %d cards, want 3", i, len(s.Hand))
		}
		if s.Committed != 100 {
			t.Errorf("seat %d committed %d, want 100", i, s.Committed)
		}
	}
}

func TestDrawBetSeeDoublesCostAndKeepsTurn(t *testing.T) {
	rules, table := dealDrawBet(t, 0)

	if err := rules.Apply(table, 0, Action{Type: ActSee}); err != nil {
		t.Fatalf("see: %v", err)
	}
	if table.Turn != 0 {
		t.Fatal("looking at the hand must not consume the turn")
	}
	if err := rules.Apply(table, 0, Action{Type: ActCall}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if table.Seats[0].Committed != 300 { // ante 100 + seen call 200
		t.Errorf("committed = %d, want 300", table.Seats[0].Committed)
	}
	if table.Turn != 1 {
		t.Errorf("turn = %d, want 1", table.Turn)
	}
}

func TestDrawBetFoldToLastSeatFinishes(t *testing.T) {
	rules, table := dealDrawBet(t, 0)

	for seat := 0; seat < 3; seat++ {
		if err := rules.Apply(table, seat, Action{Type: ActFold}); err != nil {
			t.Fatalf("seat %d fold: %v", seat, err)
		}
	}
	done, winners := rules.Terminal(table)
	if !done {
		t.Fatal("last seat standing should end the hand")
	}
	if len(winners) != 1 || winners[0] != 3 {
		t.Errorf("winners = %v, want [3]", winners)
	}
}

func TestDrawBetRaiseRules(t *testing.T) {
	rules, table := dealDrawBet(t, 0)

	err := rules.Apply(table, 0, Action{Type: ActRaise, Amount: 100})
	if code := rejectionCode(t, err); code != RejectMalformed {
		t.Errorf("flat raise: code = %s, want %s", code, RejectMalformed)
	}
	err = rules.Apply(table, 0, Action{Type: ActRaise, Amount: 2000})
	if code := rejectionCode(t, err); code != RejectIllegalMove {
		t.Errorf("over the ceiling: code = %s, want %s", code, RejectIllegalMove)
	}

	if err := rules.Apply(table, 0, Action{Type: ActRaise, Amount: 200}); err != nil {
		t.Fatalf("raise: %v", err)
	}
	if table.CurrentBet != 200 {
		t.Errorf("current bet = %d, want 200", table.CurrentBet)
	}
	if table.Seats[0].Committed != 300 {
		t.Errorf("committed = %d, want 300", table.Seats[0].Committed)
	}
}

// A full orbit of calls with no raise forces the showdown.
func TestDrawBetForcedShowdownAfterOrbit(t *testing.T) {
	rules, table := dealDrawBet(t, 0)

	for seat := 0; seat < 4; seat++ {
		if err := rules.Apply(table, seat, Action{Type: ActCall}); err != nil {
			t.Fatalf("seat %d call: %v", seat, err)
		}
	}
	done, winners := rules.Terminal(table)
	if !done {
		t.Fatal("a full orbit of calls should force the showdown")
	}
	if len(winners) == 0 {
		t.Fatal("a showdown must produce at least one winner")
	}

	best := int64(-1)
	for _, s := range table.Seats {
		if v := EvalThree(s.Hand); v > best {
			best = v
		}
	}
	for _, w := range winners {
		if EvalThree(table.Seats[w].Hand) != best {
			t.Errorf("seat %d won without the best hand", w)
		}
	}
}

func TestDrawBetShowRequiresTwoSeats(t *testing.T) {
	rules, table := dealDrawBet(t, 0)

	err := rules.Apply(table, 0, Action{Type: ActShow})
	if code := rejectionCode(t, err); code != RejectIllegalMove {
		t.Errorf("show with four live seats: code = %s, want %s", code, RejectIllegalMove)
	}

	if err := rules.Apply(table, 0, Action{Type: ActFold}); err != nil {
		t.Fatal(err)
	}
	if err := rules.Apply(table, 1, Action{Type: ActFold}); err != nil {
		t.Fatal(err)
	}
	if err := rules.Apply(table, 2, Action{Type: ActShow}); err != nil {
		t.Fatalf("show heads-up: %v", err)
	}
	done, winners := rules.Terminal(table)
	if !done {
		t.Fatal("show should end the hand")
	}
	for _, w := range winners {
		if w != 2 && w != 3 {
			t.Errorf("folded seat %d cannot win", w)
		}
	}
}

func TestDrawBetStakeBoundsBets(t *testing.T) {
	rules, table := dealDrawBet(t, 150)

	// Ante 100 committed; another 100 call would hit 200 > 150.
	err := rules.Apply(table, 0, Action{Type: ActCall})
	if code := rejectionCode(t, err); code != RejectInsufficientFunds {
		t.Errorf("code = %s, want %s", code, RejectInsufficientFunds)
	}
}

func TestDrawBetFoldedSeatCannotAct(t *testing.T) {
	rules, table := dealDrawBet(t, 0)

	if err := rules.Apply(table, 0, Action{Type: ActFold}); err != nil {
		t.Fatal(err)
	}
	table.Turn = 0 // force the impossible
	err := rules.Apply(table, 0, Action{Type: ActCall})
	if code := rejectionCode(t, err); code != RejectMalformed {
		t.Errorf("code = %s, want %s", code, RejectMalformed)
	}
}
