// game/game.go
package game

import (
	"fmt"

	"github.com/stakehall/matchengine/deck"
)

// Variant tags the closed set of rule modules. A room picks its rules once
// at creation and never changes them.
type Variant string

const (
	VariantTrickBidding Variant = "trick_bidding"
	VariantHiddenSuit   Variant = "hidden_suit"
	VariantDrawBet      Variant = "draw_bet"
	VariantBoardRace    Variant = "board_race"
)

// Phase of a table. Not every variant visits every phase.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseBidding    Phase = "bidding"
	PhaseDeclaring  Phase = "declaring"  // high bidder names the dominant suit
	PhaseConcealing Phase = "concealing" // designated bidder buries the power card
	PhasePlaying    Phase = "playing"
	PhaseEnded      Phase = "ended"
)

// ActionType enumerates everything a seat can submit.
type ActionType string

const (
	ActBid     ActionType = "bid"
	ActDeclare ActionType = "declare"
	ActConceal ActionType = "conceal"
	ActReveal  ActionType = "reveal"
	ActPass    ActionType = "pass"
	ActPlay    ActionType = "play"
	ActFold    ActionType = "fold"
	ActSee     ActionType = "see"
	ActCall    ActionType = "call"
	ActRaise   ActionType = "raise"
	ActShow    ActionType = "show"
	ActRoll    ActionType = "roll"
	ActMove    ActionType = "move"
)

// Action is the single wire shape for every variant; unused fields stay zero.
type Action struct {
	Type   ActionType `json:"type"`
	Card   *deck.Card `json:"card,omitempty"`
	Suit   *deck.Suit `json:"suit,omitempty"`
	Bid    int        `json:"bid,omitempty"`
	Amount int64      `json:"amount,omitempty"`
	Piece  int        `json:"piece,omitempty"`
}

// Rejection codes. Kept stable: clients switch on them.
const (
	RejectWrongTurn         = "wrong_turn"
	RejectBadPhase          = "bad_phase"
	RejectMalformed         = "malformed"
	RejectIllegalCard       = "illegal_card"
	RejectIllegalMove       = "illegal_move"
	RejectInsufficientFunds = "insufficient_funds"
)

// Rejection is a structured refusal of an action. It is an error so rules
// can return it through the normal error path, but callers are expected to
// report it to the offending seat rather than fail the room.
type Rejection struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("rejected (%s): %s", r.Code, r.Message)
}

// Reject builds a Rejection with a formatted message.
func Reject(code, format string, args ...interface{}) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Rules validates actions against table state and produces the next state.
// Implementations mutate the table they are given; the room supervisor
// serializes all calls for one table.
type Rules interface {
	Variant() Variant
	SeatCount() int
	// Deal starts a fresh round: holdings populated, phase and first
	// awaited seat set.
	Deal(t *Table)
	// Apply validates and applies one action from seat. A *Rejection error
	// means the table was not changed.
	Apply(t *Table, seat int, a Action) error
	// Terminal reports whether the match is over and which seats won.
	Terminal(t *Table) (bool, []int)
}

// Options carries the static per-variant tuning handed in at room creation.
type Options struct {
	TargetScore int   // trick_bidding: cumulative score ending the match
	SingleRound bool  // trick_bidding: end after one round regardless
	Ante        int64 // draw_bet: forced ante per seat
	RaiseCap    int64 // draw_bet: ceiling on the current bet
}

// NewRules returns the rule module for variant, or an error for an unknown
// tag. This is the only place variants are dispatched by name.
func NewRules(v Variant, opts Options) (Rules, error) {
	switch v {
	case VariantTrickBidding:
		return newTrickBidding(opts), nil
	case VariantHiddenSuit:
		return newHiddenSuit(), nil
	case VariantDrawBet:
		return newDrawBet(opts), nil
	case VariantBoardRace:
		return newBoardRace(), nil
	default:
		return nil, fmt.Errorf("unknown game variant %q", v)
	}
}
