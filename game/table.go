// game/table.go
package game

import (
	"math/rand"

	"github.com/stakehall/matchengine/deck"
)

// RacePieces is the number of pieces per seat in the board-race variant.
const RacePieces = 4

// Seat is one participant slot. The seat list of a table is fixed at match
// start: its length never changes and seats are never reordered.
type Seat struct {
	Index     int    `json:"index"`
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	House     bool   `json:"house"`

	Connected bool `json:"connected"`
	Automated bool `json:"automated"`

	// Trick variants.
	Hand   []deck.Card `json:"-"`
	Bid    int         `json:"bid"`
	HasBid bool        `json:"has_bid"`
	Tricks int         `json:"tricks"`
	Score  int         `json:"score"`

	// Draw-betting.
	Folded    bool  `json:"folded"`
	Seen      bool  `json:"seen"`
	Committed int64 `json:"committed"`

	// Board-race piece progress, see race.go for the encoding.
	Pieces [RacePieces]int `json:"pieces"`

	Won bool `json:"won"`
}

// Played is one card on the current trick.
type Played struct {
	Seat int       `json:"seat"`
	Card deck.Card `json:"card"`
}

// Hidden is the concealed power-suit designator of the hidden-suit variant.
// The card stays in the owner's hand; playing it forces the reveal.
type Hidden struct {
	Owner    int       `json:"owner"`
	Card     deck.Card `json:"card"`
	Revealed bool      `json:"revealed"`
}

// Table is the full mutable state of one match. All access is serialized by
// the owning room supervisor.
type Table struct {
	Variant Variant `json:"variant"`
	Phase   Phase   `json:"phase"`
	Seats   []*Seat `json:"seats"`
	// Turn is the index of the awaited seat. Exactly one seat is awaited
	// whenever the phase is active.
	Turn int `json:"turn"`
	// Version increases by one per accepted mutation; clients use it to
	// detect stale views.
	Version uint64 `json:"version"`
	Stake   int64  `json:"stake"`
	Round   int    `json:"round"`

	// Trick variants.
	TrickCards   []Played  `json:"trick,omitempty"`
	LeadSuit     deck.Suit `json:"lead_suit"`
	Trump        deck.Suit `json:"trump"`
	HighBidSeat  int       `json:"high_bid_seat"`
	Hidden       *Hidden   `json:"-"`
	AwaitReveal  bool      `json:"await_reveal"`
	declinedThis map[int]bool

	// Draw-betting.
	Pot        int64 `json:"pot"`
	CurrentBet int64 `json:"current_bet"`
	RaiseCap   int64 `json:"raise_cap,omitempty"`
	callsSince int // full calls since the last raise or fold

	// Board-race. Die is the pending roll (0 = awaiting a roll).
	Die    int `json:"die"`
	Streak int `json:"streak"`

	rng *rand.Rand
}

// NewTable builds an empty table for a fixed seat count. The rng drives
// shuffling and dice and is owned by the table.
func NewTable(v Variant, seatCount int, stake int64, rng *rand.Rand) *Table {
	seats := make([]*Seat, seatCount)
	for i := range seats {
		seats[i] = &Seat{Index: i}
		for p := range seats[i].Pieces {
			seats[i].Pieces[p] = raceStart
		}
	}
	return &Table{
		Variant:  v,
		Phase:    PhaseWaiting,
		Seats:    seats,
		Turn:     0,
		Stake:    stake,
		LeadSuit: deck.NoSuit,
		Trump:    deck.NoSuit,
		rng:      rng,
	}
}

// Rng exposes the table's random source to rules and bots.
func (t *Table) Rng() *rand.Rand { return t.rng }

// Bump advances the action counter; called once per accepted mutation.
func (t *Table) Bump() { t.Version++ }

// Active reports whether the table is in a phase that awaits a decision.
func (t *Table) Active() bool {
	return t.Phase != PhaseWaiting && t.Phase != PhaseEnded
}

// SeatView is one seat as visible to a particular viewer. Hands other than
// the viewer's own are reduced to counts.
type SeatView struct {
	Index     int             `json:"index"`
	Name      string          `json:"name"`
	Connected bool            `json:"connected"`
	Automated bool            `json:"automated"`
	Bid       int             `json:"bid"`
	HasBid    bool            `json:"has_bid"`
	Tricks    int             `json:"tricks"`
	Score     int             `json:"score"`
	Folded    bool            `json:"folded"`
	Seen      bool            `json:"seen"`
	Committed int64           `json:"committed"`
	Pieces    [RacePieces]int `json:"pieces"`
	HandSize  int             `json:"hand_size"`
	Hand      []deck.Card     `json:"hand,omitempty"`
}

// View is the redacted table state pushed to one seat.
type View struct {
	Variant     Variant    `json:"variant"`
	Phase       Phase      `json:"phase"`
	Turn        int        `json:"turn"`
	Version     uint64     `json:"version"`
	Stake       int64      `json:"stake"`
	Round       int        `json:"round"`
	Seats       []SeatView `json:"seats"`
	Trick       []Played   `json:"trick,omitempty"`
	LeadSuit    deck.Suit  `json:"lead_suit"`
	Trump       deck.Suit  `json:"trump"`
	AwaitReveal bool       `json:"await_reveal"`
	// HiddenCard is populated only for the concealing seat, or for
	// everyone once revealed.
	HiddenCard *deck.Card `json:"hidden_card,omitempty"`
	Pot        int64      `json:"pot"`
	CurrentBet int64      `json:"current_bet"`
	RaiseCap   int64      `json:"raise_cap,omitempty"`
	Die        int        `json:"die"`
}

// ViewFor builds the redacted view for viewer. Draw-betting hands stay
// hidden even from their owner until the seat has paid to see.
func (t *Table) ViewFor(viewer int) *View {
	v := &View{
		Variant:     t.Variant,
		Phase:       t.Phase,
		Turn:        t.Turn,
		Version:     t.Version,
		Stake:       t.Stake,
		Round:       t.Round,
		LeadSuit:    t.LeadSuit,
		Trump:       t.Trump,
		AwaitReveal: t.AwaitReveal,
		Pot:         t.Pot,
		CurrentBet:  t.CurrentBet,
		RaiseCap:    t.RaiseCap,
		Die:         t.Die,
	}
	v.Trick = append(v.Trick, t.TrickCards...)
	for _, s := range t.Seats {
		sv := SeatView{
			Index:     s.Index,
			Name:      s.Name,
			Connected: s.Connected,
			Automated: s.Automated,
			Bid:       s.Bid,
			HasBid:    s.HasBid,
			Tricks:    s.Tricks,
			Score:     s.Score,
			Folded:    s.Folded,
			Seen:      s.Seen,
			Committed: s.Committed,
			Pieces:    s.Pieces,
			HandSize:  len(s.Hand),
		}
		if s.Index == viewer && t.handVisibleToOwner(s) {
			sv.Hand = append(sv.Hand, s.Hand...)
		}
		v.Seats = append(v.Seats, sv)
	}
	if t.Hidden != nil {
		if t.Hidden.Revealed || t.Hidden.Owner == viewer {
			card := t.Hidden.Card
			v.HiddenCard = &card
		}
	}
	return v
}

func (t *Table) handVisibleToOwner(s *Seat) bool {
	if t.Variant == VariantDrawBet {
		return s.Seen
	}
	return true
}

// SeatAt returns the seat struct, or nil for an out-of-range index.
func (t *Table) SeatAt(i int) *Seat {
	if i < 0 || i >= len(t.Seats) {
		return nil
	}
	return t.Seats[i]
}
