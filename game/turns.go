// game/turns.go
//
// Turn scheduling: the successor seat is always computed from the fixed
// seat order. Every seat gets its turn whether a human or the bot engine
// answers for it; skipping only happens where a variant removes a seat from
// play entirely (folded in draw-betting).
package game

// NextSeat returns the seat after from in fixed order.
func NextSeat(t *Table, from int) int {
	return (from + 1) % len(t.Seats)
}

// NextActiveSeat returns the first seat after from for which active returns
// true, or -1 if none qualifies.
func NextActiveSeat(t *Table, from int, active func(*Seat) bool) int {
	for i := 1; i <= len(t.Seats); i++ {
		n := (from + i) % len(t.Seats)
		if active(t.Seats[n]) {
			return n
		}
	}
	return -1
}

// advance moves the awaited seat one step in fixed order.
func (t *Table) advance() {
	t.Turn = NextSeat(t, t.Turn)
}

// RequiresAction reports whether the current phase awaits a decision from
// the awaited seat. The room supervisor uses this after every broadcast to
// decide whether to invoke the bot engine.
func RequiresAction(t *Table) bool {
	if !t.Active() {
		return false
	}
	return t.SeatAt(t.Turn) != nil
}
