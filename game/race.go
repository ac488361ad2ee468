// game/race.go
//
// Board race: four pieces per seat travel a shared 52-cell loop and then a
// private 6-cell home stretch, finishing past it on an exact roll. Rolling
// the maximum face grants an extra turn, but a third consecutive maximum
// forfeits the pending move and ends the turn. Landing exactly on a lone
// opposing piece on a non-safe cell sends it back to start; two or more
// pieces of one colour form a block that opposing pieces can neither pass
// nor land on.
package game

// Piece progress encoding, relative to the owning seat:
//
//	raceStart          off-board, waiting for a maximum roll to enter
//	0..51              loop cells, absolute cell = (entry + progress) % 52
//	52..57             the private home stretch
//	raceDone           reached the final cell
const (
	raceStart     = -1
	raceLoopCells = 52
	raceHomeFirst = 52
	raceDone      = 58

	raceSeatCount = 4
	dieMax        = 6
	maxRollStreak = 3
)

type boardRace struct{}

func newBoardRace() *boardRace { return &boardRace{} }

func (r *boardRace) Variant() Variant { return VariantBoardRace }
func (r *boardRace) SeatCount() int   { return raceSeatCount }

// raceEntry is the absolute loop cell where seat enters from start.
func raceEntry(seat int) int { return seat * (raceLoopCells / raceSeatCount) }

// raceSafe cells are every seat's entry cell and the cell eight past it.
func raceSafe(cell int) bool {
	switch cell {
	case 0, 8, 13, 21, 26, 34, 39, 47:
		return true
	}
	return false
}

func (r *boardRace) Deal(t *Table) {
	for _, s := range t.Seats {
		for p := range s.Pieces {
			s.Pieces[p] = raceStart
		}
		s.Won = false
	}
	t.Die = 0
	t.Streak = 0
	t.Round++
	t.Phase = PhasePlaying
	t.Turn = 0
}

func (r *boardRace) Apply(t *Table, seat int, a Action) error {
	if seat != t.Turn {
		return Reject(RejectWrongTurn, "seat %d acted out of turn", seat)
	}
	if t.Phase != PhasePlaying {
		return Reject(RejectBadPhase, "no actions accepted in phase %s", t.Phase)
	}
	switch a.Type {
	case ActRoll:
		return r.applyRoll(t, seat)
	case ActMove:
		return r.applyMove(t, seat, a.Piece)
	default:
		return Reject(RejectMalformed, "unknown race action %s", a.Type)
	}
}

func (r *boardRace) applyRoll(t *Table, seat int) error {
	if t.Die != 0 {
		return Reject(RejectIllegalMove, "seat %d already rolled a %d", seat, t.Die)
	}
	roll := t.rng.Intn(dieMax) + 1
	if roll == dieMax {
		t.Streak++
		if t.Streak >= maxRollStreak {
			// Third consecutive maximum: the pending move is forfeit.
			r.endTurn(t)
			return nil
		}
	}
	t.Die = roll
	if !r.anyLegalMove(t, seat, roll) {
		t.Die = 0
		if roll == dieMax {
			return nil // extra roll, same seat
		}
		r.endTurn(t)
	}
	return nil
}

func (r *boardRace) applyMove(t *Table, seat, piece int) error {
	if t.Die == 0 {
		return Reject(RejectIllegalMove, "seat %d must roll first", seat)
	}
	if piece < 0 || piece >= RacePieces {
		return Reject(RejectMalformed, "piece %d out of range", piece)
	}
	s := t.Seats[seat]
	target, ok := r.destination(t, seat, s.Pieces[piece], t.Die)
	if !ok {
		return Reject(RejectIllegalMove, "piece %d cannot move %d", piece, t.Die)
	}

	s.Pieces[piece] = target
	r.capture(t, seat, target)

	if r.finished(s) {
		s.Won = true
		t.Phase = PhaseEnded
		return nil
	}

	extra := t.Die == dieMax
	t.Die = 0
	if !extra {
		r.endTurn(t)
	}
	return nil
}

func (r *boardRace) endTurn(t *Table) {
	t.Die = 0
	t.Streak = 0
	t.advance()
}

// destination computes where a piece at progress lands with die, reporting
// false for an illegal move (no exact landing, blocked path or blocked
// destination).
func (r *boardRace) destination(t *Table, seat, progress, die int) (int, bool) {
	if progress == raceDone {
		return 0, false
	}
	if progress == raceStart {
		if die != dieMax {
			return 0, false
		}
		if r.blockedFor(t, seat, raceEntry(seat)) {
			return 0, false
		}
		return 0, true
	}
	target := progress + die
	if target > raceDone {
		return 0, false // must land exactly
	}
	// Loop-cell path and destination must be clear of opposing blocks.
	for step := progress + 1; step <= target && step < raceHomeFirst; step++ {
		if r.blockedFor(t, seat, (raceEntry(seat)+step)%raceLoopCells) {
			return 0, false
		}
	}
	return target, true
}

// blockedFor reports whether cell holds a block (two or more pieces) of any
// seat other than seat.
func (r *boardRace) blockedFor(t *Table, seat, cell int) bool {
	for _, other := range t.Seats {
		if other.Index == seat {
			continue
		}
		n := 0
		for _, p := range other.Pieces {
			if p >= 0 && p < raceHomeFirst && (raceEntry(other.Index)+p)%raceLoopCells == cell {
				n++
			}
		}
		if n >= 2 {
			return true
		}
	}
	return false
}

// capture sends lone opposing pieces on the landed loop cell back to start.
// Safe cells and the home stretch are immune.
func (r *boardRace) capture(t *Table, seat, progress int) {
	if progress < 0 || progress >= raceHomeFirst {
		return
	}
	cell := (raceEntry(seat) + progress) % raceLoopCells
	if raceSafe(cell) {
		return
	}
	for _, other := range t.Seats {
		if other.Index == seat {
			continue
		}
		var onCell []int
		for i, p := range other.Pieces {
			if p >= 0 && p < raceHomeFirst && (raceEntry(other.Index)+p)%raceLoopCells == cell {
				onCell = append(onCell, i)
			}
		}
		if len(onCell) == 1 {
			other.Pieces[onCell[0]] = raceStart
		}
	}
}

func (r *boardRace) anyLegalMove(t *Table, seat, die int) bool {
	s := t.Seats[seat]
	for _, p := range s.Pieces {
		if _, ok := r.destination(t, seat, p, die); ok {
			return true
		}
	}
	return false
}

func (r *boardRace) finished(s *Seat) bool {
	for _, p := range s.Pieces {
		if p != raceDone {
			return false
		}
	}
	return true
}

// LegalRaceMoves lists the piece indexes seat may move with the pending
// die. Empty when nothing is legal or no roll is pending.
func LegalRaceMoves(t *Table, seat int) []int {
	if t.Die == 0 {
		return nil
	}
	r := boardRace{}
	var out []int
	for i, p := range t.Seats[seat].Pieces {
		if _, ok := r.destination(t, seat, p, t.Die); ok {
			out = append(out, i)
		}
	}
	return out
}

// RaceMoveCaptures reports whether moving piece with the pending die would
// capture an opposing piece.
func RaceMoveCaptures(t *Table, seat, piece int) bool {
	if t.Die == 0 {
		return false
	}
	r := boardRace{}
	target, ok := r.destination(t, seat, t.Seats[seat].Pieces[piece], t.Die)
	if !ok || target < 0 || target >= raceHomeFirst {
		return false
	}
	cell := (raceEntry(seat) + target) % raceLoopCells
	if raceSafe(cell) {
		return false
	}
	for _, other := range t.Seats {
		if other.Index == seat {
			continue
		}
		n := 0
		for _, p := range other.Pieces {
			if p >= 0 && p < raceHomeFirst && (raceEntry(other.Index)+p)%raceLoopCells == cell {
				n++
			}
		}
		if n == 1 {
			return true
		}
	}
	return false
}

func (r *boardRace) Terminal(t *Table) (bool, []int) {
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
