// escrow/escrow.go
//
// Escrow accounting primitives and the ledger contract. The transactional
// implementations live in the persistence package; everything here is pure
// so the arithmetic is testable without a database.
package escrow

import "sort"

// Settlement is the outcome of settling one match.
type Settlement struct {
	// AlreadySettled marks the idempotent no-op path: the match was
	// finished before this call and no balances moved.
	AlreadySettled bool
	TotalStake     int64
	Fee            int64
	Pot            int64
	// Payouts maps winning seat index to the amount credited.
	Payouts map[int]int64
}

// Ledger locks stakes when a match starts and distributes the pot exactly
// once when it ends. Settle must be idempotent: re-invoking it for a
// finished match returns AlreadySettled without moving funds.
type Ledger interface {
	Lock(matchID string) error
	Settle(matchID string, winningSeats []int) (*Settlement, error)
}

// Pot computes the distributable pot and the platform fee from the total
// stake. The fee is floored: fee = totalStake * feeRateBP / 10000 in
// integer arithmetic.
func Pot(totalStake, feeRateBP int64) (pot, fee int64) {
	fee = totalStake * feeRateBP / 10000
	return totalStake - fee, fee
}

// SplitEven divides pot across the winning seats. Any remainder of the
// integer division goes to the earliest winning seat in fixed seat order,
// which keeps the distribution deterministic.
func SplitEven(pot int64, winners []int) map[int]int64 {
	if len(winners) == 0 {
		return nil
	}
	sorted := append([]int(nil), winners...)
	sort.Ints(sorted)

	share := pot / int64(len(sorted))
	remainder := pot - share*int64(len(sorted))

	out := make(map[int]int64, len(sorted))
	for i, seat := range sorted {
		out[seat] = share
		if i == 0 {
			out[seat] += remainder
		}
	}
	return out
}
