package escrow

import "testing"

func TestPotFeeFloored(t *testing.T) {
	tests := []struct {
		total, rateBP, wantPot, wantFee int64
	}{
		{40000, 250, 39000, 1000}, // 2.5% of four seats at 10000
		{0, 250, 0, 0},
		{40000, 0, 40000, 0},
		{99, 250, 97, 2}, // 2.475 floors to 2
		{10000, 10000, 0, 10000},
	}
	for _, tt := range tests {
		pot, fee := Pot(tt.total, tt.rateBP)
		if pot != tt.wantPot || fee != tt.wantFee {
			t.Errorf("Pot(%d, %d) = (%d, %d), want (%d, %d)",
				tt.total, tt.rateBP, pot, fee, tt.wantPot, tt.wantFee)
		}
	}
}

func TestSplitEven(t *testing.T) {
	payouts := SplitEven(39000, []int{2})
	if payouts[2] != 39000 {
		t.Errorf("sole winner payout = %d, want 39000", payouts[2])
	}

	payouts = SplitEven(39000, []int{1, 3})
	if payouts[1] != 19500 || payouts[3] != 19500 {
		t.Errorf("team payouts = %v, want 19500 each", payouts)
	}
}

func TestSplitEvenRemainderToEarliestSeat(t *testing.T) {
	payouts := SplitEven(100, []int{3, 1, 2})
	if payouts[1] != 34 {
		t.Errorf("seat 1 = %d, want 34 (share plus remainder)", payouts[1])
	}
	if payouts[2] != 33 || payouts[3] != 33 {
		t.Errorf("payouts = %v, want 33 for seats 2 and 3", payouts)
	}

	var sum int64
	for _, p := range payouts {
		sum += p
	}
	if sum != 100 {
		t.Errorf("payouts sum to %d, want the full pot", sum)
	}
}

func TestSplitEvenNoWinners(t *testing.T) {
	if payouts := SplitEven(100, nil); payouts != nil {
		t.Errorf("payouts = %v, want nil", payouts)
	}
}
