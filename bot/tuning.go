// bot/tuning.go
package bot

// BidWeights shape the bid estimate from high-card density and suit length.
type BidWeights struct {
	AceTricks   float64
	KingTricks  float64
	QueenTricks float64
	// LongSuitBonus is added per card beyond four in the longest suit.
	LongSuitBonus float64
}

// Tuning gathers the heuristic knobs of the engine. One set serves every
// variant; difficulty shading comes from Config.PartnerErrorRate, not from
// separate tunings.
type Tuning struct {
	Bid BidWeights
	// RevealHandThreshold reveals the power card once this few cards
	// remain in hand, regardless of the score.
	RevealHandThreshold int
	// SeeProbability is the chance a blind draw-bet seat pays to look.
	SeeProbability float64
	// BlindRaiseProbability is the chance a blind seat raises instead of
	// calling.
	BlindRaiseProbability float64
	// FoldBelow and RaiseAbove partition seen draw-bet hands by their
	// EvalThree score.
	FoldBelow  int64
	RaiseAbove int64
}

// DefaultTuning plays near-optimally; weaker play is layered on top by the
// partner error rate.
var DefaultTuning = Tuning{
	Bid: BidWeights{
		AceTricks:     1.0,
		KingTricks:    0.7,
		QueenTricks:   0.4,
		LongSuitBonus: 0.5,
	},
	RevealHandThreshold:   3,
	SeeProbability:        0.6,
	BlindRaiseProbability: 0.2,
	FoldBelow:             int64(catPairScoreFloor),
	RaiseAbove:            int64(catFlushScoreFloor),
}

// EvalThree category floors, mirroring the encoding in game.EvalThree.
const (
	catPairScoreFloor  = 1 << 24
	catFlushScoreFloor = 2 << 24
)
