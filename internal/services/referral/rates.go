package referral

// RateTable maps chain level (1..MaxReferralDepth) to commission rate.
// Configuration may override the defaults; levels missing from the
// table earn nothing.
type RateTable map[int]float64

// DefaultRates are the production per-level commission rates.
func DefaultRates() RateTable {
	return RateTable{
		1: 0.10,
		2: 0.08,
		3: 0.06,
		4: 0.04,
		5: 0.02,
	}
}

// Rate returns the commission rate for a chain level, zero when the
// level is unknown.
func (t RateTable) Rate(level int) float64 {
	return t[level]
}
