package commission

import (
	"math"

	"github.com/google/uuid"
	"github.com/scicent/backend/internal/models"
)

// Config carries the distribution tunables.
type Config struct {
	// MinimumCommission is the smallest amount worth posting; anything
	// below it is skipped for that level.
	MinimumCommission float64
	// ScaleByMultiplier applies the referrer's activity multiplier to
	// the commission when the referrer is active.
	ScaleByMultiplier bool
}

// DefaultConfig mirrors the production tuning.
func DefaultConfig() Config {
	return Config{
		MinimumCommission: 0.01,
		ScaleByMultiplier: true,
	}
}

// ChainLink is one upline edge as seen by the planner: the level-N
// referrer of the profile the qualifying event happened on.
type ChainLink struct {
	ReferrerID         uuid.UUID
	Level              int
	Rate               float64
	ReferrerActive     bool
	ReferrerMultiplier float64
}

// Posting is one planned ledger credit.
type Posting struct {
	ReferrerID uuid.UUID `json:"referrer_id"`
	Level      int       `json:"level"`
	Rate       float64   `json:"rate"`
	Amount     float64   `json:"amount"`
}

// Plan computes the per-level postings for a base amount over an upline
// chain. Pure: the decision of what to pay whom is fully determined by
// its arguments, so it can be tested without a database.
func Plan(chain []ChainLink, baseAmount float64, cfg Config) []Posting {
	var postings []Posting
	for _, link := range chain {
		if link.Level < 1 || link.Level > models.MaxReferralDepth {
			continue
		}
		amount := baseAmount * link.Rate
		if cfg.ScaleByMultiplier && link.ReferrerActive && link.ReferrerMultiplier > 0 {
			amount *= link.ReferrerMultiplier
		}
		amount = round2(amount)
		if amount < cfg.MinimumCommission {
			continue
		}
		postings = append(postings, Posting{
			ReferrerID: link.ReferrerID,
			Level:      link.Level,
			Rate:       link.Rate,
			Amount:     amount,
		})
	}
	return postings
}

// round2 rounds to two decimal places, the ledger's amount precision.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
