package multiplier

import (
	"math"
	"time"
)

// Config carries the multiplier tunables. Callers pass it explicitly so
// the calculator stays pure and testable.
type Config struct {
	Base             float64 // starting multiplier, 1.0
	LevelBonusStep   float64 // bonus per level above 1
	ReferralBonus    float64 // bonus per active referral
	MaxReferralCount int     // active referrals counted at most
	DecayRate        float64 // weekly decay factor once inactive
	DecayGraceDays   int     // days of inactivity before decay starts
	Max              float64 // hard cap
}

// DefaultConfig mirrors the production tuning.
func DefaultConfig() Config {
	return Config{
		Base:             1.0,
		LevelBonusStep:   0.1,
		ReferralBonus:    0.02,
		MaxReferralCount: 10,
		DecayRate:        0.95,
		DecayGraceDays:   7,
		Max:              3.0,
	}
}

// Inputs is everything the calculation depends on. The calculator is
// deterministic given Inputs and a reference time.
type Inputs struct {
	Level               int
	ApprovedTasksLast30 int
	ActiveReferrals     int
	LastActivityAt      *time.Time
}

// Compute recalculates the multiplier from scratch. It never reads or
// writes stored state; persistence policy belongs to the caller.
func Compute(in Inputs, cfg Config, now time.Time) float64 {
	levelBonus := cfg.LevelBonusStep * float64(max(in.Level, 1)-1)

	sum := cfg.Base + levelBonus + activityBonus(in.ApprovedTasksLast30) + referralBonus(in.ActiveReferrals, cfg)

	// Inactivity decay erodes earned bonuses but never the standing
	// granted by level alone.
	if in.LastActivityAt != nil {
		idleDays := now.Sub(*in.LastActivityAt).Hours() / 24
		if idleDays > float64(cfg.DecayGraceDays) {
			decayed := sum * math.Pow(cfg.DecayRate, idleDays/7)
			floor := cfg.Base + levelBonus
			if decayed < floor {
				decayed = floor
			}
			sum = decayed
		}
	}

	return math.Min(sum, cfg.Max)
}

// activityBonus grows with approved tasks but with diminishing marginal
// return per block of 10 approvals, capping the farming incentive.
func activityBonus(approvedLast30 int) float64 {
	g := approvedLast30 / 10
	switch {
	case g <= 0:
		return 0
	case g <= 2:
		return 0.05 * float64(g)
	case g <= 5:
		return 0.10 + 0.03*float64(g-2)
	default:
		return 0.19 + 0.01*float64(g-5)
	}
}

func referralBonus(active int, cfg Config) float64 {
	if active > cfg.MaxReferralCount {
		active = cfg.MaxReferralCount
	}
	if active < 0 {
		active = 0
	}
	return cfg.ReferralBonus * float64(active)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
