package commission

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/scicent/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatChain(levels int) []ChainLink {
	rates := map[int]float64{1: 0.10, 2: 0.08, 3: 0.06, 4: 0.04, 5: 0.02}
	chain := make([]ChainLink, 0, levels)
	for level := 1; level <= levels; level++ {
		chain = append(chain, ChainLink{
			ReferrerID:         uuid.New(),
			Level:              level,
			Rate:               rates[level],
			ReferrerActive:     false,
			ReferrerMultiplier: 1.0,
		})
	}
	return chain
}

func TestPlanFiveLevelChain(t *testing.T) {
	postings := Plan(flatChain(5), 1000, DefaultConfig())
	require.Len(t, postings, 5)

	expected := []float64{100, 80, 60, 40, 20}
	total := 0.0
	for i, posting := range postings {
		assert.Equal(t, i+1, posting.Level)
		assert.InDelta(t, expected[i], posting.Amount, 1e-9)
		total += posting.Amount
	}
	assert.InDelta(t, 300, total, 1e-9)
}

func TestPlanShortChain(t *testing.T) {
	postings := Plan(flatChain(2), 1000, DefaultConfig())
	require.Len(t, postings, 2)
	assert.InDelta(t, 100, postings[0].Amount, 1e-9)
	assert.InDelta(t, 80, postings[1].Amount, 1e-9)
}

func TestPlanSkipsDustAmounts(t *testing.T) {
	// Base 0.10: level 5 at 2% is 0.002, below the 0.01 minimum.
	postings := Plan(flatChain(5), 0.10, DefaultConfig())
	for _, posting := range postings {
		assert.GreaterOrEqual(t, posting.Amount, DefaultConfig().MinimumCommission)
		assert.NotEqual(t, 5, posting.Level)
	}
}

func TestPlanScalesByMultiplierForActiveReferrers(t *testing.T) {
	chain := flatChain(1)
	chain[0].ReferrerActive = true
	chain[0].ReferrerMultiplier = 1.5

	postings := Plan(chain, 1000, DefaultConfig())
	require.Len(t, postings, 1)
	assert.InDelta(t, 150, postings[0].Amount, 1e-9)
}

func TestPlanIgnoresMultiplierForInactiveReferrers(t *testing.T) {
	chain := flatChain(1)
	chain[0].ReferrerActive = false
	chain[0].ReferrerMultiplier = 2.5

	postings := Plan(chain, 1000, DefaultConfig())
	require.Len(t, postings, 1)
	assert.InDelta(t, 100, postings[0].Amount, 1e-9)
}

func TestPlanScalingDisabledByConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScaleByMultiplier = false

	chain := flatChain(1)
	chain[0].ReferrerActive = true
	chain[0].ReferrerMultiplier = 3.0

	postings := Plan(chain, 1000, cfg)
	require.Len(t, postings, 1)
	assert.InDelta(t, 100, postings[0].Amount, 1e-9)
}

func TestPlanRoundsToCents(t *testing.T) {
	chain := flatChain(1)
	postings := Plan(chain, 33.333, DefaultConfig())
	require.Len(t, postings, 1)
	assert.InDelta(t, 3.33, postings[0].Amount, 1e-9)
}

func TestPlanDropsOutOfRangeLevels(t *testing.T) {
	chain := []ChainLink{
		{ReferrerID: uuid.New(), Level: 0, Rate: 0.5},
		{ReferrerID: uuid.New(), Level: 6, Rate: 0.5},
	}
	assert.Empty(t, Plan(chain, 1000, DefaultConfig()))
}

func TestUplineAdvisory(t *testing.T) {
	now := time.Now()
	fresh := func() models.VolunteerProfile {
		return models.VolunteerProfile{ID: uuid.New(), CreatedAt: now.Add(-time.Hour)}
	}
	old := func() models.VolunteerProfile {
		return models.VolunteerProfile{ID: uuid.New(), CreatedAt: now.Add(-90 * 24 * time.Hour)}
	}

	assert.Nil(t, checkUplineAdvisory([]models.VolunteerProfile{fresh(), fresh(), old()}, now),
		"two fresh ancestors are within tolerance")

	flags := checkUplineAdvisory([]models.VolunteerProfile{fresh(), fresh(), fresh(), old()}, now)
	require.Len(t, flags, 1)
	assert.Equal(t, FlagFreshUpline, flags[0].Kind)
}
