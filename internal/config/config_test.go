package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scicent/backend/internal/services/leveling"
)

func TestLoadRewardsConfigDefaults(t *testing.T) {
	cfg := loadRewardsConfig()

	assert.Equal(t, leveling.DefaultThresholds, cfg.LevelThresholds)
	assert.Equal(t, 7, cfg.Multiplier.DecayGraceDays)
	assert.Equal(t, 25.0, cfg.LevelBonus)
	assert.Equal(t, 4, cfg.WorkerCount)
}

func TestLoadRewardsConfigEnvOverrides(t *testing.T) {
	t.Setenv("MULTIPLIER_DECAY_GRACE_DAYS", "14")
	t.Setenv("MULTIPLIER_MAX", "2.5")
	t.Setenv("COMMISSION_MINIMUM", "0.05")

	cfg := loadRewardsConfig()

	// Grace days travel as whole days from env through to the sweep
	// scheduler.
	assert.Equal(t, 14, cfg.Multiplier.DecayGraceDays)
	assert.Equal(t, 2.5, cfg.Multiplier.Max)
	assert.Equal(t, 0.05, cfg.Commission.MinimumCommission)
}

func TestGetEnvThresholdsRejectsNonAscending(t *testing.T) {
	t.Setenv("LEVEL_THRESHOLDS", "100,50,500")
	assert.Equal(t, leveling.DefaultThresholds, getEnvThresholds("LEVEL_THRESHOLDS", leveling.DefaultThresholds))

	t.Setenv("LEVEL_THRESHOLDS", "100,abc")
	assert.Equal(t, leveling.DefaultThresholds, getEnvThresholds("LEVEL_THRESHOLDS", leveling.DefaultThresholds))

	t.Setenv("LEVEL_THRESHOLDS", "100,250,500")
	assert.Equal(t, leveling.Thresholds{100, 250, 500}, getEnvThresholds("LEVEL_THRESHOLDS", leveling.DefaultThresholds))
}
