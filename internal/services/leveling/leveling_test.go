package leveling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testThresholds = Thresholds{100, 250, 500}

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		name  string
		xp    int64
		level int
	}{
		{"zero xp", 0, 1},
		{"just below first threshold", 99, 1},
		{"exactly first threshold", 100, 2},
		{"between thresholds", 250, 3},
		{"at max threshold", 500, 4},
		{"far beyond max", 1_000_000, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.level, testThresholds.LevelForXP(tt.xp))
		})
	}
}

func TestLevelForXPMonotonicAndIdempotent(t *testing.T) {
	prev := 0
	for xp := int64(0); xp <= 600; xp += 7 {
		level := testThresholds.LevelForXP(xp)
		assert.GreaterOrEqual(t, level, prev, "level must never decrease as xp grows")
		assert.Equal(t, level, testThresholds.LevelForXP(xp), "re-invocation must be stable")
		prev = level
	}
}

func TestXPToNextLevel(t *testing.T) {
	remaining := testThresholds.XPToNextLevel(30, 1)
	require.NotNil(t, remaining)
	assert.Equal(t, int64(70), *remaining)

	remaining = testThresholds.XPToNextLevel(100, 2)
	require.NotNil(t, remaining)
	assert.Equal(t, int64(150), *remaining)

	// Max level has no next level.
	assert.Nil(t, testThresholds.XPToNextLevel(500, 4))
}

func TestProgressPercentage(t *testing.T) {
	assert.InDelta(t, 50.0, testThresholds.ProgressPercentage(50, 1), 0.001)
	assert.InDelta(t, 0.0, testThresholds.ProgressPercentage(100, 2), 0.001)
	assert.InDelta(t, 100.0, testThresholds.ProgressPercentage(999, 2), 0.001, "clamped at 100")
	assert.InDelta(t, 100.0, testThresholds.ProgressPercentage(500, 4), 0.001, "max level is always 100")
}

func TestMisconfiguredTableDegrades(t *testing.T) {
	for _, table := range []Thresholds{nil, {}, {100, 100}, {200, 100}, {-5, 10}} {
		assert.Equal(t, 1, table.LevelForXP(10_000))
		assert.Equal(t, 1, table.MaxLevel())
		assert.Nil(t, table.XPToNextLevel(0, 1))
		assert.InDelta(t, 100.0, table.ProgressPercentage(0, 1), 0.001)
	}
}
