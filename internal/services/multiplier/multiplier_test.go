package multiplier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func recentActivity() *time.Time {
	t := now.Add(-24 * time.Hour)
	return &t
}

func TestComputeBonuses(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		in   Inputs
		want float64
	}{
		{"fresh level 1", Inputs{Level: 1, LastActivityAt: recentActivity()}, 1.0},
		{"level bonus only", Inputs{Level: 4, LastActivityAt: recentActivity()}, 1.3},
		{"one activity block", Inputs{Level: 1, ApprovedTasksLast30: 10, LastActivityAt: recentActivity()}, 1.05},
		{"two activity blocks", Inputs{Level: 1, ApprovedTasksLast30: 25, LastActivityAt: recentActivity()}, 1.10},
		{"diminishing third block", Inputs{Level: 1, ApprovedTasksLast30: 30, LastActivityAt: recentActivity()}, 1.13},
		{"five blocks", Inputs{Level: 1, ApprovedTasksLast30: 50, LastActivityAt: recentActivity()}, 1.19},
		{"beyond five blocks", Inputs{Level: 1, ApprovedTasksLast30: 70, LastActivityAt: recentActivity()}, 1.21},
		{"referral bonus", Inputs{Level: 1, ActiveReferrals: 3, LastActivityAt: recentActivity()}, 1.06},
		{"referral bonus capped at ten", Inputs{Level: 1, ActiveReferrals: 25, LastActivityAt: recentActivity()}, 1.20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Compute(tt.in, cfg, now), 1e-9)
		})
	}
}

func TestComputeCap(t *testing.T) {
	cfg := DefaultConfig()
	in := Inputs{
		Level:               30,
		ApprovedTasksLast30: 200,
		ActiveReferrals:     10,
		LastActivityAt:      recentActivity(),
	}
	assert.Equal(t, cfg.Max, Compute(in, cfg, now))
}

func TestComputeStaysInDomain(t *testing.T) {
	cfg := DefaultConfig()
	stale := now.Add(-365 * 24 * time.Hour)

	for level := 1; level <= 40; level++ {
		for _, tasks := range []int{0, 5, 10, 50, 500} {
			for _, last := range []*time.Time{nil, recentActivity(), &stale} {
				got := Compute(Inputs{Level: level, ApprovedTasksLast30: tasks, ActiveReferrals: tasks, LastActivityAt: last}, cfg, now)
				assert.GreaterOrEqual(t, got, cfg.Base)
				assert.LessOrEqual(t, got, cfg.Max)
			}
		}
	}
}

func TestInactivityDecay(t *testing.T) {
	cfg := DefaultConfig()

	active := Inputs{Level: 2, ApprovedTasksLast30: 20, ActiveReferrals: 5, LastActivityAt: recentActivity()}
	fresh := Compute(active, cfg, now)

	idle := active
	idleAt := now.Add(-21 * 24 * time.Hour)
	idle.LastActivityAt = &idleAt
	decayed := Compute(idle, cfg, now)

	assert.Less(t, decayed, fresh, "three idle weeks must cost something")

	// Decay never erodes the level-earned floor.
	longIdle := now.Add(-3 * 365 * 24 * time.Hour)
	idle.LastActivityAt = &longIdle
	assert.InDelta(t, cfg.Base+cfg.LevelBonusStep, Compute(idle, cfg, now), 1e-9)
}

func TestNoDecayInsideGracePeriod(t *testing.T) {
	cfg := DefaultConfig()
	in := Inputs{Level: 3, ApprovedTasksLast30: 10, LastActivityAt: recentActivity()}
	fresh := Compute(in, cfg, now)

	almost := now.Add(-6 * 24 * time.Hour)
	in.LastActivityAt = &almost
	assert.InDelta(t, fresh, Compute(in, cfg, now), 1e-9)
}

func TestComputeIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	in := Inputs{Level: 5, ApprovedTasksLast30: 33, ActiveReferrals: 4, LastActivityAt: recentActivity()}
	first := Compute(in, cfg, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compute(in, cfg, now))
	}
}
