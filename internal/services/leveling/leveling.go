package leveling

// Thresholds is the ascending cumulative-XP table: Thresholds[i] is the
// total XP needed to reach level i+2 (level 1 needs nothing). It is
// plain configuration passed in by the caller; this package never reads
// global state.
type Thresholds []int64

// DefaultThresholds mirrors the production level table.
var DefaultThresholds = Thresholds{100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000}

// valid reports whether the table is usable: non-empty, positive and
// strictly ascending. A misconfigured table degrades every calculation
// to level 1 / 100% progress rather than failing.
func (t Thresholds) Valid() bool {
	if len(t) == 0 {
		return false
	}
	var prev int64
	for _, v := range t {
		if v <= prev {
			return false
		}
		prev = v
	}
	return true
}

// MaxLevel is the highest level reachable under the table.
func (t Thresholds) MaxLevel() int {
	if !t.Valid() {
		return 1
	}
	return len(t) + 1
}

// LevelForXP returns the largest level whose cumulative threshold is
// covered by xp. Monotonic in xp and stable under re-invocation.
func (t Thresholds) LevelForXP(xp int64) int {
	if !t.Valid() {
		return 1
	}
	level := 1
	for _, threshold := range t {
		if xp < threshold {
			break
		}
		level++
	}
	return level
}

// XPToNextLevel returns how much more XP is needed to reach the next
// level, or nil when already at (or beyond) max level.
func (t Thresholds) XPToNextLevel(xp int64, level int) *int64 {
	if !t.Valid() || level >= t.MaxLevel() {
		return nil
	}
	if level < 1 {
		level = 1
	}
	remaining := t[level-1] - xp
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// ProgressPercentage returns how far through the current level xp has
// come, clamped to [0,100]. At max level (or with a broken table) it
// reports 100.
func (t Thresholds) ProgressPercentage(xp int64, level int) float64 {
	if !t.Valid() || level >= t.MaxLevel() {
		return 100
	}
	if level < 1 {
		level = 1
	}
	var floor int64
	if level > 1 {
		floor = t[level-2]
	}
	ceil := t[level-1]
	if ceil <= floor {
		return 100
	}
	pct := float64(xp-floor) / float64(ceil-floor) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
