package progress

import (
	"time"

	"github.com/linguaspark/linguaspark-api/pkg/timeutil"
)

// StreakCalculator advances daily activity streaks. Days are compared on
// calendar boundaries in the supplied time's location, not 24-hour windows:
// activity at 23:59 and 00:01 counts as consecutive days.
type StreakCalculator struct{}

// NewStreakCalculator returns a streak calculator.
func NewStreakCalculator() *StreakCalculator {
	return &StreakCalculator{}
}

// Advance updates the streak for an action happening at now and returns the
// resulting patch. The stats record is mutated in memory.
//
// Rules:
//   - no prior activity: streak starts at 1
//   - same calendar day: streak unchanged
//   - next calendar day: streak increments
//   - gap of two or more days: streak resets to 1
//
// LastActivity is always set to now, even when the streak itself is unchanged.
func (c *StreakCalculator) Advance(stats *UserStats, now time.Time) Patch {
	patch := Patch{LastActivity: &now}

	switch {
	case stats.LastActivity == nil:
		stats.CurrentStreak = 1
	default:
		switch days := timeutil.CalendarDaysBetween(*stats.LastActivity, now); {
		case days == 0:
			// Second action today, streak already counted.
		case days == 1:
			stats.CurrentStreak++
		default:
			// Covers gaps and clock moving backwards.
			stats.CurrentStreak = 1
		}
	}

	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
		patch.LongestStreak = intPtr(stats.LongestStreak)
	}
	stats.LastActivity = &now
	patch.CurrentStreak = intPtr(stats.CurrentStreak)

	return patch
}
