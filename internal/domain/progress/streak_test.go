package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day int, hour int) time.Time {
	return time.Date(2026, time.March, day, hour, 0, 0, 0, time.UTC)
}

func TestStreakFirstActivity(t *testing.T) {
	calc := NewStreakCalculator()
	stats := newStats(t)
	now := at(10, 12)

	patch := calc.Advance(stats, now)

	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 1, stats.LongestStreak)
	require.NotNil(t, stats.LastActivity)
	assert.True(t, stats.LastActivity.Equal(now))
	require.NotNil(t, patch.CurrentStreak)
	require.NotNil(t, patch.LongestStreak)
}

func TestStreakSameDayUnchanged(t *testing.T) {
	calc := NewStreakCalculator()
	stats := newStats(t)
	first := at(10, 9)
	stats.CurrentStreak = 3
	stats.LongestStreak = 5
	stats.LastActivity = &first

	later := at(10, 22)
	patch := calc.Advance(stats, later)

	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 5, stats.LongestStreak)
	assert.True(t, stats.LastActivity.Equal(later), "last activity must advance even within the same day")
	assert.Nil(t, patch.LongestStreak)
}

func TestStreakNextDayIncrements(t *testing.T) {
	calc := NewStreakCalculator()
	stats := newStats(t)
	prev := at(10, 23)
	stats.CurrentStreak = 3
	stats.LongestStreak = 3
	stats.LastActivity = &prev

	// 23:00 on the 10th to 00:30 on the 11th is a consecutive day.
	next := time.Date(2026, time.March, 11, 0, 30, 0, 0, time.UTC)
	calc.Advance(stats, next)

	assert.Equal(t, 4, stats.CurrentStreak)
	assert.Equal(t, 4, stats.LongestStreak)
}

func TestStreakGapResets(t *testing.T) {
	calc := NewStreakCalculator()
	stats := newStats(t)
	prev := at(10, 12)
	stats.CurrentStreak = 9
	stats.LongestStreak = 9
	stats.LastActivity = &prev

	calc.Advance(stats, at(13, 12))

	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 9, stats.LongestStreak, "longest streak survives a reset")
}

func TestStreakClockBackwardsResets(t *testing.T) {
	calc := NewStreakCalculator()
	stats := newStats(t)
	prev := at(15, 12)
	stats.CurrentStreak = 4
	stats.LongestStreak = 4
	stats.LastActivity = &prev

	calc.Advance(stats, at(12, 12))

	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestStreakLongestOnlyRaised(t *testing.T) {
	calc := NewStreakCalculator()
	stats := newStats(t)
	prev := at(10, 12)
	stats.CurrentStreak = 2
	stats.LongestStreak = 10
	stats.LastActivity = &prev

	patch := calc.Advance(stats, at(11, 12))

	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 10, stats.LongestStreak)
	assert.Nil(t, patch.LongestStreak)
}
