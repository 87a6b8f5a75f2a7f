package progress

import (
	"fmt"
	"time"

	"github.com/linguaspark/linguaspark-api/pkg/timeutil"
)

// RecentActivityLimit is how many activity rows the dashboard shows.
const RecentActivityLimit = 10

// ProgressView is the dashboard payload: full stats plus recent activity
// and account age.
type ProgressView struct {
	Stats          *UserStats
	RecentActivity []ActivityEntry
	JoinDate       time.Time
	// TotalDays counts calendar days since the account was created,
	// inclusive: an account created today has TotalDays 1.
	TotalDays int
}

// WeekSummary is the activity roll-up for the trailing seven days.
type WeekSummary struct {
	MessagesSent int
	// PointsEarned is the progress into the current level band, not a true
	// weekly delta. Kept for dashboard compatibility.
	PointsEarned  int
	CurrentStreak int
	Level         int
}

// InsightsView is the weekly insights payload.
type InsightsView struct {
	WeekSummary          WeekSummary
	AchievementsUnlocked int
	TotalWordsLearned    int
	Motivation           string
}

// Aggregator assembles read-side views from stats and activity data.
type Aggregator struct{}

// NewAggregator returns a progress view aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// BuildProgress assembles the dashboard view.
func (a *Aggregator) BuildProgress(stats *UserStats, recent []ActivityEntry, joinDate, now time.Time) ProgressView {
	return ProgressView{
		Stats:          stats,
		RecentActivity: recent,
		JoinDate:       joinDate,
		TotalDays:      timeutil.DaysSinceInclusive(joinDate, now),
	}
}

// BuildInsights assembles the weekly insights view.
func (a *Aggregator) BuildInsights(stats *UserStats, weeklyMessages, achievementsCount int) InsightsView {
	return InsightsView{
		WeekSummary: WeekSummary{
			MessagesSent:  weeklyMessages,
			PointsEarned:  PointsIntoLevel(stats.TotalPoints),
			CurrentStreak: stats.CurrentStreak,
			Level:         stats.Level,
		},
		AchievementsUnlocked: achievementsCount,
		TotalWordsLearned:    stats.WordsLearned,
		Motivation:           MotivationMessage(stats),
	}
}

// MotivationMessage picks a motivational line for the user. Tiers are
// checked in priority order: streak, message volume, level, then a
// generic fallback.
func MotivationMessage(stats *UserStats) string {
	switch {
	case stats.CurrentStreak >= 7:
		return fmt.Sprintf("🔥 Amazing! You're on a %d-day streak! Keep up the fantastic work!", stats.CurrentStreak)
	case stats.TotalMessages >= 50:
		return fmt.Sprintf("🌟 You've sent %d messages! You're making incredible progress!", stats.TotalMessages)
	case stats.Level >= 5:
		return fmt.Sprintf("🏆 Level %d! You're becoming a language master!", stats.Level)
	default:
		return "💪 Keep learning! Every message brings you closer to fluency!"
	}
}
