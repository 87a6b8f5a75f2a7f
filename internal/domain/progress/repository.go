package progress

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityEntry is one row of recent learning activity shown on the
// progress dashboard. It mirrors the chat history record without the
// tutor response body.
type ActivityEntry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Action    ActionType
	Message   string
	Timestamp time.Time
}

// LeaderboardEntry is one ranked row of the points leaderboard.
type LeaderboardEntry struct {
	Rank          int
	Username      string
	Level         int
	TotalPoints   int
	TotalMessages int
	CurrentStreak int
	WordsLearned  int
}

// StatsStore persists user progress state. Implementations must make
// InsertAchievement idempotent per (user, achievement): a duplicate insert
// returns shared.ErrAlreadyExists and leaves the original row untouched.
type StatsStore interface {
	// InitStats creates the zero-progress row for a new user.
	InitStats(ctx context.Context, userID uuid.UUID) error

	// GetStats returns the current stats, or shared.ErrNotFound.
	GetStats(ctx context.Context, userID uuid.UUID) (*UserStats, error)

	// SaveStats applies a partial update. Unset patch fields are not written.
	SaveStats(ctx context.Context, userID uuid.UUID, patch Patch) error

	// ListEarnedAchievementIDs returns the identifiers of achievements the
	// user has already earned.
	ListEarnedAchievementIDs(ctx context.Context, userID uuid.UUID) (map[string]bool, error)

	// InsertAchievement records an earned achievement. Returns
	// shared.ErrAlreadyExists if the user already has it.
	InsertAchievement(ctx context.Context, userID uuid.UUID, a Achievement) error

	// ListAchievements returns earned achievements, newest first.
	ListAchievements(ctx context.Context, userID uuid.UUID) ([]Achievement, error)

	// RecentActivity returns the user's latest activity entries, newest first.
	RecentActivity(ctx context.Context, userID uuid.UUID, limit int) ([]ActivityEntry, error)

	// CountActivitySince counts entries of one activity kind at or after
	// the cutoff.
	CountActivitySince(ctx context.Context, userID uuid.UUID, action ActionType, since time.Time) (int, error)

	// TopByPoints returns the leaderboard rows ordered by total points
	// descending, ranks already assigned.
	TopByPoints(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}
