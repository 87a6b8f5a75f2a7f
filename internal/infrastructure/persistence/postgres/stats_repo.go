package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StatsRepository implements progress.StatsStore for PostgreSQL.
type StatsRepository struct {
	conn *Connection
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(conn *Connection) *StatsRepository {
	return &StatsRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Stats
// ─────────────────────────────────────────────────────────────────────────────

// InitStats creates the zero-progress row for a new user.
func (r *StatsRepository) InitStats(ctx context.Context, userID uuid.UUID) error {
	query := `
		INSERT INTO user_stats (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to init stats: %w", err)
	}

	return nil
}

// GetStats returns the current stats for a user.
func (r *StatsRepository) GetStats(ctx context.Context, userID uuid.UUID) (*progress.UserStats, error) {
	query := `
		SELECT user_id, total_messages, total_points, current_streak, longest_streak,
			   level, words_learned, grammar_checks, vocab_lookups, last_activity,
			   created_at, updated_at
		FROM user_stats
		WHERE user_id = $1
	`

	var s progress.UserStats
	err := r.conn.QueryRow(ctx, query, userID).Scan(
		&s.UserID,
		&s.TotalMessages,
		&s.TotalPoints,
		&s.CurrentStreak,
		&s.LongestStreak,
		&s.Level,
		&s.WordsLearned,
		&s.GrammarChecks,
		&s.VocabLookups,
		&s.LastActivity,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrStatsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return &s, nil
}

// SaveStats applies a partial update. Only set patch fields are written.
func (r *StatsRepository) SaveStats(ctx context.Context, userID uuid.UUID, patch progress.Patch) error {
	if patch.IsEmpty() {
		return nil
	}

	sets := make([]string, 0, 9)
	args := make([]interface{}, 0, 10)

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.TotalMessages != nil {
		addSet("total_messages", *patch.TotalMessages)
	}
	if patch.TotalPoints != nil {
		addSet("total_points", *patch.TotalPoints)
	}
	if patch.CurrentStreak != nil {
		addSet("current_streak", *patch.CurrentStreak)
	}
	if patch.LongestStreak != nil {
		addSet("longest_streak", *patch.LongestStreak)
	}
	if patch.Level != nil {
		addSet("level", *patch.Level)
	}
	if patch.WordsLearned != nil {
		addSet("words_learned", *patch.WordsLearned)
	}
	if patch.GrammarChecks != nil {
		addSet("grammar_checks", *patch.GrammarChecks)
	}
	if patch.VocabLookups != nil {
		addSet("vocab_lookups", *patch.VocabLookups)
	}
	if patch.LastActivity != nil {
		addSet("last_activity", *patch.LastActivity)
	}

	args = append(args, userID)
	query := fmt.Sprintf(
		"UPDATE user_stats SET %s WHERE user_id = $%d",
		strings.Join(sets, ", "),
		len(args),
	)

	result, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrStatsNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Achievements
// ─────────────────────────────────────────────────────────────────────────────

// ListEarnedAchievementIDs returns the identifiers the user has already earned.
func (r *StatsRepository) ListEarnedAchievementIDs(ctx context.Context, userID uuid.UUID) (map[string]bool, error) {
	query := `
		SELECT achievement_id
		FROM user_achievements
		WHERE user_id = $1
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earned achievement ids: %w", err)
	}
	defer rows.Close()

	earned := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan achievement id: %w", err)
		}
		earned[id] = true
	}

	return earned, rows.Err()
}

// InsertAchievement records an earned achievement. The unique constraint on
// (user_id, achievement_id) guarantees at most one row per achievement.
func (r *StatsRepository) InsertAchievement(ctx context.Context, userID uuid.UUID, a progress.Achievement) error {
	query := `
		INSERT INTO user_achievements (user_id, achievement_id, achievement_name, points, earned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`

	result, err := r.conn.Exec(ctx, query,
		userID,
		a.ID,
		a.Name,
		a.Points,
		a.EarnedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert achievement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrAchievementDuplicate
	}

	return nil
}

// ListAchievements returns earned achievements, newest first.
func (r *StatsRepository) ListAchievements(ctx context.Context, userID uuid.UUID) ([]progress.Achievement, error) {
	query := `
		SELECT achievement_id, achievement_name, points, earned_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY earned_at DESC
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var achievements []progress.Achievement
	for rows.Next() {
		var a progress.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Points, &a.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, a)
	}

	return achievements, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Activity
// ─────────────────────────────────────────────────────────────────────────────

// RecentActivity returns the user's latest activity entries, newest first.
func (r *StatsRepository) RecentActivity(ctx context.Context, userID uuid.UUID, limit int) ([]progress.ActivityEntry, error) {
	query := `
		SELECT id, user_id, kind, message, created_at
		FROM chat_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent activity: %w", err)
	}
	defer rows.Close()

	return r.scanActivityEntries(rows)
}

// CountActivitySince counts entries of one activity kind at or after the cutoff.
func (r *StatsRepository) CountActivitySince(ctx context.Context, userID uuid.UUID, action progress.ActionType, since time.Time) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM chat_history WHERE user_id = $1 AND kind = $2 AND created_at >= $3",
		userID,
		string(action),
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activity: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Leaderboard
// ─────────────────────────────────────────────────────────────────────────────

// TopByPoints returns the leaderboard rows ordered by total points descending.
func (r *StatsRepository) TopByPoints(ctx context.Context, limit int) ([]progress.LeaderboardEntry, error) {
	query := `
		SELECT u.username, s.level, s.total_points, s.total_messages,
			   s.current_streak, s.words_learned
		FROM user_stats s
		JOIN users u ON u.id = s.user_id
		ORDER BY s.total_points DESC, u.username ASC
		LIMIT $1
	`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []progress.LeaderboardEntry
	rank := 0
	for rows.Next() {
		var e progress.LeaderboardEntry
		err := rows.Scan(
			&e.Username,
			&e.Level,
			&e.TotalPoints,
			&e.TotalMessages,
			&e.CurrentStreak,
			&e.WordsLearned,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}

		rank++
		e.Rank = rank
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// scanActivityEntries scans activity entries from rows.
func (r *StatsRepository) scanActivityEntries(rows pgx.Rows) ([]progress.ActivityEntry, error) {
	var entries []progress.ActivityEntry
	for rows.Next() {
		var e progress.ActivityEntry
		var kind string

		if err := rows.Scan(&e.ID, &e.UserID, &kind, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}

		e.Action = progress.ActionType(kind)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
