package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// keyLeaderboardSnapshot holds the cached top-learner snapshot as a JSON array.
const keyLeaderboardSnapshot = "leaderboard:snapshot"

// snapshotEntry is the JSON representation of one cached leaderboard row.
type snapshotEntry struct {
	Rank          int    `json:"rank"`
	Username      string `json:"username"`
	Level         int    `json:"level"`
	TotalPoints   int    `json:"total_points"`
	TotalMessages int    `json:"total_messages"`
	CurrentStreak int    `json:"current_streak"`
	WordsLearned  int    `json:"words_learned"`
}

type snapshot struct {
	Entries   []snapshotEntry `json:"entries"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LeaderboardCache stores the full top-learner list as a single snapshot.
// Requests slice the snapshot to their limit, so one key serves every
// request regardless of the limit parameter.
type LeaderboardCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{
		cache: cache,
		ttl:   TTLLeaderboardSnapshot,
	}
}

// GetSnapshot returns the cached leaderboard, or ok=false on a miss.
func (l *LeaderboardCache) GetSnapshot(ctx context.Context) ([]progress.LeaderboardEntry, bool, error) {
	var snap snapshot
	err := l.cache.Get(ctx, keyLeaderboardSnapshot, &snap)
	if errors.Is(err, ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get leaderboard snapshot: %w", err)
	}

	entries := make([]progress.LeaderboardEntry, len(snap.Entries))
	for i, e := range snap.Entries {
		entries[i] = progress.LeaderboardEntry{
			Rank:          e.Rank,
			Username:      e.Username,
			Level:         e.Level,
			TotalPoints:   e.TotalPoints,
			TotalMessages: e.TotalMessages,
			CurrentStreak: e.CurrentStreak,
			WordsLearned:  e.WordsLearned,
		}
	}

	return entries, true, nil
}

// SetSnapshot replaces the cached leaderboard.
func (l *LeaderboardCache) SetSnapshot(ctx context.Context, entries []progress.LeaderboardEntry) error {
	snap := snapshot{
		Entries:   make([]snapshotEntry, len(entries)),
		UpdatedAt: time.Now().UTC(),
	}

	for i, e := range entries {
		snap.Entries[i] = snapshotEntry{
			Rank:          e.Rank,
			Username:      e.Username,
			Level:         e.Level,
			TotalPoints:   e.TotalPoints,
			TotalMessages: e.TotalMessages,
			CurrentStreak: e.CurrentStreak,
			WordsLearned:  e.WordsLearned,
		}
	}

	if err := l.cache.Set(ctx, keyLeaderboardSnapshot, snap, l.ttl); err != nil {
		return fmt.Errorf("failed to set leaderboard snapshot: %w", err)
	}

	return nil
}
