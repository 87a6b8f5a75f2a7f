package query

import (
	"context"

	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Top learners by lifetime points. Reads go through the cached snapshot
// when one is fresh; the database is the fallback and repopulates the cache.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardSnapshotSize is how many rows the cached snapshot holds.
// Requests beyond this size go straight to the database.
const LeaderboardSnapshotSize = 100

// DefaultLeaderboardLimit is the page size when the caller does not ask
// for one.
const DefaultLeaderboardLimit = 10

// LeaderboardCache stores the ranked snapshot.
type LeaderboardCache interface {
	// GetSnapshot returns the cached rows and whether a snapshot exists.
	GetSnapshot(ctx context.Context) ([]progress.LeaderboardEntry, bool, error)

	// SetSnapshot replaces the cached rows.
	SetSnapshot(ctx context.Context, entries []progress.LeaderboardEntry) error
}

// GetLeaderboardQuery contains the leaderboard request parameters.
type GetLeaderboardQuery struct {
	// Limit caps the number of rows. Defaults to DefaultLeaderboardLimit.
	Limit int
}

// Validate checks the query parameters and applies defaults.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit <= 0 {
		q.Limit = DefaultLeaderboardLimit
	}
	if q.Limit > LeaderboardSnapshotSize {
		q.Limit = LeaderboardSnapshotSize
	}
	return nil
}

// GetLeaderboardResult contains the ranked rows.
type GetLeaderboardResult struct {
	Entries []progress.LeaderboardEntry
	Total   int
	// FromCache reports whether the snapshot served this request.
	FromCache bool
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	store progress.StatsStore
	cache LeaderboardCache
	log   *logger.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler. The cache
// may be nil, in which case every request hits the database.
func NewGetLeaderboardHandler(store progress.StatsStore, cache LeaderboardCache, log *logger.Logger) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		store: store,
		cache: cache,
		log:   log.With(logger.Component("leaderboard")),
	}
}

// Handle executes the query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil {
		snapshot, ok, err := h.cache.GetSnapshot(ctx)
		if err != nil {
			h.log.Warn("leaderboard cache read failed", logger.Err(err))
		} else if ok {
			entries := snapshot
			if len(entries) > q.Limit {
				entries = entries[:q.Limit]
			}
			return &GetLeaderboardResult{Entries: entries, Total: len(entries), FromCache: true}, nil
		}
	}

	entries, err := h.store.TopByPoints(ctx, q.Limit)
	if err != nil {
		return nil, shared.WrapError("progress", "GetLeaderboard", shared.ErrServiceUnavailable, "failed to load leaderboard", err)
	}

	return &GetLeaderboardResult{Entries: entries, Total: len(entries)}, nil
}

// Refresh rebuilds the cached snapshot from the database. The scheduler
// calls this periodically; it is also safe to call on demand.
func (h *GetLeaderboardHandler) Refresh(ctx context.Context) error {
	if h.cache == nil {
		return nil
	}
	entries, err := h.store.TopByPoints(ctx, LeaderboardSnapshotSize)
	if err != nil {
		return shared.WrapError("progress", "RefreshLeaderboard", shared.ErrServiceUnavailable, "failed to load leaderboard", err)
	}
	if err := h.cache.SetSnapshot(ctx, entries); err != nil {
		return shared.WrapError("progress", "RefreshLeaderboard", shared.ErrServiceUnavailable, "failed to store snapshot", err)
	}
	h.log.Debug("leaderboard snapshot refreshed", logger.Int("rows", len(entries)))
	return nil
}
