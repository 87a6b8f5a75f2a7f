package query

import (
	"context"
	"strings"

	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STATS QUERY
// Lightweight stats-only lookup for quick checks, without the activity feed.
// ══════════════════════════════════════════════════════════════════════════════

// GetStatsQuery contains the stats request parameters.
type GetStatsQuery struct {
	Username string
}

// Validate checks the query parameters.
func (q *GetStatsQuery) Validate() error {
	if strings.TrimSpace(q.Username) == "" {
		return shared.NewDomainError("progress", "GetStats", shared.ErrEmptyValue, "username is required")
	}
	return nil
}

// GetStatsResult pairs the username with its stats.
type GetStatsResult struct {
	Username string
	Stats    *progress.UserStats
}

// GetStatsHandler handles the GetStatsQuery.
type GetStatsHandler struct {
	users user.Repository
	store progress.StatsStore
}

// NewGetStatsHandler creates a new GetStatsHandler.
func NewGetStatsHandler(users user.Repository, store progress.StatsStore) *GetStatsHandler {
	return &GetStatsHandler{users: users, store: store}
}

// Handle executes the query.
func (h *GetStatsHandler) Handle(ctx context.Context, q GetStatsQuery) (*GetStatsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.users.ByUsername(ctx, strings.TrimSpace(q.Username))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, shared.WrapError("progress", "GetStats", shared.ErrServiceUnavailable, "failed to load user", err)
	}

	stats, err := h.store.GetStats(ctx, u.ID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrStatsNotFound
		}
		return nil, shared.WrapError("progress", "GetStats", shared.ErrServiceUnavailable, "failed to load stats", err)
	}

	return &GetStatsResult{Username: u.Username, Stats: stats}, nil
}
