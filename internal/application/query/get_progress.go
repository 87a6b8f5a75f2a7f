// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"strings"
	"time"

	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// The dashboard view: full stats, the latest activity entries, and how many
// days the learner has been with us.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery contains the dashboard request parameters.
type GetProgressQuery struct {
	// Username identifies the learner.
	Username string

	// Now overrides the reference time (defaults to time.Now).
	Now time.Time
}

// Validate checks the query parameters.
func (q *GetProgressQuery) Validate() error {
	if strings.TrimSpace(q.Username) == "" {
		return shared.NewDomainError("progress", "GetProgress", shared.ErrEmptyValue, "username is required")
	}
	if q.Now.IsZero() {
		q.Now = time.Now().UTC()
	}
	return nil
}

// GetProgressHandler handles the GetProgressQuery.
type GetProgressHandler struct {
	users      user.Repository
	store      progress.StatsStore
	aggregator *progress.Aggregator
}

// NewGetProgressHandler creates a new GetProgressHandler.
func NewGetProgressHandler(users user.Repository, store progress.StatsStore) *GetProgressHandler {
	return &GetProgressHandler{
		users:      users,
		store:      store,
		aggregator: progress.NewAggregator(),
	}
}

// Handle executes the query.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*progress.ProgressView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.users.ByUsername(ctx, strings.TrimSpace(q.Username))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, shared.WrapError("progress", "GetProgress", shared.ErrServiceUnavailable, "failed to load user", err)
	}

	stats, err := h.store.GetStats(ctx, u.ID)
	if err != nil {
		return nil, shared.WrapError("progress", "GetProgress", shared.ErrServiceUnavailable, "failed to load stats", err)
	}

	recent, err := h.store.RecentActivity(ctx, u.ID, progress.RecentActivityLimit)
	if err != nil {
		// The dashboard is still useful without the activity feed.
		recent = nil
	}

	view := h.aggregator.BuildProgress(stats, recent, u.CreatedAt, q.Now)
	return &view, nil
}
