package query

import (
	"context"
	"strings"
	"time"

	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/internal/domain/user"
	"github.com/linguaspark/linguaspark-api/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET WEEKLY INSIGHTS QUERY
// The trailing-seven-day summary plus a personalized motivation line.
// ══════════════════════════════════════════════════════════════════════════════

// GetWeeklyInsightsQuery contains the insights request parameters.
type GetWeeklyInsightsQuery struct {
	// Username identifies the learner.
	Username string

	// Now overrides the reference time (defaults to time.Now).
	Now time.Time
}

// Validate checks the query parameters.
func (q *GetWeeklyInsightsQuery) Validate() error {
	if strings.TrimSpace(q.Username) == "" {
		return shared.NewDomainError("progress", "GetWeeklyInsights", shared.ErrEmptyValue, "username is required")
	}
	if q.Now.IsZero() {
		q.Now = time.Now().UTC()
	}
	return nil
}

// GetWeeklyInsightsHandler handles the GetWeeklyInsightsQuery.
type GetWeeklyInsightsHandler struct {
	users      user.Repository
	store      progress.StatsStore
	aggregator *progress.Aggregator
}

// NewGetWeeklyInsightsHandler creates a new GetWeeklyInsightsHandler.
func NewGetWeeklyInsightsHandler(users user.Repository, store progress.StatsStore) *GetWeeklyInsightsHandler {
	return &GetWeeklyInsightsHandler{
		users:      users,
		store:      store,
		aggregator: progress.NewAggregator(),
	}
}

// Handle executes the query.
func (h *GetWeeklyInsightsHandler) Handle(ctx context.Context, q GetWeeklyInsightsQuery) (*progress.InsightsView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.users.ByUsername(ctx, strings.TrimSpace(q.Username))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, shared.WrapError("progress", "GetWeeklyInsights", shared.ErrServiceUnavailable, "failed to load user", err)
	}

	stats, err := h.store.GetStats(ctx, u.ID)
	if err != nil {
		return nil, shared.WrapError("progress", "GetWeeklyInsights", shared.ErrServiceUnavailable, "failed to load stats", err)
	}

	weeklyMessages, err := h.store.CountActivitySince(ctx, u.ID, progress.ActionMessage, timeutil.WeekAgo(q.Now))
	if err != nil {
		weeklyMessages = 0
	}

	achievements, err := h.store.ListAchievements(ctx, u.ID)
	if err != nil {
		achievements = nil
	}

	view := h.aggregator.BuildInsights(stats, weeklyMessages, len(achievements))
	return &view, nil
}
