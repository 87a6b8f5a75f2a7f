package query

import (
	"context"
	"strings"

	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACHIEVEMENTS QUERY
// Lists a learner's earned achievements, most recent first.
// ══════════════════════════════════════════════════════════════════════════════

// GetAchievementsQuery contains the achievements request parameters.
type GetAchievementsQuery struct {
	Username string
}

// Validate checks the query parameters.
func (q *GetAchievementsQuery) Validate() error {
	if strings.TrimSpace(q.Username) == "" {
		return shared.NewDomainError("progress", "GetAchievements", shared.ErrEmptyValue, "username is required")
	}
	return nil
}

// GetAchievementsResult contains the earned achievements and catalogue size.
type GetAchievementsResult struct {
	Achievements []progress.Achievement
	Total        int
	Possible     int
}

// GetAchievementsHandler handles the GetAchievementsQuery.
type GetAchievementsHandler struct {
	users user.Repository
	store progress.StatsStore
}

// NewGetAchievementsHandler creates a new GetAchievementsHandler.
func NewGetAchievementsHandler(users user.Repository, store progress.StatsStore) *GetAchievementsHandler {
	return &GetAchievementsHandler{users: users, store: store}
}

// Handle executes the query.
func (h *GetAchievementsHandler) Handle(ctx context.Context, q GetAchievementsQuery) (*GetAchievementsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.users.ByUsername(ctx, strings.TrimSpace(q.Username))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, shared.WrapError("progress", "GetAchievements", shared.ErrServiceUnavailable, "failed to load user", err)
	}

	list, err := h.store.ListAchievements(ctx, u.ID)
	if err != nil {
		return nil, shared.WrapError("progress", "GetAchievements", shared.ErrServiceUnavailable, "failed to list achievements", err)
	}

	return &GetAchievementsResult{
		Achievements: list,
		Total:        len(list),
		Possible:     len(progress.Rules()),
	}, nil
}
