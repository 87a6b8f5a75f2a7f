package query

import (
	"context"
	"strings"

	"github.com/linguaspark/linguaspark-api/internal/domain/chat"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET HISTORY QUERY
// Returns the learner's saved tutor exchanges, newest first.
// ══════════════════════════════════════════════════════════════════════════════

// GetHistoryQuery contains the history request parameters.
type GetHistoryQuery struct {
	Username string

	// Limit caps the number of entries. Defaults to chat.HistoryLimit.
	Limit int
}

// Validate checks the query parameters and applies defaults.
func (q *GetHistoryQuery) Validate() error {
	if strings.TrimSpace(q.Username) == "" {
		return shared.NewDomainError("chat", "GetHistory", shared.ErrEmptyValue, "username is required")
	}
	if q.Limit <= 0 || q.Limit > chat.HistoryLimit {
		q.Limit = chat.HistoryLimit
	}
	return nil
}

// GetHistoryHandler handles the GetHistoryQuery.
type GetHistoryHandler struct {
	users   user.Repository
	history chat.Repository
}

// NewGetHistoryHandler creates a new GetHistoryHandler.
func NewGetHistoryHandler(users user.Repository, history chat.Repository) *GetHistoryHandler {
	return &GetHistoryHandler{users: users, history: history}
}

// Handle executes the query. Unknown users get an empty history rather
// than an error, matching the public history endpoint's contract.
func (h *GetHistoryHandler) Handle(ctx context.Context, q GetHistoryQuery) ([]chat.Entry, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.users.ByUsername(ctx, strings.TrimSpace(q.Username))
	if err != nil {
		if shared.IsNotFound(err) {
			return []chat.Entry{}, nil
		}
		return nil, shared.WrapError("chat", "GetHistory", shared.ErrServiceUnavailable, "failed to load user", err)
	}

	entries, err := h.history.History(ctx, u.ID, q.Limit)
	if err != nil {
		return nil, shared.WrapError("chat", "GetHistory", shared.ErrServiceUnavailable, "failed to load history", err)
	}
	if entries == nil {
		entries = []chat.Entry{}
	}
	return entries, nil
}
