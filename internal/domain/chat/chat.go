// Package chat contains the tutor conversation domain: stored exchanges
// between a learner and the language tutor.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
)

// HistoryLimit is how many exchanges the history endpoint returns.
const HistoryLimit = 50

// Entry is one saved tutor exchange. Kind records which learning action
// produced it so the activity feed can distinguish chats from grammar
// checks and vocabulary lookups.
type Entry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Kind      progress.ActionType
	Message   string
	Reply     string
	Timestamp time.Time
}

// NewEntry creates a history entry for a completed exchange.
func NewEntry(userID uuid.UUID, kind progress.ActionType, message, reply string, now time.Time) (*Entry, error) {
	e := &Entry{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Message:   strings.TrimSpace(message),
		Reply:     reply,
		Timestamp: now,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks the entry fields.
func (e *Entry) Validate() error {
	if e.UserID == uuid.Nil {
		return shared.NewDomainError("chat", "Validate", shared.ErrInvalidID, "user ID is required")
	}
	if !e.Kind.Valid() {
		return shared.NewDomainError("chat", "Validate", shared.ErrInvalidInput, "unknown entry kind")
	}
	if e.Message == "" {
		return shared.NewDomainError("chat", "Validate", shared.ErrEmptyValue, "message is required")
	}
	return nil
}

// Repository persists tutor exchanges.
type Repository interface {
	// Save stores a completed exchange.
	Save(ctx context.Context, e *Entry) error

	// History returns the user's latest exchanges, newest first.
	History(ctx context.Context, userID uuid.UUID, limit int) ([]Entry, error)
}
