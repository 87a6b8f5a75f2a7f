package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/linguaspark/linguaspark-api/internal/domain/chat"
	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHAT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ChatRepository implements chat.Repository for PostgreSQL.
type ChatRepository struct {
	conn *Connection
}

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(conn *Connection) *ChatRepository {
	return &ChatRepository{conn: conn}
}

// Save persists a tutor interaction.
func (r *ChatRepository) Save(ctx context.Context, e *chat.Entry) error {
	query := `
		INSERT INTO chat_history (id, user_id, kind, message, reply, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		e.ID,
		e.UserID,
		string(e.Kind),
		e.Message,
		e.Reply,
		e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save chat entry: %w", err)
	}

	return nil
}

// History returns the user's latest interactions, newest first.
func (r *ChatRepository) History(ctx context.Context, userID uuid.UUID, limit int) ([]chat.Entry, error) {
	query := `
		SELECT id, user_id, kind, message, reply, created_at
		FROM chat_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	var entries []chat.Entry
	for rows.Next() {
		var e chat.Entry
		var kind string

		err := rows.Scan(&e.ID, &e.UserID, &kind, &e.Message, &e.Reply, &e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat entry: %w", err)
		}

		e.Kind = progress.ActionType(kind)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
