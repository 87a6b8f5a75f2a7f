package command

import (
	"context"
	"strings"
	"time"

	"github.com/linguaspark/linguaspark-api/internal/domain/chat"
	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/internal/domain/user"
	"github.com/linguaspark/linguaspark-api/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRAMMAR CHECK COMMAND
// Runs a sentence through the grammar tutor and records the action.
// ══════════════════════════════════════════════════════════════════════════════

// GrammarCheckCommand contains a sentence to analyze.
type GrammarCheckCommand struct {
	Username string
	Text     string
	Language string
}

// Validate validates the command.
func (c GrammarCheckCommand) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return shared.NewDomainError("chat", "GrammarCheck", shared.ErrEmptyValue, "username is required")
	}
	if strings.TrimSpace(c.Text) == "" {
		return shared.NewDomainError("chat", "GrammarCheck", shared.ErrEmptyValue, "text is required")
	}
	if strings.TrimSpace(c.Language) == "" {
		return shared.NewDomainError("chat", "GrammarCheck", shared.ErrEmptyValue, "language is required")
	}
	return nil
}

// GrammarCheckResult contains the grammar analysis.
type GrammarCheckResult struct {
	Original string
	Analysis string
	Language string
	Stats    *UpdateStatsResult
}

// GrammarCheckHandler handles the GrammarCheckCommand.
type GrammarCheckHandler struct {
	users   user.Repository
	history chat.Repository
	model   TutorModel
	stats   *UpdateStatsHandler
	log     *logger.Logger
}

// NewGrammarCheckHandler creates a new GrammarCheckHandler.
func NewGrammarCheckHandler(
	users user.Repository,
	history chat.Repository,
	model TutorModel,
	stats *UpdateStatsHandler,
	log *logger.Logger,
) *GrammarCheckHandler {
	return &GrammarCheckHandler{
		users:   users,
		history: history,
		model:   model,
		stats:   stats,
		log:     log.With(logger.Component("grammar_check")),
	}
}

// Handle executes the grammar check command.
func (h *GrammarCheckHandler) Handle(ctx context.Context, cmd GrammarCheckCommand) (*GrammarCheckResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	u, err := h.users.ByUsername(ctx, strings.TrimSpace(cmd.Username))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, shared.WrapError("chat", "GrammarCheck", shared.ErrServiceUnavailable, "failed to load user", err)
	}

	analysis, err := h.model.Complete(ctx, ModelRequest{
		System:      grammarSystemPrompt(cmd.Language),
		Prompt:      grammarPrompt(cmd.Text, cmd.Language),
		MaxTokens:   grammarMaxTokens,
		Temperature: grammarTemp,
	})
	if err != nil {
		return nil, shared.WrapError("chat", "GrammarCheck", shared.ErrExternalService, "tutor model request failed", err)
	}

	now := time.Now().UTC()

	if entry, err := chat.NewEntry(u.ID, progress.ActionGrammarCheck, cmd.Text, analysis, now); err == nil {
		if err := h.history.Save(ctx, entry); err != nil {
			h.log.Warn("failed to save grammar history", logger.Username(u.Username), logger.Err(err))
		}
	}

	statsRes, err := h.stats.Handle(ctx, UpdateStatsCommand{
		UserID:    u.ID,
		Action:    progress.ActionGrammarCheck,
		Timestamp: now,
	})
	if err != nil {
		h.log.Warn("failed to update stats", logger.Username(u.Username), logger.Err(err))
	}

	return &GrammarCheckResult{
		Original: cmd.Text,
		Analysis: analysis,
		Language: cmd.Language,
		Stats:    statsRes,
	}, nil
}
