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
// VOCABULARY COMMAND
// Asks the tutor model to explain a word and records the lookup. Each
// lookup also counts toward words learned.
// ══════════════════════════════════════════════════════════════════════════════

// VocabularyCommand contains a word to explain.
type VocabularyCommand struct {
	Username string
	Word     string
	Language string
}

// Validate validates the command.
func (c VocabularyCommand) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return shared.NewDomainError("chat", "Vocabulary", shared.ErrEmptyValue, "username is required")
	}
	if strings.TrimSpace(c.Word) == "" {
		return shared.NewDomainError("chat", "Vocabulary", shared.ErrEmptyValue, "word is required")
	}
	if strings.TrimSpace(c.Language) == "" {
		return shared.NewDomainError("chat", "Vocabulary", shared.ErrEmptyValue, "language is required")
	}
	return nil
}

// VocabularyResult contains the word explanation.
type VocabularyResult struct {
	Word        string
	Language    string
	Explanation string
	Stats       *UpdateStatsResult
}

// VocabularyHandler handles the VocabularyCommand.
type VocabularyHandler struct {
	users   user.Repository
	history chat.Repository
	model   TutorModel
	stats   *UpdateStatsHandler
	log     *logger.Logger
}

// NewVocabularyHandler creates a new VocabularyHandler.
func NewVocabularyHandler(
	users user.Repository,
	history chat.Repository,
	model TutorModel,
	stats *UpdateStatsHandler,
	log *logger.Logger,
) *VocabularyHandler {
	return &VocabularyHandler{
		users:   users,
		history: history,
		model:   model,
		stats:   stats,
		log:     log.With(logger.Component("vocabulary")),
	}
}

// Handle executes the vocabulary command.
func (h *VocabularyHandler) Handle(ctx context.Context, cmd VocabularyCommand) (*VocabularyResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	u, err := h.users.ByUsername(ctx, strings.TrimSpace(cmd.Username))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, shared.WrapError("chat", "Vocabulary", shared.ErrServiceUnavailable, "failed to load user", err)
	}

	explanation, err := h.model.Complete(ctx, ModelRequest{
		System:      vocabSystemPrompt(cmd.Language),
		Prompt:      vocabPrompt(cmd.Word, cmd.Language),
		MaxTokens:   vocabMaxTokens,
		Temperature: vocabTemperature,
	})
	if err != nil {
		return nil, shared.WrapError("chat", "Vocabulary", shared.ErrExternalService, "tutor model request failed", err)
	}

	now := time.Now().UTC()

	if entry, err := chat.NewEntry(u.ID, progress.ActionVocabLookup, cmd.Word, explanation, now); err == nil {
		if err := h.history.Save(ctx, entry); err != nil {
			h.log.Warn("failed to save vocabulary history", logger.Username(u.Username), logger.Err(err))
		}
	}

	statsRes, err := h.stats.Handle(ctx, UpdateStatsCommand{
		UserID:    u.ID,
		Action:    progress.ActionVocabLookup,
		Timestamp: now,
	})
	if err != nil {
		h.log.Warn("failed to update stats", logger.Username(u.Username), logger.Err(err))
	}

	return &VocabularyResult{
		Word:        cmd.Word,
		Language:    cmd.Language,
		Explanation: explanation,
		Stats:       statsRes,
	}, nil
}
