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
// TUTOR CHAT COMMAND
// Sends a learner message to the tutor model, saves the exchange, and
// records the learning action. History and stats failures never fail the
// chat itself: the reply always reaches the learner.
// ══════════════════════════════════════════════════════════════════════════════

// TutorChatCommand contains a learner message for the tutor.
type TutorChatCommand struct {
	Username   string
	Text       string
	UserLang   string
	TargetLang string
}

// Validate validates the command.
func (c TutorChatCommand) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return shared.NewDomainError("chat", "TutorChat", shared.ErrEmptyValue, "username is required")
	}
	if strings.TrimSpace(c.Text) == "" {
		return shared.NewDomainError("chat", "TutorChat", shared.ErrEmptyValue, "message text is required")
	}
	if strings.TrimSpace(c.UserLang) == "" || strings.TrimSpace(c.TargetLang) == "" {
		return shared.NewDomainError("chat", "TutorChat", shared.ErrEmptyValue, "user and target languages are required")
	}
	return nil
}

// TutorChatResult contains the tutor's reply and the progress side effects.
type TutorChatResult struct {
	Reply string
	Stats *UpdateStatsResult
}

// TutorChatHandler handles the TutorChatCommand.
type TutorChatHandler struct {
	users   user.Repository
	history chat.Repository
	model   TutorModel
	stats   *UpdateStatsHandler
	log     *logger.Logger
}

// NewTutorChatHandler creates a new TutorChatHandler.
func NewTutorChatHandler(
	users user.Repository,
	history chat.Repository,
	model TutorModel,
	stats *UpdateStatsHandler,
	log *logger.Logger,
) *TutorChatHandler {
	return &TutorChatHandler{
		users:   users,
		history: history,
		model:   model,
		stats:   stats,
		log:     log.With(logger.Component("tutor_chat")),
	}
}

// Handle executes the tutor chat command.
func (h *TutorChatHandler) Handle(ctx context.Context, cmd TutorChatCommand) (*TutorChatResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	u, err := h.users.ByUsername(ctx, strings.TrimSpace(cmd.Username))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, shared.WrapError("chat", "TutorChat", shared.ErrServiceUnavailable, "failed to load user", err)
	}

	reply, err := h.model.Complete(ctx, ModelRequest{
		System:      chatSystemPrompt(),
		Prompt:      chatPrompt(cmd.Text, cmd.UserLang, cmd.TargetLang),
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		return nil, shared.WrapError("chat", "TutorChat", shared.ErrExternalService, "tutor model request failed", err)
	}

	now := time.Now().UTC()

	if entry, err := chat.NewEntry(u.ID, progress.ActionMessage, cmd.Text, reply, now); err == nil {
		if err := h.history.Save(ctx, entry); err != nil {
			h.log.Warn("failed to save chat history", logger.Username(u.Username), logger.Err(err))
		}
	}

	statsRes, err := h.stats.Handle(ctx, UpdateStatsCommand{
		UserID:    u.ID,
		Action:    progress.ActionMessage,
		Timestamp: now,
	})
	if err != nil {
		h.log.Warn("failed to update stats", logger.Username(u.Username), logger.Err(err))
	}

	return &TutorChatResult{Reply: reply, Stats: statsRes}, nil
}
