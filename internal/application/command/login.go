package command

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/linguaspark/linguaspark-api/internal/application/auth"
	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/internal/domain/user"
	"github.com/linguaspark/linguaspark-api/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN COMMAND
// Verifies credentials and issues a session token. Logging in is not a
// learning action: it never touches last_activity or the streak.
// ══════════════════════════════════════════════════════════════════════════════

// LoginCommand contains login credentials.
type LoginCommand struct {
	Username string
	Password string
}

// Validate validates the command.
func (c LoginCommand) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return shared.NewDomainError("user", "Login", shared.ErrEmptyValue, "username is required")
	}
	if c.Password == "" {
		return shared.NewDomainError("user", "Login", shared.ErrEmptyValue, "password is required")
	}
	return nil
}

// LoginResult contains the outcome of a successful login.
type LoginResult struct {
	User    *user.User
	Stats   *progress.UserStats
	Token   string
	Message string
}

// LoginHandler handles the LoginCommand.
type LoginHandler struct {
	users  user.Repository
	store  progress.StatsStore
	tokens *auth.Tokens
	log    *logger.Logger
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(users user.Repository, store progress.StatsStore, tokens *auth.Tokens, log *logger.Logger) *LoginHandler {
	return &LoginHandler{
		users:  users,
		store:  store,
		tokens: tokens,
		log:    log.With(logger.Component("login")),
	}
}

// Handle executes the login command.
func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	u, err := h.users.ByUsername(ctx, strings.TrimSpace(cmd.Username))
	if err != nil {
		if shared.IsNotFound(err) {
			// Same error as a bad password so login failures don't leak
			// which usernames exist.
			return nil, shared.ErrWrongCredentials
		}
		return nil, shared.WrapError("user", "Login", shared.ErrServiceUnavailable, "failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(cmd.Password)); err != nil {
		return nil, shared.ErrWrongCredentials
	}

	token, err := h.tokens.Issue(u.ID, u.Username, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	stats, err := h.store.GetStats(ctx, u.ID)
	if err != nil {
		// Stats are display data on the login response; a missing row
		// should not block the session.
		h.log.Warn("failed to load stats on login", logger.Username(u.Username), logger.Err(err))
		stats = nil
	}

	h.log.Info("login successful", logger.Username(u.Username))

	return &LoginResult{
		User:    u,
		Stats:   stats,
		Token:   token,
		Message: "Login successful!",
	}, nil
}
