package command

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/internal/domain/user"
	"github.com/linguaspark/linguaspark-api/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SIGNUP COMMAND
// Registers a new learner account and initializes their zero-progress stats.
// ══════════════════════════════════════════════════════════════════════════════

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// SignupCommand contains the data to register a new account.
type SignupCommand struct {
	Username string
	Email    string
	Password string
}

// Validate validates the command.
func (c SignupCommand) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return shared.NewDomainError("user", "Signup", shared.ErrEmptyValue, "username is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return shared.NewDomainError("user", "Signup", shared.ErrEmptyValue, "email is required")
	}
	if len(c.Password) < MinPasswordLength {
		return shared.NewDomainError("user", "Signup", shared.ErrValueOutOfRange, "password must be at least 6 characters")
	}
	return nil
}

// SignupResult contains the outcome of a registration.
type SignupResult struct {
	User    *user.User
	Message string
}

// SignupHandler handles the SignupCommand.
type SignupHandler struct {
	users user.Repository
	store progress.StatsStore
	log   *logger.Logger

	bcryptCost int
}

// NewSignupHandler creates a new SignupHandler.
func NewSignupHandler(users user.Repository, store progress.StatsStore, log *logger.Logger) *SignupHandler {
	return &SignupHandler{
		users:      users,
		store:      store,
		log:        log.With(logger.Component("signup")),
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Handle executes the signup command.
func (h *SignupHandler) Handle(ctx context.Context, cmd SignupCommand) (*SignupResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(cmd.Username)
	email := strings.ToLower(strings.TrimSpace(cmd.Email))

	taken, err := h.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, shared.WrapError("user", "Signup", shared.ErrServiceUnavailable, "failed to check username", err)
	}
	if taken {
		return nil, shared.ErrUsernameTaken
	}

	taken, err = h.users.EmailExists(ctx, email)
	if err != nil {
		return nil, shared.WrapError("user", "Signup", shared.ErrServiceUnavailable, "failed to check email", err)
	}
	if taken {
		return nil, shared.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), h.bcryptCost)
	if err != nil {
		return nil, shared.WrapError("user", "Signup", shared.ErrExternalService, "failed to hash password", err)
	}

	u, err := user.New(username, email, string(hash), time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := h.users.Create(ctx, u); err != nil {
		if shared.IsAlreadyExists(err) {
			return nil, shared.ErrUsernameTaken
		}
		return nil, shared.WrapError("user", "Signup", shared.ErrServiceUnavailable, "failed to create user", err)
	}

	if err := h.store.InitStats(ctx, u.ID); err != nil {
		return nil, shared.WrapError("user", "Signup", shared.ErrServiceUnavailable, "failed to initialize stats", err)
	}

	h.log.Info("account created", logger.Username(u.Username), logger.UserID(u.ID.String()))

	return &SignupResult{
		User:    u,
		Message: "Account created successfully!",
	}, nil
}
