// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE STATS COMMAND
// Applies one learning action to a user's progress: counters, points, streak,
// and achievement evaluation, persisted as a single merged update.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateStatsCommand contains the data to record a learning action.
type UpdateStatsCommand struct {
	// UserID is the internal ID of the user.
	UserID uuid.UUID

	// Action is the kind of learning action performed.
	Action progress.ActionType

	// Timestamp is when the action occurred (defaults to now if zero).
	Timestamp time.Time
}

// Validate validates the command. An unrecognized action type is not an
// error; Handle treats it as a successful no-op.
func (c UpdateStatsCommand) Validate() error {
	if c.UserID == uuid.Nil {
		return shared.NewDomainError("progress", "UpdateStats", shared.ErrInvalidID, "user ID is required")
	}
	return nil
}

// UpdateStatsResult contains the outcome of applying a learning action.
type UpdateStatsResult struct {
	// Stats is the user's progress after the update.
	Stats *progress.UserStats

	// PointsAwarded is the base points for the action itself.
	PointsAwarded int

	// BonusPoints is the total achievement reward credited this update.
	BonusPoints int

	// NewAchievements lists achievements unlocked by this action, in
	// catalogue order.
	NewAchievements []progress.Achievement

	// StreakExtended indicates the daily streak grew or started.
	StreakExtended bool
}

// UpdateStatsHandler handles the UpdateStatsCommand.
//
// All reads and writes for one user happen under a per-user lock, so two
// concurrent actions by the same user serialize instead of losing updates.
// Different users never contend.
type UpdateStatsHandler struct {
	store   progress.StatsStore
	ledger  *progress.Ledger
	streaks *progress.StreakCalculator
	engine  *progress.Engine
	log     *logger.Logger

	mu        sync.Mutex
	userLocks map[uuid.UUID]*sync.Mutex
}

// NewUpdateStatsHandler creates a new UpdateStatsHandler.
func NewUpdateStatsHandler(store progress.StatsStore, log *logger.Logger) *UpdateStatsHandler {
	return &UpdateStatsHandler{
		store:     store,
		ledger:    progress.NewLedger(),
		streaks:   progress.NewStreakCalculator(),
		engine:    progress.NewEngine(),
		log:       log.With(logger.Component("update_stats")),
		userLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding one user's stats.
func (h *UpdateStatsHandler) lockFor(userID uuid.UUID) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock, ok := h.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		h.userLocks[userID] = lock
	}
	return lock
}

// Handle executes the update stats command.
func (h *UpdateStatsHandler) Handle(ctx context.Context, cmd UpdateStatsCommand) (*UpdateStatsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	lock := h.lockFor(cmd.UserID)
	lock.Lock()
	defer lock.Unlock()

	stats, err := h.store.GetStats(ctx, cmd.UserID)
	if err != nil {
		kind := shared.ErrServiceUnavailable
		if shared.IsNotFound(err) {
			kind = shared.ErrNotFound
		}
		return nil, shared.WrapError("progress", "UpdateStats", kind, "failed to load stats", err)
	}

	// An unrecognized action earns nothing and touches nothing, but still
	// reports success so callers can fire-and-forget.
	if !cmd.Action.Valid() {
		h.log.Warn("ignoring unknown action type",
			logger.UserID(cmd.UserID.String()), logger.Action(string(cmd.Action)))
		return &UpdateStatsResult{Stats: stats}, nil
	}

	prevStreak := stats.CurrentStreak

	actionPatch, awarded := h.ledger.ApplyAction(stats, cmd.Action)
	streakPatch := h.streaks.Advance(stats, now)

	earned, err := h.store.ListEarnedAchievementIDs(ctx, cmd.UserID)
	if err != nil {
		// Treat unknown earned set as empty: duplicate inserts are
		// rejected by the store, so the worst case is a wasted attempt.
		h.log.Warn("failed to list earned achievements",
			logger.UserID(cmd.UserID.String()), logger.Err(err))
		earned = map[string]bool{}
	}

	newly, _ := h.engine.Evaluate(stats, earned)

	result := &UpdateStatsResult{
		PointsAwarded:  awarded,
		StreakExtended: stats.CurrentStreak > prevStreak,
	}

	// Credit only the achievements whose rows actually landed. A failed
	// insert keeps its points out of the total; the rule is still
	// unearned, so the next action retries it.
	credited := 0
	for _, rule := range newly {
		a := progress.Achievement{
			ID:       rule.ID,
			Name:     rule.Name,
			Points:   rule.RewardPoints,
			EarnedAt: now,
		}
		if err := h.store.InsertAchievement(ctx, cmd.UserID, a); err != nil {
			if shared.IsAlreadyExists(err) {
				continue
			}
			h.log.Warn("failed to insert achievement",
				logger.UserID(cmd.UserID.String()),
				logger.Achievement(rule.ID), logger.Err(err))
			continue
		}
		credited += rule.RewardPoints
		result.NewAchievements = append(result.NewAchievements, a)
	}

	bonusPatch := h.ledger.ApplyBonus(stats, credited)
	result.BonusPoints = credited

	merged := actionPatch.Merge(streakPatch).Merge(bonusPatch)
	if err := h.store.SaveStats(ctx, cmd.UserID, merged); err != nil {
		return nil, shared.WrapError("progress", "UpdateStats", shared.ErrServiceUnavailable, "failed to save stats", err)
	}

	result.Stats = stats

	h.log.Debug("stats updated",
		logger.UserID(cmd.UserID.String()),
		logger.Action(string(cmd.Action)),
		logger.Points(awarded+credited),
		logger.UserLevel(stats.Level),
		logger.Streak(stats.CurrentStreak))

	return result, nil
}
