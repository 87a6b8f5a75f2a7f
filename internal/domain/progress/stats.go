// Package progress contains the learning progress domain: the points ledger,
// streak calculation, achievement rules, and aggregated progress views.
// This package depends only on shared domain types and has no infrastructure imports.
package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
)

// Point values awarded per learning action and the level step size.
const (
	PointsPerMessage      = 10
	PointsPerGrammarCheck = 15
	PointsPerVocabLookup  = 20
	PointsPerLevel        = 100
)

// ActionType identifies a kind of learning action that earns points.
type ActionType string

const (
	// ActionMessage is a conversational message sent to the tutor.
	ActionMessage ActionType = "message"
	// ActionGrammarCheck is a grammar analysis request.
	ActionGrammarCheck ActionType = "grammar"
	// ActionVocabLookup is a vocabulary explanation request.
	ActionVocabLookup ActionType = "vocab"
)

// Valid reports whether the action type is one of the known kinds.
func (a ActionType) Valid() bool {
	switch a {
	case ActionMessage, ActionGrammarCheck, ActionVocabLookup:
		return true
	}
	return false
}

// UserStats is the per-user progress record. All counters are cumulative
// for the lifetime of the account.
type UserStats struct {
	UserID        uuid.UUID
	TotalMessages int
	TotalPoints   int
	CurrentStreak int
	LongestStreak int
	Level         int
	WordsLearned  int
	GrammarChecks int
	VocabLookups  int
	// LastActivity is nil until the user performs their first action.
	LastActivity *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUserStats returns the zero-progress record for a freshly registered user.
func NewUserStats(userID uuid.UUID, now time.Time) *UserStats {
	return &UserStats{
		UserID:    userID,
		Level:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks internal consistency of the stats record.
func (s *UserStats) Validate() error {
	if s.UserID == uuid.Nil {
		return shared.NewDomainError("progress", "Validate", shared.ErrInvalidID, "user ID is required")
	}
	if s.TotalPoints < 0 || s.TotalMessages < 0 || s.WordsLearned < 0 ||
		s.GrammarChecks < 0 || s.VocabLookups < 0 {
		return shared.NewDomainError("progress", "Validate", shared.ErrNegativeValue, "counters cannot be negative")
	}
	if s.CurrentStreak < 0 || s.LongestStreak < 0 {
		return shared.NewDomainError("progress", "Validate", shared.ErrNegativeValue, "streak cannot be negative")
	}
	if s.LongestStreak < s.CurrentStreak {
		return shared.NewDomainError("progress", "Validate", shared.ErrInvalidEntity, "longest streak below current streak")
	}
	if s.Level < 1 {
		return shared.NewDomainError("progress", "Validate", shared.ErrValueOutOfRange, "level starts at 1")
	}
	return nil
}

// LevelForPoints derives the level from a lifetime point total.
// Level is never stored authoritatively; it is always recomputed from points.
func LevelForPoints(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// PointsIntoLevel returns how many points the user has earned within
// their current level band.
func PointsIntoLevel(points int) int {
	if points < 0 {
		points = 0
	}
	return points % PointsPerLevel
}

// PointsToNextLevel returns how many points remain until the next level.
func PointsToNextLevel(points int) int {
	return PointsPerLevel - PointsIntoLevel(points)
}

// Patch is a partial update to a UserStats record. Nil fields are left
// untouched on write, so concurrent writers only collide on the fields
// they both set.
type Patch struct {
	TotalMessages *int
	TotalPoints   *int
	CurrentStreak *int
	LongestStreak *int
	Level         *int
	WordsLearned  *int
	GrammarChecks *int
	VocabLookups  *int
	LastActivity  *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.TotalMessages == nil && p.TotalPoints == nil &&
		p.CurrentStreak == nil && p.LongestStreak == nil &&
		p.Level == nil && p.WordsLearned == nil &&
		p.GrammarChecks == nil && p.VocabLookups == nil &&
		p.LastActivity == nil
}

// Apply writes the patch onto a stats record in memory.
func (p Patch) Apply(s *UserStats) {
	if p.TotalMessages != nil {
		s.TotalMessages = *p.TotalMessages
	}
	if p.TotalPoints != nil {
		s.TotalPoints = *p.TotalPoints
	}
	if p.CurrentStreak != nil {
		s.CurrentStreak = *p.CurrentStreak
	}
	if p.LongestStreak != nil {
		s.LongestStreak = *p.LongestStreak
	}
	if p.Level != nil {
		s.Level = *p.Level
	}
	if p.WordsLearned != nil {
		s.WordsLearned = *p.WordsLearned
	}
	if p.GrammarChecks != nil {
		s.GrammarChecks = *p.GrammarChecks
	}
	if p.VocabLookups != nil {
		s.VocabLookups = *p.VocabLookups
	}
	if p.LastActivity != nil {
		t := *p.LastActivity
		s.LastActivity = &t
	}
}

// Merge overlays other onto p, with other's fields winning where both are set.
func (p Patch) Merge(other Patch) Patch {
	out := p
	if other.TotalMessages != nil {
		out.TotalMessages = other.TotalMessages
	}
	if other.TotalPoints != nil {
		out.TotalPoints = other.TotalPoints
	}
	if other.CurrentStreak != nil {
		out.CurrentStreak = other.CurrentStreak
	}
	if other.LongestStreak != nil {
		out.LongestStreak = other.LongestStreak
	}
	if other.Level != nil {
		out.Level = other.Level
	}
	if other.WordsLearned != nil {
		out.WordsLearned = other.WordsLearned
	}
	if other.GrammarChecks != nil {
		out.GrammarChecks = other.GrammarChecks
	}
	if other.VocabLookups != nil {
		out.VocabLookups = other.VocabLookups
	}
	if other.LastActivity != nil {
		out.LastActivity = other.LastActivity
	}
	return out
}

func intPtr(v int) *int { return &v }

// Ledger applies the point economy to a stats record. It is stateless;
// all methods derive patches from the stats passed in.
type Ledger struct{}

// NewLedger returns a points ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// ApplyAction computes the counter and point deltas for a single learning
// action. The returned patch includes the recomputed level. The stats record
// is mutated in memory so follow-up calculations see the new totals.
// An unknown action is a no-op: empty patch, zero points awarded.
func (l *Ledger) ApplyAction(stats *UserStats, action ActionType) (Patch, int) {
	var awarded int
	var patch Patch

	switch action {
	case ActionMessage:
		stats.TotalMessages++
		awarded = PointsPerMessage
		patch.TotalMessages = intPtr(stats.TotalMessages)
	case ActionGrammarCheck:
		stats.GrammarChecks++
		awarded = PointsPerGrammarCheck
		patch.GrammarChecks = intPtr(stats.GrammarChecks)
	case ActionVocabLookup:
		stats.VocabLookups++
		stats.WordsLearned++
		awarded = PointsPerVocabLookup
		patch.VocabLookups = intPtr(stats.VocabLookups)
		patch.WordsLearned = intPtr(stats.WordsLearned)
	default:
		return Patch{}, 0
	}

	stats.TotalPoints += awarded
	stats.Level = LevelForPoints(stats.TotalPoints)
	patch.TotalPoints = intPtr(stats.TotalPoints)
	patch.Level = intPtr(stats.Level)

	return patch, awarded
}

// ApplyBonus adds achievement reward points and recomputes the level.
// A zero bonus returns an empty patch.
func (l *Ledger) ApplyBonus(stats *UserStats, bonus int) Patch {
	if bonus <= 0 {
		return Patch{}
	}
	stats.TotalPoints += bonus
	stats.Level = LevelForPoints(stats.TotalPoints)
	return Patch{
		TotalPoints: intPtr(stats.TotalPoints),
		Level:       intPtr(stats.Level),
	}
}
