package http

import (
	"time"

	"github.com/linguaspark/linguaspark-api/internal/application/command"
	"github.com/linguaspark/linguaspark-api/internal/domain/chat"
	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// ══════════════════════════════════════════════════════════════════════════════

// SignupRequest is the request body for POST /signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChatRequest is the request body for POST /chat.
type ChatRequest struct {
	Username   string `json:"username"`
	Message    string `json:"message"`
	UserLang   string `json:"user_lang"`
	TargetLang string `json:"target_lang"`
}

// GrammarCheckRequest is the request body for POST /grammar-check.
type GrammarCheckRequest struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

// VocabularyRequest is the request body for POST /vocabulary.
type VocabularyRequest struct {
	Username string `json:"username"`
	Word     string `json:"word"`
	Language string `json:"language"`
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// UserDTO is the public view of a user account.
type UserDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// StatsDTO is the public view of a user's progress stats.
type StatsDTO struct {
	TotalMessages int        `json:"total_messages"`
	TotalPoints   int        `json:"total_points"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	Level         int        `json:"level"`
	WordsLearned  int        `json:"words_learned"`
	GrammarChecks int        `json:"grammar_checks"`
	VocabLookups  int        `json:"vocab_lookups"`
	LastActivity  *time.Time `json:"last_activity"`
}

// StatsUpdateDTO reports what a learning action earned.
type StatsUpdateDTO struct {
	PointsAwarded   int              `json:"points_awarded"`
	BonusPoints     int              `json:"bonus_points"`
	NewAchievements []AchievementDTO `json:"new_achievements"`
	StreakExtended  bool             `json:"streak_extended"`
	Stats           StatsDTO         `json:"stats"`
}

// AchievementDTO is one earned achievement.
type AchievementDTO struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Points   int       `json:"points"`
	EarnedAt time.Time `json:"earned_at"`
}

// SignupResponse is the response body for POST /signup.
type SignupResponse struct {
	Message string  `json:"message"`
	User    UserDTO `json:"user"`
}

// LoginResponse is the response body for POST /login.
type LoginResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    UserDTO   `json:"user"`
	Stats   *StatsDTO `json:"stats,omitempty"`
}

// ChatResponse is the response body for POST /chat.
type ChatResponse struct {
	Reply string          `json:"reply"`
	Stats *StatsUpdateDTO `json:"stats,omitempty"`
}

// GrammarCheckResponse is the response body for POST /grammar-check.
type GrammarCheckResponse struct {
	Original string          `json:"original"`
	Analysis string          `json:"analysis"`
	Language string          `json:"language"`
	Stats    *StatsUpdateDTO `json:"stats,omitempty"`
}

// VocabularyResponse is the response body for POST /vocabulary.
type VocabularyResponse struct {
	Word        string          `json:"word"`
	Language    string          `json:"language"`
	Explanation string          `json:"explanation"`
	Stats       *StatsUpdateDTO `json:"stats,omitempty"`
}

// HistoryEntryDTO is one saved tutor interaction.
type HistoryEntryDTO struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse is the response body for GET /history/{username}.
type HistoryResponse struct {
	Username string            `json:"username"`
	History  []HistoryEntryDTO `json:"history"`
	Count    int               `json:"count"`
}

// ActivityEntryDTO is one recent-activity row on the progress dashboard.
type ActivityEntryDTO struct {
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressResponse is the response body for GET /progress/{username}.
type ProgressResponse struct {
	Username       string             `json:"username"`
	Stats          StatsDTO           `json:"stats"`
	RecentActivity []ActivityEntryDTO `json:"recent_activity"`
	JoinDate       time.Time          `json:"join_date"`
	TotalDays      int                `json:"total_days"`
}

// WeekSummaryDTO is the trailing-seven-day roll-up.
type WeekSummaryDTO struct {
	MessagesSent  int `json:"messages_sent"`
	PointsEarned  int `json:"points_earned"`
	CurrentStreak int `json:"current_streak"`
	Level         int `json:"level"`
}

// WeeklyInsightsResponse is the response body for GET /weekly-insights/{username}.
type WeeklyInsightsResponse struct {
	WeekSummary          WeekSummaryDTO `json:"week_summary"`
	AchievementsUnlocked int            `json:"achievements_unlocked"`
	TotalWordsLearned    int            `json:"total_words_learned"`
	Motivation           string         `json:"motivation"`
}

// AchievementsResponse is the response body for GET /achievements/{username}.
type AchievementsResponse struct {
	Achievements []AchievementDTO `json:"achievements"`
	Total        int              `json:"total"`
	Possible     int              `json:"possible"`
}

// StatsResponse is the response body for GET /stats/{username}.
type StatsResponse struct {
	Username string   `json:"username"`
	Stats    StatsDTO `json:"stats"`
}

// LeaderboardEntryDTO is one ranked leaderboard row.
type LeaderboardEntryDTO struct {
	Rank          int    `json:"rank"`
	Username      string `json:"username"`
	Level         int    `json:"level"`
	TotalPoints   int    `json:"total_points"`
	TotalMessages int    `json:"total_messages"`
	CurrentStreak int    `json:"current_streak"`
	WordsLearned  int    `json:"words_learned"`
}

// LeaderboardResponse is the response body for GET /leaderboard.
type LeaderboardResponse struct {
	Leaderboard []LeaderboardEntryDTO `json:"leaderboard"`
	Total       int                   `json:"total"`
	FromCache   bool                  `json:"from_cache"`
}

// ══════════════════════════════════════════════════════════════════════════════
// MAPPING
// ══════════════════════════════════════════════════════════════════════════════

func userToDTO(u *user.User) UserDTO {
	return UserDTO{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func statsToDTO(s *progress.UserStats) StatsDTO {
	return StatsDTO{
		TotalMessages: s.TotalMessages,
		TotalPoints:   s.TotalPoints,
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
		Level:         s.Level,
		WordsLearned:  s.WordsLearned,
		GrammarChecks: s.GrammarChecks,
		VocabLookups:  s.VocabLookups,
		LastActivity:  s.LastActivity,
	}
}

func statsUpdateToDTO(r *command.UpdateStatsResult) *StatsUpdateDTO {
	if r == nil {
		return nil
	}

	achievements := make([]AchievementDTO, 0, len(r.NewAchievements))
	for _, a := range r.NewAchievements {
		achievements = append(achievements, AchievementDTO{
			ID:       a.ID,
			Name:     a.Name,
			Points:   a.Points,
			EarnedAt: a.EarnedAt,
		})
	}

	return &StatsUpdateDTO{
		PointsAwarded:   r.PointsAwarded,
		BonusPoints:     r.BonusPoints,
		NewAchievements: achievements,
		StreakExtended:  r.StreakExtended,
		Stats:           statsToDTO(r.Stats),
	}
}

func achievementsToDTO(achievements []progress.Achievement) []AchievementDTO {
	dtos := make([]AchievementDTO, 0, len(achievements))
	for _, a := range achievements {
		dtos = append(dtos, AchievementDTO{
			ID:       a.ID,
			Name:     a.Name,
			Points:   a.Points,
			EarnedAt: a.EarnedAt,
		})
	}
	return dtos
}

func historyToDTO(entries []chat.Entry) []HistoryEntryDTO {
	dtos := make([]HistoryEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, HistoryEntryDTO{
			ID:        e.ID.String(),
			Kind:      string(e.Kind),
			Message:   e.Message,
			Reply:     e.Reply,
			Timestamp: e.Timestamp,
		})
	}
	return dtos
}

func activityToDTO(entries []progress.ActivityEntry) []ActivityEntryDTO {
	dtos := make([]ActivityEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, ActivityEntryDTO{
			Action:    string(e.Action),
			Message:   e.Message,
			Timestamp: e.Timestamp,
		})
	}
	return dtos
}

func leaderboardToDTO(entries []progress.LeaderboardEntry) []LeaderboardEntryDTO {
	dtos := make([]LeaderboardEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, LeaderboardEntryDTO{
			Rank:          e.Rank,
			Username:      e.Username,
			Level:         e.Level,
			TotalPoints:   e.TotalPoints,
			TotalMessages: e.TotalMessages,
			CurrentStreak: e.CurrentStreak,
			WordsLearned:  e.WordsLearned,
		})
	}
	return dtos
}
