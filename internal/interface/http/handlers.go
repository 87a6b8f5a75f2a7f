package http

import (
	"encoding/json"
	"net/http"

	"github.com/linguaspark/linguaspark-api/internal/application/command"
	"github.com/linguaspark/linguaspark-api/internal/application/query"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/pkg/logger"
)

// apiVersion is reported by the root and health endpoints.
const apiVersion = "1.0.0"

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot handles GET / - API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "LinguaSpark API",
		"version": apiVersion,
		"status":  "running",
		"endpoints": map[string]string{
			"signup":          "POST /signup",
			"login":           "POST /login",
			"chat":            "POST /chat",
			"grammar_check":   "POST /grammar-check",
			"vocabulary":      "POST /vocabulary",
			"history":         "GET /history/{username}",
			"progress":        "GET /progress/{username}",
			"weekly_insights": "GET /weekly-insights/{username}",
			"achievements":    "GET /achievements/{username}",
			"stats":           "GET /stats/{username}",
			"leaderboard":     "GET /leaderboard",
			"health":          "GET /health",
		},
	})
}

// handleHealth handles GET /health - health check with dependency status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	if s.deps.HealthCheck != nil {
		checks = s.deps.HealthCheck(r.Context())
	}

	status := "healthy"
	httpStatus := http.StatusOK
	for _, state := range checks {
		if state != "healthy" {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":         status,
		"version":        apiVersion,
		"uptime_seconds": int(s.Uptime().Seconds()),
		"checks":         checks,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleSignup handles POST /signup - create a new account.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if s.deps.SignupHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Signup service is not available")
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON request body")
		return
	}

	result, err := s.deps.SignupHandler.Handle(r.Context(), command.SignupCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, SignupResponse{
		Message: result.Message,
		User:    userToDTO(result.User),
	})
}

// handleLogin handles POST /login - authenticate and issue a token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.LoginHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Login service is not available")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON request body")
		return
	}

	result, err := s.deps.LoginHandler.Handle(r.Context(), command.LoginCommand{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := LoginResponse{
		Message: result.Message,
		Token:   result.Token,
		User:    userToDTO(result.User),
	}
	if result.Stats != nil {
		stats := statsToDTO(result.Stats)
		resp.Stats = &stats
	}

	writeJSON(w, http.StatusOK, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// TUTOR HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleChat handles POST /chat - converse with the AI tutor.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.TutorChatHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Tutor service is not available")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON request body")
		return
	}

	result, err := s.deps.TutorChatHandler.Handle(r.Context(), command.TutorChatCommand{
		Username:   req.Username,
		Text:       req.Message,
		UserLang:   req.UserLang,
		TargetLang: req.TargetLang,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Reply: result.Reply,
		Stats: statsUpdateToDTO(result.Stats),
	})
}

// handleGrammarCheck handles POST /grammar-check - analyze a sentence.
func (s *Server) handleGrammarCheck(w http.ResponseWriter, r *http.Request) {
	if s.deps.GrammarCheckHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Grammar service is not available")
		return
	}

	var req GrammarCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON request body")
		return
	}

	result, err := s.deps.GrammarCheckHandler.Handle(r.Context(), command.GrammarCheckCommand{
		Username: req.Username,
		Text:     req.Text,
		Language: req.Language,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, GrammarCheckResponse{
		Original: result.Original,
		Analysis: result.Analysis,
		Language: result.Language,
		Stats:    statsUpdateToDTO(result.Stats),
	})
}

// handleVocabulary handles POST /vocabulary - explain a word or phrase.
func (s *Server) handleVocabulary(w http.ResponseWriter, r *http.Request) {
	if s.deps.VocabularyHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Vocabulary service is not available")
		return
	}

	var req VocabularyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON request body")
		return
	}

	result, err := s.deps.VocabularyHandler.Handle(r.Context(), command.VocabularyCommand{
		Username: req.Username,
		Word:     req.Word,
		Language: req.Language,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, VocabularyResponse{
		Word:        result.Word,
		Language:    result.Language,
		Explanation: result.Explanation,
		Stats:       statsUpdateToDTO(result.Stats),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetHistory handles GET /history/{username} - recent tutor exchanges.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetHistoryHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "History service is not available")
		return
	}

	username := r.PathValue("username")
	limit := getQueryParamInt(r, "limit", 0)

	entries, err := s.deps.GetHistoryHandler.Handle(r.Context(), query.GetHistoryQuery{
		Username: username,
		Limit:    limit,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		Username: username,
		History:  historyToDTO(entries),
		Count:    len(entries),
	})
}

// handleGetProgress handles GET /progress/{username} - the progress dashboard.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetProgressHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Progress service is not available")
		return
	}

	username := r.PathValue("username")

	view, err := s.deps.GetProgressHandler.Handle(r.Context(), query.GetProgressQuery{Username: username})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ProgressResponse{
		Username:       username,
		Stats:          statsToDTO(view.Stats),
		RecentActivity: activityToDTO(view.RecentActivity),
		JoinDate:       view.JoinDate,
		TotalDays:      view.TotalDays,
	})
}

// handleGetWeeklyInsights handles GET /weekly-insights/{username}.
func (s *Server) handleGetWeeklyInsights(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetWeeklyInsightsHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Insights service is not available")
		return
	}

	username := r.PathValue("username")

	view, err := s.deps.GetWeeklyInsightsHandler.Handle(r.Context(), query.GetWeeklyInsightsQuery{Username: username})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, WeeklyInsightsResponse{
		WeekSummary: WeekSummaryDTO{
			MessagesSent:  view.WeekSummary.MessagesSent,
			PointsEarned:  view.WeekSummary.PointsEarned,
			CurrentStreak: view.WeekSummary.CurrentStreak,
			Level:         view.WeekSummary.Level,
		},
		AchievementsUnlocked: view.AchievementsUnlocked,
		TotalWordsLearned:    view.TotalWordsLearned,
		Motivation:           view.Motivation,
	})
}

// handleGetAchievements handles GET /achievements/{username}.
func (s *Server) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetAchievementsHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Achievements service is not available")
		return
	}

	username := r.PathValue("username")

	result, err := s.deps.GetAchievementsHandler.Handle(r.Context(), query.GetAchievementsQuery{Username: username})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AchievementsResponse{
		Achievements: achievementsToDTO(result.Achievements),
		Total:        result.Total,
		Possible:     result.Possible,
	})
}

// handleGetStats handles GET /stats/{username} - raw counters.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetStatsHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Stats service is not available")
		return
	}

	username := r.PathValue("username")

	result, err := s.deps.GetStatsHandler.Handle(r.Context(), query.GetStatsQuery{Username: username})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		Username: result.Username,
		Stats:    statsToDTO(result.Stats),
	})
}

// handleGetLeaderboard handles GET /leaderboard - top learners by points.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Leaderboard service is not available")
		return
	}

	limit := getQueryParamInt(r, "limit", 0)

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), query.GetLeaderboardQuery{Limit: limit})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LeaderboardResponse{
		Leaderboard: leaderboardToDTO(result.Entries),
		Total:       result.Total,
		FromCache:   result.FromCache,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// respondError maps domain errors to HTTP status codes.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())

	case shared.IsUnauthorized(err):
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")

	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())

	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "already_exists", err.Error())

	case shared.IsExternalService(err):
		s.logger.Error("upstream dependency unavailable",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Service is temporarily unavailable, please try again")

	default:
		s.logger.Error("unhandled request error",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}
