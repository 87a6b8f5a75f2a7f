package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaspark/linguaspark-api/internal/application/auth"
	"github.com/linguaspark/linguaspark-api/internal/application/command"
	"github.com/linguaspark/linguaspark-api/internal/application/query"
	"github.com/linguaspark/linguaspark-api/internal/domain/chat"
	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/internal/domain/user"
	"github.com/linguaspark/linguaspark-api/pkg/logger"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type memUsers struct {
	byName map[string]*user.User
}

func newMemUsers() *memUsers {
	return &memUsers{byName: make(map[string]*user.User)}
}

func (m *memUsers) Create(ctx context.Context, u *user.User) error {
	if _, ok := m.byName[u.Username]; ok {
		return shared.ErrAlreadyExists
	}
	m.byName[u.Username] = u
	return nil
}

func (m *memUsers) ByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	for _, u := range m.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func (m *memUsers) ByUsername(ctx context.Context, username string) (*user.User, error) {
	if u, ok := m.byName[username]; ok {
		return u, nil
	}
	return nil, shared.ErrUserNotFound
}

func (m *memUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, ok := m.byName[username]
	return ok, nil
}

func (m *memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	for _, u := range m.byName {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type memStore struct {
	stats        map[uuid.UUID]*progress.UserStats
	achievements map[uuid.UUID][]progress.Achievement
	top          []progress.LeaderboardEntry
}

func newMemStore() *memStore {
	return &memStore{
		stats:        make(map[uuid.UUID]*progress.UserStats),
		achievements: make(map[uuid.UUID][]progress.Achievement),
	}
}

func (m *memStore) InitStats(ctx context.Context, userID uuid.UUID) error {
	if _, ok := m.stats[userID]; !ok {
		m.stats[userID] = progress.NewUserStats(userID, time.Now().UTC())
	}
	return nil
}

func (m *memStore) GetStats(ctx context.Context, userID uuid.UUID) (*progress.UserStats, error) {
	if s, ok := m.stats[userID]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, shared.ErrStatsNotFound
}

func (m *memStore) SaveStats(ctx context.Context, userID uuid.UUID, p progress.Patch) error {
	s, ok := m.stats[userID]
	if !ok {
		return shared.ErrStatsNotFound
	}
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
		s.LastActivity = p.LastActivity
	}
	return nil
}

func (m *memStore) ListEarnedAchievementIDs(ctx context.Context, userID uuid.UUID) (map[string]bool, error) {
	earned := make(map[string]bool)
	for _, a := range m.achievements[userID] {
		earned[a.ID] = true
	}
	return earned, nil
}

func (m *memStore) InsertAchievement(ctx context.Context, userID uuid.UUID, a progress.Achievement) error {
	for _, existing := range m.achievements[userID] {
		if existing.ID == a.ID {
			return shared.ErrAchievementDuplicate
		}
	}
	m.achievements[userID] = append(m.achievements[userID], a)
	return nil
}

func (m *memStore) ListAchievements(ctx context.Context, userID uuid.UUID) ([]progress.Achievement, error) {
	return m.achievements[userID], nil
}

func (m *memStore) RecentActivity(ctx context.Context, userID uuid.UUID, limit int) ([]progress.ActivityEntry, error) {
	return []progress.ActivityEntry{}, nil
}

func (m *memStore) CountActivitySince(ctx context.Context, userID uuid.UUID, action progress.ActionType, since time.Time) (int, error) {
	return 0, nil
}

func (m *memStore) TopByPoints(ctx context.Context, limit int) ([]progress.LeaderboardEntry, error) {
	if len(m.top) > limit {
		return m.top[:limit], nil
	}
	return m.top, nil
}

type memChat struct {
	entries []chat.Entry
}

func (m *memChat) Save(ctx context.Context, e *chat.Entry) error {
	m.entries = append([]chat.Entry{*e}, m.entries...)
	return nil
}

func (m *memChat) History(ctx context.Context, userID uuid.UUID, limit int) ([]chat.Entry, error) {
	var out []chat.Entry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type stubModel struct {
	reply string
}

func (s *stubModel) Complete(ctx context.Context, req command.ModelRequest) (string, error) {
	return s.reply, nil
}

type memLeaderboardCache struct {
	snapshot []progress.LeaderboardEntry
	has      bool
}

func (m *memLeaderboardCache) GetSnapshot(ctx context.Context) ([]progress.LeaderboardEntry, bool, error) {
	return m.snapshot, m.has, nil
}

func (m *memLeaderboardCache) SetSnapshot(ctx context.Context, entries []progress.LeaderboardEntry) error {
	m.snapshot = entries
	m.has = true
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Test server wiring
// ─────────────────────────────────────────────────────────────────────────────

type testEnv struct {
	server *Server
	users  *memUsers
	store  *memStore
	tokens *auth.Tokens
}

func newTestServer(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	log := logger.New(logger.Options{Output: io.Discard})
	users := newMemUsers()
	store := newMemStore()
	history := &memChat{}
	model := &stubModel{reply: "¡Hola! Me alegra que practiques español."}
	tokens := auth.NewTokens("test-secret", time.Hour)

	statsHandler := command.NewUpdateStatsHandler(store, log)

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	if mutate != nil {
		mutate(&cfg)
	}

	srv := NewServer(cfg, Dependencies{
		SignupHandler:       command.NewSignupHandler(users, store, log),
		LoginHandler:        command.NewLoginHandler(users, store, tokens, log),
		TutorChatHandler:    command.NewTutorChatHandler(users, history, model, statsHandler, log),
		GrammarCheckHandler: command.NewGrammarCheckHandler(users, history, model, statsHandler, log),
		VocabularyHandler:   command.NewVocabularyHandler(users, history, model, statsHandler, log),

		GetProgressHandler:       query.NewGetProgressHandler(users, store),
		GetWeeklyInsightsHandler: query.NewGetWeeklyInsightsHandler(users, store),
		GetAchievementsHandler:   query.NewGetAchievementsHandler(users, store),
		GetStatsHandler:          query.NewGetStatsHandler(users, store),
		GetHistoryHandler:        query.NewGetHistoryHandler(users, history),
		GetLeaderboardHandler:    query.NewGetLeaderboardHandler(store, &memLeaderboardCache{}, log),

		Tokens: tokens,
		HealthCheck: func(ctx context.Context) map[string]string {
			return map[string]string{"database": "healthy"}
		},
		Logger: log,
	})

	return &testEnv{server: srv, users: users, store: store, tokens: tokens}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func (e *testEnv) signup(t *testing.T, username string) {
	t.Helper()
	status, _ := e.do(t, http.MethodPost, "/signup", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestSignupAndLogin(t *testing.T) {
	env := newTestServer(t, nil)

	status, resp := env.do(t, http.MethodPost, "/signup", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	}, nil)

	require.Equal(t, http.StatusCreated, status)
	assert.True(t, resp.Success)

	var signup SignupResponse
	require.NoError(t, json.Unmarshal(resp.Data, &signup))
	assert.Equal(t, "alice", signup.User.Username)
	assert.NotEmpty(t, signup.User.ID)

	// Duplicate username is rejected.
	status, resp = env.do(t, http.MethodPost, "/signup", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "secret123",
	}, nil)
	require.Equal(t, http.StatusConflict, status)
	assert.False(t, resp.Success)
	assert.Equal(t, "already_exists", resp.Error.Code)

	status, resp = env.do(t, http.MethodPost, "/login", map[string]string{
		"username": "alice",
		"password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, status)

	var login LoginResponse
	require.NoError(t, json.Unmarshal(resp.Data, &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "alice", login.User.Username)
	require.NotNil(t, login.Stats)
	assert.Equal(t, 1, login.Stats.Level)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestServer(t, nil)
	env.signup(t, "bob")

	status, resp := env.do(t, http.MethodPost, "/login", map[string]string{
		"username": "bob",
		"password": "wrong-password",
	}, nil)

	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_credentials", resp.Error.Code)

	// Unknown users get the same answer as bad passwords.
	status, resp = env.do(t, http.MethodPost, "/login", map[string]string{
		"username": "nobody",
		"password": "secret123",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_credentials", resp.Error.Code)
}

func TestChatAwardsPoints(t *testing.T) {
	env := newTestServer(t, nil)
	env.signup(t, "carol")

	status, resp := env.do(t, http.MethodPost, "/chat", map[string]string{
		"username":    "carol",
		"message":     "Hola, ¿cómo estás?",
		"user_lang":   "English",
		"target_lang": "Spanish",
	}, nil)

	require.Equal(t, http.StatusOK, status)

	var chatResp ChatResponse
	require.NoError(t, json.Unmarshal(resp.Data, &chatResp))
	assert.NotEmpty(t, chatResp.Reply)
	require.NotNil(t, chatResp.Stats)
	assert.Equal(t, 10, chatResp.Stats.PointsAwarded)
	assert.Equal(t, 1, chatResp.Stats.Stats.TotalMessages)
	assert.Equal(t, 1, chatResp.Stats.Stats.CurrentStreak)

	// A first message unlocks the first_message achievement.
	require.Len(t, chatResp.Stats.NewAchievements, 1)
	assert.Equal(t, "first_message", chatResp.Stats.NewAchievements[0].ID)
	assert.Equal(t, 50, chatResp.Stats.BonusPoints)
}

func TestGrammarCheckAndVocabulary(t *testing.T) {
	env := newTestServer(t, nil)
	env.signup(t, "dave")

	status, resp := env.do(t, http.MethodPost, "/grammar-check", map[string]string{
		"username": "dave",
		"text":     "Yo está cansado",
		"language": "Spanish",
	}, nil)
	require.Equal(t, http.StatusOK, status)

	var grammar GrammarCheckResponse
	require.NoError(t, json.Unmarshal(resp.Data, &grammar))
	assert.Equal(t, "Yo está cansado", grammar.Original)
	assert.NotEmpty(t, grammar.Analysis)
	require.NotNil(t, grammar.Stats)
	assert.Equal(t, 15, grammar.Stats.PointsAwarded)

	status, resp = env.do(t, http.MethodPost, "/vocabulary", map[string]string{
		"username": "dave",
		"word":     "madrugar",
		"language": "Spanish",
	}, nil)
	require.Equal(t, http.StatusOK, status)

	var vocab VocabularyResponse
	require.NoError(t, json.Unmarshal(resp.Data, &vocab))
	assert.Equal(t, "madrugar", vocab.Word)
	require.NotNil(t, vocab.Stats)
	assert.Equal(t, 20, vocab.Stats.PointsAwarded)
	assert.Equal(t, 1, vocab.Stats.Stats.WordsLearned)
}

func TestHistoryAfterChat(t *testing.T) {
	env := newTestServer(t, nil)
	env.signup(t, "erin")

	status, _ := env.do(t, http.MethodPost, "/chat", map[string]string{
		"username":    "erin",
		"message":     "Bonjour!",
		"user_lang":   "English",
		"target_lang": "French",
	}, nil)
	require.Equal(t, http.StatusOK, status)

	status, resp := env.do(t, http.MethodGet, "/history/erin", nil, nil)
	require.Equal(t, http.StatusOK, status)

	var history HistoryResponse
	require.NoError(t, json.Unmarshal(resp.Data, &history))
	assert.Equal(t, 1, history.Count)
	require.Len(t, history.History, 1)
	assert.Equal(t, "message", history.History[0].Kind)
	assert.Equal(t, "Bonjour!", history.History[0].Message)
}

func TestProgressUnknownUser(t *testing.T) {
	env := newTestServer(t, nil)

	status, resp := env.do(t, http.MethodGet, "/progress/ghost", nil, nil)

	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", resp.Error.Code)
}

func TestLeaderboard(t *testing.T) {
	env := newTestServer(t, nil)
	env.store.top = []progress.LeaderboardEntry{
		{Rank: 1, Username: "alice", Level: 6, TotalPoints: 540},
		{Rank: 2, Username: "bob", Level: 3, TotalPoints: 250},
		{Rank: 3, Username: "carol", Level: 1, TotalPoints: 90},
	}

	status, resp := env.do(t, http.MethodGet, "/leaderboard?limit=2", nil, nil)
	require.Equal(t, http.StatusOK, status)

	var board LeaderboardResponse
	require.NoError(t, json.Unmarshal(resp.Data, &board))
	require.Len(t, board.Leaderboard, 2)
	assert.Equal(t, "alice", board.Leaderboard[0].Username)
	assert.Equal(t, 540, board.Leaderboard[0].TotalPoints)
	assert.Equal(t, 2, board.Total)
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	env := newTestServer(t, func(c *Config) {
		c.RequireAuth = true
	})
	env.signup(t, "frank")

	status, resp := env.do(t, http.MethodGet, "/progress/frank", nil, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing_token", resp.Error.Code)

	status, resp = env.do(t, http.MethodGet, "/progress/frank", nil, map[string]string{
		"Authorization": "Bearer not-a-real-token",
	})
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_token", resp.Error.Code)

	u := env.users.byName["frank"]
	token, err := env.tokens.Issue(u.ID, u.Username, time.Now())
	require.NoError(t, err)

	status, resp = env.do(t, http.MethodGet, "/progress/frank", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
}

func TestValidationErrors(t *testing.T) {
	env := newTestServer(t, nil)

	status, resp := env.do(t, http.MethodPost, "/chat", map[string]string{
		"username": "",
		"message":  "hello",
	}, nil)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", resp.Error.Code)

	// Malformed JSON body.
	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestServer(t, nil)

	status, resp := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)

	var health struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Checks["database"])
}

func TestRootEndpoint(t *testing.T) {
	env := newTestServer(t, nil)

	status, resp := env.do(t, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, status)

	var info struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &info))
	assert.Equal(t, "LinguaSpark API", info.Name)
	assert.NotEmpty(t, info.Version)
}
