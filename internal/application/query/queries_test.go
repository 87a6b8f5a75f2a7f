package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaspark/linguaspark-api/internal/domain/chat"
	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/internal/domain/user"
	"github.com/linguaspark/linguaspark-api/pkg/logger"
)

type fakeUsers struct {
	byName map[string]*user.User
}

func (f *fakeUsers) Create(ctx context.Context, u *user.User) error { return nil }

func (f *fakeUsers) ByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func (f *fakeUsers) ByUsername(ctx context.Context, username string) (*user.User, error) {
	if u, ok := f.byName[username]; ok {
		return u, nil
	}
	return nil, shared.ErrUserNotFound
}

func (f *fakeUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, ok := f.byName[username]
	return ok, nil
}

func (f *fakeUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	return false, nil
}

type fakeStore struct {
	stats        map[uuid.UUID]*progress.UserStats
	achievements map[uuid.UUID][]progress.Achievement
	activity     map[uuid.UUID][]progress.ActivityEntry
	top          []progress.LeaderboardEntry
	topErr       error
	topCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		stats:        make(map[uuid.UUID]*progress.UserStats),
		achievements: make(map[uuid.UUID][]progress.Achievement),
		activity:     make(map[uuid.UUID][]progress.ActivityEntry),
	}
}

func (f *fakeStore) InitStats(ctx context.Context, userID uuid.UUID) error { return nil }

func (f *fakeStore) GetStats(ctx context.Context, userID uuid.UUID) (*progress.UserStats, error) {
	if s, ok := f.stats[userID]; ok {
		return s, nil
	}
	return nil, shared.ErrStatsNotFound
}

func (f *fakeStore) SaveStats(ctx context.Context, userID uuid.UUID, patch progress.Patch) error {
	return nil
}

func (f *fakeStore) ListEarnedAchievementIDs(ctx context.Context, userID uuid.UUID) (map[string]bool, error) {
	return nil, nil
}

func (f *fakeStore) InsertAchievement(ctx context.Context, userID uuid.UUID, a progress.Achievement) error {
	return nil
}

func (f *fakeStore) ListAchievements(ctx context.Context, userID uuid.UUID) ([]progress.Achievement, error) {
	return f.achievements[userID], nil
}

func (f *fakeStore) RecentActivity(ctx context.Context, userID uuid.UUID, limit int) ([]progress.ActivityEntry, error) {
	list := f.activity[userID]
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (f *fakeStore) CountActivitySince(ctx context.Context, userID uuid.UUID, action progress.ActionType, since time.Time) (int, error) {
	count := 0
	for _, e := range f.activity[userID] {
		if e.Action == action && !e.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) TopByPoints(ctx context.Context, limit int) ([]progress.LeaderboardEntry, error) {
	f.topCalls++
	if f.topErr != nil {
		return nil, f.topErr
	}
	if len(f.top) > limit {
		return f.top[:limit], nil
	}
	return f.top, nil
}

type fakeCache struct {
	snapshot []progress.LeaderboardEntry
	has      bool
	getErr   error
	setCalls int
}

func (f *fakeCache) GetSnapshot(ctx context.Context) ([]progress.LeaderboardEntry, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	return f.snapshot, f.has, nil
}

func (f *fakeCache) SetSnapshot(ctx context.Context, entries []progress.LeaderboardEntry) error {
	f.snapshot = entries
	f.has = true
	f.setCalls++
	return nil
}

type fakeHistory struct {
	entries []chat.Entry
}

func (f *fakeHistory) Save(ctx context.Context, e *chat.Entry) error { return nil }

func (f *fakeHistory) History(ctx context.Context, userID uuid.UUID, limit int) ([]chat.Entry, error) {
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func seedUser(t *testing.T, users *fakeUsers, store *fakeStore, username string) *user.User {
	t.Helper()
	u, err := user.New(username, username+"@example.com", "hash", time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	users.byName[username] = u
	store.stats[u.ID] = progress.NewUserStats(u.ID, u.CreatedAt)
	return u
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Level: logger.LevelFatal, AddCaller: false})
}

func TestGetProgress(t *testing.T) {
	users := &fakeUsers{byName: map[string]*user.User{}}
	store := newFakeStore()
	u := seedUser(t, users, store, "maria")
	store.stats[u.ID].TotalPoints = 230
	store.stats[u.ID].Level = 3
	store.activity[u.ID] = []progress.ActivityEntry{
		{UserID: u.ID, Action: progress.ActionMessage, Message: "hola"},
	}

	h := NewGetProgressHandler(users, store)
	view, err := h.Handle(context.Background(), GetProgressQuery{
		Username: "maria",
		Now:      time.Date(2026, time.May, 3, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, 230, view.Stats.TotalPoints)
	assert.Len(t, view.RecentActivity, 1)
	assert.Equal(t, 3, view.TotalDays, "May 1 through May 3 inclusive")
}

func TestGetProgressUnknownUser(t *testing.T) {
	h := NewGetProgressHandler(&fakeUsers{byName: map[string]*user.User{}}, newFakeStore())
	_, err := h.Handle(context.Background(), GetProgressQuery{Username: "ghost"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetWeeklyInsights(t *testing.T) {
	users := &fakeUsers{byName: map[string]*user.User{}}
	store := newFakeStore()
	u := seedUser(t, users, store, "maria")
	store.stats[u.ID].TotalPoints = 540
	store.stats[u.ID].Level = 6
	store.stats[u.ID].CurrentStreak = 2
	store.stats[u.ID].WordsLearned = 15
	store.achievements[u.ID] = []progress.Achievement{{ID: "first_message"}, {ID: "vocab_10"}}

	now := time.Date(2026, time.May, 8, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		store.activity[u.ID] = append(store.activity[u.ID], progress.ActivityEntry{
			UserID: u.ID, Action: progress.ActionMessage, Timestamp: now.AddDate(0, 0, -(i % 6)),
		})
	}

	h := NewGetWeeklyInsightsHandler(users, store)
	view, err := h.Handle(context.Background(), GetWeeklyInsightsQuery{Username: "maria", Now: now})
	require.NoError(t, err)

	assert.Equal(t, 12, view.WeekSummary.MessagesSent)
	assert.Equal(t, 40, view.WeekSummary.PointsEarned)
	assert.Equal(t, 2, view.AchievementsUnlocked)
	assert.Equal(t, 15, view.TotalWordsLearned)
	assert.NotEmpty(t, view.Motivation)
}

func TestWeeklyInsightsCountsOnlyMessages(t *testing.T) {
	users := &fakeUsers{byName: map[string]*user.User{}}
	store := newFakeStore()
	u := seedUser(t, users, store, "maria")

	now := time.Date(2026, time.May, 8, 12, 0, 0, 0, time.UTC)
	inWeek := now.AddDate(0, 0, -2)
	store.activity[u.ID] = []progress.ActivityEntry{
		{UserID: u.ID, Action: progress.ActionMessage, Timestamp: inWeek},
		{UserID: u.ID, Action: progress.ActionGrammarCheck, Timestamp: inWeek},
		{UserID: u.ID, Action: progress.ActionVocabLookup, Timestamp: inWeek},
		{UserID: u.ID, Action: progress.ActionMessage, Timestamp: inWeek.Add(time.Hour)},
		{UserID: u.ID, Action: progress.ActionMessage, Timestamp: now.AddDate(0, 0, -10)},
	}

	h := NewGetWeeklyInsightsHandler(users, store)
	view, err := h.Handle(context.Background(), GetWeeklyInsightsQuery{Username: "maria", Now: now})
	require.NoError(t, err)

	assert.Equal(t, 2, view.WeekSummary.MessagesSent,
		"grammar checks and vocab lookups stay out of the message count")
}

func TestGetAchievements(t *testing.T) {
	users := &fakeUsers{byName: map[string]*user.User{}}
	store := newFakeStore()
	u := seedUser(t, users, store, "maria")
	store.achievements[u.ID] = []progress.Achievement{
		{ID: "grammar_5", Name: "Grammar Guru"},
		{ID: "first_message", Name: "First Steps"},
	}

	h := NewGetAchievementsHandler(users, store)
	res, err := h.Handle(context.Background(), GetAchievementsQuery{Username: "maria"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 7, res.Possible)
}

func TestGetHistoryUnknownUserEmpty(t *testing.T) {
	h := NewGetHistoryHandler(&fakeUsers{byName: map[string]*user.User{}}, &fakeHistory{})
	entries, err := h.Handle(context.Background(), GetHistoryQuery{Username: "ghost"})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetHistoryCapsLimit(t *testing.T) {
	users := &fakeUsers{byName: map[string]*user.User{}}
	store := newFakeStore()
	seedUser(t, users, store, "maria")

	history := &fakeHistory{}
	for i := 0; i < chat.HistoryLimit+10; i++ {
		history.entries = append(history.entries, chat.Entry{Message: "m"})
	}

	h := NewGetHistoryHandler(users, history)
	entries, err := h.Handle(context.Background(), GetHistoryQuery{Username: "maria", Limit: 999})
	require.NoError(t, err)
	assert.Len(t, entries, chat.HistoryLimit)
}

func TestGetStats(t *testing.T) {
	users := &fakeUsers{byName: map[string]*user.User{}}
	store := newFakeStore()
	u := seedUser(t, users, store, "maria")
	store.stats[u.ID].TotalMessages = 4

	h := NewGetStatsHandler(users, store)
	res, err := h.Handle(context.Background(), GetStatsQuery{Username: "maria"})
	require.NoError(t, err)
	assert.Equal(t, "maria", res.Username)
	assert.Equal(t, 4, res.Stats.TotalMessages)
}

func TestLeaderboardServedFromCache(t *testing.T) {
	store := newFakeStore()
	cache := &fakeCache{
		has: true,
		snapshot: []progress.LeaderboardEntry{
			{Rank: 1, Username: "maria", TotalPoints: 900},
			{Rank: 2, Username: "li", TotalPoints: 700},
			{Rank: 3, Username: "ana", TotalPoints: 500},
		},
	}

	h := NewGetLeaderboardHandler(store, cache, quietLogger())
	res, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)

	assert.True(t, res.FromCache)
	assert.Len(t, res.Entries, 2)
	assert.Zero(t, store.topCalls, "cache hit must not touch the database")
}

func TestLeaderboardFallsBackToDatabase(t *testing.T) {
	store := newFakeStore()
	store.top = []progress.LeaderboardEntry{{Rank: 1, Username: "maria", TotalPoints: 900}}

	h := NewGetLeaderboardHandler(store, &fakeCache{getErr: errors.New("redis down")}, quietLogger())
	res, err := h.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)

	assert.False(t, res.FromCache)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, store.topCalls)
}

func TestLeaderboardNoCacheConfigured(t *testing.T) {
	store := newFakeStore()
	h := NewGetLeaderboardHandler(store, nil, quietLogger())

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.topCalls)
}

func TestLeaderboardRefresh(t *testing.T) {
	store := newFakeStore()
	store.top = []progress.LeaderboardEntry{{Rank: 1, Username: "maria", TotalPoints: 900}}
	cache := &fakeCache{}

	h := NewGetLeaderboardHandler(store, cache, quietLogger())
	require.NoError(t, h.Refresh(context.Background()))

	assert.Equal(t, 1, cache.setCalls)
	assert.True(t, cache.has)

	store.topErr = errors.New("db down")
	assert.ErrorIs(t, h.Refresh(context.Background()), shared.ErrServiceUnavailable)
}
