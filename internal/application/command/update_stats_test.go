package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/pkg/logger"
)

// memStore is an in-memory StatsStore for handler tests.
type memStore struct {
	mu           sync.Mutex
	stats        map[uuid.UUID]*progress.UserStats
	achievements map[uuid.UUID][]progress.Achievement

	failInsertFor map[string]error
	saveCalls     int
}

func newMemStore() *memStore {
	return &memStore{
		stats:         make(map[uuid.UUID]*progress.UserStats),
		achievements:  make(map[uuid.UUID][]progress.Achievement),
		failInsertFor: make(map[string]error),
	}
}

func (m *memStore) InitStats(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[userID] = progress.NewUserStats(userID, time.Now())
	return nil
}

func (m *memStore) GetStats(ctx context.Context, userID uuid.UUID) (*progress.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[userID]
	if !ok {
		return nil, shared.ErrStatsNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) SaveStats(ctx context.Context, userID uuid.UUID, patch progress.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[userID]
	if !ok {
		return shared.ErrStatsNotFound
	}
	patch.Apply(s)
	m.saveCalls++
	return nil
}

func (m *memStore) ListEarnedAchievementIDs(ctx context.Context, userID uuid.UUID) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make(map[string]bool)
	for _, a := range m.achievements[userID] {
		ids[a.ID] = true
	}
	return ids, nil
}

func (m *memStore) InsertAchievement(ctx context.Context, userID uuid.UUID, a progress.Achievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failInsertFor[a.ID]; ok {
		return err
	}
	for _, got := range m.achievements[userID] {
		if got.ID == a.ID {
			return shared.ErrAchievementDuplicate
		}
	}
	m.achievements[userID] = append(m.achievements[userID], a)
	return nil
}

func (m *memStore) ListAchievements(ctx context.Context, userID uuid.UUID) ([]progress.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]progress.Achievement(nil), m.achievements[userID]...), nil
}

func (m *memStore) RecentActivity(ctx context.Context, userID uuid.UUID, limit int) ([]progress.ActivityEntry, error) {
	return nil, nil
}

func (m *memStore) CountActivitySince(ctx context.Context, userID uuid.UUID, action progress.ActionType, since time.Time) (int, error) {
	return 0, nil
}

func (m *memStore) TopByPoints(ctx context.Context, limit int) ([]progress.LeaderboardEntry, error) {
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Level: logger.LevelFatal, AddCaller: false})
}

func setupHandler(t *testing.T) (*UpdateStatsHandler, *memStore, uuid.UUID) {
	t.Helper()
	store := newMemStore()
	userID := uuid.New()
	require.NoError(t, store.InitStats(context.Background(), userID))
	return NewUpdateStatsHandler(store, testLogger()), store, userID
}

func TestHandleFirstMessage(t *testing.T) {
	h, store, userID := setupHandler(t)

	res, err := h.Handle(context.Background(), UpdateStatsCommand{
		UserID: userID,
		Action: progress.ActionMessage,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, res.PointsAwarded)
	assert.Equal(t, 50, res.BonusPoints, "First Steps unlocks on the first message")
	require.Len(t, res.NewAchievements, 1)
	assert.Equal(t, "first_message", res.NewAchievements[0].ID)
	assert.True(t, res.StreakExtended)

	saved, err := store.GetStats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.TotalMessages)
	assert.Equal(t, 60, saved.TotalPoints)
	assert.Equal(t, 1, saved.CurrentStreak)
	require.NotNil(t, saved.LastActivity)
}

func TestHandleVocabCountsWordsLearned(t *testing.T) {
	h, store, userID := setupHandler(t)

	res, err := h.Handle(context.Background(), UpdateStatsCommand{
		UserID: userID,
		Action: progress.ActionVocabLookup,
	})
	require.NoError(t, err)

	assert.Equal(t, 20, res.PointsAwarded)
	assert.Zero(t, res.BonusPoints)

	saved, _ := store.GetStats(context.Background(), userID)
	assert.Equal(t, 1, saved.VocabLookups)
	assert.Equal(t, 1, saved.WordsLearned)
	assert.Zero(t, saved.TotalMessages)
}

func TestHandleGrammarCheck(t *testing.T) {
	h, store, userID := setupHandler(t)

	res, err := h.Handle(context.Background(), UpdateStatsCommand{
		UserID: userID,
		Action: progress.ActionGrammarCheck,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, res.PointsAwarded)

	saved, _ := store.GetStats(context.Background(), userID)
	assert.Equal(t, 1, saved.GrammarChecks)
}

func TestHandleStreakAcrossDays(t *testing.T) {
	h, store, userID := setupHandler(t)
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2026, time.April, d, 12, 0, 0, 0, time.UTC)
	}

	for d := 1; d <= 3; d++ {
		_, err := h.Handle(ctx, UpdateStatsCommand{
			UserID: userID, Action: progress.ActionMessage, Timestamp: day(d),
		})
		require.NoError(t, err)
	}
	saved, _ := store.GetStats(ctx, userID)
	assert.Equal(t, 3, saved.CurrentStreak)

	// A second action the same day leaves the streak alone.
	res, err := h.Handle(ctx, UpdateStatsCommand{
		UserID: userID, Action: progress.ActionMessage, Timestamp: day(3).Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.False(t, res.StreakExtended)
	saved, _ = store.GetStats(ctx, userID)
	assert.Equal(t, 3, saved.CurrentStreak)

	// Skipping a day resets to 1 but keeps the longest streak.
	_, err = h.Handle(ctx, UpdateStatsCommand{
		UserID: userID, Action: progress.ActionMessage, Timestamp: day(5),
	})
	require.NoError(t, err)
	saved, _ = store.GetStats(ctx, userID)
	assert.Equal(t, 1, saved.CurrentStreak)
	assert.Equal(t, 3, saved.LongestStreak)
}

func TestHandleBonusCrossesLevel(t *testing.T) {
	h, store, userID := setupHandler(t)
	ctx := context.Background()

	// Seed a user at 540 points with 9 messages who already holds the
	// early achievements.
	store.mu.Lock()
	s := store.stats[userID]
	s.TotalMessages = 9
	s.TotalPoints = 540
	s.Level = progress.LevelForPoints(s.TotalPoints)
	store.mu.Unlock()
	store.achievements[userID] = []progress.Achievement{
		{ID: "first_message"}, {ID: "level_5"},
	}

	res, err := h.Handle(ctx, UpdateStatsCommand{UserID: userID, Action: progress.ActionMessage})
	require.NoError(t, err)

	assert.Equal(t, 10, res.PointsAwarded)
	assert.Equal(t, 100, res.BonusPoints, "Chatty Learner on the 10th message")
	saved, _ := store.GetStats(ctx, userID)
	assert.Equal(t, 650, saved.TotalPoints)
	assert.Equal(t, 7, saved.Level)
}

func TestHandleFailedAchievementInsertExcludesPoints(t *testing.T) {
	h, store, userID := setupHandler(t)
	ctx := context.Background()

	store.failInsertFor["first_message"] = errors.New("connection reset")

	res, err := h.Handle(ctx, UpdateStatsCommand{UserID: userID, Action: progress.ActionMessage})
	require.NoError(t, err, "achievement persistence failures must not fail the action")

	assert.Zero(t, res.BonusPoints)
	assert.Empty(t, res.NewAchievements)
	saved, _ := store.GetStats(ctx, userID)
	assert.Equal(t, 10, saved.TotalPoints, "only the action points land")

	// Once the store recovers, the next action retries the unlock.
	delete(store.failInsertFor, "first_message")
	res, err = h.Handle(ctx, UpdateStatsCommand{UserID: userID, Action: progress.ActionMessage})
	require.NoError(t, err)
	assert.Equal(t, 50, res.BonusPoints)
}

func TestHandleAchievementNeverDoubleCredited(t *testing.T) {
	h, store, userID := setupHandler(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := h.Handle(ctx, UpdateStatsCommand{UserID: userID, Action: progress.ActionMessage})
		require.NoError(t, err)
	}

	list, _ := store.ListAchievements(ctx, userID)
	require.Len(t, list, 1)
	saved, _ := store.GetStats(ctx, userID)
	// 3 messages at 10 points plus one 50-point unlock.
	assert.Equal(t, 80, saved.TotalPoints)
}

func TestHandleUnknownActionIsNoOp(t *testing.T) {
	h, store, userID := setupHandler(t)

	res, err := h.Handle(context.Background(), UpdateStatsCommand{
		UserID: userID, Action: progress.ActionType("bogus"),
	})
	require.NoError(t, err)

	assert.Zero(t, res.PointsAwarded)
	assert.Zero(t, res.BonusPoints)
	assert.Empty(t, res.NewAchievements)
	assert.False(t, res.StreakExtended)

	saved, _ := store.GetStats(context.Background(), userID)
	assert.Zero(t, saved.TotalPoints)
	assert.Zero(t, saved.CurrentStreak)
	assert.Zero(t, store.saveCalls, "nothing to persist for an ignored action")
}

func TestHandleMissingStats(t *testing.T) {
	h := NewUpdateStatsHandler(newMemStore(), testLogger())

	_, err := h.Handle(context.Background(), UpdateStatsCommand{
		UserID: uuid.New(), Action: progress.ActionMessage,
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// Concurrent actions by the same user serialize under the per-user lock:
// every increment lands and no update is lost.
func TestHandleConcurrentSameUser(t *testing.T) {
	h, store, userID := setupHandler(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := h.Handle(ctx, UpdateStatsCommand{UserID: userID, Action: progress.ActionMessage})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	saved, _ := store.GetStats(ctx, userID)
	assert.Equal(t, n, saved.TotalMessages)
	// n actions at 10 points, plus first_message (50) and 10_messages (100).
	assert.Equal(t, n*10+150, saved.TotalPoints)
}

func TestHandleConcurrentDistinctUsers(t *testing.T) {
	store := newMemStore()
	h := NewUpdateStatsHandler(store, testLogger())
	ctx := context.Background()

	users := make([]uuid.UUID, 8)
	for i := range users {
		users[i] = uuid.New()
		require.NoError(t, store.InitStats(ctx, users[i]))
	}

	var wg sync.WaitGroup
	for _, id := range users {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, err := h.Handle(ctx, UpdateStatsCommand{UserID: id, Action: progress.ActionVocabLookup})
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range users {
		saved, _ := store.GetStats(ctx, id)
		assert.Equal(t, 5, saved.VocabLookups)
		assert.Equal(t, 5, saved.WordsLearned)
	}
}
