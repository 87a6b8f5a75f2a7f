package command

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaspark/linguaspark-api/internal/domain/chat"
	"github.com/linguaspark/linguaspark-api/internal/domain/progress"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/internal/domain/user"
)

// fakeUserRepo is an in-memory user.Repository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*user.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Username]; ok {
		return shared.ErrUsernameTaken
	}
	r.users[u.Username] = u
	return nil
}

func (r *fakeUserRepo) ByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func (r *fakeUserRepo) ByUsername(ctx context.Context, username string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok, nil
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// fakeChatRepo is an in-memory chat.Repository.
type fakeChatRepo struct {
	mu      sync.Mutex
	entries []chat.Entry
	failing bool
}

func (r *fakeChatRepo) Save(ctx context.Context, e *chat.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("history store down")
	}
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeChatRepo) History(ctx context.Context, userID uuid.UUID, limit int) ([]chat.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chat.Entry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

// stubModel returns a canned reply and records the last request.
type stubModel struct {
	reply string
	err   error
	last  ModelRequest
}

func (m *stubModel) Complete(ctx context.Context, req ModelRequest) (string, error) {
	m.last = req
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func setupTutor(t *testing.T) (*fakeUserRepo, *fakeChatRepo, *stubModel, *UpdateStatsHandler, *user.User) {
	t.Helper()
	users := newFakeUserRepo()
	store := newMemStore()
	u, err := user.New("maria", "maria@example.com", "hash", time.Now())
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), u))
	require.NoError(t, store.InitStats(context.Background(), u.ID))
	return users, &fakeChatRepo{}, &stubModel{reply: "¡Hola!"}, NewUpdateStatsHandler(store, testLogger()), u
}

func TestTutorChatHappyPath(t *testing.T) {
	users, history, model, stats, u := setupTutor(t)
	h := NewTutorChatHandler(users, history, model, stats, testLogger())

	res, err := h.Handle(context.Background(), TutorChatCommand{
		Username: "maria", Text: "hello", UserLang: "English", TargetLang: "Spanish",
	})
	require.NoError(t, err)

	assert.Equal(t, "¡Hola!", res.Reply)
	require.NotNil(t, res.Stats)
	assert.Equal(t, 10, res.Stats.PointsAwarded)

	entries, _ := history.History(context.Background(), u.ID, 10)
	require.Len(t, entries, 1)
	assert.Equal(t, progress.ActionMessage, entries[0].Kind)
	assert.Equal(t, "hello", entries[0].Message)

	assert.Contains(t, model.last.Prompt, "Spanish")
	assert.Equal(t, 600, model.last.MaxTokens)
}

func TestTutorChatUnknownUser(t *testing.T) {
	users, history, model, stats, _ := setupTutor(t)
	h := NewTutorChatHandler(users, history, model, stats, testLogger())

	_, err := h.Handle(context.Background(), TutorChatCommand{
		Username: "nobody", Text: "hello", UserLang: "English", TargetLang: "Spanish",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTutorChatModelFailure(t *testing.T) {
	users, history, model, stats, _ := setupTutor(t)
	model.err = errors.New("upstream 503")
	h := NewTutorChatHandler(users, history, model, stats, testLogger())

	_, err := h.Handle(context.Background(), TutorChatCommand{
		Username: "maria", Text: "hello", UserLang: "English", TargetLang: "Spanish",
	})
	assert.ErrorIs(t, err, shared.ErrExternalService)
	assert.Empty(t, history.entries, "nothing is saved when the model fails")
}

func TestTutorChatHistoryFailureDoesNotFailReply(t *testing.T) {
	users, history, model, stats, _ := setupTutor(t)
	history.failing = true
	h := NewTutorChatHandler(users, history, model, stats, testLogger())

	res, err := h.Handle(context.Background(), TutorChatCommand{
		Username: "maria", Text: "hello", UserLang: "English", TargetLang: "Spanish",
	})
	require.NoError(t, err)
	assert.Equal(t, "¡Hola!", res.Reply)
	require.NotNil(t, res.Stats, "stats still update when history is down")
}

func TestGrammarCheckRecordsAction(t *testing.T) {
	users, history, model, stats, u := setupTutor(t)
	model.reply = "Perfect!"
	h := NewGrammarCheckHandler(users, history, model, stats, testLogger())

	res, err := h.Handle(context.Background(), GrammarCheckCommand{
		Username: "maria", Text: "She go home", Language: "English",
	})
	require.NoError(t, err)

	assert.Equal(t, "She go home", res.Original)
	assert.Equal(t, "Perfect!", res.Analysis)
	require.NotNil(t, res.Stats)
	assert.Equal(t, 15, res.Stats.PointsAwarded)
	assert.Equal(t, 400, model.last.MaxTokens)

	entries, _ := history.History(context.Background(), u.ID, 10)
	require.Len(t, entries, 1)
	assert.Equal(t, progress.ActionGrammarCheck, entries[0].Kind)
}

func TestVocabularyRecordsWordLearned(t *testing.T) {
	users, history, model, stats, _ := setupTutor(t)
	model.reply = "serendipity: a happy accident"
	h := NewVocabularyHandler(users, history, model, stats, testLogger())

	res, err := h.Handle(context.Background(), VocabularyCommand{
		Username: "maria", Word: "serendipity", Language: "English",
	})
	require.NoError(t, err)

	assert.Equal(t, "serendipity", res.Word)
	require.NotNil(t, res.Stats)
	assert.Equal(t, 20, res.Stats.PointsAwarded)
	assert.Equal(t, 1, res.Stats.Stats.WordsLearned)
	assert.True(t, strings.Contains(model.last.Prompt, `"serendipity"`))
}

func TestTutorCommandValidation(t *testing.T) {
	users, history, model, stats, _ := setupTutor(t)

	chatHandler := NewTutorChatHandler(users, history, model, stats, testLogger())
	_, err := chatHandler.Handle(context.Background(), TutorChatCommand{Username: "maria"})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	grammarHandler := NewGrammarCheckHandler(users, history, model, stats, testLogger())
	_, err = grammarHandler.Handle(context.Background(), GrammarCheckCommand{Username: "maria", Text: "hi"})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	vocabHandler := NewVocabularyHandler(users, history, model, stats, testLogger())
	_, err = vocabHandler.Handle(context.Background(), VocabularyCommand{Word: "hi", Language: "English"})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}
