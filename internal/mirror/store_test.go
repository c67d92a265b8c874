package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
	"github.com/gokatarajesh/quiz-studio/internal/quiz/quiztest"
)

func newTestStore(t *testing.T, clock domain.Clock) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, WithKeyPrefix("test"), WithClock(clock)), mr
}

func TestStoreContract(t *testing.T) {
	quiztest.RunStoreSuite(t, func(t *testing.T, clock domain.Clock) quiztest.Harness {
		store, _ := newTestStore(t, clock)
		return quiztest.Harness{Quizzes: store, Users: store}
	})
}

func TestStore_KeysAreNamespaced(t *testing.T) {
	store, mr := newTestStore(t, domain.SystemClock)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, domain.User{ID: domain.NewID(), Username: "alice", Email: "a@x.io", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = store.CreateQuiz(ctx, user.ID, quiztest.CapitalsDraft())
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:users"))
	assert.True(t, mr.Exists("test:usernames"))
	assert.True(t, mr.Exists("test:quizzes"))
	assert.False(t, mr.Exists("quizmirror:quizzes"))
}

func TestStore_ResultForUnmirroredQuiz(t *testing.T) {
	store, _ := newTestStore(t, domain.SystemClock)
	ctx := context.Background()
	user := domain.NewID()

	r := domain.Result{
		ID:             domain.NewID(),
		QuizID:         domain.NewID(),
		UserID:         user,
		Score:          3,
		TotalQuestions: 4,
		DateTaken:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.ImportResult(ctx, r))

	views, err := store.ListResultsByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].QuizAvailable)
	assert.Empty(t, views[0].QuizTitle)
	assert.Equal(t, 3, views[0].Score)
}

func TestStore_CorruptQuizSurfacesError(t *testing.T) {
	store, mr := newTestStore(t, domain.SystemClock)
	id := domain.NewID()
	mr.HSet("test:quizzes", id.String(), "{not json")

	_, err := store.GetQuiz(context.Background(), id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
