package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

func newTestBoard(t *testing.T, topN int) (*Board, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewBoard(rdb, Options{TopN: topN, KeyPrefix: "t"}, zerolog.Nop()), mr
}

func result(quizID, user uuid.UUID, score, total int) domain.Result {
	return domain.Result{ID: uuid.New(), QuizID: quizID, UserID: user, Score: score, TotalQuestions: total}
}

func TestBoard_KeepsBestScore(t *testing.T) {
	b, _ := newTestBoard(t, 10)
	ctx := context.Background()
	quizID := uuid.New()
	ann, bob := uuid.New(), uuid.New()

	require.NoError(t, b.Record(ctx, result(quizID, ann, 2, 3)))
	require.NoError(t, b.Record(ctx, result(quizID, ann, 1, 3)))
	require.NoError(t, b.Record(ctx, result(quizID, bob, 3, 3)))

	top, err := b.Top(ctx, quizID, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)

	assert.Equal(t, Entry{Rank: 1, UserID: bob, BestPercent: 100, Attempts: 1}, top[0])
	assert.Equal(t, Entry{Rank: 2, UserID: ann, BestPercent: 66.67, Attempts: 2}, top[1])
}

func TestBoard_TopClampsLimit(t *testing.T) {
	b, _ := newTestBoard(t, 2)
	ctx := context.Background()
	quizID := uuid.New()
	for i := 0; i < 4; i++ {
		require.NoError(t, b.Record(ctx, result(quizID, uuid.New(), i, 4)))
	}

	top, err := b.Top(ctx, quizID, 0)
	require.NoError(t, err)
	assert.Len(t, top, 2)
	assert.Equal(t, 75.0, top[0].BestPercent)
}

func TestBoard_EmptyAndRemove(t *testing.T) {
	b, mr := newTestBoard(t, 10)
	ctx := context.Background()
	quizID := uuid.New()

	top, err := b.Top(ctx, quizID, 5)
	require.NoError(t, err)
	assert.Empty(t, top)
	assert.NotNil(t, top)

	require.NoError(t, b.Record(ctx, result(quizID, uuid.New(), 1, 1)))
	require.True(t, mr.Exists("t:lb:quiz:"+quizID.String()))

	require.NoError(t, b.Remove(ctx, quizID))
	assert.False(t, mr.Exists("t:lb:quiz:"+quizID.String()))
	assert.False(t, mr.Exists("t:lb:quiz:"+quizID.String()+":attempts"))
}

func TestBoard_IgnoresEmptyQuizzes(t *testing.T) {
	b, mr := newTestBoard(t, 10)
	quizID := uuid.New()
	require.NoError(t, b.Record(context.Background(), result(quizID, uuid.New(), 0, 0)))
	assert.False(t, mr.Exists("t:lb:quiz:"+quizID.String()))
}

type stubQuizzes map[uuid.UUID]domain.Quiz

func (s stubQuizzes) GetQuiz(_ context.Context, id uuid.UUID) (domain.Quiz, error) {
	q, ok := s[id]
	if !ok {
		return domain.Quiz{}, domain.ErrNotFound
	}
	return q, nil
}

func TestHTTPHandler_HandleGet(t *testing.T) {
	b, _ := newTestBoard(t, 10)
	quizID := uuid.New()
	user := uuid.New()
	require.NoError(t, b.Record(context.Background(), result(quizID, user, 1, 2)))

	h := NewHTTPHandler(b, stubQuizzes{quizID: {ID: quizID}}, zerolog.Nop())
	h.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /quizzes/{id}/leaderboard", h.HandleGet)

	t.Run("known quiz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quizzes/"+quizID.String()+"/leaderboard?limit=5", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			QuizID      uuid.UUID `json:"quizId"`
			Top         []Entry   `json:"top"`
			RetrievedAt string    `json:"retrievedAt"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, quizID, body.QuizID)
		assert.Equal(t, "2024-05-01T09:00:00Z", body.RetrievedAt)
		require.Len(t, body.Top, 1)
		assert.Equal(t, user, body.Top[0].UserID)
		assert.Equal(t, 50.0, body.Top[0].BestPercent)
	})

	t.Run("unknown quiz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quizzes/"+uuid.NewString()+"/leaderboard", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quizzes/nope/leaderboard", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
