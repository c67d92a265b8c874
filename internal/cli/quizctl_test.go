package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gokatarajesh/quiz-studio/internal/auth"
	"github.com/gokatarajesh/quiz-studio/internal/auth/jwt"
	"github.com/gokatarajesh/quiz-studio/internal/client"
	"github.com/gokatarajesh/quiz-studio/internal/config"
	"github.com/gokatarajesh/quiz-studio/internal/domain"
	"github.com/gokatarajesh/quiz-studio/internal/mirror"
	"github.com/gokatarajesh/quiz-studio/internal/quiz"
	"github.com/gokatarajesh/quiz-studio/internal/quiz/quiztest"
	"github.com/gokatarajesh/quiz-studio/internal/server"
)

// remoteAPI serves the full HTTP API over a mirror store on its own miniredis.
func remoteAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := zerolog.Nop()
	store := mirror.New(rdb, mirror.WithKeyPrefix("remote"))
	authSvc := auth.NewService(store, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{Secret: []byte("cli-secret")},
		BcryptCost:  bcrypt.MinCost,
	}, logger)
	reg := prometheus.NewRegistry()
	quizSvc := quiz.NewService(store, quiz.ServiceOptions{Metrics: quiz.NewMetrics(reg)}, logger)

	ts := httptest.NewServer(server.NewHandler(&config.App{APIPrefix: "/api"}, logger, server.Deps{
		AuthService: authSvc,
		Auth:        auth.NewHTTPHandlers(authSvc, logger),
		Quiz:        quiz.NewHTTPHandlers(quizSvc, logger),
		Registerer:  reg,
		Gatherer:    reg,
	}))
	t.Cleanup(ts.Close)
	return ts
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd, err := NewRootCmd(zerolog.Nop())
	require.NoError(t, err)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQuizctl_SyncThenBrowse(t *testing.T) {
	ts := remoteAPI(t)
	ctx := context.Background()

	api := client.New(ts.URL+"/api", ts.Client())
	_, err := api.Register(ctx, "dana", "dana@example.com", "pw-dana")
	require.NoError(t, err)
	created, err := api.CreateQuiz(ctx, quiztest.CapitalsDraft())
	require.NoError(t, err)
	_, err = api.CreateQuiz(ctx, quiztest.DraftWith("Drafts", false, 1))
	require.NoError(t, err)
	_, err = api.RecordResult(ctx, created.ID, 1, 2)
	require.NoError(t, err)

	local := miniredis.RunT(t)
	base := []string{"--redis-addr", local.Addr(), "--prefix", "local"}

	out, err := run(t, append(base, "sync", "--api", ts.URL+"/api", "--username", "dana", "--password", "pw-dana")...)
	require.NoError(t, err)
	assert.Contains(t, out, "synced 2 quizzes and 1 results for dana")

	out, err = run(t, append(base, "quizzes")...)
	require.NoError(t, err)
	var public []domain.Quiz
	require.NoError(t, json.Unmarshal([]byte(out), &public))
	require.Len(t, public, 1)
	assert.Equal(t, "Capitals", public[0].Title)
	assert.Equal(t, "dana", public[0].CreatorName)

	out, err = run(t, append(base, "quizzes", "--owner", "dana")...)
	require.NoError(t, err)
	var mine []domain.Quiz
	require.NoError(t, json.Unmarshal([]byte(out), &mine))
	assert.Len(t, mine, 2)

	out, err = run(t, append(base, "results", "--user", "dana")...)
	require.NoError(t, err)
	var results []domain.ResultView
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Capitals", results[0].QuizTitle)
	assert.True(t, results[0].QuizAvailable)

	out, err = run(t, append(base, "stats", "--user", "dana")...)
	require.NoError(t, err)
	var st quiz.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, quiz.Stats{TotalQuizzes: 2, TotalQuestions: 3, QuizzesTaken: 1, AverageScore: 50}, st)
}

func TestQuizctl_SyncRejectsBadPassword(t *testing.T) {
	ts := remoteAPI(t)
	api := client.New(ts.URL+"/api", ts.Client())
	_, err := api.Register(context.Background(), "erin", "erin@example.com", "right")
	require.NoError(t, err)

	local := miniredis.RunT(t)
	_, err = run(t, "--redis-addr", local.Addr(), "sync", "--api", ts.URL+"/api", "--username", "erin", "--password", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.False(t, local.Exists("quizmirror:users"))
}

func TestQuizctl_SyncNeedsCredentials(t *testing.T) {
	t.Setenv("QUIZ_PASSWORD", "")
	_, err := run(t, "sync", "--username", "nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--password")
}

func TestQuizctl_UnknownUser(t *testing.T) {
	local := miniredis.RunT(t)
	_, err := run(t, "--redis-addr", local.Addr(), "results", "--user", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuizctl_ImportFromOpenTDB(t *testing.T) {
	ts := remoteAPI(t)
	api := client.New(ts.URL+"/api", ts.Client())
	_, err := api.Register(context.Background(), "fern", "fern@example.com", "pw-fern")
	require.NoError(t, err)

	tdb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response_code":0,"results":[
			{"question":"Largest planet?","correct_answer":"Jupiter","incorrect_answers":["Mars","Venus","Mercury"]},
			{"question":"Smallest prime?","correct_answer":"2","incorrect_answers":["1","3","5"]}
		]}`))
	}))
	defer tdb.Close()

	out, err := run(t, "import", "--api", ts.URL+"/api", "--username", "fern", "--password", "pw-fern",
		"--source-url", tdb.URL, "--amount", "2", "--title", "Space and numbers", "--public")
	require.NoError(t, err)
	assert.Contains(t, out, "with 2 questions")

	quizzes, err := api.PublicQuizzes(context.Background())
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, "Space and numbers", quizzes[0].Title)
	for _, q := range quizzes[0].Questions {
		assert.Len(t, q.Options, 4)
	}
}

func TestQuizctl_ImportUnknownSource(t *testing.T) {
	_, err := run(t, "import", "--username", "u", "--password", "p", "--title", "x", "--source", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown trivia source")
}
