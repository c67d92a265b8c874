// Package quiztest holds the behavioural contract every quiz.Store and
// auth.UserStore implementation must satisfy.
package quiztest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-studio/internal/auth"
	"github.com/gokatarajesh/quiz-studio/internal/domain"
	"github.com/gokatarajesh/quiz-studio/internal/quiz"
)

// Harness is a freshly emptied pair of stores sharing one backend.
type Harness struct {
	Quizzes quiz.Store
	Users   auth.UserStore
}

// Factory builds an empty Harness whose stores stamp records with clock.
type Factory func(t *testing.T, clock domain.Clock) Harness

// StepClock starts at start and advances by step on every call.
func StepClock(start time.Time, step time.Duration) domain.Clock {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(step)
		return now
	}
}

// CapitalsDraft is a public two-question quiz with answers 2 and 0.
func CapitalsDraft() domain.Draft {
	return domain.Draft{
		Title:       "Capitals",
		Description: "European and Asian capitals",
		IsPublic:    true,
		Questions: []domain.QuestionDraft{
			{Text: "Capital of France?", Options: []string{"Berlin", "Madrid", "Paris", "Rome"}, CorrectAnswer: 2},
			{Text: "Capital of Japan?", Options: []string{"Tokyo", "Osaka", "Kyoto", "Nagoya"}, CorrectAnswer: 0},
		},
	}
}

// DraftWith builds a draft with n generic questions.
func DraftWith(title string, public bool, n int) domain.Draft {
	d := domain.Draft{Title: title, IsPublic: public}
	for i := 0; i < n; i++ {
		d.Questions = append(d.Questions, domain.QuestionDraft{
			Text:          title + " question " + string(rune('A'+i)),
			Options:       []string{"one", "two", "three"},
			CorrectAnswer: i % 3,
		})
	}
	return d
}

// NewUser registers a user directly in the store and returns it.
func NewUser(t *testing.T, h Harness, username string) domain.User {
	t.Helper()
	u, err := h.Users.CreateUser(context.Background(), domain.User{
		ID:           domain.NewID(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhashnotarealhash",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	})
	require.NoError(t, err)
	return u
}

var epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// RunStoreSuite runs the whole contract against stores built by newHarness.
func RunStoreSuite(t *testing.T, newHarness Factory) {
	cases := []struct {
		name string
		run  func(t *testing.T, h Harness)
	}{
		{"CapitalsRoundTrip", testCapitalsRoundTrip},
		{"CreateRejectsInvalidDraft", testCreateRejectsInvalidDraft},
		{"CreateForUnknownOwner", testCreateUnknownOwner},
		{"PublicListingNewestFirst", testPublicListingNewestFirst},
		{"OwnerListing", testOwnerListing},
		{"UpdateReplacesQuestionsWholesale", testUpdateReplacesWholesale},
		{"UpdateByNonOwnerLooksMissing", testUpdateByNonOwner},
		{"UpdateValidatesBeforeLookup", testUpdateValidatesFirst},
		{"DeleteCascades", testDeleteCascades},
		{"DeleteByNonOwnerLooksMissing", testDeleteByNonOwner},
		{"RecordResultRejectsBadScores", testRecordResultRejectsBadScores},
		{"RecordResultUnknownQuiz", testRecordResultUnknownQuiz},
		{"RecordResultUnknownUser", testRecordResultUnknownUser},
		{"ResultsNewestFirstWithTitles", testResultsNewestFirst},
		{"ResultTotalIsNotCheckedAgainstQuiz", testResultTotalUnchecked},
		{"DuplicateRegistration", testDuplicateRegistration},
		{"UserLookups", testUserLookups},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.run(t, newHarness(t, StepClock(epoch, time.Second)))
		})
	}
}

func assertSameQuestions(t *testing.T, want []domain.QuestionDraft, got []domain.Question) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Text, got[i].Text, "question %d text", i)
		assert.Equal(t, want[i].Options, got[i].Options, "question %d options", i)
		assert.Equal(t, want[i].CorrectAnswer, got[i].CorrectAnswer, "question %d answer", i)
		assert.NotEqual(t, uuid.Nil, got[i].ID)
	}
}

func ids(quizzes []domain.Quiz) []uuid.UUID {
	out := make([]uuid.UUID, len(quizzes))
	for i, q := range quizzes {
		out[i] = q.ID
	}
	return out
}

func testCapitalsRoundTrip(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")
	draft := CapitalsDraft()

	created, err := h.Quizzes.CreateQuiz(ctx, alice.ID, draft)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, alice.ID, created.CreatedBy)
	assert.True(t, created.CreatedAt.Equal(epoch), "createdAt %v", created.CreatedAt)
	assertSameQuestions(t, draft.Questions, created.Questions)

	public, err := h.Quizzes.ListPublicQuizzes(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids(public), created.ID)

	got, err := h.Quizzes.GetQuiz(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Capitals", got.Title)
	assert.Equal(t, draft.Description, got.Description)
	assert.Equal(t, "alice", got.CreatorName)
	assert.True(t, got.IsPublic)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))
	assertSameQuestions(t, draft.Questions, got.Questions)
	for i := range got.Questions {
		assert.Equal(t, created.Questions[i].ID, got.Questions[i].ID)
	}

	_, err = h.Quizzes.GetQuiz(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testCreateRejectsInvalidDraft(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")

	noTitle := CapitalsDraft()
	noTitle.Title = ""
	_, err := h.Quizzes.CreateQuiz(ctx, alice.ID, noTitle)
	assert.True(t, domain.IsValidation(err), "got %v", err)

	noQuestions := CapitalsDraft()
	noQuestions.Questions = nil
	_, err = h.Quizzes.CreateQuiz(ctx, alice.ID, noQuestions)
	assert.True(t, domain.IsValidation(err), "got %v", err)

	badAnswer := CapitalsDraft()
	badAnswer.Questions[1].CorrectAnswer = 4
	_, err = h.Quizzes.CreateQuiz(ctx, alice.ID, badAnswer)
	assert.True(t, domain.IsValidation(err), "got %v", err)

	owned, err := h.Quizzes.ListQuizzesByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func testCreateUnknownOwner(t *testing.T, h Harness) {
	ctx := context.Background()
	ghost := uuid.New()

	_, err := h.Quizzes.CreateQuiz(ctx, ghost, CapitalsDraft())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	public, err := h.Quizzes.ListPublicQuizzes(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)
	owned, err := h.Quizzes.ListQuizzesByOwner(ctx, ghost)
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func testPublicListingNewestFirst(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")
	bob := NewUser(t, h, "bob")

	first, err := h.Quizzes.CreateQuiz(ctx, alice.ID, DraftWith("first", true, 1))
	require.NoError(t, err)
	hidden, err := h.Quizzes.CreateQuiz(ctx, alice.ID, DraftWith("hidden", false, 1))
	require.NoError(t, err)
	second, err := h.Quizzes.CreateQuiz(ctx, bob.ID, DraftWith("second", true, 2))
	require.NoError(t, err)

	public, err := h.Quizzes.ListPublicQuizzes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.ID, first.ID}, ids(public))
	assert.NotContains(t, ids(public), hidden.ID)
	assert.Len(t, public[0].Questions, 2)
	assert.Equal(t, "bob", public[0].CreatorName)

	// private quizzes stay readable by id
	got, err := h.Quizzes.GetQuiz(ctx, hidden.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublic)
}

func testOwnerListing(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")
	bob := NewUser(t, h, "bob")

	a1, err := h.Quizzes.CreateQuiz(ctx, alice.ID, DraftWith("a1", true, 1))
	require.NoError(t, err)
	_, err = h.Quizzes.CreateQuiz(ctx, bob.ID, DraftWith("b1", true, 1))
	require.NoError(t, err)
	a2, err := h.Quizzes.CreateQuiz(ctx, alice.ID, DraftWith("a2", false, 3))
	require.NoError(t, err)

	owned, err := h.Quizzes.ListQuizzesByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a2.ID, a1.ID}, ids(owned))
	assert.Len(t, owned[0].Questions, 3)

	none, err := h.Quizzes.ListQuizzesByOwner(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testUpdateReplacesWholesale(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")

	created, err := h.Quizzes.CreateQuiz(ctx, alice.ID, DraftWith("three", true, 3))
	require.NoError(t, err)
	require.Len(t, created.Questions, 3)

	replacement := domain.Draft{
		Title:       "one",
		Description: "trimmed down",
		IsPublic:    false,
		Questions: []domain.QuestionDraft{
			{Text: "Only question", Options: []string{"yes", "no"}, CorrectAnswer: 1},
		},
	}
	updated, err := h.Quizzes.UpdateQuiz(ctx, created.ID, alice.ID, replacement)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, alice.ID, updated.CreatedBy)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	got, err := h.Quizzes.GetQuiz(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "one", got.Title)
	assert.Equal(t, "trimmed down", got.Description)
	assert.False(t, got.IsPublic)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))
	assertSameQuestions(t, replacement.Questions, got.Questions)
	for _, old := range created.Questions {
		assert.NotEqual(t, old.ID, got.Questions[0].ID)
	}

	public, err := h.Quizzes.ListPublicQuizzes(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(public), created.ID)
}

func testUpdateByNonOwner(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")
	mallory := NewUser(t, h, "mallory")

	created, err := h.Quizzes.CreateQuiz(ctx, alice.ID, CapitalsDraft())
	require.NoError(t, err)

	_, errNotOwner := h.Quizzes.UpdateQuiz(ctx, created.ID, mallory.ID, DraftWith("hijack", true, 1))
	_, errMissing := h.Quizzes.UpdateQuiz(ctx, uuid.New(), mallory.ID, DraftWith("hijack", true, 1))
	assert.ErrorIs(t, errNotOwner, domain.ErrNotFound)
	assert.ErrorIs(t, errMissing, domain.ErrNotFound)
	assert.Equal(t, errMissing.Error(), errNotOwner.Error())

	got, err := h.Quizzes.GetQuiz(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Capitals", got.Title)
	assertSameQuestions(t, CapitalsDraft().Questions, got.Questions)
}

func testUpdateValidatesFirst(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")

	created, err := h.Quizzes.CreateQuiz(ctx, alice.ID, CapitalsDraft())
	require.NoError(t, err)

	empty := CapitalsDraft()
	empty.Questions = []domain.QuestionDraft{}
	_, err = h.Quizzes.UpdateQuiz(ctx, created.ID, alice.ID, empty)
	assert.True(t, domain.IsValidation(err), "got %v", err)

	_, err = h.Quizzes.UpdateQuiz(ctx, uuid.New(), alice.ID, empty)
	assert.True(t, domain.IsValidation(err), "got %v", err)

	got, err := h.Quizzes.GetQuiz(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Questions, 2)
}

func testDeleteCascades(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")
	bob := NewUser(t, h, "bob")

	doomed, err := h.Quizzes.CreateQuiz(ctx, alice.ID, CapitalsDraft())
	require.NoError(t, err)
	kept, err := h.Quizzes.CreateQuiz(ctx, alice.ID, DraftWith("kept", true, 1))
	require.NoError(t, err)

	_, err = h.Quizzes.RecordResult(ctx, doomed.ID, bob.ID, 1, 2)
	require.NoError(t, err)
	keptResult, err := h.Quizzes.RecordResult(ctx, kept.ID, bob.ID, 1, 1)
	require.NoError(t, err)

	require.NoError(t, h.Quizzes.DeleteQuiz(ctx, doomed.ID, alice.ID))

	_, err = h.Quizzes.GetQuiz(ctx, doomed.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	results, err := h.Quizzes.ListResultsByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, keptResult.ID, results[0].ID)

	public, err := h.Quizzes.ListPublicQuizzes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{kept.ID}, ids(public))

	assert.ErrorIs(t, h.Quizzes.DeleteQuiz(ctx, doomed.ID, alice.ID), domain.ErrNotFound)
}

func testDeleteByNonOwner(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")
	mallory := NewUser(t, h, "mallory")

	created, err := h.Quizzes.CreateQuiz(ctx, alice.ID, CapitalsDraft())
	require.NoError(t, err)

	errNotOwner := h.Quizzes.DeleteQuiz(ctx, created.ID, mallory.ID)
	errMissing := h.Quizzes.DeleteQuiz(ctx, uuid.New(), mallory.ID)
	assert.ErrorIs(t, errNotOwner, domain.ErrNotFound)
	assert.ErrorIs(t, errMissing, domain.ErrNotFound)
	assert.Equal(t, errMissing.Error(), errNotOwner.Error())

	_, err = h.Quizzes.GetQuiz(ctx, created.ID)
	assert.NoError(t, err)
}

func testRecordResultRejectsBadScores(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")

	created, err := h.Quizzes.CreateQuiz(ctx, alice.ID, CapitalsDraft())
	require.NoError(t, err)

	for _, tc := range []struct{ score, total int }{{6, 5}, {-1, 5}, {0, 0}, {3, -1}} {
		_, err := h.Quizzes.RecordResult(ctx, created.ID, alice.ID, tc.score, tc.total)
		assert.True(t, domain.IsValidation(err), "score=%d total=%d: %v", tc.score, tc.total, err)
	}

	// validation wins over a missing quiz
	_, err = h.Quizzes.RecordResult(ctx, uuid.New(), alice.ID, 6, 5)
	assert.True(t, domain.IsValidation(err), "got %v", err)

	results, err := h.Quizzes.ListResultsByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func testRecordResultUnknownQuiz(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")

	_, err := h.Quizzes.RecordResult(ctx, uuid.New(), alice.ID, 1, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	results, err := h.Quizzes.ListResultsByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func testRecordResultUnknownUser(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")
	q, err := h.Quizzes.CreateQuiz(ctx, alice.ID, CapitalsDraft())
	require.NoError(t, err)

	ghost := uuid.New()
	_, err = h.Quizzes.RecordResult(ctx, q.ID, ghost, 1, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	results, err := h.Quizzes.ListResultsByUser(ctx, ghost)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func testResultsNewestFirst(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")
	bob := NewUser(t, h, "bob")

	capitals, err := h.Quizzes.CreateQuiz(ctx, alice.ID, CapitalsDraft())
	require.NoError(t, err)
	other, err := h.Quizzes.CreateQuiz(ctx, alice.ID, DraftWith("other", true, 4))
	require.NoError(t, err)

	r1, err := h.Quizzes.RecordResult(ctx, capitals.ID, bob.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, capitals.ID, r1.QuizID)
	assert.Equal(t, bob.ID, r1.UserID)
	assert.Equal(t, 2, r1.Score)
	assert.Equal(t, 2, r1.TotalQuestions)
	assert.False(t, r1.DateTaken.IsZero())

	r2, err := h.Quizzes.RecordResult(ctx, other.ID, bob.ID, 1, 4)
	require.NoError(t, err)
	_, err = h.Quizzes.RecordResult(ctx, other.ID, alice.ID, 4, 4)
	require.NoError(t, err)

	_, err = h.Quizzes.UpdateQuiz(ctx, capitals.ID, alice.ID, DraftWith("Capitals v2", true, 2))
	require.NoError(t, err)

	results, err := h.Quizzes.ListResultsByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, r2.ID, results[0].ID)
	assert.Equal(t, "other", results[0].QuizTitle)
	assert.Equal(t, r1.ID, results[1].ID)
	assert.Equal(t, "Capitals v2", results[1].QuizTitle)
	for _, r := range results {
		assert.True(t, r.QuizAvailable)
		assert.Equal(t, bob.ID, r.UserID)
	}
}

func testResultTotalUnchecked(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")

	created, err := h.Quizzes.CreateQuiz(ctx, alice.ID, CapitalsDraft())
	require.NoError(t, err)

	r, err := h.Quizzes.RecordResult(ctx, created.ID, alice.ID, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, r.TotalQuestions)
}

func testDuplicateRegistration(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")

	_, err := h.Users.CreateUser(ctx, domain.User{
		ID: domain.NewID(), Username: "alice", Email: "other@example.com", PasswordHash: "x", CreatedAt: epoch,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = h.Users.CreateUser(ctx, domain.User{
		ID: domain.NewID(), Username: "alice2", Email: alice.Email, PasswordHash: "x", CreatedAt: epoch,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := h.Users.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, alice.Email, got.Email)
}

func testUserLookups(t *testing.T, h Harness) {
	ctx := context.Background()
	alice := NewUser(t, h, "alice")

	got, err := h.Users.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, alice.PasswordHash, got.PasswordHash)

	_, err = h.Users.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.Users.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
