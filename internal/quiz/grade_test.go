package quiz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

func TestGrade(t *testing.T) {
	q := sampleQuiz(uuid.New())

	tests := []struct {
		name    string
		answers []int
		want    int
	}{
		{"all correct", []int{1, 0}, 2},
		{"one correct", []int{1, 1}, 1},
		{"none correct", []int{0, 1}, 0},
		{"skipped questions score nothing", []int{Unanswered, 0}, 1},
		{"out of range option", []int{7, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Grade(q, tt.answers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrade_AnswerCountMismatch(t *testing.T) {
	_, err := Grade(sampleQuiz(uuid.New()), []int{1, 0, 2})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "expected 2 answers, got 3")
}

func TestComputeStats(t *testing.T) {
	t.Run("no activity", func(t *testing.T) {
		assert.Equal(t, Stats{}, ComputeStats(nil, nil))
	})

	t.Run("rounds average percentage", func(t *testing.T) {
		owned := []domain.Quiz{sampleQuiz(uuid.New()), {Questions: make([]domain.Question, 3)}}
		results := []domain.ResultView{
			{Result: domain.Result{Score: 1, TotalQuestions: 3}},
			{Result: domain.Result{Score: 3, TotalQuestions: 3}},
			{Result: domain.Result{Score: 0, TotalQuestions: 3}},
		}
		st := ComputeStats(owned, results)
		assert.Equal(t, 2, st.TotalQuizzes)
		assert.Equal(t, 5, st.TotalQuestions)
		assert.Equal(t, 3, st.QuizzesTaken)
		assert.Equal(t, 44.44, st.AverageScore)
	})

	t.Run("results from deleted quizzes still count", func(t *testing.T) {
		results := []domain.ResultView{{Result: domain.Result{Score: 2, TotalQuestions: 2}, QuizAvailable: false}}
		assert.Equal(t, 100.0, ComputeStats(nil, results).AverageScore)
	})
}
