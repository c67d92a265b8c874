package quiz

import (
	"math"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

// Stats summarizes a user's authored quizzes and attempts.
type Stats struct {
	TotalQuizzes   int     `json:"totalQuizzes"`
	TotalQuestions int     `json:"totalQuestions"`
	QuizzesTaken   int     `json:"quizzesTaken"`
	AverageScore   float64 `json:"averageScore"`
}

// ComputeStats derives dashboard figures. AverageScore is the mean
// percentage across attempts, rounded to two decimals; 0 with no attempts.
func ComputeStats(owned []domain.Quiz, results []domain.ResultView) Stats {
	st := Stats{TotalQuizzes: len(owned), QuizzesTaken: len(results)}
	for _, q := range owned {
		st.TotalQuestions += len(q.Questions)
	}
	if len(results) == 0 {
		return st
	}
	var sum float64
	for _, r := range results {
		if r.TotalQuestions > 0 {
			sum += float64(r.Score) / float64(r.TotalQuestions) * 100
		}
	}
	st.AverageScore = math.Round(sum/float64(len(results))*100) / 100
	return st
}
