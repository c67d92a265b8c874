package quiz

import (
	"fmt"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

// Unanswered marks a skipped question in an answer sheet. It never matches.
const Unanswered = -1

// Grade awards one point for every answer equal to its question's correct
// option. answers must hold one entry per question, in question order.
func Grade(q domain.Quiz, answers []int) (int, error) {
	if len(answers) != len(q.Questions) {
		return 0, domain.NewValidationError("answers",
			fmt.Sprintf("expected %d answers, got %d", len(q.Questions), len(answers)))
	}
	score := 0
	for i, question := range q.Questions {
		if answers[i] == question.CorrectAnswer {
			score++
		}
	}
	return score, nil
}
