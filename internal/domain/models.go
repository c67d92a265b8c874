package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. The password hash never leaves the store layer.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Question is a single multiple-choice item. CorrectAnswer indexes Options.
type Question struct {
	ID            uuid.UUID `json:"id"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectAnswer int       `json:"correctAnswer"`
}

// Quiz is an owned, ordered collection of questions.
type Quiz struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedBy   uuid.UUID  `json:"createdBy"`
	CreatorName string     `json:"creatorName,omitempty"`
	IsPublic    bool       `json:"isPublic"`
	CreatedAt   time.Time  `json:"createdAt"`
	Questions   []Question `json:"questions"`
}

// Result is one recorded attempt of a quiz by a user.
type Result struct {
	ID             uuid.UUID `json:"id"`
	QuizID         uuid.UUID `json:"quizId"`
	UserID         uuid.UUID `json:"userId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	DateTaken      time.Time `json:"dateTaken"`
}

// ResultView is a Result annotated with its quiz title. QuizAvailable is
// false once the quiz has been deleted and QuizTitle is then empty.
type ResultView struct {
	Result
	QuizTitle     string `json:"quizTitle,omitempty"`
	QuizAvailable bool   `json:"quizAvailable"`
}

// QuestionDraft is the client-supplied shape of a question.
type QuestionDraft struct {
	Text          string   `json:"text" validate:"notblank"`
	Options       []string `json:"options" validate:"required,min=2,dive,notblank"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// Draft is the client-supplied shape of a quiz for create and update.
type Draft struct {
	Title       string          `json:"title" validate:"notblank"`
	Description string          `json:"description"`
	IsPublic    bool            `json:"isPublic"`
	Questions   []QuestionDraft `json:"questions" validate:"required,min=1,dive"`
}

// BuildQuiz materializes a validated draft into a quiz, assigning fresh
// question ids in draft order.
func BuildQuiz(id, owner uuid.UUID, d Draft, createdAt time.Time) Quiz {
	return Quiz{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		CreatedBy:   owner,
		IsPublic:    d.IsPublic,
		CreatedAt:   createdAt,
		Questions:   BuildQuestions(d.Questions),
	}
}

// BuildQuestions assigns new ids to drafted questions, preserving order.
func BuildQuestions(drafts []QuestionDraft) []Question {
	out := make([]Question, len(drafts))
	for i, qd := range drafts {
		opts := make([]string, len(qd.Options))
		copy(opts, qd.Options)
		out[i] = Question{
			ID:            NewID(),
			Text:          qd.Text,
			Options:       opts,
			CorrectAnswer: qd.CorrectAnswer,
		}
	}
	return out
}

// NewID returns a random identifier for users, quizzes, questions and results.
func NewID() uuid.UUID {
	return uuid.New()
}
