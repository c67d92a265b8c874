package quiz

import (
	"context"

	"github.com/google/uuid"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

// Store is the persistence contract for quizzes and results. Both the
// Postgres repository and the Redis mirror implement it.
//
// Drafts are validated before any existence or ownership check, so an
// invalid draft yields a *domain.ValidationError even for an unknown id.
// Updates and deletes by a non-owner fail with domain.ErrNotFound, the same
// error a missing id produces. Lists are ordered newest first.
type Store interface {
	CreateQuiz(ctx context.Context, owner uuid.UUID, draft domain.Draft) (domain.Quiz, error)
	GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error)
	ListPublicQuizzes(ctx context.Context) ([]domain.Quiz, error)
	ListQuizzesByOwner(ctx context.Context, owner uuid.UUID) ([]domain.Quiz, error)
	UpdateQuiz(ctx context.Context, id, actor uuid.UUID, draft domain.Draft) (domain.Quiz, error)
	DeleteQuiz(ctx context.Context, id, actor uuid.UUID) error

	RecordResult(ctx context.Context, quizID, user uuid.UUID, score, total int) (domain.Result, error)
	ListResultsByUser(ctx context.Context, user uuid.UUID) ([]domain.ResultView, error)
}
