package quiz

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

// Service fronts a Store with metrics, logging and the optional public
// listing cache. Domain errors from the store pass through unchanged.
type Service struct {
	store   Store
	cache   *PublicListCache
	board   Scoreboard
	sf      singleflight.Group
	metrics *Metrics
	logger  zerolog.Logger
}

// Scoreboard ranks recorded results. Failures are logged and never fail
// the write that triggered them.
type Scoreboard interface {
	Record(ctx context.Context, r domain.Result) error
	Remove(ctx context.Context, quizID uuid.UUID) error
}

// ServiceOptions configures optional collaborators.
type ServiceOptions struct {
	Cache      *PublicListCache
	Scoreboard Scoreboard
	Metrics    *Metrics
}

// NewService wires a quiz service around store.
func NewService(store Store, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		cache:   opts.Cache,
		board:   opts.Scoreboard,
		metrics: opts.Metrics,
		logger:  logger.With().Str("component", "quiz").Logger(),
	}
}

func (s *Service) CreateQuiz(ctx context.Context, owner uuid.UUID, draft domain.Draft) (domain.Quiz, error) {
	q, err := s.store.CreateQuiz(ctx, owner, draft)
	s.metrics.observe("create_quiz", err)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info().
		Str("quiz_id", q.ID.String()).
		Str("owner_id", owner.String()).
		Int("questions", len(q.Questions)).
		Bool("public", q.IsPublic).
		Msg("quiz created")
	return q, nil
}

func (s *Service) GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error) {
	q, err := s.store.GetQuiz(ctx, id)
	s.metrics.observe("get_quiz", err)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return q, nil
}

// ListPublicQuizzes serves the public listing, from cache when one is
// configured. Concurrent misses collapse into one store read.
func (s *Service) ListPublicQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	if s.cache == nil {
		return s.listPublic(ctx)
	}

	if quizzes, ok, err := s.cache.Get(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("public list cache read failed")
	} else if ok {
		s.metrics.cacheLookup("hit")
		return quizzes, nil
	}
	s.metrics.cacheLookup("miss")

	// the fill is shared, so one caller going away must not fail the others
	fillCtx := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do("public", func() (interface{}, error) {
		quizzes, err := s.listPublic(fillCtx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(fillCtx, quizzes); err != nil {
			s.logger.Warn().Err(err).Msg("public list cache fill failed")
		}
		return quizzes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Quiz), nil
}

func (s *Service) listPublic(ctx context.Context) ([]domain.Quiz, error) {
	quizzes, err := s.store.ListPublicQuizzes(ctx)
	s.metrics.observe("list_public", err)
	if err != nil {
		return nil, fmt.Errorf("list public quizzes: %w", err)
	}
	return quizzes, nil
}

func (s *Service) ListQuizzesByOwner(ctx context.Context, owner uuid.UUID) ([]domain.Quiz, error) {
	quizzes, err := s.store.ListQuizzesByOwner(ctx, owner)
	s.metrics.observe("list_by_owner", err)
	if err != nil {
		return nil, fmt.Errorf("list quizzes by owner: %w", err)
	}
	return quizzes, nil
}

func (s *Service) UpdateQuiz(ctx context.Context, id, actor uuid.UUID, draft domain.Draft) (domain.Quiz, error) {
	q, err := s.store.UpdateQuiz(ctx, id, actor, draft)
	s.metrics.observe("update_quiz", err)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info().Str("quiz_id", id.String()).Int("questions", len(q.Questions)).Msg("quiz updated")
	return q, nil
}

func (s *Service) DeleteQuiz(ctx context.Context, id, actor uuid.UUID) error {
	err := s.store.DeleteQuiz(ctx, id, actor)
	s.metrics.observe("delete_quiz", err)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	s.invalidate(ctx)
	if s.board != nil {
		if err := s.board.Remove(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("quiz_id", id.String()).Msg("leaderboard cleanup failed")
		}
	}
	s.logger.Info().Str("quiz_id", id.String()).Msg("quiz deleted")
	return nil
}

func (s *Service) RecordResult(ctx context.Context, quizID, user uuid.UUID, score, total int) (domain.Result, error) {
	r, err := s.store.RecordResult(ctx, quizID, user, score, total)
	s.metrics.observe("record_result", err)
	if err != nil {
		return domain.Result{}, fmt.Errorf("record result: %w", err)
	}
	s.metrics.resultRecorded()
	if s.board != nil {
		if err := s.board.Record(ctx, r); err != nil {
			s.logger.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("leaderboard update failed")
		}
	}
	s.logger.Debug().
		Str("quiz_id", quizID.String()).
		Str("user_id", user.String()).
		Int("score", score).
		Int("total", total).
		Msg("result recorded")
	return r, nil
}

// SubmitAttempt grades answers against the quiz's current questions and
// records the outcome.
func (s *Service) SubmitAttempt(ctx context.Context, quizID, user uuid.UUID, answers []int) (domain.Result, error) {
	q, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Result{}, err
	}
	score, err := Grade(q, answers)
	if err != nil {
		return domain.Result{}, fmt.Errorf("grade attempt: %w", err)
	}
	return s.RecordResult(ctx, quizID, user, score, len(q.Questions))
}

func (s *Service) ListResultsByUser(ctx context.Context, user uuid.UUID) ([]domain.ResultView, error) {
	results, err := s.store.ListResultsByUser(ctx, user)
	s.metrics.observe("list_results", err)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// Stats computes the dashboard summary for user.
func (s *Service) Stats(ctx context.Context, user uuid.UUID) (Stats, error) {
	owned, err := s.ListQuizzesByOwner(ctx, user)
	if err != nil {
		return Stats{}, err
	}
	results, err := s.ListResultsByUser(ctx, user)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(owned, results), nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("public list cache invalidation failed")
	}
}
