package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

// Source is the remote side of a sync, typically the REST API client.
type Source interface {
	Profile(ctx context.Context) (domain.User, error)
	PublicQuizzes(ctx context.Context) ([]domain.Quiz, error)
	MyQuizzes(ctx context.Context) ([]domain.Quiz, error)
	MyResults(ctx context.Context) ([]domain.ResultView, error)
}

// ImportUser merges a remote profile. A locally stored password hash is
// kept since remote profiles never carry one. A username or email held by
// a different local account yields ErrConflict.
func (s *Store) ImportUser(ctx context.Context, user domain.User) error {
	users := s.key("users")
	return s.watch(ctx, func(tx *redis.Tx) error {
		prev, err := tx.HGet(ctx, users, user.ID.String()).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("mirror: load user: %w", err)
		}
		var old userRecord
		if err == nil {
			if err := json.Unmarshal(prev, &old); err != nil {
				return fmt.Errorf("mirror: decode user %s: %w", user.ID, err)
			}
			if user.PasswordHash == "" {
				user.PasswordHash = old.PasswordHash
			}
		}
		if err := s.checkIndex(ctx, tx, "usernames", user.Username, user.ID); err != nil {
			return err
		}
		if err := s.checkIndex(ctx, tx, "emails", user.Email, user.ID); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if old.Username != "" && old.Username != user.Username {
				pipe.HDel(ctx, s.key("usernames"), old.Username)
			}
			if old.Email != "" && old.Email != user.Email {
				pipe.HDel(ctx, s.key("emails"), old.Email)
			}
			return s.putUser(ctx, pipe, user)
		})
		return err
	}, users, s.key("usernames"), s.key("emails"))
}

// checkIndex fails with ErrConflict when value is already claimed by
// another account in the named index.
func (s *Store) checkIndex(ctx context.Context, tx *redis.Tx, index, value string, id uuid.UUID) error {
	if value == "" {
		return nil
	}
	owner, err := tx.HGet(ctx, s.key(index), value).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("mirror: check %s: %w", index, err)
	case owner != id.String():
		return domain.ErrConflict
	}
	return nil
}

// ImportQuiz overwrites the local copy of a quiz with the remote one.
func (s *Store) ImportQuiz(ctx context.Context, q domain.Quiz) error {
	if q.ID == uuid.Nil {
		return domain.NewValidationError("id", "is required")
	}
	return s.putQuiz(ctx, s.client, q)
}

// ImportResult overwrites the local copy of a result with the remote one.
func (s *Store) ImportResult(ctx context.Context, r domain.Result) error {
	if r.ID == uuid.Nil {
		return domain.NewValidationError("id", "is required")
	}
	return s.putResult(ctx, s.client, r)
}

// SyncReport summarizes one pull.
type SyncReport struct {
	UserID   uuid.UUID
	Quizzes  int
	Results  int
	Duration time.Duration
}

// Syncer pulls remote state into the mirror.
type Syncer struct {
	store  *Store
	source Source
	logger zerolog.Logger
}

func NewSyncer(store *Store, source Source, logger zerolog.Logger) *Syncer {
	return &Syncer{
		store:  store,
		source: source,
		logger: logger.With().Str("component", "mirror_sync").Logger(),
	}
}

// Pull copies the caller's profile, every visible quiz and the caller's
// results into the mirror. Remote records replace local ones with the same id.
func (s *Syncer) Pull(ctx context.Context) (SyncReport, error) {
	start := time.Now()

	me, err := s.source.Profile(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("pull profile: %w", err)
	}
	if err := s.store.ImportUser(ctx, me); err != nil {
		return SyncReport{}, fmt.Errorf("import profile: %w", err)
	}

	mine, err := s.source.MyQuizzes(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("pull own quizzes: %w", err)
	}
	public, err := s.source.PublicQuizzes(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("pull public quizzes: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(mine)+len(public))
	for _, q := range append(mine, public...) {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		if err := s.store.ImportQuiz(ctx, q); err != nil {
			return SyncReport{}, fmt.Errorf("import quiz %s: %w", q.ID, err)
		}
	}

	results, err := s.source.MyResults(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("pull results: %w", err)
	}
	for _, r := range results {
		if err := s.store.ImportResult(ctx, r.Result); err != nil {
			return SyncReport{}, fmt.Errorf("import result %s: %w", r.ID, err)
		}
	}

	report := SyncReport{UserID: me.ID, Quizzes: len(seen), Results: len(results), Duration: time.Since(start)}
	s.logger.Info().
		Str("user_id", me.ID.String()).
		Int("quizzes", report.Quizzes).
		Int("results", report.Results).
		Dur("took", report.Duration).
		Msg("mirror pulled")
	return report, nil
}
