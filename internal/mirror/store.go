// Package mirror implements the quiz and identity stores over Redis, used as
// a local durable key-value substrate. Writes are last-writer-wins.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gokatarajesh/quiz-studio/internal/auth"
	"github.com/gokatarajesh/quiz-studio/internal/domain"
	"github.com/gokatarajesh/quiz-studio/internal/quiz"
)

const (
	defaultPrefix = "quizmirror"
	maxTxRetries  = 5
)

var (
	_ quiz.Store     = (*Store)(nil)
	_ auth.UserStore = (*Store)(nil)
)

// Store keeps every entity kind in its own hash, keyed by id:
//
//	{prefix}:users      id -> user JSON
//	{prefix}:usernames  username -> id
//	{prefix}:emails     email -> id
//	{prefix}:quizzes    id -> quiz JSON with questions inline
//	{prefix}:results    id -> result JSON
type Store struct {
	client *redis.Client
	prefix string
	clock  domain.Clock
}

// Option customizes a Store.
type Option func(*Store)

// WithKeyPrefix namespaces all keys.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(clock domain.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultPrefix, clock: domain.SystemClock}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(kind string) string {
	return s.prefix + ":" + kind
}

// watch runs fn under WATCH on keys, retrying when a concurrent writer
// touched them before EXEC.
func (s *Store) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("mirror: transaction on %v kept conflicting", keys)
}

func (s *Store) CreateQuiz(ctx context.Context, owner uuid.UUID, draft domain.Draft) (domain.Quiz, error) {
	if err := draft.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	q := domain.BuildQuiz(domain.NewID(), owner, draft, s.clock())
	err := s.watch(ctx, func(tx *redis.Tx) error {
		if err := s.requireUser(ctx, tx, owner); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.putQuiz(ctx, pipe, q)
		})
		return err
	}, s.key("users"), s.key("quizzes"))
	if err != nil {
		return domain.Quiz{}, err
	}
	return s.withCreatorName(ctx, q), nil
}

// requireUser reports ErrNotFound unless id is a stored account.
func (s *Store) requireUser(ctx context.Context, c redis.Cmdable, id uuid.UUID) error {
	exists, err := c.HExists(ctx, s.key("users"), id.String()).Result()
	if err != nil {
		return fmt.Errorf("mirror: check user: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error) {
	q, err := s.loadQuiz(ctx, s.client, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	return s.withCreatorName(ctx, q), nil
}

func (s *Store) ListPublicQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.listQuizzes(ctx, func(q domain.Quiz) bool { return q.IsPublic })
}

func (s *Store) ListQuizzesByOwner(ctx context.Context, owner uuid.UUID) ([]domain.Quiz, error) {
	return s.listQuizzes(ctx, func(q domain.Quiz) bool { return q.CreatedBy == owner })
}

func (s *Store) UpdateQuiz(ctx context.Context, id, actor uuid.UUID, draft domain.Draft) (domain.Quiz, error) {
	if err := draft.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	var updated domain.Quiz
	err := s.watch(ctx, func(tx *redis.Tx) error {
		current, err := s.loadQuiz(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.CreatedBy != actor {
			return domain.ErrNotFound
		}
		updated = domain.BuildQuiz(current.ID, current.CreatedBy, draft, current.CreatedAt)
		updated.CreatorName = current.CreatorName
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.putQuiz(ctx, pipe, updated)
		})
		return err
	}, s.key("quizzes"))
	if err != nil {
		return domain.Quiz{}, err
	}
	return s.withCreatorName(ctx, updated), nil
}

func (s *Store) DeleteQuiz(ctx context.Context, id, actor uuid.UUID) error {
	return s.watch(ctx, func(tx *redis.Tx) error {
		current, err := s.loadQuiz(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.CreatedBy != actor {
			return domain.ErrNotFound
		}
		results, err := s.loadResults(ctx, tx)
		if err != nil {
			return err
		}
		var orphaned []string
		for _, r := range results {
			if r.QuizID == id {
				orphaned = append(orphaned, r.ID.String())
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, s.key("quizzes"), id.String())
			if len(orphaned) > 0 {
				pipe.HDel(ctx, s.key("results"), orphaned...)
			}
			return nil
		})
		return err
	}, s.key("quizzes"), s.key("results"))
}

func (s *Store) RecordResult(ctx context.Context, quizID, user uuid.UUID, score, total int) (domain.Result, error) {
	if err := domain.ValidateScore(score, total); err != nil {
		return domain.Result{}, err
	}

	var res domain.Result
	err := s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, s.key("quizzes"), quizID.String()).Result()
		if err != nil {
			return fmt.Errorf("mirror: check quiz: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		if err := s.requireUser(ctx, tx, user); err != nil {
			return err
		}
		res = domain.Result{
			ID:             domain.NewID(),
			QuizID:         quizID,
			UserID:         user,
			Score:          score,
			TotalQuestions: total,
			DateTaken:      s.clock(),
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.putResult(ctx, pipe, res)
		})
		return err
	}, s.key("quizzes"), s.key("users"))
	if err != nil {
		return domain.Result{}, err
	}
	return res, nil
}

func (s *Store) ListResultsByUser(ctx context.Context, user uuid.UUID) ([]domain.ResultView, error) {
	all, err := s.loadResults(ctx, s.client)
	if err != nil {
		return nil, err
	}
	var mine []domain.Result
	for _, r := range all {
		if r.UserID == user {
			mine = append(mine, r)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		if mine[i].DateTaken.Equal(mine[j].DateTaken) {
			return mine[i].ID.String() > mine[j].ID.String()
		}
		return mine[i].DateTaken.After(mine[j].DateTaken)
	})
	if len(mine) == 0 {
		return nil, nil
	}

	quizIDs := make([]string, len(mine))
	for i, r := range mine {
		quizIDs[i] = r.QuizID.String()
	}
	raw, err := s.client.HMGet(ctx, s.key("quizzes"), quizIDs...).Result()
	if err != nil {
		return nil, fmt.Errorf("mirror: load result quizzes: %w", err)
	}

	views := make([]domain.ResultView, len(mine))
	for i, r := range mine {
		views[i] = domain.ResultView{Result: r}
		blob, ok := raw[i].(string)
		if !ok {
			continue
		}
		var q domain.Quiz
		if err := json.Unmarshal([]byte(blob), &q); err != nil {
			return nil, fmt.Errorf("mirror: decode quiz %s: %w", r.QuizID, err)
		}
		views[i].QuizTitle = q.Title
		views[i].QuizAvailable = true
	}
	return views, nil
}

func (s *Store) listQuizzes(ctx context.Context, keep func(domain.Quiz) bool) ([]domain.Quiz, error) {
	raw, err := s.client.HGetAll(ctx, s.key("quizzes")).Result()
	if err != nil {
		return nil, fmt.Errorf("mirror: list quizzes: %w", err)
	}
	var out []domain.Quiz
	for id, blob := range raw {
		var q domain.Quiz
		if err := json.Unmarshal([]byte(blob), &q); err != nil {
			return nil, fmt.Errorf("mirror: decode quiz %s: %w", id, err)
		}
		if keep(q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if err := s.attachCreatorNames(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) loadQuiz(ctx context.Context, c redis.Cmdable, id uuid.UUID) (domain.Quiz, error) {
	blob, err := c.HGet(ctx, s.key("quizzes"), id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Quiz{}, domain.ErrNotFound
		}
		return domain.Quiz{}, fmt.Errorf("mirror: load quiz: %w", err)
	}
	var q domain.Quiz
	if err := json.Unmarshal(blob, &q); err != nil {
		return domain.Quiz{}, fmt.Errorf("mirror: decode quiz %s: %w", id, err)
	}
	return q, nil
}

func (s *Store) putQuiz(ctx context.Context, c redis.Cmdable, q domain.Quiz) error {
	blob, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("mirror: encode quiz: %w", err)
	}
	return c.HSet(ctx, s.key("quizzes"), q.ID.String(), blob).Err()
}

func (s *Store) loadResults(ctx context.Context, c redis.Cmdable) ([]domain.Result, error) {
	raw, err := c.HGetAll(ctx, s.key("results")).Result()
	if err != nil {
		return nil, fmt.Errorf("mirror: list results: %w", err)
	}
	out := make([]domain.Result, 0, len(raw))
	for id, blob := range raw {
		var r domain.Result
		if err := json.Unmarshal([]byte(blob), &r); err != nil {
			return nil, fmt.Errorf("mirror: decode result %s: %w", id, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) putResult(ctx context.Context, c redis.Cmdable, r domain.Result) error {
	blob, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("mirror: encode result: %w", err)
	}
	return c.HSet(ctx, s.key("results"), r.ID.String(), blob).Err()
}

// withCreatorName prefers the local account's username and falls back to
// the name captured when the quiz was imported.
func (s *Store) withCreatorName(ctx context.Context, q domain.Quiz) domain.Quiz {
	quizzes := []domain.Quiz{q}
	if err := s.attachCreatorNames(ctx, quizzes); err != nil {
		return q
	}
	return quizzes[0]
}

func (s *Store) attachCreatorNames(ctx context.Context, quizzes []domain.Quiz) error {
	if len(quizzes) == 0 {
		return nil
	}
	owners := make([]string, len(quizzes))
	for i, q := range quizzes {
		owners[i] = q.CreatedBy.String()
	}
	raw, err := s.client.HMGet(ctx, s.key("users"), owners...).Result()
	if err != nil {
		return fmt.Errorf("mirror: load creators: %w", err)
	}
	for i := range quizzes {
		blob, ok := raw[i].(string)
		if !ok {
			continue
		}
		var u userRecord
		if err := json.Unmarshal([]byte(blob), &u); err != nil {
			return fmt.Errorf("mirror: decode user: %w", err)
		}
		quizzes[i].CreatorName = u.Username
	}
	return nil
}
