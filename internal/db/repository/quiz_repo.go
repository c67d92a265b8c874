package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
	"github.com/gokatarajesh/quiz-studio/internal/quiz"
)

var _ quiz.Store = (*QuizRepository)(nil)

// QuizRepository stores quizzes, their questions and results in Postgres.
// A quiz and its question rows are always written in one transaction.
type QuizRepository struct {
	db    DBTX
	clock domain.Clock
}

// NewQuizRepository wraps a pool for quiz operations. A nil clock uses wall time.
func NewQuizRepository(db DBTX, clock domain.Clock) *QuizRepository {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &QuizRepository{db: db, clock: clock}
}

const (
	insertQuizSQL = `
INSERT INTO quizzes (id, title, description, created_by, is_public, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	insertQuestionSQL = `
INSERT INTO questions (id, quiz_id, position, text, options, correct_answer)
VALUES ($1, $2, $3, $4, $5::jsonb, $6)`

	selectQuizSQL = `
SELECT q.id, q.title, q.description, q.created_by, u.username, q.is_public, q.created_at
FROM quizzes q
JOIN users u ON u.id = q.created_by `

	selectQuestionsSQL = `
SELECT quiz_id, id, text, options, correct_answer
FROM questions
WHERE quiz_id = ANY($1::uuid[])
ORDER BY quiz_id, position`

	updateQuizSQL = `
UPDATE quizzes SET title = $3, description = $4, is_public = $5
WHERE id = $1 AND created_by = $2
RETURNING created_at, (SELECT username FROM users WHERE id = created_by)`

	insertResultSQL = `
INSERT INTO quiz_results (id, quiz_id, user_id, score, total_questions, date_taken)
SELECT $1, q.id, $3, $4, $5, $6 FROM quizzes q WHERE q.id = $2
RETURNING id`

	selectResultsSQL = `
SELECT r.id, r.quiz_id, r.user_id, r.score, r.total_questions, r.date_taken, q.title
FROM quiz_results r
LEFT JOIN quizzes q ON q.id = r.quiz_id
WHERE r.user_id = $1
ORDER BY r.date_taken DESC, r.id DESC`
)

// CreateQuiz validates and inserts a quiz with its questions.
func (r *QuizRepository) CreateQuiz(ctx context.Context, owner uuid.UUID, draft domain.Draft) (domain.Quiz, error) {
	if err := draft.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	q := domain.BuildQuiz(domain.NewID(), owner, draft, r.clock())

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, owner).Scan(&q.CreatorName); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("load owner: %w", err)
		}
		if _, err := tx.Exec(ctx, insertQuizSQL, q.ID, q.Title, q.Description, q.CreatedBy, q.IsPublic, q.CreatedAt); err != nil {
			return fmt.Errorf("insert quiz: %w", mapWriteError(err))
		}
		return insertQuestions(ctx, tx, q.ID, q.Questions)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return q, nil
}

// GetQuiz loads one quiz with its questions in insertion order.
func (r *QuizRepository) GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error) {
	quizzes, err := r.queryQuizzes(ctx, selectQuizSQL+`WHERE q.id = $1`, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	if len(quizzes) == 0 {
		return domain.Quiz{}, domain.ErrNotFound
	}
	return quizzes[0], nil
}

// ListPublicQuizzes returns every public quiz, newest first.
func (r *QuizRepository) ListPublicQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return r.queryQuizzes(ctx, selectQuizSQL+`WHERE q.is_public ORDER BY q.created_at DESC, q.id DESC`)
}

// ListQuizzesByOwner returns the owner's quizzes, newest first.
func (r *QuizRepository) ListQuizzesByOwner(ctx context.Context, owner uuid.UUID) ([]domain.Quiz, error) {
	return r.queryQuizzes(ctx, selectQuizSQL+`WHERE q.created_by = $1 ORDER BY q.created_at DESC, q.id DESC`, owner)
}

// UpdateQuiz replaces the quiz's fields and its whole question set.
func (r *QuizRepository) UpdateQuiz(ctx context.Context, id, actor uuid.UUID, draft domain.Draft) (domain.Quiz, error) {
	if err := draft.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	var q domain.Quiz
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var createdAt time.Time
		var creator string
		err := tx.QueryRow(ctx, updateQuizSQL, id, actor, draft.Title, draft.Description, draft.IsPublic).
			Scan(&createdAt, &creator)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("update quiz: %w", mapWriteError(err))
		}
		q = domain.BuildQuiz(id, actor, draft, createdAt.UTC())
		q.CreatorName = creator

		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE quiz_id = $1`, id); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		return insertQuestions(ctx, tx, id, q.Questions)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return q, nil
}

// DeleteQuiz removes an owned quiz; questions and results cascade.
func (r *QuizRepository) DeleteQuiz(ctx context.Context, id, actor uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quizzes WHERE id = $1 AND created_by = $2`, id, actor)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordResult appends an attempt for an existing quiz.
func (r *QuizRepository) RecordResult(ctx context.Context, quizID, user uuid.UUID, score, total int) (domain.Result, error) {
	if err := domain.ValidateScore(score, total); err != nil {
		return domain.Result{}, err
	}
	res := domain.Result{
		ID:             domain.NewID(),
		QuizID:         quizID,
		UserID:         user,
		Score:          score,
		TotalQuestions: total,
		DateTaken:      r.clock(),
	}
	var id uuid.UUID
	err := r.db.QueryRow(ctx, insertResultSQL, res.ID, quizID, user, score, total, res.DateTaken).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Result{}, domain.ErrNotFound
		}
		return domain.Result{}, fmt.Errorf("insert result: %w", mapWriteError(err))
	}
	return res, nil
}

// ListResultsByUser returns the user's attempts newest first with quiz titles.
func (r *QuizRepository) ListResultsByUser(ctx context.Context, user uuid.UUID) ([]domain.ResultView, error) {
	rows, err := r.db.Query(ctx, selectResultsSQL, user)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []domain.ResultView
	for rows.Next() {
		var v domain.ResultView
		var title *string
		if err := rows.Scan(&v.ID, &v.QuizID, &v.UserID, &v.Score, &v.TotalQuestions, &v.DateTaken, &title); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		v.DateTaken = v.DateTaken.UTC()
		if title != nil {
			v.QuizTitle = *title
			v.QuizAvailable = true
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

func (r *QuizRepository) queryQuizzes(ctx context.Context, sql string, args ...any) ([]domain.Quiz, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	quizzes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Quiz, error) {
		var q domain.Quiz
		err := row.Scan(&q.ID, &q.Title, &q.Description, &q.CreatedBy, &q.CreatorName, &q.IsPublic, &q.CreatedAt)
		q.CreatedAt = q.CreatedAt.UTC()
		return q, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan quizzes: %w", err)
	}
	if len(quizzes) == 0 {
		return nil, nil
	}
	if err := r.attachQuestions(ctx, quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *QuizRepository) attachQuestions(ctx context.Context, quizzes []domain.Quiz) error {
	ids := make([]string, len(quizzes))
	index := make(map[uuid.UUID]int, len(quizzes))
	for i, q := range quizzes {
		ids[i] = q.ID.String()
		index[q.ID] = i
		quizzes[i].Questions = []domain.Question{}
	}

	rows, err := r.db.Query(ctx, selectQuestionsSQL, ids)
	if err != nil {
		return fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var quizID uuid.UUID
		var q domain.Question
		var options []byte
		if err := rows.Scan(&quizID, &q.ID, &q.Text, &options, &q.CorrectAnswer); err != nil {
			return fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return fmt.Errorf("decode options of question %s: %w", q.ID, err)
		}
		i := index[quizID]
		quizzes[i].Questions = append(quizzes[i].Questions, q)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate questions: %w", err)
	}
	return nil
}

func insertQuestions(ctx context.Context, tx pgx.Tx, quizID uuid.UUID, questions []domain.Question) error {
	batch := &pgx.Batch{}
	for pos, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("encode options: %w", err)
		}
		batch.Queue(insertQuestionSQL, q.ID, quizID, pos, q.Text, string(options), q.CorrectAnswer)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert questions: %w", mapWriteError(err))
	}
	return nil
}

// mapWriteError turns constraint violations into domain errors.
func mapWriteError(err error) error {
	switch pgErrorCode(err) {
	case codeForeignKeyViolation:
		return domain.ErrNotFound
	case codeCheckViolation:
		return domain.NewValidationError("", "value violates a schema constraint")
	case codeUniqueViolation:
		return domain.ErrConflict
	}
	return err
}
