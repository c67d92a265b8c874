package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gokatarajesh/quiz-studio/internal/auth"
	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

var _ auth.UserStore = (*UserRepository)(nil)

// UserRepository persists accounts in the users table.
type UserRepository struct {
	db DBTX
}

// NewUserRepository wraps a pool (or transaction) for user operations.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const insertUserSQL = `
INSERT INTO users (id, username, email, password, created_at)
VALUES ($1, $2, $3, $4, $5)`

// CreateUser inserts an account; a taken username or email is domain.ErrConflict.
func (r *UserRepository) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	_, err := r.db.Exec(ctx, insertUserSQL, user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return domain.User{}, domain.ErrConflict
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

const selectUserSQL = `SELECT id, username, email, password, created_at FROM users `

// GetUserByUsername fetches a user by username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.scanUser(r.db.QueryRow(ctx, selectUserSQL+`WHERE username = $1`, username))
}

// GetUserByID fetches a user by id.
func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return r.scanUser(r.db.QueryRow(ctx, selectUserSQL+`WHERE id = $1`, id))
}

func (r *UserRepository) scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}
