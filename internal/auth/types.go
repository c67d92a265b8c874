package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

// UserStore persists user records. Implementations return domain.ErrConflict
// when the username or email is taken and domain.ErrNotFound for unknown users.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

// RegisterRequest for username/email/password registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest for username/password authentication.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is the outcome of a successful register or login.
type Session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}
