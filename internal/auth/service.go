package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-studio/internal/auth/jwt"
	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

// Service handles registration, login and session token checks.
type Service struct {
	users      UserStore
	tokenMgr   *jwt.Manager
	bcryptCost int
	clock      domain.Clock
	logger     zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
	BcryptCost  int
	Clock       domain.Clock
}

// NewService creates an authentication service.
func NewService(users UserStore, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = DefaultBcryptCost
	}
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock
	}
	return &Service{
		users:      users,
		tokenMgr:   jwt.NewManager(opts.TokenConfig),
		bcryptCost: opts.BcryptCost,
		clock:      opts.Clock,
		logger:     logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates a new account and opens a session for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	creds := domain.Credentials{Username: req.Username, Email: req.Email, Password: req.Password}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, domain.User{
		ID:           domain.NewID(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		CreatedAt:    s.clock(),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokenMgr.Generate(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("user registered")

	return &Session{Token: token, User: user}, nil
}

// Login authenticates a user by username and password. Unknown users and
// wrong passwords both yield domain.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if req.Username == "" || req.Password == "" {
		return nil, domain.NewValidationError("", "username and password are required")
	}

	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokenMgr.Generate(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.Debug().Str("user_id", user.ID.String()).Msg("user logged in")

	return &Session{Token: token, User: user}, nil
}

// ValidateToken validates a session token and returns its claims.
func (s *Service) ValidateToken(token string) (*jwt.Claims, error) {
	claims, err := s.tokenMgr.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return claims, nil
}

// Profile returns the account behind a user id.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("get profile: %w", err)
	}
	return user, nil
}
