package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gokatarajesh/quiz-studio/internal/auth/jwt"
	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	if echo, ok := args.Get(0).(func(domain.User) domain.User); ok {
		return echo(user), args.Error(1)
	}
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserStore) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserStore) GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store UserStore) *Service {
	return NewService(store, ServiceOptions{
		TokenConfig: jwt.TokenConfig{Secret: []byte("test-secret")},
		BcryptCost:  bcrypt.MinCost,
		Clock:       func() time.Time { return fixedNow },
	}, zerolog.Nop())
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", hash)

	assert.NoError(t, VerifyPassword(hash, "pw123"))
	assert.Error(t, VerifyPassword(hash, "wrong"))
}

func TestHashPassword_DefaultCost(t *testing.T) {
	hash, err := HashPassword("pw123", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, cost)
}

func TestService_Register(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	store.On("CreateUser", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.Username == "alice" && u.Email == "a@x.io" &&
			u.ID != uuid.Nil && u.CreatedAt.Equal(fixedNow) &&
			VerifyPassword(u.PasswordHash, "pw123") == nil
	})).Return(func(u domain.User) domain.User { return u }, nil).Once()

	session, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Email: "a@x.io", Password: "pw123"})
	require.NoError(t, err)
	assert.Equal(t, "alice", session.User.Username)

	claims, err := svc.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	store.AssertExpectations(t)
}

func TestService_Register_Conflict(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	store.On("CreateUser", mock.Anything, mock.Anything).Return(domain.User{}, domain.ErrConflict).Once()

	_, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Email: "b@x.io", Password: "pw123"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestService_Register_MissingField(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	_, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Password: "pw123"})
	assert.True(t, domain.IsValidation(err))
	store.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestService_Login(t *testing.T) {
	hash, err := HashPassword("pw123", bcrypt.MinCost)
	require.NoError(t, err)
	user := domain.User{ID: uuid.New(), Username: "alice", Email: "a@x.io", PasswordHash: hash}

	store := new(mockUserStore)
	svc := newTestService(store)
	store.On("GetUserByUsername", mock.Anything, "alice").Return(user, nil)
	store.On("GetUserByUsername", mock.Anything, "bob").Return(domain.User{}, domain.ErrNotFound)

	session, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "pw123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)

	_, err = svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Username: "bob", Password: "pw123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestService_Login_StoreFailure(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)
	store.On("GetUserByUsername", mock.Anything, "alice").Return(domain.User{}, errors.New("connection reset"))

	_, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "pw123"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestService_ValidateToken_Invalid(t *testing.T) {
	svc := newTestService(new(mockUserStore))

	_, err := svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestService_Profile(t *testing.T) {
	id := uuid.New()
	store := new(mockUserStore)
	svc := newTestService(store)
	store.On("GetUserByID", mock.Anything, id).Return(domain.User{}, domain.ErrNotFound)

	_, err := svc.Profile(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
