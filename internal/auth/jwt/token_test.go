package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret")})
	assert.Equal(t, 24*time.Hour, m.TTL())

	id := uuid.New()
	token, err := m.Generate(id, "alice")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "quiz-studio", claims.Issuer)
}

func TestManager_WrongSecret(t *testing.T) {
	token, err := NewManager(TokenConfig{Secret: []byte("one")}).Generate(uuid.New(), "alice")
	require.NoError(t, err)

	_, err = NewManager(TokenConfig{Secret: []byte("two")}).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Expired(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret"), TTL: time.Hour})
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.Generate(uuid.New(), "alice")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestManager_Garbage(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret")})
	_, err := m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
