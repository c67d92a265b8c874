package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

// userRecord is the stored form of a user; unlike domain.User it keeps the hash.
type userRecord struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r userRecord) user() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

func recordOf(u domain.User) userRecord {
	return userRecord{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

// CreateUser stores a new account, enforcing unique usernames and emails.
func (s *Store) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	usernames, emails := s.key("usernames"), s.key("emails")
	err := s.watch(ctx, func(tx *redis.Tx) error {
		taken, err := tx.HExists(ctx, usernames, user.Username).Result()
		if err != nil {
			return fmt.Errorf("mirror: check username: %w", err)
		}
		if !taken {
			taken, err = tx.HExists(ctx, emails, user.Email).Result()
			if err != nil {
				return fmt.Errorf("mirror: check email: %w", err)
			}
		}
		if taken {
			return domain.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.putUser(ctx, pipe, user)
		})
		return err
	}, usernames, emails)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	id, err := s.client.HGet(ctx, s.key("usernames"), username).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("mirror: resolve username: %w", err)
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("mirror: corrupt username index for %q: %w", username, err)
	}
	return s.GetUserByID(ctx, uid)
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	blob, err := s.client.HGet(ctx, s.key("users"), id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("mirror: load user: %w", err)
	}
	var rec userRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return domain.User{}, fmt.Errorf("mirror: decode user %s: %w", id, err)
	}
	return rec.user(), nil
}

func (s *Store) putUser(ctx context.Context, c redis.Cmdable, user domain.User) error {
	blob, err := json.Marshal(recordOf(user))
	if err != nil {
		return fmt.Errorf("mirror: encode user: %w", err)
	}
	c.HSet(ctx, s.key("users"), user.ID.String(), blob)
	c.HSet(ctx, s.key("usernames"), user.Username, user.ID.String())
	c.HSet(ctx, s.key("emails"), user.Email, user.ID.String())
	return nil
}
