// Package leaderboard ranks attempts per quiz in Redis sorted sets.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

// Entry is one ranked user on a quiz leaderboard.
type Entry struct {
	Rank        int       `json:"rank"`
	UserID      uuid.UUID `json:"userId"`
	BestPercent float64   `json:"bestPercent"`
	Attempts    int       `json:"attempts"`
}

// Options configures a Board.
type Options struct {
	TopN      int
	KeyPrefix string
}

// Board keeps each user's best percentage per quiz. Scores only ever rise,
// so a worse retake does not demote a user.
type Board struct {
	redis  *redis.Client
	logger zerolog.Logger
	topN   int
	prefix string
}

func NewBoard(client *redis.Client, opts Options, logger zerolog.Logger) *Board {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "quizstudio"
	}
	return &Board{
		redis:  client,
		logger: logger.With().Str("component", "leaderboard").Logger(),
		topN:   topN,
		prefix: prefix,
	}
}

// Record folds a stored result into its quiz's board.
func (b *Board) Record(ctx context.Context, r domain.Result) error {
	if r.TotalQuestions <= 0 {
		return nil
	}
	pct := math.Round(float64(r.Score)/float64(r.TotalQuestions)*10000) / 100
	member := r.UserID.String()

	pipe := b.redis.TxPipeline()
	pipe.ZAddGT(ctx, b.rankKey(r.QuizID), redis.Z{Score: pct, Member: member})
	pipe.HIncrBy(ctx, b.attemptsKey(r.QuizID), member, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard %s: %w", r.QuizID, err)
	}
	return nil
}

// Remove drops the board of a deleted quiz.
func (b *Board) Remove(ctx context.Context, quizID uuid.UUID) error {
	if err := b.redis.Del(ctx, b.rankKey(quizID), b.attemptsKey(quizID)).Err(); err != nil {
		return fmt.Errorf("remove leaderboard %s: %w", quizID, err)
	}
	return nil
}

// Top returns up to limit entries, best first. limit is clamped to the
// configured TopN.
func (b *Board) Top(ctx context.Context, quizID uuid.UUID, limit int) ([]Entry, error) {
	if limit <= 0 || limit > b.topN {
		limit = b.topN
	}

	ranked, err := b.redis.ZRevRangeWithScores(ctx, b.rankKey(quizID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	if len(ranked) == 0 {
		return []Entry{}, nil
	}

	members := make([]string, len(ranked))
	for i, z := range ranked {
		members[i] = z.Member.(string)
	}
	attempts, err := b.redis.HMGet(ctx, b.attemptsKey(quizID), members...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("fetch leaderboard attempts: %w", err)
	}

	entries := make([]Entry, 0, len(ranked))
	for i, z := range ranked {
		id, err := uuid.Parse(members[i])
		if err != nil {
			b.logger.Warn().Err(err).Str("member", members[i]).Msg("skipping malformed leaderboard member")
			continue
		}
		entries = append(entries, Entry{
			Rank:        len(entries) + 1,
			UserID:      id,
			BestPercent: z.Score,
			Attempts:    parseInt(attempts, i),
		})
	}
	return entries, nil
}

func (b *Board) rankKey(quizID uuid.UUID) string {
	return fmt.Sprintf("%s:lb:quiz:%s", b.prefix, quizID)
}

func (b *Board) attemptsKey(quizID uuid.UUID) string {
	return fmt.Sprintf("%s:lb:quiz:%s:attempts", b.prefix, quizID)
}

func parseInt(vals []interface{}, i int) int {
	if i >= len(vals) {
		return 0
	}
	s, ok := vals[i].(string)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
