package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// ListClient is the part of a redis client the ledger needs.
// *redis.Client and *redis.ClusterClient both satisfy it.
type ListClient interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// RedisStore keeps each ledger as a redis list under LedgerKey(userID).
// RPUSH is the append primitive, so there is no read-modify-write window.
type RedisStore struct {
	rdb ListClient
}

func NewRedisStore(rdb ListClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Append(ctx context.Context, userID string, a quiz.Assessment) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.rdb.RPush(ctx, LedgerKey(userID), b).Err()
}

func (s *RedisStore) List(ctx context.Context, userID string) ([]quiz.Assessment, error) {
	vals, err := s.rdb.LRange(ctx, LedgerKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]quiz.Assessment, 0, len(vals))
	for i, v := range vals {
		var a quiz.Assessment
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w", LedgerKey(userID), i, err)
		}
		out = append(out, a)
	}
	return reverse(out), nil
}

func (s *RedisStore) Get(ctx context.Context, userID, assessmentID string) (quiz.Assessment, error) {
	all, err := s.List(ctx, userID)
	if err != nil {
		return quiz.Assessment{}, err
	}
	for _, a := range all {
		if a.ID == assessmentID {
			return a, nil
		}
	}
	return quiz.Assessment{}, fmt.Errorf("assessment %q: %w", assessmentID, quiz.ErrNotFound)
}
