package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis as JSON values. The TTL is
// refreshed on every write, so idle sessions expire on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

func (s *RedisStore) Begin(ctx context.Context, userID int64, flow, step string, seed map[string]string) error {
	return s.write(ctx, userID, Session{
		Flow:    flow,
		Step:    step,
		Answers: seedAnswers(seed),
	})
}

func (s *RedisStore) SetAnswer(ctx context.Context, userID int64, field, value string) error {
	sess, err := s.Snapshot(ctx, userID)
	if err != nil {
		return err
	}
	sess.Answers[field] = value
	return s.write(ctx, userID, sess)
}

func (s *RedisStore) Advance(ctx context.Context, userID int64, step string) error {
	sess, err := s.Snapshot(ctx, userID)
	if err != nil {
		return err
	}
	sess.Step = step
	return s.write(ctx, userID, sess)
}

func (s *RedisStore) Snapshot(ctx context.Context, userID int64) (Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNoActiveFlow()
		}
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, err
	}
	if sess.Answers == nil {
		sess.Answers = make(map[string]string)
	}
	return sess, nil
}

func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, sessionKey(userID)).Err()
}

func (s *RedisStore) write(ctx context.Context, userID int64, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(userID), raw, s.ttl).Err()
}
