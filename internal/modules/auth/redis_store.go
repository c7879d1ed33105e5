// README: Challenge and session stores backed by Redis.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	challengeKeyPrefix = "auth:challenge:"
	sessionKeyPrefix   = "session:"

	// Fixed field names inside a session hash.
	sessionTokenField = "token"
	sessionUserField  = "user"
)

// RedisChallengeStore keeps one challenge per scope. Acquire overwrites, so re-acquiring
// releases the previous challenge first.
type RedisChallengeStore struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

func NewRedisChallengeStore(rdb *redis.Client, ttl time.Duration) *RedisChallengeStore {
	return &RedisChallengeStore{redis: rdb, ttl: ttl, now: time.Now}
}

func (s *RedisChallengeStore) Acquire(ctx context.Context, scope, token string) (Challenge, error) {
	scope, token = strings.TrimSpace(scope), strings.TrimSpace(token)
	if scope == "" || token == "" {
		return Challenge{}, fmt.Errorf("%w: scope and token are required", ErrChallengeFailed)
	}
	if err := s.redis.Set(ctx, challengeKeyPrefix+scope, token, s.ttl).Err(); err != nil {
		return Challenge{}, fmt.Errorf("%w: %v", ErrChallengeFailed, err)
	}
	return Challenge{Scope: scope, Token: token, ExpiresAt: s.now().Add(s.ttl)}, nil
}

// Live returns the scope's challenge; expired or released challenges fail with
// ErrChallengeFailed.
func (s *RedisChallengeStore) Live(ctx context.Context, scope string) (Challenge, error) {
	key := challengeKeyPrefix + strings.TrimSpace(scope)
	pipe := s.redis.Pipeline()
	get := pipe.Get(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return Challenge{}, fmt.Errorf("%w: no live challenge", ErrChallengeFailed)
		}
		return Challenge{}, fmt.Errorf("%w: %v", ErrChallengeFailed, err)
	}
	ch := Challenge{Scope: strings.TrimSpace(scope), Token: get.Val()}
	if d := ttl.Val(); d > 0 {
		ch.ExpiresAt = s.now().Add(d)
	}
	return ch, nil
}

func (s *RedisChallengeStore) Release(ctx context.Context, scope string) error {
	return s.redis.Del(ctx, challengeKeyPrefix+strings.TrimSpace(scope)).Err()
}

// RedisSessionStore stores each session as a hash with "token" and "user" fields.
type RedisSessionStore struct {
	redis *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{redis: rdb}
}

func (s *RedisSessionStore) Save(ctx context.Context, id Identity) error {
	user, err := json.Marshal(id.User)
	if err != nil {
		return err
	}
	return s.redis.HSet(ctx, sessionKeyPrefix+id.Token,
		sessionTokenField, id.Token,
		sessionUserField, string(user),
	).Err()
}

func (s *RedisSessionStore) Load(ctx context.Context, token string) (Identity, error) {
	fields, err := s.redis.HGetAll(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return Identity{}, err
	}
	raw, ok := fields[sessionUserField]
	if !ok || fields[sessionTokenField] != token {
		return Identity{}, ErrSessionNotFound
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return Identity{}, fmt.Errorf("decode session user: %w", err)
	}
	return Identity{Token: token, User: u}, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return s.redis.Del(ctx, sessionKeyPrefix+token).Err()
}
