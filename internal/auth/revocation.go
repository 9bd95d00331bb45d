package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "pms:revoked:"

// RevocationStore remembers logged-out token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevocationStore keeps revoked token ids in redis with a TTL equal to
// the remaining token lifetime.
type RedisRevocationStore struct {
	rdb *redis.Client
}

func NewRedisRevocationStore(rdb *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{rdb: rdb}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// NopRevocationStore is used when redis is not configured. Logout then only
// discards the token on the client.
type NopRevocationStore struct{}

func (NopRevocationStore) Revoke(context.Context, string, time.Time) error { return nil }
func (NopRevocationStore) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// LoginLimiter counts failed logins per email.
type LoginLimiter interface {
	Allow(ctx context.Context, email string) (bool, error)
	Fail(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

const (
	loginAttemptsPrefix = "pms:login:attempts:"
	maxLoginAttempts    = 5
	loginAttemptWindow  = 10 * time.Minute
)

// RedisLoginLimiter blocks an email after five failed attempts within ten
// minutes.
type RedisLoginLimiter struct {
	rdb *redis.Client
}

func NewRedisLoginLimiter(rdb *redis.Client) *RedisLoginLimiter {
	return &RedisLoginLimiter{rdb: rdb}
}

func (l *RedisLoginLimiter) Allow(ctx context.Context, email string) (bool, error) {
	n, err := l.rdb.Get(ctx, loginAttemptsPrefix+email).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return n < maxLoginAttempts, nil
}

func (l *RedisLoginLimiter) Fail(ctx context.Context, email string) error {
	key := loginAttemptsPrefix + email
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return l.rdb.Expire(ctx, key, loginAttemptWindow).Err()
	}
	return nil
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, email string) error {
	return l.rdb.Del(ctx, loginAttemptsPrefix+email).Err()
}

// NopLoginLimiter never blocks.
type NopLoginLimiter struct{}

func (NopLoginLimiter) Allow(context.Context, string) (bool, error) { return true, nil }
func (NopLoginLimiter) Fail(context.Context, string) error          { return nil }
func (NopLoginLimiter) Reset(context.Context, string) error         { return nil }
