package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList answers whether an otherwise valid token was revoked by the
// identity service, either individually (by JTI) or for every session of a user.
type RevocationList interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
	IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error)
}

const revocationKeyPrefix = "token:blacklist:"

// RedisRevocationList reads the revocation keys the identity service writes
// into the shared Redis:
//
//	token:blacklist:jti:<jti>      any value, expires with the token
//	token:blacklist:user:<userID>  unix seconds; tokens issued at or before are invalid
type RedisRevocationList struct {
	client redis.Cmdable
}

// NewRedisRevocationList creates a revocation list on an existing client
func NewRedisRevocationList(client redis.Cmdable) *RedisRevocationList {
	return &RedisRevocationList{client: client}
}

// IsRevoked checks if a token's JTI is revoked
func (l *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := l.client.Exists(ctx, revocationKeyPrefix+"jti:"+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// IsUserTokenInvalidated checks if a token was issued before the user's invalidation timestamp
func (l *RedisRevocationList) IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	raw, err := l.client.Get(ctx, revocationKeyPrefix+"user:"+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user token invalidation: %w", err)
	}

	invalidatedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp: %w", err)
	}
	return tokenIssuedAt.Unix() <= invalidatedAt, nil
}

var _ RevocationList = (*RedisRevocationList)(nil)

// InMemoryRevocationList is a process-local RevocationList for development and tests
type InMemoryRevocationList struct {
	mu          sync.RWMutex
	jtis        map[string]time.Time
	invalidated map[string]time.Time
}

// NewInMemoryRevocationList creates an empty list
func NewInMemoryRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{
		jtis:        make(map[string]time.Time),
		invalidated: make(map[string]time.Time),
	}
}

// Revoke revokes one token until ttl elapses
func (l *InMemoryRevocationList) Revoke(jti string, ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jtis[jti] = time.Now().Add(ttl)
}

// InvalidateUser revokes every token of userID issued at or before at
func (l *InMemoryRevocationList) InvalidateUser(userID string, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.invalidated[userID] = at
}

func (l *InMemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	expires, ok := l.jtis[jti]
	return ok && time.Now().Before(expires), nil
}

func (l *InMemoryRevocationList) IsUserTokenInvalidated(_ context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	at, ok := l.invalidated[userID]
	return ok && !tokenIssuedAt.After(at), nil
}

var _ RevocationList = (*InMemoryRevocationList)(nil)
