package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionKey returns the Redis key of a session.
func SessionKey(id string) string {
	return sessionKeyPrefix + id
}

// SessionStore keeps session id -> account records in Redis.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a SessionStore whose records expire after ttl.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Create starts a session for account and returns its id.
func (s *SessionStore) Create(ctx context.Context, account string) (string, error) {
	id := uuid.NewString()
	if err := s.client.Set(ctx, SessionKey(id), account, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// Lookup returns the account bound to id, or "" when the session is gone.
func (s *SessionStore) Lookup(ctx context.Context, id string) (string, error) {
	account, err := s.client.Get(ctx, SessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	return account, nil
}

// Destroy removes the session. Removing a missing session is not an error.
func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, SessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
