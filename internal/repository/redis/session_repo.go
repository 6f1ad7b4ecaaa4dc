package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/yourorg/paper-broker/internal/domain"
)

func sessionKey(id string) string {
	return "session:" + id
}

// SessionRepo maps session ids to user ids with a sliding expiry.
type SessionRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepo(client *redis.Client, ttl time.Duration) *SessionRepo {
	return &SessionRepo{client: client, ttl: ttl}
}

func (r *SessionRepo) Create(ctx context.Context, sessionID string, userID uuid.UUID) error {
	if err := r.client.Set(ctx, sessionKey(sessionID), userID.String(), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis create session: %w", err)
	}
	return nil
}

// Lookup returns the session's user and refreshes its expiry.
func (r *SessionRepo) Lookup(ctx context.Context, sessionID string) (uuid.UUID, error) {
	val, err := r.client.GetEx(ctx, sessionKey(sessionID), r.ttl).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, domain.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("redis lookup session: %w", err)
	}
	return uuid.Parse(val)
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
