// Package redis stores login sessions in Redis so several hub replicas can
// share them.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hubauth/jwtauthenticator/models"
	"github.com/hubauth/jwtauthenticator/repositories"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "hubauth:session:"

// Config contains configuration options for the Redis session repository
type Config struct {
	// Client is the Redis client instance
	Client *redis.Client

	// KeyPrefix is the prefix for all Redis keys
	// Default: "hubauth:session:"
	KeyPrefix string
}

// SessionRepository implements repositories.SessionRepository on Redis.
// Expiry is delegated to Redis through the key TTL.
type SessionRepository struct {
	client    *redis.Client
	keyPrefix string
	now       func() time.Time
}

// New creates a Redis-backed session repository.
func New(config Config) (*SessionRepository, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultKeyPrefix
	}

	return &SessionRepository{
		client:    config.Client,
		keyPrefix: config.KeyPrefix,
		now:       time.Now,
	}, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *models.Session) error {
	ttl := session.TTL(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.key(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("get session: %w", repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	// Redis expiry has one second granularity.
	if session.IsExpired(r.now()) {
		return nil, fmt.Errorf("get session: %w", repositories.ErrNotFound)
	}
	return &session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *SessionRepository) Close() error {
	return r.client.Close()
}

func (r *SessionRepository) key(id uuid.UUID) string {
	return r.keyPrefix + id.String()
}
