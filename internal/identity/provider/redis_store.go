package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed credential store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		key:    "coursehub:credential",
	}
}

func (r *RedisStore) Save(ctx context.Context, cred Credential) error {
	if cred.UID == "" || cred.RefreshToken == "" {
		return fmt.Errorf("credential: missing uid or refresh token")
	}

	ttl := time.Until(cred.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("credential: expires_at must be in the future")
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("credential: failed to marshal: %w", err)
	}

	return r.client.Set(ctx, r.key, data, ttl).Err()
}

func (r *RedisStore) Load(ctx context.Context) (*Credential, error) {
	val, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	var cred Credential
	if err := json.Unmarshal([]byte(val), &cred); err != nil {
		return nil, fmt.Errorf("credential: failed to unmarshal: %w", err)
	}

	return &cred, nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
