package phasestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores state as JSON with a sliding TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, userID, conceptID string) (State, error) {
	data, err := r.client.Get(ctx, key(userID, conceptID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("get phase state: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decode phase state: %w", err)
	}
	return s, nil
}

func (r *Redis) Put(ctx context.Context, s State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key(s.UserID, s.ConceptID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("put phase state: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, userID, conceptID string) error {
	return r.client.Del(ctx, key(userID, conceptID)).Err()
}
