// Package redis is a mirror.Store backed by Redis, for deployments where
// several storefront processes serve the same device session.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/mirror"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/database"
)

// Store implements mirror.Store on top of a Redis client.
type Store struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

var _ mirror.Store = (*Store)(nil)

// New creates a store that keeps slots under "<namespace>:<slot>". A zero
// ttl keeps values forever.
func New(client *redis.Client, namespace string, ttl time.Duration) *Store {
	return &Store{client: client, namespace: namespace, ttl: ttl}
}

func (s *Store) key(slot string) string {
	if s.namespace == "" {
		return slot
	}
	return s.namespace + ":" + slot
}

func (s *Store) Get(ctx context.Context, slot string) (data []byte, err error) {
	ctx, end := database.TraceOp(ctx, "redis", "get", slot)
	defer func() { end(err) }()

	data, err = s.client.Get(ctx, s.key(slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, mirror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", slot, err)
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, slot string, value []byte) (err error) {
	ctx, end := database.TraceOp(ctx, "redis", "set", slot)
	defer func() { end(err) }()

	if err = s.client.Set(ctx, s.key(slot), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", slot, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, slot string) (err error) {
	ctx, end := database.TraceOp(ctx, "redis", "del", slot)
	defer func() { end(err) }()

	if err = s.client.Del(ctx, s.key(slot)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", slot, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
