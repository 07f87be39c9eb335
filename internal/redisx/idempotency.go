package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// TTLIdempotency bounds how long a submission key is remembered
	TTLIdempotency = 24 * time.Hour

	inFlight = "in-flight"
)

// ReservationState describes what Reserve found under a key
type ReservationState int

const (
	// Reserved means the caller owns the key and must Complete or Release it
	Reserved ReservationState = iota
	// InFlight means another request holds the key and has not finished
	InFlight
	// Completed means the key already produced a selection
	Completed
)

// SelectionSubmitKey namespaces a client idempotency key for selection submission
func SelectionSubmitKey(clientKey string) string {
	return fmt.Sprintf("idem:selection:submit:%s", clientKey)
}

// IdempotencyStore remembers which selection a client key produced
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates a store; ttl <= 0 uses TTLIdempotency
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = TTLIdempotency
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key for the caller. When the key already completed, the
// selection ID it produced is returned.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (ReservationState, uuid.UUID, error) {
	ok, err := s.client.SetNX(ctx, key, inFlight, s.ttl).Result()
	if err != nil {
		return 0, uuid.Nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return Reserved, uuid.Nil, nil
	}

	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		return s.Reserve(ctx, key)
	}
	if err != nil {
		return 0, uuid.Nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if value == inFlight {
		return InFlight, uuid.Nil, nil
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return 0, uuid.Nil, fmt.Errorf("corrupt idempotency value for %s: %w", key, err)
	}
	return Completed, id, nil
}

// Complete records the selection a reserved key produced
func (s *IdempotencyStore) Complete(ctx context.Context, key string, selectionID uuid.UUID) error {
	if err := s.client.Set(ctx, key, selectionID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

// Release drops a reservation so the client can retry after a failure
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
