package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Manager deduplicates Pub/Sub redeliveries per consumer. A claim is a
// Redis SETNX on sf:idempotency:evt:processed:<consumer>:<event_id>.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Claim is held by the delivery that first saw an event.
type Claim struct {
	store redis.IdempotencyStore
	key   string
}

// Release drops the claim so a redelivery is processed again. Call it when
// the work failed in a way that a retry can fix.
func (c *Claim) Release(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.store.Del(ctx, c.key)
}

// Claim marks eventID as taken by consumer for the manager TTL. It returns a
// nil claim and ok=false when an earlier delivery already holds it.
func (m *Manager) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (*Claim, bool, error) {
	key, err := m.processedKey(consumer, eventID)
	if err != nil {
		return nil, false, err
	}
	set, err := m.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), m.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("claim %s: %w", key, err)
	}
	if !set {
		return nil, false, nil
	}
	return &Claim{store: m.store, key: key}, true, nil
}

func (m *Manager) processedKey(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey("evt:processed:"+consumer, eventID.String()), nil
}
