// Package idempotency caches routing decisions by client-supplied key, so
// a retried request returns the original decision instead of re-running
// the selection pipeline against possibly changed configuration.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"payment-router/internal/common/logging"
	"payment-router/internal/redis"
	"payment-router/internal/routing"
)

const keyPrefix = "idempotency:route:"

// cacheKey scopes entries by merchant so two merchants reusing the same
// idempotency key value never replay each other's decisions.
func cacheKey(merchantID, key string) string {
	return keyPrefix + merchantID + ":" + key
}

// Store is the Redis-backed idempotency cache.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

// New creates an idempotency store. Decisions are retained for the given
// window; a retry after the window re-routes.
func New(client *redis.Client, ttl time.Duration, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Store{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Lookup returns the merchant's cached decision for the key, if any.
func (s *Store) Lookup(ctx context.Context, merchantID, key string) (*routing.RouteDecision, bool, error) {
	var decision routing.RouteDecision
	err := s.client.GetJSON(ctx, cacheKey(merchantID, key), &decision)
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return &decision, true, nil
}

// Remember stores the decision under the key unless another decision got
// there first, and returns the decision that ended up cached. Two racing
// requests with the same key both receive the decision that won the
// SETNX.
func (s *Store) Remember(ctx context.Context, merchantID, key string, decision *routing.RouteDecision) (*routing.RouteDecision, error) {
	written, err := s.client.SetNX(ctx, cacheKey(merchantID, key), decision, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("idempotency store: %w", err)
	}
	if written {
		return decision, nil
	}

	cached, found, err := s.Lookup(ctx, merchantID, key)
	if err != nil {
		return nil, err
	}
	if !found {
		// The winning entry expired between our SETNX and the read.
		// Serve our decision; the next retry starts a fresh window.
		s.logger.Warn("Idempotency entry vanished after lost write race",
			logging.String("merchant_id", merchantID),
			logging.String("key", key),
		)
		return decision, nil
	}
	return cached, nil
}
