// Package cache provides the read-aggregate cache port. Implementations are
// best-effort accelerators: a miss or failure never affects correctness,
// only latency, and callers treat every error as a miss.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// DefaultTTL bounds staleness for aggregates whose invalidation path is
// ever missed. Explicit invalidation remains the primary mechanism.
const DefaultTTL = 5 * time.Minute

// Well-known cache keys. Writes that can change a cached aggregate must
// invalidate the corresponding keys synchronously before returning.
const (
	KeyPointsTable = "pointsTable"
	KeyTopPlayers  = "topPlayers"
	KeyTopTeams    = "topTeams"
)

func KeyMatchStats(matchID int) string {
	return "matchStats:" + strconv.Itoa(matchID)
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Noop satisfies Cache without storing anything, for deployments without a
// Redis instance.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (Noop) Invalidate(ctx context.Context, keys ...string) error {
	return nil
}
