package app

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/fd1az/tonswap/business/quoting/domain"
	"github.com/fd1az/tonswap/internal/asset"
)

// CachedBackend shares pool listings between callers for a short TTL.
// Empty listings, which is how failures surface, are not cached.
type CachedBackend struct {
	Backend
	ttl time.Duration

	mu        sync.Mutex // serializes refreshes so concurrent callers share one fetch
	pools     []domain.Pool
	expiresAt time.Time
}

var _ Backend = (*CachedBackend)(nil)

// NewCachedBackend wraps b. A zero ttl disables caching.
func NewCachedBackend(b Backend, ttl time.Duration) *CachedBackend {
	return &CachedBackend{Backend: b, ttl: ttl}
}

func (c *CachedBackend) ListPools(ctx context.Context) ([]domain.Pool, error) {
	if c.ttl <= 0 {
		return c.Backend.ListPools(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pools != nil && time.Now().Before(c.expiresAt) {
		return c.pools, nil
	}

	pools, err := c.Backend.ListPools(ctx)
	if err != nil || len(pools) == 0 {
		return pools, err
	}

	c.pools = pools
	c.expiresAt = time.Now().Add(c.ttl)
	return pools, nil
}

// Estimate reuses the cached listing for backends that price from pools.
func (c *CachedBackend) Estimate(ctx context.Context, from, to asset.Asset, amount *big.Int) (*domain.Quote, error) {
	pq, ok := c.Backend.(PoolQuoter)
	if !ok {
		return c.Backend.Estimate(ctx, from, to, amount)
	}
	pools, _ := c.ListPools(ctx)
	return pq.EstimateFromPools(ctx, pools, from, to, amount)
}

// Health forwards to the wrapped backend when it reports health.
func (c *CachedBackend) Health(ctx context.Context) (bool, string) {
	if hr, ok := c.Backend.(HealthReporter); ok {
		return hr.Health(ctx)
	}
	return true, ""
}
