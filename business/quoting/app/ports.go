// Package app contains the quote aggregation services and port definitions.
package app

import (
	"context"
	"math/big"

	"github.com/fd1az/tonswap/business/quoting/domain"
	"github.com/fd1az/tonswap/internal/asset"
)

// Backend is one liquidity source.
type Backend interface {
	Name() string

	// ListPools returns the backend's pools in listing order. Failures are
	// logged and yield an empty slice.
	ListPools(ctx context.Context) ([]domain.Pool, error)

	// ListAssets returns the backend's asset list. Failures are logged and
	// yield an empty slice.
	ListAssets(ctx context.Context) ([]asset.Asset, error)

	// Estimate quotes a swap of amount base units. A nil quote with a nil
	// error means the backend has no route.
	Estimate(ctx context.Context, from, to asset.Asset, amount *big.Int) (*domain.Quote, error)
}

// PoolQuoter is implemented by backends whose estimate starts from their
// own pool listing, so a cached listing can be reused.
type PoolQuoter interface {
	EstimateFromPools(ctx context.Context, pools []domain.Pool, from, to asset.Asset, amount *big.Int) (*domain.Quote, error)
}

// HealthReporter is implemented by backends that can report their breaker state.
type HealthReporter interface {
	Health(ctx context.Context) (bool, string)
}
