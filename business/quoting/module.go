// Package quoting implements the quoting bounded context: backend adapters
// for DeDust and STON.fi and the aggregator that compares them.
package quoting

import (
	"context"
	"time"

	"github.com/fd1az/tonswap/business/quoting/app"
	quotingDI "github.com/fd1az/tonswap/business/quoting/di"
	"github.com/fd1az/tonswap/business/quoting/infra/dedust"
	"github.com/fd1az/tonswap/business/quoting/infra/stonfi"
	"github.com/fd1az/tonswap/internal/asset"
	"github.com/fd1az/tonswap/internal/config"
	"github.com/fd1az/tonswap/internal/di"
	"github.com/fd1az/tonswap/internal/logger"
	"github.com/fd1az/tonswap/internal/monolith"
)

const assetWarmupTimeout = 10 * time.Second

// Module implements the quoting bounded context.
type Module struct{}

// RegisterServices registers all quoting services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// DeDust backend, sharing pool listings between estimates for a short TTL
	di.RegisterToken(c, quotingDI.DeDustBackend, func(sr di.ServiceRegistry) app.Backend {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		provider, err := dedust.NewProvider(cfg.DeDust, log)
		if err != nil {
			panic("failed to create dedust provider: " + err.Error())
		}
		return app.NewCachedBackend(provider, cfg.Quoting.PoolCacheTTL)
	})

	// STON.fi backend
	di.RegisterToken(c, quotingDI.StonFiBackend, func(sr di.ServiceRegistry) app.Backend {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		provider, err := stonfi.NewProvider(cfg.StonFi, log)
		if err != nil {
			panic("failed to create stonfi provider: " + err.Error())
		}
		return app.NewCachedBackend(provider, cfg.Quoting.PoolCacheTTL)
	})

	// Aggregator (public - used by swap, session and gateway)
	di.RegisterToken(c, quotingDI.Aggregator, func(sr di.ServiceRegistry) *app.Aggregator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		backends := []app.Backend{
			quotingDI.GetDeDustBackend(sr),
			quotingDI.GetStonFiBackend(sr),
		}

		aggregator, err := app.NewAggregator(backends, registry, app.Options{
			Priority:  cfg.Quoting.Priority,
			PoolLimit: cfg.Quoting.PricePoolLimit,
		}, log)
		if err != nil {
			panic("failed to create aggregator: " + err.Error())
		}
		return aggregator
	})

	return nil
}

// Startup registers backend health checks and warms the asset registry.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	aggregator := quotingDI.GetAggregator(mono.Services())

	for _, b := range aggregator.Backends() {
		if hr, ok := b.(app.HealthReporter); ok {
			mono.Health().RegisterCheck(b.Name(), hr.Health)
		}
	}

	// Listings degrade to empty on failure, so a cold start only loses
	// symbol resolution until the next get_assets.
	warmCtx, cancel := context.WithTimeout(ctx, assetWarmupTimeout)
	defer cancel()
	aggregator.Assets(warmCtx)

	log.Info(ctx, "quoting module started",
		"backends", aggregator.BackendNames(),
		"assets", mono.AssetRegistry().Count())
	return nil
}
