// Package gateway exposes the HTTP surfaces: health probes, the REST mirror
// of the WebSocket API and the wallet API reverse proxy.
package gateway

import (
	"context"

	gatewayDI "github.com/fd1az/tonswap/business/gateway/di"
	"github.com/fd1az/tonswap/business/gateway/infra/proxy"
	"github.com/fd1az/tonswap/business/gateway/infra/rest"
	quotingDI "github.com/fd1az/tonswap/business/quoting/di"
	swapDI "github.com/fd1az/tonswap/business/swap/di"
	"github.com/fd1az/tonswap/internal/catalog"
	"github.com/fd1az/tonswap/internal/config"
	"github.com/fd1az/tonswap/internal/di"
	"github.com/fd1az/tonswap/internal/logger"
	"github.com/fd1az/tonswap/internal/monolith"
)

// Module implements the gateway bounded context.
type Module struct{}

// RegisterServices registers all gateway services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, gatewayDI.RESTHandler, func(sr di.ServiceRegistry) *rest.Handler {
		log := sr.Get("logger").(logger.LoggerInterface)
		return rest.NewHandler(swapDI.GetSwapService(sr), quotingDI.GetAggregator(sr), log)
	})

	di.RegisterToken(c, gatewayDI.CatalogStore, func(sr di.ServiceRegistry) *catalog.Store {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return catalog.NewStore(cfg.Proxy.CatalogPath, log)
	})

	di.RegisterToken(c, gatewayDI.ProxyHandler, func(sr di.ServiceRegistry) *proxy.Handler {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		handler, err := proxy.NewHandler(cfg.Proxy, gatewayDI.GetCatalogStore(sr), log)
		if err != nil {
			panic("failed to create proxy: " + err.Error())
		}
		return handler
	})

	return nil
}

// Startup mounts the routes and starts the catalog watcher.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()
	router := mono.Router()
	services := mono.Services()

	mono.Health().Mount(router)
	gatewayDI.GetRESTHandler(services).Mount(router)

	if !cfg.Proxy.Enabled {
		log.Info(ctx, "gateway module started", "proxy", false)
		return nil
	}

	store := gatewayDI.GetCatalogStore(services)
	if err := store.Start(context.WithoutCancel(ctx)); err != nil {
		log.Warn(ctx, "catalog watcher not started", "path", cfg.Proxy.CatalogPath, "error", err)
	}
	mono.OnShutdown(func(context.Context) error {
		return store.Close()
	})

	gatewayDI.GetProxyHandler(services).Mount(router)

	log.Info(ctx, "gateway module started",
		"proxy", true,
		"upstream", cfg.Proxy.UpstreamURL,
		"prefixes", cfg.Proxy.Prefixes)
	return nil
}
