// Package session implements the session bounded context: WebSocket clients
// and their periodic price subscriptions.
package session

import (
	"context"

	quotingDI "github.com/fd1az/tonswap/business/quoting/di"
	"github.com/fd1az/tonswap/business/session/app"
	sessionDI "github.com/fd1az/tonswap/business/session/di"
	"github.com/fd1az/tonswap/business/session/infra/ws"
	swapDI "github.com/fd1az/tonswap/business/swap/di"
	"github.com/fd1az/tonswap/internal/config"
	"github.com/fd1az/tonswap/internal/di"
	"github.com/fd1az/tonswap/internal/logger"
	"github.com/fd1az/tonswap/internal/monolith"
	"github.com/fd1az/tonswap/internal/wsconn"
)

// Module implements the session bounded context.
type Module struct{}

// RegisterServices registers all session services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, sessionDI.Manager, func(sr di.ServiceRegistry) *app.Manager {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		manager, err := app.NewManager(quotingDI.GetAggregator(sr), app.Options{
			DefaultInterval: cfg.Subscription.DefaultInterval,
			MinInterval:     cfg.Subscription.MinInterval,
		}, log)
		if err != nil {
			panic("failed to create session manager: " + err.Error())
		}
		return manager
	})

	di.RegisterToken(c, sessionDI.WSHandler, func(sr di.ServiceRegistry) *ws.Handler {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		handler, err := ws.NewHandler(
			sessionDI.GetManager(sr),
			swapDI.GetSwapService(sr),
			quotingDI.GetAggregator(sr),
			connConfig(cfg.Subscription),
			log,
		)
		if err != nil {
			panic("failed to create websocket handler: " + err.Error())
		}
		return handler
	})

	return nil
}

// Startup mounts the WebSocket endpoint and reports session stats to /health.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	manager := sessionDI.GetManager(mono.Services())

	mono.Router().Handle(cfg.Server.WSPath, sessionDI.GetWSHandler(mono.Services()))
	mono.Health().SetStats(manager.Stats)
	mono.OnShutdown(manager.Close)

	mono.Logger().Info(ctx, "session module started",
		"path", cfg.Server.WSPath,
		"defaultInterval", cfg.Subscription.DefaultInterval.String())
	return nil
}

func connConfig(cfg config.SubscriptionConfig) wsconn.Config {
	c := wsconn.DefaultConfig()
	if cfg.WriteTimeout > 0 {
		c.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.PingInterval > 0 {
		c.PingInterval = cfg.PingInterval
	}
	if cfg.MaxMessageSize > 0 {
		c.MaxMessageSize = cfg.MaxMessageSize
	}
	return c
}
