// Package swap implements the swap bounded context: estimates with slippage
// bounds and unsigned settlement instructions.
package swap

import (
	"context"

	quotingDI "github.com/fd1az/tonswap/business/quoting/di"
	"github.com/fd1az/tonswap/business/swap/app"
	swapDI "github.com/fd1az/tonswap/business/swap/di"
	"github.com/fd1az/tonswap/internal/config"
	"github.com/fd1az/tonswap/internal/di"
	"github.com/fd1az/tonswap/internal/logger"
	"github.com/fd1az/tonswap/internal/monolith"
)

// Module implements the swap bounded context.
type Module struct{}

// RegisterServices registers all swap services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, swapDI.SwapService, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewService(quotingDI.GetAggregator(sr), app.Options{
			DefaultBackend:  cfg.Quoting.DefaultBackend,
			DefaultSlippage: cfg.Quoting.DefaultSlippageDecimal(),
			Settlement:      app.SettlementFromConfig(cfg.Settlement),
		}, log)
	})

	return nil
}

// Startup initializes the swap module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	settlement := app.SettlementFromConfig(mono.Config().Settlement)

	mono.Logger().Info(ctx, "swap module started",
		"vault", settlement.Vault,
		"factory", settlement.Factory,
		"defaultBackend", mono.Config().Quoting.DefaultBackend)
	return nil
}
