// Package di contains dependency injection tokens for the swap context.
package di

import (
	"github.com/fd1az/tonswap/business/swap/app"
	"github.com/fd1az/tonswap/internal/di"
)

// Public service tokens - exposed to other modules
var (
	SwapService = di.NewToken[*app.Service]("swap.Service")
)

// Helper functions for type-safe access
func GetSwapService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, SwapService)
}
