// Package di contains dependency injection tokens for the quoting context.
package di

import (
	"github.com/fd1az/tonswap/business/quoting/app"
	"github.com/fd1az/tonswap/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Aggregator = di.NewToken[*app.Aggregator]("quoting.Aggregator")
)

// Private dependency tokens - internal to quoting module
var (
	DeDustBackend = di.NewToken[app.Backend]("quoting:dedustBackend")
	StonFiBackend = di.NewToken[app.Backend]("quoting:stonfiBackend")
)

// Helper functions for type-safe access
func GetAggregator(c di.ServiceRegistry) *app.Aggregator {
	return di.GetToken(c, Aggregator)
}

func GetDeDustBackend(c di.ServiceRegistry) app.Backend {
	return di.GetToken(c, DeDustBackend)
}

func GetStonFiBackend(c di.ServiceRegistry) app.Backend {
	return di.GetToken(c, StonFiBackend)
}
