// Package di contains dependency injection tokens for the session context.
package di

import (
	"github.com/fd1az/tonswap/business/session/app"
	"github.com/fd1az/tonswap/business/session/infra/ws"
	"github.com/fd1az/tonswap/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Manager = di.NewToken[*app.Manager]("session.Manager")
)

// Private dependency tokens - internal to session module
var (
	WSHandler = di.NewToken[*ws.Handler]("session:wsHandler")
)

func GetManager(c di.ServiceRegistry) *app.Manager {
	return di.GetToken(c, Manager)
}

func GetWSHandler(c di.ServiceRegistry) *ws.Handler {
	return di.GetToken(c, WSHandler)
}
