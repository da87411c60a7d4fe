// Package di contains dependency injection tokens for the gateway context.
package di

import (
	"github.com/fd1az/tonswap/business/gateway/infra/proxy"
	"github.com/fd1az/tonswap/business/gateway/infra/rest"
	"github.com/fd1az/tonswap/internal/catalog"
	"github.com/fd1az/tonswap/internal/di"
)

// Private dependency tokens - internal to gateway module
var (
	RESTHandler  = di.NewToken[*rest.Handler]("gateway:restHandler")
	ProxyHandler = di.NewToken[*proxy.Handler]("gateway:proxyHandler")
	CatalogStore = di.NewToken[*catalog.Store]("gateway:catalogStore")
)

func GetRESTHandler(c di.ServiceRegistry) *rest.Handler {
	return di.GetToken(c, RESTHandler)
}

func GetProxyHandler(c di.ServiceRegistry) *proxy.Handler {
	return di.GetToken(c, ProxyHandler)
}

func GetCatalogStore(c di.ServiceRegistry) *catalog.Store {
	return di.GetToken(c, CatalogStore)
}
