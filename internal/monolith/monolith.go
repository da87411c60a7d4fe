// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"errors"

	"github.com/gorilla/mux"

	"github.com/fd1az/tonswap/internal/asset"
	"github.com/fd1az/tonswap/internal/config"
	"github.com/fd1az/tonswap/internal/di"
	"github.com/fd1az/tonswap/internal/health"
	"github.com/fd1az/tonswap/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	AssetRegistry() *asset.Registry
	Router() *mux.Router
	Health() *health.Handler
	Services() di.ServiceRegistry
	// OnShutdown registers a hook run by Close in reverse order.
	OnShutdown(fn func(context.Context) error)
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	assetRegistry *asset.Registry
	router        *mux.Router
	health        *health.Handler
	container     di.Container
	shutdown      []func(context.Context) error
}

// New creates a new Monolith instance.
func New(cfg *config.Config, log logger.LoggerInterface, router *mux.Router, version string) *app {
	assetRegistry := asset.NewRegistry()
	healthHandler := health.NewHandler(version)

	container := di.NewContainer()

	// Register global services
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("assetRegistry", assetRegistry)
	container.Register("health", healthHandler)

	return &app{
		config:        cfg,
		logger:        log,
		assetRegistry: assetRegistry,
		router:        router,
		health:        healthHandler,
		container:     container,
	}
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *app) Router() *mux.Router {
	return a.router
}

func (a *app) Health() *health.Handler {
	return a.health
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

func (a *app) OnShutdown(fn func(context.Context) error) {
	a.shutdown = append(a.shutdown, fn)
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close runs the shutdown hooks, last registered first.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
