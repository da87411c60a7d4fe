// Package di is a small dependency injection container with lazily built
// singletons and typed tokens.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves services by name.
type ServiceRegistry interface {
	Get(name string) any
}

// Factory builds a service on first use.
type Factory func(sr ServiceRegistry) any

// Container stores instances and factories.
type Container interface {
	ServiceRegistry
	Register(name string, instance any)
	RegisterFactory(name string, factory Factory)
	Has(name string) bool
}

type container struct {
	mu        sync.Mutex
	instances map[string]any
	factories map[string]Factory
	building  map[string]bool
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		instances: make(map[string]any),
		factories: make(map[string]Factory),
		building:  make(map[string]bool),
	}
}

// Register stores a ready instance.
func (c *container) Register(name string, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[name] = instance
}

// RegisterFactory stores a factory evaluated once on the first Get.
func (c *container) RegisterFactory(name string, factory Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = factory
	delete(c.instances, name)
}

// Has reports whether name was registered as an instance or factory.
func (c *container) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.instances[name]
	if !ok {
		_, ok = c.factories[name]
	}
	return ok
}

// Get returns the service, building it if needed. Panics for unknown names
// and dependency cycles, both of which are wiring bugs.
func (c *container) Get(name string) any {
	c.mu.Lock()
	if v, ok := c.instances[name]; ok {
		c.mu.Unlock()
		return v
	}
	factory, ok := c.factories[name]
	if !ok {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: service %q is not registered", name))
	}
	if c.building[name] {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: dependency cycle while building %q", name))
	}
	c.building[name] = true
	c.mu.Unlock()

	// Factories resolve their own dependencies, so the lock is released here.
	v := factory(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.building, name)
	if existing, ok := c.instances[name]; ok {
		return existing
	}
	c.instances[name] = v
	return v
}

// Token is a typed handle to a service.
type Token[T any] struct {
	name string
}

// NewToken creates a token for name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registry key.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a typed factory.
func RegisterToken[T any](c Container, token Token[T], factory func(sr ServiceRegistry) T) {
	c.RegisterFactory(token.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves a typed service.
func GetToken[T any](sr ServiceRegistry, token Token[T]) T {
	v, ok := sr.Get(token.name).(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has unexpected type", token.name))
	}
	return v
}
