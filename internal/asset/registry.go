package asset

import (
	"sort"
	"sync"
)

// Registry is a thread-safe catalogue of assets learned from the backends.
// It is seeded with the native coin and only ever adds metadata.
type Registry struct {
	byKey    map[string]Asset
	bySymbol map[string][]string // symbol -> keys, a symbol can map to several jettons
	mu       sync.RWMutex
}

// NewRegistry creates a registry holding only TON.
func NewRegistry() *Registry {
	r := &Registry{
		byKey:    make(map[string]Asset),
		bySymbol: make(map[string][]string),
	}
	r.Upsert(Native())
	return r
}

// Upsert stores a. Existing entries keep their metadata unless a carries a
// symbol and the stored entry does not.
func (r *Registry) Upsert(a Asset) {
	key := a.Key()
	if key == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byKey[key]
	if ok && (existing.Symbol() != "" || a.Symbol() == "") {
		return
	}

	r.byKey[key] = a
	if a.Symbol() != "" {
		r.bySymbol[a.Symbol()] = append(r.bySymbol[a.Symbol()], key)
	}
}

// UpsertAll stores every asset in list.
func (r *Registry) UpsertAll(list []Asset) {
	for _, a := range list {
		r.Upsert(a)
	}
}

// Get looks up an asset by identity.
func (r *Registry) Get(a Asset) (Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found, ok := r.byKey[a.Key()]
	return found, ok
}

// SymbolOf returns the known symbol for a, or "".
func (r *Registry) SymbolOf(a Asset) string {
	if a.Symbol() != "" {
		return a.Symbol()
	}
	found, ok := r.Get(a)
	if !ok {
		return ""
	}
	return found.Symbol()
}

// BySymbol returns every asset registered under symbol.
func (r *Registry) BySymbol(symbol string) []Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := r.bySymbol[symbol]
	result := make([]Asset, 0, len(keys))
	for _, k := range keys {
		result = append(result, r.byKey[k])
	}
	return result
}

// All returns every asset ordered by key.
func (r *Registry) All() []Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Asset, 0, len(r.byKey))
	for _, a := range r.byKey {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key() < result[j].Key() })
	return result
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}
