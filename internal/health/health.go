// Package health provides HTTP health check endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// Status represents the health check response.
type Status struct {
	Status        string           `json:"status"`
	WSClients     int              `json:"wsClients"`
	Subscriptions int              `json:"subscriptions"`
	Checks        map[string]Check `json:"checks"`
	Version       string           `json:"version,omitempty"`
	Timestamp     string           `json:"timestamp"`
}

// Check represents an individual health check.
type Check struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// CheckFunc is a function that performs a health check.
type CheckFunc func(ctx context.Context) (bool, string)

// StatsFunc reports live connection and subscription counts.
type StatsFunc func() (clients, subscriptions int)

// Handler serves /health, /ready and /live.
type Handler struct {
	version string
	checks  map[string]CheckFunc
	stats   StatsFunc
	mu      sync.RWMutex
}

// NewHandler creates a new health handler.
func NewHandler(version string) *Handler {
	return &Handler{
		version: version,
		checks:  make(map[string]CheckFunc),
	}
}

// RegisterCheck registers a health check function.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// SetStats sets the source of the connection counters.
func (h *Handler) SetStats(stats StatsFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats = stats
}

// Mount registers the probe routes.
func (h *Handler) Mount(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/ready", h.handleReady).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/live", h.handleLive).Methods(http.MethodGet, http.MethodOptions)
}

// Snapshot runs every check and returns the aggregate status.
func (h *Handler) Snapshot(ctx context.Context) Status {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	checks := make(map[string]CheckFunc, len(h.checks))
	for k, v := range h.checks {
		names = append(names, k)
		checks[k] = v
	}
	stats := h.stats
	h.mu.RUnlock()
	sort.Strings(names)

	status := Status{
		Status:    "ok",
		Checks:    make(map[string]Check, len(checks)),
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if stats != nil {
		status.WSClients, status.Subscriptions = stats()
	}

	for _, name := range names {
		healthy, msg := checks[name](ctx)
		status.Checks[name] = Check{
			Healthy: healthy,
			Message: msg,
		}
		if !healthy {
			status.Status = "degraded"
		}
	}
	return status
}

// handleHealth returns full health status with all checks. A degraded
// backend does not take the service out of rotation, so this is always 200.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(h.Snapshot(ctx))
}

// handleReady returns 503 until every check passes.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.Snapshot(ctx).Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// handleLive returns whether the service is alive (simple liveness probe).
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}
