// Package rest serves the HTTP mirror of the WebSocket request/response
// messages.
package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	quotingdomain "github.com/fd1az/tonswap/business/quoting/domain"
	swapapp "github.com/fd1az/tonswap/business/swap/app"
	swapdomain "github.com/fd1az/tonswap/business/swap/domain"
	"github.com/fd1az/tonswap/internal/asset"
	"github.com/fd1az/tonswap/internal/logger"
	"github.com/fd1az/tonswap/internal/web"
)

// Swapper answers estimate and build requests.
type Swapper interface {
	Estimate(ctx context.Context, req swapapp.EstimateRequest) (*swapdomain.EstimateResult, error)
	Build(ctx context.Context, req swapapp.BuildRequest) (*swapdomain.BuildResult, error)
}

// Market lists pools, assets and prices across backends.
type Market interface {
	Pools(ctx context.Context, dex string) map[string][]quotingdomain.Pool
	Assets(ctx context.Context) map[string][]asset.Asset
	Prices(ctx context.Context, pairs []string) map[string]quotingdomain.PriceEntry
}

var _ Swapper = (*swapapp.Service)(nil)

// Handler holds the REST routes.
type Handler struct {
	swap   Swapper
	market Market
	logger logger.LoggerInterface
}

// NewHandler creates the REST handler.
func NewHandler(swap Swapper, market Market, log logger.LoggerInterface) *Handler {
	return &Handler{swap: swap, market: market, logger: log}
}

// Mount registers the routes on r.
func (h *Handler) Mount(r *mux.Router) {
	r.HandleFunc("/assets", h.handleAssets).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/pools", h.handlePools).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/prices", h.handlePrices).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/estimate", h.handleEstimate).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/build", h.handleBuild).Methods(http.MethodPost, http.MethodOptions)
}

func (h *Handler) handleAssets(w http.ResponseWriter, r *http.Request) {
	byBackend := h.market.Assets(r.Context())

	out := make(map[string]any, len(byBackend)+1)
	for name, list := range byBackend {
		out[name] = list
	}
	out["success"] = true
	web.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handlePools(w http.ResponseWriter, r *http.Request) {
	byBackend := h.market.Pools(r.Context(), r.URL.Query().Get("dex"))

	out := make(map[string]any, len(byBackend)+1)
	for name, list := range byBackend {
		out[name] = list
	}
	out["success"] = true
	web.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handlePrices(w http.ResponseWriter, r *http.Request) {
	pairs := parsePairs(r.URL.Query().Get("pairs"))

	web.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"prices":    h.market.Prices(r.Context(), pairs),
		"timestamp": time.Now().UnixMilli(),
	})
}

func (h *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req swapapp.EstimateRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, err)
		return
	}

	res, err := h.swap.Estimate(r.Context(), req)
	if err != nil {
		h.logger.Debug(r.Context(), "estimate failed", "error", err)
		web.WriteError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, estimateResponse{EstimateResult: res, Timestamp: time.Now().UnixMilli()})
}

func (h *Handler) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req swapapp.BuildRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, err)
		return
	}

	res, err := h.swap.Build(r.Context(), req)
	if err != nil {
		h.logger.Debug(r.Context(), "build failed", "error", err)
		web.WriteError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, buildResponse{BuildResult: res, Timestamp: time.Now().UnixMilli()})
}

type estimateResponse struct {
	*swapdomain.EstimateResult
	Timestamp int64 `json:"timestamp"`
}

type buildResponse struct {
	*swapdomain.BuildResult
	Timestamp int64 `json:"timestamp"`
}

// parsePairs splits "A/B,C/D". An empty list selects every pair.
func parsePairs(raw string) []string {
	parts := lo.Map(strings.Split(raw, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Compact(parts)
}
