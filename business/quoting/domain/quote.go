package domain

import (
	"math/big"

	"github.com/fd1az/tonswap/internal/asset"
)

// Route tags reported by the backends.
const (
	RoutePool      = "pool"
	RouteDirect    = "direct"
	RouteEstimated = "estimated"
)

// Quote is one backend's answer for a swap of a fixed input amount.
type Quote struct {
	Backend     string
	Output      *big.Int
	PriceImpact string // percent, as reported or computed
	Fee         *big.Int
	Route       string
	PoolAddress string
}

// QuoteView is the wire shape of a quote.
type QuoteView struct {
	OutputAmount asset.Units `json:"outputAmount"`
	PriceImpact  string      `json:"priceImpact"`
	Fee          asset.Units `json:"fee"`
	Route        string      `json:"route"`
	PoolAddress  string      `json:"poolAddress,omitempty"`
}

// View converts q to its wire shape. A nil quote gives nil.
func (q *Quote) View() *QuoteView {
	if q == nil {
		return nil
	}
	fee := q.Fee
	if fee == nil {
		fee = new(big.Int)
	}
	impact := q.PriceImpact
	if impact == "" {
		impact = "0"
	}
	return &QuoteView{
		OutputAmount: asset.NewUnits(q.Output),
		PriceImpact:  impact,
		Fee:          asset.NewUnits(fee),
		Route:        q.Route,
		PoolAddress:  q.PoolAddress,
	}
}

// Estimate is the aggregated result for one swap request.
type Estimate struct {
	Winner  *Quote
	Backend string
	// ByBackend holds every backend's quote, nil for omitted ones.
	ByBackend map[string]*Quote
}

// Comparison returns the per-backend wire views, null for omitted backends.
func (e *Estimate) Comparison() map[string]*QuoteView {
	out := make(map[string]*QuoteView, len(e.ByBackend))
	for name, q := range e.ByBackend {
		out[name] = q.View()
	}
	return out
}
