package dedust

import (
	"math/big"

	"github.com/fd1az/tonswap/business/quoting/domain"
	"github.com/fd1az/tonswap/business/quoting/infra/upstream"
	"github.com/fd1az/tonswap/internal/asset"
)

const (
	assetTypeNative = "native"
	assetTypeJetton = "jetton"
)

// assetRef is an asset as embedded in a pool listing.
type assetRef struct {
	Type     string         `json:"type"`
	Address  string         `json:"address"`
	Metadata *assetMetadata `json:"metadata"`
}

type assetMetadata struct {
	Symbol   string      `json:"symbol"`
	Name     string      `json:"name"`
	Decimals asset.Units `json:"decimals"`
}

func (r assetRef) toAsset() asset.Asset {
	if r.Type == assetTypeNative {
		return asset.Native()
	}
	a := asset.Token(r.Address)
	if r.Metadata != nil {
		a = a.WithMetadata(r.Metadata.Symbol, r.Metadata.Name, upstream.Decimals(r.Metadata.Decimals, 0))
	}
	return a
}

// poolResponse is one element of GET /pools.
type poolResponse struct {
	Address     string        `json:"address"`
	TotalSupply asset.Units   `json:"totalSupply"`
	Assets      []assetRef    `json:"assets"`
	Reserves    []asset.Units `json:"reserves"`
}

func (r poolResponse) toPool() domain.Pool {
	pool := domain.Pool{
		Backend:  BackendName,
		Address:  r.Address,
		Assets:   make([]asset.Asset, len(r.Assets)),
		Reserves: make([]*big.Int, len(r.Reserves)),
	}
	for i, a := range r.Assets {
		pool.Assets[i] = a.toAsset()
	}
	for i, v := range r.Reserves {
		pool.Reserves[i] = v.BigInt()
	}
	if r.TotalSupply.Valid {
		pool.TotalSupply = r.TotalSupply.BigInt()
	}
	return pool
}

// assetResponse is one element of GET /assets.
type assetResponse struct {
	Type     string      `json:"type"`
	Address  string      `json:"address"`
	Symbol   string      `json:"symbol"`
	Name     string      `json:"name"`
	Decimals asset.Units `json:"decimals"`
}

func (r assetResponse) toAsset() asset.Asset {
	if r.Type == assetTypeNative {
		return asset.Native()
	}
	return asset.Token(r.Address).WithMetadata(r.Symbol, r.Name, upstream.Decimals(r.Decimals, 0))
}

// estimateAsset identifies an asset in POST /swap/estimate.
type estimateAsset struct {
	Type    string `json:"type"`
	Address string `json:"address,omitempty"`
}

func newEstimateAsset(a asset.Asset) estimateAsset {
	if a.IsNative() {
		return estimateAsset{Type: assetTypeNative}
	}
	return estimateAsset{Type: assetTypeJetton, Address: a.Address()}
}

type estimateRequest struct {
	From   estimateAsset `json:"from"`
	To     estimateAsset `json:"to"`
	Amount string        `json:"amount"`
}

// estimateResponse accepts both camelCase and snake_case field names.
type estimateResponse struct {
	AmountOut        asset.Units   `json:"amountOut"`
	AmountOutSnake   asset.Units   `json:"amount_out"`
	PriceImpact      upstream.Text `json:"priceImpact"`
	PriceImpactSnake upstream.Text `json:"price_impact"`
	Fee              asset.Units   `json:"fee"`
	Route            upstream.Text `json:"route"`
}

func (r estimateResponse) toQuote() *domain.Quote {
	output := upstream.FirstValid(r.AmountOut, r.AmountOutSnake)
	if output == nil {
		return nil
	}

	impact := string(r.PriceImpact)
	if impact == "" {
		impact = string(r.PriceImpactSnake)
	}
	if impact == "" {
		impact = "0"
	}

	route := string(r.Route)
	if route == "" {
		route = domain.RouteDirect
	}

	return &domain.Quote{
		Backend:     BackendName,
		Output:      output,
		PriceImpact: impact,
		Fee:         r.Fee.BigInt(),
		Route:       route,
	}
}
