package domain

import (
	quotingdomain "github.com/fd1az/tonswap/business/quoting/domain"
	"github.com/fd1az/tonswap/internal/asset"
)

// EstimateResult is the best quote with its slippage bound and the
// per-backend comparison.
type EstimateResult struct {
	Success      bool                                `json:"success"`
	OutputAmount asset.Units                         `json:"outputAmount"`
	MinReceived  asset.Units                         `json:"minReceived"`
	PriceImpact  string                              `json:"priceImpact"`
	Fee          asset.Units                         `json:"fee"`
	Route        string                              `json:"route"`
	Dex          string                              `json:"dex"`
	Slippage     float64                             `json:"slippage"`
	Comparison   map[string]*quotingdomain.QuoteView `json:"comparison"`
}

// BuildResult is a settlement instruction plus the parameters it was built
// from. Token references are echoed as the client sent them.
type BuildResult struct {
	Success       bool        `json:"success"`
	Transaction   Transaction `json:"transaction"`
	FromToken     string      `json:"fromToken"`
	ToToken       string      `json:"toToken"`
	Amount        asset.Units `json:"amount"`
	MinReceived   asset.Units `json:"minReceived"`
	SenderAddress string      `json:"senderAddress"`
	EstimatedGas  asset.Units `json:"estimatedGas"`
}
