package stonfi

import (
	"math/big"
	"strings"

	"github.com/fd1az/tonswap/business/quoting/domain"
	"github.com/fd1az/tonswap/business/quoting/infra/upstream"
	"github.com/fd1az/tonswap/internal/asset"
)

type poolsResponse struct {
	PoolList []poolEntry `json:"pool_list"`
}

type poolEntry struct {
	Address       string      `json:"address"`
	Token0Address string      `json:"token0_address"`
	Token1Address string      `json:"token1_address"`
	Token0Symbol  string      `json:"token0_symbol"`
	Token1Symbol  string      `json:"token1_symbol"`
	Reserve0      asset.Units `json:"reserve0"`
	Reserve1      asset.Units `json:"reserve1"`
}

type assetsResponse struct {
	AssetList []assetEntry `json:"asset_list"`
}

type assetEntry struct {
	ContractAddress string      `json:"contract_address"`
	Symbol          string      `json:"symbol"`
	DisplayName     string      `json:"display_name"`
	Decimals        asset.Units `json:"decimals"`
	Kind            string      `json:"kind"`
}

type simulateRequest struct {
	OfferAddress      string `json:"offer_address"`
	AskAddress        string `json:"ask_address"`
	Units             string `json:"units"`
	SlippageTolerance string `json:"slippage_tolerance"`
}

type simulateResponse struct {
	AskUnits    asset.Units   `json:"ask_units"`
	MinAskUnits asset.Units   `json:"min_ask_units"`
	PriceImpact upstream.Text `json:"price_impact"`
	FeeUnits    asset.Units   `json:"fee_units"`
}

func (r simulateResponse) toQuote() *domain.Quote {
	output := upstream.FirstValid(r.AskUnits, r.MinAskUnits)
	if output == nil {
		return nil
	}

	impact := string(r.PriceImpact)
	if impact == "" {
		impact = "0"
	}

	return &domain.Quote{
		Backend:     BackendName,
		Output:      output,
		PriceImpact: impact,
		Fee:         r.FeeUnits.BigInt(),
		Route:       RouteStonFi,
	}
}

// codec maps between STON.fi addresses and assets. STON.fi names the
// native coin with a placeholder jetton address.
type codec struct {
	nativeAddress string
}

func (c codec) address(a asset.Asset) string {
	if a.IsNative() {
		return c.nativeAddress
	}
	return a.Address()
}

func (c codec) isNative(address string) bool {
	return address != "" && asset.NormalizeAddress(address) == asset.NormalizeAddress(c.nativeAddress)
}

func (c codec) tokenAsset(address, symbol string) asset.Asset {
	if c.isNative(address) {
		return asset.Native()
	}
	return asset.Token(address).WithMetadata(symbol, "", 0)
}

func (c codec) toPool(e poolEntry) domain.Pool {
	return domain.Pool{
		Backend: BackendName,
		Address: e.Address,
		Assets: []asset.Asset{
			c.tokenAsset(e.Token0Address, e.Token0Symbol),
			c.tokenAsset(e.Token1Address, e.Token1Symbol),
		},
		Reserves: []*big.Int{e.Reserve0.BigInt(), e.Reserve1.BigInt()},
	}
}

func (c codec) toAsset(e assetEntry) asset.Asset {
	if c.isNative(e.ContractAddress) || strings.EqualFold(e.Kind, "ton") || strings.EqualFold(e.Kind, "native") {
		return asset.Native()
	}
	return asset.Token(e.ContractAddress).WithMetadata(e.Symbol, e.DisplayName, upstream.Decimals(e.Decimals, 0))
}
