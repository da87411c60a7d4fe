package domain

import (
	"github.com/fd1az/tonswap/internal/asset"
)

// PriceEntry is one pair in the bulk price view.
type PriceEntry struct {
	Dex         string        `json:"dex"`
	Address     string        `json:"address"`
	Reserves    []asset.Units `json:"reserves"`
	TotalSupply *asset.Units  `json:"totalSupply,omitempty"`
	Price       *string       `json:"price"` // reserve1/reserve0 with 9 decimals, null when not computable
}

// NewPriceEntry builds the entry for pool.
func NewPriceEntry(pool Pool) PriceEntry {
	entry := PriceEntry{
		Dex:      pool.Backend,
		Address:  pool.Address,
		Reserves: unitsOf(pool.Reserves),
	}
	if pool.TotalSupply != nil {
		ts := asset.NewUnits(pool.TotalSupply)
		entry.TotalSupply = &ts
	}
	if price, ok := asset.ReserveRatio(pool.Reserve(0), pool.Reserve(1)); ok {
		entry.Price = &price
	}
	return entry
}
