// Package domain contains the quoting value types shared by every backend.
package domain

import (
	"encoding/json"
	"math/big"

	"github.com/fd1az/tonswap/internal/asset"
)

// Pool is a liquidity venue on one backend. Reserves[i] belongs to Assets[i].
type Pool struct {
	Backend     string
	Address     string
	Assets      []asset.Asset
	Reserves    []*big.Int
	TotalSupply *big.Int // nil when the backend does not report it
}

// IndexOf returns the position of a in the pool, or -1.
func (p Pool) IndexOf(a asset.Asset) int {
	for i, pa := range p.Assets {
		if pa.Equals(a) {
			return i
		}
	}
	return -1
}

// Contains reports whether both assets trade in this pool.
func (p Pool) Contains(from, to asset.Asset) bool {
	return p.IndexOf(from) >= 0 && p.IndexOf(to) >= 0
}

// Usable reports whether the pool has enough reserves for local pricing.
func (p Pool) Usable() bool {
	return len(p.Reserves) >= 2 && len(p.Assets) >= 2
}

// Reserve returns reserve i or nil when absent.
func (p Pool) Reserve(i int) *big.Int {
	if i < 0 || i >= len(p.Reserves) {
		return nil
	}
	return p.Reserves[i]
}

type poolJSON struct {
	Address     string        `json:"address"`
	Assets      []asset.Asset `json:"assets"`
	Reserves    []asset.Units `json:"reserves"`
	TotalSupply *asset.Units  `json:"totalSupply,omitempty"`
}

// MarshalJSON renders the normalized listing shape.
func (p Pool) MarshalJSON() ([]byte, error) {
	out := poolJSON{
		Address:  p.Address,
		Assets:   p.Assets,
		Reserves: unitsOf(p.Reserves),
	}
	if out.Assets == nil {
		out.Assets = []asset.Asset{}
	}
	if p.TotalSupply != nil {
		ts := asset.NewUnits(p.TotalSupply)
		out.TotalSupply = &ts
	}
	return json.Marshal(out)
}

func unitsOf(values []*big.Int) []asset.Units {
	out := make([]asset.Units, len(values))
	for i, v := range values {
		out[i] = asset.NewUnits(v)
	}
	return out
}
