// Package asset models the fungible units swapped on TON: the native coin
// and jettons identified by their master contract address.
// Amounts are always integers in base units (nanotons for TON).
package asset

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Kind distinguishes the native coin from jettons. Settlement instructions
// differ structurally between the two.
type Kind string

const (
	KindNative Kind = "native"
	KindToken  Kind = "jetton"
)

var addressStrip = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Asset is a value object. Identity is Kind plus normalized address; the
// metadata fields are display-only.
type Asset struct {
	kind     Kind
	address  string
	symbol   string
	name     string
	decimals uint8
}

// Native returns the TON asset.
func Native() Asset {
	return Asset{kind: KindNative, symbol: NativeSymbol, name: NativeName, decimals: NativeDecimals}
}

// Token returns a jetton asset for address. The address is normalized.
func Token(address string) Asset {
	return Asset{kind: KindToken, address: NormalizeAddress(address)}
}

// Parse interprets a client supplied token reference. "", "native" and
// "TON" denote the native coin; anything else is a jetton address.
func Parse(ref string) (Asset, error) {
	if IsNativeRef(ref) {
		return Native(), nil
	}

	a := Token(ref)
	if a.address == "" {
		return Asset{}, ErrEmptyAddress
	}
	return a, nil
}

// IsNativeRef reports whether ref names the native coin.
func IsNativeRef(ref string) bool {
	return ref == "" || ref == "native" || ref == NativeSymbol
}

// NormalizeAddress strips every character outside [A-Za-z0-9_-].
func NormalizeAddress(address string) string {
	return addressStrip.ReplaceAllString(address, "")
}

// WithMetadata returns a copy carrying display metadata.
func (a Asset) WithMetadata(symbol, name string, decimals uint8) Asset {
	a.symbol = symbol
	a.name = name
	a.decimals = decimals
	return a
}

func (a Asset) Kind() Kind {
	return a.kind
}

// Address is empty for the native coin.
func (a Asset) Address() string {
	return a.address
}

func (a Asset) Symbol() string {
	return a.symbol
}

// Name falls back to the symbol.
func (a Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

func (a Asset) Decimals() uint8 {
	return a.decimals
}

func (a Asset) IsNative() bool {
	return a.kind == KindNative
}

func (a Asset) IsToken() bool {
	return a.kind == KindToken
}

// Key is the stable identity: "native" or the normalized address.
func (a Asset) Key() string {
	if a.IsNative() {
		return string(KindNative)
	}
	return a.address
}

// Equals compares identity only. Native matches native regardless of
// metadata; jettons match on normalized address.
func (a Asset) Equals(other Asset) bool {
	if a.kind != other.kind {
		return false
	}
	return a.IsNative() || a.address == other.address
}

// String returns the symbol when known, else the key.
func (a Asset) String() string {
	if a.symbol != "" {
		return a.symbol
	}
	return a.Key()
}

type assetJSON struct {
	Type     Kind   `json:"type"`
	Address  string `json:"address,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
	Decimals uint8  `json:"decimals"`
}

// MarshalJSON renders the canonical asset shape returned to clients.
func (a Asset) MarshalJSON() ([]byte, error) {
	return json.Marshal(assetJSON{
		Type:     a.kind,
		Address:  a.address,
		Symbol:   a.symbol,
		Name:     a.name,
		Decimals: a.decimals,
	})
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (a *Asset) UnmarshalJSON(data []byte) error {
	var raw assetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.EqualFold(string(raw.Type), string(KindNative)) {
		*a = Native()
		return nil
	}
	*a = Token(raw.Address).WithMetadata(raw.Symbol, raw.Name, raw.Decimals)
	return nil
}
