// Package domain contains the settlement instruction types handed to
// wallets for signing.
package domain

import (
	"math/big"

	"github.com/fd1az/tonswap/internal/asset"
)

// Payload operations.
const (
	OpSwap     = "swap"
	OpTransfer = "transfer"
)

// Transaction is an unsigned message: send Value nanotons to To with Payload.
type Transaction struct {
	To      string      `json:"to"`
	Value   asset.Units `json:"value"`
	Payload any         `json:"payload"`
}

// ValueInt returns the attached native value.
func (t Transaction) ValueInt() *big.Int {
	return t.Value.BigInt()
}

// NativeSwapPayload swaps TON sent to the vault.
type NativeSwapPayload struct {
	Op          string      `json:"op"`
	PoolAddress string      `json:"poolAddress"`
	MinOut      asset.Units `json:"minOut"`
	Recipient   string      `json:"recipient"`
	Referral    *string     `json:"referral"`
}

// JettonTransferPayload moves jettons to Destination and forwards a swap.
type JettonTransferPayload struct {
	Op             string         `json:"op"`
	Destination    string         `json:"destination"`
	Amount         asset.Units    `json:"amount"`
	ForwardPayload ForwardPayload `json:"forwardPayload"`
}

// ForwardPayload is the swap carried by a jetton transfer. PoolAddress is
// empty when the output is TON.
type ForwardPayload struct {
	Op          string      `json:"op"`
	PoolAddress string      `json:"poolAddress,omitempty"`
	MinOut      asset.Units `json:"minOut"`
	Recipient   string      `json:"recipient"`
}
