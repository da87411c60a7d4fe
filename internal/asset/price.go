package asset

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// PricePrecision is the number of decimals used for pool price ratios.
const PricePrecision = 9

// ReserveRatio returns reserveOut/reserveIn rounded to PricePrecision
// decimals. ok is false when either reserve is missing or reserveIn is zero.
func ReserveRatio(reserveIn, reserveOut *big.Int) (string, bool) {
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 {
		return "", false
	}

	in := decimal.NewFromBigInt(reserveIn, 0)
	out := decimal.NewFromBigInt(reserveOut, 0)
	return out.DivRound(in, PricePrecision).StringFixed(PricePrecision), true
}
