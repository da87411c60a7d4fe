package app

import (
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/fd1az/tonswap/internal/apperror"
)

var hundred = decimal.NewFromInt(100)

// MaxSlippageScale is the finest accepted slippage precision in decimal places.
const MaxSlippageScale = 18

// scaleInRange bounds the decimal exponent. Comparing or scaling a decimal
// whose exponent lies outside it expands a power of ten of that size.
func scaleInRange(pct decimal.Decimal) bool {
	exp := pct.Exponent()
	return exp >= -MaxSlippageScale && exp <= 2
}

// ValidateSlippage checks that pct is in [0, 100) with at most
// MaxSlippageScale decimal places.
func ValidateSlippage(pct decimal.Decimal) error {
	if !scaleInRange(pct) {
		return apperror.New(apperror.CodeInvalidSlippage, apperror.WithContext("exponent "+strconv.Itoa(int(pct.Exponent()))))
	}
	if pct.IsNegative() || pct.GreaterThanOrEqual(hundred) {
		return apperror.New(apperror.CodeInvalidSlippage, apperror.WithContext(pct.String()))
	}
	return nil
}

// MinReceived returns floor(output * (100 - pct) / 100) using exact integer
// arithmetic. Slippage outside [0, 100) is clamped; slippage that fails
// ValidateSlippage on its precision yields zero.
func MinReceived(output *big.Int, pct decimal.Decimal) *big.Int {
	if output == nil || output.Sign() <= 0 || !scaleInRange(pct) {
		return new(big.Int)
	}
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	if pct.GreaterThanOrEqual(hundred) {
		return new(big.Int)
	}

	// pct = coef * 10^exp. Scale both sides so the percentage is an integer.
	coef := pct.Coefficient()
	exp := pct.Exponent()

	scale := big.NewInt(1)
	if exp < 0 {
		scale.Exp(big.NewInt(10), big.NewInt(int64(-exp)), nil)
	} else if exp > 0 {
		coef.Mul(coef, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
	}

	denom := new(big.Int).Mul(big.NewInt(100), scale)
	keep := new(big.Int).Sub(denom, coef)

	result := new(big.Int).Mul(output, keep)
	return result.Quo(result, denom)
}
