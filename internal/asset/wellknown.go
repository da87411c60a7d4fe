package asset

import (
	"errors"
	"fmt"

	"github.com/xssnick/tonutils-go/address"
)

// Native coin metadata.
const (
	NativeSymbol   = "TON"
	NativeName     = "Toncoin"
	NativeDecimals = 9
)

// ZeroAddress is the all-zero user-friendly address some backends use to
// denote the native coin in place of a jetton master.
const ZeroAddress = "EQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAM9c"

// Common errors
var (
	ErrEmptyAddress  = errors.New("asset: token address is empty after normalization")
	ErrInvalidUnits  = errors.New("asset: amount must be a non-negative integer")
	ErrUnitsTooLarge = errors.New("asset: amount exceeds 256 bits")
)

// ValidateAddress checks that s is a well-formed TON address in
// user-friendly or raw form.
func ValidateAddress(s string) error {
	if _, err := address.ParseAddr(s); err == nil {
		return nil
	}
	if _, err := address.ParseRawAddr(s); err == nil {
		return nil
	}
	return fmt.Errorf("asset: invalid TON address %q", s)
}
