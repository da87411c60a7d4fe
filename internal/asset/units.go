package asset

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
)

// MaxUnitsBits bounds every amount the service accepts.
const MaxUnitsBits = 256

// maxUnitsDigits leaves room for leading zeros above the 78 digits of 2^256.
const maxUnitsDigits = 96

// ParseUnits parses a base-unit integer amount. Leading and trailing
// whitespace is ignored; signs, fractions and exponents are rejected.
func ParseUnits(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "+-") {
		return nil, ErrInvalidUnits
	}
	if len(s) > maxUnitsDigits {
		return nil, ErrUnitsTooLarge
	}

	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, ErrInvalidUnits
	}
	if v.BitLen() > MaxUnitsBits {
		return nil, ErrUnitsTooLarge
	}
	return v, nil
}

// ParseUnitsJSON decodes a client amount given as a JSON string or integer
// number. Unlike Units it has no float fallback, so "1e9" is rejected.
func ParseUnitsJSON(data []byte) (*big.Int, error) {
	data = bytes.TrimSpace(data)
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	return ParseUnits(raw)
}

// Units is a base-unit integer that decodes from a JSON string or number
// and encodes as a JSON string, so amounts beyond 2^53 survive the trip.
// A JSON null or empty string decodes to the zero value with Valid false.
type Units struct {
	Int   *big.Int
	Valid bool
}

// NewUnits wraps v.
func NewUnits(v *big.Int) Units {
	if v == nil {
		return Units{}
	}
	return Units{Int: new(big.Int).Set(v), Valid: true}
}

// BigInt returns a copy, zero when not valid.
func (u Units) BigInt() *big.Int {
	if !u.Valid || u.Int == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(u.Int)
}

func (u Units) String() string {
	if !u.Valid || u.Int == nil {
		return ""
	}
	return u.Int.String()
}

// MarshalJSON encodes the amount as a decimal string, or null.
func (u Units) MarshalJSON() ([]byte, error) {
	if !u.Valid || u.Int == nil {
		return []byte("null"), nil
	}
	return json.Marshal(u.Int.String())
}

// UnmarshalJSON accepts "123", 123 and null.
func (u *Units) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = Units{}
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if strings.TrimSpace(raw) == "" {
			*u = Units{}
			return nil
		}
	}

	v, err := ParseUnits(raw)
	if errors.Is(err, ErrUnitsTooLarge) {
		return err
	}
	if err != nil {
		// Some upstreams encode integral amounts as floats ("1e9", 1000.0).
		v, err = parseFloatUnits(raw)
		if err != nil {
			return err
		}
	}
	*u = Units{Int: v, Valid: true}
	return nil
}

func parseFloatUnits(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > maxUnitsDigits {
		return nil, ErrUnitsTooLarge
	}

	f, ok := new(big.Float).SetString(raw)
	if !ok || f.Sign() < 0 || !f.IsInt() {
		return nil, ErrInvalidUnits
	}
	// The binary exponent bounds the integer width before it is expanded.
	if f.MantExp(nil) > MaxUnitsBits {
		return nil, ErrUnitsTooLarge
	}
	v, _ := f.Int(nil)
	return v, nil
}
