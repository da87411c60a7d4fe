package upstream

import (
	"bytes"
	"encoding/json"
	"math/big"

	"github.com/fd1az/tonswap/internal/asset"
)

// Text decodes a JSON string or number as its text. Other JSON values
// decode to "" without failing the surrounding document.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*t = Text(data)
	default:
		*t = ""
	}
	return nil
}

// Decimals reads a decimals field, falling back when absent or out of range.
func Decimals(u asset.Units, fallback uint8) uint8 {
	if !u.Valid || u.Int == nil || u.Int.Sign() < 0 || u.Int.Cmp(big.NewInt(255)) > 0 {
		return fallback
	}
	return uint8(u.Int.Uint64())
}

// FirstValid returns the first valid amount, or nil.
func FirstValid(values ...asset.Units) *big.Int {
	for _, v := range values {
		if v.Valid && v.Int != nil {
			return v.BigInt()
		}
	}
	return nil
}
