package app

import (
	"bytes"
	"encoding/json"
	"math/big"

	"github.com/shopspring/decimal"

	quotingapp "github.com/fd1az/tonswap/business/quoting/app"
	"github.com/fd1az/tonswap/internal/apperror"
	"github.com/fd1az/tonswap/internal/asset"
)

// EstimateRequest is the client input of an estimate. Amount accepts a JSON
// string or number.
type EstimateRequest struct {
	FromToken string           `json:"fromToken"`
	ToToken   string           `json:"toToken"`
	Amount    json.RawMessage  `json:"amount"`
	Slippage  *decimal.Decimal `json:"slippage"`
}

// BuildRequest is the client input of a build. MinReceived is derived from
// a fresh quote when absent.
type BuildRequest struct {
	FromToken     string           `json:"fromToken"`
	ToToken       string           `json:"toToken"`
	Amount        json.RawMessage  `json:"amount"`
	MinReceived   json.RawMessage  `json:"minReceived"`
	SenderAddress string           `json:"senderAddress"`
	Slippage      *decimal.Decimal `json:"slippage"`
}

// pair is a parsed token pair and input amount.
type pair struct {
	from, to asset.Asset
	amount   *big.Int
}

func parsePair(fromRef, toRef string, rawAmount json.RawMessage, missing *apperror.AppError) (pair, error) {
	if fromRef == "" || toRef == "" || isEmpty(rawAmount) {
		return pair{}, missing
	}

	amount, err := parseAmount(rawAmount)
	if err != nil {
		return pair{}, err
	}
	// A zero amount is treated like a missing one.
	if amount.Sign() == 0 {
		return pair{}, missing
	}

	from, err := asset.Parse(fromRef)
	if err != nil {
		return pair{}, apperror.New(apperror.CodeMissingParameter, apperror.WithCause(err), apperror.WithContext("fromToken"))
	}
	to, err := asset.Parse(toRef)
	if err != nil {
		return pair{}, apperror.New(apperror.CodeMissingParameter, apperror.WithCause(err), apperror.WithContext("toToken"))
	}

	return pair{from: from, to: to, amount: amount}, nil
}

// parseAmount accepts only plain base-unit integers from clients.
func parseAmount(raw json.RawMessage) (*big.Int, error) {
	v, err := asset.ParseUnitsJSON(raw)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidAmount, apperror.WithCause(err), apperror.WithContext(clip(string(raw))))
	}
	return v, nil
}

func clip(s string) string {
	const max = 64
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func isEmpty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`))
}

// slippageOr validates pct, falling back to def when absent.
func slippageOr(pct *decimal.Decimal, def decimal.Decimal) (decimal.Decimal, error) {
	s := def
	if pct != nil {
		s = *pct
	}
	if err := quotingapp.ValidateSlippage(s); err != nil {
		return decimal.Zero, err
	}
	return s, nil
}
