package asset

import (
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		native  bool
		address string
		wantErr error
	}{
		{name: "empty is native", ref: "", native: true},
		{name: "native keyword", ref: "native", native: true},
		{name: "TON symbol", ref: "TON", native: true},
		{name: "plain address", ref: "EQBynBO23ywHy_CgarY9NK9FTz0yDsG82PtcbSTQgGoXwiuA", address: "EQBynBO23ywHy_CgarY9NK9FTz0yDsG82PtcbSTQgGoXwiuA"},
		{name: "strips punctuation", ref: " EQ:ab/c+d=_-1 ", address: "EQabcd_-1"},
		{name: "only garbage", ref: "::/", wantErr: ErrEmptyAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.IsNative() != tt.native {
				t.Errorf("IsNative = %v, want %v", got.IsNative(), tt.native)
			}
			if got.Address() != tt.address {
				t.Errorf("Address = %q, want %q", got.Address(), tt.address)
			}
		})
	}
}

func TestAsset_Equals(t *testing.T) {
	ton := Native()
	withMeta := Native().WithMetadata("TON", "Toncoin", 9)
	usdt := Token("EQusdt")

	if !ton.Equals(withMeta) {
		t.Error("native assets match regardless of metadata")
	}
	if ton.Equals(usdt) || usdt.Equals(ton) {
		t.Error("native never equals a jetton")
	}
	if !usdt.Equals(Token("EQ:usdt")) {
		t.Error("jettons compare on normalized address")
	}
	if usdt.Equals(Token("EQusdc")) {
		t.Error("different jettons must not match")
	}
}

func TestAsset_JSON(t *testing.T) {
	in := Token("EQusdt").WithMetadata("USDT", "Tether USD", 6)

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Asset
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Equals(in) || out.Symbol() != "USDT" || out.Decimals() != 6 {
		t.Errorf("round trip lost data: %s -> %+v", data, out)
	}
}

func TestUnits_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		valid bool
		err   bool
	}{
		{in: `"1000000000"`, want: "1000000000", valid: true},
		{in: `1000000000`, want: "1000000000", valid: true},
		{in: `"123456789012345678901234567890"`, want: "123456789012345678901234567890", valid: true},
		{in: `1e9`, want: "1000000000", valid: true},
		{in: `null`, valid: false},
		{in: `""`, valid: false},
		{in: `"-5"`, err: true},
		{in: `"1.5"`, err: true},
		{in: `"abc"`, err: true},
		{in: `"1e30000000"`, err: true},
		{in: `1e80`, err: true},
		{in: `"` + maxPlusOne + `"`, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var u Units
			err := json.Unmarshal([]byte(tt.in), &u)
			if tt.err {
				if err == nil {
					t.Fatalf("expected error, got %v", u.String())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.Valid != tt.valid {
				t.Fatalf("Valid = %v, want %v", u.Valid, tt.valid)
			}
			if tt.valid && u.String() != tt.want {
				t.Errorf("value = %s, want %s", u.String(), tt.want)
			}
		})
	}
}

// maxPlusOne is 2^256.
const maxPlusOne = "115792089237316195423570985008687907853269984665640564039457584007913129639936"

func TestParseUnitsJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: `"1000000000"`, want: "1000000000"},
		{in: `1000000000`, want: "1000000000"},
		{in: `" 42 "`, want: "42"},
		{in: `"115792089237316195423570985008687907853269984665640564039457584007913129639935"`, want: "115792089237316195423570985008687907853269984665640564039457584007913129639935"},
		{in: `"1e9"`, wantErr: ErrInvalidUnits},
		{in: `1e9`, wantErr: ErrInvalidUnits},
		{in: `"1e30000000"`, wantErr: ErrInvalidUnits},
		{in: `"1.0"`, wantErr: ErrInvalidUnits},
		{in: `"` + maxPlusOne + `"`, wantErr: ErrUnitsTooLarge},
		{in: `"` + strings.Repeat("9", 200) + `"`, wantErr: ErrUnitsTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnitsJSON([]byte(tt.in))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("value = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestUnits_MarshalJSON(t *testing.T) {
	v, _ := new(big.Int).SetString("99999999999999999999", 10)
	data, err := json.Marshal(struct {
		A Units `json:"a"`
		B Units `json:"b"`
	}{A: NewUnits(v)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"a":"99999999999999999999","b":null}` {
		t.Errorf("got %s", data)
	}
}

func TestReserveRatio(t *testing.T) {
	tests := []struct {
		name    string
		in, out *big.Int
		want    string
		ok      bool
	}{
		{name: "two to one", in: big.NewInt(1_000_000_000_000), out: big.NewInt(2_000_000_000_000), want: "2.000000000", ok: true},
		{name: "rounds to nine places", in: big.NewInt(3), out: big.NewInt(1), want: "0.333333333", ok: true},
		{name: "zero input reserve", in: big.NewInt(0), out: big.NewInt(5)},
		{name: "missing reserve", in: big.NewInt(5), out: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ReserveRatio(tt.in, tt.out)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ReserveRatio = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRegistry_LearnsSymbols(t *testing.T) {
	r := NewRegistry()
	if r.Count() != 1 || r.SymbolOf(Native()) != "TON" {
		t.Fatal("registry must be seeded with TON")
	}

	bare := Token("EQusdt")
	r.Upsert(bare)
	if r.SymbolOf(bare) != "" {
		t.Error("no symbol known yet")
	}

	r.Upsert(Token("EQusdt").WithMetadata("USDT", "", 6))
	if got := r.SymbolOf(bare); got != "USDT" {
		t.Errorf("SymbolOf = %q, want USDT", got)
	}

	r.Upsert(Token("EQusdt").WithMetadata("FAKE", "", 6))
	if got := r.SymbolOf(bare); got != "USDT" {
		t.Errorf("known symbol must not be overwritten, got %q", got)
	}

	if r.Count() != 2 {
		t.Errorf("Count = %d, want 2", r.Count())
	}
}

func TestValidateAddress(t *testing.T) {
	if err := ValidateAddress(ZeroAddress); err != nil {
		t.Errorf("zero address should be valid: %v", err)
	}
	if err := ValidateAddress("EQDa4VOnTYlLvDJ0gZjNYm5PXfSmmtL6Vs6A_CZEtXCNICq_"); err != nil {
		t.Errorf("vault address should be valid: %v", err)
	}
	if err := ValidateAddress("not-an-address"); err == nil {
		t.Error("expected error for garbage")
	}
}
