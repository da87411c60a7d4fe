package upstream

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/fd1az/tonswap/internal/asset"
)

func TestDecimals(t *testing.T) {
	tests := []struct {
		name string
		in   asset.Units
		want uint8
	}{
		{name: "absent", in: asset.Units{}, want: 9},
		{name: "in range", in: asset.NewUnits(big.NewInt(6)), want: 6},
		{name: "zero", in: asset.NewUnits(big.NewInt(0)), want: 0},
		{name: "upper bound", in: asset.NewUnits(big.NewInt(255)), want: 255},
		{name: "too large", in: asset.NewUnits(big.NewInt(256)), want: 9},
		{name: "negative", in: asset.Units{Int: big.NewInt(-1), Valid: true}, want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decimals(tt.in, 9); got != tt.want {
				t.Errorf("Decimals() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestText_UnmarshalJSON(t *testing.T) {
	var v struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
		D Text `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a":"1.25","b":0.7,"c":null,"d":{"x":1}}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A != "1.25" || v.B != "0.7" || v.C != "" || v.D != "" {
		t.Errorf("decoded = %+v", v)
	}
}
