package stonfi

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fd1az/tonswap/internal/apperror"
	"github.com/fd1az/tonswap/internal/asset"
	"github.com/fd1az/tonswap/internal/config"
	"github.com/fd1az/tonswap/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

const usdt = "EQCxE6mUtQJKFnGfaROTKOt1lZbDiiX1kCixRv7Nw2Id_sDs"

func newTestProvider(t *testing.T, url string) *Provider {
	t.Helper()
	p, err := NewProvider(config.StonFiConfig{
		BackendConfig: config.BackendConfig{BaseURL: url, Timeout: 2 * time.Second},
	}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return p
}

func TestProvider_Estimate(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantNil    bool
		wantOutput string
		wantImpact string
		wantFee    string
	}{
		{
			name:       "ask units",
			status:     http.StatusOK,
			body:       `{"ask_units": "1990000000", "min_ask_units": "1970000000", "price_impact": "0.001", "fee_units": "6000"}`,
			wantOutput: "1990000000",
			wantImpact: "0.001",
			wantFee:    "6000",
		},
		{
			name:       "min ask units when ask units missing",
			status:     http.StatusOK,
			body:       `{"min_ask_units": 1970000000, "price_impact": 0.02}`,
			wantOutput: "1970000000",
			wantImpact: "0.02",
			wantFee:    "0",
		},
		{
			name:       "impact defaults to zero",
			status:     http.StatusOK,
			body:       `{"ask_units": "5"}`,
			wantOutput: "5",
			wantImpact: "0",
			wantFee:    "0",
		},
		{
			name:    "no output is no quote",
			status:  http.StatusOK,
			body:    `{"price_impact": "0.1"}`,
			wantNil: true,
		},
		{
			name:    "non-2xx is no quote",
			status:  http.StatusBadRequest,
			body:    `{"error": "pool not found"}`,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got simulateRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != simulatePath || r.Method != http.MethodPost {
					t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
				}
				json.NewDecoder(r.Body).Decode(&got)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := newTestProvider(t, server.URL)
			q, err := p.Estimate(context.Background(), asset.Native(), asset.Token(usdt), big.NewInt(1_000_000_000))
			if err != nil {
				t.Fatalf("Estimate: %v", err)
			}

			if got.OfferAddress != asset.ZeroAddress || got.AskAddress != usdt {
				t.Errorf("addresses = %s -> %s", got.OfferAddress, got.AskAddress)
			}
			if got.Units != "1000000000" || got.SlippageTolerance != defaultSimulateSlippage {
				t.Errorf("units = %s slippage = %s", got.Units, got.SlippageTolerance)
			}

			if tt.wantNil {
				if q != nil {
					t.Fatalf("expected no quote, got %+v", q)
				}
				return
			}
			if q == nil {
				t.Fatal("expected a quote")
			}
			if q.Output.String() != tt.wantOutput {
				t.Errorf("output = %s, want %s", q.Output, tt.wantOutput)
			}
			if q.PriceImpact != tt.wantImpact {
				t.Errorf("impact = %s, want %s", q.PriceImpact, tt.wantImpact)
			}
			if q.Fee.String() != tt.wantFee {
				t.Errorf("fee = %s, want %s", q.Fee, tt.wantFee)
			}
			if q.Route != RouteStonFi || q.Backend != BackendName {
				t.Errorf("route = %s backend = %s", q.Route, q.Backend)
			}
		})
	}
}

func TestProvider_EstimateMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	q, err := p.Estimate(context.Background(), asset.Token(usdt), asset.Native(), big.NewInt(10))
	if q != nil {
		t.Errorf("expected no quote, got %+v", q)
	}
	if apperror.GetCode(err) != apperror.CodeBackendUnavailable {
		t.Errorf("code = %s, want BACKEND_UNAVAILABLE", apperror.GetCode(err))
	}
}

func TestProvider_Listings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case poolsPath:
			w.Write([]byte(`{"pool_list": [{
				"address": "EQstonpool",
				"token0_address": "` + asset.ZeroAddress + `",
				"token1_address": "` + usdt + `",
				"token1_symbol": "USDT",
				"reserve0": "1000000000000",
				"reserve1": "2000000000000"
			}]}`))
		case assetsPath:
			w.Write([]byte(`{"asset_list": [
				{"contract_address": "` + asset.ZeroAddress + `", "symbol": "TON", "display_name": "TON", "decimals": 9, "kind": "Ton"},
				{"contract_address": "` + usdt + `", "symbol": "USDT", "display_name": "Tether USD", "decimals": 6, "kind": "Jetton"}
			]}`))
		}
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	ctx := context.Background()

	pools, err := p.ListPools(ctx)
	if err != nil {
		t.Fatalf("ListPools: %v", err)
	}
	if len(pools) != 1 {
		t.Fatalf("pools = %d, want 1", len(pools))
	}
	pool := pools[0]
	if !pool.Assets[0].IsNative() {
		t.Errorf("token0 should map to the native coin, got %v", pool.Assets[0])
	}
	if pool.Assets[1].Symbol() != "USDT" || pool.Reserve(1).String() != "2000000000000" {
		t.Errorf("pool = %+v", pool)
	}
	if pool.IndexOf(asset.Native()) != 0 || pool.IndexOf(asset.Token(usdt)) != 1 {
		t.Error("pool does not resolve its assets")
	}

	assets, err := p.ListAssets(ctx)
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(assets) != 2 || !assets[0].IsNative() {
		t.Fatalf("assets = %v", assets)
	}
	if assets[1].Name() != "Tether USD" || assets[1].Decimals() != 6 {
		t.Errorf("usdt = %v", assets[1])
	}
}

func TestProvider_ListingsDegrade(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)

	pools, err := p.ListPools(context.Background())
	if err != nil || len(pools) != 0 {
		t.Errorf("pools = %v, err = %v", pools, err)
	}
	assets, err := p.ListAssets(context.Background())
	if err != nil || len(assets) != 0 {
		t.Errorf("assets = %v, err = %v", assets, err)
	}
}
