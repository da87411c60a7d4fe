package app

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	quotingdomain "github.com/fd1az/tonswap/business/quoting/domain"
	"github.com/fd1az/tonswap/business/swap/domain"
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

const (
	usdt   = "EQCxE6mUtQJKFnGfaROTKOt1lZbDiiX1kCixRv7Nw2Id_sDs"
	scale  = "EQBlqsm144Dq6SjbPI4jjZvA1hqTIP3CvHovbIfW_t-SCALE"
	sender = "UQBvW8Z5huBkMJYdnfAEM5JqTNkuWX3diqYENkWsIL0XggGG"
)

type fakeQuoter struct {
	estimate    *quotingdomain.Estimate
	estimateErr error
	quote       *quotingdomain.Quote
	quoteErr    error

	quoteCalls    int
	quoteBackend  string
	estimateCalls int
}

func (f *fakeQuoter) EstimateBest(ctx context.Context, from, to asset.Asset, amount *big.Int) (*quotingdomain.Estimate, error) {
	f.estimateCalls++
	return f.estimate, f.estimateErr
}

func (f *fakeQuoter) Quote(ctx context.Context, backend string, from, to asset.Asset, amount *big.Int) (*quotingdomain.Quote, error) {
	f.quoteCalls++
	f.quoteBackend = backend
	return f.quote, f.quoteErr
}

func newTestService(q Quoter) *Service {
	return NewService(q, Options{
		DefaultBackend:  "dedust",
		DefaultSlippage: decimal.RequireFromString("0.5"),
		Settlement:      SettlementFromConfig(config.SettlementConfig{}),
	}, &mockLogger{})
}

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func TestBuildTransaction(t *testing.T) {
	s := SettlementFromConfig(config.SettlementConfig{})
	minOut := big.NewInt(1982053892)
	amount := big.NewInt(1_000_000_000)

	t.Run("native to jetton targets the vault with the amount", func(t *testing.T) {
		tx := BuildTransaction(s, Intent{From: asset.Native(), To: asset.Token(usdt), Amount: amount, MinReceived: minOut, Sender: sender})

		if tx.To != DefaultVaultAddress || tx.Value.String() != "1000000000" {
			t.Errorf("to = %s value = %s", tx.To, tx.Value)
		}
		p, ok := tx.Payload.(domain.NativeSwapPayload)
		if !ok {
			t.Fatalf("payload = %T", tx.Payload)
		}
		if p.Op != domain.OpSwap || p.PoolAddress != usdt || p.MinOut.String() != "1982053892" || p.Recipient != sender {
			t.Errorf("payload = %+v", p)
		}

		data, _ := json.Marshal(tx)
		var decoded map[string]any
		json.Unmarshal(data, &decoded)
		payload := decoded["payload"].(map[string]any)
		if v, present := payload["referral"]; !present || v != nil {
			t.Errorf("referral should be an explicit null, got %s", data)
		}
	})

	t.Run("jetton to native transfers to the vault", func(t *testing.T) {
		tx := BuildTransaction(s, Intent{From: asset.Token(usdt), To: asset.Native(), Amount: amount, MinReceived: minOut, Sender: sender})

		if tx.To != usdt || tx.Value.String() != "300000000" {
			t.Errorf("to = %s value = %s", tx.To, tx.Value)
		}
		p := tx.Payload.(domain.JettonTransferPayload)
		if p.Op != domain.OpTransfer || p.Destination != DefaultVaultAddress || p.Amount.String() != "1000000000" {
			t.Errorf("payload = %+v", p)
		}
		if p.ForwardPayload.Op != domain.OpSwap || p.ForwardPayload.PoolAddress != "" || p.ForwardPayload.Recipient != sender {
			t.Errorf("forward = %+v", p.ForwardPayload)
		}
	})

	t.Run("jetton to jetton transfers to the factory", func(t *testing.T) {
		tx := BuildTransaction(s, Intent{From: asset.Token(usdt), To: asset.Token(scale), Amount: amount, MinReceived: minOut, Sender: sender})

		if tx.To != usdt || tx.Value.String() != "500000000" {
			t.Errorf("to = %s value = %s", tx.To, tx.Value)
		}
		p := tx.Payload.(domain.JettonTransferPayload)
		if p.Destination != DefaultFactoryAddress || p.ForwardPayload.PoolAddress != scale {
			t.Errorf("payload = %+v", p)
		}
	})
}

func TestSettlementFromConfig(t *testing.T) {
	s := SettlementFromConfig(config.SettlementConfig{
		VaultAddress:        "EQvault",
		JettonToNativeValue: "123",
		JettonToJettonValue: "not a number",
	})

	if s.Vault != "EQvault" || s.Factory != DefaultFactoryAddress {
		t.Errorf("vault = %s factory = %s", s.Vault, s.Factory)
	}
	if s.JettonToNativeValue.Int64() != 123 {
		t.Errorf("jetton to native = %s", s.JettonToNativeValue)
	}
	if s.JettonToJettonValue.Int64() != DefaultJettonToJettonValue {
		t.Errorf("jetton to jetton = %s", s.JettonToJettonValue)
	}
}

func TestService_Build(t *testing.T) {
	tests := []struct {
		name      string
		req       BuildRequest
		quote     *quotingdomain.Quote
		quoteErr  error
		wantCode  apperror.Code
		wantMin   string
		wantGas   string
		wantQuote bool
	}{
		{
			name:    "client min received is used as is",
			req:     BuildRequest{FromToken: "TON", ToToken: usdt, Amount: raw(`1000000000`), MinReceived: raw(`"900"`), SenderAddress: sender},
			wantMin: "900",
			wantGas: "0",
		},
		{
			name:      "missing min received quotes the default backend",
			req:       BuildRequest{FromToken: "native", ToToken: usdt, Amount: raw(`"1000000000"`), SenderAddress: sender},
			quote:     &quotingdomain.Quote{Output: big.NewInt(1992013962)},
			wantMin:   "1982053892",
			wantGas:   "0",
			wantQuote: true,
		},
		{
			name:      "jetton origin reports the fee buffer as gas",
			req:       BuildRequest{FromToken: usdt, ToToken: "TON", Amount: raw(`5`), MinReceived: raw(`null`), SenderAddress: sender},
			quote:     &quotingdomain.Quote{Output: big.NewInt(1000)},
			wantMin:   "995",
			wantGas:   "300000000",
			wantQuote: true,
		},
		{
			name:     "native to native is unsupported",
			req:      BuildRequest{FromToken: "TON", ToToken: "native", Amount: raw(`1`), SenderAddress: sender},
			wantCode: apperror.CodeUnsupportedRoute,
		},
		{
			name:     "missing sender",
			req:      BuildRequest{FromToken: "TON", ToToken: usdt, Amount: raw(`1`)},
			wantCode: apperror.CodeMissingParameter,
		},
		{
			name:     "missing amount",
			req:      BuildRequest{FromToken: "TON", ToToken: usdt, SenderAddress: sender},
			wantCode: apperror.CodeMissingParameter,
		},
		{
			name:     "negative amount",
			req:      BuildRequest{FromToken: "TON", ToToken: usdt, Amount: raw(`-5`), SenderAddress: sender},
			wantCode: apperror.CodeInvalidAmount,
		},
		{
			name:     "exponent amount",
			req:      BuildRequest{FromToken: "TON", ToToken: usdt, Amount: raw(`"1e30000000"`), SenderAddress: sender},
			wantCode: apperror.CodeInvalidAmount,
		},
		{
			name:     "min received wider than 256 bits",
			req:      BuildRequest{FromToken: "TON", ToToken: usdt, Amount: raw(`1`), MinReceived: raw(`"` + strings.Repeat("9", 80) + `"`), SenderAddress: sender},
			wantCode: apperror.CodeInvalidAmount,
		},
		{
			name:      "default backend without a quote",
			req:       BuildRequest{FromToken: "TON", ToToken: usdt, Amount: raw(`1`), SenderAddress: sender},
			wantCode:  apperror.CodeAllBackendsUnavailable,
			wantQuote: true,
		},
		{
			name:      "default backend failure",
			req:       BuildRequest{FromToken: "TON", ToToken: usdt, Amount: raw(`1`), SenderAddress: sender},
			quoteErr:  apperror.New(apperror.CodeBackendUnavailable),
			wantCode:  apperror.CodeBackendUnavailable,
			wantQuote: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQuoter{quote: tt.quote, quoteErr: tt.quoteErr}
			svc := newTestService(q)

			res, err := svc.Build(context.Background(), tt.req)

			if (q.quoteCalls > 0) != tt.wantQuote {
				t.Errorf("quote calls = %d, want quote = %v", q.quoteCalls, tt.wantQuote)
			}
			if tt.wantQuote && q.quoteBackend != "dedust" {
				t.Errorf("quoted backend = %s", q.quoteBackend)
			}

			if tt.wantCode != "" {
				if apperror.GetCode(err) != tt.wantCode {
					t.Fatalf("code = %s, want %s (err = %v)", apperror.GetCode(err), tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if res.MinReceived.String() != tt.wantMin {
				t.Errorf("minReceived = %s, want %s", res.MinReceived, tt.wantMin)
			}
			if res.EstimatedGas.String() != tt.wantGas {
				t.Errorf("estimatedGas = %s, want %s", res.EstimatedGas, tt.wantGas)
			}
			if res.FromToken != tt.req.FromToken || res.SenderAddress != sender || !res.Success {
				t.Errorf("echo = %+v", res)
			}
		})
	}
}

func TestService_BuildUnsupportedRouteMessage(t *testing.T) {
	svc := newTestService(&fakeQuoter{})
	_, err := svc.Build(context.Background(), BuildRequest{FromToken: "TON", ToToken: "TON", Amount: raw(`1`), SenderAddress: sender})

	if got := apperror.PublicMessage(err); got != "TON -> TON swap is not supported" {
		t.Errorf("message = %q", got)
	}
}

func TestService_Estimate(t *testing.T) {
	dedustQuote := &quotingdomain.Quote{Backend: "dedust", Output: big.NewInt(1992013962), PriceImpact: "0.10", Fee: big.NewInt(3000000), Route: quotingdomain.RoutePool, PoolAddress: "EQpool"}
	est := &quotingdomain.Estimate{
		Winner:    dedustQuote,
		Backend:   "dedust",
		ByBackend: map[string]*quotingdomain.Quote{"dedust": dedustQuote, "stonfi": nil},
	}

	t.Run("best quote with min received", func(t *testing.T) {
		svc := newTestService(&fakeQuoter{estimate: est})
		slippage := decimal.RequireFromString("1")

		res, err := svc.Estimate(context.Background(), EstimateRequest{FromToken: "TON", ToToken: usdt, Amount: raw(`"1000000000"`), Slippage: &slippage})
		if err != nil {
			t.Fatalf("Estimate: %v", err)
		}
		if res.OutputAmount.String() != "1992013962" || res.MinReceived.String() != "1972093822" {
			t.Errorf("output = %s min = %s", res.OutputAmount, res.MinReceived)
		}
		if res.Dex != "dedust" || res.Route != quotingdomain.RoutePool || res.Slippage != 1 {
			t.Errorf("result = %+v", res)
		}
		if res.Comparison["stonfi"] != nil || res.Comparison["dedust"] == nil {
			t.Errorf("comparison = %+v", res.Comparison)
		}

		data, _ := json.Marshal(res)
		var decoded map[string]any
		json.Unmarshal(data, &decoded)
		comparison := decoded["comparison"].(map[string]any)
		if v, present := comparison["stonfi"]; !present || v != nil {
			t.Errorf("stonfi should be null in %s", data)
		}
	})

	t.Run("default slippage", func(t *testing.T) {
		svc := newTestService(&fakeQuoter{estimate: est})
		res, err := svc.Estimate(context.Background(), EstimateRequest{FromToken: "TON", ToToken: usdt, Amount: raw(`1000000000`)})
		if err != nil {
			t.Fatalf("Estimate: %v", err)
		}
		if res.MinReceived.String() != "1982053892" || res.Slippage != 0.5 {
			t.Errorf("min = %s slippage = %v", res.MinReceived, res.Slippage)
		}
	})

	t.Run("invalid slippage", func(t *testing.T) {
		q := &fakeQuoter{estimate: est}
		svc := newTestService(q)
		slippage := decimal.NewFromInt(100)

		_, err := svc.Estimate(context.Background(), EstimateRequest{FromToken: "TON", ToToken: usdt, Amount: raw(`1`), Slippage: &slippage})
		if apperror.GetCode(err) != apperror.CodeInvalidSlippage {
			t.Errorf("code = %s", apperror.GetCode(err))
		}
		if q.estimateCalls != 0 {
			t.Error("backends queried for an invalid request")
		}
	})

	t.Run("oversized amount", func(t *testing.T) {
		q := &fakeQuoter{estimate: est}
		svc := newTestService(q)

		for _, amount := range []string{`"1e30000000"`, `1e9`, `"` + strings.Repeat("1", 100) + `"`} {
			_, err := svc.Estimate(context.Background(), EstimateRequest{FromToken: "TON", ToToken: usdt, Amount: raw(amount)})
			if apperror.GetCode(err) != apperror.CodeInvalidAmount {
				t.Errorf("%s: code = %s", amount, apperror.GetCode(err))
			}
		}
		if q.estimateCalls != 0 {
			t.Error("backends queried for an invalid amount")
		}
	})

	t.Run("slippage precision", func(t *testing.T) {
		q := &fakeQuoter{estimate: est}
		svc := newTestService(q)

		var req EstimateRequest
		if err := json.Unmarshal([]byte(`{"fromToken":"TON","toToken":"`+usdt+`","amount":"1","slippage":"1e-80000000"}`), &req); err != nil {
			t.Fatalf("decode: %v", err)
		}

		done := make(chan error, 1)
		go func() {
			_, err := svc.Estimate(context.Background(), req)
			done <- err
		}()

		select {
		case err := <-done:
			if apperror.GetCode(err) != apperror.CodeInvalidSlippage {
				t.Errorf("code = %s", apperror.GetCode(err))
			}
		case <-time.After(time.Second):
			t.Fatal("Estimate did not return")
		}
	})

	t.Run("missing parameters", func(t *testing.T) {
		svc := newTestService(&fakeQuoter{estimate: est})
		_, err := svc.Estimate(context.Background(), EstimateRequest{FromToken: "TON", Amount: raw(`1`)})
		if got := apperror.PublicMessage(err); got != "Missing required parameters: fromToken, toToken, amount" {
			t.Errorf("message = %q", got)
		}
	})

	t.Run("all backends unavailable", func(t *testing.T) {
		svc := newTestService(&fakeQuoter{estimateErr: apperror.New(apperror.CodeAllBackendsUnavailable)})
		_, err := svc.Estimate(context.Background(), EstimateRequest{FromToken: "TON", ToToken: usdt, Amount: raw(`1`)})
		if apperror.GetCode(err) != apperror.CodeAllBackendsUnavailable {
			t.Errorf("code = %s", apperror.GetCode(err))
		}
	})
}
