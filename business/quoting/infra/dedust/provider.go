// Package dedust implements the quoting Backend for the DeDust HTTP API.
package dedust

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/tonswap/business/quoting/app"
	"github.com/fd1az/tonswap/business/quoting/domain"
	"github.com/fd1az/tonswap/business/quoting/infra/upstream"
	"github.com/fd1az/tonswap/internal/asset"
	"github.com/fd1az/tonswap/internal/config"
	"github.com/fd1az/tonswap/internal/logger"
)

const (
	tracerName = "dedust"
	meterName  = "dedust"

	// BackendName identifies DeDust in comparisons and configuration.
	BackendName = "dedust"

	poolsPath    = "/pools"
	assetsPath   = "/assets"
	estimatePath = "/swap/estimate"

	// HeuristicImpact is the price impact reported by the last-resort tier.
	HeuristicImpact = "0.5"
)

var (
	feeNumerator   = big.NewInt(3)
	feeDenominator = big.NewInt(1000)

	heuristicNumerator   = big.NewInt(97)
	heuristicDenominator = big.NewInt(100)

	hundred = big.NewInt(100)
)

var (
	_ app.Backend        = (*Provider)(nil)
	_ app.PoolQuoter     = (*Provider)(nil)
	_ app.HealthReporter = (*Provider)(nil)
)

// providerMetrics holds OTEL metric instruments.
type providerMetrics struct {
	estimatesTotal metric.Int64Counter
	listFailures   metric.Int64Counter
}

// Provider quotes swaps against DeDust. Estimates fall through three tiers
// in order: local math on a live pool, the remote estimate endpoint, and a
// fixed heuristic.
type Provider struct {
	client *upstream.Client
	logger logger.LoggerInterface

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a DeDust provider.
func NewProvider(cfg config.DeDustConfig, log logger.LoggerInterface) (*Provider, error) {
	tracer := otel.Tracer(tracerName)

	client, err := upstream.New(BackendName, cfg.BackendConfig, tracer)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		client: client,
		logger: log,
		tracer: tracer,
	}
	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &providerMetrics{}

	p.metrics.estimatesTotal, err = meter.Int64Counter(
		"dedust_estimates_total",
		metric.WithDescription("DeDust estimates by route tier"),
	)
	if err != nil {
		return err
	}

	p.metrics.listFailures, err = meter.Int64Counter(
		"dedust_listing_failures_total",
		metric.WithDescription("Failed DeDust pool and asset listings"),
	)
	return err
}

// Name implements app.Backend.
func (p *Provider) Name() string {
	return BackendName
}

// ListPools fetches every pool. Failures yield an empty list.
func (p *Provider) ListPools(ctx context.Context) ([]domain.Pool, error) {
	ctx, span := p.tracer.Start(ctx, "dedust.list_pools")
	defer span.End()

	var raw []poolResponse
	if err := p.client.Get(ctx, "pools", poolsPath, &raw); err != nil {
		p.listingFailed(ctx, span, "pools", err)
		return []domain.Pool{}, nil
	}

	pools := make([]domain.Pool, 0, len(raw))
	for _, r := range raw {
		pools = append(pools, r.toPool())
	}

	span.SetAttributes(attribute.Int("pools", len(pools)))
	return pools, nil
}

// ListAssets fetches the asset list. Failures yield an empty list.
func (p *Provider) ListAssets(ctx context.Context) ([]asset.Asset, error) {
	ctx, span := p.tracer.Start(ctx, "dedust.list_assets")
	defer span.End()

	var raw []assetResponse
	if err := p.client.Get(ctx, "assets", assetsPath, &raw); err != nil {
		p.listingFailed(ctx, span, "assets", err)
		return []asset.Asset{}, nil
	}

	assets := make([]asset.Asset, 0, len(raw))
	for _, r := range raw {
		assets = append(assets, r.toAsset())
	}

	span.SetAttributes(attribute.Int("assets", len(assets)))
	return assets, nil
}

func (p *Provider) listingFailed(ctx context.Context, span trace.Span, endpoint string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.metrics.listFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
	p.logger.Warn(ctx, "dedust listing failed", "endpoint", endpoint, "error", err)
}

// Estimate implements app.Backend with a fresh pool listing.
func (p *Provider) Estimate(ctx context.Context, from, to asset.Asset, amount *big.Int) (*domain.Quote, error) {
	pools, _ := p.ListPools(ctx)
	return p.EstimateFromPools(ctx, pools, from, to, amount)
}

// EstimateFromPools implements app.PoolQuoter.
func (p *Provider) EstimateFromPools(ctx context.Context, pools []domain.Pool, from, to asset.Asset, amount *big.Int) (*domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "dedust.estimate",
		trace.WithAttributes(
			attribute.String("from", from.Key()),
			attribute.String("to", to.Key()),
			attribute.String("amount", amount.String()),
		),
	)
	defer span.End()

	q := QuoteFromPools(pools, from, to, amount)
	if q == nil {
		var err error
		q, err = p.remoteEstimate(ctx, from, to, amount)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}
	if q == nil {
		q = HeuristicQuote(amount)
	}

	span.SetAttributes(
		attribute.String("route", q.Route),
		attribute.String("output", q.Output.String()),
	)
	p.metrics.estimatesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("route", q.Route)))
	return q, nil
}

// remoteEstimate returns nil without error when DeDust answers non-2xx or
// without an output amount.
func (p *Provider) remoteEstimate(ctx context.Context, from, to asset.Asset, amount *big.Int) (*domain.Quote, error) {
	req := estimateRequest{
		From:   newEstimateAsset(from),
		To:     newEstimateAsset(to),
		Amount: amount.String(),
	}

	var resp estimateResponse
	if err := p.client.Post(ctx, "estimate", estimatePath, req, &resp); err != nil {
		if upstream.IsStatus(err) {
			p.logger.Debug(ctx, "dedust remote estimate rejected", "error", err)
			return nil, nil
		}
		return nil, err
	}
	return resp.toQuote(), nil
}

// Health implements app.HealthReporter.
func (p *Provider) Health(ctx context.Context) (bool, string) {
	return p.client.Health(ctx)
}

// QuoteFromPools prices the swap on the first pool holding both assets, or
// returns nil. When that pool lacks reserves or has an empty input side the
// result is nil as well; later pools are never consulted.
func QuoteFromPools(pools []domain.Pool, from, to asset.Asset, amount *big.Int) *domain.Quote {
	for _, pool := range pools {
		in, out := pool.IndexOf(from), pool.IndexOf(to)
		if in < 0 || out < 0 || in == out {
			continue
		}
		if !pool.Usable() {
			return nil
		}
		reserveIn, reserveOut := pool.Reserve(in), pool.Reserve(out)
		if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 {
			return nil
		}

		fee := poolFee(amount)
		afterFee := new(big.Int).Sub(amount, fee)

		output := new(big.Int).Mul(afterFee, reserveOut)
		output.Quo(output, new(big.Int).Add(reserveIn, afterFee))

		impact := decimal.NewFromBigInt(new(big.Int).Mul(amount, hundred), 0).
			Div(decimal.NewFromBigInt(reserveIn, 0))

		return &domain.Quote{
			Backend:     BackendName,
			Output:      output,
			PriceImpact: impact.StringFixed(2),
			Fee:         fee,
			Route:       domain.RoutePool,
			PoolAddress: pool.Address,
		}
	}
	return nil
}

// HeuristicQuote is the last-resort estimate.
func HeuristicQuote(amount *big.Int) *domain.Quote {
	output := new(big.Int).Mul(amount, heuristicNumerator)
	output.Quo(output, heuristicDenominator)

	return &domain.Quote{
		Backend:     BackendName,
		Output:      output,
		PriceImpact: HeuristicImpact,
		Fee:         poolFee(amount),
		Route:       domain.RouteEstimated,
	}
}

func poolFee(amount *big.Int) *big.Int {
	fee := new(big.Int).Mul(amount, feeNumerator)
	return fee.Quo(fee, feeDenominator)
}
