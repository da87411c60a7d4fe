// Package stonfi implements the quoting Backend for the STON.fi HTTP API.
package stonfi

import (
	"context"
	"fmt"
	"math/big"

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
	tracerName = "stonfi"
	meterName  = "stonfi"

	// BackendName identifies STON.fi in comparisons and configuration.
	BackendName = "stonfi"

	// RouteStonFi is the route tag of every STON.fi quote.
	RouteStonFi = "stonfi"

	poolsPath    = "/pools"
	assetsPath   = "/assets"
	simulatePath = "/swap/simulate"

	defaultSimulateSlippage = "0.01"
)

var (
	_ app.Backend        = (*Provider)(nil)
	_ app.HealthReporter = (*Provider)(nil)
)

// providerMetrics holds OTEL metric instruments.
type providerMetrics struct {
	simulationsTotal metric.Int64Counter
	listFailures     metric.Int64Counter
}

// Provider quotes swaps through the STON.fi simulate endpoint.
type Provider struct {
	client   *upstream.Client
	codec    codec
	slippage string
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a STON.fi provider.
func NewProvider(cfg config.StonFiConfig, log logger.LoggerInterface) (*Provider, error) {
	tracer := otel.Tracer(tracerName)

	client, err := upstream.New(BackendName, cfg.BackendConfig, tracer)
	if err != nil {
		return nil, err
	}

	nativeAddress := cfg.NativeAddress
	if nativeAddress == "" {
		nativeAddress = asset.ZeroAddress
	}
	slippage := cfg.SimulateSlippage
	if slippage == "" {
		slippage = defaultSimulateSlippage
	}

	p := &Provider{
		client:   client,
		codec:    codec{nativeAddress: nativeAddress},
		slippage: slippage,
		logger:   log,
		tracer:   tracer,
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

	p.metrics.simulationsTotal, err = meter.Int64Counter(
		"stonfi_simulations_total",
		metric.WithDescription("STON.fi swap simulations by outcome"),
	)
	if err != nil {
		return err
	}

	p.metrics.listFailures, err = meter.Int64Counter(
		"stonfi_listing_failures_total",
		metric.WithDescription("Failed STON.fi pool and asset listings"),
	)
	return err
}

// Name implements app.Backend.
func (p *Provider) Name() string {
	return BackendName
}

// ListPools fetches the pool list. Failures yield an empty list.
func (p *Provider) ListPools(ctx context.Context) ([]domain.Pool, error) {
	ctx, span := p.tracer.Start(ctx, "stonfi.list_pools")
	defer span.End()

	var resp poolsResponse
	if err := p.client.Get(ctx, "pools", poolsPath, &resp); err != nil {
		p.listingFailed(ctx, span, "pools", err)
		return []domain.Pool{}, nil
	}

	pools := make([]domain.Pool, 0, len(resp.PoolList))
	for _, e := range resp.PoolList {
		pools = append(pools, p.codec.toPool(e))
	}

	span.SetAttributes(attribute.Int("pools", len(pools)))
	return pools, nil
}

// ListAssets fetches the asset list. Failures yield an empty list.
func (p *Provider) ListAssets(ctx context.Context) ([]asset.Asset, error) {
	ctx, span := p.tracer.Start(ctx, "stonfi.list_assets")
	defer span.End()

	var resp assetsResponse
	if err := p.client.Get(ctx, "assets", assetsPath, &resp); err != nil {
		p.listingFailed(ctx, span, "assets", err)
		return []asset.Asset{}, nil
	}

	assets := make([]asset.Asset, 0, len(resp.AssetList))
	for _, e := range resp.AssetList {
		assets = append(assets, p.codec.toAsset(e))
	}

	span.SetAttributes(attribute.Int("assets", len(assets)))
	return assets, nil
}

func (p *Provider) listingFailed(ctx context.Context, span trace.Span, endpoint string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.metrics.listFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
	p.logger.Warn(ctx, "stonfi listing failed", "endpoint", endpoint, "error", err)
}

// Estimate simulates the swap. A non-2xx answer or one without an output
// amount is no quote.
func (p *Provider) Estimate(ctx context.Context, from, to asset.Asset, amount *big.Int) (*domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "stonfi.estimate",
		trace.WithAttributes(
			attribute.String("from", from.Key()),
			attribute.String("to", to.Key()),
			attribute.String("amount", amount.String()),
		),
	)
	defer span.End()

	req := simulateRequest{
		OfferAddress:      p.codec.address(from),
		AskAddress:        p.codec.address(to),
		Units:             amount.String(),
		SlippageTolerance: p.slippage,
	}

	var resp simulateResponse
	if err := p.client.Post(ctx, "simulate", simulatePath, req, &resp); err != nil {
		if upstream.IsStatus(err) {
			p.recordSimulation(ctx, "rejected")
			p.logger.Debug(ctx, "stonfi simulation rejected", "error", err)
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.recordSimulation(ctx, "failed")
		return nil, err
	}

	q := resp.toQuote()
	if q == nil {
		p.recordSimulation(ctx, "empty")
		return nil, nil
	}

	span.SetAttributes(attribute.String("output", q.Output.String()))
	p.recordSimulation(ctx, "ok")
	return q, nil
}

func (p *Provider) recordSimulation(ctx context.Context, outcome string) {
	p.metrics.simulationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Health implements app.HealthReporter.
func (p *Provider) Health(ctx context.Context) (bool, string) {
	return p.client.Health(ctx)
}
