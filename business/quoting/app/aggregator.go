package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/tonswap/business/quoting/domain"
	"github.com/fd1az/tonswap/internal/apm"
	"github.com/fd1az/tonswap/internal/apperror"
	"github.com/fd1az/tonswap/internal/asset"
	"github.com/fd1az/tonswap/internal/logger"
)

const (
	tracerName = "quoting"
	meterName  = "quoting"

	// DexAll selects every backend in listing requests.
	DexAll = "all"

	defaultPoolLimit = 20

	fallbackFirstSymbol  = "TON"
	fallbackSecondSymbol = "UNKNOWN"
)

// Options configures the aggregator.
type Options struct {
	// Priority orders backends for tie-breaks and the price view. Backends
	// missing from the list keep their registration order after it.
	Priority  []string
	PoolLimit int
}

type aggregatorMetrics struct {
	estimatesTotal  metric.Int64Counter
	estimateLatency metric.Float64Histogram
	backendFailures metric.Int64Counter
}

// Aggregator fans requests out to every backend and reconciles the answers.
type Aggregator struct {
	backends  []Backend
	byName    map[string]Backend
	registry  *asset.Registry
	poolLimit int

	logger  logger.LoggerInterface
	tracer  apm.Tracer
	metrics *aggregatorMetrics
}

// NewAggregator creates an aggregator over backends.
func NewAggregator(backends []Backend, registry *asset.Registry, opts Options, log logger.LoggerInterface) (*Aggregator, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("at least one backend is required")
	}

	byName := make(map[string]Backend, len(backends))
	for _, b := range backends {
		byName[b.Name()] = b
	}

	ordered := make([]Backend, 0, len(backends))
	for _, name := range lo.Uniq(opts.Priority) {
		if b, ok := byName[name]; ok {
			ordered = append(ordered, b)
		}
	}
	for _, b := range backends {
		if !lo.Contains(opts.Priority, b.Name()) {
			ordered = append(ordered, b)
		}
	}

	limit := opts.PoolLimit
	if limit <= 0 {
		limit = defaultPoolLimit
	}

	a := &Aggregator{
		backends:  ordered,
		byName:    byName,
		registry:  registry,
		poolLimit: limit,
		logger:    log,
		tracer:    apm.NewTracer(tracerName),
	}
	if err := a.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return a, nil
}

func (a *Aggregator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	a.metrics = &aggregatorMetrics{}

	a.metrics.estimatesTotal, err = meter.Int64Counter(
		"swap_estimates_total",
		metric.WithDescription("Aggregated estimates by winning backend"),
	)
	if err != nil {
		return err
	}

	a.metrics.estimateLatency, err = meter.Float64Histogram(
		"swap_estimate_latency_ms",
		metric.WithDescription("Aggregated estimate latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	a.metrics.backendFailures, err = meter.Int64Counter(
		"swap_backend_failures_total",
		metric.WithDescription("Backend estimate failures"),
	)
	return err
}

// Backends returns the backends in priority order.
func (a *Aggregator) Backends() []Backend {
	return a.backends
}

// BackendNames returns the backend names in priority order.
func (a *Aggregator) BackendNames() []string {
	return lo.Map(a.backends, func(b Backend, _ int) string { return b.Name() })
}

// EstimateBest asks every backend concurrently and returns the largest
// output. Ties keep the earlier backend in priority order.
func (a *Aggregator) EstimateBest(ctx context.Context, from, to asset.Asset, amount *big.Int) (*domain.Estimate, error) {
	ctx, span := a.tracer.StartSpanFromContext(ctx, "quoting.estimate_best")
	defer span.End()
	span.SetAttributes(
		attribute.String("from", from.Key()),
		attribute.String("to", to.Key()),
		attribute.String("amount", amount.String()),
	)

	start := time.Now()
	quotes := make([]*domain.Quote, len(a.backends))

	var wg sync.WaitGroup
	for i, b := range a.backends {
		wg.Add(1)
		go func(i int, b Backend) {
			defer wg.Done()

			q, err := b.Estimate(ctx, from, to, amount)
			if err != nil {
				a.metrics.backendFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", b.Name())))
				a.logger.Warn(ctx, "backend estimate failed", "backend", b.Name(), "error", err)
				return
			}
			if q != nil && q.Output != nil {
				q.Backend = b.Name()
				quotes[i] = q
			}
		}(i, b)
	}
	wg.Wait()

	a.metrics.estimateLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	est := &domain.Estimate{ByBackend: make(map[string]*domain.Quote, len(a.backends))}
	for i, b := range a.backends {
		q := quotes[i]
		est.ByBackend[b.Name()] = q
		if q == nil {
			continue
		}
		if est.Winner == nil || q.Output.Cmp(est.Winner.Output) > 0 {
			est.Winner = q
			est.Backend = b.Name()
		}
	}

	if est.Winner == nil {
		err := apperror.New(apperror.CodeAllBackendsUnavailable,
			apperror.WithContext(fmt.Sprintf("%s -> %s", from, to)))
		span.NoticeError(err)
		return nil, err
	}

	a.metrics.estimatesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("winner", est.Backend)))
	span.SetAttributes(
		attribute.String("winner", est.Backend),
		attribute.String("output", est.Winner.Output.String()),
	)

	a.logger.Debug(ctx, "estimate selected",
		"from", from.Key(),
		"to", to.Key(),
		"amount", amount.String(),
		"dex", est.Backend,
		"output", est.Winner.Output.String(),
	)
	return est, nil
}

// Quote returns one backend's quote. A nil quote means no route.
func (a *Aggregator) Quote(ctx context.Context, backend string, from, to asset.Asset, amount *big.Int) (*domain.Quote, error) {
	b, ok := a.byName[backend]
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownBackend, apperror.WithContext(backend))
	}

	q, err := b.Estimate(ctx, from, to, amount)
	if err != nil {
		return nil, err
	}
	if q == nil || q.Output == nil {
		return nil, nil
	}
	q.Backend = b.Name()
	return q, nil
}

// Prices builds the bulk price view keyed by "symbol0/symbol1". The first
// backend in priority order to report a key wins it. A non-empty pairs
// filters the result.
func (a *Aggregator) Prices(ctx context.Context, pairs []string) map[string]domain.PriceEntry {
	ctx, span := a.tracer.StartSpanFromContext(ctx, "quoting.prices")
	defer span.End()

	listings := a.listPools(ctx, a.backends)

	prices := make(map[string]domain.PriceEntry)
	for _, b := range a.backends {
		for _, pool := range lo.Slice(listings[b.Name()], 0, a.poolLimit) {
			if len(pool.Assets) < 2 {
				continue
			}

			key := a.pairKey(pool)
			if len(pairs) > 0 && !lo.Contains(pairs, key) {
				continue
			}
			if _, seen := prices[key]; seen {
				continue
			}

			pool.Backend = b.Name()
			prices[key] = domain.NewPriceEntry(pool)
		}
	}

	span.SetAttributes(attribute.Int("pairs", len(prices)))
	return prices
}

func (a *Aggregator) pairKey(pool domain.Pool) string {
	first := a.symbolOf(pool.Assets[0])
	if first == "" {
		first = fallbackFirstSymbol
	}
	second := a.symbolOf(pool.Assets[1])
	if second == "" {
		second = fallbackSecondSymbol
	}
	return first + "/" + second
}

func (a *Aggregator) symbolOf(x asset.Asset) string {
	if a.registry == nil {
		return x.Symbol()
	}
	return a.registry.SymbolOf(x)
}

// Pools lists pools for dex ("all", "" or a backend name). An unknown name
// yields an empty map.
func (a *Aggregator) Pools(ctx context.Context, dex string) map[string][]domain.Pool {
	return a.listPools(ctx, a.selectBackends(dex))
}

// Assets lists every backend's assets and feeds them to the registry.
func (a *Aggregator) Assets(ctx context.Context) map[string][]asset.Asset {
	result := make(map[string][]asset.Asset, len(a.backends))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, b := range a.backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()

			list, err := b.ListAssets(ctx)
			if err != nil {
				a.logger.Warn(ctx, "backend assets failed", "backend", b.Name(), "error", err)
			}
			if list == nil {
				list = []asset.Asset{}
			}

			mu.Lock()
			result[b.Name()] = list
			mu.Unlock()
		}(b)
	}
	wg.Wait()

	if a.registry != nil {
		for _, b := range a.backends {
			a.registry.UpsertAll(result[b.Name()])
		}
	}
	return result
}

func (a *Aggregator) selectBackends(dex string) []Backend {
	if dex == "" || dex == DexAll {
		return a.backends
	}
	if b, ok := a.byName[dex]; ok {
		return []Backend{b}
	}
	return nil
}

func (a *Aggregator) listPools(ctx context.Context, backends []Backend) map[string][]domain.Pool {
	result := make(map[string][]domain.Pool, len(backends))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, b := range backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()

			pools, err := b.ListPools(ctx)
			if err != nil {
				a.logger.Warn(ctx, "backend pools failed", "backend", b.Name(), "error", err)
			}
			if pools == nil {
				pools = []domain.Pool{}
			}

			mu.Lock()
			result[b.Name()] = pools
			mu.Unlock()
		}(b)
	}
	wg.Wait()
	return result
}
