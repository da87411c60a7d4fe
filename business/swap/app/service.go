// Package app turns client swap intents into estimates and unsigned
// settlement instructions.
package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	quotingapp "github.com/fd1az/tonswap/business/quoting/app"
	quotingdomain "github.com/fd1az/tonswap/business/quoting/domain"
	"github.com/fd1az/tonswap/business/swap/domain"
	"github.com/fd1az/tonswap/internal/apm"
	"github.com/fd1az/tonswap/internal/apperror"
	"github.com/fd1az/tonswap/internal/asset"
	"github.com/fd1az/tonswap/internal/logger"
)

const tracerName = "swap"

// Quoter is the part of the quote aggregator the swap service needs.
type Quoter interface {
	EstimateBest(ctx context.Context, from, to asset.Asset, amount *big.Int) (*quotingdomain.Estimate, error)
	Quote(ctx context.Context, backend string, from, to asset.Asset, amount *big.Int) (*quotingdomain.Quote, error)
}

var _ Quoter = (*quotingapp.Aggregator)(nil)

// Options configures the swap service.
type Options struct {
	// DefaultBackend quotes builds that arrive without minReceived.
	DefaultBackend  string
	DefaultSlippage decimal.Decimal
	Settlement      Settlement
}

// Service answers estimate and build requests.
type Service struct {
	quoter Quoter
	opts   Options
	logger logger.LoggerInterface
	tracer apm.Tracer
}

// NewService creates a swap service.
func NewService(quoter Quoter, opts Options, log logger.LoggerInterface) *Service {
	return &Service{
		quoter: quoter,
		opts:   opts,
		logger: log,
		tracer: apm.NewTracer(tracerName),
	}
}

// Estimate returns the best quote across backends with its minimum received
// amount at the requested slippage.
func (s *Service) Estimate(ctx context.Context, req EstimateRequest) (*domain.EstimateResult, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "swap.estimate")
	defer span.End()

	missing := apperror.New(apperror.CodeMissingParameter, apperror.WithContext("fromToken, toToken, amount"))
	p, err := parsePair(req.FromToken, req.ToToken, req.Amount, missing)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}
	slippage, err := slippageOr(req.Slippage, s.opts.DefaultSlippage)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	est, err := s.quoter.EstimateBest(ctx, p.from, p.to, p.amount)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	winner := est.Winner.View()
	minReceived := quotingapp.MinReceived(est.Winner.Output, slippage)

	span.SetAttributes(
		attribute.String("dex", est.Backend),
		attribute.String("min_received", minReceived.String()),
	)

	return &domain.EstimateResult{
		Success:      true,
		OutputAmount: winner.OutputAmount,
		MinReceived:  asset.NewUnits(minReceived),
		PriceImpact:  winner.PriceImpact,
		Fee:          winner.Fee,
		Route:        winner.Route,
		Dex:          est.Backend,
		Slippage:     slippage.InexactFloat64(),
		Comparison:   est.Comparison(),
	}, nil
}

// Build produces the unsigned settlement instruction for a swap.
func (s *Service) Build(ctx context.Context, req BuildRequest) (*domain.BuildResult, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "swap.build")
	defer span.End()

	missing := apperror.New(apperror.CodeMissingParameter)
	if req.SenderAddress == "" {
		span.NoticeError(missing)
		return nil, missing
	}
	p, err := parsePair(req.FromToken, req.ToToken, req.Amount, missing)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	// Checked before any quote is fetched.
	if p.from.IsNative() && p.to.IsNative() {
		err := apperror.New(apperror.CodeUnsupportedRoute, apperror.WithMessage("TON -> TON swap is not supported"))
		span.NoticeError(err)
		return nil, err
	}

	minReceived, err := s.minReceived(ctx, req, p)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	tx := BuildTransaction(s.opts.Settlement, Intent{
		From:        p.from,
		To:          p.to,
		Amount:      p.amount,
		MinReceived: minReceived,
		Sender:      req.SenderAddress,
	})

	gas := new(big.Int)
	if !p.from.IsNative() {
		gas = tx.ValueInt()
	}

	span.SetAttributes(
		attribute.String("from", p.from.Key()),
		attribute.String("to", p.to.Key()),
		attribute.String("min_received", minReceived.String()),
	)
	s.logger.Debug(ctx, "swap built",
		"from", p.from.Key(),
		"to", p.to.Key(),
		"amount", p.amount.String(),
		"minReceived", minReceived.String(),
	)

	return &domain.BuildResult{
		Success:       true,
		Transaction:   tx,
		FromToken:     req.FromToken,
		ToToken:       req.ToToken,
		Amount:        asset.NewUnits(p.amount),
		MinReceived:   asset.NewUnits(minReceived),
		SenderAddress: req.SenderAddress,
		EstimatedGas:  asset.NewUnits(gas),
	}, nil
}

// minReceived uses the client's bound when given, else quotes the default
// backend and applies slippage.
func (s *Service) minReceived(ctx context.Context, req BuildRequest, p pair) (*big.Int, error) {
	if !isEmpty(req.MinReceived) {
		return parseAmount(req.MinReceived)
	}

	slippage, err := slippageOr(req.Slippage, s.opts.DefaultSlippage)
	if err != nil {
		return nil, err
	}

	q, err := s.quoter.Quote(ctx, s.opts.DefaultBackend, p.from, p.to, p.amount)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperror.New(apperror.CodeAllBackendsUnavailable,
			apperror.WithContext(fmt.Sprintf("%s returned no quote", s.opts.DefaultBackend)))
	}
	return quotingapp.MinReceived(q.Output, slippage), nil
}
