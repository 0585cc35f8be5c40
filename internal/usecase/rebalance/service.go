// Package rebalance orchestrates the full calculation pipeline:
// consolidate the raw holdings, reconcile them against the target allocation,
// optionally attach live prices, and distribute a contribution amount.
package rebalance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mfbatista/carteira-backend/internal/domain"
	"github.com/mfbatista/carteira-backend/internal/usecase/allocator"
	"github.com/mfbatista/carteira-backend/internal/usecase/normalizer"
	"github.com/mfbatista/carteira-backend/internal/usecase/reconciler"
)

const (
	defaultLookupTimeout  = 5 * time.Second
	defaultMaxConcurrency = 4
)

// BuildPlanInput represents the input for building a contribution plan
type BuildPlanInput struct {
	Holdings     []domain.Holding
	Targets      []domain.Target
	Contribution string // free-form amount, both "." and "," accepted
	Mode         domain.AllocationMode
	WithPrices   bool     // attach live prices for display; forced on in greedy mode
	Epsilon      *float64 // classification tolerance override
}

// Service runs rebalancing computations. Every run is stateless; the service
// only carries its collaborators.
type Service struct {
	prices         domain.PriceSource // may be nil when no price feed is configured
	log            zerolog.Logger
	lookupTimeout  time.Duration
	maxConcurrent  int
	defaultEpsilon float64
}

// NewService creates a new Service instance
func NewService(prices domain.PriceSource, log zerolog.Logger) *Service {
	return &Service{
		prices:         prices,
		log:            log.With().Str("service", "rebalance").Logger(),
		lookupTimeout:  defaultLookupTimeout,
		maxConcurrent:  defaultMaxConcurrency,
		defaultEpsilon: reconciler.DefaultEpsilon,
	}
}

// WithDefaultEpsilon sets the classification tolerance used when a request
// does not carry its own. Negative values are ignored and keep the built-in
// default.
func (s *Service) WithDefaultEpsilon(epsilon float64) *Service {
	if epsilon >= 0 {
		s.defaultEpsilon = epsilon
	}
	return s
}

// Reconcile consolidates the holdings and joins them with the targets.
// Advisory warnings (participation sums drifting from 100) are logged and
// returned; they never fail the computation.
func (s *Service) Reconcile(ctx context.Context, input BuildPlanInput) (*reconciler.Result, error) {
	opts := reconciler.Options{Epsilon: s.defaultEpsilon}
	if input.Epsilon != nil {
		opts.Epsilon = *input.Epsilon
	}

	consolidated := normalizer.Consolidate(input.Holdings)

	result, err := reconciler.Reconcile(consolidated, input.Targets, opts)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	for _, w := range result.Warnings {
		s.log.Warn().Str("warning", w).Msg("Reconciliation advisory")
	}

	if input.WithPrices {
		s.attachPrices(ctx, result.Rows)
	}

	return result, nil
}

// BuildPlan runs the full pipeline and distributes the contribution amount
// across under-allocated assets.
// Logic:
//  1. Consolidate and reconcile (see Reconcile)
//  2. Parse the contribution fail-soft: invalid or negative input becomes
//     zero with an advisory warning, never an error
//  3. Attach prices when requested; greedy mode cannot quantize units
//     without prices, so it always attaches them
//  4. Allocate using the selected strategy (proportional by default)
func (s *Service) BuildPlan(ctx context.Context, input BuildPlanInput) (*domain.Plan, *reconciler.Result, error) {
	mode := input.Mode
	if mode == "" {
		mode = domain.ModeProportional
	}
	if mode != domain.ModeProportional && mode != domain.ModeGreedyUnits {
		return nil, nil, fmt.Errorf("unknown allocation mode %q", mode)
	}

	needPrices := input.WithPrices || mode == domain.ModeGreedyUnits
	input.WithPrices = needPrices

	result, err := s.Reconcile(ctx, input)
	if err != nil {
		return nil, nil, err
	}

	contribution, ok := normalizer.ParseContribution(input.Contribution)
	if !ok {
		result.Warnings = append(result.Warnings,
			"contribution amount is not a valid non-negative number; treated as zero")
		s.log.Warn().Str("raw", input.Contribution).Msg("Invalid contribution amount")
	}

	var plan *domain.Plan
	switch mode {
	case domain.ModeGreedyUnits:
		plan, err = allocator.GreedyUnits(result.Rows, contribution)
	default:
		plan, err = allocator.Proportional(result.Rows, contribution)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("allocate: %w", err)
	}

	if plan.IsEmpty() && contribution.IsPositive() {
		s.log.Info().Msg("All assets at or above ideal allocation; no action needed")
	}

	return plan, result, nil
}

// attachPrices resolves a live price for every reconciled row, concurrently
// and individually failable. A failed or timed-out lookup leaves that row's
// price absent; partial results are always acceptable because price is
// advisory to the allocation. Cancellation of ctx abandons in-flight lookups.
func (s *Service) attachPrices(ctx context.Context, rows []domain.ReconciledRow) {
	if s.prices == nil || len(rows) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for i := range rows {
		i := i
		g.Go(func() error {
			lctx, cancel := context.WithTimeout(gctx, s.lookupTimeout)
			defer cancel()

			quote, err := s.prices.Quote(lctx, rows[i].AssetID)
			if err != nil {
				if !errors.Is(err, domain.ErrQuoteUnavailable) {
					s.log.Warn().Err(err).Str("asset", rows[i].AssetID).Msg("Price lookup failed")
				}
				return nil
			}
			price := quote.Price
			rows[i].Price = &price
			return nil
		})
	}

	// Workers only ever return nil; the group is used for bounding and
	// context propagation.
	_ = g.Wait()
}
