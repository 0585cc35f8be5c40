package rebalance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfbatista/carteira-backend/internal/domain"
)

// stubPriceSource serves canned prices and records which assets were asked.
// Lookups run concurrently, hence the mutex.
type stubPriceSource struct {
	mu     sync.Mutex
	prices map[string]float64
	asked  []string
}

func (s *stubPriceSource) Quote(_ context.Context, assetID string) (*domain.Quote, error) {
	id := domain.CanonicalAssetID(assetID)
	s.mu.Lock()
	s.asked = append(s.asked, id)
	s.mu.Unlock()
	price, ok := s.prices[id]
	if !ok {
		return nil, domain.ErrQuoteUnavailable
	}
	return &domain.Quote{AssetID: id, Price: decimal.NewFromFloat(price), At: time.Now()}, nil
}

func sampleInput(contribution string) BuildPlanInput {
	return BuildPlanInput{
		Holdings: []domain.Holding{
			{AssetID: "X", CurrentAllocationPct: 30},
			{AssetID: "Y", CurrentAllocationPct: 70},
		},
		Targets: []domain.Target{
			{AssetID: "X", IdealAllocationPct: 50},
			{AssetID: "Y", IdealAllocationPct: 50},
		},
		Contribution: contribution,
	}
}

func TestBuildPlan_FullPipeline(t *testing.T) {
	svc := NewService(nil, zerolog.Nop())

	plan, result, err := svc.BuildPlan(context.Background(), sampleInput("1000"))
	require.NoError(t, err)

	require.Len(t, result.Rows, 2)
	assert.Equal(t, domain.StatusBuyMore, result.Rows[0].Status)

	require.Len(t, plan.Entries, 1)
	assert.Equal(t, "X", plan.Entries[0].AssetID)
	assert.True(t, plan.Entries[0].RecommendedAmount.Equal(decimal.NewFromInt(1000)))
}

func TestBuildPlan_ConsolidatesDuplicateLotsBeforeReconciling(t *testing.T) {
	svc := NewService(nil, zerolog.Nop())

	input := sampleInput("100")
	// X split across two lots of 15% each still reconciles as a single 30%.
	input.Holdings = []domain.Holding{
		{AssetID: "X", CurrentAllocationPct: 15},
		{AssetID: "x", CurrentAllocationPct: 15},
		{AssetID: "Y", CurrentAllocationPct: 70},
	}

	_, result, err := svc.BuildPlan(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.InDelta(t, 30, result.Rows[0].CurrentAllocationPct, 1e-9)
}

func TestBuildPlan_PtBRContributionFormat(t *testing.T) {
	svc := NewService(nil, zerolog.Nop())

	plan, _, err := svc.BuildPlan(context.Background(), sampleInput("1.000,00"))
	require.NoError(t, err)
	require.Len(t, plan.Entries, 1)
	assert.True(t, plan.Contribution.Equal(decimal.NewFromInt(1000)))
}

func TestBuildPlan_InvalidContributionBecomesZeroWithWarning(t *testing.T) {
	svc := NewService(nil, zerolog.Nop())

	plan, result, err := svc.BuildPlan(context.Background(), sampleInput("not a number"))
	require.NoError(t, err)
	assert.True(t, plan.IsEmpty())
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[len(result.Warnings)-1], "contribution")
}

func TestBuildPlan_AttachesPricesWhenRequested(t *testing.T) {
	prices := &stubPriceSource{prices: map[string]float64{"X": 12.34}}
	svc := NewService(prices, zerolog.Nop())

	input := sampleInput("1000")
	input.WithPrices = true

	plan, result, err := svc.BuildPlan(context.Background(), input)
	require.NoError(t, err)

	x := result.Rows[0]
	require.Equal(t, "X", x.AssetID)
	require.NotNil(t, x.Price)
	assert.True(t, x.Price.Equal(decimal.NewFromFloat(12.34)))

	// Y has no quote; its price stays absent without failing the run.
	assert.Nil(t, result.Rows[1].Price)
	require.Len(t, plan.Entries, 1)
	require.NotNil(t, plan.Entries[0].Price)
}

func TestBuildPlan_GreedyModeForcesPriceAttach(t *testing.T) {
	prices := &stubPriceSource{prices: map[string]float64{"X": 300}}
	svc := NewService(prices, zerolog.Nop())

	input := sampleInput("1000")
	input.Mode = domain.ModeGreedyUnits
	// WithPrices deliberately left false: greedy mode cannot run without
	// prices, so the service must attach them anyway.

	plan, _, err := svc.BuildPlan(context.Background(), input)
	require.NoError(t, err)
	assert.NotEmpty(t, prices.asked)

	require.Len(t, plan.Entries, 1)
	require.NotNil(t, plan.Entries[0].Units)
	assert.EqualValues(t, 3, *plan.Entries[0].Units)
	assert.True(t, plan.Unallocated.Equal(decimal.NewFromInt(100)))
}

func TestBuildPlan_UnknownModeIsRejected(t *testing.T) {
	svc := NewService(nil, zerolog.Nop())

	input := sampleInput("100")
	input.Mode = domain.AllocationMode("COIN_FLIP")

	_, _, err := svc.BuildPlan(context.Background(), input)
	assert.Error(t, err)
}

func TestReconcile_UsesConfiguredDefaultEpsilon(t *testing.T) {
	// The deployment-wide tolerance applies when the request carries none.
	svc := NewService(nil, zerolog.Nop()).WithDefaultEpsilon(25)

	result, err := svc.Reconcile(context.Background(), sampleInput(""))
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	for _, row := range result.Rows {
		assert.Equal(t, domain.StatusOnTarget, row.Status)
	}
}

func TestReconcile_RequestEpsilonWinsOverConfiguredDefault(t *testing.T) {
	svc := NewService(nil, zerolog.Nop()).WithDefaultEpsilon(25)

	input := sampleInput("")
	eps := 0.01
	input.Epsilon = &eps

	result, err := svc.Reconcile(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBuyMore, result.Rows[0].Status)
	assert.Equal(t, domain.StatusReduce, result.Rows[1].Status)
}

func TestReconcile_PropagatesEpsilonOverride(t *testing.T) {
	svc := NewService(nil, zerolog.Nop())

	input := sampleInput("")
	// With a huge tolerance everything counts as on target.
	eps := 25.0
	input.Epsilon = &eps

	result, err := svc.Reconcile(context.Background(), input)
	require.NoError(t, err)
	for _, row := range result.Rows {
		assert.Equal(t, domain.StatusOnTarget, row.Status)
	}
}
