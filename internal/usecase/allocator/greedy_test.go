package allocator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfbatista/carteira-backend/internal/domain"
)

func pricedBuyMore(id string, deviation, price float64) domain.ReconciledRow {
	row := buyMore(id, deviation)
	p := decimal.NewFromFloat(price)
	row.Price = &p
	return row
}

func TestGreedyUnits_BuysWholeUnitsHighestDeviationFirst(t *testing.T) {
	rows := []domain.ReconciledRow{
		pricedBuyMore("A", 30, 120), // should be served first
		pricedBuyMore("B", 10, 45),
	}

	plan, err := GreedyUnits(rows, decimal.NewFromInt(500))
	require.NoError(t, err)

	// A: floor(500/120) = 4 units = 480; the remaining 20 does not cover a
	// unit of B, so only A appears and the 20 is reported as leftover.
	require.Len(t, plan.Entries, 1)
	assert.Equal(t, "A", plan.Entries[0].AssetID)
	require.NotNil(t, plan.Entries[0].Units)
	assert.EqualValues(t, 4, *plan.Entries[0].Units)
	assert.True(t, plan.Entries[0].RecommendedAmount.Equal(decimal.NewFromInt(480)))
	assert.True(t, plan.Unallocated.Equal(decimal.NewFromInt(20)))
}

func TestGreedyUnits_RemainingBudgetFlowsDownTheList(t *testing.T) {
	rows := []domain.ReconciledRow{
		pricedBuyMore("A", 30, 300),
		pricedBuyMore("B", 10, 40),
	}

	plan, err := GreedyUnits(rows, decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)

	// A: 3 units * 300 = 900, leaving 100; B: 2 units * 40 = 80, leaving 20.
	assert.EqualValues(t, 3, *plan.Entries[0].Units)
	assert.EqualValues(t, 2, *plan.Entries[1].Units)
	assert.True(t, plan.Unallocated.Equal(decimal.NewFromInt(20)),
		"leftover = %s", plan.Unallocated)
}

func TestGreedyUnits_TieBrokenByAscendingPrice(t *testing.T) {
	rows := []domain.ReconciledRow{
		pricedBuyMore("EXPENSIVE", 10, 90),
		pricedBuyMore("CHEAP", 10, 30),
	}

	plan, err := GreedyUnits(rows, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NotEmpty(t, plan.Entries)
	assert.Equal(t, "CHEAP", plan.Entries[0].AssetID)
}

func TestGreedyUnits_LeftoverIsReportedNeverDropped(t *testing.T) {
	rows := []domain.ReconciledRow{pricedBuyMore("A", 10, 70)}

	plan, err := GreedyUnits(rows, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.Len(t, plan.Entries, 1)
	assert.True(t, plan.Unallocated.Equal(decimal.NewFromInt(30)))

	allocated := plan.Entries[0].RecommendedAmount
	assert.True(t, allocated.Add(plan.Unallocated).Equal(plan.Contribution))
}

func TestGreedyUnits_AssetWithoutPriceIsSkipped(t *testing.T) {
	rows := []domain.ReconciledRow{
		buyMore("NOPRICE", 30), // no quote available: cannot quantize units
		pricedBuyMore("PRICED", 10, 25),
	}

	plan, err := GreedyUnits(rows, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.Len(t, plan.Entries, 1)
	assert.Equal(t, "PRICED", plan.Entries[0].AssetID)
}

func TestGreedyUnits_BudgetBelowEveryPriceYieldsEmptyPlan(t *testing.T) {
	rows := []domain.ReconciledRow{pricedBuyMore("A", 10, 500)}

	plan, err := GreedyUnits(rows, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, plan.IsEmpty())
	assert.True(t, plan.Unallocated.Equal(decimal.NewFromInt(100)))
}

func TestGreedyUnits_ZeroContributionReturnsEmptyPlan(t *testing.T) {
	plan, err := GreedyUnits([]domain.ReconciledRow{pricedBuyMore("A", 10, 5)}, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, plan.IsEmpty())
	assert.True(t, plan.Unallocated.IsZero())
}
