// Package allocator distributes a contribution amount across the assets that
// are under their ideal allocation. Two strategies exist: proportional
// fractional allocation (the default) and greedy whole-unit allocation.
package allocator

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfbatista/carteira-backend/internal/domain"
)

// Proportional distributes contribution across BUY_MORE rows in proportion to
// each asset's deviation magnitude: assets further from target receive a
// linearly larger share.
// Logic:
//  1. Filter rows to status BUY_MORE
//  2. Empty filtered set, or a zero contribution, yields an empty plan -
//     a valid "no action needed" state, not an error
//  3. Each asset gets contribution * (deviation / total_deviation)
//  4. The largest-deviation entry absorbs the rounding residue so that the
//     entries sum to the contribution exactly (no cent lost)
//
// Prices already attached to rows are carried onto the entries for display;
// they play no part in the allocation formula.
func Proportional(rows []domain.ReconciledRow, contribution decimal.Decimal) (*domain.Plan, error) {
	if contribution.IsNegative() {
		return nil, errors.New("contribution amount cannot be negative")
	}

	plan := &domain.Plan{
		ID:           uuid.New(),
		Mode:         domain.ModeProportional,
		Contribution: contribution,
		Unallocated:  decimal.Zero,
		GeneratedAt:  time.Now(),
	}

	candidates := buyMoreRows(rows)
	if len(candidates) == 0 || contribution.IsZero() {
		return plan, nil
	}

	totalDeviation := 0.0
	for _, row := range candidates {
		totalDeviation += row.DeviationPct
	}
	// BUY_MORE requires deviation > ε ≥ 0, so the total is positive whenever
	// the filtered set is non-empty; a zero total means broken classification.
	if totalDeviation <= 0 {
		return nil, errors.New("total deviation of BUY_MORE rows must be positive")
	}

	total := decimal.NewFromFloat(totalDeviation)
	allocated := decimal.Zero

	entries := make([]domain.PlanEntry, 0, len(candidates))
	for _, row := range candidates {
		amount := contribution.Mul(decimal.NewFromFloat(row.DeviationPct)).Div(total)
		allocated = allocated.Add(amount)
		entries = append(entries, domain.PlanEntry{
			AssetID:           row.AssetID,
			DeviationPct:      row.DeviationPct,
			RecommendedAmount: amount,
			Price:             row.Price,
		})
	}

	// Rows arrive sorted by deviation descending, so entry 0 is the asset
	// most in need of buying; it absorbs the division residue.
	residue := contribution.Sub(allocated)
	entries[0].RecommendedAmount = entries[0].RecommendedAmount.Add(residue)

	// Safety check: the plan must account for the whole contribution.
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.RecommendedAmount)
	}
	if !sum.Equal(contribution) {
		return nil, errors.New("allocated total does not equal contribution amount")
	}

	plan.Entries = entries
	return plan, nil
}

// buyMoreRows filters the reconciled table to the assets eligible for buying,
// preserving the deviation-descending order of the input.
func buyMoreRows(rows []domain.ReconciledRow) []domain.ReconciledRow {
	out := make([]domain.ReconciledRow, 0, len(rows))
	for _, row := range rows {
		if row.Status == domain.StatusBuyMore {
			out = append(out, row)
		}
	}
	return out
}
