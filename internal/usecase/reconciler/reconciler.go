// Package reconciler joins the current portfolio with the target allocation
// and classifies every asset into a rebalancing status.
package reconciler

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mfbatista/carteira-backend/internal/domain"
)

// DefaultEpsilon is the classification tolerance in percentage points.
// A small non-zero tolerance avoids status flapping from floating-point
// noise in the source percentages.
const DefaultEpsilon = 0.01

// sumTolerance is how far a participation column may drift from 100 before
// an advisory warning is emitted.
const sumTolerance = 0.5

// Options configures a reconciliation run.
type Options struct {
	// Epsilon is the tolerance, in percentage points, inside which an asset
	// counts as ON_TARGET. Must not be negative.
	Epsilon float64
}

// Result holds the reconciled table plus any advisory warnings.
// Warnings never block computation.
type Result struct {
	Rows     []domain.ReconciledRow
	Warnings []string
}

// Reconcile performs a full outer join of holdings and targets keyed on the
// canonical asset id, computes each asset's deviation from its ideal
// allocation and classifies it.
// Logic:
//  1. Canonicalize identifiers on both sides (must be identical on both,
//     otherwise legitimate matches silently become defaulted pairs)
//  2. An asset missing from either side defaults that side's percentage to 0;
//     deviation = ideal - current is always computable after defaulting
//  3. status = BUY_MORE if deviation > ε, REDUCE if deviation < -ε,
//     otherwise ON_TARGET. Rows whose source value was absent or non-numeric
//     on either side are classified UNKNOWN instead.
//  4. Rows are sorted by deviation descending (assets most in need of buying
//     first) - a reporting contract, not a correctness requirement
//
// Pure over its inputs. The only error is a contract violation (negative ε);
// data-quality issues surface as warnings in the Result.
func Reconcile(holdings []domain.Holding, targets []domain.Target, opts Options) (*Result, error) {
	if opts.Epsilon < 0 {
		return nil, errors.New("epsilon cannot be negative")
	}

	type side struct {
		holding *domain.Holding
		target  *domain.Target
	}

	joined := make(map[string]*side)
	order := make([]string, 0, len(holdings)+len(targets))

	get := func(rawID string) *side {
		id := domain.CanonicalAssetID(rawID)
		s, ok := joined[id]
		if !ok {
			s = &side{}
			joined[id] = s
			order = append(order, id)
		}
		return s
	}

	for i := range holdings {
		get(holdings[i].AssetID).holding = &holdings[i]
	}
	for i := range targets {
		get(targets[i].AssetID).target = &targets[i]
	}

	rows := make([]domain.ReconciledRow, 0, len(joined))
	var currentSum, idealSum float64

	for _, id := range order {
		s := joined[id]

		row := domain.ReconciledRow{AssetID: id}
		unknown := false

		if s.holding != nil {
			row.CurrentAllocationPct = s.holding.CurrentAllocationPct
			row.GrossBalance = s.holding.GrossBalance
			unknown = unknown || s.holding.CurrentPctMissing
		}
		if s.target != nil {
			row.IdealAllocationPct = s.target.IdealAllocationPct
			unknown = unknown || s.target.IdealPctMissing
		}

		row.DeviationPct = row.IdealAllocationPct - row.CurrentAllocationPct
		row.Status = classify(row.DeviationPct, opts.Epsilon)
		if unknown {
			row.Status = domain.StatusUnknown
		}

		currentSum += row.CurrentAllocationPct
		idealSum += row.IdealAllocationPct
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DeviationPct > rows[j].DeviationPct
	})

	result := &Result{Rows: rows}
	if len(rows) > 0 {
		if math.Abs(currentSum-100) > sumTolerance {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("current allocation percentages sum to %.2f, expected ~100", currentSum))
		}
		if math.Abs(idealSum-100) > sumTolerance {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("ideal allocation percentages sum to %.2f, expected ~100", idealSum))
		}
	}
	return result, nil
}

func classify(deviation, epsilon float64) domain.Status {
	switch {
	case deviation > epsilon:
		return domain.StatusBuyMore
	case deviation < -epsilon:
		return domain.StatusReduce
	default:
		return domain.StatusOnTarget
	}
}
