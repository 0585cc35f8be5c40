package allocator

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfbatista/carteira-backend/internal/domain"
)

// GreedyUnits distributes contribution by buying whole price-quantized units,
// for brokers where fractional shares cannot be purchased.
// Logic:
//  1. Filter rows to status BUY_MORE; assets without a usable price are
//     skipped (a unit purchase cannot be quantized without one)
//  2. Order candidates by deviation descending, ties broken by ascending
//     price (the cheaper asset first)
//  3. For each candidate, buy as many whole units as the remaining budget
//     allows, then move on with the decremented budget
//  4. Whatever no candidate's unit price fits into is reported explicitly as
//     Unallocated - leftover is never silently dropped
//
// This trades the proportionality of the default mode for respecting
// indivisible unit purchases.
func GreedyUnits(rows []domain.ReconciledRow, contribution decimal.Decimal) (*domain.Plan, error) {
	if contribution.IsNegative() {
		return nil, errors.New("contribution amount cannot be negative")
	}

	plan := &domain.Plan{
		ID:           uuid.New(),
		Mode:         domain.ModeGreedyUnits,
		Contribution: contribution,
		Unallocated:  contribution,
		GeneratedAt:  time.Now(),
	}

	candidates := make([]domain.ReconciledRow, 0, len(rows))
	for _, row := range buyMoreRows(rows) {
		if row.Price != nil && row.Price.IsPositive() {
			candidates = append(candidates, row)
		}
	}
	if len(candidates) == 0 || contribution.IsZero() {
		return plan, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].DeviationPct != candidates[j].DeviationPct {
			return candidates[i].DeviationPct > candidates[j].DeviationPct
		}
		return candidates[i].Price.LessThan(*candidates[j].Price)
	})

	remaining := contribution
	entries := make([]domain.PlanEntry, 0, len(candidates))

	for _, row := range candidates {
		price := *row.Price
		units := remaining.Div(price).Floor().IntPart()
		if units <= 0 {
			continue
		}

		amount := price.Mul(decimal.NewFromInt(units))
		remaining = remaining.Sub(amount)

		u := units
		entries = append(entries, domain.PlanEntry{
			AssetID:           row.AssetID,
			DeviationPct:      row.DeviationPct,
			RecommendedAmount: amount,
			Price:             row.Price,
			Units:             &u,
		})
	}

	plan.Entries = entries
	plan.Unallocated = remaining
	return plan, nil
}
