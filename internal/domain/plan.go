package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationMode represents the contribution-distribution strategy
type AllocationMode string

const (
	// ModeProportional splits the contribution across under-allocated assets
	// in proportion to their deviation (fractional amounts allowed). Default.
	ModeProportional AllocationMode = "PROPORTIONAL"
	// ModeGreedyUnits buys whole price-quantized units, highest deviation
	// first, and reports the leftover budget explicitly.
	ModeGreedyUnits AllocationMode = "GREEDY_UNITS"
)

// PlanEntry is the recommendation for one asset within a contribution plan.
type PlanEntry struct {
	AssetID           string
	DeviationPct      float64
	RecommendedAmount decimal.Decimal
	Price             *decimal.Decimal // informational in proportional mode, required in greedy mode
	Units             *int64           // whole units to buy, greedy mode only
}

// Plan is the full recommendation produced for one contribution amount.
// Recomputed fresh for every request; never persisted.
type Plan struct {
	ID           uuid.UUID
	Mode         AllocationMode
	Contribution decimal.Decimal
	Entries      []PlanEntry
	Unallocated  decimal.Decimal // leftover budget (greedy mode); zero in proportional mode
	GeneratedAt  time.Time
}

// IsEmpty reports whether the plan contains no recommendations.
// An empty plan is a valid terminal state ("no action needed"), not an error.
func (p *Plan) IsEmpty() bool {
	return len(p.Entries) == 0
}
