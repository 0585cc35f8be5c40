package domain

import "github.com/shopspring/decimal"

// Status represents the rebalancing status of one asset
type Status string

const (
	// StatusBuyMore marks an asset under its ideal allocation (deviation > ε)
	StatusBuyMore Status = "BUY_MORE"
	// StatusReduce marks an asset over its ideal allocation (deviation < -ε)
	StatusReduce Status = "REDUCE"
	// StatusOnTarget marks an asset within ε of its ideal allocation
	StatusOnTarget Status = "ON_TARGET"
	// StatusUnknown marks an asset whose source data was absent or non-numeric
	// on either side of the join; the deviation is still computed from defaults
	StatusUnknown Status = "UNKNOWN"
)

// ReconciledRow is the outcome of joining one asset's current allocation with
// its ideal allocation. Derived per run, never persisted.
type ReconciledRow struct {
	AssetID              string
	CurrentAllocationPct float64
	IdealAllocationPct   float64
	DeviationPct         float64 // ideal - current; positive means under-allocated
	Status               Status
	GrossBalance         decimal.Decimal  // carried over for presentation
	Price                *decimal.Decimal // informational, attached when a quote is available
}
