package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Holding represents one consolidated position in the current portfolio.
// Monetary fields use decimal; percentage fields are plain floats (0-100 scale,
// may drift slightly above 100 due to source rounding).
type Holding struct {
	AssetID              string          // canonical identifier (see CanonicalAssetID)
	AppliedCapital       decimal.Decimal // total capital invested into the asset
	GrossBalance         decimal.Decimal // current balance before taxes/fees
	CurrentAllocationPct float64         // share of the portfolio, 0-100
	AverageReturnPct     *float64        // optional, average return reported by the source
	FirstAcquisitionDate *time.Time      // optional, earliest purchase date
	CurrentPctMissing    bool            // true when the source cell was absent or non-numeric
}

// CanonicalAssetID normalizes an asset identifier for joining and grouping.
// Both the holdings table and the target table must go through this before
// any comparison; mismatched canonicalization silently produces unmatched
// rows instead of errors.
func CanonicalAssetID(raw string) string {
	id := strings.TrimSpace(raw)
	id = strings.Join(strings.Fields(id), " ")
	return strings.ToUpper(id)
}

// Validate ensures the holding adheres to domain rules.
// Returns an error if validation fails.
func (h *Holding) Validate() error {
	if strings.TrimSpace(h.AssetID) == "" {
		return errors.New("holding asset id cannot be empty")
	}
	return nil
}
