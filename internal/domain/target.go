package domain

import (
	"errors"
	"strings"
)

// Target represents the ideal allocation for one asset.
type Target struct {
	AssetID            string  // canonical identifier (see CanonicalAssetID)
	IdealAllocationPct float64 // desired share of the portfolio, 0-100
	IdealPctMissing    bool    // true when the source cell was absent or non-numeric
}

// Validate ensures the target adheres to domain rules.
// Returns an error if validation fails.
func (t *Target) Validate() error {
	if strings.TrimSpace(t.AssetID) == "" {
		return errors.New("target asset id cannot be empty")
	}
	if t.IdealAllocationPct < 0 {
		return errors.New("target ideal allocation cannot be negative")
	}
	return nil
}
