package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrQuoteUnavailable is returned by a PriceSource when no current price
// exists for an asset. Callers treat it as "price absent", never as a
// reason to abort a computation.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// Quote represents a current market price for one asset.
type Quote struct {
	AssetID string
	Price   decimal.Decimal
	At      time.Time
}

// PriceSource defines the interface for live price resolution.
// Implementations are expected to be individually failable: a failed or
// timed-out lookup for one asset must not affect lookups for others.
type PriceSource interface {
	// Quote returns the current market price for an asset, or
	// ErrQuoteUnavailable when the source has no price for it.
	Quote(ctx context.Context, assetID string) (*Quote, error)
}
