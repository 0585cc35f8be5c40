// Package normalizer turns the heterogeneous textual values found in
// portfolio spreadsheets (pt-BR and en locales, with or without "%" and "R$"
// markers) into canonical numeric values, and consolidates duplicate asset
// rows into one row per asset.
//
// Parsing is deliberately fail-soft: a malformed cell becomes zero instead of
// aborting the whole table. The domain favors "show a zero" over "halt the
// report".
package normalizer

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mfbatista/carteira-backend/internal/domain"
)

// ParsePercentage parses a percentage cell into a 0-100 scale float.
// Accepted forms: "12,3%", "12.3", "12,3", "  7.5 % ".
// Logic:
//  1. Trim whitespace and strip a trailing "%"
//  2. Replace "," with "." (the domain never uses comma as a thousands
//     separator in percentage fields, so comma is always the decimal marker)
//  3. Parse as float; on failure return 0 (fail-soft)
func ParsePercentage(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// PercentageValue parses a percentage from a loosely-typed cell, as produced
// by JSON decoding of raw tables (numbers arrive as float64, everything else
// as string). Unknown types fall back to 0.
func PercentageValue(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		return ParsePercentage(n)
	default:
		return 0
	}
}

// ParseCurrency parses a monetary cell into a decimal.
// Accepted forms: "R$1.234,56", "1.234,56", "1234.56", "R$ 500".
// Logic:
//  1. Strip the currency symbol and whitespace
//  2. When a comma is present it is the decimal marker, so every "." is a
//     thousands separator: remove the dots FIRST, then turn the comma into a
//     dot. Reversing these two steps corrupts values like "1.234,56".
//  3. Without a comma the string is already dot-decimal; parse as-is
//  4. On failure return zero (fail-soft)
func ParseCurrency(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}

// ParseContribution parses the free-form contribution amount typed by the
// user. Both "." and "," are accepted as the decimal separator.
// Returns (0, false) for non-numeric or negative input; the caller reports
// an advisory message and proceeds with an empty result, it never fails.
func ParseContribution(raw string) (decimal.Decimal, bool) {
	v := ParseCurrency(raw)
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, false
	}
	if v.IsNegative() {
		return decimal.Zero, false
	}
	// ParseCurrency maps garbage to zero; distinguish a genuine "0" from
	// unparsable input so the caller can warn about the latter.
	if v.IsZero() && !LooksNumeric(raw) {
		return decimal.Zero, false
	}
	return v, true
}

// LooksNumeric reports whether raw contains at least one digit. It tells a
// genuine zero cell apart from an unparsable one, which matters for the
// UNKNOWN status classification.
func LooksNumeric(raw string) bool {
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// Consolidate merges duplicate asset rows (the same asset split across
// multiple lots) into one holding per canonical asset id.
// Logic:
//   - AppliedCapital, GrossBalance and CurrentAllocationPct are summed
//     (participation percentages of the same asset are additive)
//   - AverageReturnPct is averaged over the lots that report it
//   - FirstAcquisitionDate takes the earliest date
//   - CurrentPctMissing survives only when every lot was missing it
//
// Output is ordered by asset id so consolidation is deterministic regardless
// of input order.
func Consolidate(holdings []domain.Holding) []domain.Holding {
	type accum struct {
		holding     domain.Holding
		returnSum   float64
		returnCount int
		allMissing  bool
	}

	groups := make(map[string]*accum)
	order := make([]string, 0, len(holdings))

	for _, h := range holdings {
		id := domain.CanonicalAssetID(h.AssetID)
		if id == "" {
			continue
		}

		g, ok := groups[id]
		if !ok {
			g = &accum{
				holding: domain.Holding{
					AssetID:        id,
					AppliedCapital: decimal.Zero,
					GrossBalance:   decimal.Zero,
				},
				allMissing: true,
			}
			groups[id] = g
			order = append(order, id)
		}

		g.holding.AppliedCapital = g.holding.AppliedCapital.Add(h.AppliedCapital)
		g.holding.GrossBalance = g.holding.GrossBalance.Add(h.GrossBalance)
		g.holding.CurrentAllocationPct += h.CurrentAllocationPct
		g.allMissing = g.allMissing && h.CurrentPctMissing

		if h.AverageReturnPct != nil {
			g.returnSum += *h.AverageReturnPct
			g.returnCount++
		}
		if h.FirstAcquisitionDate != nil {
			if g.holding.FirstAcquisitionDate == nil || h.FirstAcquisitionDate.Before(*g.holding.FirstAcquisitionDate) {
				d := *h.FirstAcquisitionDate
				g.holding.FirstAcquisitionDate = &d
			}
		}
	}

	sort.Strings(order)

	out := make([]domain.Holding, 0, len(groups))
	for _, id := range order {
		g := groups[id]
		if g.returnCount > 0 {
			avg := g.returnSum / float64(g.returnCount)
			g.holding.AverageReturnPct = &avg
		}
		g.holding.CurrentPctMissing = g.allMissing
		out = append(out, g.holding)
	}
	return out
}
