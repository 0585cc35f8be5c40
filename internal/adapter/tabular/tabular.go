// Package tabular maps raw spreadsheet rows onto domain records.
// Column names vary across sources (pt-BR exports, English exports, with or
// without unit markers), so every header is normalized and matched against a
// set of known aliases before any cell is parsed.
package tabular

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mfbatista/carteira-backend/internal/domain"
	"github.com/mfbatista/carteira-backend/internal/usecase/normalizer"
)

// field keys after header normalization
const (
	fieldAsset      = "asset"
	fieldApplied    = "applied_capital"
	fieldGross      = "gross_balance"
	fieldCurrentPct = "current_allocation_pct"
	fieldReturnPct  = "average_return_pct"
	fieldFirstDate  = "first_acquisition_date"
	fieldIdealPct   = "ideal_allocation_pct"
)

// headerAliases maps normalized column headers to field keys. Headers are
// normalized with normalizeHeader before lookup, so "Participação Atual (%)"
// and "participacao atual" both land on the same alias.
var headerAliases = map[string]string{
	"produto":               fieldAsset,
	"ativo":                 fieldAsset,
	"asset":                 fieldAsset,
	"assetid":               fieldAsset,
	"ticker":                fieldAsset,
	"valoraplicado":         fieldApplied,
	"appliedcapital":        fieldApplied,
	"saldobruto":            fieldGross,
	"grossbalance":          fieldGross,
	"participacaoatual":     fieldCurrentPct,
	"currentallocation":     fieldCurrentPct,
	"currentpct":            fieldCurrentPct,
	"rentabilidademedia":    fieldReturnPct,
	"averagereturn":         fieldReturnPct,
	"dataprimeiraaplicacao": fieldFirstDate,
	"firstacquisitiondate":  fieldFirstDate,
	"participacaoideal":     fieldIdealPct,
	"idealallocation":       fieldIdealPct,
	"idealpct":              fieldIdealPct,
}

// accentFolder strips the accented characters that appear in pt-BR headers.
var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "ã", "a", "â", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "õ", "o", "ô", "o",
	"ú", "u",
	"ç", "c",
)

// normalizeHeader lowers, folds accents and drops everything that is not a
// letter or digit, so unit markers like "(%)" or "R$" in headers vanish.
func normalizeHeader(h string) string {
	s := accentFolder.Replace(strings.ToLower(strings.TrimSpace(h)))
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fieldsOf re-keys a raw row by field key, keeping only recognized columns.
// Cells stay loosely typed: JSON bodies deliver numbers as float64 and text
// as string, CSV delivers everything as string.
func fieldsOf(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for header, cell := range row {
		if key, ok := headerAliases[normalizeHeader(header)]; ok {
			out[key] = cell
		}
	}
	return out
}

// cellString renders a loosely-typed cell as text for the parsers that only
// deal in strings (asset ids, dates, currency).
func cellString(cell any) string {
	switch v := cell.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// parsePct parses a percentage cell fail-soft and reports whether the cell
// was absent or non-numeric, which feeds the UNKNOWN status downstream.
// Numeric cells are already on the 0-100 scale and can never be missing.
func parsePct(cell any) (float64, bool) {
	s, isText := cell.(string)
	if !isText {
		if cell == nil {
			return 0, true
		}
		return normalizer.PercentageValue(cell), false
	}
	if strings.TrimSpace(s) == "" {
		return 0, true
	}
	v := normalizer.ParsePercentage(s)
	if v == 0 && !normalizer.LooksNumeric(s) {
		return 0, true
	}
	return v, false
}

// dateLayouts covers the pt-BR export format and ISO dates.
var dateLayouts = []string{"02/01/2006", "2006-01-02"}

func parseDate(cell string) *time.Time {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, cell); err == nil {
			return &d
		}
	}
	return nil
}

// MapHoldings turns raw holdings rows into domain records.
// Numeric cells parse fail-soft to zero; a row without an asset identifier is
// a contract violation and fails the whole mapping, since such a row cannot
// be defaulted into anything meaningful.
func MapHoldings(rows []map[string]any) ([]domain.Holding, error) {
	out := make([]domain.Holding, 0, len(rows))
	for i, row := range rows {
		fields := fieldsOf(row)

		asset := strings.TrimSpace(cellString(fields[fieldAsset]))
		if asset == "" {
			return nil, fmt.Errorf("holdings row %d: missing asset identifier", i+1)
		}

		h := domain.Holding{
			AssetID:        domain.CanonicalAssetID(asset),
			AppliedCapital: normalizer.ParseCurrency(cellString(fields[fieldApplied])),
			GrossBalance:   normalizer.ParseCurrency(cellString(fields[fieldGross])),
		}
		h.CurrentAllocationPct, h.CurrentPctMissing = parsePct(fields[fieldCurrentPct])

		if cell, ok := fields[fieldReturnPct]; ok && strings.TrimSpace(cellString(cell)) != "" {
			v := normalizer.PercentageValue(cell)
			h.AverageReturnPct = &v
		}
		h.FirstAcquisitionDate = parseDate(cellString(fields[fieldFirstDate]))

		out = append(out, h)
	}
	return out, nil
}

// MapTargets turns raw target-allocation rows into domain records.
func MapTargets(rows []map[string]any) ([]domain.Target, error) {
	out := make([]domain.Target, 0, len(rows))
	for i, row := range rows {
		fields := fieldsOf(row)

		asset := strings.TrimSpace(cellString(fields[fieldAsset]))
		if asset == "" {
			return nil, fmt.Errorf("targets row %d: missing asset identifier", i+1)
		}

		t := domain.Target{AssetID: domain.CanonicalAssetID(asset)}
		t.IdealAllocationPct, t.IdealPctMissing = parsePct(fields[fieldIdealPct])

		out = append(out, t)
	}
	return out, nil
}
