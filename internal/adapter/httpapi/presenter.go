package httpapi

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/mfbatista/carteira-backend/internal/domain"
	"github.com/mfbatista/carteira-backend/internal/usecase/reconciler"
)

// The presenter owns all formatting: the core emits plain decimals and the
// display strings ("R$1.234,56") are produced here only.

// FormatBRL renders a decimal amount in Brazilian Real display format.
func FormatBRL(d decimal.Decimal) string {
	cents := d.Round(2).Shift(2).IntPart()
	return money.New(cents, money.BRL).Display()
}

type rowDTO struct {
	AssetID              string  `json:"asset_id"`
	CurrentAllocationPct float64 `json:"current_allocation_pct"`
	IdealAllocationPct   float64 `json:"ideal_allocation_pct"`
	DeviationPct         float64 `json:"deviation_pct"`
	Status               string  `json:"status"`
	GrossBalance         string  `json:"gross_balance"`
	GrossBalanceDisplay  string  `json:"gross_balance_display"`
	Price                *string `json:"price,omitempty"`
	PriceDisplay         *string `json:"price_display,omitempty"`
}

type reconcileDTO struct {
	Rows     []rowDTO `json:"rows"`
	Warnings []string `json:"warnings"`
}

type entryDTO struct {
	AssetID                  string  `json:"asset_id"`
	DeviationPct             float64 `json:"deviation_pct"`
	RecommendedAmount        string  `json:"recommended_amount"`
	RecommendedAmountDisplay string  `json:"recommended_amount_display"`
	Price                    *string `json:"price,omitempty"`
	Units                    *int64  `json:"units,omitempty"`
}

type planDTO struct {
	PlanID              string     `json:"plan_id"`
	Mode                string     `json:"mode"`
	Contribution        string     `json:"contribution"`
	ContributionDisplay string     `json:"contribution_display"`
	Entries             []entryDTO `json:"entries"`
	Unallocated         string     `json:"unallocated"`
	UnallocatedDisplay  string     `json:"unallocated_display"`
	NoActionNeeded      bool       `json:"no_action_needed"`
	GeneratedAt         time.Time  `json:"generated_at"`
	Warnings            []string   `json:"warnings"`
	Table               []rowDTO   `json:"table"`
}

type quoteDTO struct {
	AssetID string    `json:"asset_id"`
	Price   string    `json:"price"`
	Display string    `json:"price_display"`
	At      time.Time `json:"at"`
}

func rowDTOs(rows []domain.ReconciledRow) []rowDTO {
	out := make([]rowDTO, 0, len(rows))
	for _, row := range rows {
		dto := rowDTO{
			AssetID:              row.AssetID,
			CurrentAllocationPct: row.CurrentAllocationPct,
			IdealAllocationPct:   row.IdealAllocationPct,
			DeviationPct:         row.DeviationPct,
			Status:               string(row.Status),
			GrossBalance:         row.GrossBalance.String(),
			GrossBalanceDisplay:  FormatBRL(row.GrossBalance),
		}
		if row.Price != nil {
			raw := row.Price.String()
			display := FormatBRL(*row.Price)
			dto.Price = &raw
			dto.PriceDisplay = &display
		}
		out = append(out, dto)
	}
	return out
}

func reconcileResponse(result *reconciler.Result) reconcileDTO {
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return reconcileDTO{Rows: rowDTOs(result.Rows), Warnings: warnings}
}

func planResponse(plan *domain.Plan, result *reconciler.Result) planDTO {
	entries := make([]entryDTO, 0, len(plan.Entries))
	for _, e := range plan.Entries {
		dto := entryDTO{
			AssetID:                  e.AssetID,
			DeviationPct:             e.DeviationPct,
			RecommendedAmount:        e.RecommendedAmount.String(),
			RecommendedAmountDisplay: FormatBRL(e.RecommendedAmount),
			Units:                    e.Units,
		}
		if e.Price != nil {
			raw := e.Price.String()
			dto.Price = &raw
		}
		entries = append(entries, dto)
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return planDTO{
		PlanID:              plan.ID.String(),
		Mode:                string(plan.Mode),
		Contribution:        plan.Contribution.String(),
		ContributionDisplay: FormatBRL(plan.Contribution),
		Entries:             entries,
		Unallocated:         plan.Unallocated.String(),
		UnallocatedDisplay:  FormatBRL(plan.Unallocated),
		NoActionNeeded:      plan.IsEmpty(),
		GeneratedAt:         plan.GeneratedAt,
		Warnings:            warnings,
		Table:               rowDTOs(result.Rows),
	}
}

func quoteResponse(q *domain.Quote) quoteDTO {
	return quoteDTO{
		AssetID: q.AssetID,
		Price:   q.Price.String(),
		Display: FormatBRL(q.Price),
		At:      q.At,
	}
}
