package normalizer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfbatista/carteira-backend/internal/domain"
)

func TestParsePercentage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"comma decimal with percent sign", "12,3%", 12.3},
		{"dot decimal", "12.3", 12.3},
		{"comma decimal without sign", "12,3", 12.3},
		{"surrounding whitespace", "  7.5 % ", 7.5},
		{"integer", "40", 40},
		{"malformed input fails soft to zero", "bogus", 0},
		{"empty cell fails soft to zero", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParsePercentage(tt.raw), 1e-9)
		})
	}
}

func TestPercentageValue_AcceptsNumericTypes(t *testing.T) {
	assert.InDelta(t, 7.5, PercentageValue(7.5), 1e-9)
	assert.InDelta(t, 7, PercentageValue(7), 1e-9)
	assert.InDelta(t, 12.3, PercentageValue("12,3%"), 1e-9)
	assert.Zero(t, PercentageValue(nil))
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"full pt-BR form", "R$1.234,56", "1234.56"},
		{"thousands and decimal comma", "1.234,56", "1234.56"},
		{"dot decimal without grouping", "1234.56", "1234.56"},
		{"plain integer with symbol", "R$ 500", "500"},
		{"millions grouping", "R$1.234.567,89", "1234567.89"},
		{"malformed input fails soft to zero", "n/a", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := decimal.NewFromString(tt.want)
			require.NoError(t, err)
			assert.True(t, ParseCurrency(tt.raw).Equal(want),
				"ParseCurrency(%q) = %s, want %s", tt.raw, ParseCurrency(tt.raw), want)
		})
	}
}

func TestParseContribution(t *testing.T) {
	v, ok := ParseContribution("1.000,50")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromFloat(1000.50)))

	v, ok = ParseContribution("250.75")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromFloat(250.75)))

	// A genuine zero is valid input, distinct from garbage.
	v, ok = ParseContribution("0")
	require.True(t, ok)
	assert.True(t, v.IsZero())

	// Garbage and negatives are advisory failures that become zero.
	v, ok = ParseContribution("abc")
	assert.False(t, ok)
	assert.True(t, v.IsZero())

	v, ok = ParseContribution("-100")
	assert.False(t, ok)
	assert.True(t, v.IsZero())

	_, ok = ParseContribution("")
	assert.False(t, ok)
}

func TestConsolidate_SumsDuplicateLots(t *testing.T) {
	holdings := []domain.Holding{
		{
			AssetID:              "X",
			AppliedCapital:       decimal.NewFromInt(100),
			GrossBalance:         decimal.NewFromInt(110),
			CurrentAllocationPct: 10,
		},
		{
			AssetID:              "x ", // same asset, sloppy identifier
			AppliedCapital:       decimal.NewFromInt(200),
			GrossBalance:         decimal.NewFromInt(230),
			CurrentAllocationPct: 20,
		},
	}

	out := Consolidate(holdings)
	require.Len(t, out, 1)
	assert.Equal(t, "X", out[0].AssetID)
	assert.True(t, out[0].AppliedCapital.Equal(decimal.NewFromInt(300)))
	assert.True(t, out[0].GrossBalance.Equal(decimal.NewFromInt(340)))
	assert.InDelta(t, 30, out[0].CurrentAllocationPct, 1e-9)
}

func TestConsolidate_AveragesReturnAndTakesEarliestDate(t *testing.T) {
	r1, r2 := 10.0, 20.0
	d1 := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)

	holdings := []domain.Holding{
		{AssetID: "Y", AverageReturnPct: &r1, FirstAcquisitionDate: &d1},
		{AssetID: "Y", AverageReturnPct: &r2, FirstAcquisitionDate: &d2},
		{AssetID: "Y"}, // lot without return or date does not skew the average
	}

	out := Consolidate(holdings)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].AverageReturnPct)
	assert.InDelta(t, 15, *out[0].AverageReturnPct, 1e-9)
	require.NotNil(t, out[0].FirstAcquisitionDate)
	assert.True(t, out[0].FirstAcquisitionDate.Equal(d2))
}

func TestConsolidate_IsOrderInsensitive(t *testing.T) {
	a := []domain.Holding{
		{AssetID: "B", AppliedCapital: decimal.NewFromInt(1)},
		{AssetID: "A", AppliedCapital: decimal.NewFromInt(2)},
		{AssetID: "B", AppliedCapital: decimal.NewFromInt(3)},
	}
	b := []domain.Holding{a[2], a[0], a[1]}

	outA := Consolidate(a)
	outB := Consolidate(b)
	require.Equal(t, len(outA), len(outB))
	for i := range outA {
		assert.Equal(t, outA[i].AssetID, outB[i].AssetID)
		assert.True(t, outA[i].AppliedCapital.Equal(outB[i].AppliedCapital))
	}
}

func TestConsolidate_MissingFlagSurvivesOnlyWhenAllLotsMissing(t *testing.T) {
	out := Consolidate([]domain.Holding{
		{AssetID: "X", CurrentPctMissing: true},
		{AssetID: "X", CurrentAllocationPct: 5},
	})
	require.Len(t, out, 1)
	assert.False(t, out[0].CurrentPctMissing)

	out = Consolidate([]domain.Holding{
		{AssetID: "Z", CurrentPctMissing: true},
		{AssetID: "Z", CurrentPctMissing: true},
	})
	require.Len(t, out, 1)
	assert.True(t, out[0].CurrentPctMissing)
}
