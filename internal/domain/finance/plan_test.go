package finance

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_FlatBurn(t *testing.T) {
	p, err := Project(Plan{InitialCash: 10000, MonthlyCosts: 3000, Months: 6})
	require.NoError(t, err)

	require.Len(t, p.Months, 6)
	assert.Equal(t, "EUR", p.Currency)
	assert.Equal(t, 7000.0, p.Months[0].Cash)
	assert.Equal(t, 3, p.RunwayMonths) // cash goes negative in month 4
	assert.Equal(t, 0, p.BreakEvenMonth)
	assert.Equal(t, 8000.0, p.FundingNeeded)
	assert.Equal(t, 18000.0, p.TotalCosts)
}

func TestProject_GrowthReachesBreakEven(t *testing.T) {
	p, err := Project(Plan{
		Currency:         "USD",
		InitialCash:      5000,
		MonthlyRevenue:   1000,
		RevenueGrowthPct: 100,
		MonthlyCosts:     3000,
		Months:           4,
	})
	require.NoError(t, err)

	// revenue 1000, 2000, 4000, 8000 against flat 3000 costs
	assert.Equal(t, 3, p.BreakEvenMonth)
	assert.Equal(t, 4, p.RunwayMonths)
	assert.Equal(t, 0.0, p.FundingNeeded)
	assert.Equal(t, 8000.0, p.Months[3].Cash)
	assert.Equal(t, "USD", p.Currency)
}

func TestPlanValidate(t *testing.T) {
	tests := []Plan{
		{Months: 0},
		{Months: MaxMonths + 1},
		{Months: 12, InitialCash: -1},
		{Months: 12, CostGrowthPct: -150},
		{Months: 3, InitialCash: 1000, MonthlyRevenue: 1, RevenueGrowthPct: 1e308, MonthlyCosts: 1},
		{Months: 12, CostGrowthPct: MaxGrowthPct + 1},
		{Months: 12, MonthlyCosts: MaxAmount * 2},
		{Months: 12, MonthlyRevenue: math.Inf(1)},
		{Months: 12, InitialCash: math.NaN()},
	}
	for _, p := range tests {
		_, err := Project(p)
		assert.Error(t, err, "%+v", p)
	}
}

func TestProject_StaysFiniteAtTheBounds(t *testing.T) {
	p, err := Project(Plan{
		InitialCash:      MaxAmount,
		MonthlyRevenue:   MaxAmount,
		RevenueGrowthPct: MaxGrowthPct,
		MonthlyCosts:     MaxAmount,
		CostGrowthPct:    MaxGrowthPct,
		Months:           MaxMonths,
	})
	require.NoError(t, err)

	_, err = json.Marshal(p)
	require.NoError(t, err)
	last := p.Months[len(p.Months)-1]
	assert.False(t, math.IsInf(last.Revenue, 0))
}
