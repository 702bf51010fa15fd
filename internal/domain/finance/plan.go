package finance

import (
	"fmt"
	"math"
)

const (
	// MaxMonths bounds a projection horizon.
	MaxMonths = 60
	// MaxGrowthPct caps monthly growth of revenue and costs.
	MaxGrowthPct = 1000
	// MaxAmount caps every monetary input.
	MaxAmount = 1e12
)

// Plan is the input of a monthly cash projection.
type Plan struct {
	Currency         string  `json:"currency"`
	InitialCash      float64 `json:"initial_cash"`
	MonthlyRevenue   float64 `json:"monthly_revenue"`
	RevenueGrowthPct float64 `json:"revenue_growth_pct"`
	MonthlyCosts     float64 `json:"monthly_costs"`
	CostGrowthPct    float64 `json:"cost_growth_pct"`
	Months           int     `json:"months"`
}

// Month is one row of a projection.
type Month struct {
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
	Costs   float64 `json:"costs"`
	Net     float64 `json:"net"`
	Cash    float64 `json:"cash"`
}

// Projection is the computed cash plan.
type Projection struct {
	Currency       string  `json:"currency"`
	Months         []Month `json:"months"`
	BreakEvenMonth int     `json:"break_even_month"` // 0 when never reached
	RunwayMonths   int     `json:"runway_months"`
	FundingNeeded  float64 `json:"funding_needed"`
	TotalRevenue   float64 `json:"total_revenue"`
	TotalCosts     float64 `json:"total_costs"`
}

// Validate checks the horizon and keeps every amount and growth rate finite
// and bounded.
func (p Plan) Validate() error {
	if p.Months < 1 || p.Months > MaxMonths {
		return fmt.Errorf("il numero di mesi deve essere compreso tra 1 e %d", MaxMonths)
	}
	for _, v := range []float64{p.InitialCash, p.MonthlyRevenue, p.MonthlyCosts, p.RevenueGrowthPct, p.CostGrowthPct} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("valori numerici non validi")
		}
	}
	if p.InitialCash < 0 || p.MonthlyRevenue < 0 || p.MonthlyCosts < 0 {
		return fmt.Errorf("gli importi non possono essere negativi")
	}
	if p.InitialCash > MaxAmount || p.MonthlyRevenue > MaxAmount || p.MonthlyCosts > MaxAmount {
		return fmt.Errorf("gli importi non possono superare %.0f", float64(MaxAmount))
	}
	if p.RevenueGrowthPct < -100 || p.CostGrowthPct < -100 {
		return fmt.Errorf("la crescita percentuale non può essere inferiore a -100")
	}
	if p.RevenueGrowthPct > MaxGrowthPct || p.CostGrowthPct > MaxGrowthPct {
		return fmt.Errorf("la crescita percentuale non può superare %d", MaxGrowthPct)
	}
	return nil
}

// Project compounds revenue and costs monthly. Month 1 uses the base values.
func Project(p Plan) (*Projection, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	currency := p.Currency
	if currency == "" {
		currency = "EUR"
	}

	out := &Projection{Currency: currency, Months: make([]Month, 0, p.Months), RunwayMonths: p.Months}
	cash := p.InitialCash
	revenue, costs := p.MonthlyRevenue, p.MonthlyCosts
	lowest := cash
	runwaySet := false

	for m := 1; m <= p.Months; m++ {
		if m > 1 {
			revenue *= 1 + p.RevenueGrowthPct/100
			costs *= 1 + p.CostGrowthPct/100
		}
		net := revenue - costs
		cash += net

		out.Months = append(out.Months, Month{
			Month:   m,
			Revenue: round2(revenue),
			Costs:   round2(costs),
			Net:     round2(net),
			Cash:    round2(cash),
		})
		out.TotalRevenue += revenue
		out.TotalCosts += costs

		if out.BreakEvenMonth == 0 && net >= 0 {
			out.BreakEvenMonth = m
		}
		if !runwaySet && cash < 0 {
			out.RunwayMonths = m - 1
			runwaySet = true
		}
		lowest = math.Min(lowest, cash)
	}

	if !finite(cash, out.TotalRevenue, out.TotalCosts, lowest) {
		return nil, fmt.Errorf("la proiezione supera i limiti numerici")
	}
	if lowest < 0 {
		out.FundingNeeded = round2(-lowest)
	}
	out.TotalRevenue = round2(out.TotalRevenue)
	out.TotalCosts = round2(out.TotalCosts)
	return out, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
