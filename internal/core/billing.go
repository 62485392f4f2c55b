package core

import "github.com/shopspring/decimal"

var (
	three  = decimal.NewFromInt(3)
	four   = decimal.NewFromInt(4)
	twelve = decimal.NewFromInt(12)
)

// MonthlyEquivalent normalizes a cost to a per-month figure. One-time
// charges contribute nothing to recurring totals. This function and
// AnnualEquivalent are the single source of truth for every aggregate;
// no other component recomputes cycle math.
func MonthlyEquivalent(cost decimal.Decimal, cycle BillingCycle) decimal.Decimal {
	switch cycle {
	case Monthly:
		return cost
	case Quarterly:
		return cost.Div(three)
	case Yearly:
		return cost.Div(twelve)
	default:
		return decimal.Zero
	}
}

// AnnualEquivalent normalizes a cost to a per-year figure.
func AnnualEquivalent(cost decimal.Decimal, cycle BillingCycle) decimal.Decimal {
	switch cycle {
	case Monthly:
		return cost.Mul(twelve)
	case Quarterly:
		return cost.Mul(four)
	case Yearly:
		return cost
	default:
		return decimal.Zero
	}
}
