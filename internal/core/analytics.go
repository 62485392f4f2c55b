package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	AlertWindowDays = 30
	AlertRedDays    = 7

	LevelRed   = "red"
	LevelAmber = "amber"
)

type (
	// Totals are the recurring costs of all active subscriptions in the
	// canonical currency, normalized to monthly and annual figures.
	Totals struct {
		Monthly decimal.Decimal `json:"monthly"`
		Annual  decimal.Decimal `json:"annual"`
	}

	CategoryShare struct {
		Category          Category        `json:"category"`
		MonthlyAmount     decimal.Decimal `json:"monthlyAmount"`
		PercentageOfTotal decimal.Decimal `json:"percentageOfTotal"`
	}

	// Alert flags a subscription renewing within the lookahead window.
	Alert struct {
		Subscription
		DaysUntilRenewal int    `json:"daysUntilRenewal"`
		Level            string `json:"level"`
	}

	SortOption string
)

const (
	SortRenewalDateAsc SortOption = "renewalDate_asc"
	SortCostDesc       SortOption = "cost_desc"
	SortNameAsc        SortOption = "name_asc"
	SortCategoryAsc    SortOption = "category_asc"
	SortCategoryDesc   SortOption = "category_desc"
)

func (o SortOption) Valid() bool {
	switch o {
	case SortRenewalDateAsc, SortCostDesc, SortNameAsc, SortCategoryAsc, SortCategoryDesc:
		return true
	}
	return false
}

// ComputeTotals sums the monthly and annual equivalents of every active
// subscription. Inactive records are excluded entirely.
func ComputeTotals(subs []Subscription) Totals {
	monthly, annual := decimal.Zero, decimal.Zero
	for _, s := range subs {
		if s.Status != StatusActive {
			continue
		}
		monthly = monthly.Add(MonthlyEquivalent(s.CostInINR, s.BillingCycle))
		annual = annual.Add(AnnualEquivalent(s.CostInINR, s.BillingCycle))
	}
	return Totals{Monthly: monthly.Round(2), Annual: annual.Round(2)}
}

// CategoryBreakdown groups active subscriptions by category and reports the
// monthly-equivalent sum per category with its share of the grand total.
// Rows sort descending by amount; ties keep the category's first-seen order.
// An empty slice is returned when no subscription is active.
func CategoryBreakdown(subs []Subscription) []CategoryShare {
	var (
		order []Category
		sums  = map[Category]decimal.Decimal{}
		total = decimal.Zero
	)
	for _, s := range subs {
		if s.Status != StatusActive {
			continue
		}
		amount := MonthlyEquivalent(s.CostInINR, s.BillingCycle)
		if _, seen := sums[s.Category]; !seen {
			order = append(order, s.Category)
		}
		sums[s.Category] = sums[s.Category].Add(amount)
		total = total.Add(amount)
	}
	if len(order) == 0 {
		return nil
	}

	hundred := decimal.NewFromInt(100)
	rows := make([]CategoryShare, 0, len(order))
	for _, cat := range order {
		pct := decimal.Zero
		if total.IsPositive() {
			pct = sums[cat].Mul(hundred).DivRound(total, 2)
		}
		rows = append(rows, CategoryShare{
			Category:          cat,
			MonthlyAmount:     sums[cat].Round(2),
			PercentageOfTotal: pct,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].MonthlyAmount.GreaterThan(rows[j].MonthlyAmount)
	})
	return rows
}

// RenewalAlerts returns the active subscriptions whose renewal falls within
// the 30-day lookahead from today, sorted by proximity (ties keep input
// order). Renewals already in the past produce no alert.
func RenewalAlerts(subs []Subscription, today Date) []Alert {
	var alerts []Alert
	for _, s := range subs {
		if s.Status != StatusActive || s.RenewalDate == nil || s.RenewalDate.IsZero() {
			continue
		}
		days := s.RenewalDate.DaysUntil(today)
		if days < 0 || days > AlertWindowDays {
			continue
		}
		level := LevelAmber
		if days <= AlertRedDays {
			level = LevelRed
		}
		alerts = append(alerts, Alert{Subscription: s, DaysUntilRenewal: days, Level: level})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DaysUntilRenewal < alerts[j].DaysUntilRenewal
	})
	return alerts
}

// SortSubscriptions returns a sorted copy of subs; the input is never
// mutated and equal keys preserve their original relative order. Unknown
// options return the input order unchanged.
func SortSubscriptions(subs []Subscription, option SortOption) []Subscription {
	out := make([]Subscription, len(subs))
	copy(out, subs)

	var less func(i, j int) bool
	switch option {
	case SortRenewalDateAsc:
		// One-time subscriptions have no renewal date and sort last.
		less = func(i, j int) bool {
			di, dj := out[i].RenewalDate, out[j].RenewalDate
			switch {
			case di == nil || di.IsZero():
				return false
			case dj == nil || dj.IsZero():
				return true
			default:
				return di.Before(dj.Time)
			}
		}
	case SortCostDesc:
		less = func(i, j int) bool {
			return out[i].CostInINR.GreaterThan(out[j].CostInINR)
		}
	case SortNameAsc:
		less = func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		}
	case SortCategoryAsc:
		less = func(i, j int) bool {
			return out[i].Category < out[j].Category
		}
	case SortCategoryDesc:
		less = func(i, j int) bool {
			return out[i].Category > out[j].Category
		}
	default:
		return out
	}
	sort.SliceStable(out, less)
	return out
}
