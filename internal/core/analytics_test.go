package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func sub(name string, cost int64, cycle BillingCycle, cat Category, status Status, renewal *Date) Subscription {
	c := decimal.NewFromInt(cost)
	return Subscription{
		ID:           name,
		UserID:       "u1",
		Name:         name,
		Cost:         c,
		Currency:     INR,
		CostInINR:    c,
		BillingCycle: cycle,
		RenewalDate:  renewal,
		Category:     cat,
		Status:       status,
	}
}

func datePtr(y, m, d int) *Date {
	v := NewDate(y, m, d)
	return &v
}

func TestComputeTotalsExcludesInactive(t *testing.T) {
	subs := []Subscription{
		sub("netflix", 649, Monthly, Streaming, StatusActive, datePtr(2024, 2, 1)),
		sub("prime", 1499, Yearly, Ecommerce, StatusInactive, datePtr(2024, 6, 1)),
	}
	got := ComputeTotals(subs)
	if !got.Monthly.Equal(decimal.RequireFromString("649")) {
		t.Fatalf("monthly: expected 649, got %s", got.Monthly)
	}
	if !got.Annual.Equal(decimal.RequireFromString("7788")) {
		t.Fatalf("annual: expected 7788, got %s", got.Annual)
	}
}

func TestComputeTotalsEmpty(t *testing.T) {
	got := ComputeTotals(nil)
	if !got.Monthly.IsZero() || !got.Annual.IsZero() {
		t.Fatalf("expected zero totals, got %+v", got)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	subs := []Subscription{
		sub("netflix", 600, Monthly, Streaming, StatusActive, datePtr(2024, 2, 1)),
		sub("gym", 300, Monthly, Health, StatusActive, datePtr(2024, 2, 5)),
		sub("hotstar", 100, Monthly, Streaming, StatusActive, datePtr(2024, 2, 10)),
		sub("prime", 999, Monthly, Ecommerce, StatusInactive, datePtr(2024, 2, 15)),
	}
	rows := CategoryBreakdown(subs)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Category != Streaming || rows[1].Category != Health {
		t.Fatalf("unexpected order: %v, %v", rows[0].Category, rows[1].Category)
	}
	if !rows[0].MonthlyAmount.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("streaming amount: got %s", rows[0].MonthlyAmount)
	}

	// Percentages sum to 100 within rounding tolerance.
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.PercentageOfTotal)
	}
	diff := sum.Sub(decimal.NewFromInt(100)).Abs()
	if diff.GreaterThan(decimal.RequireFromString("0.1")) {
		t.Fatalf("percentages sum to %s", sum)
	}
}

func TestCategoryBreakdownTieKeepsFirstSeenOrder(t *testing.T) {
	subs := []Subscription{
		sub("b", 100, Monthly, SaaS, StatusActive, datePtr(2024, 2, 1)),
		sub("a", 100, Monthly, Streaming, StatusActive, datePtr(2024, 2, 1)),
	}
	rows := CategoryBreakdown(subs)
	if rows[0].Category != SaaS || rows[1].Category != Streaming {
		t.Fatalf("tie must keep first-seen order, got %v, %v", rows[0].Category, rows[1].Category)
	}
}

func TestCategoryBreakdownNoActive(t *testing.T) {
	subs := []Subscription{
		sub("prime", 999, Monthly, Ecommerce, StatusInactive, datePtr(2024, 2, 15)),
	}
	if rows := CategoryBreakdown(subs); len(rows) != 0 {
		t.Fatalf("expected empty breakdown, got %v", rows)
	}
}

func TestCategoryBreakdownZeroCosts(t *testing.T) {
	subs := []Subscription{
		sub("free", 0, Monthly, Other, StatusActive, datePtr(2024, 2, 1)),
	}
	rows := CategoryBreakdown(subs)
	if len(rows) != 1 || !rows[0].PercentageOfTotal.IsZero() {
		t.Fatalf("zero grand total must yield zero percentage, got %v", rows)
	}
}

func TestRenewalAlerts(t *testing.T) {
	today := NewDate(2024, 1, 1)

	cases := []struct {
		name      string
		renewal   *Date
		status    Status
		wantLevel string
		wantDays  int
		excluded  bool
	}{
		{"amber at 4 days", datePtr(2024, 1, 5), StatusActive, LevelAmber, 4, false},
		{"red at 2 days", datePtr(2024, 1, 3), StatusActive, LevelRed, 2, false},
		{"red today", datePtr(2024, 1, 1), StatusActive, LevelRed, 0, false},
		{"amber at window edge", datePtr(2024, 1, 31), StatusActive, LevelAmber, 30, false},
		{"past excluded", datePtr(2023, 12, 30), StatusActive, "", 0, true},
		{"beyond window excluded", datePtr(2024, 2, 5), StatusActive, "", 0, true},
		{"inactive excluded", datePtr(2024, 1, 5), StatusInactive, "", 0, true},
		{"no date excluded", nil, StatusActive, "", 0, true},
	}
	for _, tc := range cases {
		cycle := Monthly
		if tc.renewal == nil {
			cycle = OneTime
		}
		alerts := RenewalAlerts([]Subscription{
			sub(tc.name, 100, cycle, Other, tc.status, tc.renewal),
		}, today)
		if tc.excluded {
			if len(alerts) != 0 {
				t.Fatalf("%s: expected no alert, got %v", tc.name, alerts)
			}
			continue
		}
		if len(alerts) != 1 {
			t.Fatalf("%s: expected 1 alert, got %d", tc.name, len(alerts))
		}
		if alerts[0].DaysUntilRenewal != tc.wantDays || alerts[0].Level != tc.wantLevel {
			t.Fatalf("%s: got days=%d level=%s", tc.name, alerts[0].DaysUntilRenewal, alerts[0].Level)
		}
	}
}

func TestRenewalAlertsOrdering(t *testing.T) {
	today := NewDate(2024, 1, 1)
	subs := []Subscription{
		sub("later", 1, Monthly, Other, StatusActive, datePtr(2024, 1, 20)),
		sub("first-tie", 1, Monthly, Other, StatusActive, datePtr(2024, 1, 4)),
		sub("second-tie", 1, Monthly, Other, StatusActive, datePtr(2024, 1, 4)),
	}
	alerts := RenewalAlerts(subs, today)
	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(alerts))
	}
	got := []string{alerts[0].Name, alerts[1].Name, alerts[2].Name}
	want := []string{"first-tie", "second-tie", "later"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: got %v", got)
		}
	}
}

func TestSortSubscriptions(t *testing.T) {
	subs := []Subscription{
		sub("Zee5", 200, Monthly, Streaming, StatusActive, datePtr(2024, 3, 1)),
		sub("audible", 500, Monthly, Other, StatusActive, datePtr(2024, 1, 10)),
		sub("Lifetime", 999, OneTime, SaaS, StatusActive, nil),
		sub("gym", 500, Monthly, Health, StatusActive, datePtr(2024, 2, 1)),
	}

	byDate := SortSubscriptions(subs, SortRenewalDateAsc)
	if byDate[0].Name != "audible" || byDate[len(byDate)-1].Name != "Lifetime" {
		t.Fatalf("renewalDate_asc: nulls must sort last, got %v...%v", byDate[0].Name, byDate[len(byDate)-1].Name)
	}

	byCost := SortSubscriptions(subs, SortCostDesc)
	if byCost[0].Name != "Lifetime" {
		t.Fatalf("cost_desc: expected Lifetime first, got %s", byCost[0].Name)
	}
	// Stable: audible appears before gym (equal cost, original order).
	ai, gi := -1, -1
	for i, s := range byCost {
		switch s.Name {
		case "audible":
			ai = i
		case "gym":
			gi = i
		}
	}
	if ai > gi {
		t.Fatalf("cost_desc not stable: audible at %d, gym at %d", ai, gi)
	}

	byName := SortSubscriptions(subs, SortNameAsc)
	if byName[0].Name != "audible" || byName[1].Name != "gym" {
		t.Fatalf("name_asc must be case-insensitive, got %s, %s", byName[0].Name, byName[1].Name)
	}

	byCat := SortSubscriptions(subs, SortCategoryAsc)
	for i := 1; i < len(byCat); i++ {
		if byCat[i-1].Category > byCat[i].Category {
			t.Fatalf("category_asc out of order at %d: %v", i, byCat)
		}
	}
	byCatDesc := SortSubscriptions(subs, SortCategoryDesc)
	for i := 1; i < len(byCatDesc); i++ {
		if byCatDesc[i-1].Category < byCatDesc[i].Category {
			t.Fatalf("category_desc out of order at %d: %v", i, byCatDesc)
		}
	}

	// Input order untouched.
	if subs[0].Name != "Zee5" {
		t.Fatal("input slice mutated")
	}
}
