package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func testRates() RateTable {
	return RateTable{
		USD: decimal.RequireFromString("83.50"),
		EUR: decimal.RequireFromString("90.20"),
		GBP: decimal.RequireFromString("105.75"),
	}
}

func TestToCanonical(t *testing.T) {
	cases := []struct {
		cost     string
		currency Currency
		want     string
	}{
		{"649", INR, "649"},
		{"649.005", INR, "649.01"}, // half-up
		{"10", USD, "835"},
		{"9.99", USD, "834.17"}, // 834.1650 rounds up
		{"1", EUR, "90.2"},
		{"2.50", GBP, "264.38"}, // 264.375 half-up
	}
	for _, tc := range cases {
		got, err := ToCanonical(decimal.RequireFromString(tc.cost), tc.currency, testRates())
		if err != nil {
			t.Fatalf("%s %s: %v", tc.cost, tc.currency, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("%s %s: expected %s, got %s", tc.cost, tc.currency, tc.want, got)
		}
	}
}

func TestToCanonicalUnknownCurrency(t *testing.T) {
	_, err := ToCanonical(decimal.NewFromInt(1), "JPY", testRates())
	if !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
}

func TestToCanonicalMissingRate(t *testing.T) {
	rates := RateTable{USD: decimal.NewFromInt(83)}
	_, err := ToCanonical(decimal.NewFromInt(1), GBP, rates)
	if !errors.Is(err, ErrMissingRate) {
		t.Fatalf("expected ErrMissingRate, got %v", err)
	}

	// The canonical currency needs no table entry.
	if _, err := ToCanonical(decimal.NewFromInt(1), INR, RateTable{}); err != nil {
		t.Fatalf("canonical currency should not need a rate: %v", err)
	}
}
