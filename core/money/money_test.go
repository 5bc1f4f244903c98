package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

// TestParseTruncation verifies the units/nanos split truncates instead
// of rounding up, so the stored amount never exceeds the sheet price.
func TestParseTruncation(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		units string
		nanos int64
	}{
		{name: "whole amount", text: "10", units: "10", nanos: 0},
		{name: "two decimals", text: "9.99", units: "9", nanos: 990000000},
		{name: "sub-nano precision truncates down", text: "12.999999999500", units: "12", nanos: 999999999},
		{name: "zero", text: "0", units: "0", nanos: 0},
		{name: "nano boundary", text: "0.000000001", units: "0", nanos: 1},
		{name: "whitespace tolerated", text: " 4.50 ", units: "4", nanos: 500000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.text, "USD")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Units != tt.units {
				t.Errorf("units: expected %q, got %q", tt.units, m.Units)
			}
			if m.Nanos != tt.nanos {
				t.Errorf("nanos: expected %d, got %d", tt.nanos, m.Nanos)
			}
			if m.CurrencyCode != "USD" {
				t.Errorf("currency: expected USD, got %q", m.CurrencyCode)
			}
		})
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, text := range []string{"", "abc", "-1.50", "1,50"} {
		if _, err := Parse(text, "USD"); err == nil {
			t.Errorf("expected error for %q", text)
		}
	}
}

// TestReconstruction checks units + nanos/1e9 stays within 1e-9 below
// the original amount for arbitrary valid prices.
func TestReconstruction(t *testing.T) {
	tolerance := decimal.New(1, -9)

	for _, text := range []string{"0", "0.1", "9.99", "627341", "12.999999999500", "3.14159265358979"} {
		original := decimal.RequireFromString(text)
		m, err := Parse(text, "EUR")
		if err != nil {
			t.Fatalf("%s: %v", text, err)
		}
		got, err := m.Decimal()
		if err != nil {
			t.Fatalf("%s: %v", text, err)
		}

		diff := original.Sub(got)
		if diff.IsNegative() {
			t.Errorf("%s: reconstructed %s exceeds original", text, got)
		}
		if diff.GreaterThanOrEqual(tolerance) {
			t.Errorf("%s: reconstruction error %s not below 1e-9", text, diff)
		}
	}
}

func TestEqual(t *testing.T) {
	base := Money{CurrencyCode: "USD", Units: "9", Nanos: 990000000}

	if !base.Equal(Money{CurrencyCode: "USD", Units: "9", Nanos: 990000000}) {
		t.Error("identical amounts should be equal")
	}
	if !base.Equal(Money{CurrencyCode: "USD", Units: "09", Nanos: 990000000}) {
		t.Error("leading zeros in units should not break equality")
	}
	if base.Equal(Money{CurrencyCode: "EUR", Units: "9", Nanos: 990000000}) {
		t.Error("currency relabel must count as a change")
	}
	if base.Equal(Money{CurrencyCode: "USD", Units: "10", Nanos: 990000000}) {
		t.Error("unit change must count as a change")
	}
	if base.Equal(Money{CurrencyCode: "USD", Units: "9", Nanos: 0}) {
		t.Error("nanos change must count as a change")
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		m        Money
		expected string
	}{
		{Money{CurrencyCode: "USD", Units: "9", Nanos: 990000000}, "9.99 USD"},
		{Money{CurrencyCode: "JPY", Units: "120", Nanos: 0}, "120 JPY"},
		{Money{CurrencyCode: "USD", Units: "", Nanos: 500000000}, "0.5 USD"},
		{Money{CurrencyCode: "EUR", Units: "1", Nanos: 1}, "1.000000001 EUR"},
	}

	for _, tt := range tests {
		if got := tt.m.String(); got != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, got)
		}
	}
}
