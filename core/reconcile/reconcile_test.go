package reconcile

import (
	"context"
	"testing"

	"playprice/core/eligibility"
	"playprice/core/money"
	"playprice/core/pricebook"
)

// stubOracle returns canned conversion and recommendation results.
type stubOracle struct {
	converted   map[string]money.Money
	recommended map[string]money.Money
}

func (s *stubOracle) BillableRegions(context.Context) map[string]string { return nil }

func (s *stubOracle) RegionsVersion(context.Context) (string, bool) { return "", false }

func (s *stubOracle) Convert(_ context.Context, _ money.Money, region string) (money.Money, bool) {
	m, ok := s.converted[region]
	return m, ok
}

func (s *stubOracle) RecommendedPrices(context.Context) map[string]money.Money {
	return s.recommended
}

func price(region, currency, units string) *pricebook.RegionalPrice {
	return &pricebook.RegionalPrice{
		RegionCode: region,
		Price:      money.Money{CurrencyCode: currency, Units: units},
	}
}

func TestResolveExcludesWhenFixDisabled(t *testing.T) {
	us := price("US", "USD", "9")
	jp := price("JP", "USD", "9")
	filtered := eligibility.Result{
		Kept:       []*pricebook.RegionalPrice{us, jp},
		Mismatched: []*pricebook.RegionalPrice{jp},
	}
	billable := map[string]string{"US": "USD", "JP": "JPY"}

	outcome := Resolve(context.Background(), filtered, billable, &stubOracle{}, Options{})

	if len(outcome.Prices) != 1 || outcome.Prices[0] != us {
		t.Fatalf("expected only US to survive, got %d entries", len(outcome.Prices))
	}
	if len(outcome.Excluded) != 1 || outcome.Excluded[0] != "JP" {
		t.Fatalf("expected JP excluded, got %v", outcome.Excluded)
	}
	if jp.Price.CurrencyCode != "USD" {
		t.Error("excluded entry must not be mutated")
	}
}

func TestResolveFixesLabelOnly(t *testing.T) {
	jp := price("JP", "USD", "9")
	filtered := eligibility.Result{
		Kept:       []*pricebook.RegionalPrice{jp},
		Mismatched: []*pricebook.RegionalPrice{jp},
	}
	billable := map[string]string{"JP": "JPY"}

	outcome := Resolve(context.Background(), filtered, billable, &stubOracle{}, Options{FixCurrency: true})

	if outcome.Fixed != 1 {
		t.Fatalf("expected 1 fix, got %d", outcome.Fixed)
	}
	if jp.Price.CurrencyCode != "JPY" {
		t.Errorf("expected JPY, got %s", jp.Price.CurrencyCode)
	}
	if jp.Price.Units != "9" {
		t.Error("label fix must not change the amount")
	}
	if len(outcome.Prices) != 1 {
		t.Fatalf("expected 1 price, got %d", len(outcome.Prices))
	}
}

func TestResolveConvertsViaOracle(t *testing.T) {
	jp := price("JP", "USD", "9")
	filtered := eligibility.Result{
		Kept:       []*pricebook.RegionalPrice{jp},
		Mismatched: []*pricebook.RegionalPrice{jp},
	}
	billable := map[string]string{"JP": "JPY"}
	orc := &stubOracle{converted: map[string]money.Money{
		"JP": {CurrencyCode: "JPY", Units: "1340", Nanos: 0},
	}}

	outcome := Resolve(context.Background(), filtered, billable, orc, Options{FixCurrency: true, ConvertCurrency: true})

	if outcome.Converted != 1 {
		t.Fatalf("expected 1 conversion, got %d", outcome.Converted)
	}
	if jp.Price.Units != "1340" || jp.Price.CurrencyCode != "JPY" {
		t.Errorf("unexpected converted price: %+v", jp.Price)
	}
}

func TestResolveConversionFallsBackToLabel(t *testing.T) {
	jp := price("JP", "USD", "9")
	filtered := eligibility.Result{
		Kept:       []*pricebook.RegionalPrice{jp},
		Mismatched: []*pricebook.RegionalPrice{jp},
	}
	billable := map[string]string{"JP": "JPY"}

	outcome := Resolve(context.Background(), filtered, billable, &stubOracle{}, Options{FixCurrency: true, ConvertCurrency: true})

	if outcome.Converted != 0 || outcome.Fixed != 1 {
		t.Fatalf("expected fallback label fix, got converted=%d fixed=%d", outcome.Converted, outcome.Fixed)
	}
	if jp.Price.CurrencyCode != "JPY" || jp.Price.Units != "9" {
		t.Errorf("unexpected price after fallback: %+v", jp.Price)
	}
}

func TestResolveAppliesRecommended(t *testing.T) {
	us := price("US", "USD", "9")
	filtered := eligibility.Result{Kept: []*pricebook.RegionalPrice{us}}
	billable := map[string]string{"US": "USD"}
	orc := &stubOracle{recommended: map[string]money.Money{
		"US": {CurrencyCode: "USD", Units: "12", Nanos: 990000000},
	}}

	outcome := Resolve(context.Background(), filtered, billable, orc, Options{UseRecommended: true})

	if outcome.Recommended != 1 {
		t.Fatalf("expected 1 recommended override, got %d", outcome.Recommended)
	}
	if us.Price.Units != "12" || us.Price.Nanos != 990000000 {
		t.Errorf("unexpected price: %+v", us.Price)
	}
}

func TestResolveRecommendedSkipsCurrencyMismatch(t *testing.T) {
	us := price("US", "USD", "9")
	filtered := eligibility.Result{Kept: []*pricebook.RegionalPrice{us}}
	billable := map[string]string{"US": "USD"}
	orc := &stubOracle{recommended: map[string]money.Money{
		"US": {CurrencyCode: "EUR", Units: "11"},
	}}

	outcome := Resolve(context.Background(), filtered, billable, orc, Options{UseRecommended: true})

	if outcome.Recommended != 0 {
		t.Fatalf("expected no override, got %d", outcome.Recommended)
	}
	if us.Price.Units != "9" {
		t.Errorf("price must stay untouched, got %+v", us.Price)
	}
}
