package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"playprice/core/money"
	"playprice/core/oracle"
	"playprice/core/pricebook"
)

func desired(region, currency, units string) *pricebook.RegionalPrice {
	return &pricebook.RegionalPrice{
		RegionCode: region,
		Price:      money.Money{CurrencyCode: currency, Units: units},
	}
}

func TestMergeAddsAndUpdates(t *testing.T) {
	existing := []*RegionalConfig{
		{RegionCode: "US", Price: money.Money{CurrencyCode: "USD", Units: "4", Nanos: 990000000}},
		{RegionCode: "GB", Price: money.Money{CurrencyCode: "GBP", Units: "3", Nanos: 990000000}},
	}
	prices := []*pricebook.RegionalPrice{
		desired("US", "USD", "9"),
		desired("FR", "EUR", "9"),
	}

	merged := Merge(existing, prices, false)

	if got := merged.RegionCodes(); !reflect.DeepEqual(got, []string{"FR", "GB", "US"}) {
		t.Fatalf("expected sorted [FR GB US], got %v", got)
	}

	// GB untouched: this engine never removes existing regions.
	gb := merged.Find("GB")
	if gb == nil || gb.Price.Units != "3" {
		t.Fatalf("GB should survive unchanged, got %+v", gb)
	}

	us := merged.Find("US")
	if us.Price.Units != "9" {
		t.Errorf("US price should be overwritten, got %+v", us.Price)
	}
	if us == existing[0] {
		t.Error("merge must clone, not alias, existing configs")
	}

	if fr := merged.Find("FR"); fr == nil || fr.Price.CurrencyCode != "EUR" {
		t.Errorf("FR should be added, got %+v", fr)
	}
}

func TestMergeSetsAvailabilityWhenRequested(t *testing.T) {
	prices := []*pricebook.RegionalPrice{desired("US", "USD", "9")}

	merged := Merge(nil, prices, true)
	if merged.Find("US").NewSubscriberAvailability != AvailabilityNewSubscribersCanPurchase {
		t.Error("availability should be set on updated regions")
	}

	merged = Merge(nil, prices, false)
	if merged.Find("US").NewSubscriberAvailability != "" {
		t.Error("availability must stay unset when not requested")
	}
}

// TestMergeIdempotent merges the same price list twice into the same
// base plan and expects identical output both times.
func TestMergeIdempotent(t *testing.T) {
	existing := []*RegionalConfig{
		{RegionCode: "US", Price: money.Money{CurrencyCode: "USD", Units: "4"}},
	}
	prices := []*pricebook.RegionalPrice{
		desired("US", "USD", "9"),
		desired("FR", "EUR", "9"),
	}

	first, err := json.Marshal(Merge(existing, prices, true))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(Merge(existing, prices, true))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("merge not idempotent:\n%s\n%s", first, second)
	}
}

func TestRegionalConfigPreservesUnmanagedFields(t *testing.T) {
	payload := []byte(`{
		"regionCode": "US",
		"price": {"currencyCode": "USD", "units": "4", "nanos": 990000000},
		"newSubscriberAvailability": "NEW_SUBSCRIBERS_CAN_PURCHASE",
		"taxRateInfo": {"eligibility": "STANDARD"},
		"offerTags": ["promo"]
	}`)

	var rc RegionalConfig
	if err := json.Unmarshal(payload, &rc); err != nil {
		t.Fatal(err)
	}
	if rc.RegionCode != "US" || rc.Price.Units != "4" {
		t.Fatalf("managed fields not parsed: %+v", rc)
	}

	// Overwrite the managed price, keep everything else.
	rc.Price = money.Money{CurrencyCode: "USD", Units: "9", Nanos: 990000000}

	out, err := json.Marshal(&rc)
	if err != nil {
		t.Fatal(err)
	}

	var round map[string]interface{}
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatal(err)
	}
	if _, ok := round["taxRateInfo"]; !ok {
		t.Error("unmanaged taxRateInfo lost in merge round trip")
	}
	if _, ok := round["offerTags"]; !ok {
		t.Error("unmanaged offerTags lost in merge round trip")
	}
	if round["price"].(map[string]interface{})["units"] != "9" {
		t.Error("managed price not overwritten")
	}
}

func TestBasePlanJSON(t *testing.T) {
	payload := []byte(`{
		"basePlanId": "monthly-plan",
		"state": "ACTIVE",
		"regionsVersion": {"version": "2025/01"},
		"regionalConfigs": [{"regionCode": "US", "price": {"currencyCode": "USD", "units": "9", "nanos": 0}}]
	}`)

	var bp BasePlan
	if err := json.Unmarshal(payload, &bp); err != nil {
		t.Fatal(err)
	}
	if bp.BasePlanID != "monthly-plan" || bp.RegionsVersion != "2025/01" || len(bp.RegionalConfigs) != 1 {
		t.Fatalf("unexpected parse: %+v", bp)
	}

	out, err := json.Marshal(&bp)
	if err != nil {
		t.Fatal(err)
	}
	var round map[string]interface{}
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatal(err)
	}
	if round["state"] != "ACTIVE" {
		t.Error("unmanaged base plan field lost")
	}
	if round["regionsVersion"].(map[string]interface{})["version"] != "2025/01" {
		t.Error("regions version not re-emitted")
	}
}

func TestChunksPreserveTotality(t *testing.T) {
	set := MergedConfigSet{
		{RegionCode: "AR"}, {RegionCode: "BR"}, {RegionCode: "CL"},
		{RegionCode: "DE"}, {RegionCode: "ES"},
	}

	for _, size := range []int{0, 1, 2, 3, 5, 10} {
		chunks := set.Chunks(size)

		var flattened MergedConfigSet
		for _, chunk := range chunks {
			flattened = append(flattened, chunk...)
		}
		if !reflect.DeepEqual(flattened.RegionCodes(), set.RegionCodes()) {
			t.Errorf("size %d: concatenated chunks differ from original", size)
		}

		if size > 0 {
			for i, chunk := range chunks {
				if len(chunk) > size {
					t.Errorf("size %d: chunk %d has %d entries", size, i, len(chunk))
				}
			}
		}
	}
}

func TestRemove(t *testing.T) {
	set := MergedConfigSet{{RegionCode: "US"}, {RegionCode: "XK"}, {RegionCode: "FR"}}

	if !set.Remove("XK") {
		t.Fatal("expected removal")
	}
	if len(set) != 2 || set.Find("XK") != nil {
		t.Fatalf("XK still present: %v", set.RegionCodes())
	}
	if set.Remove("ZZ") {
		t.Error("removing an absent region should report false")
	}
}

func TestResolveRegionsVersion(t *testing.T) {
	ctx := context.Background()
	bp := &BasePlan{RegionsVersion: "2024/06"}

	if v, _ := ResolveRegionsVersion(ctx, "2025/01", bp, oracle.Unavailable{}); v != "2025/01" {
		t.Errorf("override should win, got %s", v)
	}
	if v, _ := ResolveRegionsVersion(ctx, "", bp, oracle.Unavailable{}); v != "2024/06" {
		t.Errorf("plan token should win over oracle, got %s", v)
	}
	if _, ok := ResolveRegionsVersion(ctx, "", &BasePlan{}, oracle.Unavailable{}); ok {
		t.Error("expected absence when nothing can supply a version")
	}
}
