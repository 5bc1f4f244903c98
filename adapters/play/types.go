package play

import (
	"encoding/json"

	"playprice/core/money"
	"playprice/core/plan"
)

// RegionsVersion is the platform's nested version token wire shape.
type RegionsVersion struct {
	Version string `json:"version"`
}

// ConvertedRegionPrice is one region's entry in a conversion response.
type ConvertedRegionPrice struct {
	RegionCode string      `json:"regionCode"`
	Price      money.Money `json:"price"`
}

// ConvertRegionPricesResponse is the platform's answer to a
// convert-region-prices call: the anchor amount expressed in every
// billable region's local currency, plus the regions version the
// conversion is based on.
type ConvertRegionPricesResponse struct {
	ConvertedRegionPrices map[string]ConvertedRegionPrice `json:"convertedRegionPrices"`
	RegionsVersion        *RegionsVersion                 `json:"regionsVersion,omitempty"`
}

// Subscription is a subscription product snapshot. Only the base plans
// are modeled; every other product field rides along opaquely so a
// patch sends back exactly what the platform returned.
type Subscription struct {
	BasePlans []*plan.BasePlan

	extra map[string]json.RawMessage
}

// UnmarshalJSON splits base plans from the opaque remainder.
func (s *Subscription) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["basePlans"]; ok {
		if err := json.Unmarshal(v, &s.BasePlans); err != nil {
			return err
		}
		delete(raw, "basePlans")
	}
	if len(raw) > 0 {
		s.extra = raw
	}
	return nil
}

// MarshalJSON reassembles the subscription for a platform write.
func (s *Subscription) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.extra)+1)
	for k, v := range s.extra {
		out[k] = v
	}

	var err error
	if out["basePlans"], err = json.Marshal(s.BasePlans); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// convertRegionPricesRequest asks the platform to express one amount
// in every billable region's currency.
type convertRegionPricesRequest struct {
	Price money.Money `json:"price"`
}

// regionalPriceMigration targets one region's legacy cohorts.
type regionalPriceMigration struct {
	RegionCode                    string `json:"regionCode"`
	OldestAllowedPriceVersionTime string `json:"oldestAllowedPriceVersionTime"`
	PriceIncreaseType             string `json:"priceIncreaseType"`
}

// migrationRequest is one entry of a batch migrate call.
type migrationRequest struct {
	PackageName             string                   `json:"packageName"`
	ProductID               string                   `json:"productId"`
	BasePlanID              string                   `json:"basePlanId"`
	RegionsVersion          *RegionsVersion          `json:"regionsVersion,omitempty"`
	RegionalPriceMigrations []regionalPriceMigration `json:"regionalPriceMigrations"`
	LatencyTolerance        string                   `json:"latencyTolerance"`
}

// batchMigrateRequest is the batch migrate call body.
type batchMigrateRequest struct {
	Requests []migrationRequest `json:"requests"`
}

// apiError is the platform's structured error envelope.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
