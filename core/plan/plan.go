// Package plan models the base plan's regional configuration and the
// merge of desired prices into it.
//
// A regional config is mostly owned by the platform: this engine only
// manages the region code, the price, and optionally the new-subscriber
// availability. Everything else the platform returned is carried as an
// opaque remainder so it survives a merge byte-for-byte.
package plan

import (
	"context"
	"encoding/json"
	"sort"

	"playprice/core/money"
	"playprice/core/oracle"
	"playprice/core/pricebook"
)

// AvailabilityNewSubscribersCanPurchase opens a region to new
// subscribers.
const AvailabilityNewSubscribersCanPurchase = "NEW_SUBSCRIBERS_CAN_PURCHASE"

// Managed regional config JSON keys.
const (
	keyRegionCode   = "regionCode"
	keyPrice        = "price"
	keyAvailability = "newSubscriberAvailability"
)

// RegionalConfig is one region's entry inside a base plan: the managed
// fields plus whatever else the platform sent for that region.
type RegionalConfig struct {
	RegionCode                string
	Price                     money.Money
	NewSubscriberAvailability string

	// extra holds platform fields this engine does not model.
	extra map[string]json.RawMessage
}

// Clone returns a shallow copy safe to overwrite managed fields on.
func (rc *RegionalConfig) Clone() *RegionalConfig {
	copied := *rc
	if rc.extra != nil {
		copied.extra = make(map[string]json.RawMessage, len(rc.extra))
		for k, v := range rc.extra {
			copied.extra[k] = v
		}
	}
	return &copied
}

// UnmarshalJSON splits the payload into managed fields and the opaque
// remainder.
func (rc *RegionalConfig) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw[keyRegionCode]; ok {
		if err := json.Unmarshal(v, &rc.RegionCode); err != nil {
			return err
		}
		delete(raw, keyRegionCode)
	}
	if v, ok := raw[keyPrice]; ok {
		if err := json.Unmarshal(v, &rc.Price); err != nil {
			return err
		}
		delete(raw, keyPrice)
	}
	if v, ok := raw[keyAvailability]; ok {
		if err := json.Unmarshal(v, &rc.NewSubscriberAvailability); err != nil {
			return err
		}
		delete(raw, keyAvailability)
	}

	if len(raw) > 0 {
		rc.extra = raw
	}
	return nil
}

// MarshalJSON reassembles managed fields and the opaque remainder.
func (rc *RegionalConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(rc.extra)+3)
	for k, v := range rc.extra {
		out[k] = v
	}

	var err error
	if out[keyRegionCode], err = json.Marshal(rc.RegionCode); err != nil {
		return nil, err
	}
	if rc.Price.CurrencyCode != "" || !rc.Price.IsZero() {
		if out[keyPrice], err = json.Marshal(rc.Price); err != nil {
			return nil, err
		}
	}
	if rc.NewSubscriberAvailability != "" {
		if out[keyAvailability], err = json.Marshal(rc.NewSubscriberAvailability); err != nil {
			return nil, err
		}
	}

	return json.Marshal(out)
}

// regionsVersion is the platform's nested version token shape.
type regionsVersion struct {
	Version string `json:"version"`
}

// BasePlan is a transient snapshot of one base plan, fetched fresh on
// every run.
type BasePlan struct {
	BasePlanID      string
	RegionsVersion  string
	RegionalConfigs []*RegionalConfig

	extra map[string]json.RawMessage
}

// UnmarshalJSON keeps unmodeled base plan fields opaque, the same way
// RegionalConfig does.
func (bp *BasePlan) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["basePlanId"]; ok {
		if err := json.Unmarshal(v, &bp.BasePlanID); err != nil {
			return err
		}
		delete(raw, "basePlanId")
	}
	if v, ok := raw["regionalConfigs"]; ok {
		if err := json.Unmarshal(v, &bp.RegionalConfigs); err != nil {
			return err
		}
		delete(raw, "regionalConfigs")
	}
	if v, ok := raw["regionsVersion"]; ok {
		var rv regionsVersion
		if err := json.Unmarshal(v, &rv); err != nil {
			return err
		}
		bp.RegionsVersion = rv.Version
		delete(raw, "regionsVersion")
	}

	if len(raw) > 0 {
		bp.extra = raw
	}
	return nil
}

// MarshalJSON reassembles the base plan for a platform write.
func (bp *BasePlan) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(bp.extra)+3)
	for k, v := range bp.extra {
		out[k] = v
	}

	var err error
	if out["basePlanId"], err = json.Marshal(bp.BasePlanID); err != nil {
		return nil, err
	}
	if out["regionalConfigs"], err = json.Marshal(bp.RegionalConfigs); err != nil {
		return nil, err
	}
	if bp.RegionsVersion != "" {
		if out["regionsVersion"], err = json.Marshal(regionsVersion{Version: bp.RegionsVersion}); err != nil {
			return nil, err
		}
	}

	return json.Marshal(out)
}

// WithRegionalConfigs returns a copy of the plan carrying configs
// instead of its current regional set.
func (bp *BasePlan) WithRegionalConfigs(configs []*RegionalConfig) *BasePlan {
	copied := *bp
	copied.RegionalConfigs = configs
	return &copied
}

// MergedConfigSet is an ordered regional config sequence: region codes
// unique, sorted ascending for deterministic apply order.
type MergedConfigSet []*RegionalConfig

// Merge folds the desired prices into the existing regional configs.
// Existing regions absent from the price list stay untouched; regions
// are only ever added or updated, never removed. Unmanaged fields of
// updated regions are preserved.
func Merge(existing []*RegionalConfig, prices []*pricebook.RegionalPrice, enableAvailability bool) MergedConfigSet {
	byRegion := make(map[string]*RegionalConfig, len(existing))
	for _, rc := range existing {
		if rc.RegionCode != "" {
			byRegion[rc.RegionCode] = rc
		}
	}

	for _, rp := range prices {
		merged := &RegionalConfig{}
		if prior, ok := byRegion[rp.RegionCode]; ok {
			merged = prior.Clone()
		}
		merged.RegionCode = rp.RegionCode
		merged.Price = rp.Price
		if enableAvailability {
			merged.NewSubscriberAvailability = AvailabilityNewSubscribersCanPurchase
		}
		byRegion[rp.RegionCode] = merged
	}

	codes := make([]string, 0, len(byRegion))
	for code := range byRegion {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	set := make(MergedConfigSet, 0, len(codes))
	for _, code := range codes {
		set = append(set, byRegion[code])
	}
	return set
}

// Find returns the config for a region, or nil.
func (s MergedConfigSet) Find(regionCode string) *RegionalConfig {
	for _, rc := range s {
		if rc.RegionCode == regionCode {
			return rc
		}
	}
	return nil
}

// Remove drops a region's entry, reporting whether it was present.
func (s *MergedConfigSet) Remove(regionCode string) bool {
	for i, rc := range *s {
		if rc.RegionCode == regionCode {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

// RegionCodes returns the region codes in set order.
func (s MergedConfigSet) RegionCodes() []string {
	codes := make([]string, len(s))
	for i, rc := range s {
		codes[i] = rc.RegionCode
	}
	return codes
}

// Chunks splits the set into consecutive chunks of size. A size of 0
// or less yields the whole set as a single chunk. Concatenating the
// chunks in order reproduces the set exactly.
func (s MergedConfigSet) Chunks(size int) []MergedConfigSet {
	if size <= 0 || size >= len(s) {
		return []MergedConfigSet{s}
	}
	var chunks []MergedConfigSet
	for start := 0; start < len(s); start += size {
		end := start + size
		if end > len(s) {
			end = len(s)
		}
		chunks = append(chunks, s[start:end])
	}
	return chunks
}

// ResolveRegionsVersion picks the version token a platform write will
// be based on: explicit override, then the fetched plan's token, then
// a fresh oracle query.
func ResolveRegionsVersion(ctx context.Context, override string, bp *BasePlan, orc oracle.Oracle) (string, bool) {
	if override != "" {
		return override, true
	}
	if bp != nil && bp.RegionsVersion != "" {
		return bp.RegionsVersion, true
	}
	return orc.RegionsVersion(ctx)
}
