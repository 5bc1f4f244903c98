// Package eligibility intersects desired prices with the regions the
// platform currently allows this product to be billed in.
package eligibility

import (
	"sort"

	"go.uber.org/zap"

	"playprice/core/pricebook"
	"playprice/internal/logging"
)

// Result partitions the desired prices against the billable-region map.
type Result struct {
	// Kept are prices targeting billable regions. When filtering was
	// skipped this is the full input.
	Kept []*pricebook.RegionalPrice

	// Mismatched is the subset of Kept whose currency differs from
	// the region's required currency.
	Mismatched []*pricebook.RegionalPrice

	// Dropped lists region codes excluded as non-billable, sorted.
	Dropped []string

	// Skipped reports that the billable map was empty and no
	// filtering happened.
	Skipped bool
}

// Filter drops prices for non-billable regions and separates
// currency-mismatched entries. An empty billable map disables
// filtering entirely: eligibility is a best-effort optimization, not a
// correctness requirement.
func Filter(prices []*pricebook.RegionalPrice, billable map[string]string) Result {
	if len(billable) == 0 {
		logging.Warn("could not fetch billable region list, proceeding without filtering")
		return Result{Kept: prices, Skipped: true}
	}

	result := Result{}
	dropped := make(map[string]bool)
	for _, rp := range prices {
		required, ok := billable[rp.RegionCode]
		if !ok {
			dropped[rp.RegionCode] = true
			continue
		}
		result.Kept = append(result.Kept, rp)
		if required != "" && required != rp.Price.CurrencyCode {
			result.Mismatched = append(result.Mismatched, rp)
		}
	}

	for code := range dropped {
		result.Dropped = append(result.Dropped, code)
	}
	sort.Strings(result.Dropped)

	if len(result.Dropped) > 0 {
		logging.Warn("skipping non-billable regions at this version",
			zap.Int("count", len(result.Dropped)),
			zap.Strings("regions", result.Dropped))
	}
	return result
}
