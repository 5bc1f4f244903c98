// Package reconcile resolves currency mismatches between the desired
// prices and each region's required billing currency.
package reconcile

import (
	"context"

	"go.uber.org/zap"

	"playprice/core/eligibility"
	"playprice/core/oracle"
	"playprice/core/pricebook"
	"playprice/internal/logging"
)

// mismatchPreviewCap bounds the listing of excluded regions; the
// remainder is summarized by count.
const mismatchPreviewCap = 20

// Options controls how mismatched currencies are resolved.
type Options struct {
	// FixCurrency substitutes the region's required currency code.
	// When false, mismatched entries are excluded from the apply set.
	FixCurrency bool

	// ConvertCurrency additionally converts the numeric amount via
	// the oracle, falling back to a label-only fix on failure.
	ConvertCurrency bool

	// UseRecommended replaces sheet prices wholesale with the
	// platform's recommended per-region prices where available.
	UseRecommended bool
}

// Outcome is the resolved apply set plus bookkeeping for reporting.
type Outcome struct {
	// Prices is the final price list for merging.
	Prices []*pricebook.RegionalPrice

	// Excluded lists region codes dropped because currency fixing
	// was disabled.
	Excluded []string

	// Fixed counts label-only currency substitutions.
	Fixed int

	// Converted counts oracle-assisted amount conversions.
	Converted int

	// Recommended counts prices replaced by platform recommendations.
	Recommended int
}

// Resolve applies the recommended-price override and then settles
// currency mismatches according to opts. Prices are mutated in place.
func Resolve(ctx context.Context, filtered eligibility.Result, billable map[string]string, orc oracle.Oracle, opts Options) Outcome {
	outcome := Outcome{}

	mismatched := filtered.Mismatched
	if opts.UseRecommended && !filtered.Skipped {
		outcome.Recommended = applyRecommended(ctx, filtered.Kept, billable, orc)
		if outcome.Recommended > 0 {
			// Overridden prices adopt the required currency, so the
			// mismatch partition must be rebuilt.
			mismatched = findMismatched(filtered.Kept, billable)
		}
	}

	if len(mismatched) == 0 {
		outcome.Prices = filtered.Kept
		return outcome
	}

	if !opts.FixCurrency {
		excludeSet := make(map[*pricebook.RegionalPrice]bool, len(mismatched))
		for i, rp := range mismatched {
			excludeSet[rp] = true
			outcome.Excluded = append(outcome.Excluded, rp.RegionCode)
			if i < mismatchPreviewCap {
				logging.Warn("skipping region with currency mismatch (enable currency fixing to auto-correct)",
					zap.String("region", rp.RegionCode),
					zap.String("sheet_currency", rp.Price.CurrencyCode),
					zap.String("required_currency", billable[rp.RegionCode]))
			}
		}
		if len(mismatched) > mismatchPreviewCap {
			logging.Warn("more regions with currency mismatches",
				zap.Int("count", len(mismatched)-mismatchPreviewCap))
		}

		for _, rp := range filtered.Kept {
			if !excludeSet[rp] {
				outcome.Prices = append(outcome.Prices, rp)
			}
		}
		return outcome
	}

	for _, rp := range mismatched {
		required := billable[rp.RegionCode]
		original := rp.Price.CurrencyCode

		if opts.ConvertCurrency {
			if converted, ok := orc.Convert(ctx, rp.Price, rp.RegionCode); ok {
				if converted.CurrencyCode == "" {
					converted.CurrencyCode = required
				}
				rp.Price = converted
				outcome.Converted++
				logging.Info("converted price to required currency",
					zap.String("region", rp.RegionCode),
					zap.String("from", original),
					zap.String("to", rp.Price.CurrencyCode))
				continue
			}
			logging.Warn("conversion unavailable, fixing currency label only",
				zap.String("region", rp.RegionCode))
		}

		rp.Price.CurrencyCode = required
		outcome.Fixed++
		logging.Info("fixed currency to region requirement",
			zap.String("region", rp.RegionCode),
			zap.String("from", original),
			zap.String("to", required))
	}

	outcome.Prices = filtered.Kept
	return outcome
}

func applyRecommended(ctx context.Context, prices []*pricebook.RegionalPrice, billable map[string]string, orc oracle.Oracle) int {
	recommended := orc.RecommendedPrices(ctx)
	if len(recommended) == 0 {
		logging.Warn("could not fetch recommended prices, proceeding with sheet values")
		return 0
	}

	applied := 0
	for _, rp := range prices {
		rec, ok := recommended[rp.RegionCode]
		if !ok || rec.CurrencyCode != billable[rp.RegionCode] {
			continue
		}
		rp.Price = rec
		applied++
	}
	return applied
}

func findMismatched(prices []*pricebook.RegionalPrice, billable map[string]string) []*pricebook.RegionalPrice {
	var mismatched []*pricebook.RegionalPrice
	for _, rp := range prices {
		if required := billable[rp.RegionCode]; required != "" && required != rp.Price.CurrencyCode {
			mismatched = append(mismatched, rp)
		}
	}
	return mismatched
}
