// Package diff classifies merged regional configs against the live
// base plan state.
//
// Classification is pure: no side effects, no network calls, so the
// same inputs produce bit-identical results in dry-run and pre-apply
// contexts.
package diff

import (
	"sort"

	"playprice/core/plan"
)

// Category buckets a merged config relative to its prior state.
type Category int

const (
	// CategoryNew marks a region with no prior config.
	CategoryNew Category = iota
	// CategoryPriceChanged marks a currency, units, or nanos difference.
	CategoryPriceChanged
	// CategoryAvailabilityChanged marks an availability-only difference.
	CategoryAvailabilityChanged
	// CategoryUnchanged marks no observed difference.
	CategoryUnchanged
)

// String returns the category name
func (c Category) String() string {
	switch c {
	case CategoryNew:
		return "new"
	case CategoryPriceChanged:
		return "price-changed"
	case CategoryAvailabilityChanged:
		return "availability-changed"
	case CategoryUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Direction describes how a changed price moved.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionIncrease
	DirectionDecrease
	DirectionCurrencyOnly
)

// Entry is one region's classification.
type Entry struct {
	RegionCode string
	Category   Category

	// Old is the prior config, nil for new regions.
	Old *plan.RegionalConfig
	New *plan.RegionalConfig

	// AvailabilityChanged is set on price-changed entries whose
	// availability also moved.
	AvailabilityChanged bool

	// Direction is set for price-changed entries.
	Direction Direction
}

// Result groups entries per category, each list sorted by region code.
type Result struct {
	New                 []*Entry
	PriceChanged        []*Entry
	AvailabilityChanged []*Entry
	Unchanged           []*Entry
}

// Counts is the per-category summary.
type Counts struct {
	New                 int
	PriceChanged        int
	AvailabilityChanged int
	Unchanged           int
	Total               int
}

// Counts summarizes the result.
func (r *Result) Counts() Counts {
	return Counts{
		New:                 len(r.New),
		PriceChanged:        len(r.PriceChanged),
		AvailabilityChanged: len(r.AvailabilityChanged),
		Unchanged:           len(r.Unchanged),
		Total:               len(r.New) + len(r.PriceChanged) + len(r.AvailabilityChanged) + len(r.Unchanged),
	}
}

// Classify buckets every merged config into exactly one category.
// Availability differences only count when availability management is
// enabled for this run.
func Classify(existing []*plan.RegionalConfig, merged plan.MergedConfigSet, enableAvailability bool) *Result {
	prior := make(map[string]*plan.RegionalConfig, len(existing))
	for _, rc := range existing {
		if rc.RegionCode != "" {
			prior[rc.RegionCode] = rc
		}
	}

	result := &Result{}
	for _, rc := range merged {
		entry := classifyOne(prior[rc.RegionCode], rc, enableAvailability)
		switch entry.Category {
		case CategoryNew:
			result.New = append(result.New, entry)
		case CategoryPriceChanged:
			result.PriceChanged = append(result.PriceChanged, entry)
		case CategoryAvailabilityChanged:
			result.AvailabilityChanged = append(result.AvailabilityChanged, entry)
		case CategoryUnchanged:
			result.Unchanged = append(result.Unchanged, entry)
		}
	}

	sortEntries(result.New)
	sortEntries(result.PriceChanged)
	sortEntries(result.AvailabilityChanged)
	sortEntries(result.Unchanged)
	return result
}

func classifyOne(old, merged *plan.RegionalConfig, enableAvailability bool) *Entry {
	entry := &Entry{RegionCode: merged.RegionCode, Old: old, New: merged}

	if old == nil {
		entry.Category = CategoryNew
		return entry
	}

	priceChanged := !old.Price.Equal(merged.Price)
	availabilityChanged := enableAvailability &&
		old.NewSubscriberAvailability != merged.NewSubscriberAvailability

	switch {
	case priceChanged:
		entry.Category = CategoryPriceChanged
		entry.AvailabilityChanged = availabilityChanged
		entry.Direction = direction(old, merged)
	case availabilityChanged:
		entry.Category = CategoryAvailabilityChanged
	default:
		entry.Category = CategoryUnchanged
	}
	return entry
}

func direction(old, merged *plan.RegionalConfig) Direction {
	oldAmount, errOld := old.Price.Decimal()
	newAmount, errNew := merged.Price.Decimal()
	if errOld != nil || errNew != nil {
		return DirectionNone
	}

	switch {
	case newAmount.GreaterThan(oldAmount):
		return DirectionIncrease
	case newAmount.LessThan(oldAmount):
		return DirectionDecrease
	default:
		// Same magnitude, so only the currency label moved.
		return DirectionCurrencyOnly
	}
}

func sortEntries(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RegionCode < entries[j].RegionCode
	})
}
