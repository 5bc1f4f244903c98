// Package oracle defines the one external capability the reconciliation
// engine depends on: the platform's region price conversion service.
package oracle

import (
	"context"

	"playprice/core/money"
)

// Oracle answers region pricing questions from the billing platform.
//
// Every operation degrades gracefully: on platform failure it returns
// an empty or absent result instead of an error, because eligibility
// filtering and conversion are best-effort optimizations. Callers must
// treat empty results as "skip this step" and warn.
type Oracle interface {
	// BillableRegions returns region code -> required currency code
	// for every region the product can currently be priced in.
	// Empty on failure.
	BillableRegions(ctx context.Context) map[string]string

	// RegionsVersion returns the platform's current regions version
	// token, if it can be determined.
	RegionsVersion(ctx context.Context) (string, bool)

	// Convert translates an amount into the target region's local
	// currency. Absent on failure or when the region is unknown.
	Convert(ctx context.Context, amount money.Money, targetRegion string) (money.Money, bool)

	// RecommendedPrices returns the platform's recommended local
	// price per region for a USD 1.00 anchor. Empty on failure.
	RecommendedPrices(ctx context.Context) map[string]money.Money
}

// Unavailable is an Oracle for a platform that cannot be reached; every
// operation reports absence. Useful in tests and offline dry-runs.
type Unavailable struct{}

func (Unavailable) BillableRegions(context.Context) map[string]string { return nil }

func (Unavailable) RegionsVersion(context.Context) (string, bool) { return "", false }

func (Unavailable) Convert(context.Context, money.Money, string) (money.Money, bool) {
	return money.Money{}, false
}

func (Unavailable) RecommendedPrices(context.Context) map[string]money.Money { return nil }
