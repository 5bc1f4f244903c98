package play

import (
	"context"

	"go.uber.org/zap"

	"playprice/core/money"
	"playprice/core/oracle"
)

// anchor is the trivial amount used when only the response's region
// list, currencies, or version token matter.
var anchor = money.Money{CurrencyCode: "USD", Units: "1", Nanos: 0}

// Oracle answers region pricing questions through the platform's
// convert-region-prices call. Every operation degrades to an empty or
// absent result on failure, per the engine's best-effort policy.
type Oracle struct {
	client *Client
	logger *zap.Logger
}

// NewOracle creates a platform-backed oracle.
func NewOracle(client *Client, logger *zap.Logger) *Oracle {
	return &Oracle{client: client, logger: logger}
}

var _ oracle.Oracle = (*Oracle)(nil)

// BillableRegions returns region code -> required currency code.
func (o *Oracle) BillableRegions(ctx context.Context) map[string]string {
	resp, err := o.client.ConvertRegionPrices(ctx, anchor)
	if err != nil {
		o.logger.Warn("billable region lookup failed", zap.Error(err))
		return nil
	}

	mapping := make(map[string]string, len(resp.ConvertedRegionPrices))
	for region, converted := range resp.ConvertedRegionPrices {
		if region != "" && converted.Price.CurrencyCode != "" {
			mapping[region] = converted.Price.CurrencyCode
		}
	}
	return mapping
}

// RegionsVersion returns the platform's current version token.
func (o *Oracle) RegionsVersion(ctx context.Context) (string, bool) {
	resp, err := o.client.ConvertRegionPrices(ctx, anchor)
	if err != nil {
		o.logger.Warn("regions version lookup failed", zap.Error(err))
		return "", false
	}
	if resp.RegionsVersion == nil || resp.RegionsVersion.Version == "" {
		return "", false
	}
	return resp.RegionsVersion.Version, true
}

// Convert translates an amount into the target region's currency.
func (o *Oracle) Convert(ctx context.Context, amount money.Money, targetRegion string) (money.Money, bool) {
	resp, err := o.client.ConvertRegionPrices(ctx, amount)
	if err != nil {
		o.logger.Warn("price conversion failed",
			zap.String("region", targetRegion), zap.Error(err))
		return money.Money{}, false
	}

	converted, ok := resp.ConvertedRegionPrices[targetRegion]
	if !ok || converted.Price.CurrencyCode == "" {
		return money.Money{}, false
	}
	return converted.Price, true
}

// RecommendedPrices returns the platform's recommended local price per
// region for a USD 1.00 anchor.
func (o *Oracle) RecommendedPrices(ctx context.Context) map[string]money.Money {
	resp, err := o.client.ConvertRegionPrices(ctx, anchor)
	if err != nil {
		o.logger.Warn("recommended price lookup failed", zap.Error(err))
		return nil
	}

	recommended := make(map[string]money.Money, len(resp.ConvertedRegionPrices))
	for region, converted := range resp.ConvertedRegionPrices {
		if converted.Price.CurrencyCode != "" {
			recommended[region] = converted.Price
		}
	}
	return recommended
}
