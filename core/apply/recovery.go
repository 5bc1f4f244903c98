// Package apply sends the merged regional configuration to the billing
// platform and recovers from server-side validation rejections.
//
// Recovery is driven by parsing the platform's human-readable rejection
// message. The classifier below is the explicit contract for that
// externally-owned format, kept separate from the retry orchestration
// so it stays independently testable.
package apply

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"playprice/core/money"
	"playprice/core/plan"
)

// Kind tags a rejection message classification.
type Kind int

const (
	// NoMatch means the message shape is unrecognized; no recovery
	// is possible and the rejection is fatal.
	NoMatch Kind = iota

	// OutOfBounds means a region's price violated the platform's
	// min/max and can be clamped.
	OutOfBounds

	// UnsupportedRegion means a region is not accepted at all and
	// must be dropped.
	UnsupportedRegion
)

// Classification is the parsed shape of a rejection message.
type Classification struct {
	Kind   Kind
	Region string

	// Bound values, set for OutOfBounds.
	Min   decimal.Decimal
	Max   decimal.Decimal
	Found decimal.Decimal
}

var (
	// e.g. "Price for CI must be between F CFA 30 and F CFA 627,341, found F CFA 27"
	boundsPattern = regexp.MustCompile(`Price for\s+([A-Z]{2})\s+must be between\s+(.+?)\s+and\s+(.+?),\s+found\s+(.+)$`)

	// e.g. "Region code XK is not supported"
	regionCodePattern = regexp.MustCompile(`Region code\s+([A-Z]{2})\b`)
	priceForPattern   = regexp.MustCompile(`Price for\s+([A-Z]{2})\b`)

	numberPattern = regexp.MustCompile(`[0-9][0-9., ]*`)
)

// ClassifyError parses a platform rejection message. Bounds messages
// win over bare region mentions; a bounds message whose numbers cannot
// be parsed degrades to an UnsupportedRegion classification so the
// offending region can still be dropped.
func ClassifyError(message string) Classification {
	if m := boundsPattern.FindStringSubmatch(message); m != nil {
		min, okMin := parseAmount(m[2])
		max, okMax := parseAmount(m[3])
		found, okFound := parseAmount(m[4])
		if okMin && okMax && okFound {
			return Classification{
				Kind:   OutOfBounds,
				Region: m[1],
				Min:    min,
				Max:    max,
				Found:  found,
			}
		}
	}

	if m := regionCodePattern.FindStringSubmatch(message); m != nil {
		return Classification{Kind: UnsupportedRegion, Region: m[1]}
	}
	if m := priceForPattern.FindStringSubmatch(message); m != nil {
		return Classification{Kind: UnsupportedRegion, Region: m[1]}
	}

	return Classification{Kind: NoMatch}
}

// parseAmount extracts the first numeric token from text such as
// "F CFA 627,341" or "1 299,50". Regular, non-breaking, and narrow
// spaces act as digit-group separators.
func parseAmount(text string) (decimal.Decimal, bool) {
	normalized := strings.NewReplacer(" ", " ", " ", " ").Replace(text)

	token := numberPattern.FindString(normalized)
	token = strings.TrimRight(token, ". ,")
	if token == "" {
		return decimal.Zero, false
	}

	// Spaces only ever group digits.
	token = strings.ReplaceAll(token, " ", "")

	switch {
	case strings.Contains(token, ",") && strings.Contains(token, "."):
		// Dot is decimal, commas group thousands.
		token = strings.ReplaceAll(token, ",", "")
	case strings.Contains(token, ","):
		// A single comma followed by one or two digits reads as a
		// decimal mark; anything else is grouping.
		parts := strings.Split(token, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			token = parts[0] + "." + parts[1]
		} else {
			token = strings.ReplaceAll(token, ",", "")
		}
	}

	amount, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// clampPrice sets the classified region's price to whichever bound the
// attempted value violated, leaving every other region untouched.
// Reports whether a config was adjusted.
func clampPrice(set plan.MergedConfigSet, c Classification) bool {
	cfg := set.Find(c.Region)
	if cfg == nil {
		return false
	}

	target := c.Found
	if c.Found.LessThan(c.Min) {
		target = c.Min
	} else if c.Found.GreaterThan(c.Max) {
		target = c.Max
	}

	clamped, err := money.FromDecimal(target, cfg.Price.CurrencyCode)
	if err != nil {
		return false
	}
	cfg.Price = clamped
	return true
}
