// Package money provides the fixed-point currency amount used on the
// billing platform wire: whole units plus a fraction scaled to billionths.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"playprice/internal/errors"
)

// NanosPerUnit is the fixed-point scale of the fractional part.
const NanosPerUnit = 1_000_000_000

var nanoScale = decimal.New(NanosPerUnit, 0)

// Money is a currency amount in the platform's fixed-point encoding.
// Units is kept as a decimal string to match the wire format exactly.
type Money struct {
	CurrencyCode string `json:"currencyCode"`
	Units        string `json:"units"`
	Nanos        int64  `json:"nanos"`
}

// FromDecimal converts an exact decimal amount into fixed point.
// The fractional part is truncated, never rounded up, so the result
// reconstructs a value less than or equal to the input.
func FromDecimal(amount decimal.Decimal, currencyCode string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, errors.Inputf("amount cannot be negative: %s", amount.String())
	}

	units := amount.Truncate(0)
	nanos := amount.Sub(units).Mul(nanoScale).Truncate(0).IntPart()

	return Money{
		CurrencyCode: currencyCode,
		Units:        units.String(),
		Nanos:        nanos,
	}, nil
}

// Parse parses decimal price text into fixed point.
func Parse(text, currencyCode string) (Money, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return Money{}, errors.Parsing(fmt.Sprintf("invalid price %q", text), err)
	}
	return FromDecimal(amount, currencyCode)
}

// Decimal reconstructs the exact decimal amount.
func (m Money) Decimal() (decimal.Decimal, error) {
	units := decimal.Zero
	if m.Units != "" {
		var err error
		units, err = decimal.NewFromString(m.Units)
		if err != nil {
			return decimal.Zero, errors.Parsing(fmt.Sprintf("invalid units %q", m.Units), err)
		}
	}
	return units.Add(decimal.New(m.Nanos, 0).Div(nanoScale)), nil
}

// Equal reports whether two amounts are identical field-for-field.
// Currency, units, and nanos all participate; a currency relabel with
// the same magnitude is a change.
func (m Money) Equal(other Money) bool {
	return m.CurrencyCode == other.CurrencyCode &&
		normalizeUnits(m.Units) == normalizeUnits(other.Units) &&
		m.Nanos == other.Nanos
}

// IsZero reports whether the amount has no value set.
func (m Money) IsZero() bool {
	return (m.Units == "" || normalizeUnits(m.Units) == "0") && m.Nanos == 0
}

// String renders the amount as "12.99 USD", trimming trailing
// fractional zeros.
func (m Money) String() string {
	units := m.Units
	if units == "" {
		units = "0"
	}

	frac := strings.TrimRight(fmt.Sprintf("%09d", m.Nanos), "0")
	if frac == "" {
		return fmt.Sprintf("%s %s", units, m.CurrencyCode)
	}
	return fmt.Sprintf("%s.%s %s", units, frac, m.CurrencyCode)
}

func normalizeUnits(units string) string {
	if units == "" {
		return "0"
	}
	trimmed := strings.TrimLeft(units, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
