package budget

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// numberCleaner drops thousands separators as they show up in spreadsheets:
// plain, no-break and narrow no-break spaces.
var numberCleaner = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "\t", "")

// ParseDecimal reads a user-typed number. A space thousands separator and a
// comma decimal separator are accepted, so "1 234,5" parses as 1234.5.
func ParseDecimal(s string) (decimal.Decimal, error) {
	clean := numberCleaner.Replace(strings.TrimSpace(s))
	clean = strings.ReplaceAll(clean, ",", ".")
	clean = strings.TrimSuffix(clean, "%")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidNumber)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return d, nil
}

// clamp floors negative input at zero.
func clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// roundUnits rounds to whole currency units, half to even.
func roundUnits(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(0)
}

// shareOf returns part/whole×100, or zero when whole is zero.
func shareOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// portion returns round(whole × pct/100).
func portion(whole, pct decimal.Decimal) decimal.Decimal {
	return roundUnits(whole.Mul(pct.Div(hundred)))
}
