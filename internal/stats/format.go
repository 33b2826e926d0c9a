package stats

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Currency suffixes.
const (
	SuffixKyat = "ကျပ်"
	SuffixMMK  = "MMK"
)

// FormatAmount renders a money value with thousands separators. Whole amounts
// carry no fraction digits.
func FormatAmount(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return humanize.Comma(d.IntPart())
	}
	return humanize.CommafWithDigits(d.Round(2).InexactFloat64(), 2)
}

// FormatKyat renders an amount as "15,000 ကျပ်".
func FormatKyat(d decimal.Decimal) string {
	return FormatAmount(d) + " " + SuffixKyat
}

// FormatMMK renders an amount as "15,000 MMK" for ASCII outputs.
func FormatMMK(d decimal.Decimal) string {
	return FormatAmount(d) + " " + SuffixMMK
}

// FormatPct renders a signed percentage delta.
func FormatPct(pct float64) string {
	return fmt.Sprintf("%+.1f%%", pct)
}

// Money picks the currency formatter for an output.
type Money func(decimal.Decimal) string

// MoneyFor returns FormatMMK when ascii is set and FormatKyat otherwise.
func MoneyFor(ascii bool) Money {
	if ascii {
		return FormatMMK
	}
	return FormatKyat
}
