package negotiation

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// pricePattern matches the first currency-like number in a message: an
// optional currency symbol followed by digits with optional thousands
// separators and an optional decimal part.
var pricePattern = regexp.MustCompile(`[$€£¥]?\s*([0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]+)?|[0-9]+(?:\.[0-9]+)?)`)

// ExtractPrice returns the first currency-like value found in text. The
// second return is false when the text contains no numeric value.
func ExtractPrice(text string) (decimal.Decimal, bool) {
	m := pricePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
