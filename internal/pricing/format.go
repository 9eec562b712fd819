package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatCurrency renders amount for display in the given locale. The amount is rounded here;
// the formatter is never trusted to round.
func FormatCurrency(tag language.Tag, amount decimal.Decimal, currencyCode string, places int32) (string, error) {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return "", fmt.Errorf("unknown currency %q: %w", currencyCode, err)
	}

	rounded := Round(amount, places)
	p := message.NewPrinter(tag)
	symbol := p.Sprint(currency.NarrowSymbol(unit))
	value := p.Sprint(number.Decimal(rounded.Abs().InexactFloat64(), number.Scale(int(places))))

	if rounded.IsNegative() {
		return "-" + symbol + value, nil
	}
	return symbol + value, nil
}
