package funding

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts as local currency for display.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
}

// NewFormatter builds a formatter for a BCP 47 locale and an ISO 4217 code.
// Unknown values fall back to es-PE and PEN.
func NewFormatter(locale, code string) *Formatter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.MustParse("es-PE")
	}
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		unit = currency.MustParseISO("PEN")
	}
	return &Formatter{printer: message.NewPrinter(tag), unit: unit}
}

// Format renders amount with the symbol of the configured currency.
func (f *Formatter) Format(amount decimal.Decimal) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(amount.InexactFloat64())))
}

// Percent renders a percentage rounded to whole units, as the progress bar shows it.
func (f *Formatter) Percent(pct decimal.Decimal) string {
	return pct.Round(0).String() + "%"
}
