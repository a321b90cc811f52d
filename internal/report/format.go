// Package report renders receipts, monthly reports and reminders.
package report

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter prints amounts with a currency symbol and locale grouping.
type Formatter struct {
	symbol  string
	printer *message.Printer
}

// NewFormatter creates a formatter for the given symbol and locale.
func NewFormatter(symbol string, tag language.Tag) *Formatter {
	return &Formatter{symbol: symbol, printer: message.NewPrinter(tag)}
}

// FormatAmount renders d with two decimals, e.g. "₹12,34,567.00" for en-IN.
func (f *Formatter) FormatAmount(d decimal.Decimal) string {
	return f.symbol + f.Number(d)
}

// Number renders d with two decimals and no symbol.
func (f *Formatter) Number(d decimal.Decimal) string {
	// Display only; stored amounts stay exact.
	return f.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}
