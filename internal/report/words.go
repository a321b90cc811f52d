package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ones = []string{
		"", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
		"eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
	}
	tens = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
)

// AmountInWords spells out an amount in upper case, e.g. 2500 becomes
// "TWO THOUSAND FIVE HUNDRED". Paise are appended when present.
func AmountInWords(d decimal.Decimal) string {
	d = d.Abs().Round(2)
	rupees := d.IntPart()
	paise := d.Sub(decimal.NewFromInt(rupees)).Shift(2).IntPart()

	out := "zero"
	if rupees > 0 {
		out = toWords(rupees)
	}
	if paise > 0 {
		out += " and " + toWords(paise) + " paise"
	}
	return strings.ToUpper(out)
}

func toWords(n int64) string {
	switch {
	case n < 20:
		return ones[n]
	case n < 100:
		w := tens[n/10]
		if n%10 != 0 {
			w += " " + ones[n%10]
		}
		return w
	case n < 1000:
		w := ones[n/100] + " hundred"
		if n%100 != 0 {
			w += " and " + toWords(n%100)
		}
		return w
	}
	w := toWords(n/1000) + " thousand"
	if n%1000 != 0 {
		w += " " + toWords(n%1000)
	}
	return w
}
