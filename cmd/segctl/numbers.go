package main

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups digits in report numbers.
var printer = message.NewPrinter(language.English)

// num formats n with thousands separators.
func num(n int) string {
	return printer.Sprintf("%d", n)
}

// rate formats a per-second figure with no decimals.
func rate(f float64) string {
	return printer.Sprintf("%.0f", f)
}

// pct formats a ratio as a percentage with one decimal.
func pct(f float64) string {
	return printer.Sprintf("%.1f%%", 100*f)
}
