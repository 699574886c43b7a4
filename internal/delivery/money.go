package delivery

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatEUR formats v the way the dashboard does: German grouping, two
// decimals and a trailing euro sign, e.g. "1.234,56 €".
func FormatEUR(v float64) string {
	return message.NewPrinter(language.German).Sprintf("%.2f €", v)
}

// FormatHours formats an hour figure with German decimals, e.g. "1,5".
func FormatHours(v float64) string {
	p := message.NewPrinter(language.German)
	if v == float64(int64(v)) {
		return p.Sprintf("%d", int64(v))
	}
	return p.Sprintf("%.2f", v)
}
