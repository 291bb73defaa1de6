package service

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dateLayout = "02.01.2006"

// Formatter renders numbers and dates for documents in one locale.
type Formatter struct {
	printer  *message.Printer
	currency string
}

// NewFormatter builds a Formatter for a BCP 47 locale such as "ru" or "en".
// Unknown locales fall back to English grouping.
func NewFormatter(locale, currency string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{
		printer:  message.NewPrinter(tag),
		currency: strings.TrimSpace(currency),
	}
}

// Cost rounds to whole units and groups thousands: 1000 -> "1,000 RUB" (en).
func (f *Formatter) Cost(v float64) string {
	s := f.printer.Sprintf("%d", int64(math.Round(v)))
	if f.currency == "" {
		return s
	}
	return s + " " + f.currency
}

func (f *Formatter) Number(n int) string {
	return f.printer.Sprintf("%d", n)
}

func (f *Formatter) Date(t time.Time) string {
	return t.Format(dateLayout)
}
