package financelog

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const monthLayout = "2006-01"

// ptBR formats numbers with Brazilian grouping and decimal separators.
var ptBR = message.NewPrinter(language.BrazilianPortuguese)

var ptMonthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var ptMonthAbbrev = [12]string{
	"jan", "fev", "mar", "abr", "mai", "jun",
	"jul", "ago", "set", "out", "nov", "dez",
}

// CurrentMonth returns the YYYY-MM bucket for the given time.
func CurrentMonth(now time.Time) string {
	return now.Format(monthLayout)
}

// PreviousMonth subtracts one calendar month, rolling the year over at
// January. Invalid input is returned unchanged.
func PreviousMonth(month string) string {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return month
	}
	return t.AddDate(0, -1, 0).Format(monthLayout)
}

// MonthsRange produces the inclusive ascending YYYY-MM sequence from start to
// end. An unparseable bound or an empty range yields nil.
func MonthsRange(start, end string) []string {
	from, err := time.Parse(monthLayout, start)
	if err != nil {
		return nil
	}
	to, err := time.Parse(monthLayout, end)
	if err != nil {
		return nil
	}

	var months []string
	for !from.After(to) {
		months = append(months, from.Format(monthLayout))
		from = from.AddDate(0, 1, 0)
	}
	return months
}

// LastNMonths produces the n months ending at the current month, in ascending
// order.
func LastNMonths(n int, now time.Time) []string {
	if n <= 0 {
		return nil
	}
	// Anchor on the first of the month so AddDate never skips short months.
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := make([]string, n)
	for i := 0; i < n; i++ {
		months[n-1-i] = anchor.AddDate(0, -i, 0).Format(monthLayout)
	}
	return months
}

// FormatMonth renders a YYYY-MM bucket as a long pt-BR label, e.g.
// "janeiro de 2024". Invalid input is returned unchanged.
func FormatMonth(month string) string {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return month
	}
	return fmt.Sprintf("%s de %d", ptMonthNames[t.Month()-1], t.Year())
}

// formatMonthShort renders a YYYY-MM bucket as a short chart label, e.g.
// "jan/24".
func formatMonthShort(month string) string {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return month
	}
	return fmt.Sprintf("%s/%02d", ptMonthAbbrev[t.Month()-1], t.Year()%100)
}

// FormatCurrency renders a monetary value in pt-BR BRL style, e.g.
// "R$ 1.234,56".
func FormatCurrency(value Amount) string {
	return ptBR.Sprintf("R$ %.2f", value.Float64())
}

// FormatPercent renders a percentage with one decimal place in pt-BR style,
// e.g. "25,0%".
func FormatPercent(value float64) string {
	return ptBR.Sprintf("%.1f%%", value)
}
