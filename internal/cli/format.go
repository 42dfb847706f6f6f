// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/model"
)

// FormatCurrency formats an amount as USD, e.g. 1234.5 -> "$1,234.50".
func FormatCurrency(d decimal.Decimal) string {
	r := d.Round(2)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Neg()
	}
	_, frac, _ := strings.Cut(r.StringFixed(2), ".")
	return sign + "$" + humanize.Comma(r.IntPart()) + "." + frac
}

// FormatNullCurrency formats an optional amount; unset is "$0.00".
func FormatNullCurrency(d decimal.NullDecimal) string {
	if !d.Valid {
		return FormatCurrency(decimal.Zero)
	}
	return FormatCurrency(d.Decimal)
}

// FormatSignedCurrency always shows the sign: "+$7,000.00", "-$3,000.00".
func FormatSignedCurrency(d decimal.Decimal) string {
	if d.IsNegative() {
		return FormatCurrency(d)
	}
	return "+" + FormatCurrency(d)
}

// FormatDate formats a calendar date as "Jan 2, 2006", or "Not set".
func FormatDate(d model.Date) string {
	if d.IsZero() {
		return "Not set"
	}
	return d.Format("Jan 2, 2006")
}

// FormatPercent formats a 0-100 value with at most one decimal: "50%", "33.3%".
func FormatPercent(d decimal.Decimal) string {
	return d.Round(1).String() + "%"
}

// CapitalizeWords turns "in_progress" into "In Progress".
func CapitalizeWords(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatSqft formats an optional square footage.
func FormatSqft(n *int) string {
	if n == nil {
		return "Not set"
	}
	return humanize.Comma(int64(*n)) + " sq ft"
}

// FormatAge describes how long ago t was, e.g. "3 minutes ago".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// FormatStatus renders a status with its canonical label.
func FormatStatus(s model.Status) string {
	return model.ParseStatus(string(s)).Label()
}
