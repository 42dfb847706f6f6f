package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/model"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"5", "$5.00"},
		{"1234.5", "$1,234.50"},
		{"1234567.891", "$1,234,567.89"},
		{"-3000", "-$3,000.00"},
		{"999.999", "$1,000.00"},
		{"-1234567.89", "-$1,234,567.89"},
		{"1000000000", "$1,000,000,000.00"},
		{"100", "$100.00"},
		{"-0.001", "$0.00"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatCurrency(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatNullCurrency(decimal.NullDecimal{}); got != "$0.00" {
		t.Errorf("FormatNullCurrency(null) = %q", got)
	}
	if got := FormatSignedCurrency(decimal.NewFromInt(7000)); got != "+$7,000.00" {
		t.Errorf("FormatSignedCurrency = %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(model.Date{}); got != "Not set" {
		t.Errorf("FormatDate(zero) = %q", got)
	}
	if got := FormatDate(model.NewDate(2024, time.March, 9)); got != "Mar 9, 2024" {
		t.Errorf("FormatDate = %q", got)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(decimal.NewFromInt(50)); got != "50%" {
		t.Errorf("FormatPercent(50) = %q", got)
	}
	third := decimal.NewFromInt(100).Div(decimal.NewFromInt(3))
	if got := FormatPercent(third); got != "33.3%" {
		t.Errorf("FormatPercent(33.33) = %q", got)
	}
	if got := FormatPercent(decimal.Zero); got != "0%" {
		t.Errorf("FormatPercent(0) = %q", got)
	}
}

func TestCapitalizeWords(t *testing.T) {
	for in, want := range map[string]string{
		"in_progress": "In Progress",
		"not started": "Not Started",
		"":            "",
		"HVAC":        "Hvac",
	} {
		if got := CapitalizeWords(in); got != want {
			t.Errorf("CapitalizeWords(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatNumberAndSqft(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Errorf("FormatNumber = %q", got)
	}
	n := 2400
	if got := FormatSqft(&n); got != "2,400 sq ft" {
		t.Errorf("FormatSqft = %q", got)
	}
	if got := FormatSqft(nil); got != "Not set" {
		t.Errorf("FormatSqft(nil) = %q", got)
	}
}

func TestRenderTable_AlignsStyledCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Metric", "Value"},
		Rows:    [][]string{{"Variance", Signed(decimal.NewFromInt(-5), "-$5.00")}, {"Budget", "$10.00"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d, want 6:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "-$5.00") {
		t.Fatalf("missing cell:\n%s", out)
	}
}
