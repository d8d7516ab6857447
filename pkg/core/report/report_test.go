package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stockproxy/pkg/core/dividend"
)

func TestMarkdown(t *testing.T) {
	window := dividend.FiscalWindow{
		Start: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
	}
	agg := dividend.AggregateResult{
		TotalCash:        decimal.RequireFromString("1.5"),
		WeightedFranking: decimal.RequireFromString("66.67"),
	}
	trace := dividend.NewTrace()
	trace.Add(dividend.RowTrace{
		Source:     "marketindex",
		DateText:   "01 Jul 2024",
		DateParsed: "2024-07-01",
		AmountText: "$1.00",
		AmountOK:   true,
		Amount:     decimal.RequireFromString("1"),
		Franking:   decimal.RequireFromString("100"),
		InWindow:   true,
	})
	trace.Add(dividend.RowTrace{
		Source:   "marketindex",
		DateText: "pending",
	})

	md := Markdown("VHY.AX", window, agg, trace)
	for _, want := range []string{
		"# Dividend history for VHY.AX",
		"2024-07-01 to 2025-06-30",
		"**Total cash:** 1.5",
		"**Weighted franking:** 66.67%",
		"| marketindex | 2024-07-01 | $1.00 | 100 | true | yes |",
		"| marketindex | pending |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownNoData(t *testing.T) {
	window := dividend.Rolling365(time.Now().UTC())
	md := Markdown("VHY.AX", window, dividend.AggregateResult{NoData: true}, nil)
	if !strings.Contains(md, "No qualifying payments") {
		t.Errorf("markdown missing no-data banner:\n%s", md)
	}
}

func TestRenderHTML(t *testing.T) {
	md := "# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"
	html, err := RenderHTML(md)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, want := range []string{"<h1", "Title", "<table>", "<td>1</td>"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q:\n%s", want, html)
		}
	}
}
