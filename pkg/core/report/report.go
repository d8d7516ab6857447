// Package report renders a scraped dividend history as Markdown and HTML,
// for eyeballing what the engine extracted for a ticker.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"stockproxy/pkg/core/dividend"
)

// Markdown builds a report from a query's aggregate and its row trace. Rows
// the engine discarded are listed with the reason visible (raw text, parse
// flags) so a markup shift on a source is easy to spot.
func Markdown(symbol string, window dividend.FiscalWindow, agg dividend.AggregateResult, trace *dividend.Trace) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Dividend history for %s\n\n", symbol)
	fmt.Fprintf(&b, "Window: %s to %s (inclusive)\n\n",
		window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))

	if agg.NoData {
		b.WriteString("**No qualifying payments found.**\n\n")
	} else {
		fmt.Fprintf(&b, "**Total cash:** %s  \n", agg.TotalCash)
		fmt.Fprintf(&b, "**Weighted franking:** %s%%\n\n", agg.WeightedFranking)
	}

	if trace == nil || len(trace.Rows) == 0 {
		return b.String()
	}

	b.WriteString("| Source | Ex Date | Amount | Franking % | In Window | Parsed |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, rt := range trace.Rows {
		date := rt.DateParsed
		if date == "" {
			date = rt.DateText
		}
		parsed := "yes"
		if rt.DateParsed == "" || !rt.AmountOK {
			parsed = "no"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %v | %s |\n",
			rt.Source, date, rt.AmountText, rt.Franking, rt.InWindow, parsed)
	}
	b.WriteString("\n")

	return b.String()
}

// RenderHTML converts a Markdown report to a standalone HTML page.
func RenderHTML(md string) (string, error) {
	renderer := goldmark.New(goldmark.WithExtensions(extension.Table))

	var buf bytes.Buffer
	if err := renderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	page.WriteString("<style>table{border-collapse:collapse}td,th{border:1px solid #999;padding:4px 8px}</style>")
	page.WriteString("</head><body>\n")
	page.Write(buf.Bytes())
	page.WriteString("</body></html>\n")
	return page.String(), nil
}
