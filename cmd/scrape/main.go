package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"stockproxy/pkg/core/dividend"
	"stockproxy/pkg/core/ingest"
	"stockproxy/pkg/core/report"
)

// scrape runs one ticker through the extraction pipeline from the command
// line, without the API server in front. Useful when a source changes its
// markup and the trace needs eyeballing.
func main() {
	symbol := flag.String("symbol", "", "ASX ticker, e.g. VHY or VHY.AX")
	windowKind := flag.String("window", "rolling", "aggregation window: fy or rolling")
	debug := flag.Bool("debug", false, "print the per-row extraction trace")
	reportPath := flag.String("report", "", "write an HTML report to this path")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "usage: scrape -symbol VHY [-window fy|rolling] [-debug] [-report out.html]")
		os.Exit(2)
	}

	godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	code := dividend.NormalizeSymbol(*symbol)
	window := dividend.WindowFor(dividend.WindowKind(*windowKind), time.Now().UTC())

	var trace *dividend.Trace
	if *debug || *reportPath != "" {
		trace = dividend.NewTrace()
	}

	orch := dividend.NewOrchestrator(dividend.DefaultSources(ingest.NewClient(0))...)
	agg, _ := orch.Resolve(ctx, code, window, trace)

	fmt.Printf("%s  window %s to %s\n", code,
		window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))
	if agg.NoData {
		fmt.Println("no qualifying payments found")
	} else {
		fmt.Printf("total cash: %s\n", agg.TotalCash)
		fmt.Printf("weighted franking: %s%%\n", agg.WeightedFranking)
	}

	if *debug && trace != nil {
		fmt.Println()
		for _, rt := range trace.Rows {
			fmt.Printf("  [%s] date=%q parsed=%q amount=%q ok=%v franking=%s inWindow=%v\n",
				rt.Source, rt.DateText, rt.DateParsed, rt.AmountText, rt.AmountOK, rt.Franking, rt.InWindow)
		}
	}

	if *reportPath != "" {
		md := report.Markdown(code, window, agg, trace)
		html, err := report.RenderHTML(md)
		if err != nil {
			fmt.Fprintf(os.Stderr, "render report: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*reportPath, []byte(html), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "write report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("report written to %s\n", *reportPath)
	}
}
