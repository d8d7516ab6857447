package dividend

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// =============================================================================
// SOURCE ADAPTER - One configured external data source
// =============================================================================

// SourceConfig parametrizes the shared extraction pipeline for one external
// data source: query construction, header candidates and pagination
// strategy. Near-duplicate per-site scrapers collapse to records of this
// type plugged into one pipeline.
type SourceConfig struct {
	Name string `json:"name"`

	// URLTemplate receives the lower-cased bare ticker code, e.g.
	// "https://www.marketindex.com.au/asx/%s".
	URLTemplate string `json:"url_template"`

	Headers    HeaderSpec     `json:"headers"`
	Pagination PaginationKind `json:"pagination"`

	// PageParam and PageSize configure the page-number strategy.
	PageParam string `json:"page_param,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
}

// Source runs the shared pipeline (pagination walker, table locator, column
// resolver, row extractor, aggregator) against one configured site.
type Source struct {
	cfg     SourceConfig
	fetcher Fetcher
}

// NewSource binds a source configuration to a fetcher.
func NewSource(cfg SourceConfig, fetcher Fetcher) *Source {
	return &Source{cfg: cfg, fetcher: fetcher}
}

// Name returns the configured source name.
func (s *Source) Name() string { return s.cfg.Name }

// Try runs one full extraction attempt for code against this source and
// classifies the outcome. Transport failures yield Unreachable; a clean
// extraction with no in-window cash yields Empty.
func (s *Source) Try(ctx context.Context, code string, window FiscalWindow, trace *Trace) SourceResult {
	startURL := fmt.Sprintf(s.cfg.URLTemplate, strings.ToLower(BaseCode(code)))

	var events []PaymentEvent

	// collect extracts one document's rows and returns how many data rows
	// were visited, which the paged strategy uses as its stop signal.
	collect := func(doc *goquery.Document) int {
		table := LocateTable(doc, s.cfg.Headers)
		if table == nil {
			return 0
		}
		evs, traces := table.ExtractRows()
		events = append(events, evs...)
		MarkWindow(traces, window)
		for _, rt := range traces {
			rt.Source = s.cfg.Name
			trace.Add(rt)
		}
		return len(traces)
	}

	var err error
	switch s.cfg.Pagination {
	case PaginateNextLink:
		err = WalkNext(ctx, s.fetcher, startURL, func(doc *goquery.Document) bool {
			collect(doc)
			return ctx.Err() == nil
		})
	case PaginatePageParam:
		err = WalkPaged(ctx, s.fetcher, s.pagedURL(startURL), s.cfg.PageSize, collect)
	default:
		var doc *goquery.Document
		doc, _, err = fetchDocument(ctx, s.fetcher, startURL)
		if err == nil {
			collect(doc)
		}
	}
	if err != nil {
		return SourceResult{Status: SourceUnreachable, Err: err}
	}
	if ctx.Err() != nil {
		// Abandoned query: never surface a partial aggregate.
		return SourceResult{Status: SourceUnreachable, Err: ctx.Err()}
	}

	agg := Aggregate(events, window)
	if agg.NoData {
		log.Printf("[Source] %s: %d events extracted, none in window for %s", s.cfg.Name, len(events), code)
		return SourceResult{Status: SourceEmpty}
	}
	return SourceResult{Status: SourceSuccess, Aggregate: agg}
}

// pagedURL builds the page-number URL constructor for the paged strategy.
func (s *Source) pagedURL(startURL string) func(page int) string {
	param := s.cfg.PageParam
	if param == "" {
		param = "page"
	}
	sep := "?"
	if strings.Contains(startURL, "?") {
		sep = "&"
	}
	return func(page int) string {
		if page == 1 {
			return startURL
		}
		return fmt.Sprintf("%s%s%s=%d", startURL, sep, param, page)
	}
}

// =============================================================================
// BUILT-IN SOURCES - Priority-ordered defaults
// =============================================================================

// DefaultConfigs returns the built-in source configurations in priority
// order. MarketIndex publishes the full history on one page; InvestSMART
// paginates with next links and omits franking on some funds.
func DefaultConfigs() []SourceConfig {
	return []SourceConfig{
		{
			Name:        "marketindex",
			URLTemplate: "https://www.marketindex.com.au/asx/%s",
			Headers: HeaderSpec{
				ExDate:          []string{"ex date", "ex dividend date", "ex-date", "ex div date", "ex"},
				Amount:          []string{"amount", "dividend", "distribution"},
				Franking:        []string{"franking"},
				DistType:        []string{"type"},
				RequireFranking: true,
			},
			Pagination: PaginateNone,
		},
		{
			Name:        "investsmart",
			URLTemplate: "https://www.investsmart.com.au/shares/asx-%s/dividends",
			Headers: HeaderSpec{
				ExDate:   []string{"ex date", "ex-date", "ex div date"},
				Amount:   []string{"amount", "dividend", "distribution"},
				Franking: []string{"franking", "franked"},
				DistType: []string{"type"},
			},
			Pagination: PaginateNextLink,
		},
	}
}

// DefaultSources binds the built-in configurations to a fetcher.
func DefaultSources(fetcher Fetcher) []Adapter {
	configs := DefaultConfigs()
	adapters := make([]Adapter, 0, len(configs))
	for _, cfg := range configs {
		adapters = append(adapters, NewSource(cfg, fetcher))
	}
	return adapters
}
