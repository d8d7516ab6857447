// Package dividend implements the Dividend Extraction Engine (DEE).
// It locates dividend-history tables in third-party HTML pages, normalizes
// their heterogeneous date and currency formats, and aggregates the payments
// that fall inside an accounting window into a cash total plus a
// cash-weighted franking percentage.
package dividend

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT EVENTS - One scraped dividend/distribution record
// =============================================================================

// PaymentEvent is a single dividend or distribution payment.
// CashAmount is per unit in the base currency unit (dollars, not cents).
// A row that fails to yield both a valid ex-date and a valid amount is
// discarded whole, never partially recorded.
type PaymentEvent struct {
	ExDate          time.Time       `json:"ex_date"`
	CashAmount      decimal.Decimal `json:"cash_amount"`
	FrankingPercent decimal.Decimal `json:"franking_percent"` // 0-100, defaults to 0
}

// =============================================================================
// FISCAL WINDOW - Inclusive accounting-period bounds
// =============================================================================

// FiscalWindow is one accounting period with inclusive bounds.
type FiscalWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether d falls inside the window, bounds included.
func (w FiscalWindow) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// =============================================================================
// COLUMN MAP - Resolved semantic column positions
// =============================================================================

// ColumnMap holds the resolved cell index for each semantic field of a
// dividend table. Franking is -1 when the table carries no franking column
// (all rows then default to 0%). DistType is -1 when the table has no
// distribution-type column; when present it anchors the ragged-row shift
// correction in ExtractRows.
type ColumnMap struct {
	ExDate   int `json:"ex_date_index"`
	Amount   int `json:"amount_index"`
	Franking int `json:"franking_index"`
	DistType int `json:"dist_type_index"`
}

// =============================================================================
// AGGREGATE RESULT - Windowed reduction of payment events
// =============================================================================

// AggregateResult is the reduction of all in-window payment events.
// NoData is set when the total cash would be exactly zero: no qualifying
// events is indistinguishable from "nothing paid" and is a first-class
// outcome, not an error.
type AggregateResult struct {
	TotalCash        decimal.Decimal `json:"total_cash"`
	WeightedFranking decimal.Decimal `json:"weighted_franking_percent"`
	NoData           bool            `json:"no_data"`
}

// =============================================================================
// SOURCE RESULT - Per-source outcome for the orchestrator
// =============================================================================

// SourceStatus tags the outcome of one source attempt.
type SourceStatus string

const (
	SourceSuccess     SourceStatus = "SUCCESS"
	SourceEmpty       SourceStatus = "EMPTY"
	SourceUnreachable SourceStatus = "UNREACHABLE"
)

// SourceResult is the outcome of one source attempt. Err carries the
// transport failure for Unreachable results, for diagnostics only.
type SourceResult struct {
	Status    SourceStatus
	Aggregate AggregateResult
	Err       error
}

// Adapter wraps one external data source's query construction, pagination,
// table location, extraction and aggregation into a single attempt.
type Adapter interface {
	Name() string
	Try(ctx context.Context, code string, window FiscalWindow, trace *Trace) SourceResult
}

// =============================================================================
// DOCUMENTS & FETCHING - Already-downloaded markup plus its address
// =============================================================================

// Document is one fetched HTML page together with the address it was fetched
// from. The address is needed to resolve relative pagination links.
type Document struct {
	URL  *url.URL
	HTML string
}

// Fetcher retrieves a document by URL. Implementations own all network I/O;
// the engine itself never dials out.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Document, error)
}

// =============================================================================
// DEBUG TRACE - Read-only diagnostic side channel
// =============================================================================

// RowTrace records the raw and parsed value of every field of one visited
// table row. It is diagnostic output only and never influences the
// aggregate's numeric result.
type RowTrace struct {
	Source     string          `json:"source"`
	DateText   string          `json:"date_text"`
	Date       time.Time       `json:"-"`
	DateParsed string          `json:"date_parsed,omitempty"` // "2006-01-02", empty on parse failure
	AmountText string          `json:"amount_text"`
	AmountOK   bool            `json:"amount_ok"`
	Amount     decimal.Decimal `json:"amount"`
	Franking   decimal.Decimal `json:"franking_percent"`
	InWindow   bool            `json:"in_window"`
}

// Trace collects row traces for one query. A nil *Trace is valid and
// discards everything, so the pipeline never branches on the debug flag.
type Trace struct {
	QueryID string     `json:"query_id"`
	Rows    []RowTrace `json:"rows"`
}

// NewTrace creates a trace with a fresh query ID.
func NewTrace() *Trace {
	return &Trace{QueryID: uuid.New().String()}
}

// Add appends one row trace. Safe on a nil receiver.
func (t *Trace) Add(rt RowTrace) {
	if t == nil {
		return
	}
	t.Rows = append(t.Rows, rt)
}

// =============================================================================
// SYMBOL NORMALIZATION
// =============================================================================

// marketSuffix is appended to bare local codes to form a fully-qualified
// market symbol.
const marketSuffix = ".AX"

// NormalizeSymbol upgrades a free-form ticker to a fully-qualified market
// symbol: "vhy" -> "VHY.AX", "vhy.ax" -> "VHY.AX".
func NormalizeSymbol(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return s
	}
	if !strings.Contains(s, ".") {
		s += marketSuffix
	}
	return s
}

// BaseCode strips the market suffix from a symbol: "VHY.AX" -> "VHY".
func BaseCode(symbol string) string {
	if i := strings.IndexByte(symbol, '.'); i >= 0 {
		return symbol[:i]
	}
	return symbol
}
