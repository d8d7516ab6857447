package dividend

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// =============================================================================
// TABLE LOCATOR & COLUMN RESOLVER - Heuristic dividend-table discovery
// =============================================================================

// HeaderSpec lists the candidate header-name fragments for each semantic
// field, in priority order. An earlier candidate always wins over a later
// one, even if the later one would have produced an exact match elsewhere.
type HeaderSpec struct {
	ExDate   []string `json:"ex_date"`
	Amount   []string `json:"amount"`
	Franking []string `json:"franking"`
	DistType []string `json:"dist_type"`

	// RequireFranking rejects tables without a franking column. Sources
	// whose pages mix dividend tables with price tables use this to avoid
	// false positives.
	RequireFranking bool `json:"require_franking"`
}

// DividendTable is one located dividend-history table with its resolved
// column map.
type DividendTable struct {
	sel         *goquery.Selection
	Columns     ColumnMap
	headerWidth int
}

// LocateTable scans every table in the document and returns the first, in
// document order, whose headers resolve the required columns. Returns nil
// when no table qualifies; a normal outcome, not an error.
func LocateTable(doc *goquery.Document, spec HeaderSpec) *DividendTable {
	var found *DividendTable
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		headers := headerCells(table)
		if len(headers) == 0 {
			return true
		}
		cm, ok := ResolveColumns(headers, spec)
		if !ok {
			return true
		}
		found = &DividendTable{sel: table, Columns: cm, headerWidth: len(headers)}
		return false
	})
	return found
}

// headerCells returns the trimmed text of the table's header row: the thead
// cells when present, otherwise the first row.
func headerCells(table *goquery.Selection) []string {
	cells := table.Find("thead th, thead td")
	if cells.Length() == 0 {
		cells = table.Find("tr").First().Find("th, td")
	}
	var headers []string
	cells.Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, cleanToken(cell.Text()))
	})
	return headers
}

// ResolveColumns maps semantic fields to column positions. Ex-date and
// amount are required; a table failing either is not the dividend table
// after all. Franking and distribution-type are optional (-1 when absent),
// unless the spec requires franking.
func ResolveColumns(headers []string, spec HeaderSpec) (ColumnMap, bool) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	cm := ColumnMap{
		ExDate:   findColumn(normalized, spec.ExDate),
		Amount:   findColumn(normalized, spec.Amount),
		Franking: findColumn(normalized, spec.Franking),
		DistType: findColumn(normalized, spec.DistType),
	}
	if cm.ExDate < 0 || cm.Amount < 0 {
		return ColumnMap{}, false
	}
	if spec.RequireFranking && cm.Franking < 0 {
		return ColumnMap{}, false
	}
	return cm, true
}

// findColumn returns the position of the first header matching a candidate
// fragment. Matching is two-tier per candidate: an exact trimmed match is
// preferred over a substring match, and candidates are evaluated strictly in
// priority order so matching behavior stays independently testable.
func findColumn(headers []string, candidates []string) int {
	for _, cand := range candidates {
		for i, h := range headers {
			if h == cand {
				return i
			}
		}
		for i, h := range headers {
			if strings.Contains(h, cand) {
				return i
			}
		}
	}
	return -1
}

// =============================================================================
// ROW EXTRACTOR - Candidate payment events from data rows
// =============================================================================

// ExtractRows walks the table's data rows and returns one PaymentEvent per
// row that yields both a valid ex-date and a valid amount. Franking defaults
// to 0 on parse failure or absence. Ragged rows (fewer cells than the
// highest resolved index requires) are skipped, never an error.
//
// Rows wider than the header carry an extra descriptive cell inserted after
// the distribution-type column; every resolved index strictly after that
// column is advanced by the width difference before lookup. The correction
// is required for correctness on those sources, not optional hardening.
//
// The returned traces record every visited row, parsed or not.
func (t *DividendTable) ExtractRows() ([]PaymentEvent, []RowTrace) {
	// Without a thead the header row is the first tr and may live inside
	// tbody, so slice it off positionally.
	rows := t.sel.Find("tbody tr")
	if t.sel.Find("thead").Length() == 0 || rows.Length() == 0 {
		rows = t.sel.Find("tr").Slice(1, goquery.ToEnd)
	}

	var events []PaymentEvent
	var traces []RowTrace

	rows.Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cleanToken(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}

		cm := t.Columns
		if diff := len(cells) - t.headerWidth; diff > 0 && cm.DistType >= 0 {
			cm = shiftColumns(cm, cm.DistType, diff)
		}

		need := cm.ExDate
		if cm.Amount > need {
			need = cm.Amount
		}
		if cm.Franking > need {
			need = cm.Franking
		}
		if len(cells) <= need {
			// Ragged or merged-cell row.
			traces = append(traces, RowTrace{DateText: cells[0]})
			return
		}

		rt := RowTrace{
			DateText:   cells[cm.ExDate],
			AmountText: cells[cm.Amount],
		}

		exDate, dateOK := ParseExDate(cells[cm.ExDate])
		if dateOK {
			rt.Date = exDate
			rt.DateParsed = exDate.Format("2006-01-02")
		}
		amount, amountOK := ParseAmount(cells[cm.Amount])
		rt.AmountOK = amountOK
		if amountOK {
			rt.Amount = amount
		}

		franking := decimal.Zero
		if cm.Franking >= 0 {
			if pct, ok := ParsePercent(cells[cm.Franking]); ok {
				franking = pct
			}
		}
		rt.Franking = franking
		traces = append(traces, rt)

		if !dateOK || !amountOK {
			return
		}
		events = append(events, PaymentEvent{
			ExDate:          exDate,
			CashAmount:      amount,
			FrankingPercent: franking,
		})
	})

	return events, traces
}

// shiftColumns advances every resolved index strictly after the anchor
// column by diff.
func shiftColumns(cm ColumnMap, anchor, diff int) ColumnMap {
	if cm.ExDate > anchor {
		cm.ExDate += diff
	}
	if cm.Amount > anchor {
		cm.Amount += diff
	}
	if cm.Franking > anchor {
		cm.Franking += diff
	}
	return cm
}
