package dividend

import "github.com/shopspring/decimal"

// =============================================================================
// EVENT AGGREGATOR - Windowed reduction to (total cash, weighted franking)
// =============================================================================

// Aggregate filters events to the window (inclusive both ends) and reduces
// them to a cash total and a cash-weighted franking percentage. The weight
// is each event's cash amount, so a larger payment influences the percentage
// proportionally more; this is not an arithmetic mean across events.
//
// A zero total yields NoData: the literal sum of zero filtered events, a
// business rule rather than a float-tolerance comparison.
func Aggregate(events []PaymentEvent, window FiscalWindow) AggregateResult {
	total := decimal.Zero
	frankedCash := decimal.Zero

	for _, ev := range events {
		if !window.Contains(ev.ExDate) {
			continue
		}
		total = total.Add(ev.CashAmount)
		frankedCash = frankedCash.Add(ev.CashAmount.Mul(ev.FrankingPercent).Div(oneHundred))
	}

	if total.IsZero() {
		return AggregateResult{NoData: true}
	}

	return AggregateResult{
		// Round away spurious precision from accumulation.
		TotalCash:        total.Round(6),
		WeightedFranking: frankedCash.Div(total).Mul(oneHundred).Round(2),
	}
}

// MarkWindow fills the in-window flag on traced rows whose date parsed.
// Trace data is a read-only side channel; this never feeds back into the
// aggregate.
func MarkWindow(traces []RowTrace, window FiscalWindow) {
	for i := range traces {
		if traces[i].DateParsed != "" {
			traces[i].InWindow = window.Contains(traces[i].Date)
		}
	}
}
