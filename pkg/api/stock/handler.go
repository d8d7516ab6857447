// Package stock exposes the dividend engine and price lookup over HTTP.
package stock

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"stockproxy/pkg/core/dividend"
	"stockproxy/pkg/core/store"
)

// PriceSource yields the last traded price for a fully-qualified symbol.
// quote.Client satisfies it.
type PriceSource interface {
	LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Handler serves /stock: symbol normalization, last price, and the windowed
// dividend aggregate, with a short-lived result cache in front.
type Handler struct {
	orch       *dividend.Orchestrator
	quotes     PriceSource
	franking   *store.FrankingCache // write-through on live success; may be nil
	results    *gocache.Cache
	windowKind dividend.WindowKind
}

// NewHandler wires the handler. resultTTL bounds how long an identical query
// is answered from memory; zero disables the cache.
func NewHandler(orch *dividend.Orchestrator, quotes PriceSource, franking *store.FrankingCache, windowKind dividend.WindowKind, resultTTL time.Duration) *Handler {
	var results *gocache.Cache
	if resultTTL > 0 {
		results = gocache.New(resultTTL, 2*resultTTL)
	}
	return &Handler{
		orch:       orch,
		quotes:     quotes,
		franking:   franking,
		results:    results,
		windowKind: windowKind,
	}
}

// Response is the wire shape. Dividend12 and Franking are null together
// exactly when the orchestrator found no data.
type Response struct {
	Symbol     string              `json:"symbol"`
	Price      float64             `json:"price"`
	Dividend12 *float64            `json:"dividend12"`
	Franking   *float64            `json:"franking"`
	Trace      []dividend.RowTrace `json:"trace,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleStock answers GET /stock?symbol=CODE[&debug=1].
func (h *Handler) HandleStock(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbol")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No symbol provided"})
		return
	}
	symbol := dividend.NormalizeSymbol(raw)
	debug := r.URL.Query().Get("debug") != ""

	// The debug side channel bypasses the result cache so every stage runs.
	if !debug && h.results != nil {
		if cached, found := h.results.Get(symbol); found {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	ctx := r.Context()

	price, err := h.quotes.LastPrice(ctx, symbol)
	if err != nil {
		log.Printf("[Stock] price fetch failed for %s: %v", symbol, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Price fetch failed: " + err.Error()})
		return
	}

	var trace *dividend.Trace
	if debug {
		trace = dividend.NewTrace()
	}

	window := dividend.WindowFor(h.windowKind, time.Now().UTC())
	agg, src := h.orch.Resolve(ctx, symbol, window, trace)

	resp := Response{Symbol: symbol, Price: price.InexactFloat64()}
	if !agg.NoData {
		d := agg.TotalCash.InexactFloat64()
		f := agg.WeightedFranking.InexactFloat64()
		resp.Dividend12 = &d
		resp.Franking = &f
		// Only a fresh extraction refreshes the store. An answer replayed
		// from the cache tier must not re-stamp the entry, or a stale entry
		// would stay inside its max age for as long as it keeps being
		// queried.
		if _, replayed := src.(*store.CacheSource); !replayed {
			h.writeThrough(ctx, symbol, agg)
		}
	}
	if trace != nil {
		resp.Trace = trace.Rows
	}

	if !debug && h.results != nil {
		h.results.SetDefault(symbol, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeThrough refreshes the last-known cache after a live success, so the
// fallback tier stays warm. Best effort only.
func (h *Handler) writeThrough(ctx context.Context, symbol string, agg dividend.AggregateResult) {
	if h.franking == nil {
		return
	}
	err := h.franking.Put(ctx, store.Entry{
		Code:     dividend.BaseCode(symbol),
		Dividend: agg.TotalCash,
		Franking: agg.WeightedFranking,
	})
	if err != nil {
		log.Printf("[Stock] franking cache write for %s: %v", symbol, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Stock] encode response: %v", err)
	}
}
