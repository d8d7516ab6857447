package store

import (
	"context"
	"log"
	"time"

	"stockproxy/pkg/core/dividend"
)

// CacheSource exposes the franking cache as one more orchestrator tier, the
// last in priority order: a stale-but-recent aggregate beats no answer when
// every live source is down.
type CacheSource struct {
	cache  *FrankingCache
	maxAge time.Duration
}

// NewCacheSource wraps a cache as a source adapter. Entries older than
// maxAge are ignored; zero maxAge accepts any entry.
func NewCacheSource(cache *FrankingCache, maxAge time.Duration) *CacheSource {
	return &CacheSource{cache: cache, maxAge: maxAge}
}

// Name implements dividend.Adapter.
func (s *CacheSource) Name() string { return "franking-cache" }

// Try implements dividend.Adapter. The window is ignored: the cache stores
// a pre-aggregated result, not individual events.
func (s *CacheSource) Try(ctx context.Context, code string, _ dividend.FiscalWindow, _ *dividend.Trace) dividend.SourceResult {
	entry, err := s.cache.Get(ctx, dividend.BaseCode(code))
	if err != nil {
		return dividend.SourceResult{Status: dividend.SourceUnreachable, Err: err}
	}
	if entry == nil || entry.Dividend.IsZero() {
		return dividend.SourceResult{Status: dividend.SourceEmpty}
	}
	if s.maxAge > 0 && time.Since(entry.UpdatedAt) > s.maxAge {
		log.Printf("[CacheSource] entry for %s is stale (%s old), skipping", entry.Code, time.Since(entry.UpdatedAt).Round(time.Hour))
		return dividend.SourceResult{Status: dividend.SourceEmpty}
	}

	return dividend.SourceResult{
		Status: dividend.SourceSuccess,
		Aggregate: dividend.AggregateResult{
			TotalCash:        entry.Dividend,
			WeightedFranking: entry.Franking,
		},
	}
}
