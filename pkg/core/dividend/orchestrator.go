package dividend

import (
	"context"
	"fmt"
	"log"
)

// =============================================================================
// SOURCE ORCHESTRATOR - Prioritized fallthrough across sources
// =============================================================================

// Orchestrator tries a prioritized list of source adapters and returns the
// first non-empty aggregate. Failure of one source never aborts evaluation
// of the remaining sources.
type Orchestrator struct {
	sources []Adapter
}

// NewOrchestrator creates an orchestrator over sources in priority order.
func NewOrchestrator(sources ...Adapter) *Orchestrator {
	return &Orchestrator{sources: sources}
}

// Resolve invokes the sources strictly in priority order, short-circuiting
// on the first Success. Empty and Unreachable both fall through; exhausting
// every source yields NoData. No internal failure escapes this entry point.
// The answering adapter is returned alongside the aggregate so callers can
// tell a fresh extraction from a replayed one; it is nil on NoData.
func (o *Orchestrator) Resolve(ctx context.Context, code string, window FiscalWindow, trace *Trace) (AggregateResult, Adapter) {
	for _, src := range o.sources {
		res := o.tryOne(ctx, src, code, window, trace)
		switch res.Status {
		case SourceSuccess:
			return res.Aggregate, src
		case SourceUnreachable:
			log.Printf("[Orchestrator] source %s unreachable for %s: %v", src.Name(), code, res.Err)
		default:
			log.Printf("[Orchestrator] source %s empty for %s", src.Name(), code)
		}
	}
	return AggregateResult{NoData: true}, nil
}

// tryOne runs a single adapter, downgrading panics to Unreachable so one
// broken source cannot take down the query.
func (o *Orchestrator) tryOne(ctx context.Context, src Adapter, code string, window FiscalWindow, trace *Trace) (res SourceResult) {
	defer func() {
		if r := recover(); r != nil {
			res = SourceResult{Status: SourceUnreachable, Err: fmt.Errorf("source %s panicked: %v", src.Name(), r)}
		}
	}()
	return src.Try(ctx, code, window, trace)
}
