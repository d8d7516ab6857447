package dividend

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// stubAdapter returns a canned result and records whether it was tried.
type stubAdapter struct {
	name   string
	result SourceResult
	tried  bool
	panics bool
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Try(context.Context, string, FiscalWindow, *Trace) SourceResult {
	s.tried = true
	if s.panics {
		panic("scraper blew up")
	}
	return s.result
}

func success(total float64) SourceResult {
	return SourceResult{Status: SourceSuccess, Aggregate: AggregateResult{TotalCash: dec(total), WeightedFranking: dec(50)}}
}

func TestOrchestratorFallthrough(t *testing.T) {
	ctx := context.Background()

	t.Run("unreachable falls through to next source", func(t *testing.T) {
		a := &stubAdapter{name: "a", result: SourceResult{Status: SourceUnreachable, Err: errors.New("timeout")}}
		b := &stubAdapter{name: "b", result: success(1.5)}

		got, src := NewOrchestrator(a, b).Resolve(ctx, "VHY", testWindow, nil)
		if !a.tried || !b.tried {
			t.Fatal("both sources must be tried")
		}
		if got.NoData || got.TotalCash.String() != "1.5" {
			t.Errorf("got %+v, want source b's aggregate", got)
		}
		if src != b {
			t.Error("answering adapter must be source b")
		}
	})

	t.Run("empty falls through, success wins", func(t *testing.T) {
		a := &stubAdapter{name: "a", result: SourceResult{Status: SourceEmpty}}
		b := &stubAdapter{name: "b", result: success(2)}

		got, _ := NewOrchestrator(a, b).Resolve(ctx, "VHY", testWindow, nil)
		if got.NoData || got.TotalCash.String() != "2" {
			t.Errorf("got %+v, want source b's aggregate", got)
		}
	})

	t.Run("success short-circuits", func(t *testing.T) {
		a := &stubAdapter{name: "a", result: success(1)}
		b := &stubAdapter{name: "b", result: success(2)}

		got, src := NewOrchestrator(a, b).Resolve(ctx, "VHY", testWindow, nil)
		if got.TotalCash.String() != "1" {
			t.Errorf("got %+v, want source a's aggregate", got)
		}
		if src != a {
			t.Error("answering adapter must be source a")
		}
		if b.tried {
			t.Error("source b must not be tried after a success")
		}
	})

	t.Run("exhaustion yields NoData", func(t *testing.T) {
		a := &stubAdapter{name: "a", result: SourceResult{Status: SourceUnreachable, Err: errors.New("503")}}
		b := &stubAdapter{name: "b", result: SourceResult{Status: SourceEmpty}}

		got, src := NewOrchestrator(a, b).Resolve(ctx, "VHY", testWindow, nil)
		if !got.NoData {
			t.Errorf("got %+v, want NoData", got)
		}
		if src != nil {
			t.Error("no adapter can answer an exhausted query")
		}
	})

	t.Run("panicking source is downgraded to unreachable", func(t *testing.T) {
		a := &stubAdapter{name: "a", panics: true}
		b := &stubAdapter{name: "b", result: success(3)}

		got, _ := NewOrchestrator(a, b).Resolve(ctx, "VHY", testWindow, nil)
		if got.NoData || got.TotalCash.String() != "3" {
			t.Errorf("got %+v, want source b's aggregate after panic fallthrough", got)
		}
	})

	t.Run("no sources", func(t *testing.T) {
		got, _ := NewOrchestrator().Resolve(ctx, "VHY", testWindow, nil)
		if !got.NoData {
			t.Errorf("got %+v, want NoData", got)
		}
	})
}

func TestSourceTry(t *testing.T) {
	window := FiscalWindow{Start: date(2024, time.July, 1), End: date(2025, time.June, 30)}
	cfg := SourceConfig{
		Name:        "fake",
		URLTemplate: "https://example.com/asx/%s",
		Headers:     testSpec,
		Pagination:  PaginateNextLink,
	}

	t.Run("paginated extraction end to end", func(t *testing.T) {
		f := &fakeFetcher{pages: map[string]string{
			"https://example.com/asx/vhy": divTable(`<tr><td>01 Jul 2024</td><td>$1.00</td><td>100%</td></tr>`) +
				`<li class="next"><a href="/asx/vhy?page=2">next</a></li>`,
			"https://example.com/asx/vhy?page=2": divTable(`<tr><td>15 Dec 2024</td><td>50¢</td><td>0%</td></tr>`),
		}}

		trace := NewTrace()
		res := NewSource(cfg, f).Try(context.Background(), "VHY.AX", window, trace)
		if res.Status != SourceSuccess {
			t.Fatalf("status = %s (%v), want success", res.Status, res.Err)
		}
		if res.Aggregate.TotalCash.String() != "1.5" {
			t.Errorf("TotalCash = %s, want 1.5", res.Aggregate.TotalCash)
		}
		if res.Aggregate.WeightedFranking.String() != "66.67" {
			t.Errorf("WeightedFranking = %s, want 66.67", res.Aggregate.WeightedFranking)
		}
		if len(trace.Rows) != 2 {
			t.Fatalf("trace rows = %d, want 2", len(trace.Rows))
		}
		for _, rt := range trace.Rows {
			if rt.Source != "fake" {
				t.Errorf("trace source = %q, want fake", rt.Source)
			}
			if !rt.InWindow {
				t.Errorf("trace row %+v not marked in window", rt)
			}
		}
	})

	t.Run("unreachable site", func(t *testing.T) {
		f := &fakeFetcher{pages: map[string]string{}}
		res := NewSource(cfg, f).Try(context.Background(), "VHY", window, nil)
		if res.Status != SourceUnreachable {
			t.Fatalf("status = %s, want unreachable", res.Status)
		}
		if res.Err == nil {
			t.Error("unreachable result must carry the transport error")
		}
	})

	t.Run("page without dividend table is empty", func(t *testing.T) {
		f := &fakeFetcher{pages: map[string]string{
			"https://example.com/asx/vhy": `<table><tr><th>Open</th><th>Close</th></tr></table>`,
		}}
		res := NewSource(cfg, f).Try(context.Background(), "VHY", window, nil)
		if res.Status != SourceEmpty {
			t.Fatalf("status = %s, want empty", res.Status)
		}
	})

	t.Run("events outside window are empty", func(t *testing.T) {
		f := &fakeFetcher{pages: map[string]string{
			"https://example.com/asx/vhy": divTable(`<tr><td>01 Jul 2019</td><td>$1.00</td><td>100%</td></tr>`),
		}}
		res := NewSource(cfg, f).Try(context.Background(), "VHY", window, nil)
		if res.Status != SourceEmpty {
			t.Fatalf("status = %s, want empty", res.Status)
		}
	})

	t.Run("cancelled context never surfaces a partial aggregate", func(t *testing.T) {
		f := &fakeFetcher{pages: map[string]string{
			"https://example.com/asx/vhy": divTable(`<tr><td>01 Jul 2024</td><td>$1.00</td><td>100%</td></tr>`),
		}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := NewSource(cfg, f).Try(ctx, "VHY", window, nil)
		if res.Status == SourceSuccess {
			t.Fatal("cancelled query must not succeed")
		}
	})
}

func TestLoadSourceConfigs(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sources.hjson"
	body := `{
  // comments are fine in hjson
  sources: [
    {
      name: marketindex
      url_template: "https://www.marketindex.com.au/asx/%s"
      pagination: none
      headers: {
        ex_date: ["ex date", "ex"]
        amount: ["amount"]
        franking: ["franking"]
        require_franking: true
      }
    }
  ]
}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	configs, err := LoadSourceConfigs(path)
	if err != nil {
		t.Fatalf("LoadSourceConfigs: %v", err)
	}
	if len(configs) != 1 || configs[0].Name != "marketindex" {
		t.Fatalf("configs = %+v", configs)
	}
	if !configs[0].Headers.RequireFranking {
		t.Error("require_franking not parsed")
	}

	if _, err := LoadSourceConfigs(dir + "/missing.hjson"); err == nil {
		t.Error("want error for a missing file")
	}
}
