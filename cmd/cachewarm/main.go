package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"stockproxy/pkg/core/dividend"
	"stockproxy/pkg/core/ingest"
	"stockproxy/pkg/core/store"
)

// cachewarm scrapes a configured ticker list and persists each aggregate to
// the franking cache, so the API's fallback tier has fresh answers when the
// live sources are down. Intended to run from cron.

type warmConfig struct {
	Window      string   `yaml:"window"`
	WarmTickers []string `yaml:"warm_tickers"`
}

func main() {
	godotenv.Load()

	cfg := warmConfig{Window: string(dividend.WindowRolling365)}
	data, err := os.ReadFile("config/config.yaml")
	if err != nil {
		log.Fatalf("[Warm] read config: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("[Warm] parse config: %v", err)
	}
	if len(cfg.WarmTickers) == 0 {
		log.Fatal("[Warm] no warm_tickers configured")
	}

	ctx := context.Background()
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			log.Printf("[Warm] db init failed (%v), falling back to file cache", err)
		} else {
			defer store.Close()
		}
	}
	cache := store.NewFrankingCache(store.GetPool(), "")

	orch := dividend.NewOrchestrator(dividend.DefaultSources(ingest.NewClient(0))...)
	window := dividend.WindowFor(dividend.WindowKind(cfg.Window), time.Now().UTC())

	warmed, failed := 0, 0
	for _, ticker := range cfg.WarmTickers {
		code := dividend.BaseCode(dividend.NormalizeSymbol(ticker))

		runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		agg, _ := orch.Resolve(runCtx, code, window, nil)
		cancel()

		if agg.NoData {
			log.Printf("[Warm] %s: no data, leaving cache untouched", code)
			failed++
			continue
		}
		err := cache.Put(ctx, store.Entry{
			Code:     code,
			Dividend: agg.TotalCash,
			Franking: agg.WeightedFranking,
		})
		if err != nil {
			log.Printf("[Warm] %s: cache write failed: %v", code, err)
			failed++
			continue
		}
		log.Printf("[Warm] %s: dividend=%s franking=%s%%", code, agg.TotalCash, agg.WeightedFranking)
		warmed++
	}

	log.Printf("[Warm] done: %d warmed, %d failed", warmed, failed)
	if warmed == 0 {
		os.Exit(1)
	}
}
