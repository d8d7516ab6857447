package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"stockproxy/pkg/api/stock"
	"stockproxy/pkg/core/dividend"
	"stockproxy/pkg/core/ingest"
	"stockproxy/pkg/core/quote"
	"stockproxy/pkg/core/store"
)

// serverConfig is the slice of config.yaml the server reads; the warm job
// parses its own keys from the same file.
type serverConfig struct {
	Port                  int    `yaml:"port"`
	ResultCacheTTLMinutes int    `yaml:"result_cache_ttl_minutes"`
	Window                string `yaml:"window"`
	SourcesFile           string `yaml:"sources_file"`
	CacheMaxAgeHours      int    `yaml:"cache_max_age_hours"`
	FrankingCacheFile     string `yaml:"franking_cache_file"`
}

func defaultConfig() serverConfig {
	return serverConfig{
		Port:                  5000,
		ResultCacheTTLMinutes: 10,
		Window:                string(dividend.WindowRolling365),
		CacheMaxAgeHours:      31 * 24,
	}
}

func loadConfig(path string) serverConfig {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[Config] %s not readable (%v), using defaults", path, err)
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Printf("[Config] %s malformed (%v), using defaults", path, err)
		return defaultConfig()
	}
	return cfg
}

func buildSources(cfg serverConfig, fetcher dividend.Fetcher) []dividend.Adapter {
	if cfg.SourcesFile != "" {
		configs, err := dividend.LoadSourceConfigs(cfg.SourcesFile)
		if err == nil {
			sources := make([]dividend.Adapter, 0, len(configs))
			for _, sc := range configs {
				sources = append(sources, dividend.NewSource(sc, fetcher))
			}
			log.Printf("[Config] loaded %d sources from %s", len(sources), cfg.SourcesFile)
			return sources
		}
		log.Printf("[Config] sources file %s: %v, falling back to built-ins", cfg.SourcesFile, err)
	}
	return dividend.DefaultSources(fetcher)
}

// corsMiddleware mirrors the permissive policy the browser frontend expects.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	// Load environment variables
	godotenv.Load()

	cfg := loadConfig("config/config.yaml")

	// Postgres is optional; without DATABASE_URL the franking cache falls
	// back to a local JSON file.
	ctx := context.Background()
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			log.Printf("[DB] init failed (%v), falling back to file cache", err)
		} else {
			defer store.Close()
		}
	}
	franking := store.NewFrankingCache(store.GetPool(), cfg.FrankingCacheFile)

	fetcher := ingest.NewClient(0)
	quotes := quote.NewClient(0)

	sources := buildSources(cfg, fetcher)
	// The persisted franking cache is the tier of last resort.
	sources = append(sources, store.NewCacheSource(franking, time.Duration(cfg.CacheMaxAgeHours)*time.Hour))
	orch := dividend.NewOrchestrator(sources...)

	handler := stock.NewHandler(
		orch,
		quotes,
		franking,
		dividend.WindowKind(cfg.Window),
		time.Duration(cfg.ResultCacheTTLMinutes)*time.Minute,
	)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "ASX dividend proxy. Try /stock?symbol=VHY")
	})
	r.Get("/stock", handler.HandleStock)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Printf("API server starting on %s...\n", addr)
	fmt.Println("  - GET  /stock?symbol=CODE[&debug=1]")
	fmt.Println("  - GET  /healthz")

	if err := http.ListenAndServe(addr, r); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
