package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Entry is one cached per-ticker aggregate: trailing cash dividend and
// weighted franking percent, with the time it was scraped.
type Entry struct {
	Code      string          `json:"code"`
	Dividend  decimal.Decimal `json:"dividend12"`
	Franking  decimal.Decimal `json:"franking"`
	UpdatedAt time.Time       `json:"timestamp"`
}

// FrankingCache stores last-known aggregates. DB (primary) with a file
// fallback for local runs: when pool is nil everything goes through a
// single JSON file.
type FrankingCache struct {
	pool     *pgxpool.Pool
	filePath string
	mu       sync.Mutex // guards the file
}

// NewFrankingCache creates a cache. If pool is nil and path is empty, the
// file defaults to .cache/franking_cache.json.
func NewFrankingCache(pool *pgxpool.Pool, path string) *FrankingCache {
	if pool == nil && path == "" {
		path = filepath.Join(".cache", "franking_cache.json")
	}
	if path != "" {
		os.MkdirAll(filepath.Dir(path), 0755)
	}
	return &FrankingCache{pool: pool, filePath: path}
}

// Get retrieves the cached entry for a bare ticker code; nil when the code
// has never been cached.
func (c *FrankingCache) Get(ctx context.Context, code string) (*Entry, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	if c.pool != nil {
		var dividend, franking string
		var updatedAt time.Time
		err := c.pool.QueryRow(ctx,
			`SELECT dividend::text, franking::text, updated_at FROM franking_cache WHERE code = $1`,
			code,
		).Scan(&dividend, &franking, &updatedAt)
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("franking cache lookup for %s: %w", code, err)
		}
		d, err := decimal.NewFromString(dividend)
		if err != nil {
			return nil, fmt.Errorf("franking cache dividend for %s: %w", code, err)
		}
		f, err := decimal.NewFromString(franking)
		if err != nil {
			return nil, fmt.Errorf("franking cache franking for %s: %w", code, err)
		}
		return &Entry{Code: code, Dividend: d, Franking: f, UpdatedAt: updatedAt}, nil
	}

	entries, err := c.loadFile()
	if err != nil {
		return nil, err
	}
	entry, ok := entries[code]
	if !ok {
		return nil, nil
	}
	entry.Code = code
	return &entry, nil
}

// Put stores an entry, overwriting any previous value for the code.
func (c *FrankingCache) Put(ctx context.Context, entry Entry) error {
	entry.Code = strings.ToUpper(strings.TrimSpace(entry.Code))
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}

	if c.pool != nil {
		_, err := c.pool.Exec(ctx, `
			INSERT INTO franking_cache (code, dividend, franking, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (code) DO UPDATE
			SET dividend = EXCLUDED.dividend,
			    franking = EXCLUDED.franking,
			    updated_at = EXCLUDED.updated_at
		`, entry.Code, entry.Dividend.String(), entry.Franking.String(), entry.UpdatedAt)
		if err != nil {
			return fmt.Errorf("franking cache upsert for %s: %w", entry.Code, err)
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := c.loadFileLocked()
	if err != nil {
		return err
	}
	entries[entry.Code] = entry
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.filePath, data, 0644); err != nil {
		return fmt.Errorf("write franking cache: %w", err)
	}
	return nil
}

func (c *FrankingCache) loadFile() (map[string]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadFileLocked()
}

func (c *FrankingCache) loadFileLocked() (map[string]Entry, error) {
	entries := map[string]Entry{}
	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read franking cache: %w", err)
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse franking cache %s: %w", c.filePath, err)
	}
	return entries, nil
}
