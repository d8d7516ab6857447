package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"stockproxy/pkg/core/dividend"
)

func fileCache(t *testing.T) *FrankingCache {
	t.Helper()
	return NewFrankingCache(nil, filepath.Join(t.TempDir(), "franking_cache.json"))
}

func TestFrankingCacheFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := fileCache(t)

	got, err := cache.Get(ctx, "VHY")
	require.NoError(t, err)
	require.Nil(t, got, "empty cache must miss, not error")

	entry := Entry{
		Code:     "vhy",
		Dividend: decimal.RequireFromString("3.4567"),
		Franking: decimal.RequireFromString("72.5"),
	}
	require.NoError(t, cache.Put(ctx, entry))

	got, err = cache.Get(ctx, "VHY")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "VHY", got.Code, "codes are stored upper-cased")
	require.True(t, got.Dividend.Equal(entry.Dividend))
	require.True(t, got.Franking.Equal(entry.Franking))
	require.False(t, got.UpdatedAt.IsZero())

	// Overwrite wins.
	entry.Franking = decimal.RequireFromString("80")
	require.NoError(t, cache.Put(ctx, entry))
	got, err = cache.Get(ctx, "vhy")
	require.NoError(t, err)
	require.True(t, got.Franking.Equal(decimal.RequireFromString("80")))
}

func TestCacheSource(t *testing.T) {
	ctx := context.Background()
	window := dividend.Rolling365(time.Now().UTC())

	t.Run("miss is empty", func(t *testing.T) {
		src := NewCacheSource(fileCache(t), 0)
		res := src.Try(ctx, "VHY.AX", window, nil)
		require.Equal(t, dividend.SourceEmpty, res.Status)
	})

	t.Run("hit succeeds with cached aggregate", func(t *testing.T) {
		cache := fileCache(t)
		require.NoError(t, cache.Put(ctx, Entry{
			Code:     "VHY",
			Dividend: decimal.RequireFromString("3.21"),
			Franking: decimal.RequireFromString("70"),
		}))

		src := NewCacheSource(cache, 48*time.Hour)
		res := src.Try(ctx, "VHY.AX", window, nil)
		require.Equal(t, dividend.SourceSuccess, res.Status)
		require.True(t, res.Aggregate.TotalCash.Equal(decimal.RequireFromString("3.21")))
		require.True(t, res.Aggregate.WeightedFranking.Equal(decimal.RequireFromString("70")))
	})

	t.Run("stale entry is empty", func(t *testing.T) {
		cache := fileCache(t)
		require.NoError(t, cache.Put(ctx, Entry{
			Code:      "VHY",
			Dividend:  decimal.RequireFromString("3.21"),
			Franking:  decimal.RequireFromString("70"),
			UpdatedAt: time.Now().UTC().Add(-30 * 24 * time.Hour),
		}))

		src := NewCacheSource(cache, 48*time.Hour)
		res := src.Try(ctx, "VHY", window, nil)
		require.Equal(t, dividend.SourceEmpty, res.Status)
	})

	t.Run("zero dividend entry is empty", func(t *testing.T) {
		cache := fileCache(t)
		require.NoError(t, cache.Put(ctx, Entry{Code: "VHY"}))

		src := NewCacheSource(cache, 0)
		res := src.Try(ctx, "VHY", window, nil)
		require.Equal(t, dividend.SourceEmpty, res.Status)
	})
}
