package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, KeyActiveBrands, []string{"BrandX", "BrandY"}, time.Hour))

	var got []string
	require.NoError(t, c.Get(ctx, KeyActiveBrands, &got))
	assert.Equal(t, []string{"BrandX", "BrandY"}, got)

	require.NoError(t, c.Delete(ctx, KeyActiveBrands))
	assert.ErrorIs(t, c.Get(ctx, KeyActiveBrands, &got), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, KeyDashboardSummary, 42, TTLDashboardSummary))

	var n int
	require.NoError(t, c.Get(ctx, KeyDashboardSummary, &n))
	assert.Equal(t, 42, n)

	now = now.Add(TTLDashboardSummary)
	assert.ErrorIs(t, c.Get(ctx, KeyDashboardSummary, &n), ErrCacheMiss)
}

func TestInventoryKeysCoverEveryDependentListing(t *testing.T) {
	keys := InventoryKeys("  Tire A ")
	assert.ElementsMatch(t, []string{KeyInventoryItems, "api_inv_brands_tire a", KeyDashboardSummary}, keys)
}

func TestInvalidateRemovesAllKeys(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	for _, k := range InventoryKeys("Tire A") {
		require.NoError(t, c.Set(ctx, k, "v", time.Minute))
	}

	Invalidate(ctx, c, InventoryKeys("Tire A")...)

	var s string
	for _, k := range InventoryKeys("Tire A") {
		assert.ErrorIs(t, c.Get(ctx, k, &s), ErrCacheMiss, k)
	}
}
