package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"pos_tracker_backend/pkg/utils"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores JSON-encoded values under string keys with a TTL.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Keys used across the service. Every inventory mutation must invalidate the
// keys returned by InventoryKeys.
const (
	KeyInventoryItems   = "api_inv_items_v2"
	KeyActiveBrands     = "active_brands_list"
	KeyDashboardSummary = "dashboard_summary"

	inventoryBrandsPrefix = "api_inv_brands_"
)

const (
	TTLInventoryItems   = 5 * time.Minute
	TTLInventoryBrands  = 2 * time.Minute
	TTLActiveBrands     = time.Hour
	TTLDashboardSummary = time.Minute
)

// InventoryBrandsKey is the key of the brand list cached for one item name.
func InventoryBrandsKey(itemName string) string {
	return inventoryBrandsPrefix + strings.ToLower(strings.TrimSpace(itemName))
}

// InventoryKeys lists every key a stock change for itemName can make stale.
func InventoryKeys(itemName string) []string {
	return []string{KeyInventoryItems, InventoryBrandsKey(itemName), KeyDashboardSummary}
}

// BrandKeys lists the keys a brand create/delete can make stale.
func BrandKeys() []string {
	return []string{KeyActiveBrands, KeyInventoryItems, KeyDashboardSummary}
}

// Invalidate deletes keys, logging instead of returning a failure.
func Invalidate(ctx context.Context, c Cache, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		utils.LogWarn(err, "Cache invalidation failed", map[string]interface{}{"keys": keys})
	}
}
