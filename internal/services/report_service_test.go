package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos_tracker_backend/internal/cache"
	"pos_tracker_backend/internal/models"
)

func TestDashboardSummaryIsCached(t *testing.T) {
	repo := &fakeReportRepo{summary: models.DashboardSummary{TotalCustomers: 12, ActiveOrders: 3}}
	c := cache.NewMemoryCache()
	svc := NewReportService(repo, c).(*reportService)
	now := time.Date(2026, 10, 19, 15, 42, 7, 0, time.Local)
	svc.now = func() time.Time { return now }

	first, err := svc.GetDashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, first.TotalCustomers)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.Local), repo.dayStart)

	second, err := svc.GetDashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, second.ActiveOrders)
	assert.Equal(t, 1, repo.calls)

	cache.Invalidate(context.Background(), c, cache.InventoryKeys("Tire A")...)
	_, err = svc.GetDashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}
