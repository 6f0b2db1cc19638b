package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos_tracker_backend/internal/cache"
	"pos_tracker_backend/internal/models"
	"pos_tracker_backend/internal/repositories"
	"pos_tracker_backend/pkg/utils"
)

type ReportService interface {
	GetDashboardSummary(ctx context.Context) (*models.DashboardSummary, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
	cache      cache.Cache
	now        func() time.Time
}

func NewReportService(rr repositories.ReportRepository, c cache.Cache) ReportService {
	return &reportService{reportRepo: rr, cache: c, now: time.Now}
}

// GetDashboardSummary serves the cached summary when present. "Today" starts at local midnight.
func (s *reportService) GetDashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	var summary models.DashboardSummary
	if err := s.cache.Get(ctx, cache.KeyDashboardSummary, &summary); err == nil {
		return &summary, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		utils.LogWarn(err, "Reading dashboard summary from cache failed")
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	fresh, err := s.reportRepo.GetDashboardSummary(ctx, dayStart)
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard summary: %w", err)
	}
	fresh.GeneratedAt = now

	if err := s.cache.Set(ctx, cache.KeyDashboardSummary, fresh, cache.TTLDashboardSummary); err != nil {
		utils.LogWarn(err, "Caching dashboard summary failed")
	}
	return fresh, nil
}
