package service

import (
	"context"

	"bursar/models"
)

type statsService struct {
	analytics AnalyticsStore
}

// NewStatsService creates a new stats service
func NewStatsService(analytics AnalyticsStore) StatsService {
	return &statsService{analytics: analytics}
}

// GetStats returns gambling stats for an account
func (s *statsService) GetStats(ctx context.Context, accountID string) ([]*models.GamblingStat, error) {
	return s.analytics.GetStats(ctx, accountID)
}

// GetHistory returns recent ledger mutation records for an account
func (s *statsService) GetHistory(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error) {
	return s.analytics.GetLedgerHistory(ctx, accountID, limit)
}

// TotalTaxRevenue returns the accumulated tax sink
func (s *statsService) TotalTaxRevenue(ctx context.Context) (int64, error) {
	return s.analytics.TotalTaxRevenue(ctx)
}
