package analytics

import (
	"context"
	"fmt"
	"time"

	"bursar/models"
)

// RecordTaxRevenue appends a tax revenue row. Tax units leave circulation
// entirely; this table is the only record of where they went.
func (s *Store) RecordTaxRevenue(ctx context.Context, source models.TaxSource, amount int64, notes string) error {
	if amount == 0 {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tax_revenue (source, amount, notes, created_at)
		VALUES (?, ?, ?, ?)
	`, source, amount, notes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record tax revenue: %w", err)
	}

	return nil
}

// TotalTaxRevenue returns the accumulated tax revenue across all sources
func (s *Store) TotalTaxRevenue(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM tax_revenue
	`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to total tax revenue: %w", err)
	}

	return total, nil
}
