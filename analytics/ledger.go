package analytics

import (
	"context"
	"fmt"
	"time"

	"bursar/models"
)

// RecordMutation appends a ledger mutation record. Entries are never
// updated or deleted.
func (s *Store) RecordMutation(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO ledger_entries (mutation_type, from_account, to_account, amount, balance_before, balance_after, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, entry.Type, entry.FromAccount, entry.ToAccount, entry.Amount,
		entry.BalanceBefore, entry.BalanceAfter, entry.Notes, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to record ledger mutation: %w", err)
	}

	return nil
}

// GetLedgerHistory returns the most recent mutation records touching an
// account, newest first.
func (s *Store) GetLedgerHistory(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mutation_type, from_account, to_account, amount, balance_before, balance_after, notes, created_at
		FROM ledger_entries
		WHERE from_account = ? OR to_account = ?
		ORDER BY id DESC
		LIMIT ?
	`, accountID, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger history for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		err := rows.Scan(
			&entry.ID,
			&entry.Type,
			&entry.FromAccount,
			&entry.ToAccount,
			&entry.Amount,
			&entry.BalanceBefore,
			&entry.BalanceAfter,
			&entry.Notes,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
