package analytics

import (
	"context"
	"fmt"

	"bursar/models"
)

// ApplyStatDelta folds one settlement outcome into the (account, game)
// stat row, creating it on first settlement.
func (s *Store) ApplyStatDelta(ctx context.Context, delta models.StatDelta) error {
	var wins, losses, won, lost, biggestWin, biggestLoss int64
	if delta.Won {
		wins = 1
		won = delta.Amount
		biggestWin = delta.Amount
	} else {
		losses = 1
		lost = delta.Amount
		biggestLoss = delta.Amount
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gambling_stats (account_id, game, games, wins, losses, wagered, won, lost, biggest_win, biggest_loss)
		VALUES (?, ?, 1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, game) DO UPDATE SET
			games = games + 1,
			wins = wins + excluded.wins,
			losses = losses + excluded.losses,
			wagered = wagered + excluded.wagered,
			won = won + excluded.won,
			lost = lost + excluded.lost,
			biggest_win = MAX(biggest_win, excluded.biggest_win),
			biggest_loss = MAX(biggest_loss, excluded.biggest_loss)
	`, delta.AccountID, delta.Game, wins, losses, delta.Wagered, won, lost, biggestWin, biggestLoss)
	if err != nil {
		return fmt.Errorf("failed to apply stat delta for account %s: %w", delta.AccountID, err)
	}

	return nil
}

// GetStats returns all gambling stats for an account
func (s *Store) GetStats(ctx context.Context, accountID string) ([]*models.GamblingStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, game, games, wins, losses, wagered, won, lost, biggest_win, biggest_loss
		FROM gambling_stats
		WHERE account_id = ?
		ORDER BY game
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var stats []*models.GamblingStat
	for rows.Next() {
		var stat models.GamblingStat
		err := rows.Scan(
			&stat.AccountID,
			&stat.Game,
			&stat.Games,
			&stat.Wins,
			&stat.Losses,
			&stat.Wagered,
			&stat.Won,
			&stat.Lost,
			&stat.BiggestWin,
			&stat.BiggestLoss,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gambling stat: %w", err)
		}
		stats = append(stats, &stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gambling stats: %w", err)
	}

	return stats, nil
}
