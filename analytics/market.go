package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"bursar/models"
	"bursar/service"
)

// CreateMarket creates a market in setup state with no options
func (s *Store) CreateMarket(ctx context.Context, question, createdBy string) (*models.Market, error) {
	market := &models.Market{
		Question:  question,
		Status:    models.MarketStatusSetup,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO markets (question, status, created_by, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, market.Question, market.Status, market.CreatedBy, market.CreatedAt).Scan(&market.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create market: %w", err)
	}

	return market, nil
}

// AddMarketOption appends an option to a market still in setup, assigning
// the next sequential index starting at 1. Options are immutable once the
// market leaves setup.
func (s *Store) AddMarketOption(ctx context.Context, marketID int64, text string) (*models.MarketOption, error) {
	option := &models.MarketOption{MarketID: marketID, Text: text}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		market, err := getMarketTx(ctx, tx, marketID)
		if err != nil {
			return err
		}
		if market.Status != models.MarketStatusSetup {
			return &service.InvalidStateError{Kind: "market", ID: formatID(marketID), State: string(market.Status), Op: "add option to"}
		}

		err = tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(option_index), 0) + 1
			FROM market_options
			WHERE market_id = ?
		`, marketID).Scan(&option.Index)
		if err != nil {
			return fmt.Errorf("failed to compute next option index: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO market_options (market_id, option_index, option_text)
			VALUES (?, ?, ?)
		`, marketID, option.Index, text)
		if err != nil {
			return fmt.Errorf("failed to insert market option: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return option, nil
}

// OpenMarket transitions a setup market with at least two options to open
func (s *Store) OpenMarket(ctx context.Context, marketID int64) (*models.Market, error) {
	var market *models.Market

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		market, err = getMarketTx(ctx, tx, marketID)
		if err != nil {
			return err
		}
		if market.Status != models.MarketStatusSetup {
			return &service.InvalidStateError{Kind: "market", ID: formatID(marketID), State: string(market.Status), Op: "open"}
		}

		var optionCount int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM market_options WHERE market_id = ?
		`, marketID).Scan(&optionCount)
		if err != nil {
			return fmt.Errorf("failed to count market options: %w", err)
		}
		if optionCount < 2 {
			return &service.InvalidStateError{Kind: "market", ID: formatID(marketID), State: string(market.Status), Op: "open with fewer than 2 options"}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE markets SET status = ? WHERE id = ?
		`, models.MarketStatusOpen, marketID)
		if err != nil {
			return fmt.Errorf("failed to open market: %w", err)
		}

		market.Status = models.MarketStatusOpen
		return nil
	})
	if err != nil {
		return nil, err
	}

	return market, nil
}

// InsertMarketBet inserts a bet after verifying, in the same store
// transaction as the insert, that the market is still open and the option
// exists. A bet therefore cannot land after a resolution or cancellation
// has flipped the status.
func (s *Store) InsertMarketBet(ctx context.Context, bet *models.MarketBet) error {
	if bet.CreatedAt.IsZero() {
		bet.CreatedAt = time.Now().UTC()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		market, err := getMarketTx(ctx, tx, bet.MarketID)
		if err != nil {
			return err
		}
		if !market.CanAcceptBets() {
			return &service.InvalidStateError{Kind: "market", ID: formatID(bet.MarketID), State: string(market.Status), Op: "bet on"}
		}

		var exists int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM market_options WHERE market_id = ? AND option_index = ?
		`, bet.MarketID, bet.OptionIndex).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check market option: %w", err)
		}
		if exists == 0 {
			return &service.NotFoundError{Kind: "market option", ID: formatID(int64(bet.OptionIndex))}
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO market_bets (market_id, account_id, option_index, amount, created_at)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id
		`, bet.MarketID, bet.AccountID, bet.OptionIndex, bet.Amount, bet.CreatedAt).Scan(&bet.ID)
		if err != nil {
			return fmt.Errorf("failed to insert market bet: %w", err)
		}

		return nil
	})
}

// CloseMarket flips a market to a terminal status and returns the market
// detail read inside the same transaction as the flip. Resolution requires
// the market to be open; cancellation also admits setup. Markets already
// terminal reject the flip with InvalidState.
func (s *Store) CloseMarket(ctx context.Context, marketID int64, status models.MarketStatus, winningOption *int) (*models.MarketDetail, error) {
	if status != models.MarketStatusResolved && status != models.MarketStatusCancelled {
		return nil, fmt.Errorf("close status must be terminal, got %s", status)
	}

	var detail *models.MarketDetail

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		market, err := getMarketTx(ctx, tx, marketID)
		if err != nil {
			return err
		}

		valid := market.Status == models.MarketStatusOpen ||
			(status == models.MarketStatusCancelled && market.Status == models.MarketStatusSetup)
		if !valid {
			op := "resolve"
			if status == models.MarketStatusCancelled {
				op = "cancel"
			}
			return &service.InvalidStateError{Kind: "market", ID: formatID(marketID), State: string(market.Status), Op: op}
		}

		now := time.Now().UTC()
		_, err = tx.ExecContext(ctx, `
			UPDATE markets SET status = ?, winning_option = ?, resolved_at = ? WHERE id = ?
		`, status, winningOption, now, marketID)
		if err != nil {
			return fmt.Errorf("failed to close market: %w", err)
		}

		market.Status = status
		market.WinningOption = winningOption
		market.ResolvedAt = &now

		options, err := getOptionsTx(ctx, tx, marketID)
		if err != nil {
			return err
		}
		bets, err := getBetsTx(ctx, tx, marketID)
		if err != nil {
			return err
		}

		detail = &models.MarketDetail{Market: market, Options: options, Bets: bets}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return detail, nil
}

// GetMarketDetail returns a market with its options and bets
func (s *Store) GetMarketDetail(ctx context.Context, marketID int64) (*models.MarketDetail, error) {
	var detail *models.MarketDetail

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		market, err := getMarketTx(ctx, tx, marketID)
		if err != nil {
			return err
		}
		options, err := getOptionsTx(ctx, tx, marketID)
		if err != nil {
			return err
		}
		bets, err := getBetsTx(ctx, tx, marketID)
		if err != nil {
			return err
		}

		detail = &models.MarketDetail{Market: market, Options: options, Bets: bets}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return detail, nil
}

func getMarketTx(ctx context.Context, tx *sql.Tx, marketID int64) (*models.Market, error) {
	var market models.Market
	err := tx.QueryRowContext(ctx, `
		SELECT id, question, status, created_by, winning_option, created_at, resolved_at
		FROM markets
		WHERE id = ?
	`, marketID).Scan(
		&market.ID,
		&market.Question,
		&market.Status,
		&market.CreatedBy,
		&market.WinningOption,
		&market.CreatedAt,
		&market.ResolvedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &service.NotFoundError{Kind: "market", ID: formatID(marketID)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market %d: %w", marketID, err)
	}

	return &market, nil
}

func getOptionsTx(ctx context.Context, tx *sql.Tx, marketID int64) ([]*models.MarketOption, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT market_id, option_index, option_text
		FROM market_options
		WHERE market_id = ?
		ORDER BY option_index
	`, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market options: %w", err)
	}
	defer rows.Close()

	var options []*models.MarketOption
	for rows.Next() {
		var option models.MarketOption
		if err := rows.Scan(&option.MarketID, &option.Index, &option.Text); err != nil {
			return nil, fmt.Errorf("failed to scan market option: %w", err)
		}
		options = append(options, &option)
	}

	return options, rows.Err()
}

func getBetsTx(ctx context.Context, tx *sql.Tx, marketID int64) ([]*models.MarketBet, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, market_id, account_id, option_index, amount, created_at
		FROM market_bets
		WHERE market_id = ?
		ORDER BY id
	`, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market bets: %w", err)
	}
	defer rows.Close()

	var bets []*models.MarketBet
	for rows.Next() {
		var bet models.MarketBet
		err := rows.Scan(&bet.ID, &bet.MarketID, &bet.AccountID, &bet.OptionIndex, &bet.Amount, &bet.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market bet: %w", err)
		}
		bets = append(bets, &bet)
	}

	return bets, rows.Err()
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
