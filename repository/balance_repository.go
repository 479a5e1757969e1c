package repository

import (
	"context"
	"fmt"

	"bursar/database"
	"bursar/models"
	"bursar/service"

	"github.com/jackc/pgx/v5"
)

// BalanceRepository implements the BalanceStore interface over PostgreSQL.
// Atomicity is per-account via row-level locks held for the duration of one
// read-modify-write or one transfer; there is no global lock.
type BalanceRepository struct {
	db *database.DB
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(db *database.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// GetBalance retrieves the current balance for an account
func (r *BalanceRepository) GetBalance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `
		SELECT balance
		FROM accounts
		WHERE account_id = $1
	`, accountID).Scan(&balance)

	if err == pgx.ErrNoRows {
		return 0, &service.NotFoundError{Kind: "account", ID: accountID}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance for account %s: %w", accountID, err)
	}

	return balance, nil
}

// SetBalance overwrites an account's balance and returns the prior value.
// Administrative use only; conservation of the total supply is bypassed.
func (r *BalanceRepository) SetBalance(ctx context.Context, accountID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, &service.InvalidAmountError{Amount: amount, Reason: "balance cannot be negative"}
	}

	var prior int64
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		prior, err = lockBalance(ctx, tx, accountID)
		if err != nil {
			return err
		}
		return updateBalance(ctx, tx, accountID, amount)
	})
	if err != nil {
		return 0, err
	}

	return prior, nil
}

// AddBalance applies a signed delta under an exclusive row lock. A delta
// that would take the balance negative aborts the whole operation with
// InsufficientFunds and leaves the balance unchanged.
func (r *BalanceRepository) AddBalance(ctx context.Context, accountID string, delta int64) (*models.AdjustResult, error) {
	result := &models.AdjustResult{Account: accountID, Delta: delta}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		old, err := lockBalance(ctx, tx, accountID)
		if err != nil {
			return err
		}
		result.Before = old

		next := old + delta
		if next < 0 {
			return &service.InsufficientFundsError{Account: accountID, Have: old, Need: -delta}
		}
		result.After = next

		return updateBalance(ctx, tx, accountID, next)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Transfer atomically moves amount from one account to another. Both rows
// are locked before either value is mutated; any failure leaves both
// balances untouched.
func (r *BalanceRepository) Transfer(ctx context.Context, from, to string, amount int64) (*models.TransferResult, error) {
	if amount <= 0 {
		return nil, &service.InvalidAmountError{Amount: amount, Reason: "transfer amount must be positive"}
	}
	return r.moveFunds(ctx, from, to, amount, amount)
}

// SettleTransfer debits the full stake from the loser while crediting only
// the payout to the winner; the difference is burned in the same atomic
// unit as the transfer.
func (r *BalanceRepository) SettleTransfer(ctx context.Context, from, to string, debit, credit int64) (*models.TransferResult, error) {
	if debit <= 0 {
		return nil, &service.InvalidAmountError{Amount: debit, Reason: "settlement debit must be positive"}
	}
	if credit < 0 || credit > debit {
		return nil, &service.InvalidAmountError{Amount: credit, Reason: "settlement credit must be between 0 and the debit"}
	}
	return r.moveFunds(ctx, from, to, debit, credit)
}

func (r *BalanceRepository) moveFunds(ctx context.Context, from, to string, debit, credit int64) (*models.TransferResult, error) {
	if from == to {
		return nil, &service.InvalidAmountError{Amount: debit, Reason: "cannot transfer to the same account"}
	}

	result := &models.TransferResult{From: from, To: to, Amount: debit}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		// Lock both rows in lexicographic account-id order so two
		// opposite-direction transfers between the same pair cannot
		// deadlock.
		first, second := from, to
		if second < first {
			first, second = second, first
		}

		balances := make(map[string]int64, 2)
		for _, id := range []string{first, second} {
			balance, err := lockBalance(ctx, tx, id)
			if err != nil {
				return err
			}
			balances[id] = balance
		}

		result.FromBefore = balances[from]
		result.ToBefore = balances[to]

		if result.FromBefore < debit {
			return &service.InsufficientFundsError{Account: from, Have: result.FromBefore, Need: debit}
		}

		result.FromAfter = result.FromBefore - debit
		result.ToAfter = result.ToBefore + credit

		if err := updateBalance(ctx, tx, from, result.FromAfter); err != nil {
			return err
		}
		return updateBalance(ctx, tx, to, result.ToAfter)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// lockBalance acquires an exclusive row lock and returns the balance.
func lockBalance(ctx context.Context, tx pgx.Tx, accountID string) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `
		SELECT balance
		FROM accounts
		WHERE account_id = $1
		FOR UPDATE
	`, accountID).Scan(&balance)

	if err == pgx.ErrNoRows {
		return 0, &service.NotFoundError{Kind: "account", ID: accountID}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock account %s: %w", accountID, err)
	}

	return balance, nil
}

func updateBalance(ctx context.Context, tx pgx.Tx, accountID string, balance int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE accounts
		SET balance = $1, updated_at = NOW()
		WHERE account_id = $2
	`, balance, accountID)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %s: %w", accountID, err)
	}
	return nil
}
