package models

import (
	"time"
)

// MutationType represents the type of balance change
type MutationType string

const (
	MutationTypeTransfer     MutationType = "transfer"
	MutationTypeAdminSet     MutationType = "admin_set"
	MutationTypeAdminAdjust  MutationType = "admin_adjust"
	MutationTypeWagerSettle  MutationType = "wager_settle"
	MutationTypeMarketBet    MutationType = "market_bet"
	MutationTypeMarketPayout MutationType = "market_payout"
	MutationTypeMarketRefund MutationType = "market_refund"
)

// LedgerEntry is an append-only mirror of a committed balance mutation.
// It is diagnostic: a missing entry never implies the mutation did not
// happen, because analytics writes are best-effort after commit.
type LedgerEntry struct {
	ID            int64        `db:"id"`
	Type          MutationType `db:"mutation_type"`
	FromAccount   *string      `db:"from_account"`
	ToAccount     *string      `db:"to_account"`
	Amount        int64        `db:"amount"`
	BalanceBefore *int64       `db:"balance_before"`
	BalanceAfter  *int64       `db:"balance_after"`
	Notes         string       `db:"notes"`
	CreatedAt     time.Time    `db:"created_at"`
}

// TaxSource identifies where a tax revenue row came from.
type TaxSource string

const (
	TaxSourceWager           TaxSource = "wager_tax"
	TaxSourceMarketRemainder TaxSource = "market_remainder"
)

// TaxRevenue records currency removed from circulation during settlement.
type TaxRevenue struct {
	ID        int64     `db:"id"`
	Source    TaxSource `db:"source"`
	Amount    int64     `db:"amount"`
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
}
