package models

import (
	"time"
)

// Account represents a ledger account with a non-negative balance.
// Accounts are provisioned upstream; the ledger core only mutates balances.
type Account struct {
	ID        string    `db:"account_id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// TransferResult captures the four balances observed by an atomic transfer.
type TransferResult struct {
	From       string
	To         string
	Amount     int64
	FromBefore int64
	FromAfter  int64
	ToBefore   int64
	ToAfter    int64
}

// AdjustResult captures the balances observed by an atomic add.
type AdjustResult struct {
	Account string
	Delta   int64
	Before  int64
	After   int64
}
