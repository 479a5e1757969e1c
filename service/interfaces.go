package service

import (
	"context"
	"time"

	"bursar/models"
)

// BalanceStore defines the atomic primitives over authoritative balances.
// Every method is safe for concurrent use and either fully applies or does
// not mutate anything at all.
type BalanceStore interface {
	// GetBalance returns the current balance for an account
	GetBalance(ctx context.Context, accountID string) (int64, error)

	// SetBalance overwrites a balance unconditionally and returns the prior
	// value. Administrative corrections only; bypasses conservation.
	SetBalance(ctx context.Context, accountID string, amount int64) (int64, error)

	// AddBalance applies a signed delta under a row lock, failing with
	// InsufficientFunds if the result would go negative
	AddBalance(ctx context.Context, accountID string, delta int64) (*models.AdjustResult, error)

	// Transfer atomically moves amount from one account to another
	Transfer(ctx context.Context, from, to string, amount int64) (*models.TransferResult, error)

	// SettleTransfer debits the full stake from one account while crediting
	// only the payout to the other, in one atomic unit. The difference is
	// the tax sink.
	SettleTransfer(ctx context.Context, from, to string, debit, credit int64) (*models.TransferResult, error)
}

// AnalyticsStore defines the secondary local store. Ledger, stat and tax
// writes are best-effort mirrors of committed balance mutations; market
// lifecycle state lives here authoritatively.
type AnalyticsStore interface {
	// RecordMutation appends a ledger mutation record
	RecordMutation(ctx context.Context, entry *models.LedgerEntry) error

	// GetLedgerHistory returns the most recent mutation records touching an account
	GetLedgerHistory(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error)

	// ApplyStatDelta folds one settlement outcome into the (account, game) stat
	ApplyStatDelta(ctx context.Context, delta models.StatDelta) error

	// GetStats returns all gambling stats for an account
	GetStats(ctx context.Context, accountID string) ([]*models.GamblingStat, error)

	// RecordTaxRevenue appends a tax revenue row
	RecordTaxRevenue(ctx context.Context, source models.TaxSource, amount int64, notes string) error

	// TotalTaxRevenue returns the accumulated tax revenue
	TotalTaxRevenue(ctx context.Context) (int64, error)

	// CreateMarket creates a market in setup state with no options
	CreateMarket(ctx context.Context, question, createdBy string) (*models.Market, error)

	// AddMarketOption appends an option to a market still in setup,
	// assigning the next sequential index starting at 1
	AddMarketOption(ctx context.Context, marketID int64, text string) (*models.MarketOption, error)

	// OpenMarket transitions a setup market with at least two options to open
	OpenMarket(ctx context.Context, marketID int64) (*models.Market, error)

	// GetMarketDetail returns a market with its options and bets
	GetMarketDetail(ctx context.Context, marketID int64) (*models.MarketDetail, error)

	// InsertMarketBet inserts a bet, verifying inside the same store
	// transaction that the market is still open and the option exists
	InsertMarketBet(ctx context.Context, bet *models.MarketBet) error

	// CloseMarket flips an open (or, for cancellation, setup) market to the
	// given terminal status and returns the bets read in the same store
	// transaction as the flip, so no bet can land after it.
	CloseMarket(ctx context.Context, marketID int64, status models.MarketStatus, winningOption *int) (*models.MarketDetail, error)
}

// RateGate is the admission check applied to transfer initiations.
type RateGate interface {
	// Allow admits the call and records it, or rejects without recording
	Allow(accountID string) bool

	// TimeUntilAllowed returns the wait until the oldest recorded event ages out
	TimeUntilAllowed(accountID string) time.Duration
}

// ConfirmationGuard requires human sign-off on large transactions.
// Require returns nil to proceed, or ErrCancelled when the confirmation was
// declined or timed out; the two are indistinguishable downstream.
type ConfirmationGuard interface {
	Require(ctx context.Context, accountID string, amount int64) error
}

// IdentityResolver maps a chat-platform identity to a ledger account. It is
// an external collaborator; implementations live outside this core.
type IdentityResolver interface {
	// Resolve returns the account id for a platform user, or ErrNotLinked
	Resolve(ctx context.Context, platformUser string) (string, error)
}

// TransferService defines guarded transfers between accounts
type TransferService interface {
	// Transfer moves amount between accounts after passing the rate limiter
	// and, above the configured threshold, the confirmation guard
	Transfer(ctx context.Context, from, to string, amount int64, notes string) (*models.TransferResult, error)
}

// BalanceService defines balance reads and administrative corrections
type BalanceService interface {
	// GetBalance returns the current balance for an account
	GetBalance(ctx context.Context, accountID string) (int64, error)

	// AdminSet overwrites a balance and returns the prior value
	AdminSet(ctx context.Context, accountID string, amount int64, notes string) (int64, error)

	// AdminAdjust applies a signed delta (mint or burn)
	AdminAdjust(ctx context.Context, accountID string, delta int64, notes string) (*models.AdjustResult, error)
}

// WagerService defines the coinflip challenge lifecycle
type WagerService interface {
	// Propose creates a targeted or open challenge; opponent may be empty
	Propose(ctx context.Context, challenger, opponent string, amount int64) (*models.Challenge, error)

	// Accept settles a pending challenge with a fair coinflip
	Accept(ctx context.Context, challengeID, acceptor string) (*models.ChallengeResult, error)

	// Decline removes a pending targeted challenge without moving funds
	Decline(ctx context.Context, challengeID, decliner string) error

	// GetChallenge returns a challenge by id
	GetChallenge(ctx context.Context, challengeID string) (*models.Challenge, error)

	// ExpireStale terminally expires pending challenges past their deadline
	ExpireStale(ctx context.Context, now time.Time) []*models.Challenge
}

// MarketService defines the prediction market lifecycle
type MarketService interface {
	// Create creates a market in setup state
	Create(ctx context.Context, question, creator string) (*models.Market, error)

	// AddOption appends an option while the market is in setup
	AddOption(ctx context.Context, marketID int64, text string) (*models.MarketOption, error)

	// Open transitions a market with at least two options to open
	Open(ctx context.Context, marketID int64) (*models.Market, error)

	// PlaceBet escrows the stake and records a bet on an open market
	PlaceBet(ctx context.Context, marketID int64, accountID string, optionIndex int, amount int64) (*models.MarketBet, error)

	// Resolve pays out the pool parimutuel-style to the winning option
	Resolve(ctx context.Context, marketID int64, winningOption int) (*models.MarketResult, error)

	// Cancel refunds every bettor their stake and closes the market
	Cancel(ctx context.Context, marketID int64) (*models.MarketResult, error)

	// GetDetail returns a market with its options and bets
	GetDetail(ctx context.Context, marketID int64) (*models.MarketDetail, error)
}

// StatsService defines read access to the analytics mirror
type StatsService interface {
	// GetStats returns gambling stats for an account
	GetStats(ctx context.Context, accountID string) ([]*models.GamblingStat, error)

	// GetHistory returns recent ledger mutation records for an account
	GetHistory(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error)

	// TotalTaxRevenue returns the accumulated tax sink
	TotalTaxRevenue(ctx context.Context) (int64, error)
}
