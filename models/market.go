package models

import (
	"sort"
	"time"
)

// MarketStatus represents the lifecycle state of a prediction market.
// Transitions are one-way: setup -> open -> resolved or cancelled.
type MarketStatus string

const (
	MarketStatusSetup     MarketStatus = "setup"
	MarketStatusOpen      MarketStatus = "open"
	MarketStatusResolved  MarketStatus = "resolved"
	MarketStatusCancelled MarketStatus = "cancelled"
)

// Market represents a multi-option parimutuel prediction market
type Market struct {
	ID            int64        `db:"id"`
	Question      string       `db:"question"`
	Status        MarketStatus `db:"status"`
	CreatedBy     string       `db:"created_by"`
	WinningOption *int         `db:"winning_option"`
	CreatedAt     time.Time    `db:"created_at"`
	ResolvedAt    *time.Time   `db:"resolved_at"`
}

// MarketOption is one possible outcome. Indices are sequential from 1 and
// immutable once the market leaves setup.
type MarketOption struct {
	MarketID int64  `db:"market_id"`
	Index    int    `db:"option_index"`
	Text     string `db:"option_text"`
}

// MarketBet is a single stake on an option. Bets are insert-only; multiple
// bets by the same account accumulate for payout purposes.
type MarketBet struct {
	ID          int64     `db:"id"`
	MarketID    int64     `db:"market_id"`
	AccountID   string    `db:"account_id"`
	OptionIndex int       `db:"option_index"`
	Amount      int64     `db:"amount"`
	CreatedAt   time.Time `db:"created_at"`
}

// MarketDetail combines a market with its options and bets
type MarketDetail struct {
	Market  *Market
	Options []*MarketOption
	Bets    []*MarketBet
}

// MarketPayout is one winning bettor's share of the pool.
type MarketPayout struct {
	AccountID string
	Staked    int64
	Payout    int64
}

// MarketResult represents the outcome of a market resolution
type MarketResult struct {
	Market      *Market
	TotalPool   int64
	WinningPool int64
	Payouts     []*MarketPayout
	Remainder   int64 // undistributed floor-division leftover
}

// IsTerminal reports whether the market can no longer change state.
func (m *Market) IsTerminal() bool {
	return m.Status == MarketStatusResolved || m.Status == MarketStatusCancelled
}

// CanAcceptBets reports whether a bet may be placed right now.
func (m *Market) CanAcceptBets() bool {
	return m.Status == MarketStatusOpen
}

// Option returns the option with the given index, or nil.
func (d *MarketDetail) Option(index int) *MarketOption {
	for _, opt := range d.Options {
		if opt.Index == index {
			return opt
		}
	}
	return nil
}

// ParimutuelPayouts computes the proportional distribution of the whole pool
// across the bettors on the winning option. Each winner with accumulated
// stake s receives floor(totalPool * s / winningPool); the leftover units
// from flooring are returned as the remainder. An empty winning pool yields
// no payouts and the entire pool as remainder.
func ParimutuelPayouts(bets []*MarketBet, winningIndex int) ([]*MarketPayout, int64, int64, int64) {
	var totalPool, winningPool int64
	stakes := make(map[string]int64)

	for _, bet := range bets {
		totalPool += bet.Amount
		if bet.OptionIndex == winningIndex {
			winningPool += bet.Amount
			stakes[bet.AccountID] += bet.Amount
		}
	}

	if winningPool == 0 {
		return nil, totalPool, 0, totalPool
	}

	accounts := make([]string, 0, len(stakes))
	for account := range stakes {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	var distributed int64
	payouts := make([]*MarketPayout, 0, len(accounts))
	for _, account := range accounts {
		staked := stakes[account]
		payout := totalPool * staked / winningPool
		distributed += payout
		payouts = append(payouts, &MarketPayout{
			AccountID: account,
			Staked:    staked,
			Payout:    payout,
		})
	}

	return payouts, totalPool, winningPool, totalPool - distributed
}
