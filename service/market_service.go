package service

import (
	"context"
	"fmt"

	"bursar/events"
	"bursar/models"

	log "github.com/sirupsen/logrus"
)

type marketService struct {
	balances  BalanceStore
	analytics AnalyticsStore
	bus       *events.Bus
}

// NewMarketService creates a new prediction market service
func NewMarketService(balances BalanceStore, analytics AnalyticsStore, bus *events.Bus) MarketService {
	return &marketService{
		balances:  balances,
		analytics: analytics,
		bus:       bus,
	}
}

// Create creates a market in setup state with no options
func (s *marketService) Create(ctx context.Context, question, creator string) (*models.Market, error) {
	if question == "" {
		return nil, fmt.Errorf("market question cannot be empty")
	}
	return s.analytics.CreateMarket(ctx, question, creator)
}

// AddOption appends an option while the market is still in setup
func (s *marketService) AddOption(ctx context.Context, marketID int64, text string) (*models.MarketOption, error) {
	if text == "" {
		return nil, fmt.Errorf("option text cannot be empty")
	}
	return s.analytics.AddMarketOption(ctx, marketID, text)
}

// Open transitions a market with at least two options to open
func (s *marketService) Open(ctx context.Context, marketID int64) (*models.Market, error) {
	return s.analytics.OpenMarket(ctx, marketID)
}

// PlaceBet escrows the stake and records a bet on an open market. The
// debit commits first; if the bet insert then fails (including the market
// flipping to a terminal state in between), the stake is credited back.
func (s *marketService) PlaceBet(ctx context.Context, marketID int64, accountID string, optionIndex int, amount int64) (*models.MarketBet, error) {
	if amount <= 0 {
		return nil, &InvalidAmountError{Amount: amount, Reason: "bet amount must be positive"}
	}

	// Cheap pre-check so an obviously closed market never debits anyone.
	// The authoritative status check runs inside the bet insert.
	detail, err := s.analytics.GetMarketDetail(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if !detail.Market.CanAcceptBets() {
		return nil, &InvalidStateError{Kind: "market", ID: fmt.Sprint(marketID), State: string(detail.Market.Status), Op: "bet on"}
	}
	if detail.Option(optionIndex) == nil {
		return nil, &NotFoundError{Kind: "market option", ID: fmt.Sprint(optionIndex)}
	}

	debit, err := s.balances.AddBalance(ctx, accountID, -amount)
	if err != nil {
		return nil, err
	}

	bet := &models.MarketBet{
		MarketID:    marketID,
		AccountID:   accountID,
		OptionIndex: optionIndex,
		Amount:      amount,
	}

	if err := s.analytics.InsertMarketBet(ctx, bet); err != nil {
		// The stake was escrowed for a bet that never existed; undo it.
		if _, creditErr := s.balances.AddBalance(ctx, accountID, amount); creditErr != nil {
			log.WithFields(log.Fields{
				"market":  marketID,
				"account": accountID,
				"amount":  amount,
				"error":   creditErr,
			}).Error("Failed to refund stake after bet insert failure")
		}
		return nil, err
	}

	s.recordMutation(ctx, &models.LedgerEntry{
		Type:          models.MutationTypeMarketBet,
		FromAccount:   &accountID,
		Amount:        amount,
		BalanceBefore: &debit.Before,
		BalanceAfter:  &debit.After,
		Notes:         fmt.Sprintf("market %d option %d", marketID, optionIndex),
	})

	s.bus.Emit(ctx, events.BalanceChangeEvent{
		AccountID:    accountID,
		OldBalance:   debit.Before,
		NewBalance:   debit.After,
		MutationType: models.MutationTypeMarketBet,
		ChangeAmount: -amount,
	})

	return bet, nil
}

// Resolve pays the whole pool out to the winning option's bettors in
// proportion to their stakes. The status flip and the bet snapshot share
// one analytics transaction, so no bet can join after resolution begins.
// An empty winning pool resolves with zero payouts.
func (s *marketService) Resolve(ctx context.Context, marketID int64, winningOption int) (*models.MarketResult, error) {
	// Validate the option against the current detail; the option set is
	// immutable once the market left setup.
	detail, err := s.analytics.GetMarketDetail(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if detail.Option(winningOption) == nil {
		return nil, &NotFoundError{Kind: "market option", ID: fmt.Sprint(winningOption)}
	}

	closed, err := s.analytics.CloseMarket(ctx, marketID, models.MarketStatusResolved, &winningOption)
	if err != nil {
		return nil, err
	}

	payouts, totalPool, winningPool, remainder := models.ParimutuelPayouts(closed.Bets, winningOption)

	result := &models.MarketResult{
		Market:      closed.Market,
		TotalPool:   totalPool,
		WinningPool: winningPool,
		Payouts:     payouts,
		Remainder:   remainder,
	}

	for _, payout := range payouts {
		credit, err := s.balances.AddBalance(ctx, payout.AccountID, payout.Payout)
		if err != nil {
			// The market is already resolved; surface the failed credit
			// rather than leaving it silently unpaid.
			return nil, fmt.Errorf("failed to pay out %d to account %s for market %d: %w",
				payout.Payout, payout.AccountID, marketID, err)
		}

		s.recordMutation(ctx, &models.LedgerEntry{
			Type:          models.MutationTypeMarketPayout,
			ToAccount:     &payout.AccountID,
			Amount:        payout.Payout,
			BalanceBefore: &credit.Before,
			BalanceAfter:  &credit.After,
			Notes:         fmt.Sprintf("market %d option %d", marketID, winningOption),
		})
	}

	s.recordResolutionStats(ctx, closed.Bets, payouts, winningOption)

	// The floor-division leftover stays undistributed; book it so the
	// missing units are accounted for. An empty winning pool books the
	// entire pool the same way.
	if remainder > 0 {
		err := s.analytics.RecordTaxRevenue(ctx, models.TaxSourceMarketRemainder, remainder,
			fmt.Sprintf("market %d", marketID))
		if err != nil {
			log.WithFields(log.Fields{"market": marketID, "remainder": remainder, "error": err}).
				Warn("Failed to record market remainder")
		}
	}

	s.bus.Emit(ctx, events.MarketResolvedEvent{
		MarketID:      marketID,
		WinningOption: winningOption,
		TotalPool:     totalPool,
		WinningPool:   winningPool,
		Remainder:     remainder,
	})

	return result, nil
}

// Cancel refunds every bettor their full stake, no tax, and closes the
// market. Valid from setup or open only.
func (s *marketService) Cancel(ctx context.Context, marketID int64) (*models.MarketResult, error) {
	closed, err := s.analytics.CloseMarket(ctx, marketID, models.MarketStatusCancelled, nil)
	if err != nil {
		return nil, err
	}

	var refunded int64
	for _, bet := range closed.Bets {
		credit, err := s.balances.AddBalance(ctx, bet.AccountID, bet.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to refund %d to account %s for market %d: %w",
				bet.Amount, bet.AccountID, marketID, err)
		}
		refunded += bet.Amount

		s.recordMutation(ctx, &models.LedgerEntry{
			Type:          models.MutationTypeMarketRefund,
			ToAccount:     &bet.AccountID,
			Amount:        bet.Amount,
			BalanceBefore: &credit.Before,
			BalanceAfter:  &credit.After,
			Notes:         fmt.Sprintf("market %d cancelled", marketID),
		})
	}

	s.bus.Emit(ctx, events.MarketCancelledEvent{
		MarketID: marketID,
		Refunded: refunded,
	})

	return &models.MarketResult{
		Market:    closed.Market,
		TotalPool: refunded,
	}, nil
}

// GetDetail returns a market with its options and bets
func (s *marketService) GetDetail(ctx context.Context, marketID int64) (*models.MarketDetail, error) {
	return s.analytics.GetMarketDetail(ctx, marketID)
}

func (s *marketService) recordResolutionStats(ctx context.Context, bets []*models.MarketBet, payouts []*models.MarketPayout, winningOption int) {
	// Accumulate losing stakes per account; winners are covered by their
	// payout entries.
	losingStakes := make(map[string]int64)
	for _, bet := range bets {
		if bet.OptionIndex != winningOption {
			losingStakes[bet.AccountID] += bet.Amount
		}
	}

	for _, payout := range payouts {
		delta := models.StatDelta{
			AccountID: payout.AccountID,
			Game:      models.GameKindMarket,
			Won:       true,
			Wagered:   payout.Staked,
			Amount:    payout.Payout - payout.Staked,
		}
		if err := s.analytics.ApplyStatDelta(ctx, delta); err != nil {
			log.WithFields(log.Fields{"account": payout.AccountID, "error": err}).
				Warn("Failed to update market stats")
		}
	}

	for accountID, staked := range losingStakes {
		delta := models.StatDelta{
			AccountID: accountID,
			Game:      models.GameKindMarket,
			Won:       false,
			Wagered:   staked,
			Amount:    staked,
		}
		if err := s.analytics.ApplyStatDelta(ctx, delta); err != nil {
			log.WithFields(log.Fields{"account": accountID, "error": err}).
				Warn("Failed to update market stats")
		}
	}
}

func (s *marketService) recordMutation(ctx context.Context, entry *models.LedgerEntry) {
	if err := s.analytics.RecordMutation(ctx, entry); err != nil {
		log.WithFields(log.Fields{"type": entry.Type, "error": err}).
			Warn("Failed to record mutation in analytics store")
	}
}
