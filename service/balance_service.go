package service

import (
	"context"

	"bursar/events"
	"bursar/models"

	log "github.com/sirupsen/logrus"
)

type balanceService struct {
	balances  BalanceStore
	analytics AnalyticsStore
	bus       *events.Bus
}

// NewBalanceService creates a new balance service
func NewBalanceService(balances BalanceStore, analytics AnalyticsStore, bus *events.Bus) BalanceService {
	return &balanceService{
		balances:  balances,
		analytics: analytics,
		bus:       bus,
	}
}

// GetBalance returns the current balance for an account
func (s *balanceService) GetBalance(ctx context.Context, accountID string) (int64, error) {
	return s.balances.GetBalance(ctx, accountID)
}

// AdminSet overwrites a balance unconditionally and returns the prior
// value. This is the mint/burn escape hatch: it deliberately bypasses the
// conservation guarantees ordinary transfers carry.
func (s *balanceService) AdminSet(ctx context.Context, accountID string, amount int64, notes string) (int64, error) {
	prior, err := s.balances.SetBalance(ctx, accountID, amount)
	if err != nil {
		return 0, err
	}

	s.recordAdjustment(ctx, models.MutationTypeAdminSet, accountID, amount-prior, prior, amount, notes)

	s.bus.Emit(ctx, events.BalanceChangeEvent{
		AccountID:    accountID,
		OldBalance:   prior,
		NewBalance:   amount,
		MutationType: models.MutationTypeAdminSet,
		ChangeAmount: amount - prior,
	})

	return prior, nil
}

// AdminAdjust applies a signed delta to a balance.
func (s *balanceService) AdminAdjust(ctx context.Context, accountID string, delta int64, notes string) (*models.AdjustResult, error) {
	result, err := s.balances.AddBalance(ctx, accountID, delta)
	if err != nil {
		return nil, err
	}

	s.recordAdjustment(ctx, models.MutationTypeAdminAdjust, accountID, delta, result.Before, result.After, notes)

	s.bus.Emit(ctx, events.BalanceChangeEvent{
		AccountID:    accountID,
		OldBalance:   result.Before,
		NewBalance:   result.After,
		MutationType: models.MutationTypeAdminAdjust,
		ChangeAmount: delta,
	})

	return result, nil
}

func (s *balanceService) recordAdjustment(ctx context.Context, mutationType models.MutationType, accountID string, amount, before, after int64, notes string) {
	entry := &models.LedgerEntry{
		Type:          mutationType,
		ToAccount:     &accountID,
		Amount:        amount,
		BalanceBefore: &before,
		BalanceAfter:  &after,
		Notes:         notes,
	}
	if err := s.analytics.RecordMutation(ctx, entry); err != nil {
		log.WithFields(log.Fields{
			"account": accountID,
			"type":    mutationType,
			"error":   err,
		}).Warn("Failed to record adjustment in analytics store")
	}
}
