package service

import (
	"context"

	"bursar/events"
	"bursar/models"

	log "github.com/sirupsen/logrus"
)

type transferService struct {
	balances  BalanceStore
	analytics AnalyticsStore
	gate      RateGate
	guard     ConfirmationGuard
	bus       *events.Bus
}

// NewTransferService creates a new transfer service
func NewTransferService(balances BalanceStore, analytics AnalyticsStore, gate RateGate, guard ConfirmationGuard, bus *events.Bus) TransferService {
	return &transferService{
		balances:  balances,
		analytics: analytics,
		gate:      gate,
		guard:     guard,
		bus:       bus,
	}
}

// Transfer moves amount between accounts. The rate limiter and, above the
// configured threshold, the confirmation guard run before any mutation;
// a rejection from either leaves every balance untouched.
func (s *transferService) Transfer(ctx context.Context, from, to string, amount int64, notes string) (*models.TransferResult, error) {
	if amount <= 0 {
		return nil, &InvalidAmountError{Amount: amount, Reason: "transfer amount must be positive"}
	}
	if from == to {
		return nil, &InvalidAmountError{Amount: amount, Reason: "cannot transfer to yourself"}
	}

	if !s.gate.Allow(from) {
		return nil, &RateLimitedError{Account: from, RetryIn: s.gate.TimeUntilAllowed(from)}
	}

	if err := s.guard.Require(ctx, from, amount); err != nil {
		return nil, err
	}

	result, err := s.balances.Transfer(ctx, from, to, amount)
	if err != nil {
		return nil, err
	}

	// The balance mutation is committed; the analytics mirror is
	// best-effort and must not roll it back.
	s.recordTransfer(ctx, result, notes)

	s.bus.Emit(ctx, events.BalanceChangeEvent{
		AccountID:    from,
		OldBalance:   result.FromBefore,
		NewBalance:   result.FromAfter,
		MutationType: models.MutationTypeTransfer,
		ChangeAmount: -amount,
	})
	s.bus.Emit(ctx, events.BalanceChangeEvent{
		AccountID:    to,
		OldBalance:   result.ToBefore,
		NewBalance:   result.ToAfter,
		MutationType: models.MutationTypeTransfer,
		ChangeAmount: amount,
	})

	return result, nil
}

func (s *transferService) recordTransfer(ctx context.Context, result *models.TransferResult, notes string) {
	entry := &models.LedgerEntry{
		Type:          models.MutationTypeTransfer,
		FromAccount:   &result.From,
		ToAccount:     &result.To,
		Amount:        result.Amount,
		BalanceBefore: &result.FromBefore,
		BalanceAfter:  &result.FromAfter,
		Notes:         notes,
	}
	if err := s.analytics.RecordMutation(ctx, entry); err != nil {
		log.WithFields(log.Fields{
			"from":   result.From,
			"to":     result.To,
			"amount": result.Amount,
			"error":  err,
		}).Warn("Failed to record transfer in analytics store")
	}
}
