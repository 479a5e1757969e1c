package service

import (
	"context"
	"testing"

	"bursar/events"
	"bursar/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBalanceService_GetBalance(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := NewBalanceService(mockBalances, mockAnalytics, events.NewBus())

	mockBalances.On("GetBalance", ctx, "alice").Return(int64(1234), nil)

	balance, err := service.GetBalance(ctx, "alice")

	require.NoError(t, err)
	assert.Equal(t, int64(1234), balance)
	mockBalances.AssertExpectations(t)
}

func TestBalanceService_AdminSet(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := NewBalanceService(mockBalances, mockAnalytics, events.NewBus())

	mockBalances.On("SetBalance", ctx, "alice", int64(5000)).Return(int64(200), nil)
	mockAnalytics.On("RecordMutation", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.Type == models.MutationTypeAdminSet &&
			*e.ToAccount == "alice" &&
			e.Amount == 4800 &&
			*e.BalanceBefore == 200 &&
			*e.BalanceAfter == 5000
	})).Return(nil)

	prior, err := service.AdminSet(ctx, "alice", 5000, "grant")

	require.NoError(t, err)
	assert.Equal(t, int64(200), prior)

	mockBalances.AssertExpectations(t)
	mockAnalytics.AssertExpectations(t)
}

func TestBalanceService_AdminAdjust(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := NewBalanceService(mockBalances, mockAnalytics, events.NewBus())

	expected := &models.AdjustResult{Delta: -300, Before: 1000, After: 700}
	mockBalances.On("AddBalance", ctx, "alice", int64(-300)).Return(expected, nil)
	mockAnalytics.On("RecordMutation", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.Type == models.MutationTypeAdminAdjust && e.Amount == -300
	})).Return(nil)

	result, err := service.AdminAdjust(ctx, "alice", -300, "penalty")

	require.NoError(t, err)
	assert.Equal(t, expected, result)
	mockBalances.AssertExpectations(t)
}

func TestBalanceService_AdminAdjust_InsufficientFunds(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := NewBalanceService(mockBalances, mockAnalytics, events.NewBus())

	mockBalances.On("AddBalance", ctx, "alice", int64(-300)).
		Return(nil, &InsufficientFundsError{Account: "alice", Have: 100, Need: 300})

	result, err := service.AdminAdjust(ctx, "alice", -300, "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	mockAnalytics.AssertNotCalled(t, "RecordMutation", ctx, mock.Anything)
}
