package service

import (
	"context"
	"time"

	"bursar/models"

	"github.com/stretchr/testify/mock"
)

// MockBalanceStore is a mock implementation of BalanceStore
type MockBalanceStore struct {
	mock.Mock
}

func (m *MockBalanceStore) GetBalance(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceStore) SetBalance(ctx context.Context, accountID string, amount int64) (int64, error) {
	args := m.Called(ctx, accountID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceStore) AddBalance(ctx context.Context, accountID string, delta int64) (*models.AdjustResult, error) {
	args := m.Called(ctx, accountID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdjustResult), args.Error(1)
}

func (m *MockBalanceStore) Transfer(ctx context.Context, from, to string, amount int64) (*models.TransferResult, error) {
	args := m.Called(ctx, from, to, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransferResult), args.Error(1)
}

func (m *MockBalanceStore) SettleTransfer(ctx context.Context, from, to string, debit, credit int64) (*models.TransferResult, error) {
	args := m.Called(ctx, from, to, debit, credit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransferResult), args.Error(1)
}

// MockAnalyticsStore is a mock implementation of AnalyticsStore
type MockAnalyticsStore struct {
	mock.Mock
}

func (m *MockAnalyticsStore) RecordMutation(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAnalyticsStore) GetLedgerHistory(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

func (m *MockAnalyticsStore) ApplyStatDelta(ctx context.Context, delta models.StatDelta) error {
	args := m.Called(ctx, delta)
	return args.Error(0)
}

func (m *MockAnalyticsStore) GetStats(ctx context.Context, accountID string) ([]*models.GamblingStat, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GamblingStat), args.Error(1)
}

func (m *MockAnalyticsStore) RecordTaxRevenue(ctx context.Context, source models.TaxSource, amount int64, notes string) error {
	args := m.Called(ctx, source, amount, notes)
	return args.Error(0)
}

func (m *MockAnalyticsStore) TotalTaxRevenue(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAnalyticsStore) CreateMarket(ctx context.Context, question, createdBy string) (*models.Market, error) {
	args := m.Called(ctx, question, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Market), args.Error(1)
}

func (m *MockAnalyticsStore) AddMarketOption(ctx context.Context, marketID int64, text string) (*models.MarketOption, error) {
	args := m.Called(ctx, marketID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MarketOption), args.Error(1)
}

func (m *MockAnalyticsStore) OpenMarket(ctx context.Context, marketID int64) (*models.Market, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Market), args.Error(1)
}

func (m *MockAnalyticsStore) GetMarketDetail(ctx context.Context, marketID int64) (*models.MarketDetail, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MarketDetail), args.Error(1)
}

func (m *MockAnalyticsStore) InsertMarketBet(ctx context.Context, bet *models.MarketBet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockAnalyticsStore) CloseMarket(ctx context.Context, marketID int64, status models.MarketStatus, winningOption *int) (*models.MarketDetail, error) {
	args := m.Called(ctx, marketID, status, winningOption)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MarketDetail), args.Error(1)
}

// MockRateGate is a mock implementation of RateGate
type MockRateGate struct {
	mock.Mock
}

func (m *MockRateGate) Allow(accountID string) bool {
	args := m.Called(accountID)
	return args.Bool(0)
}

func (m *MockRateGate) TimeUntilAllowed(accountID string) time.Duration {
	args := m.Called(accountID)
	return args.Get(0).(time.Duration)
}

// MockConfirmationGuard is a mock implementation of ConfirmationGuard
type MockConfirmationGuard struct {
	mock.Mock
}

func (m *MockConfirmationGuard) Require(ctx context.Context, accountID string, amount int64) error {
	args := m.Called(ctx, accountID, amount)
	return args.Error(0)
}
