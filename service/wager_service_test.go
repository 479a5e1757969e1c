package service

import (
	"context"
	"testing"
	"time"

	"bursar/config"
	"bursar/events"
	"bursar/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestWagerService(balances *MockBalanceStore, analytics *MockAnalyticsStore) *wagerService {
	cfg := &config.Config{
		WagerTaxRate:     0.05,
		ChallengeTimeout: 5 * time.Minute,
	}
	return NewWagerService(balances, analytics, events.NewBus(), cfg).(*wagerService)
}

func TestWagerService_Propose(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := newTestWagerService(mockBalances, mockAnalytics)

	mockBalances.On("GetBalance", ctx, "alice").Return(int64(500), nil)
	mockBalances.On("GetBalance", ctx, "bob").Return(int64(500), nil)

	challenge, err := service.Propose(ctx, "alice", "bob", 100)

	require.NoError(t, err)
	assert.NotEmpty(t, challenge.ID)
	assert.Equal(t, "alice", challenge.Challenger)
	assert.Equal(t, "bob", challenge.Opponent)
	assert.Equal(t, int64(100), challenge.Amount)
	assert.Equal(t, models.ChallengeStatePending, challenge.State)
	assert.True(t, challenge.ExpiresAt.After(challenge.CreatedAt))

	mockBalances.AssertExpectations(t)
}

func TestWagerService_Propose_Validation(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := newTestWagerService(mockBalances, mockAnalytics)

	_, err := service.Propose(ctx, "alice", "bob", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = service.Propose(ctx, "alice", "alice", 100)
	assert.Error(t, err)

	mockBalances.On("GetBalance", ctx, "alice").Return(int64(50), nil)
	_, err = service.Propose(ctx, "alice", "bob", 100)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestWagerService_Propose_OpponentCannotCover(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := newTestWagerService(mockBalances, mockAnalytics)

	mockBalances.On("GetBalance", ctx, "alice").Return(int64(500), nil)
	mockBalances.On("GetBalance", ctx, "bob").Return(int64(20), nil)

	_, err := service.Propose(ctx, "alice", "bob", 100)

	assert.ErrorIs(t, err, ErrInsufficientFunds)

	var fundsErr *InsufficientFundsError
	require.ErrorAs(t, err, &fundsErr)
	assert.Equal(t, "bob", fundsErr.Account)
}

func TestWagerService_Accept_ChallengerWins(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := newTestWagerService(mockBalances, mockAnalytics)
	service.flip = func() bool { return true } // challenger wins

	mockBalances.On("GetBalance", ctx, "alice").Return(int64(500), nil)
	mockBalances.On("GetBalance", ctx, "bob").Return(int64(500), nil)

	challenge, err := service.Propose(ctx, "alice", "bob", 100)
	require.NoError(t, err)

	// 100 at 5% tax: loser pays 100, winner receives 95, 5 burned.
	transfer := &models.TransferResult{
		From: "bob", To: "alice", Amount: 100,
		FromBefore: 500, FromAfter: 400,
		ToBefore: 500, ToAfter: 595,
	}
	mockBalances.On("SettleTransfer", ctx, "bob", "alice", int64(100), int64(95)).Return(transfer, nil)

	mockAnalytics.On("RecordMutation", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.Type == models.MutationTypeWagerSettle &&
			*e.FromAccount == "bob" && *e.ToAccount == "alice"
	})).Return(nil)
	mockAnalytics.On("RecordTaxRevenue", ctx, models.TaxSourceWager, int64(5), mock.AnythingOfType("string")).Return(nil)
	mockAnalytics.On("ApplyStatDelta", ctx, mock.MatchedBy(func(d models.StatDelta) bool {
		return d.AccountID == "alice" && d.Won && d.Amount == 95
	})).Return(nil)
	mockAnalytics.On("ApplyStatDelta", ctx, mock.MatchedBy(func(d models.StatDelta) bool {
		return d.AccountID == "bob" && !d.Won && d.Amount == 100
	})).Return(nil)

	result, err := service.Accept(ctx, challenge.ID, "bob")

	require.NoError(t, err)
	assert.Equal(t, "alice", result.Winner)
	assert.Equal(t, "bob", result.Loser)
	assert.Equal(t, int64(100), result.Amount)
	assert.Equal(t, int64(5), result.Tax)
	assert.Equal(t, int64(95), result.Payout)

	// A settled challenge is gone.
	_, err = service.GetChallenge(ctx, challenge.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	mockBalances.AssertExpectations(t)
	mockAnalytics.AssertExpectations(t)
}

func TestWagerService_Accept_AcceptorWins(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := newTestWagerService(mockBalances, mockAnalytics)
	service.flip = func() bool { return false } // acceptor wins

	mockBalances.On("GetBalance", ctx, "alice").Return(int64(500), nil)
	mockBalances.On("GetBalance", ctx, "bob").Return(int64(500), nil)

	challenge, err := service.Propose(ctx, "alice", "bob", 60)
	require.NoError(t, err)

	// floor(60 * 0.05) = 3 tax, 57 payout.
	transfer := &models.TransferResult{
		From: "alice", To: "bob", Amount: 60,
		FromBefore: 500, FromAfter: 440,
		ToBefore: 500, ToAfter: 557,
	}
	mockBalances.On("SettleTransfer", ctx, "alice", "bob", int64(60), int64(57)).Return(transfer, nil)
	mockAnalytics.On("RecordMutation", ctx, mock.Anything).Return(nil)
	mockAnalytics.On("RecordTaxRevenue", ctx, models.TaxSourceWager, int64(3), mock.AnythingOfType("string")).Return(nil)
	mockAnalytics.On("ApplyStatDelta", ctx, mock.Anything).Return(nil).Times(2)

	result, err := service.Accept(ctx, challenge.ID, "bob")

	require.NoError(t, err)
	assert.Equal(t, "bob", result.Winner)
	assert.Equal(t, "alice", result.Loser)
	assert.Equal(t, int64(3), result.Tax)
	assert.Equal(t, int64(57), result.Payout)

	mockBalances.AssertExpectations(t)
}

func TestWagerService_Accept_RevalidationAborts(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := newTestWagerService(mockBalances, mockAnalytics)

	mockBalances.On("GetBalance", ctx, "alice").Return(int64(500), nil).Once()
	mockBalances.On("GetBalance", ctx, "bob").Return(int64(500), nil).Once()

	challenge, err := service.Propose(ctx, "alice", "bob", 100)
	require.NoError(t, err)

	// Alice spent her balance between proposal and acceptance.
	mockBalances.On("GetBalance", ctx, "alice").Return(int64(10), nil).Once()

	result, err := service.Accept(ctx, challenge.ID, "bob")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	mockBalances.AssertNotCalled(t, "SettleTransfer")

	// An aborted settlement leaves the challenge open for a later accept.
	pending, err := service.GetChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeStatePending, pending.State)
}

func TestWagerService_Accept_OpenChallenge(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := newTestWagerService(mockBalances, mockAnalytics)
	service.flip = func() bool { return true }

	mockBalances.On("GetBalance", ctx, "alice").Return(int64(500), nil)

	challenge, err := service.Propose(ctx, "alice", "", 20)
	require.NoError(t, err)

	// The challenger cannot take their own open challenge.
	_, err = service.Accept(ctx, challenge.ID, "alice")
	assert.ErrorIs(t, err, ErrInvalidState)

	mockBalances.On("GetBalance", ctx, "carol").Return(int64(500), nil)
	transfer := &models.TransferResult{
		From: "carol", To: "alice", Amount: 20,
		FromBefore: 500, FromAfter: 480,
		ToBefore: 500, ToAfter: 519,
	}
	mockBalances.On("SettleTransfer", ctx, "carol", "alice", int64(20), int64(19)).Return(transfer, nil)
	mockAnalytics.On("RecordMutation", ctx, mock.Anything).Return(nil)
	mockAnalytics.On("RecordTaxRevenue", ctx, models.TaxSourceWager, int64(1), mock.AnythingOfType("string")).Return(nil)
	mockAnalytics.On("ApplyStatDelta", ctx, mock.Anything).Return(nil).Times(2)

	result, err := service.Accept(ctx, challenge.ID, "carol")

	require.NoError(t, err)
	assert.Equal(t, "alice", result.Winner)
	assert.Equal(t, "carol", result.Loser)
}

func TestWagerService_Accept_Expired(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := newTestWagerService(mockBalances, mockAnalytics)

	mockBalances.On("GetBalance", ctx, "alice").Return(int64(500), nil)
	mockBalances.On("GetBalance", ctx, "bob").Return(int64(500), nil)

	challenge, err := service.Propose(ctx, "alice", "bob", 100)
	require.NoError(t, err)

	// Age the challenge past its deadline.
	service.mu.Lock()
	service.challenges[challenge.ID].challenge.ExpiresAt = time.Now().Add(-time.Second)
	service.mu.Unlock()

	result, err := service.Accept(ctx, challenge.ID, "bob")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidState)
	mockBalances.AssertNotCalled(t, "SettleTransfer")
}

func TestWagerService_Accept_NotFound(t *testing.T) {
	ctx := context.Background()

	service := newTestWagerService(new(MockBalanceStore), new(MockAnalyticsStore))

	result, err := service.Accept(ctx, "no-such-id", "bob")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWagerService_Decline(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := newTestWagerService(mockBalances, mockAnalytics)

	mockBalances.On("GetBalance", ctx, "alice").Return(int64(500), nil)
	mockBalances.On("GetBalance", ctx, "bob").Return(int64(500), nil)

	challenge, err := service.Propose(ctx, "alice", "bob", 100)
	require.NoError(t, err)

	// A third party has no say.
	err = service.Decline(ctx, challenge.ID, "carol")
	assert.Error(t, err)

	err = service.Decline(ctx, challenge.ID, "bob")
	assert.NoError(t, err)

	_, err = service.GetChallenge(ctx, challenge.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWagerService_ExpireStale(t *testing.T) {
	ctx := context.Background()

	mockBalances := new(MockBalanceStore)
	mockAnalytics := new(MockAnalyticsStore)
	service := newTestWagerService(mockBalances, mockAnalytics)

	mockBalances.On("GetBalance", ctx, mock.AnythingOfType("string")).Return(int64(500), nil)

	stale, err := service.Propose(ctx, "alice", "bob", 100)
	require.NoError(t, err)
	fresh, err := service.Propose(ctx, "carol", "", 50)
	require.NoError(t, err)

	service.mu.Lock()
	service.challenges[stale.ID].challenge.ExpiresAt = time.Now().Add(-time.Minute)
	service.mu.Unlock()

	expired := service.ExpireStale(ctx, time.Now())

	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)
	assert.Equal(t, models.ChallengeStateExpired, expired[0].State)

	_, err = service.GetChallenge(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = service.GetChallenge(ctx, fresh.ID)
	assert.NoError(t, err)
}
