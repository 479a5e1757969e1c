package repository

import (
	"context"
	"sync"
	"testing"

	"bursar/repository/testutil"
	"bursar/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceRepository_GetBalance(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBalanceRepository(testDB.DB)

	testutil.SeedAccount(t, testDB, "alice", 1000)

	balance, err := repo.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	_, err = repo.GetBalance(ctx, "nobody")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestBalanceRepository_SetBalance(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBalanceRepository(testDB.DB)

	testutil.SeedAccount(t, testDB, "alice", 200)

	prior, err := repo.SetBalance(ctx, "alice", 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(200), prior)

	balance, err := repo.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance)

	_, err = repo.SetBalance(ctx, "alice", -1)
	assert.ErrorIs(t, err, service.ErrInvalidAmount)
}

func TestBalanceRepository_AddBalance(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBalanceRepository(testDB.DB)

	testutil.SeedAccount(t, testDB, "alice", 100)

	result, err := repo.AddBalance(ctx, "alice", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(100), result.Before)
	assert.Equal(t, int64(150), result.After)

	result, err = repo.AddBalance(ctx, "alice", -150)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.After)

	// A debit below zero aborts and changes nothing.
	_, err = repo.AddBalance(ctx, "alice", -1)
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)

	balance, err := repo.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestBalanceRepository_Transfer(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBalanceRepository(testDB.DB)

	testutil.SeedAccount(t, testDB, "alice", 1000)
	testutil.SeedAccount(t, testDB, "bob", 100)

	result, err := repo.Transfer(ctx, "alice", "bob", 250)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), result.FromBefore)
	assert.Equal(t, int64(750), result.FromAfter)
	assert.Equal(t, int64(100), result.ToBefore)
	assert.Equal(t, int64(350), result.ToAfter)

	aliceBalance, err := repo.GetBalance(ctx, "alice")
	require.NoError(t, err)
	bobBalance, err := repo.GetBalance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(750), aliceBalance)
	assert.Equal(t, int64(350), bobBalance)
}

func TestBalanceRepository_Transfer_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBalanceRepository(testDB.DB)

	testutil.SeedAccount(t, testDB, "alice", 100)
	testutil.SeedAccount(t, testDB, "bob", 0)

	_, err := repo.Transfer(ctx, "alice", "bob", 101)
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)

	// Neither side moved.
	aliceBalance, err := repo.GetBalance(ctx, "alice")
	require.NoError(t, err)
	bobBalance, err := repo.GetBalance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(100), aliceBalance)
	assert.Equal(t, int64(0), bobBalance)
}

func TestBalanceRepository_Transfer_MissingRecipient(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBalanceRepository(testDB.DB)

	testutil.SeedAccount(t, testDB, "alice", 100)

	_, err := repo.Transfer(ctx, "alice", "nobody", 50)
	assert.ErrorIs(t, err, service.ErrNotFound)

	balance, err := repo.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestBalanceRepository_SettleTransfer(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBalanceRepository(testDB.DB)

	testutil.SeedAccount(t, testDB, "loser", 500)
	testutil.SeedAccount(t, testDB, "winner", 500)

	// Debit 100, credit 95: the 5 difference leaves circulation.
	result, err := repo.SettleTransfer(ctx, "loser", "winner", 100, 95)
	require.NoError(t, err)
	assert.Equal(t, int64(400), result.FromAfter)
	assert.Equal(t, int64(595), result.ToAfter)

	_, err = repo.SettleTransfer(ctx, "loser", "winner", 100, 101)
	assert.ErrorIs(t, err, service.ErrInvalidAmount)

	_, err = repo.SettleTransfer(ctx, "loser", "winner", 0, 0)
	assert.ErrorIs(t, err, service.ErrInvalidAmount)
}

func TestBalanceRepository_ConcurrentOppositeTransfers(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBalanceRepository(testDB.DB)

	testutil.SeedAccount(t, testDB, "alice", 10000)
	testutil.SeedAccount(t, testDB, "bob", 10000)

	// Opposite-direction transfers between the same pair must not
	// deadlock; both rows are always locked in the same order.
	const rounds = 25
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := repo.Transfer(ctx, "alice", "bob", 10)
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := repo.Transfer(ctx, "bob", "alice", 10)
			assert.NoError(t, err)
		}
	}()

	wg.Wait()

	// Equal flows in both directions: the totals are conserved and
	// unchanged.
	aliceBalance, err := repo.GetBalance(ctx, "alice")
	require.NoError(t, err)
	bobBalance, err := repo.GetBalance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), aliceBalance)
	assert.Equal(t, int64(10000), bobBalance)
}
