package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParimutuelPayouts_Proportional(t *testing.T) {
	bets := []*MarketBet{
		{AccountID: "alice", OptionIndex: 1, Amount: 100},
		{AccountID: "bob", OptionIndex: 1, Amount: 200},
		{AccountID: "carol", OptionIndex: 2, Amount: 700},
	}

	payouts, totalPool, winningPool, remainder := ParimutuelPayouts(bets, 1)

	assert.Equal(t, int64(1000), totalPool)
	assert.Equal(t, int64(300), winningPool)
	assert.Equal(t, int64(1), remainder)

	require.Len(t, payouts, 2)
	assert.Equal(t, "alice", payouts[0].AccountID)
	assert.Equal(t, int64(333), payouts[0].Payout)
	assert.Equal(t, "bob", payouts[1].AccountID)
	assert.Equal(t, int64(666), payouts[1].Payout)
}

func TestParimutuelPayouts_EqualStakes(t *testing.T) {
	bets := []*MarketBet{
		{AccountID: "a", OptionIndex: 1, Amount: 100},
		{AccountID: "b", OptionIndex: 1, Amount: 100},
		{AccountID: "c", OptionIndex: 1, Amount: 100},
		{AccountID: "d", OptionIndex: 2, Amount: 700},
	}

	payouts, totalPool, _, remainder := ParimutuelPayouts(bets, 1)

	assert.Equal(t, int64(1000), totalPool)
	assert.Equal(t, int64(1), remainder)
	require.Len(t, payouts, 3)
	for _, p := range payouts {
		assert.Equal(t, int64(333), p.Payout)
	}
}

func TestParimutuelPayouts_SingleWinnerTakesPool(t *testing.T) {
	bets := []*MarketBet{
		{AccountID: "alice", OptionIndex: 1, Amount: 50},
		{AccountID: "bob", OptionIndex: 2, Amount: 950},
	}

	payouts, totalPool, winningPool, remainder := ParimutuelPayouts(bets, 1)

	assert.Equal(t, int64(1000), totalPool)
	assert.Equal(t, int64(50), winningPool)
	assert.Equal(t, int64(0), remainder)
	require.Len(t, payouts, 1)
	assert.Equal(t, int64(1000), payouts[0].Payout)
}

func TestParimutuelPayouts_EmptyWinningPool(t *testing.T) {
	bets := []*MarketBet{
		{AccountID: "alice", OptionIndex: 2, Amount: 400},
		{AccountID: "bob", OptionIndex: 3, Amount: 100},
	}

	payouts, totalPool, winningPool, remainder := ParimutuelPayouts(bets, 1)

	assert.Empty(t, payouts)
	assert.Equal(t, int64(500), totalPool)
	assert.Equal(t, int64(0), winningPool)
	assert.Equal(t, int64(500), remainder)
}

func TestParimutuelPayouts_MultipleBetsSameAccount(t *testing.T) {
	bets := []*MarketBet{
		{AccountID: "alice", OptionIndex: 1, Amount: 100},
		{AccountID: "alice", OptionIndex: 1, Amount: 100},
		{AccountID: "bob", OptionIndex: 2, Amount: 300},
	}

	payouts, totalPool, winningPool, remainder := ParimutuelPayouts(bets, 1)

	// Stakes accumulate per account before distribution.
	require.Len(t, payouts, 1)
	assert.Equal(t, int64(200), payouts[0].Staked)
	assert.Equal(t, int64(500), payouts[0].Payout)
	assert.Equal(t, int64(500), totalPool)
	assert.Equal(t, int64(200), winningPool)
	assert.Equal(t, int64(0), remainder)
}

func TestParimutuelPayouts_NoBets(t *testing.T) {
	payouts, totalPool, winningPool, remainder := ParimutuelPayouts(nil, 1)

	assert.Empty(t, payouts)
	assert.Equal(t, int64(0), totalPool)
	assert.Equal(t, int64(0), winningPool)
	assert.Equal(t, int64(0), remainder)
}
