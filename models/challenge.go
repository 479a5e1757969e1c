package models

import (
	"time"
)

// ChallengeState represents the state of a coinflip challenge
type ChallengeState string

const (
	ChallengeStatePending  ChallengeState = "pending"
	ChallengeStateSettled  ChallengeState = "settled"
	ChallengeStateDeclined ChallengeState = "declined"
	ChallengeStateExpired  ChallengeState = "expired"
)

// Challenge is an ephemeral coinflip wager. It holds no funds and carries no
// financial consequence until accepted, so it lives only in process memory.
type Challenge struct {
	ID         string
	Challenger string
	Opponent   string // empty for an open challenge anyone may accept
	Amount     int64
	State      ChallengeState
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// IsOpen reports whether the challenge has no named opponent.
func (c *Challenge) IsOpen() bool {
	return c.Opponent == ""
}

// IsExpired reports whether the challenge deadline has passed.
func (c *Challenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// CanBeAcceptedBy checks whether the given account may accept the challenge.
// The challenger can never accept their own challenge; a targeted challenge
// only admits the named opponent.
func (c *Challenge) CanBeAcceptedBy(accountID string) bool {
	if c.State != ChallengeStatePending || accountID == c.Challenger {
		return false
	}
	return c.IsOpen() || c.Opponent == accountID
}

// ChallengeResult represents a settled coinflip.
type ChallengeResult struct {
	Challenge *Challenge
	Winner    string
	Loser     string
	Amount    int64
	Tax       int64
	Payout    int64
	Transfer  *TransferResult
}
