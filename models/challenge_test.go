package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChallenge_CanBeAcceptedBy(t *testing.T) {
	targeted := &Challenge{Challenger: "alice", Opponent: "bob", State: ChallengeStatePending}
	assert.True(t, targeted.CanBeAcceptedBy("bob"))
	assert.False(t, targeted.CanBeAcceptedBy("alice"))
	assert.False(t, targeted.CanBeAcceptedBy("carol"))

	open := &Challenge{Challenger: "alice", State: ChallengeStatePending}
	assert.True(t, open.CanBeAcceptedBy("bob"))
	assert.True(t, open.CanBeAcceptedBy("carol"))
	assert.False(t, open.CanBeAcceptedBy("alice"))

	settled := &Challenge{Challenger: "alice", Opponent: "bob", State: ChallengeStateSettled}
	assert.False(t, settled.CanBeAcceptedBy("bob"))
}

func TestChallenge_IsExpired(t *testing.T) {
	now := time.Now()
	challenge := &Challenge{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, challenge.IsExpired(now))
	assert.False(t, challenge.IsExpired(now.Add(time.Minute)))
	assert.True(t, challenge.IsExpired(now.Add(time.Minute+time.Nanosecond)))
}
