package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_AllowsUpToMax(t *testing.T) {
	now := time.Now()
	limiter := NewLimiter(60*time.Second, 5)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("alice"), "call %d should be admitted", i+1)
	}
	assert.False(t, limiter.Allow("alice"), "sixth call inside the window must be rejected")
}

func TestLimiter_WindowSlides(t *testing.T) {
	now := time.Now()
	limiter := NewLimiter(60*time.Second, 5)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("alice"))
		now = now.Add(10 * time.Second)
	}

	// The window now holds events at t=0..40; at t=50 all five remain.
	assert.False(t, limiter.Allow("alice"))

	// At t=61 the first event has aged out.
	now = now.Add(11 * time.Second)
	assert.True(t, limiter.Allow("alice"))
}

func TestLimiter_PerAccountIsolation(t *testing.T) {
	now := time.Now()
	limiter := NewLimiter(60*time.Second, 2)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("alice"))
	assert.True(t, limiter.Allow("alice"))
	assert.False(t, limiter.Allow("alice"))

	// Another account's window is untouched.
	assert.True(t, limiter.Allow("bob"))
}

func TestLimiter_RejectionDoesNotConsume(t *testing.T) {
	now := time.Now()
	limiter := NewLimiter(60*time.Second, 1)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("alice"))
	for i := 0; i < 10; i++ {
		assert.False(t, limiter.Allow("alice"))
	}

	// The rejected calls recorded nothing: one window later the single
	// admitted event has aged out and a call goes through.
	now = now.Add(61 * time.Second)
	assert.True(t, limiter.Allow("alice"))
}

func TestLimiter_TimeUntilAllowed(t *testing.T) {
	now := time.Now()
	limiter := NewLimiter(60*time.Second, 2)
	limiter.now = func() time.Time { return now }

	assert.Equal(t, time.Duration(0), limiter.TimeUntilAllowed("alice"))

	assert.True(t, limiter.Allow("alice"))
	now = now.Add(15 * time.Second)
	assert.True(t, limiter.Allow("alice"))

	// The oldest event ages out 45 seconds from now.
	assert.Equal(t, 45*time.Second, limiter.TimeUntilAllowed("alice"))

	now = now.Add(45 * time.Second)
	assert.Equal(t, time.Duration(0), limiter.TimeUntilAllowed("alice"))
}
