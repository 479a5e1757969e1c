// Package confirm implements the large-transaction confirmation guard.
// Amounts below the threshold proceed immediately; at or above it, an
// injected prompter must approve within a bounded timeout. Decline and
// timeout both surface as Cancelled and are indistinguishable downstream.
// The guard never touches the balance store.
package confirm

import (
	"context"
	"fmt"
	"time"

	"bursar/service"

	log "github.com/sirupsen/logrus"
)

// Prompt describes the pending transaction a human is asked to approve.
type Prompt struct {
	AccountID string
	Amount    int64
}

// Prompter obtains an explicit human confirmation. Implementations live in
// the command/UI layer; the returned bool is the human's answer.
type Prompter interface {
	Confirm(ctx context.Context, prompt Prompt) (bool, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, prompt Prompt) (bool, error)

func (f PrompterFunc) Confirm(ctx context.Context, prompt Prompt) (bool, error) {
	return f(ctx, prompt)
}

// DenyAll is the fallback prompter: every large transaction is cancelled.
// Wiring it keeps an unconfigured deployment fail-safe.
var DenyAll = PrompterFunc(func(ctx context.Context, prompt Prompt) (bool, error) {
	return false, nil
})

// Guard gates transactions at or above a threshold behind confirmation.
type Guard struct {
	threshold int64
	timeout   time.Duration
	prompter  Prompter
}

// NewGuard creates a guard with the given threshold and prompt timeout.
func NewGuard(threshold int64, timeout time.Duration, prompter Prompter) *Guard {
	if prompter == nil {
		prompter = DenyAll
	}
	return &Guard{
		threshold: threshold,
		timeout:   timeout,
		prompter:  prompter,
	}
}

// Require returns nil when the transaction may proceed. Amounts below the
// threshold pass without prompting; otherwise the prompter must approve
// within the timeout. Decline, timeout, and prompter failure all map to
// ErrCancelled with state guaranteed unchanged.
func (g *Guard) Require(ctx context.Context, accountID string, amount int64) error {
	if amount < g.threshold {
		return nil
	}

	promptCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	approved, err := g.prompter.Confirm(promptCtx, Prompt{AccountID: accountID, Amount: amount})
	if err != nil {
		log.WithFields(log.Fields{
			"account": accountID,
			"amount":  amount,
			"error":   err,
		}).Warn("Confirmation prompt did not complete")
		return fmt.Errorf("confirmation of %d for account %s: %w", amount, accountID, service.ErrCancelled)
	}
	if !approved {
		return fmt.Errorf("confirmation of %d for account %s: %w", amount, accountID, service.ErrCancelled)
	}

	return nil
}
