package service

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the ledger taxonomy. Callers branch with errors.Is;
// the typed wrappers below carry the numeric context a caller needs to
// decide whether to retry.
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrCancelled         = errors.New("cancelled")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrRateLimited       = errors.New("rate limited")
	ErrNotLinked         = errors.New("platform user not linked to an account")
)

// InsufficientFundsError reports a debit that would take a balance negative.
type InsufficientFundsError struct {
	Account string
	Have    int64
	Need    int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds for account %s: have %d, need %d", e.Account, e.Have, e.Need)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// InvalidAmountError reports a malformed or out-of-range amount.
type InvalidAmountError struct {
	Amount int64
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %d: %s", e.Amount, e.Reason)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// NotFoundError reports an unknown account, market, or challenge.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidStateError reports an operation that is not valid for the current
// lifecycle state of a market or challenge.
type InvalidStateError struct {
	Kind  string
	ID    string
	State string
	Op    string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in state %s", e.Op, e.Kind, e.ID, e.State)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// RateLimitedError reports a transfer initiation rejected by the sliding
// window guard, with the wait until the window admits another.
type RateLimitedError struct {
	Account string
	RetryIn time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("account %s is rate limited, retry in %s", e.Account, e.RetryIn.Round(time.Millisecond))
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// StoreUnavailableError reports an unreachable underlying store.
type StoreUnavailableError struct {
	Store string
	Cause error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s store unavailable: %v", e.Store, e.Cause)
}

func (e *StoreUnavailableError) Unwrap() error { return ErrStoreUnavailable }
