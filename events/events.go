package events

import (
	"context"
	"sync"

	"bursar/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange    EventType = "balance_change"
	EventTypeWagerSettled     EventType = "wager_settled"
	EventTypeMarketResolved   EventType = "market_resolved"
	EventTypeMarketCancelled  EventType = "market_cancelled"
	EventTypeChallengeExpired EventType = "challenge_expired"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a committed balance mutation
type BalanceChangeEvent struct {
	AccountID    string
	OldBalance   int64
	NewBalance   int64
	MutationType models.MutationType
	ChangeAmount int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// WagerSettledEvent represents a settled coinflip challenge
type WagerSettledEvent struct {
	ChallengeID string
	Winner      string
	Loser       string
	Amount      int64
	Tax         int64
	Payout      int64
}

func (e WagerSettledEvent) Type() EventType {
	return EventTypeWagerSettled
}

// MarketResolvedEvent represents a resolved prediction market
type MarketResolvedEvent struct {
	MarketID      int64
	WinningOption int
	TotalPool     int64
	WinningPool   int64
	Remainder     int64
}

func (e MarketResolvedEvent) Type() EventType {
	return EventTypeMarketResolved
}

// MarketCancelledEvent represents a cancelled prediction market
type MarketCancelledEvent struct {
	MarketID int64
	Refunded int64
}

func (e MarketCancelledEvent) Type() EventType {
	return EventTypeMarketCancelled
}

// ChallengeExpiredEvent represents a coinflip challenge that expired
// unaccepted; no funds moved.
type ChallengeExpiredEvent struct {
	ChallengeID string
	Challenger  string
	Amount      int64
}

func (e ChallengeExpiredEvent) Type() EventType {
	return EventTypeChallengeExpired
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously so a slow subscriber never blocks settlement.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}
