package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"bursar/config"
	"bursar/events"
	"bursar/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// challengeEntry wraps a challenge with a claim flag so two concurrent
// accepts cannot both settle the same coinflip.
type challengeEntry struct {
	challenge *models.Challenge
	claimed   bool
}

type wagerService struct {
	balances  BalanceStore
	analytics AnalyticsStore
	bus       *events.Bus
	cfg       *config.Config

	mu         sync.Mutex
	challenges map[string]*challengeEntry

	// flip returns true when the challenger wins; overridable in tests
	flip func() bool
}

// NewWagerService creates a new coinflip wager service
func NewWagerService(balances BalanceStore, analytics AnalyticsStore, bus *events.Bus, cfg *config.Config) WagerService {
	return &wagerService{
		balances:   balances,
		analytics:  analytics,
		bus:        bus,
		cfg:        cfg,
		challenges: make(map[string]*challengeEntry),
		flip:       func() bool { return rand.Intn(2) == 0 },
	}
}

// Propose creates a targeted or open challenge. An open challenge has an
// empty opponent and anyone but the challenger may accept it. The challenge
// escrows nothing; funds are re-validated at acceptance.
func (s *wagerService) Propose(ctx context.Context, challenger, opponent string, amount int64) (*models.Challenge, error) {
	if amount <= 0 {
		return nil, &InvalidAmountError{Amount: amount, Reason: "wager amount must be positive"}
	}
	if challenger == opponent {
		return nil, fmt.Errorf("cannot challenge yourself")
	}

	limits := s.cfg.Limits()

	// Reject challenges the challenger could not currently cover.
	balance, err := s.balances.GetBalance(ctx, challenger)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, &InsufficientFundsError{Account: challenger, Have: balance, Need: amount}
	}

	if opponent != "" {
		opponentBalance, err := s.balances.GetBalance(ctx, opponent)
		if err != nil {
			return nil, err
		}
		if opponentBalance < amount {
			return nil, &InsufficientFundsError{Account: opponent, Have: opponentBalance, Need: amount}
		}
	}

	now := time.Now()
	challenge := &models.Challenge{
		ID:         uuid.NewString(),
		Challenger: challenger,
		Opponent:   opponent,
		Amount:     amount,
		State:      models.ChallengeStatePending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(limits.ChallengeTimeout),
	}

	s.mu.Lock()
	s.challenges[challenge.ID] = &challengeEntry{challenge: challenge}
	s.mu.Unlock()

	return challenge, nil
}

// Accept settles a pending challenge. Both parties are re-validated against
// their current balances; any failure aborts before a single balance is
// touched. On timeout nothing moves: an expired challenge is a terminal
// no-op.
func (s *wagerService) Accept(ctx context.Context, challengeID, acceptor string) (*models.ChallengeResult, error) {
	challenge, err := s.claim(challengeID, acceptor)
	if err != nil {
		return nil, err
	}

	result, err := s.settle(ctx, challenge, acceptor)

	s.mu.Lock()
	entry := s.challenges[challengeID]
	if err != nil {
		// Settlement aborted with no mutation; the challenge stays open.
		entry.claimed = false
	} else {
		challenge.State = models.ChallengeStateSettled
		delete(s.challenges, challengeID)
	}
	s.mu.Unlock()

	return result, err
}

// claim atomically validates and reserves a pending challenge for
// settlement.
func (s *wagerService) claim(challengeID, acceptor string) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.challenges[challengeID]
	if !ok {
		return nil, &NotFoundError{Kind: "challenge", ID: challengeID}
	}

	challenge := entry.challenge
	if entry.claimed {
		return nil, &InvalidStateError{Kind: "challenge", ID: challengeID, State: "settling", Op: "accept"}
	}
	if challenge.IsExpired(time.Now()) {
		return nil, &InvalidStateError{Kind: "challenge", ID: challengeID, State: string(models.ChallengeStateExpired), Op: "accept"}
	}
	if !challenge.CanBeAcceptedBy(acceptor) {
		return nil, &InvalidStateError{Kind: "challenge", ID: challengeID, State: string(challenge.State), Op: "accept"}
	}

	entry.claimed = true
	return challenge, nil
}

func (s *wagerService) settle(ctx context.Context, challenge *models.Challenge, acceptor string) (*models.ChallengeResult, error) {
	amount := challenge.Amount
	limits := s.cfg.Limits()

	// Re-validate both parties: balances may have changed since proposal.
	for _, accountID := range []string{challenge.Challenger, acceptor} {
		balance, err := s.balances.GetBalance(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if balance < amount {
			return nil, &InsufficientFundsError{Account: accountID, Have: balance, Need: amount}
		}
	}

	winner, loser := challenge.Challenger, acceptor
	if !s.flip() {
		winner, loser = acceptor, challenge.Challenger
	}

	tax := int64(float64(amount) * limits.WagerTaxRate)
	payout := amount - tax

	// The loser is debited the full stake; the winner receives only the
	// tax-adjusted payout. The tax units fall out of circulation here.
	transfer, err := s.balances.SettleTransfer(ctx, loser, winner, amount, payout)
	if err != nil {
		return nil, err
	}

	result := &models.ChallengeResult{
		Challenge: challenge,
		Winner:    winner,
		Loser:     loser,
		Amount:    amount,
		Tax:       tax,
		Payout:    payout,
		Transfer:  transfer,
	}

	s.recordSettlement(ctx, result)

	s.bus.Emit(ctx, events.WagerSettledEvent{
		ChallengeID: challenge.ID,
		Winner:      winner,
		Loser:       loser,
		Amount:      amount,
		Tax:         tax,
		Payout:      payout,
	})

	return result, nil
}

// recordSettlement mirrors a committed settlement into the analytics store.
// Every write here is best-effort: the transfer is already authoritative.
func (s *wagerService) recordSettlement(ctx context.Context, result *models.ChallengeResult) {
	fields := log.Fields{
		"challenge": result.Challenge.ID,
		"winner":    result.Winner,
		"loser":     result.Loser,
	}

	entry := &models.LedgerEntry{
		Type:          models.MutationTypeWagerSettle,
		FromAccount:   &result.Loser,
		ToAccount:     &result.Winner,
		Amount:        result.Amount,
		BalanceBefore: &result.Transfer.FromBefore,
		BalanceAfter:  &result.Transfer.FromAfter,
		Notes:         fmt.Sprintf("coinflip %s, payout %d, tax %d", result.Challenge.ID, result.Payout, result.Tax),
	}
	if err := s.analytics.RecordMutation(ctx, entry); err != nil {
		log.WithFields(fields).WithError(err).Warn("Failed to record wager settlement")
	}

	if err := s.analytics.RecordTaxRevenue(ctx, models.TaxSourceWager, result.Tax, fmt.Sprintf("coinflip %s", result.Challenge.ID)); err != nil {
		log.WithFields(fields).WithError(err).Warn("Failed to record wager tax revenue")
	}

	deltas := []models.StatDelta{
		{AccountID: result.Winner, Game: models.GameKindCoinflip, Won: true, Wagered: result.Amount, Amount: result.Payout},
		{AccountID: result.Loser, Game: models.GameKindCoinflip, Won: false, Wagered: result.Amount, Amount: result.Amount},
	}
	for _, delta := range deltas {
		if err := s.analytics.ApplyStatDelta(ctx, delta); err != nil {
			log.WithFields(fields).WithError(err).Warn("Failed to update gambling stats")
		}
	}
}

// Decline removes a pending challenge without moving funds. The named
// opponent may decline a targeted challenge; the challenger may withdraw
// their own.
func (s *wagerService) Decline(ctx context.Context, challengeID, decliner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.challenges[challengeID]
	if !ok {
		return &NotFoundError{Kind: "challenge", ID: challengeID}
	}

	challenge := entry.challenge
	if entry.claimed || challenge.State != models.ChallengeStatePending {
		return &InvalidStateError{Kind: "challenge", ID: challengeID, State: string(challenge.State), Op: "decline"}
	}
	if decliner != challenge.Challenger && decliner != challenge.Opponent {
		return fmt.Errorf("only the challenger or the named opponent can decline challenge %s", challengeID)
	}

	challenge.State = models.ChallengeStateDeclined
	delete(s.challenges, challengeID)

	return nil
}

// GetChallenge returns a pending challenge by id
func (s *wagerService) GetChallenge(ctx context.Context, challengeID string) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.challenges[challengeID]
	if !ok {
		return nil, &NotFoundError{Kind: "challenge", ID: challengeID}
	}
	return entry.challenge, nil
}

// ExpireStale terminally expires pending challenges past their deadline.
// No funds move; expiry is a no-op beyond the state flip.
func (s *wagerService) ExpireStale(ctx context.Context, now time.Time) []*models.Challenge {
	s.mu.Lock()
	var expired []*models.Challenge
	for id, entry := range s.challenges {
		if !entry.claimed && entry.challenge.IsExpired(now) {
			entry.challenge.State = models.ChallengeStateExpired
			expired = append(expired, entry.challenge)
			delete(s.challenges, id)
		}
	}
	s.mu.Unlock()

	for _, challenge := range expired {
		s.bus.Emit(ctx, events.ChallengeExpiredEvent{
			ChallengeID: challenge.ID,
			Challenger:  challenge.Challenger,
			Amount:      challenge.Amount,
		})
	}

	return expired
}
