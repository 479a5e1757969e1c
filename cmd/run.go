package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"bursar/analytics"
	"bursar/api"
	"bursar/config"
	"bursar/confirm"
	"bursar/database"
	"bursar/events"
	"bursar/ratelimit"
	"bursar/repository"
	"bursar/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting bursar...")

	// Load configuration
	cfg := config.Get()
	limits := cfg.Limits()

	// Initialize balance store connection
	log.Println("Connecting to balance store...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to balance store: %w", err)
	}
	log.Println("Balance store connection established")

	// Open the analytics store
	log.Println("Opening analytics store...")
	analyticsStore, err := analytics.Open(cfg.AnalyticsDBPath)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to open analytics store: %w", err)
	}
	log.Println("Analytics store opened")

	// Initialize event bus
	eventBus := events.NewBus()
	registerEventLogging(eventBus)

	// Initialize transfer guards
	gate := ratelimit.NewLimiter(limits.RateLimitWindow, limits.RateLimitMax)
	guard := confirm.NewGuard(limits.ConfirmThreshold, limits.ConfirmTimeout, nil)

	// Initialize services
	log.Println("Initializing services...")
	balanceRepo := repository.NewBalanceRepository(db)
	balanceService := service.NewBalanceService(balanceRepo, analyticsStore, eventBus)
	transferService := service.NewTransferService(balanceRepo, analyticsStore, gate, guard, eventBus)
	wagerService := service.NewWagerService(balanceRepo, analyticsStore, eventBus, cfg)
	marketService := service.NewMarketService(balanceRepo, analyticsStore, eventBus)
	statsService := service.NewStatsService(analyticsStore)
	log.Println("Services initialized")

	// Sweep expired coinflip challenges in the background
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				wagerService.ExpireStale(ctx, now)
			}
		}
	}()

	// Start the HTTP API
	handler := api.NewHandler(balanceService, transferService, wagerService, marketService, statsService, service.PassthroughResolver{})
	server := api.NewServer(cfg.HTTPAddr, handler)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("API listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.Printf("Running in %s mode...", cfg.Environment)

	select {
	case err := <-serverErr:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down API server: %v", err)
	}

	<-sweeperDone

	log.Println("Closing analytics store...")
	if err := analyticsStore.Close(); err != nil {
		log.Printf("Error closing analytics store: %v", err)
	}

	log.Println("Closing balance store connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}

// registerEventLogging subscribes a logging handler to every event type.
func registerEventLogging(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		e := event.(events.BalanceChangeEvent)
		log.Printf("balance change: account=%s %d -> %d (%s)", e.AccountID, e.OldBalance, e.NewBalance, e.MutationType)
	})
	bus.Subscribe(events.EventTypeWagerSettled, func(ctx context.Context, event events.Event) {
		e := event.(events.WagerSettledEvent)
		log.Printf("wager settled: %s winner=%s loser=%s amount=%d tax=%d", e.ChallengeID, e.Winner, e.Loser, e.Amount, e.Tax)
	})
	bus.Subscribe(events.EventTypeMarketResolved, func(ctx context.Context, event events.Event) {
		e := event.(events.MarketResolvedEvent)
		log.Printf("market resolved: id=%d option=%d pool=%d remainder=%d", e.MarketID, e.WinningOption, e.TotalPool, e.Remainder)
	})
	bus.Subscribe(events.EventTypeMarketCancelled, func(ctx context.Context, event events.Event) {
		e := event.(events.MarketCancelledEvent)
		log.Printf("market cancelled: id=%d refunded=%d", e.MarketID, e.Refunded)
	})
	bus.Subscribe(events.EventTypeChallengeExpired, func(ctx context.Context, event events.Event) {
		e := event.(events.ChallengeExpiredEvent)
		log.Printf("challenge expired: %s challenger=%s amount=%d", e.ChallengeID, e.Challenger, e.Amount)
	})
}
