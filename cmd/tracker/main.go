package main

import (
	"AssocVerify/internal/adapters/eventbus"
	"AssocVerify/internal/adapters/notify"
	"AssocVerify/internal/adapters/statusclient"
	"AssocVerify/internal/adapters/telegram"
	"AssocVerify/internal/core/domain"
	"AssocVerify/internal/scheduler"
	"AssocVerify/internal/shared/config"
	"AssocVerify/internal/shared/logger"
	"AssocVerify/internal/verification"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateTracker()
	}
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	baseLogger := logger.New(cfg.IsDev(), "tracker")
	os.Exit(run(cfg, &baseLogger))
}

func run(cfg *config.Config, baseLogger *zerolog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Start the event loop every session callback runs on
	loop := scheduler.NewLoop(baseLogger)
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(loopCtx) }()
	defer func() {
		stopLoop()
		<-loopDone
	}()

	// 4. Status API client
	client, err := statusclient.New(statusclient.Options{
		BaseURL: cfg.StatusAPI.BaseURL,
		Timeout: cfg.StatusAPI.Timeout,
	}, baseLogger)
	if err != nil {
		baseLogger.Error().Err(err).Msg("Failed to create status api client")
		return 1
	}

	// 5. Submit a registration or follow an existing one
	initial := domain.VerificationRecord{
		ID:     domain.AssociationID(cfg.Tracker.AssociationID),
		Status: domain.VerificationPending,
	}
	if initial.ID == "" {
		rec, err := client.Submit(ctx, domain.RegistrationRequest{
			Name:         cfg.Tracker.Name,
			ContactEmail: cfg.Tracker.ContactEmail,
		})
		if err != nil {
			baseLogger.Error().Err(err).Msg("Registration failed")
			return 1
		}
		initial = *rec
	}

	// 6. Notifiers
	bus := eventbus.NewInMemoryEventBus(baseLogger)
	defer bus.Wait()
	notifiers := notify.Fanout{notify.NewLogNotifier(baseLogger)}
	if cfg.Telegram.Token != "" {
		api, err := telegram.Connect(cfg.Telegram.Token, cfg.IsDev(), baseLogger)
		if err != nil {
			baseLogger.Error().Err(err).Msg("Failed to connect to Telegram, continuing without it")
		} else {
			relay := notify.NewTelegramRelay(telegram.NewClient(api, baseLogger), cfg.Telegram.ChatID, baseLogger)
			relay.Register(bus)
			notifiers = append(notifiers, notify.NewBusNotifier(bus, initial.ID, baseLogger))
		}
	}

	// 7. Track
	session, err := verification.NewSession(initial.ID, loop, client, notifiers, cfg.Policy(), baseLogger)
	if err != nil {
		baseLogger.Error().Err(err).Msg("Failed to create verification session")
		return 1
	}
	defer session.Close()

	if err := session.Begin(ctx, initial); err != nil {
		baseLogger.Error().Err(err).Msg("Failed to start verification tracking")
		return 1
	}

	select {
	case <-session.Done():
	case <-ctx.Done():
		baseLogger.Info().Msg("Interrupted, stopping verification tracking")
		return 130
	}

	return exitCode(session.Snapshot(), baseLogger)
}

func exitCode(snap verification.Snapshot, log *zerolog.Logger) int {
	log.Info().
		Str("association_id", snap.ID.String()).
		Str("outcome", string(snap.Outcome)).
		Int("attempts", snap.State.AttemptCount).
		Msg("Verification tracking finished")

	switch snap.Outcome {
	case verification.OutcomeVerified:
		return 0
	case verification.OutcomeFailed:
		return 2
	default:
		return 3
	}
}
