// Package bot implements the core orchestration: per-account pipeline
// streams, the Telegram transport, and the task scheduler, all tied to
// one lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ostapv/leadwatch/internal/telegram"
)

// Bot owns the run loop: it starts Telegram polling for every account,
// one pipeline stream per account, and the scheduler, then waits for
// shutdown.
type Bot struct {
	logger    *slog.Logger
	adapter   *telegram.Adapter
	pipeline  *Pipeline
	scheduler *Scheduler
	accounts  []string
}

// NewBot creates the orchestrator over already-constructed components.
func NewBot(logger *slog.Logger, adapter *telegram.Adapter, pipeline *Pipeline, scheduler *Scheduler, accounts []string) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		adapter:   adapter,
		pipeline:  pipeline,
		scheduler: scheduler,
		accounts:  accounts,
	}
}

// Run starts all components and blocks until the context is cancelled
// or a component fails. In-flight dispatch calls complete before the
// streams exit.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...", "accounts", len(b.accounts))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := b.adapter.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("telegram transport stopped: %w", err)
		}
		return nil
	})

	for _, accountID := range b.accounts {
		accountID := accountID
		events := b.adapter.Events(accountID)
		if events == nil {
			return fmt.Errorf("no event stream for account %q", accountID)
		}
		g.Go(func() error {
			return b.pipeline.Run(gCtx, accountID, events)
		})
	}

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
