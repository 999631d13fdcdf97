// Package main contains the entrypoint for the leadwatch bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ostapv/leadwatch/internal/analytics"
	"github.com/ostapv/leadwatch/internal/bot"
	"github.com/ostapv/leadwatch/internal/bot/tasks"
	"github.com/ostapv/leadwatch/internal/classifier"
	"github.com/ostapv/leadwatch/internal/commands"
	"github.com/ostapv/leadwatch/internal/config"
	"github.com/ostapv/leadwatch/internal/database"
	"github.com/ostapv/leadwatch/internal/dedup"
	"github.com/ostapv/leadwatch/internal/dispatch"
	"github.com/ostapv/leadwatch/internal/enrich"
	"github.com/ostapv/leadwatch/internal/leads"
	"github.com/ostapv/leadwatch/internal/logger"
	"github.com/ostapv/leadwatch/internal/sink"
	"github.com/ostapv/leadwatch/internal/telegram"
	"github.com/ostapv/leadwatch/internal/throttle"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components, handles
// graceful shutdown, and returns an exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	// Optional .env for local development; env vars override YAML.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	archive := database.NewArchive(db, log)

	stateDir := cfg.State.Dir
	leadStore := leads.NewStore(filepath.Join(stateDir, "leads.json"), log)
	favorites := leads.NewFavorites(filepath.Join(stateDir, "favorites.json"), log)
	gate := dedup.New(filepath.Join(stateDir, "seen.json"), dedup.Options{
		MaxEntries:     cfg.Dedup.MaxEntries,
		MessageTTL:     cfg.Dedup.MessageTTL,
		FingerprintTTL: cfg.Dedup.FingerprintTTL,
	}, log)
	counters := throttle.New(filepath.Join(stateDir, "counters.json"), throttle.Limits{
		MinDMInterval:  cfg.Throttle.MinDMInterval,
		HourlyDMCap:    cfg.Throttle.HourlyDMCap,
		DailyDMCap:     cfg.Throttle.DailyDMCap,
		DailyInviteCap: cfg.Throttle.DailyInviteCap,
	}, log)
	aggregator := analytics.New(filepath.Join(stateDir, "analytics.json"), log)

	priority := parseCategories(cfg.Classifier.Priority, log)
	actionable := parseCategories(cfg.Classifier.Actionable, log)
	cls := classifier.New(priority)

	provider, err := enrich.NewProvider(ctx, cfg.Enrichment, log)
	if err != nil {
		log.Error("Failed to initialize enrichment provider", "provider", cfg.Enrichment.Provider, "error", err)
		return 1
	}
	analyzer := enrich.NewAnalyzer(cls, provider, cfg.Classifier.EnrichGate, cfg.Enrichment.Timeout, actionable, log)

	adapter, err := telegram.New(cfg.Telegram.Accounts, log)
	if err != nil {
		log.Error("Failed to create Telegram transport", "error", err)
		return 1
	}

	accountIDs := make([]string, 0, len(cfg.Telegram.Accounts))
	for _, ac := range cfg.Telegram.Accounts {
		accountIDs = append(accountIDs, ac.Name)
	}

	inviteGroup := resolveInviteGroup(ctx, adapter, accountIDs[0], cfg.Telegram.InviteGroup, log)
	warmUpChannels(ctx, adapter, accountIDs[0], cfg.Watch.Channels, log)

	dispatcher := dispatch.New(leadStore, favorites, counters, adapter, analyzer, inviteGroup, log)
	interpreter := commands.NewInterpreter(dispatcher, leadStore, aggregator, archive,
		cfg.Telegram.AdminIDs, cfg.Telegram.AdminHandles, log)

	pipeline := bot.NewPipeline(bot.PipelineDeps{
		Logger:          log,
		OperatorChatID:  cfg.Telegram.OperatorChatID,
		ActionThreshold: cfg.Classifier.ActionThreshold,
		Actionable:      actionable,
		Gate:            gate,
		Analyzer:        analyzer,
		Leads:           leadStore,
		Analytics:       aggregator,
		Archive:         archive,
		Commands:        interpreter,
		Notifier:        adapter,
	})

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:   log,
		Gate:     gate,
		Throttle: counters,
		Archive:  archive,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, adapter, pipeline, sched, accountIDs)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}

// parseCategories maps configured category names onto known categories,
// logging and skipping anything unrecognized.
func parseCategories(names []string, log *slog.Logger) []classifier.Category {
	if len(names) == 0 {
		return nil
	}
	out := make([]classifier.Category, 0, len(names))
	for _, name := range names {
		cat, ok := classifier.ParseCategory(name)
		if !ok {
			log.Warn("Unknown category in configuration, skipping", "category", name)
			continue
		}
		out = append(out, cat)
	}
	return out
}

// resolveInviteGroup resolves the configured invite group handle once
// at startup. A failure is not fatal: invites will report transport
// errors until the handle resolves.
func resolveInviteGroup(ctx context.Context, adapter *telegram.Adapter, accountID, handle string, log *slog.Logger) sink.GroupRef {
	if handle == "" {
		return sink.GroupRef{}
	}
	ref, err := adapter.ResolveChat(ctx, accountID, handle)
	if err != nil {
		log.Warn("Failed to resolve invite group at startup", "handle", handle, "error", err)
		return sink.GroupRef{Handle: handle}
	}
	log.Info("Invite group resolved", "handle", handle, "chat_id", ref.ID)
	return sink.GroupRef{ChatID: ref.ID, Handle: handle}
}

// warmUpChannels resolves the watch-list handles so the chat cache is
// populated before the first message arrives. Best effort only.
func warmUpChannels(ctx context.Context, adapter *telegram.Adapter, accountID string, channels []string, log *slog.Logger) {
	for _, handle := range channels {
		ref, err := adapter.ResolveChat(ctx, accountID, handle)
		if err != nil {
			log.Warn("Failed to resolve watched channel", "handle", handle, "error", err)
			continue
		}
		log.Info("Watched channel resolved", "handle", handle, "chat_id", ref.ID, "title", ref.Title)
	}
}
