package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmhodges/clock"

	"trackerbot/internal/bot"
	"trackerbot/internal/bot/handlers"
	"trackerbot/internal/builder"
	"trackerbot/internal/config"
	"trackerbot/internal/countup"
	"trackerbot/internal/database"
	"trackerbot/internal/logger"
	"trackerbot/internal/reminder"
	"trackerbot/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURI == "" {
		log.Fatal("DATABASE_URI is required")
	}
	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN is required")
	}

	zlog, sync, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		zlog.Fatalw("failed to connect to database", "err", err)
	}
	defer db.Close()
	zlog.Info("connected to database")

	if err := db.Migrate(ctx); err != nil {
		zlog.Fatalw("failed to run migrations", "err", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		zlog.Fatalw("failed to create telegram client", "err", err)
	}
	api.Debug = cfg.Debug
	zlog.Infow("authorized on telegram", "account", api.Self.UserName)

	clk := clock.New()
	store := repository.NewStore(db)
	users := repository.NewUserRepository(db.Pool)
	channel := bot.NewChannel(api, zlog)

	engine := reminder.NewService(store, users, channel, clk, zlog)
	builderSvc := builder.NewService(store, users, clk, zlog)
	countUps := countup.NewService(repository.NewCountUpStore(db), clk, zlog)

	h := handlers.New(api, &handlers.Deps{
		Engine:    engine,
		Builder:   builderSvc,
		CountUps:  countUps,
		Users:     users,
		Reminders: repository.NewReminderRepository(db.Pool),
		OneTime:   repository.NewOneTimeReminderRepository(db.Pool),
	}, clk, zlog)

	go engine.Run(ctx, cfg.DispatchInterval)

	b := bot.New(api, h, repository.NewPersistentConfigRepository(db.Pool), zlog)
	b.Run(ctx, cfg.DrainInterval)
}
