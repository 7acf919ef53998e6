package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prodlog/voe-tracker/internal/bot"
	"github.com/prodlog/voe-tracker/internal/config"
	"github.com/prodlog/voe-tracker/internal/domain/closures"
	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/prodlog/voe-tracker/internal/export"
	"github.com/prodlog/voe-tracker/internal/infra/db"
	httpx "github.com/prodlog/voe-tracker/internal/infra/http"
	"github.com/prodlog/voe-tracker/internal/infra/logger"
	"github.com/prodlog/voe-tracker/internal/infra/notify"
	"github.com/prodlog/voe-tracker/internal/scheduler"
	"github.com/prodlog/voe-tracker/internal/tracking"
	"github.com/prodlog/voe-tracker/migrations"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	goose.SetBaseFS(migrations.FS)
	return goose.Up(sqlDB, ".")
}

func main() {
	configPath := flag.String("config", "config/example.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Warn("unknown timezone, using UTC", "tz", cfg.App.Timezone, "err", err)
		loc = time.UTC
	}
	now := func() time.Time { return time.Now().In(loc) }

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		itemStore    items.Store
		closureStore closures.Store
	)
	switch cfg.Storage.Driver {
	case "memory":
		itemStore = items.NewMemoryStore()
		closureStore = closures.NewMemoryStore()
		log.Warn("using in-memory storage, data is lost on restart")
	default:
		if err := runMigrations(cfg.Postgres.DSN); err != nil {
			log.Error("migrations failed", "err", err)
			return
		}
		log.Info("migrations applied")

		pool, err := db.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("db connect failed", "err", err)
			return
		}
		defer pool.Close()
		log.Info("db connected")

		itemStore = items.NewRepo(pool)
		closureStore = closures.NewRepo(pool)
	}

	svc := tracking.NewService(itemStore, closureStore, log, tracking.WithClock(now))
	asm := export.NewAssembler(itemStore, closureStore, log, now)

	var (
		api      *tgbotapi.BotAPI
		notifier notify.Notifier = notify.NewNoop(log)
	)
	if cfg.Telegram.Token != "" {
		api, err = tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram init failed", "err", err)
			return
		}
		log.Info("telegram authorized", "username", api.Self.UserName)
		notifier = notify.NewTelegram(api, cfg.Telegram.ChatIDs, log)
	}
	daily := export.NewDailyJob(asm, notifier, log)
	if api == nil && cfg.Export.Enabled {
		log.Warn("no telegram token, daily export will keep items until a channel is configured")
	}

	if cfg.Export.Enabled {
		sched, err := scheduler.NewDaily(cfg.Export.DailyAt, loc, daily.Tick, log)
		if err != nil {
			log.Error("scheduler config invalid", "err", err)
			return
		}
		go func() {
			if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("scheduler stopped", "err", err)
			}
		}()
		log.Info("daily export scheduled", "at", cfg.Export.DailyAt, "tz", loc.String())
	}

	if cfg.Telegram.BotEnabled && api != nil {
		b := bot.New(api, log, svc, asm, cfg.Telegram.ChatIDs)
		go func() {
			if err := b.Run(ctx, 30); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("bot stopped", "err", err)
			}
		}()
		log.Info("telegram bot started")
	}

	router := httpx.NewRouter(httpx.Deps{
		Tracking: svc,
		Export:   asm,
		Daily:    daily,
		Targets:  cfg.DeliveryTargets,
		Metrics:  cfg.Metrics.Enabled,
		Log:      log,
	})
	srv := httpx.New(cfg.HTTP.Addr, router)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
