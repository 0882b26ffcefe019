package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"rent_bot/internal/bot"
	"rent_bot/internal/config"
	"rent_bot/internal/delivery"
	"rent_bot/internal/fetcher"
	"rent_bot/internal/metrics"
	"rent_bot/internal/scheduler"
	"rent_bot/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	b, err := bot.New(cfg.TelegramBotToken, store, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}
	if err := b.RegisterCommands(); err != nil {
		log.Warn("register commands", "error", err)
	}

	scanner, err := fetcher.NewScanner(fetcher.New(http.DefaultClient, cfg.FetchTimeout), fetcher.ScanConfig{
		BaseURL:   cfg.SearchBaseURL,
		MaxPages:  cfg.MaxPages,
		PageDelay: cfg.PageDelay,
	}, log)
	if err != nil {
		log.Error("create scanner", "error", err)
		os.Exit(1)
	}

	dispatcher := delivery.New(b, delivery.Config{
		SendDelay:   cfg.SendDelay,
		RetryMargin: cfg.RetryMargin,
	}, log)

	m := metrics.New()

	sched := scheduler.New(store, scanner, dispatcher, log)
	sched.SetTickInterval(cfg.ScanInterval)
	sched.SetStrictMatch(cfg.StrictMatch)
	sched.SetRecorder(m)
	b.SetChecker(sched)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, m.Router(), log); err != nil {
				log.Error("ops server", "error", err)
			}
		}()
	}

	log.Info("starting bot",
		"scan_interval", cfg.ScanInterval,
		"max_pages", cfg.MaxPages,
		"strict_match", cfg.StrictMatch,
	)

	go sched.Run(ctx)

	b.Run(ctx)

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
