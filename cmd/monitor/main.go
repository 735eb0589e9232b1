package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"rss_monitor/internal/checker"
	"rss_monitor/internal/config"
	"rss_monitor/internal/fetcher"
	"rss_monitor/internal/notify"
	"rss_monitor/internal/scheduler"
	"rss_monitor/internal/storage"
)

type options struct {
	Once     bool   `long:"once" description:"Check every feed once and exit"`
	Config   string `long:"config" env:"CONFIG_PATH" default:"config.yaml" description:"Channel settings file (.yaml or .toml)"`
	Feeds    string `long:"feeds" env:"FEEDS_PATH" default:"rss.yaml" description:"Feed list file"`
	DB       string `long:"db" env:"DATABASE_PATH" default:"articles.db" description:"Path to the sqlite database"`
	LogLevel string `long:"log-level" env:"LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`
	Recent   int    `long:"recent" value-name:"N" description:"Print the N most recently notified entries and exit"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	log := newLogger(opts.LogLevel)

	cfg, err := config.Load(opts.Config, opts.Feeds)
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	for _, w := range cfg.Channels.Warnings() {
		log.Warn(w)
	}

	if dir := filepath.Dir(opts.DB); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(opts.DB)
	if err != nil {
		log.Error("open database", "path", opts.DB, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.Recent > 0 {
		if err := printRecent(ctx, store, opts.Recent); err != nil {
			log.Error("list recent entries", "error", err)
			os.Exit(1)
		}
		return
	}

	httpClient := notify.NewHTTPClient()
	dispatcher := notify.NewDispatcher(notify.FromConfig(cfg.Channels, httpClient, log), log)
	check := checker.New(fetcher.New(fetcher.NewHTTPClient()), store, dispatcher, log)

	policy := scheduler.DefaultPolicy()
	policy.QuietHours = bool(cfg.NightSleep.Enabled)
	sched := scheduler.New(check, cfg.Feeds, policy, log)

	log.Info("starting rss monitor", "feeds", len(cfg.Feeds), "channels", dispatcher.Channels(),
		"once", opts.Once, "night_sleep", cfg.NightSleep.Enabled.String())
	scheduler.Heartbeat(ctx, dispatcher, time.Now().In(policy.Zone))

	if opts.Once {
		if err := sched.RunOnce(ctx); err != nil {
			log.Error("poll failed", "error", err)
			_ = store.Close()
			os.Exit(1)
		}
		return
	}

	sched.Run(ctx)
	log.Info("rss monitor stopped")
}

func printRecent(ctx context.Context, store *storage.SQLite, n int) error {
	items, err := store.Recent(ctx, n)
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Printf("%s  %s\n  %s\n", it.Timestamp.Format(time.DateTime), it.Title, it.Link)
	}
	return nil
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
