package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3rciful/storebot/internal/bot"
	"github.com/m3rciful/storebot/internal/catalog"
	"github.com/m3rciful/storebot/internal/config"
	"github.com/m3rciful/storebot/internal/database"
	"github.com/m3rciful/storebot/internal/events"
	"github.com/m3rciful/storebot/internal/ledger"
	"github.com/m3rciful/storebot/internal/logger"
	"github.com/m3rciful/storebot/internal/metrics"
	"github.com/m3rciful/storebot/internal/session"
)

const (
	version           = "0.1.0"
	defaultConfigPath = "config.yaml"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("storebot: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	log.Printf("loading config: %s", cfgPath)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg); err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	startedAt := time.Now()

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}

	cat := catalog.New(store, catalog.Defaults())
	if err := cat.Seed(context.Background()); err != nil {
		return fmt.Errorf("catalog seed failed: %w", err)
	}

	var publisher *events.Publisher
	if cfg.Events.Enabled {
		publisher = events.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		defer publisher.Close()
	}

	if cfg.Metrics.Enabled {
		metrics.Serve(cfg.Metrics.Listen)
	}

	sessions, err := buildSessions(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = sessions.Close() }()

	b, err := bot.New(cfg, store, cat, sessions, publisher)
	if err != nil {
		return err
	}

	logger.L.With("component", "app").Info("app ready",
		slog.String("event", "ready"),
		slog.String("version", version),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = b.Run(ctx)

	logger.L.With("component", "app").Info("shutting down...",
		slog.String("event", "shutdown"),
	)
	return err
}

func buildStore(cfg *config.Config) (ledger.Store, error) {
	switch cfg.Database.Driver {
	case "memory":
		logger.DB.Warn("using in-memory ledger; all data is lost on restart")
		return ledger.NewMemory(), nil
	default:
		if err := database.RunMigrations(cfg.Database); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database connect failed: %w", err)
		}
		return ledger.NewPostgres(db), nil
	}
}

func buildSessions(cfg *config.Config) (session.Manager, error) {
	idle := time.Duration(cfg.Shop.SessionIdleMinutes) * time.Minute
	if cfg.Sessions.Backend == "redis" {
		return session.NewRedisManager(cfg.Sessions.RedisAddr, idle)
	}
	return session.NewMemoryManager(idle), nil
}
