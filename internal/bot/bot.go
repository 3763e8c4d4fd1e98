// Package bot is the Telegram surface of the storefront. It routes updates
// into the conversation flows and admin commands, and implements the outbound
// Notifier contract for the workflow services.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/storebot/internal/catalog"
	"github.com/m3rciful/storebot/internal/config"
	"github.com/m3rciful/storebot/internal/deposit"
	"github.com/m3rciful/storebot/internal/events"
	"github.com/m3rciful/storebot/internal/ledger"
	"github.com/m3rciful/storebot/internal/logger"
	"github.com/m3rciful/storebot/internal/order"
	"github.com/m3rciful/storebot/internal/session"
)

// Bot wires the Telegram transport to the storefront services.
type Bot struct {
	tb       *tele.Bot
	store    ledger.Store
	catalog  *catalog.Service
	orders   *order.Service
	deposits *deposit.Service
	sessions session.Manager
	admins   *adminSet

	currency string
	support  string
	methods  []config.PaymentMethod
	adminIDs []int64

	// menu maps main-menu button labels to their actions. Idle text input is
	// resolved through this table only.
	menu map[string]tele.HandlerFunc
}

// New builds the bot, constructs the workflow services around it and
// registers all routes. The publisher may be nil when events are disabled.
func New(cfg *config.Config, store ledger.Store, cat *catalog.Service, sessions session.Manager, publisher *events.Publisher) (*Bot, error) {
	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook:                cfg.Webhook,
	})

	buildStart := time.Now()
	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: BuildHTTPClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("bot initialization failed: %w", err)
	}

	b := &Bot{
		tb:       tb,
		store:    store,
		catalog:  cat,
		sessions: sessions,
		admins:   newAdminSet(cfg.Shop.AdminIDs),
		currency: cfg.Shop.CurrencySymbol,
		support:  cfg.Shop.SupportContact,
		methods:  cfg.Shop.PaymentMethods,
		adminIDs: cfg.Shop.AdminIDs,
	}
	b.orders = order.New(store, cat, publisher, b)
	b.deposits = deposit.New(store, publisher, b)
	b.menu = b.buildMenu()

	tb.Use(RecoverMiddleware)
	tb.Use(LoggerMiddleware)
	if cfg.RateLimit.IntervalMS > 0 {
		tb.Use(RateLimitMiddleware(RateLimitOptions{
			Interval: time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
		}))
	}

	b.registerRoutes()

	logger.TG.Info("bot ready",
		slog.String("event", "tg.init"),
		slog.String("mode", cfg.Telegram.RunMode),
		slog.Duration("duration", logger.RoundMS(time.Since(buildStart))),
	)
	return b, nil
}

func (b *Bot) registerRoutes() {
	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle(tele.OnText, b.handleText)

	b.tb.Handle("/pending", b.adminOnly(b.handlePending))
	b.tb.Handle("/deposits", b.adminOnly(b.handleDeposits))
	b.tb.Handle("/approve", b.adminOnly(b.handleApprove))
	b.tb.Handle("/reject", b.adminOnly(b.handleReject))
	b.tb.Handle("/deliver", b.adminOnly(b.handleDeliver))
	b.tb.Handle("/cancel", b.adminOnly(b.handleCancel))
	b.tb.Handle("/stock", b.adminOnly(b.handleStock))
	b.tb.Handle("/price", b.adminOnly(b.handlePrice))
	b.tb.Handle("/item", b.adminOnly(b.handleItem))
	b.tb.Handle("/stats", b.adminOnly(b.handleStats))
}

// Run starts the bot and blocks until the context is cancelled or the poller
// exits on its own.
func (b *Bot) Run(ctx context.Context) error {
	runDone := make(chan struct{})
	go func() {
		b.tb.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		b.tb.Stop()
		<-runDone
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-runDone:
		return nil
	}
}

// NotifyUser implements notify.Notifier. Delivery failures are logged and
// swallowed; the triggering workflow has already committed.
func (b *Bot) NotifyUser(userID int64, text string) {
	if _, err := b.tb.Send(&tele.User{ID: userID}, text); err != nil {
		logger.TG.Warn("user notification failed",
			slog.String("event", "tg.notify"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

// NotifyAdmins implements notify.Notifier by fanning out to every admin.
func (b *Bot) NotifyAdmins(text string) {
	for _, id := range b.adminIDs {
		b.NotifyUser(id, text)
	}
}
