package bot

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/storebot/internal/errs"
	"github.com/m3rciful/storebot/internal/logger"
	"github.com/m3rciful/storebot/internal/metrics"
)

// RecoverMiddleware catches panics in handlers and prevents the bot from crashing.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logger.TG.Error("panic recovered",
					slog.String("event", "tg.panic"),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}

// LoggerMiddleware counts the update, logs a receipt line, threads the
// request id into the context handlers hand to the services, and closes with
// one completion line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		upd := c.Update()
		user := c.Sender()
		chat := c.Chat()

		chatID, userID := int64(0), int64(0)
		if chat != nil {
			chatID = chat.ID
		}
		if user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		ctx := logger.WithRID(context.Background(), rid)
		storeCtx(c, ctx)

		metrics.UpdatesTotal.Inc()

		attrs := []slog.Attr{
			slog.String("rid", rid),
			slog.Int("update_id", upd.ID),
		}
		if userID != 0 {
			attrs = append(attrs, slog.Int64("user_id", userID))
			if user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
		}
		if upd.Message != nil {
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
			}
		}
		logger.TG.LogAttrs(ctx, slog.LevelDebug, "update.received", attrs...)

		err := next(c)

		logger.TG.LogAttrs(ctx, slog.LevelInfo, "update.done",
			slog.String("rid", rid),
			slog.String("status", logger.Status(err)),
			slog.Duration("took", logger.Took(start)),
		)
		return err
	}
}

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	OnLimited tele.HandlerFunc
}

// RateLimitMiddleware returns a middleware that enforces a minimum interval
// between messages from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	var (
		userLastSeen   = make(map[int64]time.Time)
		userLastSeenMu sync.Mutex
	)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}

			now := time.Now()

			userLastSeenMu.Lock()
			if last, ok := userLastSeen[user.ID]; ok && now.Sub(last) < opts.Interval {
				userLastSeenMu.Unlock()
				logger.TG.Warn("rate limit",
					slog.String("event", "tg.rate_limit"),
					slog.Int64("user_id", user.ID),
				)
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}

			userLastSeen[user.ID] = now
			userLastSeenMu.Unlock()
			return next(c)
		}
	}
}

// adminOnly wraps a handler so only allow-listed admins reach it. The denial
// is generic; it must not reveal what the command would have done.
func (b *Bot) adminOnly(handler tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		user := c.Sender()
		if user == nil || !b.admins.Contains(user.ID) {
			logger.TG.Warn("admin command rejected",
				slog.String("event", "tg.access_denied"),
				slog.Int64("user_id", senderID(c)),
				slog.String("err", errs.ErrUnauthorized.Error()),
			)
			return c.Send("Unknown command.")
		}
		return handler(c)
	}
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}
