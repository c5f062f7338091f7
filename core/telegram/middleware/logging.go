package middleware

import (
	"context"
	"strings"
	"time"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"lectorium/core/logger"
)

const ctxStoreKey = "handler_ctx"

// StoreContext attaches a context.Context to the telebot context for
// downstream handlers.
func StoreContext(c tele.Context, ctx context.Context) {
	c.Set(ctxStoreKey, ctx)
}

// Ctx extracts the per-update context stored by the logging middleware.
func Ctx(c tele.Context) context.Context {
	if v := c.Get(ctxStoreKey); v != nil {
		if ctx, ok := v.(context.Context); ok {
			return ctx
		}
	}
	return context.Background()
}

// Logging logs a single receipt line per update and seeds the per-update
// context with a correlation id.
func Logging(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		chatID, userID := int64(0), int64(0)
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}

		rid := logger.BuildRID(upd.ID, chatID, userID)
		ctx := logger.WithRID(context.Background(), rid)
		StoreContext(c, ctx)
		c.Set("update_start", time.Now())

		attrs := []slog.Attr{
			slog.Int("update_id", upd.ID),
			slog.Int64("chat_id", chatID),
			slog.Int64("user_id", userID),
		}
		switch {
		case upd.Callback != nil:
			key, payload := splitCallbackData(upd.Callback)
			attrs = append(attrs, slog.String("kind", "callback"), slog.String("cb_key", key))
			if payload != "" {
				attrs = append(attrs, slog.String("payload", trimForLog(payload, 256)))
			}
		case upd.Message != nil:
			attrs = append(attrs, slog.String("kind", "message"))
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", trimForLog(t, 256)))
			}
		}
		logger.Debug(ctx, "tg", "update.received", attrs...)

		return next(c)
	}
}

func splitCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.SplitN(raw, "|", 2)
	key := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return key, payload
}

func trimForLog(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
