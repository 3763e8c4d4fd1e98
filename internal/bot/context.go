package bot

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

// reqCtxKey is where LoggerMiddleware parks the request-scoped context inside
// the telebot context.
const reqCtxKey = "req_ctx"

func storeCtx(c tele.Context, ctx context.Context) {
	c.Set(reqCtxKey, ctx)
}

// reqCtx returns the request-scoped context carrying the correlation id.
// Handlers pass it to the services so ledger and workflow logs can be tied
// back to the update that caused them.
func reqCtx(c tele.Context) context.Context {
	if ctx, ok := c.Get(reqCtxKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}
