package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/storebot/internal/logger"
)

// recordingContext backs the handful of tele.Context methods the middleware
// touches. Everything else panics via the embedded nil interface.
type recordingContext struct {
	tele.Context
	values map[string]any
}

func newRecordingContext() *recordingContext {
	return &recordingContext{values: map[string]any{}}
}

func (c *recordingContext) Set(key string, v any) { c.values[key] = v }
func (c *recordingContext) Get(key string) any    { return c.values[key] }
func (c *recordingContext) Update() tele.Update   { return tele.Update{ID: 7} }
func (c *recordingContext) Sender() *tele.User    { return &tele.User{ID: 1001, Username: "buyer"} }
func (c *recordingContext) Chat() *tele.Chat      { return &tele.Chat{ID: 2002} }

func TestLoggerMiddlewareThreadsRequestContext(t *testing.T) {
	c := newRecordingContext()

	var seen context.Context
	err := LoggerMiddleware(func(c tele.Context) error {
		seen = reqCtx(c)
		return nil
	})(c)

	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "7:2002:1001", logger.RIDFrom(seen))
}

func TestLoggerMiddlewareReturnsHandlerError(t *testing.T) {
	err := LoggerMiddleware(func(tele.Context) error {
		return assert.AnError
	})(newRecordingContext())

	assert.ErrorIs(t, err, assert.AnError)
}

func TestReqCtxDefaultsToBackground(t *testing.T) {
	assert.Equal(t, context.Background(), reqCtx(newRecordingContext()))
}
