package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRIDRoundTrip(t *testing.T) {
	ctx := WithRID(context.Background(), "7:2002:1001")
	assert.Equal(t, "7:2002:1001", RIDFrom(ctx))
	assert.Empty(t, RIDFrom(context.Background()))
}

func TestBuildRID(t *testing.T) {
	assert.Equal(t, "7:2002:1001", BuildRID(7, 2002, 1001))
	assert.Equal(t, "0:0:0", BuildRID(0, 0, 0))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "ok", Status(nil))
	assert.Equal(t, "error", Status(errors.New("boom")))
}

func TestTookClampsToZero(t *testing.T) {
	assert.Equal(t, time.Duration(0), Took(time.Now().Add(time.Hour)))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "abc", SanitizeLimit("a\x00b\x1bc", 10))
	assert.Equal(t, "ab", SanitizeLimit("abcd", 2))
	assert.Empty(t, SanitizeLimit("abcd", 0))
}
