package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/storebot/internal/errs"
)

func TestNewIDShape(t *testing.T) {
	id := NewID(OrderIDPrefix)

	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "ORD", parts[0])
	assert.Len(t, parts[1], 5)
	assert.NotEmpty(t, parts[2])

	for _, r := range parts[1] {
		assert.Contains(t, idAlphabet, string(r))
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewID(DepositIDPrefix)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestWithFreshIDRetriesOnDuplicate(t *testing.T) {
	calls := 0
	err := WithFreshID(OrderIDPrefix, func(id string) error {
		calls++
		if calls < 3 {
			return errs.ErrDuplicateID
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithFreshIDGivesUp(t *testing.T) {
	calls := 0
	err := WithFreshID(OrderIDPrefix, func(id string) error {
		calls++
		return errs.ErrDuplicateID
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDuplicateID)
	assert.Equal(t, idMaxAttempts, calls)
}

func TestWithFreshIDStopsOnOtherErrors(t *testing.T) {
	calls := 0
	err := WithFreshID(OrderIDPrefix, func(id string) error {
		calls++
		return errs.ErrInsufficientFunds
	})
	assert.ErrorIs(t, err, errs.ErrInsufficientFunds)
	assert.Equal(t, 1, calls)
}
