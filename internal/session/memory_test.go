package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/storebot/internal/domain"
)

func TestMemoryManagerLifecycle(t *testing.T) {
	m := NewMemoryManager(time.Minute)
	defer func() { _ = m.Close() }()

	assert.Equal(t, StepIdle, m.Get(1).Step)
	assert.False(t, m.InProgress(1))

	m.Set(1, Session{Step: StepShopCategory, Data: OrderDraft{Kind: domain.KindAccount}})

	got := m.Get(1)
	assert.Equal(t, StepShopCategory, got.Step)
	draft, ok := got.Data.(OrderDraft)
	require.True(t, ok)
	assert.Equal(t, domain.KindAccount, draft.Kind)
	assert.True(t, m.InProgress(1))

	m.Clear(1)
	assert.Equal(t, StepIdle, m.Get(1).Step)
}

func TestMemoryManagerUsersAreIndependent(t *testing.T) {
	m := NewMemoryManager(time.Minute)
	defer func() { _ = m.Close() }()

	m.Set(1, Session{Step: StepDepositAmount, Data: DepositDraft{Method: "bKash"}})
	m.Set(2, Session{Step: StepShopItem, Data: OrderDraft{Category: "BD"}})

	one := m.Get(1)
	two := m.Get(2)
	assert.Equal(t, StepDepositAmount, one.Step)
	assert.Equal(t, StepShopItem, two.Step)

	m.Clear(1)
	assert.False(t, m.InProgress(1))
	assert.True(t, m.InProgress(2))
}

func TestMemoryManagerStepOverwrite(t *testing.T) {
	m := NewMemoryManager(time.Minute)
	defer func() { _ = m.Close() }()

	m.Set(1, Session{Step: StepDepositMethod, Data: DepositDraft{}})
	m.Set(1, Session{Step: StepDepositAmount, Data: DepositDraft{Method: "Nagad"}})

	got := m.Get(1)
	assert.Equal(t, StepDepositAmount, got.Step)
	draft, ok := got.Data.(DepositDraft)
	require.True(t, ok)
	assert.Equal(t, "Nagad", draft.Method)
	assert.Zero(t, draft.Amount)
}

func TestMemoryManagerIdleTimeout(t *testing.T) {
	m := NewMemoryManager(20 * time.Millisecond)
	defer func() { _ = m.Close() }()

	m.Set(1, Session{Step: StepShopConfirm, Data: OrderDraft{ItemID: "tg-bd"}})
	require.True(t, m.InProgress(1))

	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, StepIdle, m.Get(1).Step, "stale sessions collapse to the main menu")
	assert.False(t, m.InProgress(1))
}

func TestMemoryManagerZeroTimeoutNeverExpires(t *testing.T) {
	m := NewMemoryManager(0)
	defer func() { _ = m.Close() }()

	m.Set(1, Session{Step: StepShopCategory, Data: OrderDraft{}})
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, StepShopCategory, m.Get(1).Step)
}
