package order

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/storebot/internal/catalog"
	"github.com/m3rciful/storebot/internal/domain"
	"github.com/m3rciful/storebot/internal/errs"
	"github.com/m3rciful/storebot/internal/ledger"
)

type captureNotifier struct {
	mu     sync.Mutex
	users  map[int64][]string
	admins []string
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{users: make(map[int64][]string)}
}

func (n *captureNotifier) NotifyUser(userID int64, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users[userID] = append(n.users[userID], text)
}

func (n *captureNotifier) NotifyAdmins(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admins = append(n.admins, text)
}

func newTestService(t *testing.T, balance int64, stock int) (*Service, *ledger.Memory, *captureNotifier) {
	t.Helper()
	ctx := context.Background()
	store := ledger.NewMemory()

	require.NoError(t, store.CreateUserIfAbsent(ctx, 1001, "Buyer"))
	if balance > 0 {
		_, err := store.AdjustBalance(ctx, 1001, balance)
		require.NoError(t, err)
	}
	require.NoError(t, store.CreateItemIfAbsent(ctx, domain.CatalogItem{
		ID:       "tg-bd",
		Kind:     domain.KindAccount,
		Category: "BD",
		Title:    "Telegram BD",
		Price:    150,
		Stock:    stock,
		Active:   true,
	}))

	notifier := newCaptureNotifier()
	svc := New(store, catalog.New(store, nil), nil, notifier)
	return svc, store, notifier
}

func TestPlaceOrder(t *testing.T) {
	svc, store, notifier := newTestService(t, 200, 2)

	placed, err := svc.Place(context.Background(), 1001, "tg-bd")
	require.NoError(t, err)
	assert.Equal(t, int64(150), placed.Order.Amount)
	assert.Equal(t, int64(50), placed.NewBalance)
	assert.Equal(t, 1, placed.RemainingStock)
	assert.Equal(t, domain.OrderPending, placed.Order.Status)

	o, err := store.GetOrder(context.Background(), placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Telegram BD", o.Title)

	require.Len(t, notifier.admins, 1)
	assert.Contains(t, notifier.admins[0], placed.Order.ID)
}

func TestPlaceOrderInsufficientFunds(t *testing.T) {
	svc, _, notifier := newTestService(t, 100, 2)

	_, err := svc.Place(context.Background(), 1001, "tg-bd")
	assert.ErrorIs(t, err, errs.ErrInsufficientFunds)
	assert.Empty(t, notifier.admins, "a failed purchase must not ping the admins")
}

func TestPlaceOrderInactiveItemHidden(t *testing.T) {
	svc, store, _ := newTestService(t, 500, 2)
	require.NoError(t, store.SetActive(context.Background(), "tg-bd", false))

	_, err := svc.Place(context.Background(), 1001, "tg-bd")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPlaceOrderUnknownItem(t *testing.T) {
	svc, _, _ := newTestService(t, 500, 2)
	_, err := svc.Place(context.Background(), 1001, "nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestFulfillNotifiesBuyer(t *testing.T) {
	svc, _, notifier := newTestService(t, 200, 1)

	placed, err := svc.Place(context.Background(), 1001, "tg-bd")
	require.NoError(t, err)

	o, err := svc.Fulfill(context.Background(), placed.Order.ID, 77, "login:pass")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderDelivered, o.Status)

	msgs := notifier.users[1001]
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "login:pass")
}

func TestFulfillTwiceIsStale(t *testing.T) {
	svc, _, _ := newTestService(t, 200, 1)

	placed, err := svc.Place(context.Background(), 1001, "tg-bd")
	require.NoError(t, err)

	_, err = svc.Fulfill(context.Background(), placed.Order.ID, 77, "login:pass")
	require.NoError(t, err)

	_, err = svc.Fulfill(context.Background(), placed.Order.ID, 88, "again")
	assert.ErrorIs(t, err, errs.ErrStaleTransition)
}

func TestCancelRefundsBuyer(t *testing.T) {
	svc, store, notifier := newTestService(t, 200, 1)

	placed, err := svc.Place(context.Background(), 1001, "tg-bd")
	require.NoError(t, err)

	o, err := svc.Cancel(context.Background(), placed.Order.ID, 77)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, o.Status)

	u, err := store.GetUser(context.Background(), 1001)
	require.NoError(t, err)
	assert.Equal(t, int64(200), u.Balance)

	msgs := notifier.users[1001]
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "150")
}

func TestHistoryAndPending(t *testing.T) {
	svc, _, _ := newTestService(t, 1000, 5)
	ctx := context.Background()

	first, err := svc.Place(ctx, 1001, "tg-bd")
	require.NoError(t, err)
	second, err := svc.Place(ctx, 1001, "tg-bd")
	require.NoError(t, err)

	_, err = svc.Fulfill(ctx, first.Order.ID, 77, "done")
	require.NoError(t, err)

	history, err := svc.History(ctx, 1001, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	pending, err := svc.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.Order.ID, pending[0].ID)
}
