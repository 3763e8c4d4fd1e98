package deposit

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func newTestService(t *testing.T) (*Service, *ledger.Memory, *captureNotifier) {
	t.Helper()
	store := ledger.NewMemory()
	require.NoError(t, store.CreateUserIfAbsent(context.Background(), 1001, "Buyer"))
	notifier := newCaptureNotifier()
	return New(store, nil, notifier), store, notifier
}

func TestSubmit(t *testing.T) {
	svc, store, notifier := newTestService(t)

	d, err := svc.Submit(context.Background(), 1001, 200, "bKash", "TX123")
	require.NoError(t, err)
	assert.Equal(t, domain.DepositPending, d.Status)
	assert.NotEmpty(t, d.ID)

	u, err := store.GetUser(context.Background(), 1001)
	require.NoError(t, err)
	assert.Zero(t, u.Balance, "no credit before approval")

	require.Len(t, notifier.admins, 1)
	assert.Contains(t, notifier.admins[0], "TX123")
}

func TestSubmitRejectsNonPositiveAmount(t *testing.T) {
	svc, _, notifier := newTestService(t)

	_, err := svc.Submit(context.Background(), 1001, 0, "bKash", "TX123")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = svc.Submit(context.Background(), 1001, -50, "bKash", "TX123")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Empty(t, notifier.admins)
}

func TestApproveCreditsOnce(t *testing.T) {
	svc, store, notifier := newTestService(t)

	d, err := svc.Submit(context.Background(), 1001, 200, "bKash", "TX123")
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), d.ID, 77)
	require.NoError(t, err)
	assert.Equal(t, domain.DepositApproved, approved.Status)
	assert.Equal(t, int64(77), approved.ReviewedBy)

	u, err := store.GetUser(context.Background(), 1001)
	require.NoError(t, err)
	assert.Equal(t, int64(200), u.Balance)

	msgs := notifier.users[1001]
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "200")

	_, err = svc.Approve(context.Background(), d.ID, 88)
	assert.ErrorIs(t, err, errs.ErrStaleTransition)

	u, err = store.GetUser(context.Background(), 1001)
	require.NoError(t, err)
	assert.Equal(t, int64(200), u.Balance, "a second review must not credit again")
}

func TestRejectLeavesBalance(t *testing.T) {
	svc, store, notifier := newTestService(t)

	d, err := svc.Submit(context.Background(), 1001, 200, "Nagad", "TX999")
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), d.ID, 77)
	require.NoError(t, err)
	assert.Equal(t, domain.DepositRejected, rejected.Status)

	u, err := store.GetUser(context.Background(), 1001)
	require.NoError(t, err)
	assert.Zero(t, u.Balance)

	require.Len(t, notifier.users[1001], 1)

	_, err = svc.Approve(context.Background(), d.ID, 77)
	assert.ErrorIs(t, err, errs.ErrStaleTransition)
}

func TestApproveUnknownDeposit(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Approve(context.Background(), "DEP-NOPE", 77)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPendingOldestFirst(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, 1001, 100, "bKash", "TX1")
	require.NoError(t, err)
	second, err := svc.Submit(ctx, 1001, 200, "bKash", "TX2")
	require.NoError(t, err)

	_, err = svc.Reject(ctx, first.ID, 77)
	require.NoError(t, err)

	pending, err := svc.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
}
