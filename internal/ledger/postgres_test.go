package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/storebot/internal/domain"
	"github.com/m3rciful/storebot/internal/errs"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(sqlx.NewDb(db, "postgres")), mock
}

func TestPostgresAdjustBalanceSuccess(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE users`).
		WithArgs(int64(1001), int64(-50)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(150))

	balance, err := store.AdjustBalance(context.Background(), 1001, -50)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdjustBalanceInsufficient(t *testing.T) {
	store, mock := newMockStore(t)

	// The conditional update matches no row, the existence probe decides
	// between not-found and insufficient funds.
	mock.ExpectQuery(`UPDATE users`).
		WithArgs(int64(1001), int64(-500)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(1001)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := store.AdjustBalance(context.Background(), 1001, -500)
	assert.ErrorIs(t, err, errs.ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdjustBalanceUnknownUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE users`).
		WithArgs(int64(42), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := store.AdjustBalance(context.Background(), 42, 10)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordOrderDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.RecordOrder(context.Background(), domain.Order{
		ID: "ORD-1", UserID: 1001, ItemID: "tg-bd", Amount: 150, Status: domain.OrderPending,
	})
	assert.ErrorIs(t, err, errs.ErrDuplicateID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPlaceOrderCommits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users`).
		WithArgs(int64(1001), int64(-150)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(50))
	mock.ExpectQuery(`UPDATE catalog_items`).
		WithArgs("tg-bd", -1).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(2))
	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET total_orders`).
		WithArgs(int64(1001), int64(150)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	placed, err := store.PlaceOrder(context.Background(), domain.Order{
		ID: "ORD-1", UserID: 1001, ItemID: "tg-bd", Amount: 150, Status: domain.OrderPending,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, placed.RemainingStock)
	assert.Equal(t, int64(50), placed.NewBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPlaceOrderRollsBackOnOutOfStock(t *testing.T) {
	store, mock := newMockStore(t)

	// The debit succeeds, the stock decrement matches no row; the whole
	// transaction must roll back so the debit never lands.
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users`).
		WithArgs(int64(1001), int64(-150)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(50))
	mock.ExpectQuery(`UPDATE catalog_items`).
		WithArgs("tg-bd", -1).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("tg-bd").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := store.PlaceOrder(context.Background(), domain.Order{
		ID: "ORD-1", UserID: 1001, ItemID: "tg-bd", Amount: 150, Status: domain.OrderPending,
	})
	assert.ErrorIs(t, err, errs.ErrOutOfStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPlaceOrderLocksUserRowFirst(t *testing.T) {
	store, mock := newMockStore(t)

	// The user row is touched before the item row, matching the order
	// CancelOrder uses, so a broke buyer never locks the item at all.
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users`).
		WithArgs(int64(1001), int64(-150)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(1001)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := store.PlaceOrder(context.Background(), domain.Order{
		ID: "ORD-1", UserID: 1001, ItemID: "tg-bd", Amount: 150, Status: domain.OrderPending,
	})
	assert.ErrorIs(t, err, errs.ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFulfillOrderStale(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ORD-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := store.FulfillOrder(context.Background(), "ORD-1", 77, "login:pass")
	assert.ErrorIs(t, err, errs.ErrStaleTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresApproveDepositCommits(t *testing.T) {
	store, mock := newMockStore(t)

	depositRow := sqlmock.NewRows([]string{
		"id", "user_id", "amount", "method", "proof", "status", "reviewed_by", "created_at", "reviewed_at",
	}).AddRow("DEP-1", int64(1001), int64(200), "bKash", "TX123", "approved", int64(77), time.Now(), time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE deposits`).
		WillReturnRows(depositRow)
	mock.ExpectQuery(`UPDATE users`).
		WithArgs(int64(1001), int64(200)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(200))
	mock.ExpectCommit()

	d, balance, err := store.ApproveDeposit(context.Background(), "DEP-1", 77)
	require.NoError(t, err)
	assert.Equal(t, domain.DepositApproved, d.Status)
	assert.Equal(t, int64(200), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresApproveDepositStaleRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE deposits`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("DEP-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, _, err := store.ApproveDeposit(context.Background(), "DEP-1", 77)
	assert.ErrorIs(t, err, errs.ErrStaleTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetPriceUnknownItem(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE catalog_items SET price`).
		WithArgs("nope", int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SetPrice(context.Background(), "nope", 100)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetPriceRejectsNonPositive(t *testing.T) {
	store, _ := newMockStore(t)
	err := store.SetPrice(context.Background(), "tg-bd", 0)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}
