package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/storebot/internal/domain"
	"github.com/m3rciful/storebot/internal/errs"
	"github.com/m3rciful/storebot/internal/logger"
)

// Postgres implements Store on top of PostgreSQL. Conditional updates are
// expressed as single statements so read-modify-write is never split, and
// compound operations run inside one transaction.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open sqlx handle.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

type execer interface {
	sqlx.ExtContext
}

func mapInsertErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return errs.ErrDuplicateID
	}
	return err
}

func (s *Postgres) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.SVCLedger.Error("rollback failed",
				slog.String("event", "ledger.tx"),
				slog.String("err", rbErr.Error()),
			)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// --- users ---

func (s *Postgres) CreateUserIfAbsent(ctx context.Context, id int64, displayName string) error {
	const q = `
		INSERT INTO users (id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, q, id, displayName); err != nil {
		return fmt.Errorf("create user %d: %w", id, err)
	}
	return nil
}

func (s *Postgres) GetUser(ctx context.Context, id int64) (domain.User, error) {
	const q = `
		SELECT id, display_name, balance, total_orders, total_spent, joined_at
		FROM users WHERE id = $1`
	var u domain.User
	if err := sqlx.GetContext(ctx, s.db, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, errs.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (s *Postgres) AdjustBalance(ctx context.Context, userID, delta int64) (int64, error) {
	return adjustBalanceOn(ctx, s.db, userID, delta)
}

// adjustBalanceOn serializes concurrent debits and credits on the same user
// in one conditional statement; the database row lock is the serialization
// point.
func adjustBalanceOn(ctx context.Context, ext execer, userID, delta int64) (int64, error) {
	const q = `
		UPDATE users
		SET balance = balance + $2
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance`
	var balance int64
	err := sqlx.GetContext(ctx, ext, &balance, q, userID, delta)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if chkErr := sqlx.GetContext(ctx, ext, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID); chkErr != nil {
			return 0, fmt.Errorf("adjust balance user %d: %w", userID, chkErr)
		}
		if !exists {
			return 0, errs.ErrNotFound
		}
		return 0, errs.ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("adjust balance user %d: %w", userID, err)
	}
	return balance, nil
}

func (s *Postgres) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, s.db, &n, `SELECT count(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// --- catalog ---

func (s *Postgres) CreateItemIfAbsent(ctx context.Context, item domain.CatalogItem) error {
	const q = `
		INSERT INTO catalog_items (id, kind, category, title, price, stock, active, delivery_template)
		VALUES (:id, :kind, :category, :title, :price, :stock, :active, :delivery_template)
		ON CONFLICT (id) DO NOTHING`
	if _, err := sqlx.NamedExecContext(ctx, s.db, q, item); err != nil {
		return fmt.Errorf("create item %s: %w", item.ID, err)
	}
	return nil
}

func (s *Postgres) GetItem(ctx context.Context, id string) (domain.CatalogItem, error) {
	const q = `
		SELECT id, kind, category, title, price, stock, active, delivery_template
		FROM catalog_items WHERE id = $1`
	var item domain.CatalogItem
	if err := sqlx.GetContext(ctx, s.db, &item, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CatalogItem{}, errs.ErrNotFound
		}
		return domain.CatalogItem{}, fmt.Errorf("get item %s: %w", id, err)
	}
	return item, nil
}

func (s *Postgres) ListItems(ctx context.Context, category string, activeOnly bool) ([]domain.CatalogItem, error) {
	q := `
		SELECT id, kind, category, title, price, stock, active, delivery_template
		FROM catalog_items WHERE category = $1`
	if activeOnly {
		q += ` AND active`
	}
	q += ` ORDER BY title`
	var items []domain.CatalogItem
	if err := sqlx.SelectContext(ctx, s.db, &items, q, category); err != nil {
		return nil, fmt.Errorf("list items %s: %w", category, err)
	}
	return items, nil
}

func (s *Postgres) ListCategories(ctx context.Context, kind domain.ItemKind) ([]string, error) {
	const q = `
		SELECT DISTINCT category FROM catalog_items
		WHERE kind = $1 AND active ORDER BY category`
	var categories []string
	if err := sqlx.SelectContext(ctx, s.db, &categories, q, kind); err != nil {
		return nil, fmt.Errorf("list categories %s: %w", kind, err)
	}
	return categories, nil
}

func (s *Postgres) AdjustStock(ctx context.Context, itemID string, delta int) (int, error) {
	return adjustStockOn(ctx, s.db, itemID, delta)
}

func adjustStockOn(ctx context.Context, ext execer, itemID string, delta int) (int, error) {
	const q = `
		UPDATE catalog_items
		SET stock = stock + $2
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING stock`
	var stock int
	err := sqlx.GetContext(ctx, ext, &stock, q, itemID, delta)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if chkErr := sqlx.GetContext(ctx, ext, &exists, `SELECT EXISTS(SELECT 1 FROM catalog_items WHERE id = $1)`, itemID); chkErr != nil {
			return 0, fmt.Errorf("adjust stock item %s: %w", itemID, chkErr)
		}
		if !exists {
			return 0, errs.ErrNotFound
		}
		return 0, errs.ErrOutOfStock
	}
	if err != nil {
		return 0, fmt.Errorf("adjust stock item %s: %w", itemID, err)
	}
	return stock, nil
}

func (s *Postgres) DecrementStock(ctx context.Context, itemID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, errs.ErrInvalidInput
	}
	return adjustStockOn(ctx, s.db, itemID, -qty)
}

func (s *Postgres) SetPrice(ctx context.Context, itemID string, price int64) error {
	if price <= 0 {
		return errs.ErrInvalidInput
	}
	res, err := s.db.ExecContext(ctx, `UPDATE catalog_items SET price = $2 WHERE id = $1`, itemID, price)
	if err != nil {
		return fmt.Errorf("set price item %s: %w", itemID, err)
	}
	return requireRow(res)
}

func (s *Postgres) SetActive(ctx context.Context, itemID string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE catalog_items SET active = $2 WHERE id = $1`, itemID, active)
	if err != nil {
		return fmt.Errorf("set active item %s: %w", itemID, err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- orders ---

const orderColumns = `id, user_id, item_id, category, title, amount, status,
	delivered_details, delivered_by, created_at, delivered_at`

func (s *Postgres) RecordOrder(ctx context.Context, o domain.Order) error {
	return recordOrderOn(ctx, s.db, o)
}

func recordOrderOn(ctx context.Context, ext execer, o domain.Order) error {
	const q = `
		INSERT INTO orders (id, user_id, item_id, category, title, amount, status)
		VALUES (:id, :user_id, :item_id, :category, :title, :amount, :status)`
	if _, err := sqlx.NamedExecContext(ctx, ext, q, o); err != nil {
		if mapped := mapInsertErr(err); errors.Is(mapped, errs.ErrDuplicateID) {
			return mapped
		}
		return fmt.Errorf("record order %s: %w", o.ID, err)
	}
	return nil
}

func (s *Postgres) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	err := sqlx.GetContext(ctx, s.db, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, errs.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

func (s *Postgres) ListOrdersByUser(ctx context.Context, userID int64, limit int) ([]domain.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	var orders []domain.Order
	if err := sqlx.SelectContext(ctx, s.db, &orders, q, userID, normLimit(limit)); err != nil {
		return nil, fmt.Errorf("list orders user %d: %w", userID, err)
	}
	return orders, nil
}

func (s *Postgres) ListOrdersByStatus(ctx context.Context, st domain.OrderStatus, limit int) ([]domain.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at LIMIT $2`
	var orders []domain.Order
	if err := sqlx.SelectContext(ctx, s.db, &orders, q, st, normLimit(limit)); err != nil {
		return nil, fmt.Errorf("list orders %s: %w", st, err)
	}
	return orders, nil
}

func normLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}

func (s *Postgres) TransitionOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	const q = `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`
	res, err := s.db.ExecContext(ctx, q, id, from, to)
	if err != nil {
		return fmt.Errorf("transition order %s: %w", id, err)
	}
	return requireTransition(ctx, s.db, res, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id)
}

func requireTransition(ctx context.Context, ext execer, res sql.Result, existsQuery, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := sqlx.GetContext(ctx, ext, &exists, existsQuery, id); err != nil {
		return err
	}
	if !exists {
		return errs.ErrNotFound
	}
	return errs.ErrStaleTransition
}

func (s *Postgres) PlaceOrder(ctx context.Context, o domain.Order) (PlacedOrder, error) {
	var placed PlacedOrder
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		// Every compound operation locks the user row before the item row;
		// CancelOrder refunds in the same order, so place and cancel on the
		// same user and item cannot deadlock.
		balance, err := adjustBalanceOn(ctx, tx, o.UserID, -o.Amount)
		if err != nil {
			return err
		}
		stock, err := adjustStockOn(ctx, tx, o.ItemID, -1)
		if err != nil {
			return err
		}
		if err := recordOrderOn(ctx, tx, o); err != nil {
			return err
		}
		const counters = `
			UPDATE users SET total_orders = total_orders + 1, total_spent = total_spent + $2
			WHERE id = $1`
		if _, err := tx.ExecContext(ctx, counters, o.UserID, o.Amount); err != nil {
			return fmt.Errorf("bump counters user %d: %w", o.UserID, err)
		}
		placed = PlacedOrder{Order: o, RemainingStock: stock, NewBalance: balance}
		return nil
	})
	if err != nil {
		return PlacedOrder{}, err
	}
	logger.SVCLedger.Info("order placed",
		slog.String("event", "ledger.order.place"),
		slog.String("order_id", placed.Order.ID),
		slog.Int64("user_id", placed.Order.UserID),
		slog.Int64("amount", placed.Order.Amount),
		slog.Int("stock_left", placed.RemainingStock),
	)
	return placed, nil
}

func (s *Postgres) FulfillOrder(ctx context.Context, orderID string, adminID int64, details string) (domain.Order, error) {
	const q = `
		UPDATE orders
		SET status = $2, delivered_details = $3, delivered_by = $4, delivered_at = $5
		WHERE id = $1 AND status = $6
		RETURNING ` + orderColumns
	var o domain.Order
	err := sqlx.GetContext(ctx, s.db, &o, q, orderID, domain.OrderDelivered, details, adminID, time.Now().UTC(), domain.OrderPending)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if chkErr := sqlx.GetContext(ctx, s.db, &exists, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID); chkErr != nil {
			return domain.Order{}, chkErr
		}
		if !exists {
			return domain.Order{}, errs.ErrNotFound
		}
		return domain.Order{}, errs.ErrStaleTransition
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("fulfill order %s: %w", orderID, err)
	}
	return o, nil
}

func (s *Postgres) CancelOrder(ctx context.Context, orderID string, adminID int64) (domain.Order, error) {
	var cancelled domain.Order
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		const q = `
			UPDATE orders SET status = $2
			WHERE id = $1 AND status = $3
			RETURNING ` + orderColumns
		err := sqlx.GetContext(ctx, tx, &cancelled, q, orderID, domain.OrderCancelled, domain.OrderPending)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if chkErr := sqlx.GetContext(ctx, tx, &exists, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID); chkErr != nil {
				return chkErr
			}
			if !exists {
				return errs.ErrNotFound
			}
			return errs.ErrStaleTransition
		}
		if err != nil {
			return fmt.Errorf("cancel order %s: %w", orderID, err)
		}
		// Refund and restock belong to the same boundary as the transition;
		// a partial cancellation must never be observable.
		if _, err := adjustBalanceOn(ctx, tx, cancelled.UserID, cancelled.Amount); err != nil {
			return err
		}
		if _, err := adjustStockOn(ctx, tx, cancelled.ItemID, 1); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	logger.SVCLedger.Info("order cancelled",
		slog.String("event", "ledger.order.cancel"),
		slog.String("order_id", orderID),
		slog.Int64("admin_id", adminID),
		slog.Int64("refund", cancelled.Amount),
	)
	return cancelled, nil
}

// --- deposits ---

const depositColumns = `id, user_id, amount, method, proof, status, reviewed_by, created_at, reviewed_at`

func (s *Postgres) RecordDeposit(ctx context.Context, d domain.Deposit) error {
	const q = `
		INSERT INTO deposits (id, user_id, amount, method, proof, status)
		VALUES (:id, :user_id, :amount, :method, :proof, :status)`
	if _, err := sqlx.NamedExecContext(ctx, s.db, q, d); err != nil {
		if mapped := mapInsertErr(err); errors.Is(mapped, errs.ErrDuplicateID) {
			return mapped
		}
		return fmt.Errorf("record deposit %s: %w", d.ID, err)
	}
	return nil
}

func (s *Postgres) GetDeposit(ctx context.Context, id string) (domain.Deposit, error) {
	var d domain.Deposit
	err := sqlx.GetContext(ctx, s.db, &d, `SELECT `+depositColumns+` FROM deposits WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Deposit{}, errs.ErrNotFound
	}
	if err != nil {
		return domain.Deposit{}, fmt.Errorf("get deposit %s: %w", id, err)
	}
	return d, nil
}

func (s *Postgres) ListDepositsByStatus(ctx context.Context, st domain.DepositStatus, limit int) ([]domain.Deposit, error) {
	const q = `SELECT ` + depositColumns + ` FROM deposits WHERE status = $1 ORDER BY created_at LIMIT $2`
	var deposits []domain.Deposit
	if err := sqlx.SelectContext(ctx, s.db, &deposits, q, st, normLimit(limit)); err != nil {
		return nil, fmt.Errorf("list deposits %s: %w", st, err)
	}
	return deposits, nil
}

func (s *Postgres) TransitionDepositStatus(ctx context.Context, id string, from, to domain.DepositStatus) error {
	const q = `UPDATE deposits SET status = $3 WHERE id = $1 AND status = $2`
	res, err := s.db.ExecContext(ctx, q, id, from, to)
	if err != nil {
		return fmt.Errorf("transition deposit %s: %w", id, err)
	}
	return requireTransition(ctx, s.db, res, `SELECT EXISTS(SELECT 1 FROM deposits WHERE id = $1)`, id)
}

func (s *Postgres) ApproveDeposit(ctx context.Context, depositID string, adminID int64) (domain.Deposit, int64, error) {
	var (
		approved domain.Deposit
		balance  int64
	)
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		// The conditional transition is what makes the credit exactly-once:
		// the losing admin of a double review matches zero rows here.
		const q = `
			UPDATE deposits SET status = $2, reviewed_by = $3, reviewed_at = $4
			WHERE id = $1 AND status = $5
			RETURNING ` + depositColumns
		err := sqlx.GetContext(ctx, tx, &approved, q, depositID, domain.DepositApproved, adminID, time.Now().UTC(), domain.DepositPending)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if chkErr := sqlx.GetContext(ctx, tx, &exists, `SELECT EXISTS(SELECT 1 FROM deposits WHERE id = $1)`, depositID); chkErr != nil {
				return chkErr
			}
			if !exists {
				return errs.ErrNotFound
			}
			return errs.ErrStaleTransition
		}
		if err != nil {
			return fmt.Errorf("approve deposit %s: %w", depositID, err)
		}
		balance, err = adjustBalanceOn(ctx, tx, approved.UserID, approved.Amount)
		return err
	})
	if err != nil {
		return domain.Deposit{}, 0, err
	}
	logger.SVCLedger.Info("deposit approved",
		slog.String("event", "ledger.deposit.approve"),
		slog.String("deposit_id", depositID),
		slog.Int64("admin_id", adminID),
		slog.Int64("amount", approved.Amount),
	)
	return approved, balance, nil
}

func (s *Postgres) RejectDeposit(ctx context.Context, depositID string, adminID int64) (domain.Deposit, error) {
	const q = `
		UPDATE deposits SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND status = $5
		RETURNING ` + depositColumns
	var d domain.Deposit
	err := sqlx.GetContext(ctx, s.db, &d, q, depositID, domain.DepositRejected, adminID, time.Now().UTC(), domain.DepositPending)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if chkErr := sqlx.GetContext(ctx, s.db, &exists, `SELECT EXISTS(SELECT 1 FROM deposits WHERE id = $1)`, depositID); chkErr != nil {
			return domain.Deposit{}, chkErr
		}
		if !exists {
			return domain.Deposit{}, errs.ErrNotFound
		}
		return domain.Deposit{}, errs.ErrStaleTransition
	}
	if err != nil {
		return domain.Deposit{}, fmt.Errorf("reject deposit %s: %w", depositID, err)
	}
	return d, nil
}
