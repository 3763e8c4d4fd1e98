// Package ledger is the single source of truth for users, catalog items,
// orders and deposits. Every mutation goes through one of its atomic
// operations; compound operations (place order, cancel order, approve
// deposit) either fully apply or fully fail inside one transactional
// boundary. No component caches mutable ledger fields across calls.
package ledger

import (
	"context"

	"github.com/m3rciful/storebot/internal/domain"
)

// PlacedOrder reports the outcome of a successful PlaceOrder.
type PlacedOrder struct {
	Order          domain.Order
	RemainingStock int
	NewBalance     int64
}

// Store exposes per-entity atomic operations, not raw field setters.
//
// Conditional transitions (TransitionOrderStatus, TransitionDepositStatus)
// succeed only when the current status matches the expected prior status and
// return errs.ErrStaleTransition otherwise; this is what keeps one-time
// effects (deposit credit, order refund) from being applied twice under
// concurrent admin reviews.
type Store interface {
	// Users.
	CreateUserIfAbsent(ctx context.Context, id int64, displayName string) error
	GetUser(ctx context.Context, id int64) (domain.User, error)
	// AdjustBalance is the only legal path to change a balance. It fails with
	// errs.ErrInsufficientFunds when a negative delta would drive the balance
	// below zero and returns the new balance otherwise.
	AdjustBalance(ctx context.Context, userID, delta int64) (int64, error)
	CountUsers(ctx context.Context) (int, error)

	// Catalog.
	CreateItemIfAbsent(ctx context.Context, item domain.CatalogItem) error
	GetItem(ctx context.Context, id string) (domain.CatalogItem, error)
	ListItems(ctx context.Context, category string, activeOnly bool) ([]domain.CatalogItem, error)
	ListCategories(ctx context.Context, kind domain.ItemKind) ([]string, error)
	// AdjustStock applies a signed stock delta; it fails with errs.ErrOutOfStock
	// when the result would be negative.
	AdjustStock(ctx context.Context, itemID string, delta int) (int, error)
	// DecrementStock removes qty units, failing with errs.ErrOutOfStock when
	// fewer than qty units remain.
	DecrementStock(ctx context.Context, itemID string, qty int) (int, error)
	SetPrice(ctx context.Context, itemID string, price int64) error
	SetActive(ctx context.Context, itemID string, active bool) error

	// Orders.
	RecordOrder(ctx context.Context, o domain.Order) error
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64, limit int) ([]domain.Order, error)
	ListOrdersByStatus(ctx context.Context, st domain.OrderStatus, limit int) ([]domain.Order, error)
	TransitionOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
	// PlaceOrder atomically decrements stock, debits the balance, inserts the
	// order and bumps the user's order counters. On errs.ErrOutOfStock,
	// errs.ErrInsufficientFunds or errs.ErrDuplicateID nothing is mutated.
	PlaceOrder(ctx context.Context, o domain.Order) (PlacedOrder, error)
	// FulfillOrder transitions pending -> delivered and stores the delivery
	// details, admin id and timestamp.
	FulfillOrder(ctx context.Context, orderID string, adminID int64, details string) (domain.Order, error)
	// CancelOrder transitions pending -> cancelled, credits the order amount
	// back to the buyer and restores the stock, all in one boundary.
	CancelOrder(ctx context.Context, orderID string, adminID int64) (domain.Order, error)

	// Deposits.
	RecordDeposit(ctx context.Context, d domain.Deposit) error
	GetDeposit(ctx context.Context, id string) (domain.Deposit, error)
	ListDepositsByStatus(ctx context.Context, st domain.DepositStatus, limit int) ([]domain.Deposit, error)
	TransitionDepositStatus(ctx context.Context, id string, from, to domain.DepositStatus) error
	// ApproveDeposit transitions pending -> approved and credits the amount in
	// the same boundary; the credit is applied exactly once. Returns the
	// reviewed deposit and the buyer's new balance.
	ApproveDeposit(ctx context.Context, depositID string, adminID int64) (domain.Deposit, int64, error)
	// RejectDeposit transitions pending -> rejected with no balance effect.
	RejectDeposit(ctx context.Context, depositID string, adminID int64) (domain.Deposit, error)
}
