// Package order implements the purchase workflow: placement against the
// ledger's atomic compound operation, and admin fulfilment or cancellation
// through conditional transitions.
package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/storebot/internal/catalog"
	"github.com/m3rciful/storebot/internal/domain"
	"github.com/m3rciful/storebot/internal/errs"
	"github.com/m3rciful/storebot/internal/events"
	"github.com/m3rciful/storebot/internal/ledger"
	"github.com/m3rciful/storebot/internal/logger"
	"github.com/m3rciful/storebot/internal/metrics"
	"github.com/m3rciful/storebot/internal/notify"
)

// Service drives the order workflow.
type Service struct {
	store     ledger.Store
	catalog   *catalog.Service
	publisher *events.Publisher
	notifier  notify.Notifier
}

// New wires the order workflow. publisher may be nil; notifier must not be.
func New(store ledger.Store, cat *catalog.Service, publisher *events.Publisher, notifier notify.Notifier) *Service {
	return &Service{store: store, catalog: cat, publisher: publisher, notifier: notifier}
}

// Place purchases one unit of the item for the user. Stock decrement, balance
// debit, order insert and counter bumps all land in one ledger boundary; on
// any failure nothing is mutated, so no compensation logic exists here.
func (s *Service) Place(ctx context.Context, userID int64, itemID string) (ledger.PlacedOrder, error) {
	item, err := s.catalog.Item(ctx, itemID)
	if err != nil {
		return ledger.PlacedOrder{}, err
	}
	if !item.Active {
		return ledger.PlacedOrder{}, errs.ErrNotFound
	}

	var placed ledger.PlacedOrder
	err = ledger.WithFreshID(ledger.OrderIDPrefix, func(id string) error {
		placed, err = s.store.PlaceOrder(ctx, domain.Order{
			ID:       id,
			UserID:   userID,
			ItemID:   item.ID,
			Category: item.Category,
			Title:    item.Title,
			// Amount is fixed here and never re-derived from the catalog.
			Amount: item.Price,
			Status: domain.OrderPending,
		})
		return err
	})
	if err != nil {
		metrics.LedgerFailures.WithLabelValues("order_place").Inc()
		logger.SVCOrders.Warn("order placement failed",
			slog.String("event", "orders.place"),
			slog.String("rid", logger.RIDFrom(ctx)),
			slog.Int64("user_id", userID),
			slog.String("item_id", itemID),
			slog.String("err", err.Error()),
		)
		return ledger.PlacedOrder{}, err
	}

	metrics.OrdersTotal.WithLabelValues(string(domain.OrderPending)).Inc()
	s.publisher.OrderPlaced(ctx, placed.Order)
	s.notifier.NotifyAdmins(fmt.Sprintf(
		"🛒 New order %s\nItem: %s\nBuyer: %d\nAmount: %d",
		placed.Order.ID, placed.Order.Title, userID, placed.Order.Amount,
	))
	return placed, nil
}

// Fulfill marks a pending order delivered and hands the details to the buyer.
// A second fulfilment attempt observes errs.ErrStaleTransition.
func (s *Service) Fulfill(ctx context.Context, orderID string, adminID int64, details string) (domain.Order, error) {
	o, err := s.store.FulfillOrder(ctx, orderID, adminID, details)
	if err != nil {
		return domain.Order{}, err
	}

	metrics.OrdersTotal.WithLabelValues(string(domain.OrderDelivered)).Inc()
	s.publisher.OrderReviewed(ctx, o, adminID)

	text := fmt.Sprintf("✅ Order %s delivered!\n%s", o.ID, o.DeliveredDetails)
	if item, itemErr := s.catalog.Item(ctx, o.ItemID); itemErr == nil && item.DeliveryTemplate != "" {
		text += "\n" + item.DeliveryTemplate
	}
	s.notifier.NotifyUser(o.UserID, text)

	logger.SVCOrders.Info("order delivered",
		slog.String("event", "orders.fulfill"),
		slog.String("rid", logger.RIDFrom(ctx)),
		slog.String("order_id", o.ID),
		slog.Int64("admin_id", adminID),
	)
	return o, nil
}

// Cancel voids a pending order; the refund and restock happen inside the same
// ledger boundary as the status transition.
func (s *Service) Cancel(ctx context.Context, orderID string, adminID int64) (domain.Order, error) {
	o, err := s.store.CancelOrder(ctx, orderID, adminID)
	if err != nil {
		return domain.Order{}, err
	}

	metrics.OrdersTotal.WithLabelValues(string(domain.OrderCancelled)).Inc()
	s.publisher.OrderReviewed(ctx, o, adminID)
	s.notifier.NotifyUser(o.UserID, fmt.Sprintf(
		"❌ Order %s was cancelled. %d has been returned to your balance.", o.ID, o.Amount,
	))

	logger.SVCOrders.Info("order cancelled",
		slog.String("event", "orders.cancel"),
		slog.String("rid", logger.RIDFrom(ctx)),
		slog.String("order_id", o.ID),
		slog.Int64("admin_id", adminID),
	)
	return o, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, orderID string) (domain.Order, error) {
	return s.store.GetOrder(ctx, orderID)
}

// History lists the user's most recent orders.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]domain.Order, error) {
	return s.store.ListOrdersByUser(ctx, userID, limit)
}

// Pending lists orders awaiting fulfilment, oldest first.
func (s *Service) Pending(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.store.ListOrdersByStatus(ctx, domain.OrderPending, limit)
}
