// Package catalog manages the sellable inventory: country-scoped telegram
// accounts and game registration slots. All writes delegate to the ledger
// store's atomic primitives; there is no separate mutation path.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/storebot/internal/domain"
	"github.com/m3rciful/storebot/internal/ledger"
	"github.com/m3rciful/storebot/internal/logger"
)

// Service reads and edits catalog items.
type Service struct {
	store    ledger.Store
	defaults []domain.CatalogItem
}

// New builds the catalog manager. The defaults are seeded once at startup via
// Seed and are passed in explicitly rather than read from a global.
func New(store ledger.Store, defaults []domain.CatalogItem) *Service {
	return &Service{store: store, defaults: defaults}
}

// Seed inserts the default items that do not exist yet. Existing rows keep
// their admin-edited stock and price.
func (s *Service) Seed(ctx context.Context) error {
	for _, item := range s.defaults {
		if err := s.store.CreateItemIfAbsent(ctx, item); err != nil {
			return fmt.Errorf("seed item %s: %w", item.ID, err)
		}
	}
	logger.SVCCatalog.Info("catalog seeded",
		slog.String("event", "catalog.seed"),
		slog.Int("count", len(s.defaults)),
	)
	return nil
}

// Categories lists active categories for one item kind.
func (s *Service) Categories(ctx context.Context, kind domain.ItemKind) ([]string, error) {
	return s.store.ListCategories(ctx, kind)
}

// Items lists active items within a category.
func (s *Service) Items(ctx context.Context, category string) ([]domain.CatalogItem, error) {
	return s.store.ListItems(ctx, category, true)
}

// Item returns a single catalog item by id, active or not.
func (s *Service) Item(ctx context.Context, id string) (domain.CatalogItem, error) {
	return s.store.GetItem(ctx, id)
}

// AdjustStock applies a signed stock delta and returns the remaining stock.
func (s *Service) AdjustStock(ctx context.Context, itemID string, delta int) (int, error) {
	stock, err := s.store.AdjustStock(ctx, itemID, delta)
	if err != nil {
		return 0, err
	}
	logger.SVCCatalog.Info("stock adjusted",
		slog.String("event", "catalog.stock"),
		slog.String("item_id", itemID),
		slog.Int("delta", delta),
		slog.Int("stock", stock),
	)
	return stock, nil
}

// SetPrice updates an item's price. Existing orders keep the amount they were
// placed with.
func (s *Service) SetPrice(ctx context.Context, itemID string, price int64) error {
	if err := s.store.SetPrice(ctx, itemID, price); err != nil {
		return err
	}
	logger.SVCCatalog.Info("price updated",
		slog.String("event", "catalog.price"),
		slog.String("item_id", itemID),
		slog.Int64("price", price),
	)
	return nil
}

// SetActive toggles an item's visibility in the storefront.
func (s *Service) SetActive(ctx context.Context, itemID string, active bool) error {
	return s.store.SetActive(ctx, itemID, active)
}
