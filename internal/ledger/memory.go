package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/storebot/internal/domain"
	"github.com/m3rciful/storebot/internal/errs"
)

// Memory implements Store with mutex-guarded maps. Compound operations hold
// the lock for their whole duration, which gives them the same all-or-nothing
// behaviour as the Postgres transactions. Used by tests and the dev driver.
type Memory struct {
	mu       sync.Mutex
	users    map[int64]*domain.User
	items    map[string]*domain.CatalogItem
	orders   map[string]*domain.Order
	deposits map[string]*domain.Deposit
}

// NewMemory constructs an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[int64]*domain.User),
		items:    make(map[string]*domain.CatalogItem),
		orders:   make(map[string]*domain.Order),
		deposits: make(map[string]*domain.Deposit),
	}
}

var _ Store = (*Memory)(nil)

// --- users ---

func (m *Memory) CreateUserIfAbsent(_ context.Context, id int64, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; ok {
		return nil
	}
	m.users[id] = &domain.User{ID: id, DisplayName: displayName, JoinedAt: time.Now().UTC()}
	return nil
}

func (m *Memory) GetUser(_ context.Context, id int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, errs.ErrNotFound
	}
	return *u, nil
}

func (m *Memory) AdjustBalance(_ context.Context, userID, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adjustBalanceLocked(userID, delta)
}

func (m *Memory) adjustBalanceLocked(userID, delta int64) (int64, error) {
	u, ok := m.users[userID]
	if !ok {
		return 0, errs.ErrNotFound
	}
	if u.Balance+delta < 0 {
		return 0, errs.ErrInsufficientFunds
	}
	u.Balance += delta
	return u.Balance, nil
}

func (m *Memory) CountUsers(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

// --- catalog ---

func (m *Memory) CreateItemIfAbsent(_ context.Context, item domain.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; ok {
		return nil
	}
	cp := item
	m.items[item.ID] = &cp
	return nil
}

func (m *Memory) GetItem(_ context.Context, id string) (domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return domain.CatalogItem{}, errs.ErrNotFound
	}
	return *item, nil
}

func (m *Memory) ListItems(_ context.Context, category string, activeOnly bool) ([]domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.CatalogItem
	for _, item := range m.items {
		if item.Category != category {
			continue
		}
		if activeOnly && !item.Active {
			continue
		}
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Title < items[j].Title })
	return items, nil
}

func (m *Memory) ListCategories(_ context.Context, kind domain.ItemKind) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	var categories []string
	for _, item := range m.items {
		if item.Kind != kind || !item.Active {
			continue
		}
		if _, ok := seen[item.Category]; ok {
			continue
		}
		seen[item.Category] = struct{}{}
		categories = append(categories, item.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

func (m *Memory) AdjustStock(_ context.Context, itemID string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adjustStockLocked(itemID, delta)
}

func (m *Memory) adjustStockLocked(itemID string, delta int) (int, error) {
	item, ok := m.items[itemID]
	if !ok {
		return 0, errs.ErrNotFound
	}
	if item.Stock+delta < 0 {
		return 0, errs.ErrOutOfStock
	}
	item.Stock += delta
	return item.Stock, nil
}

func (m *Memory) DecrementStock(ctx context.Context, itemID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, errs.ErrInvalidInput
	}
	return m.AdjustStock(ctx, itemID, -qty)
}

func (m *Memory) SetPrice(_ context.Context, itemID string, price int64) error {
	if price <= 0 {
		return errs.ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return errs.ErrNotFound
	}
	item.Price = price
	return nil
}

func (m *Memory) SetActive(_ context.Context, itemID string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return errs.ErrNotFound
	}
	item.Active = active
	return nil
}

// --- orders ---

func (m *Memory) RecordOrder(_ context.Context, o domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordOrderLocked(o)
}

func (m *Memory) recordOrderLocked(o domain.Order) error {
	if _, ok := m.orders[o.ID]; ok {
		return errs.ErrDuplicateID
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	m.orders[o.ID] = &o
	return nil
}

func (m *Memory) GetOrder(_ context.Context, id string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, errs.ErrNotFound
	}
	return *o, nil
}

func (m *Memory) ListOrdersByUser(_ context.Context, userID int64, limit int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return capList(orders, limit), nil
}

func (m *Memory) ListOrdersByStatus(_ context.Context, st domain.OrderStatus, limit int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []domain.Order
	for _, o := range m.orders {
		if o.Status == st {
			orders = append(orders, *o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return capList(orders, limit), nil
}

func capList[T any](list []T, limit int) []T {
	limit = normLimit(limit)
	if len(list) > limit {
		return list[:limit]
	}
	return list
}

func (m *Memory) TransitionOrderStatus(_ context.Context, id string, from, to domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return errs.ErrNotFound
	}
	if o.Status != from {
		return errs.ErrStaleTransition
	}
	o.Status = to
	return nil
}

func (m *Memory) PlaceOrder(_ context.Context, o domain.Order) (PlacedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate both legs before mutating anything so a failed debit cannot
	// leave the stock decremented.
	item, ok := m.items[o.ItemID]
	if !ok {
		return PlacedOrder{}, errs.ErrNotFound
	}
	u, ok := m.users[o.UserID]
	if !ok {
		return PlacedOrder{}, errs.ErrNotFound
	}
	if _, dup := m.orders[o.ID]; dup {
		return PlacedOrder{}, errs.ErrDuplicateID
	}
	if u.Balance < o.Amount {
		return PlacedOrder{}, errs.ErrInsufficientFunds
	}
	if item.Stock < 1 {
		return PlacedOrder{}, errs.ErrOutOfStock
	}

	u.Balance -= o.Amount
	item.Stock--
	u.TotalOrders++
	u.TotalSpent += o.Amount
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	m.orders[o.ID] = &o

	return PlacedOrder{Order: o, RemainingStock: item.Stock, NewBalance: u.Balance}, nil
}

func (m *Memory) FulfillOrder(_ context.Context, orderID string, adminID int64, details string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.Order{}, errs.ErrNotFound
	}
	if o.Status != domain.OrderPending {
		return domain.Order{}, errs.ErrStaleTransition
	}
	now := time.Now().UTC()
	o.Status = domain.OrderDelivered
	o.DeliveredDetails = details
	o.DeliveredBy = adminID
	o.DeliveredAt = &now
	return *o, nil
}

func (m *Memory) CancelOrder(_ context.Context, orderID string, _ int64) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.Order{}, errs.ErrNotFound
	}
	if o.Status != domain.OrderPending {
		return domain.Order{}, errs.ErrStaleTransition
	}
	// Validate both legs before mutating anything so a failed restock cannot
	// leave the order cancelled or the refund applied.
	u, ok := m.users[o.UserID]
	if !ok {
		return domain.Order{}, errs.ErrNotFound
	}
	item, ok := m.items[o.ItemID]
	if !ok {
		return domain.Order{}, errs.ErrNotFound
	}
	u.Balance += o.Amount
	item.Stock++
	o.Status = domain.OrderCancelled
	return *o, nil
}

// --- deposits ---

func (m *Memory) RecordDeposit(_ context.Context, d domain.Deposit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.deposits[d.ID]; ok {
		return errs.ErrDuplicateID
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	m.deposits[d.ID] = &d
	return nil
}

func (m *Memory) GetDeposit(_ context.Context, id string) (domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deposits[id]
	if !ok {
		return domain.Deposit{}, errs.ErrNotFound
	}
	return *d, nil
}

func (m *Memory) ListDepositsByStatus(_ context.Context, st domain.DepositStatus, limit int) ([]domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deposits []domain.Deposit
	for _, d := range m.deposits {
		if d.Status == st {
			deposits = append(deposits, *d)
		}
	}
	sort.Slice(deposits, func(i, j int) bool { return deposits[i].CreatedAt.Before(deposits[j].CreatedAt) })
	return capList(deposits, limit), nil
}

func (m *Memory) TransitionDepositStatus(_ context.Context, id string, from, to domain.DepositStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deposits[id]
	if !ok {
		return errs.ErrNotFound
	}
	if d.Status != from {
		return errs.ErrStaleTransition
	}
	d.Status = to
	return nil
}

func (m *Memory) ApproveDeposit(_ context.Context, depositID string, adminID int64) (domain.Deposit, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deposits[depositID]
	if !ok {
		return domain.Deposit{}, 0, errs.ErrNotFound
	}
	if d.Status != domain.DepositPending {
		return domain.Deposit{}, 0, errs.ErrStaleTransition
	}
	balance, err := m.adjustBalanceLocked(d.UserID, d.Amount)
	if err != nil {
		return domain.Deposit{}, 0, err
	}
	now := time.Now().UTC()
	d.Status = domain.DepositApproved
	d.ReviewedBy = adminID
	d.ReviewedAt = &now
	return *d, balance, nil
}

func (m *Memory) RejectDeposit(_ context.Context, depositID string, adminID int64) (domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deposits[depositID]
	if !ok {
		return domain.Deposit{}, errs.ErrNotFound
	}
	if d.Status != domain.DepositPending {
		return domain.Deposit{}, errs.ErrStaleTransition
	}
	now := time.Now().UTC()
	d.Status = domain.DepositRejected
	d.ReviewedBy = adminID
	d.ReviewedAt = &now
	return *d, nil
}
