// Package domain defines the durable storefront entities persisted by the
// ledger store. All money amounts are integer minor units of a single
// currency.
package domain

import "time"

// User is created on first contact and never deleted.
type User struct {
	ID          int64     `db:"id"`
	DisplayName string    `db:"display_name"`
	Balance     int64     `db:"balance"`
	TotalOrders int       `db:"total_orders"`
	TotalSpent  int64     `db:"total_spent"`
	JoinedAt    time.Time `db:"joined_at"`
}

// ItemKind distinguishes the two sellable catalog entry types.
type ItemKind string

const (
	// KindAccount is a country-scoped telegram account.
	KindAccount ItemKind = "account"
	// KindGameSlot is a game registration number slot.
	KindGameSlot ItemKind = "game_slot"
)

// CatalogItem is a sellable stock-keeping entry.
type CatalogItem struct {
	ID    string   `db:"id"`
	Kind  ItemKind `db:"kind"`
	// Category is the region or game the item belongs to, e.g. "BD" or "pubg".
	Category string `db:"category"`
	Title    string `db:"title"`
	Price    int64  `db:"price"`
	Stock    int    `db:"stock"`
	Active   bool   `db:"active"`
	// DeliveryTemplate is opaque text handed to the buyer on fulfilment.
	DeliveryTemplate string `db:"delivery_template"`
}

// OrderStatus only ever advances forward: pending -> delivered | cancelled.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Order records a purchase. Amount is the price at purchase time and is never
// re-derived from the catalog.
type Order struct {
	ID       string      `db:"id"`
	UserID   int64       `db:"user_id"`
	ItemID   string      `db:"item_id"`
	Category string      `db:"category"`
	Title    string      `db:"title"`
	Amount   int64       `db:"amount"`
	Status   OrderStatus `db:"status"`
	// DeliveredDetails holds the phone/OTP or equivalent, set only on delivery.
	DeliveredDetails string     `db:"delivered_details"`
	DeliveredBy      int64      `db:"delivered_by"`
	CreatedAt        time.Time  `db:"created_at"`
	DeliveredAt      *time.Time `db:"delivered_at"`
}

// DepositStatus transitions exactly once: pending -> approved | rejected.
type DepositStatus string

const (
	DepositPending  DepositStatus = "pending"
	DepositApproved DepositStatus = "approved"
	DepositRejected DepositStatus = "rejected"
)

// Deposit is an admin-attested top-up request.
type Deposit struct {
	ID     string `db:"id"`
	UserID int64  `db:"user_id"`
	Amount int64  `db:"amount"`
	// Method names the payment rail the user claims to have used.
	Method string `db:"method"`
	// Proof is the transaction reference supplied by the user.
	Proof      string        `db:"proof"`
	Status     DepositStatus `db:"status"`
	ReviewedBy int64         `db:"reviewed_by"`
	CreatedAt  time.Time     `db:"created_at"`
	ReviewedAt *time.Time    `db:"reviewed_at"`
}
