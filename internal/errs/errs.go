// Package errs declares the recoverable error kinds shared by the ledger,
// the workflows and the bot surface. All of them are matched with errors.Is
// at the boundary and turned into a user-visible message.
package errs

import "errors"

var (
	// ErrInsufficientFunds is returned when a debit would drive a balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrOutOfStock is returned when a stock decrement exceeds the remaining stock.
	ErrOutOfStock = errors.New("out of stock")
	// ErrDuplicateID is returned on an id uniqueness violation; callers regenerate and retry.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrStaleTransition is returned when a conditional status transition finds
	// the entity in a different status than expected.
	ErrStaleTransition = errors.New("stale status transition")
	// ErrNotFound is returned for unknown user/item/order/deposit ids.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when a non-admin attempts a privileged action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput is returned for malformed amounts or selections.
	ErrInvalidInput = errors.New("invalid input")
)
