// Package session tracks each user's progress through the multi-step
// storefront conversations. Sessions for different users are fully
// independent; within one user the bot handles a single update at a time, so
// a session is owned by that user's in-flight request.
package session

import (
	"time"

	"github.com/m3rciful/storebot/internal/domain"
)

// Step identifies a conversation step awaiting user input.
type Step string

const (
	// StepIdle indicates the user is at the main menu.
	StepIdle Step = "idle"

	StepShopCategory Step = "shop_category"
	StepShopItem     Step = "shop_item"
	StepShopConfirm  Step = "shop_confirm"

	StepDepositMethod  Step = "deposit_method"
	StepDepositAmount  Step = "deposit_amount"
	StepDepositProof   Step = "deposit_proof"
	StepDepositConfirm Step = "deposit_confirm"
)

// StepData is the tagged payload carried by a step. Each variant holds
// exactly the fields valid at that point of the flow, so an illegal partial
// state is unrepresentable.
type StepData interface{ stepData() }

// OrderDraft accumulates the purchase selection.
type OrderDraft struct {
	Kind     domain.ItemKind `json:"kind"`
	Category string          `json:"category,omitempty"`
	ItemID   string          `json:"item_id,omitempty"`
	Title    string          `json:"title,omitempty"`
	Price    int64           `json:"price,omitempty"`
}

func (OrderDraft) stepData() {}

// DepositDraft accumulates the top-up request.
type DepositDraft struct {
	Method string `json:"method,omitempty"`
	Amount int64  `json:"amount,omitempty"`
	Proof  string `json:"proof,omitempty"`
}

func (DepositDraft) stepData() {}

// Session is the per-user conversation state. It is overwritten on each step
// and cleared on completion, cancel or idle timeout.
type Session struct {
	Step      Step
	Data      StepData
	UpdatedAt time.Time
}

// Idle returns a fresh main-menu session.
func Idle() Session {
	return Session{Step: StepIdle}
}

// Manager stores per-user sessions. Implementations reset sessions that have
// been idle longer than the configured timeout; the reset is advisory
// cleanup, correctness comes from the ledger's atomic operations.
type Manager interface {
	Get(userID int64) Session
	Set(userID int64, s Session)
	Clear(userID int64)
	InProgress(userID int64) bool
	Close() error
}
