package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/storebot/internal/domain"
	"github.com/m3rciful/storebot/internal/errs"
)

const adminListLimit = 20

// reviewError translates workflow errors into admin-facing replies. A stale
// transition means another admin got there first; the effect was applied
// exactly once and must not be forced.
func reviewError(c tele.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return c.Send("Unknown ID.")
	case errors.Is(err, errs.ErrStaleTransition):
		return c.Send("Already processed by another admin.")
	default:
		return c.Send("Operation failed: " + err.Error())
	}
}

// handlePending lists orders awaiting delivery.
func (b *Bot) handlePending(c tele.Context) error {
	orders, err := b.orders.Pending(reqCtx(c), adminListLimit)
	if err != nil {
		return c.Send("Could not load pending orders.")
	}
	if len(orders) == 0 {
		return c.Send("No pending orders. 🎉")
	}
	lines := []string{"⏳ Pending orders", ""}
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("%s · user %d · %s · %s", o.ID, o.UserID, o.Title, b.money(o.Amount)))
	}
	lines = append(lines, "", "/deliver <id> <details> · /cancel <id>")
	return c.Send(strings.Join(lines, "\n"))
}

// handleDeposits lists deposits awaiting review.
func (b *Bot) handleDeposits(c tele.Context) error {
	deposits, err := b.deposits.Pending(reqCtx(c), adminListLimit)
	if err != nil {
		return c.Send("Could not load pending deposits.")
	}
	if len(deposits) == 0 {
		return c.Send("No pending deposits. 🎉")
	}
	lines := []string{"⏳ Pending deposits", ""}
	for _, d := range deposits {
		lines = append(lines, fmt.Sprintf("%s · user %d · %s · %s · ref %s", d.ID, d.UserID, b.money(d.Amount), d.Method, d.Proof))
	}
	lines = append(lines, "", "/approve <id> · /reject <id>")
	return c.Send(strings.Join(lines, "\n"))
}

// handleApprove credits a pending deposit: /approve DEP-XXXXX-...
func (b *Bot) handleApprove(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /approve <deposit id>")
	}
	d, err := b.deposits.Approve(reqCtx(c), args[0], senderID(c))
	if err != nil {
		return reviewError(c, err)
	}
	return c.Send(fmt.Sprintf("✅ Deposit %s approved, %s credited to user %d.", d.ID, b.money(d.Amount), d.UserID))
}

// handleReject declines a pending deposit: /reject DEP-XXXXX-...
func (b *Bot) handleReject(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /reject <deposit id>")
	}
	d, err := b.deposits.Reject(reqCtx(c), args[0], senderID(c))
	if err != nil {
		return reviewError(c, err)
	}
	return c.Send(fmt.Sprintf("❌ Deposit %s rejected.", d.ID))
}

// handleDeliver fulfils a pending order: /deliver ORD-XXXXX-... <details>
// Everything after the ID is handed to the buyer verbatim.
func (b *Bot) handleDeliver(c tele.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Send("Usage: /deliver <order id> <delivery details>")
	}
	details := strings.Join(args[1:], " ")
	o, err := b.orders.Fulfill(reqCtx(c), args[0], senderID(c), details)
	if err != nil {
		return reviewError(c, err)
	}
	return c.Send(fmt.Sprintf("✅ Order %s delivered to user %d.", o.ID, o.UserID))
}

// handleCancel voids a pending order and refunds the buyer: /cancel ORD-...
func (b *Bot) handleCancel(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /cancel <order id>")
	}
	o, err := b.orders.Cancel(reqCtx(c), args[0], senderID(c))
	if err != nil {
		return reviewError(c, err)
	}
	return c.Send(fmt.Sprintf("❌ Order %s cancelled, %s refunded to user %d.", o.ID, b.money(o.Amount), o.UserID))
}

// handleStock adjusts inventory: /stock <item id> <signed delta>
func (b *Bot) handleStock(c tele.Context) error {
	args := c.Args()
	if len(args) != 2 {
		return c.Send("Usage: /stock <item id> <delta>")
	}
	delta, err := strconv.Atoi(args[1])
	if err != nil || delta == 0 {
		return c.Send("Delta must be a non-zero integer, e.g. 5 or -2.")
	}
	stock, err := b.catalog.AdjustStock(reqCtx(c), args[0], delta)
	if err != nil {
		if errors.Is(err, errs.ErrOutOfStock) {
			return c.Send("Cannot remove more units than are in stock.")
		}
		return reviewError(c, err)
	}
	return c.Send(fmt.Sprintf("📦 %s now has %d in stock.", args[0], stock))
}

// handlePrice updates an item price: /price <item id> <amount>
// Already-placed orders keep the amount they were placed with.
func (b *Bot) handlePrice(c tele.Context) error {
	args := c.Args()
	if len(args) != 2 {
		return c.Send("Usage: /price <item id> <amount>")
	}
	price, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || price <= 0 {
		return c.Send("Price must be a positive integer.")
	}
	if err := b.catalog.SetPrice(reqCtx(c), args[0], price); err != nil {
		return reviewError(c, err)
	}
	return c.Send(fmt.Sprintf("💱 %s now costs %s.", args[0], b.money(price)))
}

// handleItem toggles storefront visibility: /item <item id> on|off
func (b *Bot) handleItem(c tele.Context) error {
	args := c.Args()
	if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
		return c.Send("Usage: /item <item id> on|off")
	}
	active := args[1] == "on"
	if err := b.catalog.SetActive(reqCtx(c), args[0], active); err != nil {
		return reviewError(c, err)
	}
	if active {
		return c.Send(fmt.Sprintf("👁 %s is now visible in the shop.", args[0]))
	}
	return c.Send(fmt.Sprintf("🙈 %s is now hidden from the shop.", args[0]))
}

// handleStats shows a small operational summary.
func (b *Bot) handleStats(c tele.Context) error {
	ctx := reqCtx(c)

	users, err := b.store.CountUsers(ctx)
	if err != nil {
		return c.Send("Could not load stats.")
	}
	pendingOrders, err := b.store.ListOrdersByStatus(ctx, domain.OrderPending, adminListLimit)
	if err != nil {
		return c.Send("Could not load stats.")
	}
	pendingDeposits, err := b.store.ListDepositsByStatus(ctx, domain.DepositPending, adminListLimit)
	if err != nil {
		return c.Send("Could not load stats.")
	}

	return c.Send(fmt.Sprintf(
		"📊 Stats\n\nUsers: %d\nPending orders: %d\nPending deposits: %d",
		users, len(pendingOrders), len(pendingDeposits),
	))
}
