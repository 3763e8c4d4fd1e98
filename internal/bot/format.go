package bot

import (
	"fmt"
	"strings"

	"github.com/m3rciful/storebot/internal/domain"
)

// money renders a minor-unit amount with the configured currency symbol.
func (b *Bot) money(amount int64) string {
	return fmt.Sprintf("%s%d", b.currency, amount)
}

func statusEmoji(status string) string {
	switch status {
	case string(domain.OrderDelivered), string(domain.DepositApproved):
		return "✅"
	case string(domain.OrderCancelled), string(domain.DepositRejected):
		return "❌"
	default:
		return "⏳"
	}
}

func (b *Bot) formatOrderLine(o domain.Order) string {
	return fmt.Sprintf("%s %s · %s · %s · %s",
		statusEmoji(string(o.Status)), o.ID, o.Title, b.money(o.Amount), o.CreatedAt.Format("02 Jan 15:04"))
}

func (b *Bot) formatDepositLine(d domain.Deposit) string {
	return fmt.Sprintf("%s %s · user %d · %s · %s",
		statusEmoji(string(d.Status)), d.ID, d.UserID, b.money(d.Amount), d.Method)
}

func (b *Bot) formatOrderList(header string, orders []domain.Order) string {
	if len(orders) == 0 {
		return header + "\n\nNothing here yet."
	}
	lines := make([]string, 0, len(orders)+2)
	lines = append(lines, header, "")
	for _, o := range orders {
		lines = append(lines, b.formatOrderLine(o))
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) formatDepositList(header string, deposits []domain.Deposit) string {
	if len(deposits) == 0 {
		return header + "\n\nNothing here yet."
	}
	lines := make([]string, 0, len(deposits)+2)
	lines = append(lines, header, "")
	for _, d := range deposits {
		lines = append(lines, b.formatDepositLine(d))
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) formatProfile(u domain.User) string {
	return fmt.Sprintf(
		"👤 %s\n\nBalance: %s\nOrders: %d\nTotal spent: %s\nMember since: %s",
		u.DisplayName, b.money(u.Balance), u.TotalOrders, b.money(u.TotalSpent),
		u.JoinedAt.Format("02 Jan 2006"),
	)
}
