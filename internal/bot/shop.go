package bot

import (
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/storebot/internal/domain"
	"github.com/m3rciful/storebot/internal/errs"
	"github.com/m3rciful/storebot/internal/session"
)

// startShop opens the category list for one item kind.
func (b *Bot) startShop(c tele.Context, kind domain.ItemKind) error {
	categories, err := b.catalog.Categories(reqCtx(c), kind)
	if err != nil {
		return c.Send("Could not load the catalog, please try again later.")
	}
	if len(categories) == 0 {
		return b.toMainMenu(c, "Nothing is available in this section right now, check back later.")
	}

	b.sessions.Set(senderID(c), session.Session{
		Step: session.StepShopCategory,
		Data: session.OrderDraft{Kind: kind},
	})
	return c.Send("Pick a category:", replyButtons(labelRows(categories, 2, btnBack)...))
}

// shopChooseCategory handles category selection. Unknown input re-prompts
// without touching the draft.
func (b *Bot) shopChooseCategory(c tele.Context, sess session.Session, text string) error {
	draft, ok := sess.Data.(session.OrderDraft)
	if !ok {
		return b.toMainMenu(c, "Let's start over.")
	}

	categories, err := b.catalog.Categories(reqCtx(c), draft.Kind)
	if err != nil {
		return c.Send("Could not load the catalog, please try again later.")
	}
	if !contains(categories, text) {
		return c.Send("Please pick a category from the keyboard.")
	}

	items, err := b.catalog.Items(reqCtx(c), text)
	if err != nil {
		return c.Send("Could not load the catalog, please try again later.")
	}
	if len(items) == 0 {
		return c.Send("This category is empty right now, pick another one.")
	}

	draft.Category = text
	b.sessions.Set(senderID(c), session.Session{Step: session.StepShopItem, Data: draft})

	labels := make([]string, 0, len(items))
	lines := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, item.Title)
		lines = append(lines, fmt.Sprintf("• %s · %s (%d in stock)", item.Title, b.money(item.Price), item.Stock))
	}
	text = "Available in " + draft.Category + ":\n"
	for _, line := range lines {
		text += "\n" + line
	}
	return c.Send(text, replyButtons(labelRows(labels, 1, btnBack)...))
}

// shopChooseItem handles item selection and shows the purchase summary.
func (b *Bot) shopChooseItem(c tele.Context, sess session.Session, text string) error {
	draft, ok := sess.Data.(session.OrderDraft)
	if !ok {
		return b.toMainMenu(c, "Let's start over.")
	}

	items, err := b.catalog.Items(reqCtx(c), draft.Category)
	if err != nil {
		return c.Send("Could not load the catalog, please try again later.")
	}

	var picked *domain.CatalogItem
	for i := range items {
		if items[i].Title == text {
			picked = &items[i]
			break
		}
	}
	if picked == nil {
		return c.Send("Please pick an item from the keyboard.")
	}
	if picked.Stock <= 0 {
		return c.Send("That one just sold out, pick another item.")
	}

	draft.ItemID = picked.ID
	draft.Title = picked.Title
	draft.Price = picked.Price
	b.sessions.Set(senderID(c), session.Session{Step: session.StepShopConfirm, Data: draft})

	return c.Send(fmt.Sprintf(
		"🛒 Order summary\n\nItem: %s\nPrice: %s\n\nConfirm the purchase?",
		draft.Title, b.money(draft.Price),
	), replyButtons([]string{btnConfirm}, []string{btnBack}))
}

// shopConfirm executes the purchase. The ledger re-checks stock and balance
// atomically, so the summary shown a moment ago is advisory only.
func (b *Bot) shopConfirm(c tele.Context, sess session.Session, text string) error {
	if text != btnConfirm {
		return c.Send("Press Confirm to buy, or Back to return.")
	}
	draft, ok := sess.Data.(session.OrderDraft)
	if !ok {
		return b.toMainMenu(c, "Let's start over.")
	}

	placed, err := b.orders.Place(reqCtx(c), senderID(c), draft.ItemID)
	switch {
	case errors.Is(err, errs.ErrInsufficientFunds):
		return b.toMainMenu(c, "💸 Your balance is too low for this item. Top up with Add Funds and try again.")
	case errors.Is(err, errs.ErrOutOfStock):
		return b.toMainMenu(c, "😔 That item just sold out. Check back later.")
	case errors.Is(err, errs.ErrNotFound):
		return b.toMainMenu(c, "That item is no longer available.")
	case err != nil:
		return b.toMainMenu(c, "Something went wrong, the purchase was not made. Please try again.")
	}

	return b.toMainMenu(c, fmt.Sprintf(
		"✅ Order %s placed!\n\n%s for %s.\nRemaining balance: %s\n\nOur team will deliver it shortly.",
		placed.Order.ID, placed.Order.Title, b.money(placed.Order.Amount), b.money(placed.NewBalance),
	))
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
