package bot

import (
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/storebot/internal/domain"
	"github.com/m3rciful/storebot/internal/logger"
	"github.com/m3rciful/storebot/internal/session"
)

const (
	btnBuyAccounts = "📱 Buy Accounts"
	btnGameNumbers = "🎮 Game Numbers"
	btnAddFunds    = "💰 Add Funds"
	btnMyOrders    = "📦 My Orders"
	btnProfile     = "👤 Profile"
	btnSupport     = "🆘 Support"

	btnBack    = "🔙 Back"
	btnConfirm = "✅ Confirm"
)

// buildMenu returns the label to action table consulted for idle text input.
// Adding a button is adding a row here plus a label on the keyboard.
func (b *Bot) buildMenu() map[string]tele.HandlerFunc {
	return map[string]tele.HandlerFunc{
		btnBuyAccounts: func(c tele.Context) error { return b.startShop(c, domain.KindAccount) },
		btnGameNumbers: func(c tele.Context) error { return b.startShop(c, domain.KindGameSlot) },
		btnAddFunds:    b.startDeposit,
		btnMyOrders:    b.handleMyOrders,
		btnProfile:     b.handleProfile,
		btnSupport:     b.handleSupport,
	}
}

func mainMenuMarkup() *tele.ReplyMarkup {
	return replyButtons(
		[]string{btnBuyAccounts, btnGameNumbers},
		[]string{btnAddFunds, btnMyOrders},
		[]string{btnProfile, btnSupport},
	)
}

// toMainMenu clears the session and shows the main menu.
func (b *Bot) toMainMenu(c tele.Context, text string) error {
	b.sessions.Clear(senderID(c))
	return c.Send(text, mainMenuMarkup())
}

// handleStart registers the user on first contact and shows the main menu.
// /start always aborts any in-flight conversation.
func (b *Bot) handleStart(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}

	name := strings.TrimSpace(strings.Join([]string{user.FirstName, user.LastName}, " "))
	if name == "" {
		name = user.Username
	}
	if err := b.store.CreateUserIfAbsent(reqCtx(c), user.ID, name); err != nil {
		logger.TG.Error("user registration failed",
			slog.String("event", "tg.start"),
			slog.Int64("user_id", user.ID),
			slog.String("err", err.Error()),
		)
		return c.Send("Something went wrong, please try again later.")
	}

	return b.toMainMenu(c, fmt.Sprintf(
		"👋 Welcome, %s!\n\nBrowse the shop, top up your balance and your order will be delivered by our team.", name,
	))
}

// handleText is the single entry point for non-command text. Input is
// resolved against the user's current conversation step; at the main menu it
// is resolved against the menu table.
func (b *Bot) handleText(c tele.Context) error {
	userID := senderID(c)
	if userID == 0 {
		return nil
	}
	text := strings.TrimSpace(c.Text())

	if text == btnBack {
		return b.handleBack(c)
	}

	sess := b.sessions.Get(userID)
	switch sess.Step {
	case session.StepIdle:
		if action, ok := b.menu[text]; ok {
			return action(c)
		}
		return c.Send("Please use the menu buttons below.", mainMenuMarkup())
	case session.StepShopCategory:
		return b.shopChooseCategory(c, sess, text)
	case session.StepShopItem:
		return b.shopChooseItem(c, sess, text)
	case session.StepShopConfirm:
		return b.shopConfirm(c, sess, text)
	case session.StepDepositMethod:
		return b.depositChooseMethod(c, sess, text)
	case session.StepDepositAmount:
		return b.depositEnterAmount(c, sess, text)
	case session.StepDepositProof:
		return b.depositEnterProof(c, sess, text)
	case session.StepDepositConfirm:
		return b.depositConfirm(c, sess, text)
	default:
		return b.toMainMenu(c, "Let's start over.")
	}
}

// handleBack pops the conversation to the nearest stable menu. Item selection
// returns to the category list; every other step returns to the main menu.
func (b *Bot) handleBack(c tele.Context) error {
	userID := senderID(c)
	sess := b.sessions.Get(userID)

	if sess.Step == session.StepShopItem {
		if draft, ok := sess.Data.(session.OrderDraft); ok {
			return b.startShop(c, draft.Kind)
		}
	}
	return b.toMainMenu(c, "Main menu:")
}

func (b *Bot) handleProfile(c tele.Context) error {
	u, err := b.store.GetUser(reqCtx(c), senderID(c))
	if err != nil {
		return c.Send("Profile not found, send /start first.")
	}
	return c.Send(b.formatProfile(u), mainMenuMarkup())
}

func (b *Bot) handleMyOrders(c tele.Context) error {
	orders, err := b.orders.History(reqCtx(c), senderID(c), 10)
	if err != nil {
		return c.Send("Could not load your orders, please try again later.")
	}
	return c.Send(b.formatOrderList("📦 Your recent orders", orders), mainMenuMarkup())
}

func (b *Bot) handleSupport(c tele.Context) error {
	text := "🆘 Need help with an order or deposit?"
	if b.support != "" {
		text += "\nContact: " + b.support
	}
	return c.Send(text, mainMenuMarkup())
}
