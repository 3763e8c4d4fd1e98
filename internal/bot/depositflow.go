package bot

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/storebot/internal/session"
)

// startDeposit opens the payment method list.
func (b *Bot) startDeposit(c tele.Context) error {
	labels := make([]string, 0, len(b.methods))
	for _, m := range b.methods {
		labels = append(labels, m.Name)
	}

	b.sessions.Set(senderID(c), session.Session{
		Step: session.StepDepositMethod,
		Data: session.DepositDraft{},
	})
	return c.Send("💰 How would you like to pay?", replyButtons(labelRows(labels, 2, btnBack)...))
}

// depositChooseMethod validates the method and shows its payment
// instructions. Unknown input re-prompts without touching the draft.
func (b *Bot) depositChooseMethod(c tele.Context, sess session.Session, text string) error {
	draft, ok := sess.Data.(session.DepositDraft)
	if !ok {
		return b.toMainMenu(c, "Let's start over.")
	}

	var instructions string
	found := false
	for _, m := range b.methods {
		if m.Name == text {
			instructions = m.Instructions
			found = true
			break
		}
	}
	if !found {
		return c.Send("Please pick a payment method from the keyboard.")
	}

	draft.Method = text
	b.sessions.Set(senderID(c), session.Session{Step: session.StepDepositAmount, Data: draft})

	msg := "How much would you like to add? Send the amount as a number."
	if instructions != "" {
		msg = instructions + "\n\n" + msg
	}
	return c.Send(msg, replyButtons([]string{btnBack}))
}

// depositEnterAmount parses and validates the amount. Invalid input never
// reaches the draft.
func (b *Bot) depositEnterAmount(c tele.Context, sess session.Session, text string) error {
	draft, ok := sess.Data.(session.DepositDraft)
	if !ok {
		return b.toMainMenu(c, "Let's start over.")
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || amount <= 0 {
		return c.Send("Please send a positive whole number, e.g. 500.")
	}

	draft.Amount = amount
	b.sessions.Set(senderID(c), session.Session{Step: session.StepDepositProof, Data: draft})
	return c.Send("Now send the transaction ID or reference of your payment.", replyButtons([]string{btnBack}))
}

// depositEnterProof records the payment reference and shows the summary.
func (b *Bot) depositEnterProof(c tele.Context, sess session.Session, text string) error {
	draft, ok := sess.Data.(session.DepositDraft)
	if !ok {
		return b.toMainMenu(c, "Let's start over.")
	}
	if strings.TrimSpace(text) == "" {
		return c.Send("Please send the transaction ID or reference of your payment.")
	}

	draft.Proof = strings.TrimSpace(text)
	b.sessions.Set(senderID(c), session.Session{Step: session.StepDepositConfirm, Data: draft})

	return c.Send(fmt.Sprintf(
		"💰 Deposit summary\n\nMethod: %s\nAmount: %s\nReference: %s\n\nSubmit for review?",
		draft.Method, b.money(draft.Amount), draft.Proof,
	), replyButtons([]string{btnConfirm}, []string{btnBack}))
}

// depositConfirm submits the request. The balance is credited only after an
// admin approves it.
func (b *Bot) depositConfirm(c tele.Context, sess session.Session, text string) error {
	if text != btnConfirm {
		return c.Send("Press Confirm to submit, or Back to return.")
	}
	draft, ok := sess.Data.(session.DepositDraft)
	if !ok {
		return b.toMainMenu(c, "Let's start over.")
	}

	d, err := b.deposits.Submit(reqCtx(c), senderID(c), draft.Amount, draft.Method, draft.Proof)
	if err != nil {
		return b.toMainMenu(c, "Something went wrong, the deposit was not submitted. Please try again.")
	}

	return b.toMainMenu(c, fmt.Sprintf(
		"✅ Deposit %s submitted!\n\n%s via %s is waiting for review. You will be notified once it is approved.",
		d.ID, b.money(d.Amount), d.Method,
	))
}
