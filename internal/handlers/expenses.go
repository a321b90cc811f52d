package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/utils"
)

// expenseRequest parses "<amount> <name> [date]".
func (h *CommandHandler) expenseRequest(a []string) (ledger.ExpenseRequest, error) {
	var req ledger.ExpenseRequest
	amount, err := utils.ParseAmount(a[0])
	if err != nil {
		return req, err
	}
	req.Amount = amount
	req.ExpenseName = a[1]
	req.Date = h.now().UTC().Truncate(24 * time.Hour)
	if len(a) > 2 {
		if req.Date, err = utils.ParseDate(a[2]); err != nil {
			return req, err
		}
	}
	return req, nil
}

func (h *CommandHandler) AddExpense(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) < 2 || len(a) > 3 {
		usage(bot, sess.ChatID, `/expense <amount> <name> [date], e.g. /expense 1200 "Gas cylinder" 2024-03-05`)
		return
	}
	req, err := h.expenseRequest(a)
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	x, err := h.engine.AddExpense(ctx, sess, req)
	if err != nil {
		replyErr(bot, sess.ChatID, "add expense", err)
		return
	}
	reply(bot, sess.ChatID, fmt.Sprintf("✅ Added %s for %s on %s.\nID: %s",
		h.format.FormatAmount(x.Amount), x.ExpenseName, x.Date.Format("02 Jan 2006"), x.ID))
}

func (h *CommandHandler) EditExpense(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) < 3 || len(a) > 4 {
		usage(bot, sess.ChatID, "/editexpense <id> <amount> <name> [date]")
		return
	}
	req, err := h.expenseRequest(a[1:])
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	x, err := h.engine.EditExpense(ctx, sess, a[0], req)
	if err != nil {
		replyErr(bot, sess.ChatID, "edit expense", err)
		return
	}
	reply(bot, sess.ChatID, fmt.Sprintf("✅ Updated to %s for %s on %s.",
		h.format.FormatAmount(x.Amount), x.ExpenseName, x.Date.Format("02 Jan 2006")))
}

func (h *CommandHandler) DeleteExpense(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) != 1 {
		usage(bot, sess.ChatID, "/delexpense <id>")
		return
	}
	if err := h.engine.DeleteExpense(ctx, sess, a[0]); err != nil {
		replyErr(bot, sess.ChatID, "delete expense", err)
		return
	}
	reply(bot, sess.ChatID, "🗑️ Expense deleted.")
}

// ListExpenses sends a month's expenses by date.
func (h *CommandHandler) ListExpenses(ctx context.Context, bot Bot, sess ledger.Session, monthYear string) {
	expenses, sum, err := h.engine.ListExpenses(ctx, sess, monthYear)
	if err != nil {
		replyErr(bot, sess.ChatID, "list expenses", err)
		return
	}
	if len(expenses) == 0 {
		reply(bot, sess.ChatID, fmt.Sprintf("No expenses in %s.", monthYear))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🧾 Expenses %s\n\n", monthYear)
	for i, x := range expenses {
		fmt.Fprintf(&b, "%d. %s  %s  %s\n   ID: %s\n",
			i+1, x.Date.Format("Jan 2"), x.ExpenseName, h.format.FormatAmount(x.Amount), x.ID)
	}
	fmt.Fprintf(&b, "\n💵 Total: %s", h.format.FormatAmount(sum))
	reply(bot, sess.ChatID, b.String())
}
