package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/models"

	"github.com/shopspring/decimal"
)

// ExpenseRequest is the editable part of an expense.
type ExpenseRequest struct {
	ExpenseName string `validate:"required"`
	Amount      decimal.Decimal
	Date        time.Time
}

func (e *Engine) checkExpense(op string, req *ExpenseRequest) error {
	req.ExpenseName = strings.TrimSpace(req.ExpenseName)
	if err := e.check(op, *req); err != nil {
		return err
	}
	if !req.Amount.IsPositive() {
		return apperr.Validation(op, "amount must be positive")
	}
	if req.Date.IsZero() {
		return apperr.Validation(op, "date is required")
	}
	return nil
}

// AddExpense logs an expense and credits its month's expense total.
func (e *Engine) AddExpense(ctx context.Context, sess Session, req ExpenseRequest) (*models.Expense, error) {
	const op = "add expense"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	if err := e.checkExpense(op, &req); err != nil {
		return nil, err
	}
	x := &models.Expense{
		ID:          e.newID(),
		UserID:      sess.ManagerID,
		ExpenseName: req.ExpenseName,
		Amount:      req.Amount,
		Date:        req.Date,
		CreatedAt:   e.stamp(),
	}
	err := e.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := e.store.InsertExpense(ctx, x); err != nil {
			return err
		}
		return e.applyDelta(ctx, sess, x.MonthYear(), x.Amount, opID(x.ID, 0, ""))
	})
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	return x, nil
}

// EditExpense replaces an expense and corrects the affected totals by the
// difference, not by resumming. Moving it to another month debits the old
// bucket and credits the new one.
func (e *Engine) EditExpense(ctx context.Context, sess Session, id string, req ExpenseRequest) (*models.Expense, error) {
	const op = "edit expense"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	if err := e.checkExpense(op, &req); err != nil {
		return nil, err
	}
	x, err := e.findExpense(ctx, op, sess, id)
	if err != nil {
		return nil, err
	}

	prev := *x
	x.ExpenseName = req.ExpenseName
	x.Amount = req.Amount
	x.Date = req.Date

	err = e.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := e.store.ReplaceExpense(ctx, x); err != nil {
			return err
		}
		oldMonth, newMonth := prev.MonthYear(), x.MonthYear()
		if oldMonth == newMonth {
			return e.applyDelta(ctx, sess, newMonth, x.Amount.Sub(prev.Amount), opID(x.ID, x.Revision, ""))
		}
		if err := e.applyDelta(ctx, sess, oldMonth, prev.Amount.Neg(), opID(x.ID, x.Revision, "out")); err != nil {
			return err
		}
		return e.applyDelta(ctx, sess, newMonth, x.Amount, opID(x.ID, x.Revision, "in"))
	})
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	return x, nil
}

// DeleteExpense removes an expense and debits its month.
func (e *Engine) DeleteExpense(ctx context.Context, sess Session, id string) error {
	const op = "delete expense"
	if err := requireHostel(op, sess); err != nil {
		return err
	}
	x, err := e.findExpense(ctx, op, sess, id)
	if err != nil {
		return err
	}
	err = e.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := e.store.DeleteExpense(ctx, x.ID); err != nil {
			return err
		}
		return e.applyDelta(ctx, sess, x.MonthYear(), x.Amount.Neg(), opID(x.ID, x.Revision, "del"))
	})
	return logFailure(op, apperr.Remote(op, err))
}

// ListExpenses returns the month's expenses by date and their sum.
func (e *Engine) ListExpenses(ctx context.Context, sess Session, monthYear string) ([]models.Expense, decimal.Decimal, error) {
	const op = "list expenses"
	if err := requireHostel(op, sess); err != nil {
		return nil, decimal.Zero, err
	}
	m, err := models.ParseMonthYear(monthYear)
	if err != nil {
		return nil, decimal.Zero, apperr.Validation(op, "%v", err)
	}
	all, err := e.store.ListExpenses(ctx, sess.ManagerID)
	if err != nil {
		return nil, decimal.Zero, logFailure(op, apperr.Remote(op, err))
	}
	var out []models.Expense
	for _, x := range all {
		if m.Contains(x.Date) {
			out = append(out, x)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, SumExpenses(out, m), nil
}

func (e *Engine) findExpense(ctx context.Context, op string, sess Session, id string) (*models.Expense, error) {
	x, err := e.store.FindExpense(ctx, id)
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	if x.UserID != sess.ManagerID {
		return nil, apperr.NotFound(apperr.ErrExpenseNotFound, op, "expense %s", id)
	}
	return x, nil
}

func (e *Engine) applyDelta(ctx context.Context, sess Session, m models.MonthYear, delta decimal.Decimal, op string) error {
	applied, err := e.store.ApplyExpenseDelta(ctx, sess.HostelID, sess.ManagerID, m.String(), delta, op)
	if err != nil {
		return err
	}
	if !applied {
		logger.Warning("expense delta %s for %s already applied, skipped", op, m)
	}
	return nil
}

// opID names one delta of one expense revision.
func opID(expenseID string, revision int64, suffix string) string {
	id := fmt.Sprintf("%s#%d", expenseID, revision)
	if suffix != "" {
		id += "-" + suffix
	}
	return id
}
