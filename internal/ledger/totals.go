package ledger

import (
	"context"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/models"

	"github.com/shopspring/decimal"
)

// RecomputeIncome resums paid amounts for monthYear across the hostel's live
// residents and overwrites the income row.
func (e *Engine) RecomputeIncome(ctx context.Context, sess Session, monthYear string) (*models.IncomeTotal, error) {
	const op = "recompute income"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	monthYear, err := canonicalMonth(op, monthYear)
	if err != nil {
		return nil, err
	}
	t, err := e.recomputeIncome(ctx, sess.HostelID, sess.ManagerID, monthYear)
	return t, logFailure(op, err)
}

func (e *Engine) recomputeIncome(ctx context.Context, hostelID, userID, monthYear string) (*models.IncomeTotal, error) {
	const op = "recompute income"
	residents, err := e.store.ListResidents(ctx, userID)
	if err != nil {
		return nil, apperr.Remote(op, err)
	}
	t := &models.IncomeTotal{
		ID:        models.TotalID(hostelID, monthYear),
		HostelID:  hostelID,
		MonthYear: monthYear,
		TotalPaid: SumPaid(residents, monthYear),
		UserID:    userID,
		UpdatedAt: e.stamp(),
	}
	if err := e.store.PutIncomeTotal(ctx, t); err != nil {
		return nil, apperr.Remote(op, err)
	}
	return t, nil
}

// SumPaid totals the paid amount of monthYear over live residents.
func SumPaid(residents []models.Resident, monthYear string) decimal.Decimal {
	total := decimal.Zero
	for _, r := range residents {
		if r.IsDeleted {
			continue
		}
		if entry, i := r.Entry(monthYear); i >= 0 {
			total = total.Add(entry.Paid)
		}
	}
	return total
}

// RecomputeExpense resums the expense log for monthYear and overwrites the
// expense row, creating it at zero first when it does not exist yet.
func (e *Engine) RecomputeExpense(ctx context.Context, sess Session, monthYear string) (*models.ExpenseTotal, error) {
	const op = "recompute expense"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	monthYear, err := canonicalMonth(op, monthYear)
	if err != nil {
		return nil, err
	}
	t, err := e.recomputeExpense(ctx, sess.HostelID, sess.ManagerID, monthYear)
	return t, logFailure(op, err)
}

func (e *Engine) recomputeExpense(ctx context.Context, hostelID, userID, monthYear string) (*models.ExpenseTotal, error) {
	const op = "recompute expense"
	m, err := models.ParseMonthYear(monthYear)
	if err != nil {
		return nil, apperr.Validation(op, "%v", err)
	}
	monthYear = m.String()
	t, err := e.store.EnsureExpenseTotal(ctx, hostelID, userID, monthYear)
	if err != nil {
		return nil, apperr.Remote(op, err)
	}
	expenses, err := e.store.ListExpenses(ctx, userID)
	if err != nil {
		return nil, apperr.Remote(op, err)
	}
	t.TotalAmount = SumExpenses(expenses, m)
	t.UpdatedAt = e.stamp()
	if err := e.store.PutExpenseTotal(ctx, t); err != nil {
		return nil, apperr.Remote(op, err)
	}
	return t, nil
}

// SumExpenses totals the expenses dated in m.
func SumExpenses(expenses []models.Expense, m models.MonthYear) decimal.Decimal {
	total := decimal.Zero
	for _, x := range expenses {
		if m.Contains(x.Date) {
			total = total.Add(x.Amount)
		}
	}
	return total
}

// Summary is the dashboard view of one month.
type Summary struct {
	MonthYear string
	Income    decimal.Decimal
	Expense   decimal.Decimal
	Capacity  int
	Occupancy int
}

// Profit is derived at read time and never stored.
func (s Summary) Profit() decimal.Decimal {
	return s.Income.Sub(s.Expense)
}

// Vacancy is capacity minus occupancy at the time of the summary.
func (s Summary) Vacancy() int {
	return s.Capacity - s.Occupancy
}

// MonthlySummary reads the month's totals rows, creating them at zero on first
// access, along with the hostel's occupancy aggregate.
func (e *Engine) MonthlySummary(ctx context.Context, sess Session, monthYear string) (*Summary, error) {
	const op = "monthly summary"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	s, err := e.summary(ctx, sess.HostelID, sess.ManagerID, monthYear)
	return s, logFailure(op, err)
}

func (e *Engine) summary(ctx context.Context, hostelID, userID, monthYear string) (*Summary, error) {
	const op = "monthly summary"
	monthYear, err := canonicalMonth(op, monthYear)
	if err != nil {
		return nil, err
	}
	income, err := e.store.EnsureIncomeTotal(ctx, hostelID, userID, monthYear)
	if err != nil {
		return nil, apperr.Remote(op, err)
	}
	expense, err := e.store.EnsureExpenseTotal(ctx, hostelID, userID, monthYear)
	if err != nil {
		return nil, apperr.Remote(op, err)
	}
	capacity, err := e.store.FindHostelCapacity(ctx, hostelID)
	if err != nil {
		return nil, apperr.Remote(op, err)
	}
	return &Summary{
		MonthYear: monthYear,
		Income:    income.TotalPaid,
		Expense:   expense.TotalAmount,
		Capacity:  capacity.Capacity,
		Occupancy: capacity.Occupancy,
	}, nil
}
