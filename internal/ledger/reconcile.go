package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/models"
)

// Drift is one counter that did not match its source records.
type Drift struct {
	HostelCode string
	Counter    string
	Before     string
	After      string
}

func (d Drift) String() string {
	return fmt.Sprintf("%s %s: %s -> %s", d.HostelCode, d.Counter, d.Before, d.After)
}

// ReconcileReport summarizes one reconciliation run.
type ReconcileReport struct {
	Hostels  int
	Drifts   []Drift
	Failures []string
}

// Reconcile rebuilds every denormalized counter of every live hostel from its
// source records: room occupancy and the hostel aggregate from live residents,
// income from month entries and expense totals from the expense log. Every
// month that has a stored totals row is recomputed too. Hostels that fail are
// reported and skipped.
func (e *Engine) Reconcile(ctx context.Context, sess Session) (*ReconcileReport, error) {
	const op = "reconcile"
	if err := requireAdmin(op, sess); err != nil {
		return nil, err
	}
	hostels, err := e.store.ListHostels(ctx)
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	rep := &ReconcileReport{}
	for _, h := range hostels {
		if h.IsDeleted {
			continue
		}
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Hostels++
		drifts, err := e.reconcileHostel(ctx, h)
		rep.Drifts = append(rep.Drifts, drifts...)
		if err != nil {
			logger.Error("%s: hostel %s: %v", op, h.HostelCode, err)
			rep.Failures = append(rep.Failures, fmt.Sprintf("%s: %s", h.HostelCode, apperr.UserMessage(err)))
		}
	}
	for _, d := range rep.Drifts {
		logger.Warning("%s: drift %s", op, d)
	}
	logger.Info("%s: %d hostels, %d drifts, %d failures", op, rep.Hostels, len(rep.Drifts), len(rep.Failures))
	return rep, nil
}

func (e *Engine) reconcileHostel(ctx context.Context, h models.Hostel) ([]Drift, error) {
	const op = "reconcile hostel"
	var drifts []Drift
	residents, err := e.store.ListResidents(ctx, h.UserID)
	if err != nil {
		return nil, apperr.Remote(op, err)
	}
	rooms, err := e.store.ListRooms(ctx, h.UserID)
	if err != nil {
		return nil, apperr.Remote(op, err)
	}

	perRoom := make(map[string]int)
	live := 0
	for _, r := range residents {
		if !r.IsDeleted {
			perRoom[r.RoomNo]++
			live++
		}
	}
	for _, room := range rooms {
		if n := perRoom[room.RoomNo]; n != room.Occupancy {
			if err := e.store.SetRoomOccupancy(ctx, room.ID, n); err != nil {
				return drifts, apperr.Remote(op, err)
			}
			drifts = append(drifts, Drift{h.HostelCode, "room " + room.RoomNo + " occupancy", strconv.Itoa(room.Occupancy), strconv.Itoa(n)})
		}
	}

	c, err := e.store.FindHostelCapacity(ctx, h.ID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c = &models.HostelCapacity{ID: h.ID, HostelName: h.HostelName, UserID: h.UserID, Capacity: h.Capacity, Occupancy: live}
		if err := e.store.InsertHostelCapacity(ctx, c); err != nil {
			return drifts, apperr.Remote(op, err)
		}
		drifts = append(drifts, Drift{h.HostelCode, "hostel occupancy", "missing", strconv.Itoa(live)})
	case err != nil:
		return drifts, apperr.Remote(op, err)
	case c.Occupancy != live:
		if err := e.store.SetHostelOccupancy(ctx, h.ID, live); err != nil {
			return drifts, apperr.Remote(op, err)
		}
		drifts = append(drifts, Drift{h.HostelCode, "hostel occupancy", strconv.Itoa(c.Occupancy), strconv.Itoa(live)})
	}

	incomeRows, err := e.store.ListIncomeTotals(ctx, h.ID)
	if err != nil {
		return drifts, apperr.Remote(op, err)
	}
	for _, month := range incomeMonths(residents, incomeRows) {
		before, err := e.store.EnsureIncomeTotal(ctx, h.ID, h.UserID, month)
		if err != nil {
			return drifts, apperr.Remote(op, err)
		}
		after, err := e.recomputeIncome(ctx, h.ID, h.UserID, month)
		if err != nil {
			return drifts, err
		}
		if !before.TotalPaid.Equal(after.TotalPaid) {
			drifts = append(drifts, Drift{h.HostelCode, "income " + month, before.TotalPaid.String(), after.TotalPaid.String()})
		}
	}

	expenses, err := e.store.ListExpenses(ctx, h.UserID)
	if err != nil {
		return drifts, apperr.Remote(op, err)
	}
	expenseRows, err := e.store.ListExpenseTotals(ctx, h.ID)
	if err != nil {
		return drifts, apperr.Remote(op, err)
	}
	for _, month := range expenseMonths(expenses, expenseRows) {
		before, err := e.store.EnsureExpenseTotal(ctx, h.ID, h.UserID, month)
		if err != nil {
			return drifts, apperr.Remote(op, err)
		}
		previous := before.TotalAmount
		after, err := e.recomputeExpense(ctx, h.ID, h.UserID, month)
		if err != nil {
			return drifts, err
		}
		if !previous.Equal(after.TotalAmount) {
			drifts = append(drifts, Drift{h.HostelCode, "expense " + month, previous.String(), after.TotalAmount.String()})
		}
	}
	return drifts, nil
}

// incomeMonths lists the months present in residents' entries or already
// holding an income row, in calendar order.
func incomeMonths(residents []models.Resident, rows []models.IncomeTotal) []string {
	seen := make(map[string]models.MonthYear)
	for _, r := range residents {
		for _, entry := range r.MonthArray {
			addMonth(seen, entry.MonthYear)
		}
	}
	for _, row := range rows {
		addMonth(seen, row.MonthYear)
	}
	return sortedMonths(seen)
}

// expenseMonths also covers rows whose expenses are all gone, so a bucket
// left stale by a failed delete is still recomputed.
func expenseMonths(expenses []models.Expense, rows []models.ExpenseTotal) []string {
	seen := make(map[string]models.MonthYear)
	for _, x := range expenses {
		m := x.MonthYear()
		seen[m.String()] = m
	}
	for _, row := range rows {
		addMonth(seen, row.MonthYear)
	}
	return sortedMonths(seen)
}

func addMonth(seen map[string]models.MonthYear, s string) {
	if m, err := models.ParseMonthYear(s); err == nil {
		seen[m.String()] = m
	}
}

func sortedMonths(seen map[string]models.MonthYear) []string {
	months := make([]models.MonthYear, 0, len(seen))
	for _, m := range seen {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = m.String()
	}
	return out
}
