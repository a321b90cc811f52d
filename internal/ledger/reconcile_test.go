package ledger_test

import (
	"errors"
	"testing"
	"time"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileRepairsDrift(t *testing.T) {
	f := newFixture(t)
	a := f.room("A", 3)
	f.room("B", 3)
	ravi := f.admit("Ravi", "A", day(2024, time.January, 10), 3000)
	f.admit("Meena", "B", day(2024, time.January, 10), 3000)
	f.pay(ravi.ID, "January-2024", 3000, 500)
	_, err := f.engine.AddExpense(f.ctx, f.sess, ledger.ExpenseRequest{ExpenseName: "Gas", Amount: decimal.NewFromInt(400), Date: day(2024, time.January, 20)})
	require.NoError(t, err)

	require.NoError(t, f.store.SetRoomOccupancy(f.ctx, a.ID, 3))
	require.NoError(t, f.store.SetHostelOccupancy(f.ctx, f.sess.HostelID, 7))
	income, err := f.store.EnsureIncomeTotal(f.ctx, f.sess.HostelID, f.sess.ManagerID, "January-2024")
	require.NoError(t, err)
	income.TotalPaid = decimal.NewFromInt(1)
	require.NoError(t, f.store.PutIncomeTotal(f.ctx, income))

	rep, err := f.engine.Reconcile(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Hostels)
	assert.Empty(t, rep.Failures)

	var counters []string
	for _, d := range rep.Drifts {
		counters = append(counters, d.Counter)
	}
	assert.ElementsMatch(t, []string{"room A occupancy", "hostel occupancy", "income January-2024"}, counters)

	assert.Equal(t, 1, f.roomOccupancy("A"))
	assert.Equal(t, 1, f.roomOccupancy("B"))
	assert.Equal(t, 2, f.hostelOccupancy())
	s, err := f.engine.MonthlySummary(f.ctx, f.sess, "January-2024")
	require.NoError(t, err)
	assertAmount(t, 2500, s.Income)
	assertAmount(t, 400, s.Expense)

	rep, err = f.engine.Reconcile(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Empty(t, rep.Drifts)
}

func TestReconcileRepairsBucketWithNoExpensesLeft(t *testing.T) {
	f := newFixture(t)
	x, err := f.engine.AddExpense(f.ctx, f.sess, ledger.ExpenseRequest{ExpenseName: "Gas", Amount: decimal.NewFromInt(400), Date: day(2024, time.January, 20)})
	require.NoError(t, err)
	f.store.FailNext("ApplyExpenseDelta", errors.New("write timeout"))
	assert.ErrorIs(t, f.engine.DeleteExpense(f.ctx, f.sess, x.ID), apperr.ErrRemote)

	rep, err := f.engine.Reconcile(f.ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, rep.Drifts, 1)
	assert.Equal(t, "expense January-2024", rep.Drifts[0].Counter)
	assert.Equal(t, "400", rep.Drifts[0].Before)

	total, err := f.store.EnsureExpenseTotal(f.ctx, f.sess.HostelID, f.sess.ManagerID, "January-2024")
	require.NoError(t, err)
	assertAmount(t, 0, total.TotalAmount)
}

func TestReconcileReportsFailingHostel(t *testing.T) {
	f := newFixture(t)
	f.store.FailNext("ListResidents", errors.New("cursor killed"))

	rep, err := f.engine.Reconcile(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, rep.Failures, 1)
}

func TestReconcileIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Reconcile(f.ctx, f.sess)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
