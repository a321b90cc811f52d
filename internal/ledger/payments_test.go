package ledger_test

import (
	"errors"
	"testing"
	"time"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPaymentKeepsPendingTotal(t *testing.T) {
	f := newFixture(t)
	f.room("101", 2)
	r := f.admit("Ravi", "101", day(2024, time.January, 10), 3000)

	f.pay(r.ID, "January-2024", 3000, 500)
	f.pay(r.ID, "February-2024", 3000, 1200)
	got := f.pay(r.ID, "January-2024", 3000, 0)

	assertAmount(t, 1200, got.TotalPendingPerson)
	stored := f.resident(r.ID)
	assertAmount(t, 1200, stored.TotalPendingPerson)
	assert.True(t, stored.PendingSum().Equal(stored.TotalPendingPerson))
}

func TestRecordPaymentUpsertsInPlace(t *testing.T) {
	f := newFixture(t)
	f.room("101", 2)
	r := f.admit("Ravi", "101", day(2024, time.January, 10), 3000)

	f.pay(r.ID, "January-2024", 3000, 500)
	f.pay(r.ID, "February-2024", 3000, 500)
	f.pay(r.ID, "March-2024", 3000, 500)
	f.pay(r.ID, "February-2024", 3200, 200)

	stored := f.resident(r.ID)
	require.Len(t, stored.MonthArray, 3)
	months := []string{stored.MonthArray[0].MonthYear, stored.MonthArray[1].MonthYear, stored.MonthArray[2].MonthYear}
	assert.Equal(t, []string{"January-2024", "February-2024", "March-2024"}, months)
	assertAmount(t, 200, stored.MonthArray[1].Pending)
	assertAmount(t, 3000, stored.MonthArray[1].Paid)
	assertAmount(t, 3200, stored.MonthlyPay)
}

func TestRecordPaymentNormalisesMonthKey(t *testing.T) {
	f := newFixture(t)
	f.room("101", 2)
	r := f.admit("Ravi", "101", day(2024, time.January, 10), 3000)

	f.pay(r.ID, "January-2024", 3000, 500)
	got := f.pay(r.ID, " January-2024 ", 3000, 100)

	require.Len(t, got.MonthArray, 1)
	assert.Equal(t, "January-2024", got.MonthArray[0].MonthYear)
	assertAmount(t, 100, got.TotalPendingPerson)

	s, err := f.engine.MonthlySummary(f.ctx, f.sess, "January-2024 ")
	require.NoError(t, err)
	assert.Equal(t, "January-2024", s.MonthYear)
	assertAmount(t, 2900, s.Income)

	b, err := f.engine.PaymentBoard(f.ctx, f.sess, " January-2024")
	require.NoError(t, err)
	require.Len(t, b.Rows, 1)
	assert.True(t, b.Rows[0].Recorded)
	assertAmount(t, 100, b.TotalPending)
}

func TestRecordPaymentValidation(t *testing.T) {
	f := newFixture(t)
	f.room("101", 2)
	r := f.admit("Ravi", "101", day(2024, time.January, 10), 3000)

	cases := map[string]ledger.PaymentRequest{
		"pending above pay": {ResidentID: r.ID, MonthYear: "January-2024", MonthlyPay: decimal.NewFromInt(100), PendingAmount: decimal.NewFromInt(200)},
		"short month":       {ResidentID: r.ID, MonthYear: "Jan-2024", MonthlyPay: decimal.NewFromInt(100)},
		"bad mode":          {ResidentID: r.ID, MonthYear: "January-2024", MonthlyPay: decimal.NewFromInt(100), ModeOfPay: "Cheque"},
		"negative":          {ResidentID: r.ID, MonthYear: "January-2024", MonthlyPay: decimal.NewFromInt(-1), PendingAmount: decimal.NewFromInt(-2)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.engine.RecordPayment(f.ctx, f.sess, req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Empty(t, f.resident(r.ID).MonthArray)
}

func TestRecordPaymentUnknownResident(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.RecordPayment(f.ctx, f.sess, ledger.PaymentRequest{
		ResidentID: "nope",
		MonthYear:  "January-2024",
		MonthlyPay: decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRecordPaymentWithoutHostel(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.RecordPayment(f.ctx, ledger.Session{ManagerID: f.sess.ManagerID}, ledger.PaymentRequest{
		ResidentID: "x",
		MonthYear:  "January-2024",
		MonthlyPay: decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestRecordPaymentRetriesConflicts(t *testing.T) {
	f := newFixture(t)
	f.room("101", 2)
	r := f.admit("Ravi", "101", day(2024, time.January, 10), 3000)

	f.store.FailNext("ReplaceResident", apperr.Conflict("replace resident", "changed"))
	got := f.pay(r.ID, "January-2024", 3000, 500)
	assertAmount(t, 500, got.TotalPendingPerson)
	assert.Len(t, f.resident(r.ID).MonthArray, 1)
}

func TestRecordPaymentSurvivesIncomeFailure(t *testing.T) {
	f := newFixture(t)
	f.room("101", 2)
	r := f.admit("Ravi", "101", day(2024, time.January, 10), 3000)

	f.store.FailNext("PutIncomeTotal", errors.New("connection reset"))
	f.pay(r.ID, "January-2024", 3000, 500)

	s, err := f.engine.MonthlySummary(f.ctx, f.sess, "January-2024")
	require.NoError(t, err)
	assertAmount(t, 0, s.Income)

	f.pay(r.ID, "January-2024", 3000, 1000)
	s, err = f.engine.MonthlySummary(f.ctx, f.sess, "January-2024")
	require.NoError(t, err)
	assertAmount(t, 2000, s.Income)
}

func TestExtraCharges(t *testing.T) {
	f := newFixture(t)
	f.room("101", 2)
	r := f.admit("Ravi", "101", day(2024, time.January, 10), 3000)

	_, err := f.engine.AddExtraCharge(f.ctx, f.sess, r.ID, "laundry", decimal.NewFromInt(200))
	require.NoError(t, err)
	_, err = f.engine.AddExtraCharge(f.ctx, f.sess, r.ID, "laundry", decimal.NewFromInt(300))
	require.NoError(t, err)

	got, err := f.engine.UpdateExtraCharge(f.ctx, f.sess, r.ID, "laundry", decimal.NewFromInt(250))
	require.NoError(t, err)
	require.Len(t, got.Extra, 2)
	assertAmount(t, 250, got.Extra[0].Amount)
	assertAmount(t, 300, got.Extra[1].Amount)

	_, err = f.engine.UpdateExtraCharge(f.ctx, f.sess, r.ID, "parking", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, apperr.ErrExtraNotFound, apperr.CodeOf(err))

	_, err = f.engine.AddExtraCharge(f.ctx, f.sess, r.ID, "", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPendingTotal(t *testing.T) {
	r := &models.Resident{
		MonthArray: []models.MonthEntry{
			{MonthYear: "January-2024", Pending: decimal.NewFromInt(500), Paid: decimal.NewFromInt(2500)},
			{MonthYear: "February-2024", Pending: decimal.NewFromInt(100), Paid: decimal.NewFromInt(2900)},
		},
		Extra: []models.ExtraCharge{{Reason: "laundry", Amount: decimal.NewFromInt(50)}},
	}
	assertAmount(t, 650, ledger.PendingTotal(r, ledger.FieldPending))
	assertAmount(t, 5450, ledger.PendingTotal(r, ledger.FieldPaid))
}

func TestPaymentBoard(t *testing.T) {
	f := newFixture(t)
	f.room("101", 2)
	f.room("102", 2)
	ravi := f.admit("Ravi", "102", day(2024, time.January, 10), 3000)
	f.admit("Meena", "101", day(2024, time.February, 1), 4000)
	f.admit("Late", "101", day(2024, time.April, 1), 4000)

	f.pay(ravi.ID, "February-2024", 3000, 1000)

	b, err := f.engine.PaymentBoard(f.ctx, f.sess, "February-2024")
	require.NoError(t, err)
	require.Len(t, b.Rows, 2)
	assert.Equal(t, "Meena", b.Rows[0].Resident.Name)
	assert.False(t, b.Rows[0].Recorded)
	assert.Equal(t, "Ravi", b.Rows[1].Resident.Name)
	assert.True(t, b.Rows[1].Recorded)
	assertAmount(t, 2000, b.Rows[1].Paid())
	assertAmount(t, 10000, b.TotalAdvance)
	assertAmount(t, 7000, b.TotalMonthlyPay)
	assertAmount(t, 1000, b.TotalPending)
}
