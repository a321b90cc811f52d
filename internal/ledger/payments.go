package ledger

import (
	"context"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/models"

	"github.com/shopspring/decimal"
)

// PaymentRequest records one month of a resident's payment.
type PaymentRequest struct {
	ResidentID    string `validate:"required"`
	MonthYear     string `validate:"required,monthyear"`
	MonthlyPay    decimal.Decimal
	PendingAmount decimal.Decimal
	ModeOfPay     string `validate:"paymode"`
	// Advance, when set, replaces the resident's security deposit.
	Advance *decimal.Decimal
}

// RecordPayment upserts the month entry, refreshes the resident's cached
// pending total and then recomputes the hostel's income for that month.
func (e *Engine) RecordPayment(ctx context.Context, sess Session, req PaymentRequest) (*models.Resident, error) {
	const op = "record payment"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	if err := e.check(op, req); err != nil {
		return nil, err
	}
	month, err := canonicalMonth(op, req.MonthYear)
	if err != nil {
		return nil, err
	}
	req.MonthYear = month
	if req.MonthlyPay.IsNegative() || req.PendingAmount.IsNegative() {
		return nil, apperr.Validation(op, "amounts must not be negative")
	}
	if req.PendingAmount.GreaterThan(req.MonthlyPay) {
		return nil, apperr.Validation(op, "pending amount exceeds monthly pay")
	}
	if req.Advance != nil && req.Advance.IsNegative() {
		return nil, apperr.Validation(op, "advance must not be negative")
	}
	mode, _ := models.ParsePayMode(req.ModeOfPay)

	var resident *models.Resident
	err = withResidentRetry(op, func() error {
		r, err := e.findResident(ctx, op, sess, req.ResidentID)
		if err != nil {
			return err
		}
		r.MonthArray = upsertEntry(r.MonthArray, models.MonthEntry{
			MonthYear: req.MonthYear,
			Pending:   req.PendingAmount,
			Paid:      req.MonthlyPay.Sub(req.PendingAmount),
			ModeOfPay: mode,
		})
		r.TotalPendingPerson = r.PendingSum()
		r.MonthlyPay = req.MonthlyPay
		if req.Advance != nil {
			r.Advance = *req.Advance
		}
		if err := e.store.ReplaceResident(ctx, r); err != nil {
			return apperr.Remote(op, err)
		}
		resident = r
		return nil
	})
	if err != nil {
		return nil, logFailure(op, err)
	}

	// Income is eventually consistent; a failed recompute is repaired by the
	// next payment in that month or by the reconciliation job.
	if _, err := e.recomputeIncome(ctx, sess.HostelID, sess.ManagerID, req.MonthYear); err != nil {
		logger.Warning("%s: income recompute for %s failed: %v", op, req.MonthYear, err)
	}
	return resident, nil
}

// upsertEntry overwrites the entry with the same month in place, or appends.
// entry.MonthYear is canonical; stored keys are compared after parsing.
func upsertEntry(entries []models.MonthEntry, entry models.MonthEntry) []models.MonthEntry {
	for i := range entries {
		if m, err := models.ParseMonthYear(entries[i].MonthYear); err == nil && m.String() == entry.MonthYear {
			entries[i] = entry
			return entries
		}
	}
	return append(entries, entry)
}

// AddExtraCharge appends an ad-hoc charge.
func (e *Engine) AddExtraCharge(ctx context.Context, sess Session, residentID, reason string, amount decimal.Decimal) (*models.Resident, error) {
	const op = "add extra charge"
	return e.changeExtra(ctx, op, sess, residentID, reason, amount, func(r *models.Resident) error {
		r.Extra = append(r.Extra, models.ExtraCharge{Reason: reason, Amount: amount})
		return nil
	})
}

// UpdateExtraCharge overwrites the amount of the first charge with reason.
// When several charges share a reason only the first is changed.
func (e *Engine) UpdateExtraCharge(ctx context.Context, sess Session, residentID, reason string, amount decimal.Decimal) (*models.Resident, error) {
	const op = "update extra charge"
	return e.changeExtra(ctx, op, sess, residentID, reason, amount, func(r *models.Resident) error {
		for i := range r.Extra {
			if r.Extra[i].Reason == reason {
				r.Extra[i].Amount = amount
				return nil
			}
		}
		return apperr.NotFound(apperr.ErrExtraNotFound, op, "no extra charge %q", reason)
	})
}

func (e *Engine) changeExtra(ctx context.Context, op string, sess Session, residentID, reason string, amount decimal.Decimal, apply func(*models.Resident) error) (*models.Resident, error) {
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, apperr.Validation(op, "reason is required")
	}
	if !amount.IsPositive() {
		return nil, apperr.Validation(op, "amount must be positive")
	}

	var resident *models.Resident
	err := withResidentRetry(op, func() error {
		r, err := e.findResident(ctx, op, sess, residentID)
		if err != nil {
			return err
		}
		if err := apply(r); err != nil {
			return err
		}
		if err := e.store.ReplaceResident(ctx, r); err != nil {
			return apperr.Remote(op, err)
		}
		resident = r
		return nil
	})
	return resident, logFailure(op, err)
}

// Field selects which side of the month entries a total sums.
type Field int

const (
	FieldPending Field = iota
	FieldPaid
)

// PendingTotal sums the chosen field across the month entries plus every
// extra charge.
func PendingTotal(r *models.Resident, field Field) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range r.MonthArray {
		if field == FieldPaid {
			total = total.Add(entry.Paid)
		} else {
			total = total.Add(entry.Pending)
		}
	}
	for _, x := range r.Extra {
		total = total.Add(x.Amount)
	}
	return total
}

// BoardRow is one resident on the payment board for a month.
type BoardRow struct {
	Resident models.Resident
	Entry    models.MonthEntry
	// Recorded is false when the resident has no entry for the month yet.
	Recorded bool
}

// Paid is what the board shows as paid: the current rate minus the month's pending.
func (b BoardRow) Paid() decimal.Decimal {
	return b.Resident.MonthlyPay.Sub(b.Entry.Pending)
}

// Board is the payment tracking view of one month.
type Board struct {
	MonthYear       string
	Rows            []BoardRow
	TotalAdvance    decimal.Decimal
	TotalMonthlyPay decimal.Decimal
	TotalPending    decimal.Decimal
}

// PaymentBoard lists the month's roster with each resident's entry and the
// hostel totals for the month.
func (e *Engine) PaymentBoard(ctx context.Context, sess Session, monthYear string) (*Board, error) {
	const op = "payment board"
	monthYear, err := canonicalMonth(op, monthYear)
	if err != nil {
		return nil, err
	}
	residents, err := e.Roster(ctx, sess, monthYear)
	if err != nil {
		return nil, err
	}
	b := &Board{
		MonthYear:       monthYear,
		TotalAdvance:    decimal.Zero,
		TotalMonthlyPay: decimal.Zero,
		TotalPending:    decimal.Zero,
	}
	for _, r := range residents {
		entry, idx := r.Entry(monthYear)
		b.Rows = append(b.Rows, BoardRow{Resident: r, Entry: entry, Recorded: idx >= 0})
		b.TotalAdvance = b.TotalAdvance.Add(r.Advance)
		b.TotalMonthlyPay = b.TotalMonthlyPay.Add(r.MonthlyPay)
		b.TotalPending = b.TotalPending.Add(entry.Pending)
	}
	logger.Info("%s: %s %s rows=%d", op, sess.HostelName, monthYear, len(b.Rows))
	return b, nil
}
