package ledger

import (
	"context"
	"strings"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/models"

	"github.com/shopspring/decimal"
)

// ResidentUpdate holds the editable resident fields; nil means unchanged.
// Room changes go through TransferResident.
type ResidentUpdate struct {
	Name           *string
	PhoneNo        *string
	Email          *string
	IDDocument     *string
	AddressLine    *string
	District       *string
	Zipcode        *string
	TelegramChatID *int64
	Advance        *decimal.Decimal
	MonthlyPay     *decimal.Decimal
}

// UpdateResidentDetails applies the non-nil fields of upd.
func (e *Engine) UpdateResidentDetails(ctx context.Context, sess Session, residentID string, upd ResidentUpdate) (*models.Resident, error) {
	const op = "update resident"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, apperr.Validation(op, "name must not be empty")
	}
	if (upd.Advance != nil && upd.Advance.IsNegative()) || (upd.MonthlyPay != nil && upd.MonthlyPay.IsNegative()) {
		return nil, apperr.Validation(op, "amounts must not be negative")
	}

	var resident *models.Resident
	err := withResidentRetry(op, func() error {
		r, err := e.findResident(ctx, op, sess, residentID)
		if err != nil {
			return err
		}
		setString(&r.Name, upd.Name)
		setString(&r.PhoneNo, upd.PhoneNo)
		setString(&r.Email, upd.Email)
		setString(&r.IDDocument, upd.IDDocument)
		setString(&r.AddressLine, upd.AddressLine)
		setString(&r.District, upd.District)
		setString(&r.Zipcode, upd.Zipcode)
		if upd.TelegramChatID != nil {
			r.TelegramChatID = *upd.TelegramChatID
		}
		if upd.Advance != nil {
			r.Advance = *upd.Advance
		}
		if upd.MonthlyPay != nil {
			r.MonthlyPay = *upd.MonthlyPay
		}
		if err := e.store.ReplaceResident(ctx, r); err != nil {
			return apperr.Remote(op, err)
		}
		resident = r
		return nil
	})
	return resident, logFailure(op, err)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// ResidentFilter narrows ListResidents. Zero values match everything.
type ResidentFilter struct {
	// Search matches room number or name, case-insensitively.
	Search    string
	JoinMonth int
	JoinYear  int
}

// ListResidents returns the live residents matching f in room order.
func (e *Engine) ListResidents(ctx context.Context, sess Session, f ResidentFilter) ([]models.Resident, error) {
	const op = "list residents"
	all, err := e.residents(ctx, op, sess)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []models.Resident
	for _, r := range all {
		if r.IsDeleted {
			continue
		}
		if f.JoinMonth != 0 && int(r.JoiningDate.Month()) != f.JoinMonth {
			continue
		}
		if f.JoinYear != 0 && r.JoiningDate.Year() != f.JoinYear {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.RoomNo), search) &&
			!strings.Contains(strings.ToLower(r.Name), search) {
			continue
		}
		out = append(out, r)
	}
	SortResidents(out)
	return out, nil
}

// FindResidentInRoom looks up a live resident by room and name.
func (e *Engine) FindResidentInRoom(ctx context.Context, sess Session, roomNo, name string) (*models.Resident, error) {
	const op = "find resident"
	all, err := e.residents(ctx, op, sess)
	if err != nil {
		return nil, err
	}
	var found []models.Resident
	for _, r := range all {
		if !r.IsDeleted && r.RoomNo == roomNo && strings.EqualFold(r.Name, strings.TrimSpace(name)) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return nil, apperr.NotFound(apperr.ErrResidentNotFound, op, "no resident %q in room %s", name, roomNo)
	case 1:
		return &found[0], nil
	}
	return nil, apperr.Validation(op, "several residents named %q in room %s", name, roomNo)
}

// RoomResidents lists the live residents of a room.
func (e *Engine) RoomResidents(ctx context.Context, sess Session, roomNo string) ([]models.Resident, error) {
	const op = "room residents"
	all, err := e.residents(ctx, op, sess)
	if err != nil {
		return nil, err
	}
	var out []models.Resident
	for _, r := range all {
		if !r.IsDeleted && r.RoomNo == roomNo {
			out = append(out, r)
		}
	}
	SortResidents(out)
	return out, nil
}

// PendingResidents lists live residents that owe money, in room order.
func (e *Engine) PendingResidents(ctx context.Context, sess Session) ([]models.Resident, error) {
	const op = "pending residents"
	all, err := e.residents(ctx, op, sess)
	if err != nil {
		return nil, err
	}
	var out []models.Resident
	for _, r := range all {
		if !r.IsDeleted && r.TotalPendingPerson.IsPositive() {
			out = append(out, r)
		}
	}
	SortResidents(out)
	return out, nil
}

// Roster returns every resident billed in monthYear, relieved ones included.
func (e *Engine) Roster(ctx context.Context, sess Session, monthYear string) ([]models.Resident, error) {
	const op = "roster"
	m, err := models.ParseMonthYear(monthYear)
	if err != nil {
		return nil, apperr.Validation(op, "%v", err)
	}
	all, err := e.residents(ctx, op, sess)
	if err != nil {
		return nil, err
	}
	out := FilterRoster(all, m)
	SortResidents(out)
	return out, nil
}

func (e *Engine) residents(ctx context.Context, op string, sess Session) ([]models.Resident, error) {
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	all, err := e.store.ListResidents(ctx, sess.ManagerID)
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	return all, nil
}
