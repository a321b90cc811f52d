package ledger

import (
	"context"
	"errors"
	"strings"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/models"
)

// ProfileUpdate holds the editable manager fields; nil means unchanged.
type ProfileUpdate struct {
	Username    *string
	Email       *string
	PhoneNumber *string
	AddressLine *string
	District    *string
	Zipcode     *string
}

func (u ProfileUpdate) empty() bool {
	return u == ProfileUpdate{}
}

type profileFields struct {
	Username    string `validate:"required"`
	Email       string `validate:"required,email"`
	PhoneNumber string `validate:"omitempty,numeric,min=7,max=15"`
}

// Profile returns the manager account behind the session.
func (e *Engine) Profile(ctx context.Context, sess Session) (*models.Manager, error) {
	const op = "load profile"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	m, err := e.store.FindManager(ctx, sess.ManagerID)
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	return m, nil
}

// UpdateProfile changes the session manager's own contact details.
func (e *Engine) UpdateProfile(ctx context.Context, sess Session, upd ProfileUpdate) (*models.Manager, error) {
	const op = "update profile"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	return e.updateManager(ctx, op, sess.ManagerID, upd)
}

func (e *Engine) updateManager(ctx context.Context, op, managerID string, upd ProfileUpdate) (*models.Manager, error) {
	m, err := e.store.FindManager(ctx, managerID)
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	previous := m.Email
	setString(&m.Username, upd.Username)
	setString(&m.PhoneNumber, upd.PhoneNumber)
	setString(&m.AddressLine, upd.AddressLine)
	setString(&m.District, upd.District)
	setString(&m.Zipcode, upd.Zipcode)
	if upd.Email != nil {
		m.Email = strings.ToLower(strings.TrimSpace(*upd.Email))
	}
	if err := e.check(op, profileFields{Username: m.Username, Email: m.Email, PhoneNumber: m.PhoneNumber}); err != nil {
		return nil, err
	}
	if m.Email != previous {
		if other, err := e.store.FindManagerByEmail(ctx, m.Email); err == nil && other.ID != m.ID {
			return nil, apperr.Duplicate(apperr.ErrManagerExists, op, "manager %s already exists", m.Email)
		} else if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return nil, logFailure(op, apperr.Remote(op, err))
		}
	}
	if err := e.store.UpdateManagerProfile(ctx, m); err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	logger.Info("%s: %s", op, m.ManagerCode)
	return m, nil
}

// HostelInfo returns the session's hostel with its counters and manager.
func (e *Engine) HostelInfo(ctx context.Context, sess Session) (*HostelOverview, error) {
	const op = "hostel info"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	h, err := e.liveHostel(ctx, op, sess.HostelID)
	if err != nil {
		return nil, err
	}
	return e.overview(ctx, op, *h)
}

// HostelUpdate holds the editable hostel fields and the contact details of
// its manager; nil means unchanged.
type HostelUpdate struct {
	HostelName  *string
	AddressLine *string
	District    *string
	Zipcode     *string
	Capacity    *int
	Manager     ProfileUpdate
}

type hostelFields struct {
	HostelName  string `validate:"required"`
	AddressLine string `validate:"required"`
	District    string `validate:"required"`
	Zipcode     string `validate:"required,numeric"`
}

// UpdateHostel lets an administrator correct a hostel's details, its
// capacity and the manager's contact fields in one call.
func (e *Engine) UpdateHostel(ctx context.Context, sess Session, hostelID string, upd HostelUpdate) (*HostelOverview, error) {
	const op = "update hostel"
	if err := requireAdmin(op, sess); err != nil {
		return nil, err
	}
	h, err := e.liveHostel(ctx, op, hostelID)
	if err != nil {
		return nil, err
	}
	if upd.Capacity != nil && *upd.Capacity < 0 {
		return nil, apperr.Validation(op, "capacity must not be negative")
	}
	setString(&h.HostelName, upd.HostelName)
	setString(&h.AddressLine, upd.AddressLine)
	setString(&h.District, upd.District)
	setString(&h.Zipcode, upd.Zipcode)
	if err := e.check(op, hostelFields{HostelName: h.HostelName, AddressLine: h.AddressLine, District: h.District, Zipcode: h.Zipcode}); err != nil {
		return nil, err
	}

	if !upd.Manager.empty() {
		if _, err := e.updateManager(ctx, op, h.UserID, upd.Manager); err != nil {
			return nil, err
		}
	}
	if err := e.store.UpdateHostelDetails(ctx, h); err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	if upd.Capacity != nil {
		if err := e.store.SetHostelCapacity(ctx, h.ID, *upd.Capacity); err != nil {
			return nil, logFailure(op, apperr.Remote(op, err))
		}
		h.Capacity = *upd.Capacity
	}
	logger.Info("%s: %s", op, h.HostelCode)
	return e.overview(ctx, op, *h)
}
