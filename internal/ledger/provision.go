package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/models"

	"golang.org/x/crypto/bcrypt"
)

const (
	managerCounter = "managerCounter"
	hostelCounter  = "hostelCounter"
)

// ManagerRequest describes a new manager account.
type ManagerRequest struct {
	Username        string `validate:"required"`
	Email           string `validate:"required,email"`
	PhoneNumber     string `validate:"omitempty,numeric,min=7,max=15"`
	AddressLine     string
	District        string
	Zipcode         string
	Password        string `validate:"required,min=6"`
	ConfirmPassword string
	TelegramID      int64 `validate:"required"`
}

// CreateManager registers a manager. The account has no hostel until one is
// created for it.
func (e *Engine) CreateManager(ctx context.Context, sess Session, req ManagerRequest) (*models.Manager, error) {
	const op = "create manager"
	if err := requireAdmin(op, sess); err != nil {
		return nil, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if err := e.check(op, req); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, apperr.Validation(op, "passwords do not match")
	}
	if _, err := e.store.FindManagerByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Duplicate(apperr.ErrManagerExists, op, "manager %s already exists", req.Email)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	if _, err := e.store.FindManagerByTelegramID(ctx, req.TelegramID); err == nil {
		return nil, apperr.Duplicate(apperr.ErrManagerExists, op, "telegram user %d is already a manager", req.TelegramID)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, logFailure(op, apperr.Remote(op, err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Remote(op, fmt.Errorf("hash password: %w", err))
	}
	n, err := e.store.NextCounter(ctx, managerCounter)
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	m := &models.Manager{
		ID:           e.newID(),
		ManagerCode:  fmt.Sprintf("MGR%04d", n),
		Username:     req.Username,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		AddressLine:  req.AddressLine,
		District:     req.District,
		Zipcode:      req.Zipcode,
		PasswordHash: string(hash),
		Role:         models.RoleManager,
		TelegramID:   req.TelegramID,
		CreatedAt:    e.stamp(),
	}
	if err := e.store.InsertManager(ctx, m); err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	logger.Info("%s: %s (%s)", op, m.ManagerCode, m.Email)
	return m, nil
}

// HostelRequest describes a new hostel and the manager who runs it.
type HostelRequest struct {
	HostelName   string `validate:"required"`
	AddressLine  string `validate:"required"`
	District     string `validate:"required"`
	Zipcode      string `validate:"required,numeric"`
	ManagerEmail string `validate:"required,email"`
	Capacity     int    `validate:"min=0"`
}

// CreateHostel creates the hostel, its capacity aggregate at zero occupancy
// and links the manager to it.
func (e *Engine) CreateHostel(ctx context.Context, sess Session, req HostelRequest) (*models.Hostel, error) {
	const op = "create hostel"
	if err := requireAdmin(op, sess); err != nil {
		return nil, err
	}
	req.HostelName = strings.TrimSpace(req.HostelName)
	req.ManagerEmail = strings.ToLower(strings.TrimSpace(req.ManagerEmail))
	if err := e.check(op, req); err != nil {
		return nil, err
	}
	m, err := e.store.FindManagerByEmail(ctx, req.ManagerEmail)
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	if m.IsDeleted {
		return nil, apperr.NotFound(apperr.ErrManagerNotFound, op, "manager %s is deleted", m.ManagerCode)
	}
	if m.HostelID != "" {
		if h, err := e.store.FindHostel(ctx, m.HostelID); err == nil && !h.IsDeleted {
			return nil, apperr.Validation(op, "manager %s already runs %s", m.ManagerCode, h.HostelName)
		}
	}

	n, err := e.store.NextCounter(ctx, hostelCounter)
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	h := &models.Hostel{
		ID:          e.newID(),
		HostelCode:  fmt.Sprintf("HST%04d", n),
		HostelName:  req.HostelName,
		AddressLine: req.AddressLine,
		District:    req.District,
		Zipcode:     req.Zipcode,
		UserID:      m.ID,
		Capacity:    req.Capacity,
		CreatedAt:   e.stamp(),
	}
	err = e.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := e.store.InsertHostel(ctx, h); err != nil {
			return err
		}
		if err := e.store.InsertHostelCapacity(ctx, &models.HostelCapacity{
			ID:         h.ID,
			HostelName: h.HostelName,
			UserID:     m.ID,
			Capacity:   h.Capacity,
		}); err != nil {
			return err
		}
		return e.store.SetManagerHostel(ctx, m.ID, h.ID)
	})
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	logger.Info("%s: %s %q for %s", op, h.HostelCode, h.HostelName, m.ManagerCode)
	return h, nil
}

// UpdateHostelCapacity changes the declared capacity of a hostel and its
// aggregate. Occupancy is left alone.
func (e *Engine) UpdateHostelCapacity(ctx context.Context, sess Session, hostelID string, capacity int) error {
	const op = "update hostel capacity"
	if err := requireAdmin(op, sess); err != nil {
		return err
	}
	if capacity < 0 {
		return apperr.Validation(op, "capacity must not be negative")
	}
	h, err := e.liveHostel(ctx, op, hostelID)
	if err != nil {
		return err
	}
	if err := e.store.SetHostelCapacity(ctx, h.ID, capacity); err != nil {
		return logFailure(op, apperr.Remote(op, err))
	}
	logger.Info("%s: %s %d -> %d", op, h.HostelCode, h.Capacity, capacity)
	return nil
}

// DeleteHostel flags the hostel and its aggregate as deleted.
func (e *Engine) DeleteHostel(ctx context.Context, sess Session, hostelID string) error {
	const op = "delete hostel"
	if err := requireAdmin(op, sess); err != nil {
		return err
	}
	h, err := e.liveHostel(ctx, op, hostelID)
	if err != nil {
		return err
	}
	if err := e.store.MarkHostelDeleted(ctx, h.ID); err != nil {
		return logFailure(op, apperr.Remote(op, err))
	}
	logger.Info("%s: %s", op, h.HostelCode)
	return nil
}

// HostelOverview is one line of the admin hostel list.
type HostelOverview struct {
	Hostel    models.Hostel
	Manager   *models.Manager
	Capacity  int
	Occupancy int
}

// Vacancy is the number of free beds in the hostel.
func (o HostelOverview) Vacancy() int { return o.Capacity - o.Occupancy }

// ListHostels lists live hostels with their aggregate counters.
func (e *Engine) ListHostels(ctx context.Context, sess Session) ([]HostelOverview, error) {
	const op = "list hostels"
	if err := requireAdmin(op, sess); err != nil {
		return nil, err
	}
	hostels, err := e.store.ListHostels(ctx)
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	var out []HostelOverview
	for _, h := range hostels {
		if h.IsDeleted {
			continue
		}
		o, err := e.overview(ctx, op, h)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, nil
}

// HostelReport is the admin's monthly view of one hostel.
type HostelReport struct {
	Overview HostelOverview
	Month    Summary
}

// HostelReport combines a hostel's counters with its month totals.
func (e *Engine) HostelReport(ctx context.Context, sess Session, hostelID, monthYear string) (*HostelReport, error) {
	const op = "hostel report"
	if err := requireAdmin(op, sess); err != nil {
		return nil, err
	}
	h, err := e.liveHostel(ctx, op, hostelID)
	if err != nil {
		return nil, err
	}
	o, err := e.overview(ctx, op, *h)
	if err != nil {
		return nil, err
	}
	s, err := e.summary(ctx, h.ID, h.UserID, monthYear)
	if err != nil {
		return nil, logFailure(op, err)
	}
	return &HostelReport{Overview: *o, Month: *s}, nil
}

// ManagerSessions returns a session for every manager running a live hostel.
// Scheduled jobs use it to act on behalf of each manager.
func (e *Engine) ManagerSessions(ctx context.Context) ([]Session, error) {
	const op = "manager sessions"
	hostels, err := e.store.ListHostels(ctx)
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	var out []Session
	for _, h := range hostels {
		if h.IsDeleted {
			continue
		}
		m, err := e.store.FindManager(ctx, h.UserID)
		if err != nil {
			logger.Warning("%s: hostel %s: %v", op, h.HostelCode, err)
			continue
		}
		if m.IsDeleted {
			continue
		}
		out = append(out, Session{
			ManagerID:  m.ID,
			HostelID:   h.ID,
			HostelName: h.HostelName,
			Role:       m.Role,
			ChatID:     m.TelegramID,
		})
	}
	return out, nil
}

func (e *Engine) liveHostel(ctx context.Context, op, hostelID string) (*models.Hostel, error) {
	h, err := e.store.FindHostel(ctx, hostelID)
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	if h.IsDeleted {
		return nil, apperr.NotFound(apperr.ErrHostelNotFound, op, "hostel %s is deleted", h.HostelCode)
	}
	return h, nil
}

func (e *Engine) overview(ctx context.Context, op string, h models.Hostel) (*HostelOverview, error) {
	o := &HostelOverview{Hostel: h, Capacity: h.Capacity}
	c, err := e.store.FindHostelCapacity(ctx, h.ID)
	switch {
	case err == nil:
		o.Capacity, o.Occupancy = c.Capacity, c.Occupancy
	case errors.Is(err, apperr.ErrNotFound):
		logger.Warning("%s: hostel %s has no capacity aggregate", op, h.HostelCode)
	default:
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	if m, err := e.store.FindManager(ctx, h.UserID); err == nil {
		o.Manager = m
	}
	return o, nil
}

// Hostel returns the session's hostel.
func (e *Engine) Hostel(ctx context.Context, sess Session) (*models.Hostel, error) {
	const op = "load hostel"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	return e.liveHostel(ctx, op, sess.HostelID)
}
