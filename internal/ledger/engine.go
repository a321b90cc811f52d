// Package ledger keeps resident payments, room occupancy and the monthly
// totals of each hostel consistent with one another.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// maxConflictRetries bounds re-reads after a lost optimistic update.
const maxConflictRetries = 3

// Engine runs every ledger operation. It is safe for concurrent use as long
// as the Store is.
type Engine struct {
	store    Store
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs overrides document id generation.
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an engine over store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		validate: newValidator(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session identifies who is acting. It is resolved once per request and passed
// to every operation; nothing is read from ambient state.
type Session struct {
	ManagerID  string
	HostelID   string
	HostelName string
	Role       string
	ChatID     int64
}

// IsAdmin reports whether the session belongs to an administrator.
func (s Session) IsAdmin() bool { return s.Role == models.RoleAdmin }

// AdminSession is the session of a configured administrator.
func AdminSession(chatID int64) Session {
	return Session{Role: models.RoleAdmin, ChatID: chatID}
}

// OpenSession resolves the manager bound to a telegram user and their hostel.
func (e *Engine) OpenSession(ctx context.Context, telegramID int64) (Session, error) {
	const op = "open session"
	m, err := e.store.FindManagerByTelegramID(ctx, telegramID)
	if err != nil {
		return Session{}, apperr.Remote(op, err)
	}
	if m.IsDeleted {
		return Session{}, apperr.NotFound(apperr.ErrManagerNotFound, op, "manager %s is deleted", m.ManagerCode)
	}
	if m.HostelID == "" {
		return Session{}, apperr.Configuration(op, "manager %s has no hostel", m.ManagerCode)
	}
	h, err := e.store.FindHostel(ctx, m.HostelID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Session{}, apperr.Configuration(op, "hostel %s of manager %s is missing", m.HostelID, m.ManagerCode)
		}
		return Session{}, apperr.Remote(op, err)
	}
	if h.IsDeleted {
		return Session{}, apperr.Configuration(op, "hostel %s of manager %s is deleted", h.ID, m.ManagerCode)
	}
	return Session{
		ManagerID:  m.ID,
		HostelID:   h.ID,
		HostelName: h.HostelName,
		Role:       m.Role,
		ChatID:     telegramID,
	}, nil
}

// requireHostel rejects sessions that are not bound to a hostel.
func requireHostel(op string, sess Session) error {
	if sess.ManagerID == "" || sess.HostelID == "" {
		return apperr.Configuration(op, "session has no manager or hostel")
	}
	return nil
}

func requireAdmin(op string, sess Session) error {
	if !sess.IsAdmin() {
		return apperr.Validation(op, "admin only")
	}
	return nil
}

// check validates a request struct and turns the first failure into a
// validation error.
func (e *Engine) check(op string, req interface{}) error {
	err := e.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.Validation(op, "%s is invalid (%s)", strings.ToLower(fe.Field()), fe.Tag())
	}
	return apperr.Validation(op, "%v", err)
}

// withResidentRetry re-runs fn when the resident document changed underneath it.
func withResidentRetry(op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = fn()
		if !errors.Is(err, apperr.ErrConflict) {
			return err
		}
		logger.Warning("%s: concurrent update, retrying (%d)", op, attempt+1)
	}
	return err
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("monthyear", func(fl validator.FieldLevel) bool {
		return models.IsValidMonthYear(fl.Field().String())
	})
	v.RegisterValidation("paymode", func(fl validator.FieldLevel) bool {
		_, ok := models.ParsePayMode(fl.Field().String())
		return ok
	})
	return v
}

func (e *Engine) stamp() int64 { return e.now().Unix() }

func (e *Engine) findResident(ctx context.Context, op string, sess Session, id string) (*models.Resident, error) {
	r, err := e.store.FindResident(ctx, id)
	if err != nil {
		return nil, apperr.Remote(op, err)
	}
	if r.UserID != sess.ManagerID {
		return nil, apperr.NotFound(apperr.ErrResidentNotFound, op, "resident %s", id)
	}
	return r, nil
}

func (e *Engine) findRoom(ctx context.Context, op string, sess Session, roomNo string) (*models.Room, error) {
	room, err := e.store.FindRoomByNo(ctx, sess.ManagerID, roomNo)
	if err != nil {
		return nil, apperr.Remote(op, err)
	}
	return room, nil
}

// canonicalMonth parses a Month-YYYY string and returns the form used as a
// storage key, so " March-2024 " and "March-2024" name the same month.
func canonicalMonth(op, monthYear string) (string, error) {
	m, err := models.ParseMonthYear(monthYear)
	if err != nil {
		return "", apperr.Validation(op, "%v", err)
	}
	return m.String(), nil
}

func logFailure(op string, err error) error {
	if err != nil && apperr.KindOf(err) == apperr.KindRemote {
		logger.Error("%s: %v", op, err)
	}
	return err
}
