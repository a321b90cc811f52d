package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/models"

	"github.com/shopspring/decimal"
)

// AdmitRequest describes a new resident and the room they move into.
type AdmitRequest struct {
	Name           string `validate:"required"`
	RoomNo         string `validate:"required,alphanum"`
	PhoneNo        string `validate:"omitempty,numeric,min=7,max=15"`
	Email          string `validate:"omitempty,email"`
	IDDocument     string
	AddressLine    string
	District       string
	Zipcode        string
	JoiningDate    time.Time
	Advance        decimal.Decimal
	MonthlyPay     decimal.Decimal
	TelegramChatID int64
}

// AdmitResident creates the resident and takes one seat in the room and in the
// hostel aggregate. A full room is rejected before anything is written.
func (e *Engine) AdmitResident(ctx context.Context, sess Session, req AdmitRequest) (*models.Resident, error) {
	const op = "admit resident"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.RoomNo = strings.TrimSpace(req.RoomNo)
	if err := e.check(op, req); err != nil {
		return nil, err
	}
	if req.JoiningDate.IsZero() {
		return nil, apperr.Validation(op, "joining date is required")
	}
	if req.Advance.IsNegative() || req.MonthlyPay.IsNegative() {
		return nil, apperr.Validation(op, "amounts must not be negative")
	}

	room, err := e.findRoom(ctx, op, sess, req.RoomNo)
	if err != nil {
		return nil, logFailure(op, err)
	}
	if room.IsFull() {
		return nil, apperr.CapacityExceeded(op, "room %s is full (%d/%d)", room.RoomNo, room.Occupancy, room.Capacity)
	}
	if err := e.requireCapacityAggregate(ctx, op, sess); err != nil {
		return nil, err
	}

	r := &models.Resident{
		ID:                 e.newID(),
		UserID:             sess.ManagerID,
		Name:               req.Name,
		RoomNo:             room.RoomNo,
		PhoneNo:            req.PhoneNo,
		Email:              req.Email,
		IDDocument:         req.IDDocument,
		AddressLine:        req.AddressLine,
		District:           req.District,
		Zipcode:            req.Zipcode,
		TelegramChatID:     req.TelegramChatID,
		Advance:            req.Advance,
		MonthlyPay:         req.MonthlyPay,
		MonthArray:         []models.MonthEntry{},
		Extra:              []models.ExtraCharge{},
		TotalPendingPerson: decimal.Zero,
		JoiningDate:        req.JoiningDate,
		CreatedAt:          e.stamp(),
	}

	err = e.store.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := e.store.ReserveSeat(ctx, room.ID); err != nil {
			return err
		}
		if err := e.store.InsertResident(ctx, r); err != nil {
			e.releaseSeat(ctx, op, room.ID)
			return err
		}
		// The resident and the room seat are in place; a stale aggregate is
		// left for reconciliation rather than failing a completed admission.
		if err := e.store.IncHostelOccupancy(ctx, sess.HostelID, 1); err != nil {
			logger.Error("%s: resident %s admitted to room %s but hostel occupancy not updated: %v", op, r.ID, room.RoomNo, err)
		}
		return nil
	})
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	logger.Info("%s: %s into room %s (%s)", op, r.Name, r.RoomNo, sess.HostelName)
	return r, nil
}

// TransferRequest moves a resident from OldRoomNo to NewRoomNo.
type TransferRequest struct {
	ResidentID string `validate:"required"`
	OldRoomNo  string `validate:"required"`
	NewRoomNo  string `validate:"required,nefield=OldRoomNo"`
}

// TransferResident moves one seat from the old room to the new one and
// repoints the resident. The hostel aggregate does not change.
func (e *Engine) TransferResident(ctx context.Context, sess Session, req TransferRequest) (*models.Resident, error) {
	const op = "transfer resident"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	if err := e.check(op, req); err != nil {
		return nil, err
	}

	var resident *models.Resident
	err := withResidentRetry(op, func() error {
		r, err := e.findResident(ctx, op, sess, req.ResidentID)
		if err != nil {
			return err
		}
		if r.IsDeleted {
			return apperr.Validation(op, "%s has been relieved", r.Name)
		}
		if r.RoomNo != req.OldRoomNo {
			return apperr.Validation(op, "%s is not in room %s", r.Name, req.OldRoomNo)
		}
		oldRoom, err := e.findRoom(ctx, op, sess, req.OldRoomNo)
		if err != nil {
			return err
		}
		newRoom, err := e.findRoom(ctx, op, sess, req.NewRoomNo)
		if err != nil {
			return err
		}
		if newRoom.IsFull() {
			return apperr.CapacityExceeded(op, "room %s has no vacancy", newRoom.RoomNo)
		}

		return e.store.WithTransaction(ctx, func(ctx context.Context) error {
			if _, err := e.store.ReserveSeat(ctx, newRoom.ID); err != nil {
				return err
			}
			r.RoomNo = newRoom.RoomNo
			if err := e.store.ReplaceResident(ctx, r); err != nil {
				e.releaseSeat(ctx, op, newRoom.ID)
				return err
			}
			resident = r
			return e.store.ReleaseSeat(ctx, oldRoom.ID)
		})
	})
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	logger.Info("%s: %s %s -> %s", op, resident.Name, req.OldRoomNo, req.NewRoomNo)
	return resident, nil
}

// RelieveResident soft-deletes the resident and gives their seat back to the
// room and the hostel. Relieving an already relieved resident changes nothing.
func (e *Engine) RelieveResident(ctx context.Context, sess Session, residentID string, on time.Time) (*models.Resident, error) {
	const op = "relieve resident"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	if on.IsZero() {
		on = e.now()
	}

	var resident *models.Resident
	err := withResidentRetry(op, func() error {
		r, err := e.findResident(ctx, op, sess, residentID)
		if err != nil {
			return err
		}
		if r.IsDeleted {
			resident = r
			return nil
		}
		if on.Before(r.JoiningDate) {
			return apperr.Validation(op, "relieving date is before joining date")
		}

		room, err := e.findRoom(ctx, op, sess, r.RoomNo)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if room == nil {
			logger.Warning("%s: room %s of %s no longer exists, only the hostel seat is released", op, r.RoomNo, r.Name)
		}

		return e.store.WithTransaction(ctx, func(ctx context.Context) error {
			relieved := on
			r.IsDeleted = true
			r.DateOfRelieving = &relieved
			if err := e.store.ReplaceResident(ctx, r); err != nil {
				return err
			}
			resident = r
			if room != nil {
				if err := e.store.ReleaseSeat(ctx, room.ID); err != nil {
					return err
				}
			}
			return e.store.IncHostelOccupancy(ctx, sess.HostelID, -1)
		})
	})
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	return resident, nil
}

func (e *Engine) requireCapacityAggregate(ctx context.Context, op string, sess Session) error {
	c, err := e.store.FindHostelCapacity(ctx, sess.HostelID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return &apperr.Error{Kind: apperr.KindConfiguration, Code: apperr.ErrHostelCapacityMissing, Op: op, Msg: "hostel capacity document not found"}
		}
		return logFailure(op, apperr.Remote(op, err))
	}
	if c.IsDeleted {
		return apperr.Configuration(op, "hostel %s is deleted", sess.HostelName)
	}
	return nil
}

// releaseSeat undoes a reservation after a later write failed.
func (e *Engine) releaseSeat(ctx context.Context, op, roomID string) {
	if err := e.store.ReleaseSeat(ctx, roomID); err != nil {
		logger.Error("%s: failed to release seat in room %s: %v", op, roomID, err)
	}
}
