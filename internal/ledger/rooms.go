package ledger

import (
	"context"
	"errors"
	"strings"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/models"
)

type roomRequest struct {
	RoomNo   string `validate:"required,alphanum"`
	Capacity int    `validate:"min=0"`
}

// AddRoom registers an empty room. Room numbers are unique per manager.
func (e *Engine) AddRoom(ctx context.Context, sess Session, roomNo string, capacity int) (*models.Room, error) {
	const op = "add room"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	req := roomRequest{RoomNo: strings.TrimSpace(roomNo), Capacity: capacity}
	if err := e.check(op, req); err != nil {
		return nil, err
	}
	if _, err := e.store.FindRoomByNo(ctx, sess.ManagerID, req.RoomNo); err == nil {
		return nil, apperr.Duplicate(apperr.ErrRoomExists, op, "room %s already exists", req.RoomNo)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, logFailure(op, apperr.Remote(op, err))
	}

	room := &models.Room{
		ID:       e.newID(),
		UserID:   sess.ManagerID,
		RoomNo:   req.RoomNo,
		Capacity: req.Capacity,
	}
	if err := e.store.InsertRoom(ctx, room); err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	logger.Info("%s: %s capacity %d (%s)", op, room.RoomNo, room.Capacity, sess.HostelName)
	return room, nil
}

// UpdateRoom renames a room or changes its capacity. Capacity may not drop
// below the current occupancy and an occupied room keeps its number, since
// residents point at rooms by number.
func (e *Engine) UpdateRoom(ctx context.Context, sess Session, currentNo, roomNo string, capacity int) (*models.Room, error) {
	const op = "update room"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	req := roomRequest{RoomNo: strings.TrimSpace(roomNo), Capacity: capacity}
	if err := e.check(op, req); err != nil {
		return nil, err
	}
	room, err := e.findRoom(ctx, op, sess, currentNo)
	if err != nil {
		return nil, logFailure(op, err)
	}
	if req.Capacity < room.Occupancy {
		return nil, apperr.Validation(op, "capacity %d is below occupancy %d", req.Capacity, room.Occupancy)
	}
	if req.RoomNo != room.RoomNo {
		if room.Occupancy > 0 {
			return nil, apperr.Validation(op, "room %s is occupied and cannot be renamed", room.RoomNo)
		}
		if _, err := e.store.FindRoomByNo(ctx, sess.ManagerID, req.RoomNo); err == nil {
			return nil, apperr.Duplicate(apperr.ErrRoomExists, op, "room %s already exists", req.RoomNo)
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return nil, logFailure(op, apperr.Remote(op, err))
		}
	}
	if err := e.store.UpdateRoom(ctx, room.ID, req.RoomNo, req.Capacity); err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	room.RoomNo = req.RoomNo
	room.Capacity = req.Capacity
	return room, nil
}

// DeleteRoom removes an empty room.
func (e *Engine) DeleteRoom(ctx context.Context, sess Session, roomNo string) error {
	const op = "delete room"
	if err := requireHostel(op, sess); err != nil {
		return err
	}
	room, err := e.findRoom(ctx, op, sess, roomNo)
	if err != nil {
		return logFailure(op, err)
	}
	if room.Occupancy > 0 {
		return apperr.Validation(op, "room %s still has %d residents", room.RoomNo, room.Occupancy)
	}
	if err := e.store.DeleteRoom(ctx, room.ID); err != nil {
		return logFailure(op, apperr.Remote(op, err))
	}
	return nil
}

// ListRooms returns the manager's rooms in natural room order, optionally
// narrowed to numbers containing search.
func (e *Engine) ListRooms(ctx context.Context, sess Session, search string) ([]models.Room, error) {
	const op = "list rooms"
	if err := requireHostel(op, sess); err != nil {
		return nil, err
	}
	rooms, err := e.store.ListRooms(ctx, sess.ManagerID)
	if err != nil {
		return nil, logFailure(op, apperr.Remote(op, err))
	}
	search = strings.ToLower(strings.TrimSpace(search))
	out := rooms[:0]
	for _, r := range rooms {
		if search == "" || strings.Contains(strings.ToLower(r.RoomNo), search) {
			out = append(out, r)
		}
	}
	SortRooms(out)
	return out, nil
}
