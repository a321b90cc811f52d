package database

import (
	"context"
	"fmt"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertManager inserts a new manager
func (db *DB) InsertManager(ctx context.Context, m *models.Manager) error {
	return insert(ctx, db.managers, m, apperr.ErrManagerExists, "manager "+m.Email)
}

// FindManager finds a manager by ID
func (db *DB) FindManager(ctx context.Context, id string) (*models.Manager, error) {
	var m models.Manager
	if err := findOne(ctx, db.managers, bson.M{"_id": id}, &m, apperr.ErrManagerNotFound, "manager "+id); err != nil {
		return nil, err
	}
	return &m, nil
}

func (db *DB) FindManagerByEmail(ctx context.Context, email string) (*models.Manager, error) {
	var m models.Manager
	if err := findOne(ctx, db.managers, bson.M{"email": email}, &m, apperr.ErrManagerNotFound, "manager "+email); err != nil {
		return nil, err
	}
	return &m, nil
}

func (db *DB) FindManagerByTelegramID(ctx context.Context, telegramID int64) (*models.Manager, error) {
	var m models.Manager
	what := fmt.Sprintf("manager for telegram user %d", telegramID)
	if err := findOne(ctx, db.managers, bson.M{"telegramId": telegramID}, &m, apperr.ErrManagerNotFound, what); err != nil {
		return nil, err
	}
	return &m, nil
}

func (db *DB) SetManagerHostel(ctx context.Context, managerID, hostelID string) error {
	return updateByID(ctx, db.managers, managerID, bson.M{"$set": bson.M{"hostelId": hostelID}}, apperr.ErrManagerNotFound, "manager "+managerID)
}

// UpdateManagerProfile sets the contact fields of a manager.
func (db *DB) UpdateManagerProfile(ctx context.Context, m *models.Manager) error {
	set := bson.M{"$set": bson.M{
		"username":    m.Username,
		"email":       m.Email,
		"phoneNumber": m.PhoneNumber,
		"addressLine": m.AddressLine,
		"district":    m.District,
		"zipcode":     m.Zipcode,
	}}
	err := updateByID(ctx, db.managers, m.ID, set, apperr.ErrManagerNotFound, "manager "+m.ID)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Duplicate(apperr.ErrManagerExists, "update manager", "manager %s already exists", m.Email)
	}
	return err
}

// InsertHostel inserts a new hostel
func (db *DB) InsertHostel(ctx context.Context, h *models.Hostel) error {
	return insert(ctx, db.hostels, h, apperr.ErrStore, "hostel "+h.HostelCode)
}

func (db *DB) FindHostel(ctx context.Context, id string) (*models.Hostel, error) {
	var h models.Hostel
	if err := findOne(ctx, db.hostels, bson.M{"_id": id}, &h, apperr.ErrHostelNotFound, "hostel "+id); err != nil {
		return nil, err
	}
	return &h, nil
}

// ListHostels returns every hostel, deleted ones included, oldest first
func (db *DB) ListHostels(ctx context.Context) ([]models.Hostel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return findAll[models.Hostel](ctx, db.hostels, bson.M{}, opts)
}

// SetHostelCapacity updates the declared capacity on the hostel and its aggregate.
func (db *DB) SetHostelCapacity(ctx context.Context, hostelID string, capacity int) error {
	return db.WithTransaction(ctx, func(ctx context.Context) error {
		set := bson.M{"$set": bson.M{"capacity": capacity}}
		if err := updateByID(ctx, db.hostels, hostelID, set, apperr.ErrHostelNotFound, "hostel "+hostelID); err != nil {
			return err
		}
		return updateByID(ctx, db.capacities, hostelID, set, apperr.ErrHostelCapacityMissing, "hostel capacity "+hostelID)
	})
}

// UpdateHostelDetails sets the name and address of a hostel and renames its aggregate.
func (db *DB) UpdateHostelDetails(ctx context.Context, h *models.Hostel) error {
	return db.WithTransaction(ctx, func(ctx context.Context) error {
		set := bson.M{"$set": bson.M{
			"hostelName":  h.HostelName,
			"addressLine": h.AddressLine,
			"district":    h.District,
			"zipcode":     h.Zipcode,
		}}
		if err := updateByID(ctx, db.hostels, h.ID, set, apperr.ErrHostelNotFound, "hostel "+h.ID); err != nil {
			return err
		}
		rename := bson.M{"$set": bson.M{"hostelName": h.HostelName}}
		if _, err := db.capacities.UpdateOne(ctx, bson.M{"_id": h.ID}, rename); err != nil {
			return fmt.Errorf("failed to update hostel capacity %s: %w", h.ID, err)
		}
		return nil
	})
}

// MarkHostelDeleted soft-deletes the hostel and its aggregate.
func (db *DB) MarkHostelDeleted(ctx context.Context, hostelID string) error {
	return db.WithTransaction(ctx, func(ctx context.Context) error {
		set := bson.M{"$set": bson.M{"is_deleted": true}}
		if err := updateByID(ctx, db.hostels, hostelID, set, apperr.ErrHostelNotFound, "hostel "+hostelID); err != nil {
			return err
		}
		if _, err := db.capacities.UpdateOne(ctx, bson.M{"_id": hostelID}, set); err != nil {
			return fmt.Errorf("failed to update hostel capacity %s: %w", hostelID, err)
		}
		return nil
	})
}

func (db *DB) InsertHostelCapacity(ctx context.Context, c *models.HostelCapacity) error {
	return insert(ctx, db.capacities, c, apperr.ErrStore, "hostel capacity "+c.ID)
}

func (db *DB) FindHostelCapacity(ctx context.Context, hostelID string) (*models.HostelCapacity, error) {
	var c models.HostelCapacity
	if err := findOne(ctx, db.capacities, bson.M{"_id": hostelID}, &c, apperr.ErrHostelCapacityMissing, "hostel capacity "+hostelID); err != nil {
		return nil, err
	}
	return &c, nil
}

// IncHostelOccupancy adjusts the aggregate occupancy server side. A decrement
// only applies while occupancy is positive, like ReleaseSeat.
func (db *DB) IncHostelOccupancy(ctx context.Context, hostelID string, delta int) error {
	inc := bson.M{"$inc": bson.M{"occupancy": delta}}
	if delta >= 0 {
		return updateByID(ctx, db.capacities, hostelID, inc, apperr.ErrHostelCapacityMissing, "hostel capacity "+hostelID)
	}
	filter := bson.M{"_id": hostelID, "occupancy": bson.M{"$gte": -delta}}
	res, err := db.capacities.UpdateOne(ctx, filter, inc)
	if err != nil {
		return fmt.Errorf("failed to update hostel capacity %s: %w", hostelID, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	ok, err := exists(ctx, db.capacities, hostelID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(apperr.ErrHostelCapacityMissing, "inc hostel occupancy", "hostel capacity %s", hostelID)
	}
	return nil
}

func (db *DB) SetHostelOccupancy(ctx context.Context, hostelID string, occupancy int) error {
	set := bson.M{"$set": bson.M{"occupancy": occupancy}}
	return updateByID(ctx, db.capacities, hostelID, set, apperr.ErrHostelCapacityMissing, "hostel capacity "+hostelID)
}
