package database

import (
	"context"
	"errors"
	"fmt"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertRoom inserts a new room. Room numbers are unique per manager.
func (db *DB) InsertRoom(ctx context.Context, r *models.Room) error {
	return insert(ctx, db.rooms, r, apperr.ErrRoomExists, "room "+r.RoomNo)
}

func (db *DB) FindRoom(ctx context.Context, id string) (*models.Room, error) {
	var r models.Room
	if err := findOne(ctx, db.rooms, bson.M{"_id": id}, &r, apperr.ErrRoomNotFound, "room "+id); err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) FindRoomByNo(ctx context.Context, userID, roomNo string) (*models.Room, error) {
	var r models.Room
	if err := findOne(ctx, db.rooms, bson.M{"userId": userID, "roomNo": roomNo}, &r, apperr.ErrRoomNotFound, "room "+roomNo); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRooms returns the manager's rooms in storage order; callers sort.
func (db *DB) ListRooms(ctx context.Context, userID string) ([]models.Room, error) {
	return findAll[models.Room](ctx, db.rooms, bson.M{"userId": userID})
}

func (db *DB) UpdateRoom(ctx context.Context, id, roomNo string, capacity int) error {
	res, err := db.rooms.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"roomNo": roomNo, "capacity": capacity}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Duplicate(apperr.ErrRoomExists, "update room", "room %s already exists", roomNo)
		}
		return fmt.Errorf("failed to update room: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(apperr.ErrRoomNotFound, "update room", "room %s", id)
	}
	return nil
}

// DeleteRoom deletes a room by ID
func (db *DB) DeleteRoom(ctx context.Context, id string) error {
	res, err := db.rooms.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(apperr.ErrRoomNotFound, "delete room", "room %s", id)
	}
	return nil
}

// ReserveSeat takes one seat in a single conditional update, so two
// admissions racing for the last seat cannot both succeed.
func (db *DB) ReserveSeat(ctx context.Context, roomID string) (*models.Room, error) {
	filter := bson.M{
		"_id":   roomID,
		"$expr": bson.M{"$lt": bson.A{"$occupancy", "$capacity"}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var r models.Room
	err := db.rooms.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"occupancy": 1}}, opts).Decode(&r)
	if err == nil {
		return &r, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to reserve seat in room %s: %w", roomID, err)
	}
	ok, err := exists(ctx, db.rooms, roomID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound(apperr.ErrRoomNotFound, "reserve seat", "room %s", roomID)
	}
	return nil, apperr.CapacityExceeded("reserve seat", "room %s is full", roomID)
}

// ReleaseSeat gives a seat back; occupancy never goes below zero.
func (db *DB) ReleaseSeat(ctx context.Context, roomID string) error {
	filter := bson.M{"_id": roomID, "occupancy": bson.M{"$gt": 0}}
	res, err := db.rooms.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"occupancy": -1}})
	if err != nil {
		return fmt.Errorf("failed to release seat in room %s: %w", roomID, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	ok, err := exists(ctx, db.rooms, roomID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(apperr.ErrRoomNotFound, "release seat", "room %s", roomID)
	}
	return nil
}

func (db *DB) SetRoomOccupancy(ctx context.Context, roomID string, occupancy int) error {
	set := bson.M{"$set": bson.M{"occupancy": occupancy}}
	return updateByID(ctx, db.rooms, roomID, set, apperr.ErrRoomNotFound, "room "+roomID)
}
