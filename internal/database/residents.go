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

// InsertResident inserts a new resident
func (db *DB) InsertResident(ctx context.Context, r *models.Resident) error {
	return insert(ctx, db.residents, r, apperr.ErrStore, "resident "+r.ID)
}

func (db *DB) FindResident(ctx context.Context, id string) (*models.Resident, error) {
	var r models.Resident
	if err := findOne(ctx, db.residents, bson.M{"_id": id}, &r, apperr.ErrResidentNotFound, "resident "+id); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListResidents returns every resident of the manager, relieved ones included.
func (db *DB) ListResidents(ctx context.Context, userID string) ([]models.Resident, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return findAll[models.Resident](ctx, db.residents, bson.M{"userId": userID}, opts)
}

// ReplaceResident writes r only over the revision it was read at.
func (db *DB) ReplaceResident(ctx context.Context, r *models.Resident) error {
	read := r.Revision
	r.Revision++
	err := replaceRevision(ctx, db.residents, r.ID, read, r, apperr.ErrResidentNotFound, "resident "+r.ID)
	if err != nil {
		r.Revision = read
	}
	return err
}

// InsertExpense inserts a new expense
func (db *DB) InsertExpense(ctx context.Context, x *models.Expense) error {
	return insert(ctx, db.expenses, x, apperr.ErrStore, "expense "+x.ID)
}

func (db *DB) FindExpense(ctx context.Context, id string) (*models.Expense, error) {
	var x models.Expense
	if err := findOne(ctx, db.expenses, bson.M{"_id": id}, &x, apperr.ErrExpenseNotFound, "expense "+id); err != nil {
		return nil, err
	}
	return &x, nil
}

// ListExpenses returns the manager's expenses by date.
func (db *DB) ListExpenses(ctx context.Context, userID string) ([]models.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	return findAll[models.Expense](ctx, db.expenses, bson.M{"userId": userID}, opts)
}

func (db *DB) ReplaceExpense(ctx context.Context, x *models.Expense) error {
	read := x.Revision
	x.Revision++
	err := replaceRevision(ctx, db.expenses, x.ID, read, x, apperr.ErrExpenseNotFound, "expense "+x.ID)
	if err != nil {
		x.Revision = read
	}
	return err
}

// DeleteExpense deletes an expense by ID
func (db *DB) DeleteExpense(ctx context.Context, id string) error {
	res, err := db.expenses.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(apperr.ErrExpenseNotFound, "delete expense", "expense %s", id)
	}
	return nil
}

// replaceRevision replaces the document only if it is still at revision.
// A missing match is a conflict when the document exists and not found
// otherwise.
func replaceRevision(ctx context.Context, coll *mongo.Collection, id string, revision int64, doc interface{}, code int, what string) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id, "revision": revision}, doc)
	if err != nil {
		return fmt.Errorf("failed to replace %s: %w", what, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	ok, err := exists(ctx, coll, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(code, "replace "+coll.Name(), "%s", what)
	}
	return apperr.Conflict("replace "+coll.Name(), "%s changed since revision %d", what, revision)
}
