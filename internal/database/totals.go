package database

import (
	"context"
	"fmt"
	"time"

	"hostel-ledger-bot/internal/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PutIncomeTotal overwrites the income row of a month, creating it if needed.
func (db *DB) PutIncomeTotal(ctx context.Context, t *models.IncomeTotal) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := db.income.ReplaceOne(ctx, bson.M{"_id": t.ID}, t, opts); err != nil {
		return fmt.Errorf("failed to save income total %s: %w", t.ID, err)
	}
	return nil
}

// EnsureIncomeTotal returns the income row, creating it at zero on first access.
func (db *DB) EnsureIncomeTotal(ctx context.Context, hostelID, userID, monthYear string) (*models.IncomeTotal, error) {
	var t models.IncomeTotal
	err := ensure(ctx, db.income, hostelID, userID, monthYear, bson.M{"totalPaid": decimal.Zero}, &t)
	if err != nil {
		return nil, fmt.Errorf("failed to load income total %s: %w", monthYear, err)
	}
	return &t, nil
}

// EnsureExpenseTotal returns the expense row, creating it at zero on first access.
func (db *DB) EnsureExpenseTotal(ctx context.Context, hostelID, userID, monthYear string) (*models.ExpenseTotal, error) {
	var t models.ExpenseTotal
	err := ensure(ctx, db.expense, hostelID, userID, monthYear, bson.M{"totalAmount": decimal.Zero}, &t)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense total %s: %w", monthYear, err)
	}
	return &t, nil
}

// PutExpenseTotal overwrites the total but leaves appliedOps alone, so deltas
// already applied are still recognised after a recompute.
func (db *DB) PutExpenseTotal(ctx context.Context, t *models.ExpenseTotal) error {
	set := bson.M{
		"hostelId":    t.HostelID,
		"monthYear":   t.MonthYear,
		"totalAmount": t.TotalAmount,
		"userId":      t.UserID,
		"updatedAt":   t.UpdatedAt,
	}
	opts := options.Update().SetUpsert(true)
	if _, err := db.expense.UpdateOne(ctx, bson.M{"_id": t.ID}, bson.M{"$set": set}, opts); err != nil {
		return fmt.Errorf("failed to save expense total %s: %w", t.ID, err)
	}
	return nil
}

// ApplyExpenseDelta adds delta to the month's expense total in one update
// that also records opID. The filter skips buckets that already hold opID.
func (db *DB) ApplyExpenseDelta(ctx context.Context, hostelID, userID, monthYear string, delta decimal.Decimal, opID string) (bool, error) {
	if _, err := db.EnsureExpenseTotal(ctx, hostelID, userID, monthYear); err != nil {
		return false, err
	}
	id := models.TotalID(hostelID, monthYear)
	filter := bson.M{"_id": id, "appliedOps": bson.M{"$ne": opID}}
	update := bson.M{
		"$inc":  bson.M{"totalAmount": delta},
		"$push": bson.M{"appliedOps": bson.M{"$each": bson.A{opID}, "$slice": -maxAppliedOps}},
		"$set":  bson.M{"updatedAt": time.Now().Unix()},
	}
	res, err := db.expense.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to apply expense delta %s: %w", opID, err)
	}
	return res.MatchedCount > 0, nil
}

// ListIncomeTotals returns every income row of the hostel.
func (db *DB) ListIncomeTotals(ctx context.Context, hostelID string) ([]models.IncomeTotal, error) {
	return findAll[models.IncomeTotal](ctx, db.income, bson.M{"hostelId": hostelID})
}

// ListExpenseTotals returns every expense row of the hostel.
func (db *DB) ListExpenseTotals(ctx context.Context, hostelID string) ([]models.ExpenseTotal, error) {
	return findAll[models.ExpenseTotal](ctx, db.expense, bson.M{"hostelId": hostelID})
}

// ensure upserts a totals row with zero defaults and decodes the stored row.
func ensure(ctx context.Context, coll *mongo.Collection, hostelID, userID, monthYear string, zero bson.M, v interface{}) error {
	id := models.TotalID(hostelID, monthYear)
	onInsert := bson.M{
		"hostelId":  hostelID,
		"monthYear": monthYear,
		"userId":    userID,
		"updatedAt": time.Now().Unix(),
	}
	for k, val := range zero {
		onInsert[k] = val
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$setOnInsert": onInsert}, opts).Decode(v)
	if mongo.IsDuplicateKeyError(err) {
		// Lost a concurrent upsert; the row exists now.
		err = coll.FindOne(ctx, bson.M{"_id": id}).Decode(v)
	}
	return err
}
