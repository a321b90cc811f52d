package database

import (
	"context"
	"errors"
	"fmt"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	managersCollection   = "managers"
	hostelsCollection    = "hostels"
	capacitiesCollection = "hostel_capacities"
	roomsCollection      = "rooms"
	residentsCollection  = "hostlers"
	expensesCollection   = "expenses"
	incomeCollection     = "totalprofit"
	expenseCollection    = "totalexpense"
	countersCollection   = "counters"
)

// maxAppliedOps bounds the operation ids remembered per expense bucket.
const maxAppliedOps = 64

// DB wraps MongoDB operations
type DB struct {
	client       *mongo.Client
	transactions bool

	managers   *mongo.Collection
	hostels    *mongo.Collection
	capacities *mongo.Collection
	rooms      *mongo.Collection
	residents  *mongo.Collection
	expenses   *mongo.Collection
	income     *mongo.Collection
	expense    *mongo.Collection
	counters   *mongo.Collection
}

// New connects to MongoDB and makes sure the indexes exist. With
// transactions set, WithTransaction commits multi-document writes together;
// that needs a replica set.
func New(ctx context.Context, uri, dbName string, transactions bool) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRegistry(NewRegistry()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(dbName)
	db := &DB{
		client:       client,
		transactions: transactions,
		managers:     database.Collection(managersCollection),
		hostels:      database.Collection(hostelsCollection),
		capacities:   database.Collection(capacitiesCollection),
		rooms:        database.Collection(roomsCollection),
		residents:    database.Collection(residentsCollection),
		expenses:     database.Collection(expensesCollection),
		income:       database.Collection(incomeCollection),
		expense:      database.Collection(expenseCollection),
		counters:     database.Collection(countersCollection),
	}
	if err := db.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to MongoDB (%s, transactions=%t)", dbName, transactions)
	return db, nil
}

// Close closes the database connection
func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func (db *DB) ensureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		db.managers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "telegramId", Value: 1}}},
		},
		db.rooms: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "roomNo", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		db.residents: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "roomNo", Value: 1}}},
		},
		db.expenses: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}}},
		},
	}
	for coll, specs := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// WithTransaction runs fn inside a MongoDB transaction when transactions are
// enabled. Nested calls join the outer transaction.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !db.transactions || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	sess, err := db.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && apperr.KindOf(err) == apperr.KindUnknown {
		return &apperr.Error{Kind: apperr.KindRemote, Code: apperr.ErrTransaction, Op: "transaction", Err: err}
	}
	return err
}

// NextCounter atomically increments and returns the named sequence.
func (db *DB) NextCounter(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := db.counters.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", name, err)
	}
	return doc.Seq, nil
}

// findOne decodes the single document matching filter into v. A missing
// document becomes a not-found error with code.
func findOne(ctx context.Context, coll *mongo.Collection, filter interface{}, v interface{}, code int, what string) error {
	err := coll.FindOne(ctx, filter).Decode(v)
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(code, "find "+coll.Name(), "%s", what)
	}
	return fmt.Errorf("failed to find %s: %w", what, err)
}

// findAll decodes every document matching filter. Documents that do not
// decode are logged and skipped.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var out []T
	for cursor.Next(ctx) {
		var v T
		if err := cursor.Decode(&v); err != nil {
			logger.Warning("skipping undecodable %s document %v: %v", coll.Name(), cursor.Current.Lookup("_id"), err)
			continue
		}
		out = append(out, v)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", coll.Name(), err)
	}
	return out, nil
}

// insert maps duplicate keys to a duplicate error with code.
func insert(ctx context.Context, coll *mongo.Collection, doc interface{}, code int, what string) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Duplicate(code, "insert "+coll.Name(), "%s already exists", what)
		}
		return fmt.Errorf("failed to insert %s: %w", what, err)
	}
	return nil
}

// updateByID applies update to one document and reports a missing document
// as not found.
func updateByID(ctx context.Context, coll *mongo.Collection, id string, update interface{}, code int, what string) error {
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(code, "update "+coll.Name(), "%s", what)
	}
	return nil
}

func exists(ctx context.Context, coll *mongo.Collection, id string) (bool, error) {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up %s %s: %w", coll.Name(), id, err)
	}
	return n > 0, nil
}
