package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// FindOptions carries the compiled sort and projection plus paging for Find.
// Zero values mean "not set".
type FindOptions struct {
	Sort       bson.D
	Projection bson.D
	Skip       int64
	Limit      int64
}

// UpdateResult reports the outcome of an update.
type UpdateResult struct {
	Matched  int64
	Modified int64
	Upserted int64
}

// BulkResult reports the outcome of a bulk write.
type BulkResult struct {
	Inserted int64
	Matched  int64
	Modified int64
	Upserted int64
	Deleted  int64
}

// Collection is the part of a MongoDB collection the mapper layer needs.
// All errors are passed through TranslateError.
//
//go:generate mockgen -source=interface.go -destination=mock_collection.go -package=mongodb
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Database returns the name of the database holding the collection.
	Database() string

	Find(ctx context.Context, filter bson.D, opts FindOptions) (*mongo.Cursor, error)

	// CountDocuments counts with the filter only, never with skip, limit or
	// projection.
	CountDocuments(ctx context.Context, filter bson.D) (int64, error)

	// InsertOne returns the stored _id.
	InsertOne(ctx context.Context, doc bson.D) (any, error)

	// InsertMany returns the number of inserted documents.
	InsertMany(ctx context.Context, docs []bson.D) (int64, error)

	UpdateOne(ctx context.Context, filter, update bson.D, upsert bool) (UpdateResult, error)
	UpdateMany(ctx context.Context, filter, update bson.D) (UpdateResult, error)

	// DeleteOne and DeleteMany return the number of removed documents.
	DeleteOne(ctx context.Context, filter bson.D) (int64, error)
	DeleteMany(ctx context.Context, filter bson.D) (int64, error)

	// FindOneAndUpdate applies update atomically and returns the document as
	// it is after the update. ErrDocumentNotFound when nothing matched and
	// upsert is false.
	FindOneAndUpdate(ctx context.Context, filter, update bson.D, upsert bool) (bson.D, error)

	// BulkWrite runs models unordered.
	BulkWrite(ctx context.Context, models []mongo.WriteModel) (BulkResult, error)

	// CreateTextIndex ensures a text index on column. It is idempotent.
	CreateTextIndex(ctx context.Context, column string) error
}
