package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// collection adapts *mongo.Collection to Collection.
type collection struct {
	coll *mongo.Collection
}

// NewCollection wraps a driver collection.
func NewCollection(coll *mongo.Collection) Collection {
	return &collection{coll: coll}
}

func (c *collection) Name() string     { return c.coll.Name() }
func (c *collection) Database() string { return c.coll.Database().Name() }

func (c *collection) Find(ctx context.Context, filter bson.D, opts FindOptions) (*mongo.Cursor, error) {
	findOpts := options.Find()
	if len(opts.Sort) > 0 {
		findOpts.SetSort(opts.Sort)
	}
	if len(opts.Projection) > 0 {
		findOpts.SetProjection(opts.Projection)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cur, err := c.coll.Find(ctx, orEmpty(filter), findOpts)
	if err != nil {
		return nil, TranslateError(err)
	}
	return cur, nil
}

func (c *collection) CountDocuments(ctx context.Context, filter bson.D) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, orEmpty(filter))
	return n, TranslateError(err)
}

func (c *collection) InsertOne(ctx context.Context, doc bson.D) (any, error) {
	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, TranslateError(err)
	}
	return res.InsertedID, nil
}

func (c *collection) InsertMany(ctx context.Context, docs []bson.D) (int64, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	items := make([]any, len(docs))
	for i, d := range docs {
		items[i] = d
	}
	res, err := c.coll.InsertMany(ctx, items)
	if err != nil {
		return 0, TranslateError(err)
	}
	return int64(len(res.InsertedIDs)), nil
}

func (c *collection) UpdateOne(ctx context.Context, filter, update bson.D, upsert bool) (UpdateResult, error) {
	res, err := c.coll.UpdateOne(ctx, orEmpty(filter), update, options.UpdateOne().SetUpsert(upsert))
	if err != nil {
		return UpdateResult{}, TranslateError(err)
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount, Upserted: res.UpsertedCount}, nil
}

func (c *collection) UpdateMany(ctx context.Context, filter, update bson.D) (UpdateResult, error) {
	res, err := c.coll.UpdateMany(ctx, orEmpty(filter), update)
	if err != nil {
		return UpdateResult{}, TranslateError(err)
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount, Upserted: res.UpsertedCount}, nil
}

func (c *collection) DeleteOne(ctx context.Context, filter bson.D) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, orEmpty(filter))
	if err != nil {
		return 0, TranslateError(err)
	}
	return res.DeletedCount, nil
}

func (c *collection) DeleteMany(ctx context.Context, filter bson.D) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, orEmpty(filter))
	if err != nil {
		return 0, TranslateError(err)
	}
	return res.DeletedCount, nil
}

func (c *collection) FindOneAndUpdate(ctx context.Context, filter, update bson.D, upsert bool) (bson.D, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(upsert).
		SetReturnDocument(options.After)

	var out bson.D
	if err := c.coll.FindOneAndUpdate(ctx, orEmpty(filter), update, opts).Decode(&out); err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

func (c *collection) BulkWrite(ctx context.Context, models []mongo.WriteModel) (BulkResult, error) {
	if len(models) == 0 {
		return BulkResult{}, nil
	}
	res, err := c.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return BulkResult{}, TranslateError(err)
	}
	return BulkResult{
		Inserted: res.InsertedCount,
		Matched:  res.MatchedCount,
		Modified: res.ModifiedCount,
		Upserted: res.UpsertedCount,
		Deleted:  res.DeletedCount,
	}, nil
}

func (c *collection) CreateTextIndex(ctx context.Context, column string) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: column, Value: "text"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create text index on %s.%s: %w", c.coll.Name(), column, TranslateError(err))
	}
	return nil
}

func orEmpty(filter bson.D) bson.D {
	if filter == nil {
		return bson.D{}
	}
	return filter
}
