package idgen

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Aleph-Alpha/mongoplus/v1/mongodb"
)

// DefaultCounterCollection holds one counter document per sequence:
// {_id: <sequence>, seq: <int64>}.
const DefaultCounterCollection = "counter"

// CounterField is the key the current value is stored under.
const CounterField = "seq"

// CounterStore hands out strictly increasing values per sequence.
type CounterStore interface {
	Next(ctx context.Context, sequence string) (int64, error)
}

// CollectionFunc returns the collection holding the counter documents.
type CollectionFunc func(ctx context.Context) (mongodb.Collection, error)

// MongoCounterStore keeps counters in a MongoDB collection. Every call is a
// single atomic upsert-and-increment, so concurrent callers never see the
// same value and a missing counter starts at 1.
type MongoCounterStore struct {
	collection CollectionFunc
}

// NewMongoCounterStore returns a store over the collection returned by fn.
func NewMongoCounterStore(fn CollectionFunc) *MongoCounterStore {
	return &MongoCounterStore{collection: fn}
}

// NewCollectionCounterStore returns a store over a fixed collection.
func NewCollectionCounterStore(coll mongodb.Collection) *MongoCounterStore {
	return NewMongoCounterStore(func(context.Context) (mongodb.Collection, error) {
		return coll, nil
	})
}

// Next increments the sequence and returns the new value.
func (s *MongoCounterStore) Next(ctx context.Context, sequence string) (int64, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: counter collection: %v", ErrIdentifierGeneration, err)
	}

	doc, err := coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: sequence}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: CounterField, Value: int64(1)}}}},
		true,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: sequence %q: %v", ErrIdentifierGeneration, sequence, err)
	}

	for _, e := range doc {
		if e.Key != CounterField {
			continue
		}
		switch v := e.Value.(type) {
		case int64:
			return v, nil
		case int32:
			return int64(v), nil
		case float64:
			return int64(v), nil
		}
		return 0, fmt.Errorf("%w: sequence %q holds %T", ErrIdentifierGeneration, sequence, e.Value)
	}
	return 0, fmt.Errorf("%w: sequence %q returned no value", ErrIdentifierGeneration, sequence)
}
