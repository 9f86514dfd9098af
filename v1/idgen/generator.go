package idgen

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Generator produces a new identifier for the named sequence, which is the
// collection name. Generators must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, sequence string) (any, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, sequence string) (any, error)

func (f GeneratorFunc) Generate(ctx context.Context, sequence string) (any, error) {
	return f(ctx, sequence)
}

// ObjectID generates native ObjectIDs.
var ObjectID = GeneratorFunc(func(context.Context, string) (any, error) {
	return bson.NewObjectID(), nil
})

// ObjectIDHex generates ObjectIDs stored as their hex string.
var ObjectIDHex = GeneratorFunc(func(context.Context, string) (any, error) {
	return bson.NewObjectID().Hex(), nil
})

// UUID generates random version 4 UUID strings.
var UUID = GeneratorFunc(func(context.Context, string) (any, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentifierGeneration, err)
	}
	return id.String(), nil
})

// Counter returns a generator that takes the next value of a per-sequence
// counter from store.
func Counter(store CounterStore) Generator {
	return GeneratorFunc(func(ctx context.Context, sequence string) (any, error) {
		if store == nil {
			return nil, fmt.Errorf("%w: no counter store configured", ErrIdentifierGeneration)
		}
		n, err := store.Next(ctx, sequence)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}
