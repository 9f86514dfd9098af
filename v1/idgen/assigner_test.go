package idgen

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/mongoplus/v1/mapping"
	"github.com/Aleph-Alpha/mongoplus/v1/mongodb"
)

type article struct {
	ID    string `mongo:",id"`
	Title string
}

type ticket struct {
	ID   int64 `mongo:",id,idtype=auto"`
	Note string
}

type token struct {
	ID string `mongo:",id,idtype=uuid"`
}

type code struct {
	ID string `mongo:",id,idtype=hex"`
}

type manual struct {
	ID string `mongo:",id,idtype=input"`
}

type native struct {
	ID bson.ObjectID `mongo:",id"`
}

func modelOf[T any](t *testing.T) *mapping.TypeModel {
	t.Helper()
	m, err := mapping.ModelOf[T](mapping.Default())
	require.NoError(t, err)
	return m
}

func TestAssignGeneratesObjectID(t *testing.T) {
	a := NewAssigner(nil)
	e := &article{Title: "x"}

	doc, id, err := a.AssignID(context.Background(), modelOf[article](t), e, bson.D{{Key: "title", Value: "x"}})
	require.NoError(t, err)

	oid, ok := id.(bson.ObjectID)
	require.True(t, ok)
	assert.Equal(t, bson.E{Key: "_id", Value: oid}, doc[0])
	assert.Equal(t, bson.E{Key: "title", Value: "x"}, doc[1])
	assert.Equal(t, oid.Hex(), e.ID)
}

func TestAssignKeepsExplicitID(t *testing.T) {
	a := NewAssigner(nil)
	hex := bson.NewObjectID().Hex()

	doc, id, err := a.AssignID(context.Background(), modelOf[article](t), &article{ID: hex},
		bson.D{{Key: "title", Value: "x"}, {Key: "_id", Value: hex}})
	require.NoError(t, err)
	oid, ok := id.(bson.ObjectID)
	require.True(t, ok)
	assert.Equal(t, hex, oid.Hex())
	assert.Equal(t, "_id", doc[0].Key)
	assert.Len(t, doc, 2)

	doc, id, err = a.AssignID(context.Background(), modelOf[article](t), &article{ID: "custom"},
		bson.D{{Key: "_id", Value: "custom"}})
	require.NoError(t, err)
	assert.Equal(t, "custom", id)
	assert.Equal(t, "custom", doc[0].Value)
}

func TestAssignTreatsZeroIDAsMissing(t *testing.T) {
	a := NewAssigner(nil)

	for _, zero := range []any{"", bson.ObjectID{}} {
		doc, id, err := a.AssignID(context.Background(), nil, nil, bson.D{{Key: "_id", Value: zero}, {Key: "name", Value: "x"}})
		require.NoError(t, err)
		oid, ok := id.(bson.ObjectID)
		require.True(t, ok)
		assert.False(t, oid.IsZero())
		assert.Equal(t, bson.D{{Key: "_id", Value: oid}, {Key: "name", Value: "x"}}, doc)
	}

	assert.True(t, MissingID(nil))
	assert.True(t, MissingID((*string)(nil)))
	assert.False(t, MissingID("custom"))
	assert.False(t, MissingID(int64(7)))
}

func TestAssignWithoutObjectIDConversion(t *testing.T) {
	a := NewAssigner(nil, WithObjectIDConversion(false))
	hex := bson.NewObjectID().Hex()

	_, id, err := a.AssignID(context.Background(), modelOf[article](t), nil, bson.D{{Key: "_id", Value: hex}})
	require.NoError(t, err)
	assert.Equal(t, hex, id)
	assert.Equal(t, hex, a.NormalizeID(modelOf[article](t), hex))
}

func TestAssignStrategies(t *testing.T) {
	ctx := context.Background()
	a := NewAssigner(nil)

	tk := &token{}
	_, id, err := a.AssignID(ctx, modelOf[token](t), tk, bson.D{})
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.Equal(t, id, tk.ID)

	c := &code{}
	_, id, err = a.AssignID(ctx, modelOf[code](t), c, bson.D{})
	require.NoError(t, err)
	assert.Len(t, id, 24)
	assert.Equal(t, id, c.ID)

	n := &native{}
	_, id, err = a.AssignID(ctx, modelOf[native](t), n, bson.D{})
	require.NoError(t, err)
	assert.Equal(t, id, n.ID)

	_, _, err = a.AssignID(ctx, modelOf[manual](t), &manual{}, bson.D{})
	assert.True(t, IsIdentifierGenerationError(err))

	doc, id, err := a.AssignID(ctx, nil, nil, bson.D{{Key: "k", Value: 1}})
	require.NoError(t, err)
	assert.IsType(t, bson.ObjectID{}, id)
	assert.Equal(t, "_id", doc[0].Key)
}

func TestAssignGeneratorFailure(t *testing.T) {
	boom := errors.New("boom")
	a := NewAssigner(nil,
		WithGenerator(mapping.IDObjectID, GeneratorFunc(func(context.Context, string) (any, error) { return nil, nil })),
		WithGenerator(mapping.IDUUID, GeneratorFunc(func(context.Context, string) (any, error) { return nil, boom })),
	)

	_, _, err := a.AssignID(context.Background(), modelOf[article](t), &article{}, bson.D{})
	assert.ErrorIs(t, err, ErrIdentifierGeneration)

	_, _, err = a.AssignID(context.Background(), modelOf[token](t), &token{}, bson.D{})
	assert.ErrorIs(t, err, boom)

	_, _, err = NewAssigner(nil).AssignID(context.Background(), modelOf[ticket](t), &ticket{}, bson.D{})
	assert.ErrorIs(t, err, ErrIdentifierGeneration)
}

// counterCollection emulates the atomic $inc upsert of the server.
func counterCollection(ctrl *gomock.Controller) (*mongodb.MockCollection, *sync.Map) {
	values := &sync.Map{}
	coll := mongodb.NewMockCollection(ctrl)
	coll.EXPECT().
		FindOneAndUpdate(gomock.Any(), gomock.Any(), gomock.Any(), true).
		DoAndReturn(func(_ context.Context, filter, update bson.D, _ bool) (bson.D, error) {
			seq := filter[0].Value.(string)
			v, _ := values.LoadOrStore(seq, new(atomic.Int64))
			n := v.(*atomic.Int64).Add(1)
			return bson.D{{Key: "_id", Value: seq}, {Key: CounterField, Value: n}}, nil
		}).
		AnyTimes()
	return coll, values
}

func TestCounterConcurrentInserts(t *testing.T) {
	ctrl := gomock.NewController(t)
	coll, _ := counterCollection(ctrl)
	a := NewAssigner(NewCollectionCounterStore(coll))
	model := modelOf[ticket](t)

	const n = 50
	ids := make([]int64, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			e := &ticket{Note: "x"}
			_, id, err := a.AssignID(context.Background(), model, e, bson.D{})
			if err != nil {
				return err
			}
			ids[i] = id.(int64)
			if e.ID != ids[i] {
				return errors.New("id not written back")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id)
	}
}

func TestMongoCounterStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	coll := mongodb.NewMockCollection(ctrl)
	store := NewCollectionCounterStore(coll)
	ctx := context.Background()

	coll.EXPECT().
		FindOneAndUpdate(ctx,
			bson.D{{Key: "_id", Value: "orders"}},
			bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
			true).
		Return(bson.D{{Key: "_id", Value: "orders"}, {Key: "seq", Value: int32(1)}}, nil)
	n, err := store.Next(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	coll.EXPECT().FindOneAndUpdate(ctx, gomock.Any(), gomock.Any(), true).
		Return(bson.D{{Key: "_id", Value: "orders"}}, nil)
	_, err = store.Next(ctx, "orders")
	assert.ErrorIs(t, err, ErrIdentifierGeneration)

	coll.EXPECT().FindOneAndUpdate(ctx, gomock.Any(), gomock.Any(), true).
		Return(nil, mongodb.ErrConnection)
	_, err = store.Next(ctx, "orders")
	assert.ErrorIs(t, err, ErrIdentifierGeneration)
}
