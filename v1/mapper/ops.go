package mapper

import (
	"context"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Aleph-Alpha/mongoplus/v1/condition"
	"github.com/Aleph-Alpha/mongoplus/v1/datasource"
	"github.com/Aleph-Alpha/mongoplus/v1/idgen"
	"github.com/Aleph-Alpha/mongoplus/v1/mapping"
	"github.com/Aleph-Alpha/mongoplus/v1/mongodb"
)

// collectionOps implements the document level operations shared by Mapper
// and MapMapper. model is nil for map documents.
type collectionOps struct {
	core     *Core
	model    *mapping.TypeModel
	binding  datasource.Binding
	database string
	assigner *idgen.Assigner
}

func newOps(core *Core, model *mapping.TypeModel, b datasource.Binding, database string) *collectionOps {
	o := &collectionOps{core: core, model: model, binding: b, database: database}
	o.assigner = idgen.NewAssigner(
		idgen.NewMongoCounterStore(o.counterCollection),
		idgen.WithRegistry(core.codec.Registry()),
		idgen.WithObjectIDConversion(!core.cfg.DisableObjectIDConversion),
	)
	return o
}

// counterCollection resolves the sequence collection next to the entity's
// own collection.
func (o *collectionOps) counterCollection(ctx context.Context) (mongodb.Collection, error) {
	b := o.binding
	b.Collection = o.core.cfg.counterCollection()
	t, err := o.core.resolver.Target(ctx, b, o.database)
	if err != nil {
		return nil, err
	}
	return o.core.resolver.Handle(ctx, t)
}

func (o *collectionOps) do(ctx context.Context, op string, fn opFunc) error {
	return o.core.do(ctx, op, o.binding, o.database, fn)
}

func (o *collectionOps) normalizeID(v any) any {
	return o.assigner.NormalizeID(o.model, v)
}

// idFilter builds {_id: id}.
func (o *collectionOps) idFilter(id any) (bson.D, error) {
	v, err := o.core.codec.EncodeValue(id)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: mapping.IDWireName, Value: o.normalizeID(v)}}, nil
}

// idsFilter builds {_id: {$in: ids}}.
func (o *collectionOps) idsFilter(ids []any) (bson.D, error) {
	in := make(bson.A, 0, len(ids))
	for _, id := range ids {
		v, err := o.core.codec.EncodeValue(id)
		if err != nil {
			return nil, err
		}
		in = append(in, o.normalizeID(v))
	}
	return bson.D{{Key: mapping.IDWireName, Value: bson.D{{Key: "$in", Value: in}}}}, nil
}

// columnFilter builds {column: value} with column mapped to its stored key.
func (o *collectionOps) columnFilter(column string, value any) (bson.D, error) {
	key := o.wireName(column)
	v, err := o.core.codec.EncodeValue(value)
	if err != nil {
		return nil, err
	}
	if key == mapping.IDWireName {
		v = o.normalizeID(v)
	}
	return bson.D{{Key: key, Value: v}}, nil
}

func (o *collectionOps) wireName(column string) string {
	if o.model == nil {
		return column
	}
	return o.model.WireName(column)
}

// encodedOperators take values that are stored the way fields are.
var encodedOperators = map[condition.Operator]bool{
	condition.Eq: true, condition.Ne: true, condition.Gt: true, condition.Gte: true,
	condition.Lt: true, condition.Lte: true, condition.In: true, condition.Nin: true,
	condition.All: true, condition.Set: true,
}

// compile maps columns to stored keys, encodes comparison values and
// compiles w.
func (o *collectionOps) compile(w *condition.Wrapper) (*condition.Query, error) {
	if w == nil {
		w = condition.New()
	}
	if o.model != nil {
		w = w.MapColumns(o.model.WireName)
	}

	var encErr error
	w = w.MapNodes(func(n condition.Node) condition.Node {
		if encErr != nil || n.Column == "" || !encodedOperators[n.Operator] {
			return n
		}
		v, err := o.core.codec.EncodeValue(n.Value)
		if err != nil {
			encErr = fmt.Errorf("%w: column %s: %v", condition.ErrQuery, n.Column, err)
			return n
		}
		if n.Column == mapping.IDWireName {
			v = o.normalizeIDs(v)
		}
		n.Value = v
		return n
	})
	if encErr != nil {
		return nil, encErr
	}
	return condition.Compile(w)
}

func (o *collectionOps) normalizeIDs(v any) any {
	if arr, ok := v.(bson.A); ok {
		out := make(bson.A, len(arr))
		for i, item := range arr {
			out[i] = o.normalizeID(item)
		}
		return out
	}
	return o.normalizeID(v)
}

// ensureTextIndexes creates the text indexes q needs and clears the marker,
// so each compiled query creates them at most once.
func ensureTextIndexes(ctx context.Context, coll mongodb.Collection, q *condition.Query) error {
	for _, column := range q.PendingTextIndexes() {
		if err := coll.CreateTextIndex(ctx, column); err != nil {
			return err
		}
	}
	q.ClearTextIndexes()
	return nil
}

func fetch(ctx context.Context, coll mongodb.Collection, q *condition.Query, skip, limit int64) ([]bson.D, error) {
	if err := ensureTextIndexes(ctx, coll, q); err != nil {
		return nil, err
	}
	cur, err := coll.Find(ctx, q.Filter, mongodb.FindOptions{
		Sort:       q.Sort,
		Projection: q.Projection,
		Skip:       skip,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return readAll(ctx, cur)
}

func readAll(ctx context.Context, cur *mongo.Cursor) ([]bson.D, error) {
	defer cur.Close(ctx)

	docs := make([]bson.D, 0)
	for cur.Next(ctx) {
		var d bson.D
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := cur.Err(); err != nil {
		return nil, mongodb.TranslateError(err)
	}
	return docs, nil
}

// find runs q and returns the raw documents.
func (o *collectionOps) find(ctx context.Context, op string, q *condition.Query, skip, limit int64) ([]bson.D, error) {
	var docs []bson.D
	err := o.do(ctx, op, func(ctx context.Context, coll mongodb.Collection) (int64, error) {
		var err error
		docs, err = fetch(ctx, coll, q, skip, limit)
		return int64(len(docs)), err
	})
	return docs, err
}

func (o *collectionOps) count(ctx context.Context, op string, q *condition.Query) (int64, error) {
	var total int64
	err := o.do(ctx, op, func(ctx context.Context, coll mongodb.Collection) (int64, error) {
		if err := ensureTextIndexes(ctx, coll, q); err != nil {
			return 0, err
		}
		var err error
		total, err = coll.CountDocuments(ctx, q.Filter)
		return 0, err
	})
	return total, err
}

// page counts with the filter alone and then fetches one page with the same
// compiled query.
func (o *collectionOps) page(ctx context.Context, q *condition.Query, pageNum, pageSize int64) ([]bson.D, int64, error) {
	if pageNum < 1 || pageSize < 1 {
		return nil, 0, fmt.Errorf("%w: page number and size must be at least 1, got %d and %d", condition.ErrQuery, pageNum, pageSize)
	}
	if pageNum-1 > math.MaxInt64/pageSize {
		return nil, 0, fmt.Errorf("%w: page %d of size %d is out of range", condition.ErrQuery, pageNum, pageSize)
	}

	var docs []bson.D
	var total int64
	err := o.do(ctx, "page", func(ctx context.Context, coll mongodb.Collection) (int64, error) {
		if err := ensureTextIndexes(ctx, coll, q); err != nil {
			return 0, err
		}
		var err error
		if total, err = coll.CountDocuments(ctx, q.Filter); err != nil {
			return 0, err
		}
		docs, err = fetch(ctx, coll, q, (pageNum-1)*pageSize, pageSize)
		return int64(len(docs)), err
	})
	return docs, total, err
}

// one fetches at most two documents and fails when both exist.
func (o *collectionOps) one(ctx context.Context, q *condition.Query) (bson.D, bool, error) {
	docs, err := o.find(ctx, "one", q, 0, 2)
	if err != nil {
		return nil, false, err
	}
	switch len(docs) {
	case 0:
		return nil, false, nil
	case 1:
		return docs[0], true, nil
	}
	return nil, false, fmt.Errorf("%w: collection %s", ErrMultipleResults, o.binding.Collection)
}

func (o *collectionOps) limitOne(ctx context.Context, q *condition.Query) (bson.D, bool, error) {
	docs, err := o.find(ctx, "limit_one", q, 0, 1)
	if err != nil || len(docs) == 0 {
		return nil, false, err
	}
	return docs[0], true, nil
}

func (o *collectionOps) insertOne(ctx context.Context, doc bson.D) error {
	return o.do(ctx, "save", func(ctx context.Context, coll mongodb.Collection) (int64, error) {
		if _, err := coll.InsertOne(ctx, doc); err != nil {
			return 0, err
		}
		return 1, nil
	})
}

func (o *collectionOps) insertMany(ctx context.Context, docs []bson.D) (bool, error) {
	var inserted int64
	err := o.do(ctx, "save_batch", func(ctx context.Context, coll mongodb.Collection) (int64, error) {
		var err error
		inserted, err = coll.InsertMany(ctx, docs)
		return inserted, err
	})
	return err == nil && inserted == int64(len(docs)), err
}

func (o *collectionOps) updateOne(ctx context.Context, op string, filter, set bson.D) (bool, error) {
	var res mongodb.UpdateResult
	err := o.do(ctx, op, func(ctx context.Context, coll mongodb.Collection) (int64, error) {
		var err error
		res, err = coll.UpdateOne(ctx, filter, setDoc(set), false)
		return res.Modified, err
	})
	return err == nil && res.Matched > 0, err
}

func (o *collectionOps) updateMany(ctx context.Context, op string, filter, set bson.D) (bool, error) {
	var res mongodb.UpdateResult
	err := o.do(ctx, op, func(ctx context.Context, coll mongodb.Collection) (int64, error) {
		var err error
		res, err = coll.UpdateMany(ctx, filter, setDoc(set))
		return res.Modified, err
	})
	return err == nil && res.Matched > 0, err
}

func (o *collectionOps) remove(ctx context.Context, op string, filter bson.D, many bool) (int64, error) {
	var removed int64
	err := o.do(ctx, op, func(ctx context.Context, coll mongodb.Collection) (int64, error) {
		var err error
		if many {
			removed, err = coll.DeleteMany(ctx, filter)
		} else {
			removed, err = coll.DeleteOne(ctx, filter)
		}
		return removed, err
	})
	return removed, err
}

// bulk runs models and reports success when every model took effect.
func (o *collectionOps) bulk(ctx context.Context, op string, models []mongo.WriteModel) (bool, error) {
	var res mongodb.BulkResult
	err := o.do(ctx, op, func(ctx context.Context, coll mongodb.Collection) (int64, error) {
		var err error
		res, err = coll.BulkWrite(ctx, models)
		return res.Inserted + res.Matched + res.Upserted, err
	})
	if err != nil {
		return false, err
	}
	return res.Inserted+res.Matched+res.Upserted == int64(len(models)), nil
}

func setDoc(set bson.D) bson.D {
	return bson.D{{Key: "$set", Value: set}}
}

// splitID removes _id from doc and returns it separately.
func splitID(doc bson.D) (any, bson.D) {
	rest := make(bson.D, 0, len(doc))
	var id any
	for _, e := range doc {
		if e.Key == mapping.IDWireName {
			id = e.Value
			continue
		}
		rest = append(rest, e)
	}
	return id, rest
}

// updateFill adds auto-fill values for the update phase to set, without
// overriding keys the caller set explicitly.
func (o *collectionOps) updateFill(set bson.D) (bson.D, error) {
	if o.core.meta == nil {
		return set, nil
	}
	fc := mapping.NewFillContext(o.model, mapping.PhaseUpdate)
	fc.Apply(o.core.meta)
	if fc.Len() == 0 {
		return set, nil
	}

	present := make(map[string]bool, len(set))
	for _, e := range set {
		present[e.Key] = true
	}

	var keys []string
	if o.model != nil {
		for _, f := range o.model.Fields() {
			keys = append(keys, f.WireName)
		}
	} else {
		keys = fc.Keys()
	}
	for _, k := range keys {
		v, ok := fc.Get(k)
		if !ok || present[k] {
			continue
		}
		enc, err := o.core.codec.EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("fill %s: %w", k, err)
		}
		set = append(set, bson.E{Key: k, Value: enc})
	}
	return set, nil
}
