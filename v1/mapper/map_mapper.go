package mapper

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Aleph-Alpha/mongoplus/v1/condition"
	"github.com/Aleph-Alpha/mongoplus/v1/datasource"
	"github.com/Aleph-Alpha/mongoplus/v1/idgen"
	"github.com/Aleph-Alpha/mongoplus/v1/mapping"
)

// MapMapper reads and writes loosely-typed documents in named collections.
// Keys are stored as given; conditions use stored keys directly. Documents
// without an _id get an ObjectID.
type MapMapper struct {
	core     *Core
	database string
}

// NewMapMapper returns a map mapper over core.
func NewMapMapper(core *Core) *MapMapper {
	return &MapMapper{core: core}
}

// WithDatabase returns a copy that always uses database.
func (m *MapMapper) WithDatabase(database string) *MapMapper {
	return &MapMapper{core: m.core, database: database}
}

func (m *MapMapper) ops(collection string) *collectionOps {
	return newOps(m.core, nil, datasource.Binding{Collection: collection}, m.database)
}

func (m *MapMapper) insertDoc(ctx context.Context, o *collectionOps, doc map[string]any) (bson.D, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", mapping.ErrMapping)
	}
	fc := mapping.NewFillContext(nil, mapping.PhaseInsert)
	fc.Apply(m.core.meta)
	d, err := m.core.codec.EncodeMap(doc, fc)
	if err != nil {
		return nil, err
	}
	d, id, err := o.assigner.AssignID(ctx, nil, nil, d)
	if err != nil {
		return nil, err
	}
	doc[mapping.IDWireName] = id
	return d, nil
}

func (m *MapMapper) bodyDoc(doc map[string]any) (any, bson.D, error) {
	if doc == nil {
		return nil, nil, fmt.Errorf("%w: nil document", mapping.ErrMapping)
	}
	fc := mapping.NewFillContext(nil, mapping.PhaseUpdate)
	fc.Apply(m.core.meta)
	d, err := m.core.codec.EncodeMap(doc, fc)
	if err != nil {
		return nil, nil, err
	}
	id, rest := splitID(d)
	return id, rest, nil
}

func (m *MapMapper) updateDoc(o *collectionOps, doc map[string]any) (filter, set bson.D, err error) {
	id, rest, err := m.bodyDoc(doc)
	if err != nil {
		return nil, nil, err
	}
	if id == nil {
		return nil, nil, fmt.Errorf("%w: document has no _id", mapping.ErrIdentifierMissing)
	}
	return bson.D{{Key: mapping.IDWireName, Value: o.normalizeID(id)}}, rest, nil
}

func (m *MapMapper) decode(docs []bson.D) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		v, err := m.core.codec.DecodeMap(d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *MapMapper) decodeOne(doc bson.D, found bool, err error) (map[string]any, bool, error) {
	if err != nil || !found {
		return nil, false, err
	}
	v, err := m.core.codec.DecodeMap(doc)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func hasMapID(doc map[string]any) bool {
	v, ok := doc[mapping.IDWireName]
	return ok && !idgen.MissingID(v)
}

// Save inserts doc into collection. A generated _id is written back into doc.
func (m *MapMapper) Save(ctx context.Context, collection string, doc map[string]any) error {
	o := m.ops(collection)
	d, err := m.insertDoc(ctx, o, doc)
	if err != nil {
		return err
	}
	return o.insertOne(ctx, d)
}

// SaveBatch inserts every document and reports whether all were written.
func (m *MapMapper) SaveBatch(ctx context.Context, collection string, docs []map[string]any) (bool, error) {
	if len(docs) == 0 {
		return true, nil
	}
	o := m.ops(collection)
	out := make([]bson.D, 0, len(docs))
	for _, doc := range docs {
		d, err := m.insertDoc(ctx, o, doc)
		if err != nil {
			return false, err
		}
		out = append(out, d)
	}
	return o.insertMany(ctx, out)
}

// SaveOrUpdate inserts doc when it has no _id and updates by _id otherwise.
func (m *MapMapper) SaveOrUpdate(ctx context.Context, collection string, doc map[string]any) (bool, error) {
	if !hasMapID(doc) {
		if err := m.Save(ctx, collection, doc); err != nil {
			return false, err
		}
		return true, nil
	}
	return m.UpdateByID(ctx, collection, doc)
}

// SaveOrUpdateBatch inserts documents without _id and upserts the others
// in one bulk request.
func (m *MapMapper) SaveOrUpdateBatch(ctx context.Context, collection string, docs []map[string]any) (bool, error) {
	if len(docs) == 0 {
		return true, nil
	}
	o := m.ops(collection)
	models := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		if !hasMapID(doc) {
			d, err := m.insertDoc(ctx, o, doc)
			if err != nil {
				return false, err
			}
			models = append(models, mongo.NewInsertOneModel().SetDocument(d))
			continue
		}
		filter, set, err := m.updateDoc(o, doc)
		if err != nil {
			return false, err
		}
		models = append(models, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(setDoc(set)).SetUpsert(true))
	}
	return o.bulk(ctx, "save_or_update_batch", models)
}

// UpdateByID sets every key of doc on the document with doc's _id.
func (m *MapMapper) UpdateByID(ctx context.Context, collection string, doc map[string]any) (bool, error) {
	o := m.ops(collection)
	filter, set, err := m.updateDoc(o, doc)
	if err != nil {
		return false, err
	}
	return o.updateOne(ctx, "update_by_id", filter, set)
}

// UpdateBatchByIDs updates every document by _id in one bulk request.
func (m *MapMapper) UpdateBatchByIDs(ctx context.Context, collection string, docs []map[string]any) (bool, error) {
	if len(docs) == 0 {
		return true, nil
	}
	o := m.ops(collection)
	models := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		filter, set, err := m.updateDoc(o, doc)
		if err != nil {
			return false, err
		}
		models = append(models, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(setDoc(set)))
	}
	return o.bulk(ctx, "update_batch_by_ids", models)
}

// UpdateByColumn updates the documents whose column equals doc[column].
func (m *MapMapper) UpdateByColumn(ctx context.Context, collection string, doc map[string]any, column string) (bool, error) {
	o := m.ops(collection)
	value, ok := doc[column]
	if !ok {
		return false, fmt.Errorf("%w: document has no key %q", mapping.ErrMapping, column)
	}
	filter, err := o.columnFilter(column, value)
	if err != nil {
		return false, err
	}
	_, set, err := m.bodyDoc(doc)
	if err != nil {
		return false, err
	}
	return o.updateMany(ctx, "update_by_column", filter, set)
}

// Update applies the Set assignments of w to the matching documents.
func (m *MapMapper) Update(ctx context.Context, collection string, w *condition.Wrapper) (bool, error) {
	o := m.ops(collection)
	q, err := o.compile(w)
	if err != nil {
		return false, err
	}
	if len(q.Update) == 0 {
		return false, fmt.Errorf("%w: update without assignments", condition.ErrQuery)
	}
	set, err := o.updateFill(q.Update)
	if err != nil {
		return false, err
	}
	return o.updateMany(ctx, "update", q.Filter, set)
}

// Remove deletes the documents matching w.
func (m *MapMapper) Remove(ctx context.Context, collection string, w *condition.Wrapper) (int64, error) {
	o := m.ops(collection)
	q, err := o.compile(w)
	if err != nil {
		return 0, err
	}
	return o.remove(ctx, "remove", q.Filter, true)
}

// RemoveByID deletes the document with id and reports whether it existed.
func (m *MapMapper) RemoveByID(ctx context.Context, collection string, id any) (bool, error) {
	o := m.ops(collection)
	filter, err := o.idFilter(id)
	if err != nil {
		return false, err
	}
	n, err := o.remove(ctx, "remove_by_id", filter, false)
	return n > 0, err
}

// RemoveByColumn deletes the documents whose column equals value.
func (m *MapMapper) RemoveByColumn(ctx context.Context, collection, column string, value any) (int64, error) {
	o := m.ops(collection)
	filter, err := o.columnFilter(column, value)
	if err != nil {
		return 0, err
	}
	return o.remove(ctx, "remove_by_column", filter, true)
}

// RemoveBatchByIDs deletes the documents with the given identifiers.
func (m *MapMapper) RemoveBatchByIDs(ctx context.Context, collection string, ids ...any) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	o := m.ops(collection)
	filter, err := o.idsFilter(ids)
	if err != nil {
		return 0, err
	}
	return o.remove(ctx, "remove_batch_by_ids", filter, true)
}

// GetByID loads the document with id.
func (m *MapMapper) GetByID(ctx context.Context, collection string, id any) (map[string]any, bool, error) {
	o := m.ops(collection)
	filter, err := o.idFilter(id)
	if err != nil {
		return nil, false, err
	}
	docs, err := o.find(ctx, "get_by_id", &condition.Query{Filter: filter}, 0, 1)
	if err != nil || len(docs) == 0 {
		return nil, false, err
	}
	return m.decodeOne(docs[0], true, nil)
}

// GetByIDs loads the documents with the given identifiers.
func (m *MapMapper) GetByIDs(ctx context.Context, collection string, ids ...any) ([]map[string]any, error) {
	if len(ids) == 0 {
		return []map[string]any{}, nil
	}
	o := m.ops(collection)
	filter, err := o.idsFilter(ids)
	if err != nil {
		return nil, err
	}
	docs, err := o.find(ctx, "get_by_ids", &condition.Query{Filter: filter}, 0, 0)
	if err != nil {
		return nil, err
	}
	return m.decode(docs)
}

// List returns every document matching w.
func (m *MapMapper) List(ctx context.Context, collection string, w *condition.Wrapper) ([]map[string]any, error) {
	o := m.ops(collection)
	q, err := o.compile(w)
	if err != nil {
		return nil, err
	}
	docs, err := o.find(ctx, "list", q, 0, 0)
	if err != nil {
		return nil, err
	}
	return m.decode(docs)
}

// ListAll returns every document in collection.
func (m *MapMapper) ListAll(ctx context.Context, collection string) ([]map[string]any, error) {
	return m.List(ctx, collection, nil)
}

// One returns the single document matching w, or ErrMultipleResults.
func (m *MapMapper) One(ctx context.Context, collection string, w *condition.Wrapper) (map[string]any, bool, error) {
	o := m.ops(collection)
	q, err := o.compile(w)
	if err != nil {
		return nil, false, err
	}
	return m.decodeOne(o.one(ctx, q))
}

// LimitOne returns the first document matching w.
func (m *MapMapper) LimitOne(ctx context.Context, collection string, w *condition.Wrapper) (map[string]any, bool, error) {
	o := m.ops(collection)
	q, err := o.compile(w)
	if err != nil {
		return nil, false, err
	}
	return m.decodeOne(o.limitOne(ctx, q))
}

// Page returns page pageNum, counted from 1, of the documents matching w.
func (m *MapMapper) Page(ctx context.Context, collection string, w *condition.Wrapper, pageNum, pageSize int64) (PageResult[map[string]any], error) {
	o := m.ops(collection)
	q, err := o.compile(w)
	if err != nil {
		return PageResult[map[string]any]{}, err
	}
	docs, total, err := o.page(ctx, q, pageNum, pageSize)
	if err != nil {
		return PageResult[map[string]any]{}, err
	}
	content, err := m.decode(docs)
	if err != nil {
		return PageResult[map[string]any]{}, err
	}
	return newPage(pageNum, pageSize, total, content), nil
}

// Count returns how many documents match w.
func (m *MapMapper) Count(ctx context.Context, collection string, w *condition.Wrapper) (int64, error) {
	o := m.ops(collection)
	q, err := o.compile(w)
	if err != nil {
		return 0, err
	}
	return o.count(ctx, "count", q)
}

// CountAll returns the number of documents in collection.
func (m *MapMapper) CountAll(ctx context.Context, collection string) (int64, error) {
	return m.ops(collection).count(ctx, "count_all", &condition.Query{})
}

// Exists reports whether a document with id exists.
func (m *MapMapper) Exists(ctx context.Context, collection string, id any) (bool, error) {
	o := m.ops(collection)
	filter, err := o.idFilter(id)
	if err != nil {
		return false, err
	}
	n, err := o.count(ctx, "exists", &condition.Query{Filter: filter})
	return n > 0, err
}
